package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInputTerminated is returned when input ends before an answer was given.
var ErrInputTerminated = errors.New("input terminated")

// Prompter asks line-oriented questions on a terminal.
type Prompter struct {
	writer io.Writer
	reader *LineReader
}

// NewCLIPrompter creates a new CLI prompter with the given reader and writer.
func NewCLIPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	return &Prompter{
		reader: NewLineReader(reader),
		writer: writer,
	}
}

func (p *Prompter) ask(ctx context.Context, prompt string) (string, error) {
	if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	line, err := p.reader.ReadLine(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", ErrInputTerminated
		}
		return "", err
	}
	return line, nil
}

func (p *Prompter) complain(msg string) {
	if _, err := fmt.Fprintln(p.writer, FormatError(msg)); err != nil {
		slog.Warn("Failed to write error message", "error", err)
	}
}

// Confirm asks a yes/no question. An empty answer is no.
func (p *Prompter) Confirm(ctx context.Context, prompt string) (bool, error) {
	for {
		answer, err := p.ask(ctx, prompt+" [y/N]")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return true, nil
		case "", "n", "no":
			return false, nil
		}
		p.complain("Please answer y or n.")
	}
}

// PromptAmount asks for a non-negative peso amount. Commas and a leading ₱
// are accepted.
func (p *Prompter) PromptAmount(ctx context.Context, prompt string) (decimal.Decimal, error) {
	for {
		answer, err := p.ask(ctx, prompt)
		if err != nil {
			return decimal.Zero, err
		}
		amount, err := ParseAmount(answer)
		if err == nil && !amount.IsNegative() {
			return amount, nil
		}
		p.complain("Enter an amount like 1500 or 1,500.50.")
	}
}

// PromptChoice asks until the answer is one of choices.
func (p *Prompter) PromptChoice(ctx context.Context, prompt string, choices []string) (string, error) {
	full := fmt.Sprintf("%s [%s]", prompt, strings.Join(choices, "/"))
	for {
		answer, err := p.ask(ctx, full)
		if err != nil {
			return "", err
		}
		answer = strings.ToLower(answer)
		for _, c := range choices {
			if answer == c {
				return c, nil
			}
		}
		p.complain("Invalid choice. Please try again.")
	}
}

// ParseAmount parses user-typed amounts such as "₱1,500.50".
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer("₱", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}
