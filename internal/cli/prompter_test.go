package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompter_Confirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "full yes", input: "YES\n", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "empty defaults to no", input: "\n", want: false},
		{name: "retries on garbage", input: "maybe\ny\n", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewCLIPrompter(strings.NewReader(tt.input), &out)

			got, err := p.Confirm(context.Background(), "Reset everything?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Reset everything? [y/N]")
		})
	}
}

func TestPrompter_ConfirmEOF(t *testing.T) {
	p := NewCLIPrompter(strings.NewReader(""), &bytes.Buffer{})
	_, err := p.Confirm(context.Background(), "Sure?")
	assert.ErrorIs(t, err, ErrInputTerminated)
}

func TestPrompter_ConfirmCanceled(t *testing.T) {
	pr, pw := io.Pipe()
	defer func() { _ = pw.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewCLIPrompter(pr, &bytes.Buffer{})
	_, err := p.Confirm(ctx, "Sure?")
	assert.ErrorIs(t, err, ErrInputCancelled)
}

func TestPrompter_PromptAmount(t *testing.T) {
	var out bytes.Buffer
	p := NewCLIPrompter(strings.NewReader("lots\n-5\n₱1,500.50\n"), &out)

	got, err := p.PromptAmount(context.Background(), "GCash balance")
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("1500.50")))
	assert.Equal(t, 2, strings.Count(out.String(), "Enter an amount like"))
}

func TestPrompter_PromptChoice(t *testing.T) {
	var out bytes.Buffer
	p := NewCLIPrompter(strings.NewReader("cash\nSeparate\n"), &out)

	got, err := p.PromptChoice(context.Background(), "Fee method", []string{"included", "separate"})
	require.NoError(t, err)
	assert.Equal(t, "separate", got)
	assert.Contains(t, out.String(), "Fee method [included/separate]")
	assert.Contains(t, out.String(), "Invalid choice")
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "100", want: "100"},
		{input: " 1,000 ", want: "1000"},
		{input: "₱ 2,500.75", want: "2500.75"},
		{input: "", wantErr: true},
		{input: "abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}
