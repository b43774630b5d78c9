package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/cashflow/internal/cli"
	"github.com/Veraticus/cashflow/internal/model"
)

const recentShown = 5

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		m.theme.Title.Render("New Transaction"),
		m.renderField(FieldAmount, "Amount", m.amount.View()),
		m.renderField(FieldDirection, "Type", m.renderOptions(
			[]string{model.DirectionCashIn.Label(), model.DirectionCashOut.Label()}, m.direction)),
	}
	if m.Direction() == model.DirectionCashOut {
		sections = append(sections, m.renderField(FieldMethod, "Fee", m.renderOptions(
			[]string{string(model.FeeIncluded), string(model.FeeSeparate)}, m.method)))
	}
	sections = append(sections, "", m.renderEstimate(), m.renderStatus())

	if m.balances != nil {
		sections = append(sections, "", m.theme.Muted.Render(fmt.Sprintf("GCash %s · Cash %s",
			cli.FormatPeso(m.balances.Wallet), cli.FormatPeso(m.balances.Cash))))
	}
	if recent := m.renderRecent(); recent != "" {
		sections = append(sections, "", recent)
	}

	box := m.theme.RoundedBox.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
	return lipgloss.JoinVertical(lipgloss.Left, box, m.help.View(m.keymap))
}

func (m Model) renderField(f Field, label, value string) string {
	style := m.theme.Label
	if m.focus == f {
		style = m.theme.FocusedLabel
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, style.Render(label), value)
}

func (m Model) renderOptions(options []string, selected int) string {
	rendered := make([]string, len(options))
	for i, opt := range options {
		if i == selected {
			rendered[i] = m.theme.Selected.Render(opt)
		} else {
			rendered[i] = m.theme.Option.Render(opt)
		}
	}
	return strings.Join(rendered, " ")
}

func (m Model) renderEstimate() string {
	if m.estimate == nil {
		return m.theme.Muted.Render("Estimated profit: -")
	}
	return "Estimated profit: " + m.theme.Estimate.Render(cli.FormatPeso(*m.estimate))
}

func (m Model) renderStatus() string {
	switch {
	case m.busy:
		return m.theme.Muted.Render("Recording...")
	case m.lastError != nil:
		return m.theme.StatusError.Render(cli.ErrorIcon + " " + m.lastError.Error())
	case len(m.recorded) > 0:
		last := m.recorded[len(m.recorded)-1]
		return m.theme.StatusSuccess.Render(fmt.Sprintf("%s Recorded %s %s",
			cli.SuccessIcon, last.Direction.Label(), cli.FormatPeso(last.Amount)))
	default:
		return ""
	}
}

func (m Model) renderRecent() string {
	if len(m.recorded) == 0 {
		return ""
	}
	lines := []string{m.theme.Muted.Render("This session")}
	for i := len(m.recorded) - 1; i >= 0 && len(lines) <= recentShown; i-- {
		lines = append(lines, cli.RenderTransaction(m.recorded[i], m.location))
	}
	return strings.Join(lines, "\n")
}
