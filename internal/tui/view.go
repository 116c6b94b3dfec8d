package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF")).
			MarginBottom(1)
	topicStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F7B801"))
	questionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))
	cursorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4CAF50"))
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))
)

// View renders the current state to a string.
func (a *App) View() string {
	var content string
	switch a.state {
	case stateSeedEntry:
		content = a.renderSeedEntry()
	case stateInterview:
		content = a.renderQuestion()
	case stateOutputPath:
		content = a.renderOutputPrompt()
	case stateSummary:
		content = a.renderSummary()
	case stateFailed:
		content = a.renderFailure()
	}
	sections := []string{
		headerStyle.Render("⬡ SPECLOOM"),
		panelStyle.Render(content),
	}
	if progress := a.renderProgress(); progress != "" {
		sections = append(sections, dimStyle.Render(progress))
	}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	if a.statusMsg != "" {
		sections = append(sections, errorStyle.Render(a.statusMsg))
	}
	sections = append(sections, dimStyle.Render(a.helpLine()))
	return strings.Join(sections, "\n")
}

func (a *App) renderSeedEntry() string {
	return strings.Join([]string{
		topicStyle.Render("What should the document be about?"),
		questionStyle.Render("Point at a draft markdown file, or describe the activity in a sentence."),
		"",
		a.text.View(),
	}, "\n")
}

func (a *App) renderQuestion() string {
	q := a.currentQuestion()
	lines := []string{
		topicStyle.Render(q.Topic),
		questionStyle.Render(q.Text),
		"",
	}
	if a.typing {
		lines = append(lines, a.text.View())
		return strings.Join(lines, "\n")
	}
	for i, opt := range q.Options {
		marker := "  "
		if q.AllowMultiple {
			marker = "[ ] "
			if a.selected[i] {
				marker = "[x] "
			}
		}
		label := opt.Label
		if opt.Recommended {
			label += dimStyle.Render(" (recommended)")
		}
		if opt.Description != "" {
			label += dimStyle.Render(" · " + opt.Description)
		}
		line := marker + label
		if i == a.cursor {
			line = cursorStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	if a.choiceCount() > len(q.Options) {
		line := "  " + freeFormChoice
		if a.cursor == len(q.Options) {
			line = cursorStyle.Render("> ") + freeFormChoice
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderOutputPrompt() string {
	return strings.Join([]string{
		topicStyle.Render("Where should the document be written?"),
		"",
		a.text.View(),
	}, "\n")
}

func (a *App) renderSummary() string {
	resolved := a.decision.Len()
	lines := []string{
		topicStyle.Render("Document written"),
		"",
		fmt.Sprintf("Path:    %s", a.written),
		fmt.Sprintf("Rounds:  %d", a.decision.Rounds()),
		fmt.Sprintf("Facts:   %d resolved", resolved),
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderFailure() string {
	msg := "interview could not be completed"
	if a.runErr != nil {
		msg = a.runErr.Error()
	}
	return strings.Join([]string{
		errorStyle.Render("Interview stopped"),
		"",
		questionStyle.Render(msg),
	}, "\n")
}

// renderProgress summarizes where the interview stands.
func (a *App) renderProgress() string {
	if a.state != stateInterview || a.round == nil {
		return ""
	}
	return fmt.Sprintf(
		"Round %d/%d · question %d of %d · %d fact(s) resolved",
		a.round.Number, a.syn.MaxRounds(),
		a.qIndex+1, len(a.round.Questions),
		a.decision.Len(),
	)
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines := a.logbook.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := headerStyle.Render(fmt.Sprintf("LOG · %s", fileName))
	body := dimStyle.Render(strings.Join(lines, "\n"))
	return panelStyle.Render(head + "\n" + body)
}

func (a *App) helpLine() string {
	switch a.state {
	case stateInterview:
		if a.typing {
			return "enter confirm · esc abandon"
		}
		q := a.currentQuestion()
		if q.AllowMultiple {
			return "↑/↓ move · space toggle · enter confirm · esc abandon"
		}
		return "↑/↓ move · enter confirm · esc abandon"
	case stateSummary, stateFailed:
		return "enter or q to exit"
	default:
		return "enter confirm · esc abandon"
	}
}
