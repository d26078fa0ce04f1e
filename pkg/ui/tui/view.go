package tui

import (
	"fmt"
	"strings"
	"time"
)

// View implements tea.Model
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("ZHEXPORT"))
	if m.scope != "" {
		b.WriteString(" " + scopeStyle.Render(m.scope))
	}
	b.WriteString("\n\n")

	if m.done {
		b.WriteString(doneStyle.Render(fmt.Sprintf("✓ Export finished: %d ok, %d failed", m.ok, m.failed)))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("press enter to exit"))
		return boxStyle.Render(b.String())
	}

	b.WriteString(m.spinner.View())
	if m.collection != "" {
		b.WriteString(" " + scopeStyle.Render(m.collection))
	}
	b.WriteString("\n")
	b.WriteString(m.bar.View())
	b.WriteString("\n\n")

	b.WriteString(counterStyle.Render(fmt.Sprintf("%d/%d", m.processed, m.total)))
	b.WriteString("  ")
	b.WriteString(okStyle.Render(fmt.Sprintf("ok %d", m.ok)))
	b.WriteString("  ")
	b.WriteString(failStyle.Render(fmt.Sprintf("failed %d", m.failed)))
	b.WriteString("  ")
	b.WriteString(scopeStyle.Render("elapsed " + formatElapsed(time.Since(m.startTime))))
	b.WriteString("\n\n")

	for _, line := range m.history {
		marker := okStyle.Render("✓")
		if line.failed {
			marker = failStyle.Render("✗")
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", marker, lastItemStyle.Render(truncate(line.label, 60))))
	}

	b.WriteString(helpStyle.Render("q: quit"))
	return boxStyle.Render(b.String())
}

func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	if d >= time.Hour {
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
	if d >= time.Minute {
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
