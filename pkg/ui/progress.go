package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"zhexport/pkg/exporter"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
	barWidth      = 20
)

// ConsoleSink renders export progress as a single self-updating line on
// the terminal. It is the plain-output alternative to the full TUI.
type ConsoleSink struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleSink creates a sink writing to stdout
func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{out: os.Stdout}
}

// Emit implements exporter.ProgressSink
func (s *ConsoleSink) Emit(ev exporter.ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Stage {
	case exporter.StageStart:
		fmt.Fprintf(s.out, "%s %s (%d items)\n", Magenta("[EXPORT]"), ev.ScopeLabel, ev.Total)
	case exporter.StageProgress:
		line := fmt.Sprintf("\r%s %s %d/%d %s %s",
			Green("[EXPORT]"),
			renderBar(ev.Processed, ev.Total),
			ev.Processed, ev.Total,
			Green(fmt.Sprintf("ok:%d", ev.OK)),
			Red(fmt.Sprintf("failed:%d", ev.Failed)),
		)
		if ev.LastItem != "" {
			line += " " + Dim(truncate(ev.LastItem, 40))
		}
		fmt.Fprint(s.out, line)
	case exporter.StageDone:
		fmt.Fprintf(s.out, "\n%s %s: %d ok, %d failed\n",
			Green("[DONE]"), ev.ScopeLabel, ev.OK, ev.Failed)
	}
}

// renderBar draws a fixed-width progress bar; an unknown total renders as
// an empty track
func renderBar(processed, total int) string {
	filled := 0
	if total > 0 {
		filled = processed * barWidth / total
		if filled > barWidth {
			filled = barWidth
		}
	}
	return "[" + strings.Repeat(ProgressBar, filled) + strings.Repeat(ProgressEmpty, barWidth-filled) + "]"
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
