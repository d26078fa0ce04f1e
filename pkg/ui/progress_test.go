package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"zhexport/pkg/exporter"
)

func TestConsoleSinkStages(t *testing.T) {
	var buf bytes.Buffer
	sink := &ConsoleSink{out: &buf}

	sink.Emit(exporter.ProgressEvent{Stage: exporter.StageStart, ScopeLabel: "collection 123", Total: 10})
	sink.Emit(exporter.ProgressEvent{Stage: exporter.StageProgress, Processed: 5, Total: 10, OK: 4, Failed: 1, LastItem: "某个回答"})
	sink.Emit(exporter.ProgressEvent{Stage: exporter.StageDone, ScopeLabel: "collection 123", OK: 9, Failed: 1})

	out := buf.String()
	assert.Contains(t, out, "collection 123 (10 items)")
	assert.Contains(t, out, "5/10")
	assert.Contains(t, out, "某个回答")
	assert.Contains(t, out, "9 ok, 1 failed")
}

func TestRenderBar(t *testing.T) {
	assert.Equal(t, "["+strings.Repeat(ProgressEmpty, barWidth)+"]", renderBar(0, 0), "unknown total is an empty track")
	assert.Equal(t, "["+strings.Repeat(ProgressBar, barWidth)+"]", renderBar(10, 10))

	half := renderBar(5, 10)
	assert.Equal(t, barWidth/2, strings.Count(half, ProgressBar))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	got := truncate("一二三四五六七八九十", 5)
	assert.Equal(t, 5, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "…"))
}
