package logger

import (
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger is a Logger implementation that records entries in memory.
// Intended for assertions in tests; safe for concurrent use.
type TestLogger struct {
	mu      sync.Mutex
	Entries []TestLogEntry
	fields  map[string]interface{}
}

// TestLogEntry is a single recorded log call
type TestLogEntry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// NewTestLogger creates a recording logger for tests
func NewTestLogger() *TestLogger {
	return &TestLogger{fields: make(map[string]interface{})}
}

func (t *TestLogger) record(level, msg string, fields map[string]interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	merged := make(map[string]interface{}, len(t.fields)+len(fields))
	for k, v := range t.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	t.Entries = append(t.Entries, TestLogEntry{Level: level, Message: msg, Fields: merged})
}

func (t *TestLogger) Debug(msg string) { t.record("debug", msg, nil) }
func (t *TestLogger) Info(msg string)  { t.record("info", msg, nil) }
func (t *TestLogger) Warn(msg string)  { t.record("warn", msg, nil) }
func (t *TestLogger) Error(msg string) { t.record("error", msg, nil) }
func (t *TestLogger) Fatal(msg string) { t.record("fatal", msg, nil) }

func (t *TestLogger) WithField(key string, value interface{}) Logger {
	return t.WithFields(map[string]interface{}{key: value})
}

func (t *TestLogger) WithFields(fields map[string]interface{}) Logger {
	t.mu.Lock()
	defer t.mu.Unlock()

	merged := make(map[string]interface{}, len(t.fields)+len(fields))
	for k, v := range t.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	// Child shares the entry slice through the parent so tests see everything.
	return &testLoggerChild{parent: t, fields: merged}
}

func (t *TestLogger) WithError(err error) Logger {
	if err == nil {
		return t
	}
	return t.WithField("error", err.Error())
}

func (t *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	t.record("debug", msg, fields)
}
func (t *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	t.record("info", msg, fields)
}
func (t *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	t.record("warn", msg, fields)
}
func (t *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	t.record("error", msg, fields)
}

func (t *TestLogger) GetZerolog() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// HasMessage reports whether any entry carries the given message
func (t *TestLogger) HasMessage(msg string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.Entries {
		if e.Message == msg {
			return true
		}
	}
	return false
}

// testLoggerChild carries bound fields while recording into the parent
type testLoggerChild struct {
	parent *TestLogger
	fields map[string]interface{}
}

func (c *testLoggerChild) record(level, msg string, fields map[string]interface{}) {
	merged := make(map[string]interface{}, len(c.fields)+len(fields))
	for k, v := range c.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	c.parent.record(level, msg, merged)
}

func (c *testLoggerChild) Debug(msg string) { c.record("debug", msg, nil) }
func (c *testLoggerChild) Info(msg string)  { c.record("info", msg, nil) }
func (c *testLoggerChild) Warn(msg string)  { c.record("warn", msg, nil) }
func (c *testLoggerChild) Error(msg string) { c.record("error", msg, nil) }
func (c *testLoggerChild) Fatal(msg string) { c.record("fatal", msg, nil) }

func (c *testLoggerChild) WithField(key string, value interface{}) Logger {
	return c.WithFields(map[string]interface{}{key: value})
}

func (c *testLoggerChild) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(c.fields)+len(fields))
	for k, v := range c.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &testLoggerChild{parent: c.parent, fields: merged}
}

func (c *testLoggerChild) WithError(err error) Logger {
	if err == nil {
		return c
	}
	return c.WithField("error", err.Error())
}

func (c *testLoggerChild) DebugWithFields(msg string, fields map[string]interface{}) {
	c.record("debug", msg, fields)
}
func (c *testLoggerChild) InfoWithFields(msg string, fields map[string]interface{}) {
	c.record("info", msg, fields)
}
func (c *testLoggerChild) WarnWithFields(msg string, fields map[string]interface{}) {
	c.record("warn", msg, fields)
}
func (c *testLoggerChild) ErrorWithFields(msg string, fields map[string]interface{}) {
	c.record("error", msg, fields)
}

func (c *testLoggerChild) GetZerolog() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
