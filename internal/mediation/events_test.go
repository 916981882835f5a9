package mediation

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/echoface/mediation-adapter/pkg/logger"
)

// spyLogger keeps the level and fields of every entry.
type spyLogger struct {
	entries *[]spyEntry
	fields  []interface{}
}

type spyEntry struct {
	level  string
	msg    string
	fields []interface{}
}

func newSpyLogger() *spyLogger {
	return &spyLogger{entries: &[]spyEntry{}}
}

func (s *spyLogger) log(level, msg string, kv []interface{}) {
	fields := append(append([]interface{}{}, s.fields...), kv...)
	*s.entries = append(*s.entries, spyEntry{level: level, msg: msg, fields: fields})
}

func (s *spyLogger) Debug(msg string, kv ...interface{}) { s.log("debug", msg, kv) }
func (s *spyLogger) Info(msg string, kv ...interface{})  { s.log("info", msg, kv) }
func (s *spyLogger) Warn(msg string, kv ...interface{})  { s.log("warn", msg, kv) }
func (s *spyLogger) Error(msg string, kv ...interface{}) { s.log("error", msg, kv) }
func (s *spyLogger) Fatal(msg string, kv ...interface{}) { s.log("fatal", msg, kv) }

func (s *spyLogger) With(kv ...interface{}) logger.Logger {
	return &spyLogger{entries: s.entries, fields: append(append([]interface{}{}, s.fields...), kv...)}
}

func TestEventLoggerLevels(t *testing.T) {
	spy := newSpyLogger()
	events := NewEventLogger(spy, "vungle")

	events.Log(EventLoadStarted, "placementA")
	events.Log(EventLoadFailed, "placementA", "no_fill")
	events.Log(EventDidClick)
	events.Log(EventCallbackDropped, "load/placementA/1")

	entries := *spy.entries
	if assert.Len(t, entries, 4) {
		assert.Equal(t, "info", entries[0].level)
		assert.Equal(t, []interface{}{"partner", "vungle", "event", "LOAD_STARTED", "detail", "placementA"}, entries[0].fields)
		assert.Equal(t, "warn", entries[1].level)
		assert.Equal(t, []interface{}{"partner", "vungle", "event", "LOAD_FAILED", "detail", "placementA no_fill"}, entries[1].fields)
		assert.Equal(t, "debug", entries[2].level)
		assert.Equal(t, []interface{}{"partner", "vungle", "event", "DID_CLICK"}, entries[2].fields)
		assert.Equal(t, "debug", entries[3].level)
	}
}

func TestEventLoggerWithZerolog(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewZerologLoggerWithWriter(&buf, "debug")
	NewEventLogger(l, "vungle").Log(EventSetupSucceeded)

	assert.Contains(t, buf.String(), `"event":"SETUP_SUCCEEDED"`)
	assert.Contains(t, buf.String(), `"partner":"vungle"`)
}
