package logger

// NopLogger discards everything. Tests use it to keep output quiet.
type NopLogger struct{}

// NewNop returns a Logger that drops all entries.
func NewNop() Logger {
	return NopLogger{}
}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}

func (n NopLogger) With(...interface{}) Logger {
	return n
}
