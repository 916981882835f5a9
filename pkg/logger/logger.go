package logger

import "strings"

// Logger defines the standard behavior for our loggers.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Fatal(msg string, keysAndValues ...interface{})

	// With returns a child logger that adds keysAndValues to every entry.
	With(keysAndValues ...interface{}) Logger
}

// Environment represents the deployment environment
type Environment string

const (
	Dev  Environment = "dev"
	Test Environment = "test"
	Prod Environment = "prod"
)

// ParseEnvironment maps a RUN_TYPE value to an Environment, falling back to Dev.
func ParseEnvironment(runType string) Environment {
	switch Environment(strings.ToLower(strings.TrimSpace(runType))) {
	case Prod:
		return Prod
	case Test:
		return Test
	default:
		return Dev
	}
}

// Config holds the configuration for logger initialization
type Config struct {
	Environment Environment
	LogLevel    string
	LogFile     string
	MaxSize     int  // maximum size in megabytes before rotation
	MaxBackups  int  // maximum number of old log files to retain
	MaxAge      int  // maximum number of days to retain old log files
	Compress    bool // whether to compress rotated log files
}
