package logger

// nopLogger discards all messages. Used in tests.
type nopLogger struct{}

// NewNopLogger creates a logger that discards everything.
func NewNopLogger() Logger {
	return &nopLogger{}
}

func (nopLogger) Info(string, ...interface{})                 {}
func (nopLogger) InfoWithBlankLine(string, ...interface{})    {}
func (nopLogger) Warn(string, ...interface{})                 {}
func (nopLogger) WarnWithBlankLine(string, ...interface{})    {}
func (nopLogger) Error(string, ...interface{})                {}
func (nopLogger) ErrorWithBlankLine(string, ...interface{})   {}
func (nopLogger) Debug(string, ...interface{})                {}
func (nopLogger) Success(string, ...interface{})              {}
func (nopLogger) SuccessWithBlankLine(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{})                {}
