package logging

import "github.com/mesh-intelligence/pantry/pkg/types"

// NullLogger discards all messages.
type NullLogger struct{}

// NewNullLogger creates a NullLogger.
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

// Verbose discards the message.
func (l *NullLogger) Verbose(format string, args ...any) {}

// Info discards the message.
func (l *NullLogger) Info(format string, args ...any) {}

// Success discards the message.
func (l *NullLogger) Success(format string, args ...any) {}

// Error discards the message.
func (l *NullLogger) Error(format string, args ...any) {}

var _ types.Logger = (*NullLogger)(nil)
