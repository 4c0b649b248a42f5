package types

// Logger receives the loader's human-readable diagnostic lines.
// Implementations must be safe for concurrent use by multiple goroutines.
type Logger interface {
	// Verbose logs detailed diagnostic information.
	// Only logged when verbose mode is enabled.
	Verbose(format string, args ...any)

	// Info logs one line about normal progress.
	Info(format string, args ...any)

	// Success logs one line marking a completed load.
	Success(format string, args ...any)

	// Error logs one line marking a failure.
	Error(format string, args ...any)
}
