// Package main provides the pantry CLI, which loads dataset files of
// unknown serialization and prints what it found.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

func main() {
	// A .env file in the working directory is optional.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pantry:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// sysError marks err as an environment failure rather than a usage error.
type sysError struct{ err error }

func (e *sysError) Error() string { return e.err.Error() }
func (e *sysError) Unwrap() error { return e.err }

func asSysError(err error) error {
	if err == nil {
		return nil
	}
	return &sysError{err: err}
}

func exitCode(err error) int {
	var se *sysError
	if errors.As(err, &se) {
		return exitSysError
	}
	return exitUserError
}
