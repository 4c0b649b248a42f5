// Package loader reads a dataset file of unknown serialization by trying an
// ordered list of decoding strategies until one succeeds. A strategy that
// fails, or panics, is recorded as a failed attempt and the next one runs;
// no error escapes Load. Callers inspect the returned LoadResult to decide
// whether a total failure matters to them.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/mesh-intelligence/pantry/internal/codec"
	"github.com/mesh-intelligence/pantry/internal/frame"
	"github.com/mesh-intelligence/pantry/internal/logging"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// DefaultPreviewLength bounds the diagnostic kept for each failed attempt.
const DefaultPreviewLength = 50

// errNoData is recorded when a strategy returns neither data nor an error.
var errNoData = errors.New("strategy returned no data")

// Strategy is one decoding routine attempted against a file. Decode opens
// and closes the file itself.
type Strategy struct {
	Name   types.StrategyName
	Decode func(path string) (types.Dataset, error)
}

// DefaultStrategies returns the raw-array, generic-object and tabular
// strategies in that order.
func DefaultStrategies(opts frame.Options) []Strategy {
	return []Strategy{
		{Name: types.StrategyRawArray, Decode: codec.ReadArray},
		{Name: types.StrategyGenericObject, Decode: codec.ReadObject},
		{Name: types.StrategyTabular, Decode: func(path string) (types.Dataset, error) {
			t, err := frame.Read(path, opts)
			if err != nil {
				return nil, err
			}
			return t, nil
		}},
	}
}

// Loader runs strategies against files. A Loader holds no per-file state;
// one value may load any number of files.
type Loader struct {
	logger          types.Logger
	previewLength   int
	strategies      []Strategy
	missingFastPath bool
	sqliteTable     string
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger receiving per-attempt diagnostic lines.
func WithLogger(l types.Logger) Option {
	return func(ld *Loader) { ld.logger = l }
}

// WithPreviewLength sets how much of each failure message is kept.
// Values below 1 keep the default.
func WithPreviewLength(n int) Option {
	return func(ld *Loader) {
		if n > 0 {
			ld.previewLength = n
		}
	}
}

// WithStrategies replaces the default strategy list.
func WithStrategies(s ...Strategy) Option {
	return func(ld *Loader) { ld.strategies = append([]Strategy(nil), s...) }
}

// WithMissingFastPath makes Load skip the decoders for a path that does
// not exist. Every strategy is still recorded as failed with the stat error.
func WithMissingFastPath(enabled bool) Option {
	return func(ld *Loader) { ld.missingFastPath = enabled }
}

// WithSQLiteTable selects the table the tabular strategy reads from a
// SQLite database. Ignored when WithStrategies is also given.
func WithSQLiteTable(name string) Option {
	return func(ld *Loader) { ld.sqliteTable = name }
}

// New creates a Loader. Without options it logs nowhere, keeps 50
// characters of each diagnostic, and uses DefaultStrategies.
func New(opts ...Option) *Loader {
	ld := &Loader{
		logger:        logging.NewNullLogger(),
		previewLength: DefaultPreviewLength,
	}
	for _, opt := range opts {
		opt(ld)
	}
	if ld.strategies == nil {
		ld.strategies = DefaultStrategies(frame.Options{SQLiteTable: ld.sqliteTable})
	}
	return ld
}

// Strategies returns the names of the configured strategies in order.
func (ld *Loader) Strategies() []types.StrategyName {
	names := make([]types.StrategyName, len(ld.strategies))
	for i, s := range ld.strategies {
		names[i] = s.Name
	}
	return names
}

// Load tries each strategy against path in order and returns the first
// success, or a failure holding every attempt. description only labels the
// diagnostic output.
func (ld *Loader) Load(path, description string) *types.LoadResult {
	ld.logger.Info("Loading %s...", description)

	if ld.missingFastPath {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return ld.missing(path, description, err)
		}
	}

	attempts := make([]types.Attempt, 0, len(ld.strategies))
	for _, s := range ld.strategies {
		ld.logger.Verbose("trying %s on %s", s.Name, path)
		data, err := run(s, path)
		if err == nil {
			attempts = append(attempts, types.Attempt{Strategy: s.Name})
			ld.logger.Success("Successfully loaded %s with %s", path, s.Name)
			return types.NewSuccess(path, description, data, s.Name, attempts)
		}
		attempts = append(attempts, ld.failed(s.Name, err))
	}

	ld.logger.Error("Failed to load %s", path)
	return types.NewFailure(path, description, attempts, Classify(attempts))
}

func (ld *Loader) missing(path, description string, err error) *types.LoadResult {
	attempts := make([]types.Attempt, 0, len(ld.strategies))
	for _, s := range ld.strategies {
		attempts = append(attempts, ld.failed(s.Name, err))
	}
	ld.logger.Error("Failed to load %s", path)
	return types.NewFailure(path, description, attempts, types.CauseMissing)
}

func (ld *Loader) failed(name types.StrategyName, err error) types.Attempt {
	a := types.Attempt{
		Strategy:   name,
		Err:        err,
		Diagnostic: Truncate(err.Error(), ld.previewLength),
	}
	ld.logger.Info("  %s failed: %s...", name, a.Diagnostic)
	return a
}

// run calls one strategy, converting a panic into an error.
func run(s Strategy, path string) (data types.Dataset, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = fmt.Errorf("%w: %v", types.ErrStrategyPanic, r)
		}
	}()

	data, err = s.Decode(path)
	if err == nil && data == nil {
		err = errNoData
	}
	return data, err
}

// Truncate keeps the leading part of msg that fits in n display columns,
// with line breaks flattened to spaces.
func Truncate(msg string, n int) string {
	msg = strings.Join(strings.Fields(msg), " ")
	if runewidth.StringWidth(msg) <= n {
		return msg
	}
	return runewidth.Truncate(msg, n, "")
}

// Classify derives an informational cause from failed attempts: missing
// when every attempt saw a nonexistent path, unreadable when every attempt
// failed at the file system, corrupt otherwise.
func Classify(attempts []types.Attempt) types.Cause {
	if len(attempts) == 0 {
		return types.CauseCorrupt
	}
	missing, unreadable := true, true
	for _, a := range attempts {
		if a.Err == nil {
			return types.CauseNone
		}
		if !errors.Is(a.Err, fs.ErrNotExist) {
			missing = false
		}
		var pe *fs.PathError
		if !errors.As(a.Err, &pe) && !errors.Is(a.Err, fs.ErrPermission) {
			unreadable = false
		}
	}
	switch {
	case missing:
		return types.CauseMissing
	case unreadable:
		return types.CauseUnreadable
	default:
		return types.CauseCorrupt
	}
}
