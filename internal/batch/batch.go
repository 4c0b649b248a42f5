// Package batch loads every file named by a manifest, summarizing each one
// that loads and continuing past those that do not.
package batch

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/pantry/internal/loader"
	"github.com/mesh-intelligence/pantry/internal/logging"
	"github.com/mesh-intelligence/pantry/internal/manifest"
	"github.com/mesh-intelligence/pantry/internal/summary"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// CategoryCount is the item count of one loaded category.
type CategoryCount struct {
	Category string
	Items    int
}

// Report aggregates one batch run.
type Report struct {
	RunID  string
	Loaded int
	Total  int

	// Categories lists loaded categories in manifest order.
	Categories []CategoryCount
	TotalItems int

	// Results holds every file's load result in manifest order.
	Results []*types.LoadResult
}

// Runner runs manifests through a Loader.
type Runner struct {
	loader     *loader.Loader
	out        io.Writer
	field      string
	sampleSize int
}

// Option configures a Runner.
type Option func(*Runner)

// WithSummaryField sets the column sampled in each file summary.
func WithSummaryField(field string) Option {
	return func(r *Runner) { r.field = field }
}

// WithSampleSize sets how many values of the summary field are shown.
func WithSampleSize(n int) Option {
	return func(r *Runner) { r.sampleSize = n }
}

// NewRunner creates a Runner that writes summaries to out.
func NewRunner(ld *loader.Loader, out io.Writer, opts ...Option) *Runner {
	r := &Runner{
		loader:     ld,
		out:        out,
		field:      summary.DefaultField,
		sampleSize: summary.DefaultSampleSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run loads every entry of m in order. A file that fails to load is
// counted and skipped; only a failure to write output or to create the
// run ID is returned as an error.
func (r *Runner) Run(m *manifest.Manifest) (*Report, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating run id: %w", err)
	}
	log := logging.WithFields("run_id", id.String())
	log.Info("batch started", "files", len(m.Files))

	rep := &Report{RunID: id.String(), Total: len(m.Files)}
	for _, e := range m.Files {
		res := r.loader.Load(e.Path, e.Description)
		rep.Results = append(rep.Results, res)
		if !res.OK() {
			log.Warn("file not loaded",
				"path", e.Path,
				"cause", string(res.Cause()),
				"diagnostics", res.Diagnostics(),
			)
			continue
		}

		rep.Loaded++
		n := res.Len()
		rep.Categories = append(rep.Categories, CategoryCount{Category: e.Category, Items: n})
		rep.TotalItems += n
		log.Info("file loaded",
			"path", e.Path,
			"category", e.Category,
			"strategy", string(res.Strategy()),
			"items", n,
		)

		s := summary.Describe(res.Data(), r.field, r.sampleSize)
		if err := s.Render(r.out, e.Description); err != nil {
			return rep, fmt.Errorf("writing summary: %w", err)
		}
	}

	log.Info("batch finished", slog.Int("loaded", rep.Loaded), slog.Int("total", rep.Total))
	return rep, nil
}

// Names returns the loaded category names in order.
func (rep *Report) Names() []string {
	names := make([]string, len(rep.Categories))
	for i, c := range rep.Categories {
		names[i] = c.Category
	}
	return names
}

// Render writes the closing summary of a run.
func (rep *Report) Render(w io.Writer) error {
	var b strings.Builder
	b.WriteString("\n=== Summary ===\n")
	fmt.Fprintf(&b, "Successfully loaded %d out of %d files\n", rep.Loaded, rep.Total)
	if rep.Loaded > 0 {
		fmt.Fprintf(&b, "Available data: [%s]\n", strings.Join(rep.Names(), ", "))
		for _, c := range rep.Categories {
			fmt.Fprintf(&b, "  %s: %d items\n", c.Category, c.Items)
		}
		if rep.TotalItems > 0 {
			fmt.Fprintf(&b, "Total items across all categories: %d\n", rep.TotalItems)
		}
	}
	b.WriteString("\n=== Loading Complete ===\n")
	_, err := io.WriteString(w, b.String())
	return err
}
