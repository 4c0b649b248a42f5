// Package summary describes the structure of a loaded dataset in a few
// bounded lines: its kind and size, column names for tables, a sample of a
// named field, and leading keys or items for mappings and sequences.
package summary

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Limits on how much of a dataset a Summary holds.
const (
	DefaultSampleSize = 3
	DefaultField      = "functions"
	maxColumns        = 20
	maxKeys           = 5
	maxItems          = 3
	maxValueWidth     = 80
)

// Summary is a bounded structural description of a dataset. Parts that
// could not be determined are left zero.
type Summary struct {
	// Valid is false when there was no dataset to describe.
	Valid  bool
	Kind   types.Kind
	Length int

	// Rows and Cols are set for tables.
	Rows, Cols int

	// Columns holds up to the first 20 column names of a table.
	Columns []string

	// Field and Sample hold the leading values of the sampled column, when
	// the table has it.
	Field  string
	Sample []any

	// Keys holds the first mapping keys.
	Keys []string

	// Items holds the first sequence elements.
	Items []any

	// Value is a scalar's value.
	Value    any
	HasValue bool
}

// Describe summarizes d, sampling up to sampleSize leading values of field
// when d is a table with that column. It never panics; a part whose
// inspection fails is omitted.
func Describe(d types.Dataset, field string, sampleSize int) Summary {
	var s Summary
	if d == nil {
		return s
	}
	s.Valid = true
	if sampleSize < 0 {
		sampleSize = 0
	}

	guard(func() { s.Kind = d.Kind() })
	guard(func() { s.Length = d.Len() })

	switch v := d.(type) {
	case *types.Table:
		guard(func() { s.Rows, s.Cols = v.Shape() })
		guard(func() {
			cols := v.Columns()
			s.Columns = cols[:min(len(cols), maxColumns)]
		})
		guard(func() {
			if field == "" || !v.HasColumn(field) {
				return
			}
			sample, err := v.Head(field, sampleSize)
			if err != nil {
				return
			}
			s.Field, s.Sample = field, sample
		})
	case *types.Mapping:
		guard(func() {
			keys := v.Keys()
			s.Keys = keys[:min(len(keys), maxKeys)]
		})
	case *types.Sequence:
		guard(func() { s.Items = v.Head(maxItems) })
	case *types.Scalar:
		guard(func() { s.Value, s.HasValue = v.Value(), true })
	}
	return s
}

// guard runs f and swallows any panic.
func guard(f func()) {
	defer func() { _ = recover() }()
	f()
}

// Render writes the summary under a heading naming the dataset.
func (s Summary) Render(w io.Writer, name string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n--- %s Analysis ---\n", name)
	if !s.Valid {
		b.WriteString("No data\n")
		_, err := io.WriteString(w, b.String())
		return err
	}
	fmt.Fprintf(&b, "Kind: %s\n", s.Kind)

	if s.Kind == types.KindTable {
		fmt.Fprintf(&b, "Shape: (%d, %d)\n", s.Rows, s.Cols)
	} else {
		fmt.Fprintf(&b, "Length: %d\n", s.Length)
	}

	if len(s.Columns) > 0 {
		fmt.Fprintf(&b, "Columns: [%s]", strings.Join(s.Columns, ", "))
		if s.Cols > len(s.Columns) {
			fmt.Fprintf(&b, " (+%d more)", s.Cols-len(s.Columns))
		}
		b.WriteByte('\n')
	}
	if s.Field != "" {
		fmt.Fprintf(&b, "Sample %s (first %d):\n", s.Field, len(s.Sample))
		for i, v := range s.Sample {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, formatValue(v))
		}
	}
	if len(s.Keys) > 0 {
		fmt.Fprintf(&b, "Keys: [%s]\n", strings.Join(s.Keys, ", "))
	}
	if len(s.Items) > 0 {
		parts := make([]string, len(s.Items))
		for i, v := range s.Items {
			parts[i] = formatValue(v)
		}
		fmt.Fprintf(&b, "First few items: [%s]\n", strings.Join(parts, ", "))
	}
	if s.HasValue {
		fmt.Fprintf(&b, "Value: %s\n", formatValue(s.Value))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func formatValue(v any) string {
	var s string
	guard(func() { s = fmt.Sprint(v) })
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, maxValueWidth, "...")
}
