package types

import (
	"fmt"
	"reflect"
	"slices"
)

// Record is one row of a Table, keyed by column name.
type Record map[string]any

// Table is an ordered sequence of records with a fixed column order.
// A Table is immutable: constructors deep-copy their input and accessors
// return deep copies, nested lists and maps included.
type Table struct {
	columns []string
	rows    []Record
}

// NewTable builds a Table from column names and row records. Column names
// must be unique. Record keys outside columns are ignored; missing keys
// read as nil.
func NewTable(columns []string, rows []Record) (*Table, error) {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrInvalidTable, c)
		}
		seen[c] = true
	}

	t := &Table{
		columns: slices.Clone(columns),
		rows:    make([]Record, len(rows)),
	}
	for i, r := range rows {
		rec := make(Record, len(columns))
		for _, c := range columns {
			rec[c] = cloneValue(r[c])
		}
		t.rows[i] = rec
	}
	return t, nil
}

// NewTableFromColumns builds a Table from column-oriented data. Every column
// must hold the same number of values.
func NewTableFromColumns(columns []string, data map[string][]any) (*Table, error) {
	n := -1
	for _, c := range columns {
		vals, ok := data[c]
		if !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrInvalidTable, c)
		}
		if n >= 0 && len(vals) != n {
			return nil, fmt.Errorf("%w: column %q has %d values, want %d", ErrInvalidTable, c, len(vals), n)
		}
		n = len(vals)
	}
	if n < 0 {
		n = 0
	}

	rows := make([]Record, n)
	for i := range rows {
		rec := make(Record, len(columns))
		for _, c := range columns {
			rec[c] = data[c][i]
		}
		rows[i] = rec
	}
	return NewTable(columns, rows)
}

// Kind returns KindTable.
func (t *Table) Kind() Kind { return KindTable }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Shape returns (rows, columns).
func (t *Table) Shape() (int, int) { return len(t.rows), len(t.columns) }

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string { return slices.Clone(t.columns) }

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	return slices.Contains(t.columns, name)
}

// Row returns a copy of the record at index i.
func (t *Table) Row(i int) (Record, error) {
	if i < 0 || i >= len(t.rows) {
		return nil, fmt.Errorf("%w: row %d of %d", ErrOutOfRange, i, len(t.rows))
	}
	return t.rows[i].clone(), nil
}

// Rows returns copies of all records.
func (t *Table) Rows() []Record {
	out := make([]Record, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.clone()
	}
	return out
}

// Column returns the values of the named column in row order.
func (t *Table) Column(name string) ([]any, error) {
	if !t.HasColumn(name) {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	out := make([]any, len(t.rows))
	for i, r := range t.rows {
		out[i] = cloneValue(r[name])
	}
	return out, nil
}

// Head returns the first n values of the named column.
func (t *Table) Head(name string, n int) ([]any, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		n = 0
	}
	if n > len(col) {
		n = len(col)
	}
	return col[:n], nil
}

// Values returns the rows as positional value slices in column order.
func (t *Table) Values() [][]any {
	out := make([][]any, len(t.rows))
	for i, r := range t.rows {
		row := make([]any, len(t.columns))
		for j, c := range t.columns {
			row[j] = cloneValue(r[c])
		}
		out[i] = row
	}
	return out
}

// Equal reports whether two tables have the same columns and values. Values
// must match in type as well as content: int64(1) and 1.0 differ.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if !slices.Equal(t.columns, o.columns) || len(t.rows) != len(o.rows) {
		return false
	}
	for i := range t.rows {
		for _, c := range t.columns {
			if !reflect.DeepEqual(t.rows[i][c], o.rows[i][c]) {
				return false
			}
		}
	}
	return true
}
