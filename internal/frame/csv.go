package frame

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

type cellKind int

const (
	cellInt cellKind = iota
	cellFloat
	cellString
)

// readDelimited decodes delimited text with a header row. Every row must
// have as many fields as the header. Column types are inferred per column:
// int64 if every non-empty cell parses as an integer, float64 if every one
// parses as a number, string otherwise. Empty cells in numeric columns read
// as nil. A sniffed file, one whose extension does not name it delimited,
// must also have at least two columns and one data row.
func readDelimited(r io.Reader, comma rune, sniffed bool) (*types.Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, types.ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = columnName(h)
		if columns[i] == "" {
			return nil, fmt.Errorf("%w: empty column name at position %d", types.ErrInvalidTable, i+1)
		}
	}

	var raw [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		raw = append(raw, rec)
	}
	if sniffed && (len(columns) < 2 || len(raw) == 0) {
		return nil, fmt.Errorf("%w: %d columns and %d rows of delimited text", types.ErrNotTabular, len(columns), len(raw))
	}

	data := make(map[string][]any, len(columns))
	for j, c := range columns {
		data[c] = inferColumn(raw, j)
	}
	return types.NewTableFromColumns(columns, data)
}

func inferColumn(raw [][]string, j int) []any {
	kind := cellInt
	nonEmpty := 0
	for _, rec := range raw {
		s := strings.TrimSpace(rec[j])
		if s == "" {
			continue
		}
		nonEmpty++
		if kind == cellInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				kind = cellFloat
			}
		}
		if kind == cellFloat {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				kind = cellString
				break
			}
		}
	}
	if nonEmpty == 0 {
		kind = cellString
	}

	out := make([]any, len(raw))
	for i, rec := range raw {
		s := strings.TrimSpace(rec[j])
		switch {
		case kind == cellString:
			out[i] = rec[j]
		case s == "":
			out[i] = nil
		case kind == cellInt:
			out[i], _ = strconv.ParseInt(s, 10, 64)
		default:
			out[i], _ = strconv.ParseFloat(s, 64)
		}
	}
	return out
}

// WriteCSV writes t as delimited text with a header row. Lists and maps are
// written as JSON.
func WriteCSV(w io.Writer, t *types.Table, comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma

	if err := cw.Write(t.Columns()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range t.Values() {
		rec := make([]string, len(row))
		for j, v := range row {
			s, err := formatCell(v)
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			rec[j] = s
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case int:
		return strconv.Itoa(x), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), nil
	case time.Time:
		return x.Format(time.RFC3339Nano), nil
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
