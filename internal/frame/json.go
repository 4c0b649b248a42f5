package frame

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// readJSON decodes a JSON document or JSONL stream into a Table.
//
// Accepted documents: an array of objects (one record each), an object with
// "columns" and "data" keys (split orientation), or an object of equal
// length arrays (column orientation). A stream of more than one top-level
// value, or a single-line object, is read as JSONL.
func readJSON(r io.Reader) (*types.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	dec := json.NewDecoder(bytes.NewReader(data))
	var first json.RawMessage
	if err := dec.Decode(&first); err != nil {
		return tableFromJSONL(data)
	}
	if dec.More() {
		return tableFromJSONL(data)
	}

	trimmed := bytes.TrimSpace(first)
	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
		return tableFromRecords(items)
	case '{':
		t, err := tableFromObject(trimmed)
		if errors.Is(err, types.ErrNotTabular) && !bytes.Contains(bytes.TrimSpace(data), []byte("\n")) {
			return tableFromRecords([]json.RawMessage{trimmed})
		}
		return t, err
	default:
		return nil, fmt.Errorf("%w: top-level json %s", types.ErrNotTabular, jsonKind(trimmed))
	}
}

func tableFromJSONL(data []byte) (*types.Table, error) {
	records, err := readJSONL(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no valid json lines", types.ErrNotTabular)
	}
	return tableFromRecords(records)
}

// tableFromRecords builds a Table from JSON objects. Columns are the keys in
// first-seen order across all records.
func tableFromRecords(items []json.RawMessage) (*types.Table, error) {
	var columns []string
	seen := make(map[string]bool)
	records := make([]types.Record, 0, len(items))

	for i, raw := range items {
		keys, err := objectKeys(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d is %s", types.ErrNotTabular, i, jsonKind(raw))
		}
		var m map[string]any
		if err := decodeJSON(raw, &m); err != nil {
			return nil, fmt.Errorf("json record %d: %w", i, err)
		}

		rec := make(types.Record, len(keys))
		for _, k := range keys {
			name := columnName(k)
			if !seen[name] {
				seen[name] = true
				columns = append(columns, name)
			}
			rec[name] = convertJSON(m[k])
		}
		records = append(records, rec)
	}
	return types.NewTable(columns, records)
}

func tableFromObject(raw []byte) (*types.Table, error) {
	keys, err := objectKeys(raw)
	if err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}

	if colsRaw, ok := obj["columns"]; ok {
		if dataRaw, ok := obj["data"]; ok {
			return tableFromSplit(colsRaw, dataRaw)
		}
	}

	columns := make([]string, 0, len(keys))
	data := make(map[string][]any, len(keys))
	for _, k := range keys {
		var vals []any
		if jsonKind(obj[k]) != "array" || decodeJSON(obj[k], &vals) != nil {
			return nil, fmt.Errorf("%w: value of %q is %s", types.ErrNotTabular, k, jsonKind(obj[k]))
		}
		for i := range vals {
			vals[i] = convertJSON(vals[i])
		}
		name := columnName(k)
		columns = append(columns, name)
		data[name] = vals
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: empty object", types.ErrNotTabular)
	}
	return types.NewTableFromColumns(columns, data)
}

func tableFromSplit(colsRaw, dataRaw json.RawMessage) (*types.Table, error) {
	var cols []string
	if err := json.Unmarshal(colsRaw, &cols); err != nil {
		return nil, fmt.Errorf("%w: columns: %v", types.ErrNotTabular, err)
	}
	var rows [][]any
	if err := decodeJSON(dataRaw, &rows); err != nil {
		return nil, fmt.Errorf("%w: data: %v", types.ErrNotTabular, err)
	}

	columns := make([]string, len(cols))
	for i, c := range cols {
		columns[i] = columnName(c)
	}
	records := make([]types.Record, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d",
				types.ErrInvalidTable, i, len(row), len(columns))
		}
		rec := make(types.Record, len(columns))
		for j, c := range columns {
			rec[c] = convertJSON(row[j])
		}
		records[i] = rec
	}
	return types.NewTable(columns, records)
}

// objectKeys returns the keys of a JSON object in document order.
func objectKeys(raw []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("not an object")
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func decodeJSON(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

// convertJSON turns json.Number into int64 or float64, recursively.
func convertJSON(v any) any {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case []any:
		for i := range x {
			x[i] = convertJSON(x[i])
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = convertJSON(x[k])
		}
		return x
	default:
		return v
	}
}

func jsonKind(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "empty"
	}
	switch raw[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
