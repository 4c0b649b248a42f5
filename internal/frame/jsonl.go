package frame

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// maxLineSize bounds a single JSONL record; embedding rows can be long.
const maxLineSize = 16 << 20

// readJSONL reads JSONL content and returns each non-empty line as a
// json.RawMessage. A malformed line, such as the cut-off last line of a
// truncated file, fails the whole read.
func readJSONL(r io.Reader) ([]json.RawMessage, error) {
	var records []json.RawMessage
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	n := 0
	for scanner.Scan() {
		n++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			return nil, fmt.Errorf("%w: jsonl line %d", types.ErrMalformedRecord, n)
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning jsonl: %w", err)
	}
	return records, nil
}

// writeJSONL atomically writes records to a JSONL file using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("writing record: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// WriteJSONL writes t as one JSON object per row, keys in column order.
func WriteJSONL(path string, t *types.Table) error {
	columns := t.Columns()
	keys := make([][]byte, len(columns))
	for i, c := range columns {
		k, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encoding column %q: %w", c, err)
		}
		keys[i] = k
	}

	records := make([]json.RawMessage, 0, t.Len())
	for i, row := range t.Values() {
		var buf bytes.Buffer
		buf.WriteByte('{')
		for j, v := range row {
			if j > 0 {
				buf.WriteByte(',')
			}
			val, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("encoding row %d column %q: %w", i, columns[j], err)
			}
			buf.Write(keys[j])
			buf.WriteByte(':')
			buf.Write(val)
		}
		buf.WriteByte('}')
		records = append(records, json.RawMessage(buf.Bytes()))
	}
	return writeJSONL(path, records)
}
