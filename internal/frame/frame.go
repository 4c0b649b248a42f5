// Package frame reads and writes row/column table files. Read sniffs the
// content to pick a format (SQLite database, JSON, JSONL, YAML, or
// delimited text) and always returns a rectangular Table.
package frame

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// sniffLen is how many leading bytes Read inspects to choose a format.
const sniffLen = 512

var (
	sqliteMagic = []byte("SQLite format 3\x00")
	utf8BOM     = []byte("\xef\xbb\xbf")
)

// Format names a table encoding.
type Format string

// Supported formats.
const (
	FormatSQLite Format = "sqlite"
	FormatJSON   Format = "json"
	FormatJSONL  Format = "jsonl"
	FormatYAML   Format = "yaml"
	FormatCSV    Format = "csv"
	FormatTSV    Format = "tsv"
)

// Options tunes Read.
type Options struct {
	// SQLiteTable selects the table to read from a SQLite database. When
	// empty the database must hold exactly one user table.
	SQLiteTable string
}

// Read decodes the table file at path.
func Read(path string, opts Options) (*types.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	head = head[:n]
	if n == 0 {
		return nil, types.ErrEmptyFile
	}

	format, err := Detect(path, head)
	if err != nil {
		return nil, err
	}
	if format == FormatSQLite {
		return readSQLite(path, opts.SQLiteTable)
	}

	r := io.MultiReader(bytes.NewReader(head), f)
	sniffed := !hasDelimitedExt(path)
	switch format {
	case FormatJSON:
		return readJSON(r)
	case FormatYAML:
		return readYAML(r)
	case FormatTSV:
		return readDelimited(r, '\t', sniffed)
	default:
		return readDelimited(r, ',', sniffed)
	}
}

// Detect chooses a format from the leading bytes of a file, falling back to
// the extension when the content does not decide it. JSON and JSONL share
// FormatJSON here; readJSON tells them apart. Text with no extension hint
// is delimited only when its first line holds a tab or a comma.
func Detect(path string, head []byte) (Format, error) {
	if bytes.HasPrefix(head, sqliteMagic) {
		return FormatSQLite, nil
	}
	if !isText(head) {
		return "", types.ErrBinaryContent
	}

	trimmed := bytes.TrimLeft(bytes.TrimPrefix(head, utf8BOM), " \t\r\n")
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return FormatJSON, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonl", ".ndjson":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".tsv", ".tab":
		return FormatTSV, nil
	case ".csv":
		return FormatCSV, nil
	}
	if bytes.HasPrefix(trimmed, []byte("---")) {
		return FormatYAML, nil
	}

	first, _, _ := bytes.Cut(trimmed, []byte("\n"))
	switch {
	case bytes.IndexByte(first, '\t') >= 0:
		return FormatTSV, nil
	case bytes.IndexByte(first, ',') >= 0:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: text with no recognizable structure", types.ErrNotTabular)
	}
}

func hasDelimitedExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".tab":
		return true
	}
	return false
}

// isText reports whether head looks like UTF-8 text. A rune cut off at the
// end of the sniff window is tolerated.
func isText(head []byte) bool {
	if bytes.IndexByte(head, 0) >= 0 {
		return false
	}
	for i := len(head) - 1; i >= 0 && i > len(head)-utf8.UTFMax; i-- {
		if utf8.RuneStart(head[i]) {
			if !utf8.FullRune(head[i:]) {
				head = head[:i]
			}
			break
		}
	}
	return utf8.Valid(head)
}

// columnName cleans a header cell or key into a column name.
func columnName(s string) string {
	return norm.NFC.String(strings.TrimSpace(strings.TrimPrefix(s, "\ufeff")))
}
