package frame

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// DefaultSQLiteTable is the table name WriteSQLite uses when none is given.
const DefaultSQLiteTable = "data"

// readSQLite reads every row of one table from a SQLite database opened
// read-only. When table is empty the database must hold exactly one user
// table.
func readSQLite(path, table string) (*types.Table, error) {
	db, err := sql.Open("sqlite", readOnlyDSN(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if table == "" {
		table, err = soleTable(db)
		if err != nil {
			return nil, err
		}
	}

	rows, err := db.Query("SELECT * FROM " + quoteIdent(table))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	columns := make([]string, len(cols))
	for i, c := range cols {
		columns[i] = columnName(c)
	}

	var records []types.Record
	for rows.Next() {
		vals := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}
		rec := make(types.Record, len(columns))
		for i, c := range columns {
			rec[c] = vals[i]
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", table, err)
	}
	return types.NewTable(columns, records)
}

// readOnlyDSN turns a file path into a SQLite URI that opens it with
// mode=ro, so a leftover journal is never rolled back into the file.
func readOnlyDSN(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path), RawQuery: "mode=ro"}
	return u.String()
}

func soleTable(db *sql.DB) (string, error) {
	rows, err := db.Query(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return "", fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return "", fmt.Errorf("listing tables: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("listing tables: %w", err)
	}

	switch len(names) {
	case 0:
		return "", types.ErrNoTable
	case 1:
		return names[0], nil
	default:
		return "", fmt.Errorf("%w: %s", types.ErrAmbiguousTable, strings.Join(names, ", "))
	}
}

// WriteSQLite writes t into a new SQLite database at path as a single table.
// An existing file at path is replaced. Rows are inserted in one
// transaction; lists and maps are stored as JSON text.
func WriteSQLite(path string, t *types.Table, table string) error {
	if table == "" {
		table = DefaultSQLiteTable
	}
	columns := t.Columns()
	if len(columns) == 0 {
		return fmt.Errorf("%w: no columns to write", types.ErrInvalidTable)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
		placeholders[i] = "?"
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning write transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(quoted, ", "))); err != nil {
		return fmt.Errorf("creating table %s: %w", table, err)
	}
	if err := insertRows(tx, table, quoted, placeholders, t.Values()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing write transaction: %w", err)
	}
	return nil
}

func insertRows(tx *sql.Tx, table string, quoted, placeholders []string, rows [][]any) error {
	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return fmt.Errorf("preparing insert for %s: %w", table, err)
	}
	defer stmt.Close()

	for i, row := range rows {
		args := make([]any, len(row))
		for j, v := range row {
			arg, err := sqliteValue(v)
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			args[j] = arg
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("inserting row %d into %s: %w", i, table, err)
		}
	}
	return nil
}

// sqliteValue converts a cell into a value the driver accepts. Lists and
// maps need to be re-serialized as JSON strings.
func sqliteValue(v any) (any, error) {
	switch x := v.(type) {
	case nil, string, []byte, bool, int64, float64, time.Time:
		return x, nil
	case int:
		return int64(x), nil
	case float32:
		return float64(x), nil
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
