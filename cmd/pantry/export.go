package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/internal/codec"
	"github.com/mesh-intelligence/pantry/internal/frame"
	"github.com/mesh-intelligence/pantry/internal/logging"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Export formats.
const (
	formatMsgpack = "msgpack"
	formatPickle  = "pickle"
	formatJSONL   = "jsonl"
	formatCSV     = "csv"
	formatTSV     = "tsv"
	formatSQLite  = "sqlite"
)

var extFormats = map[string]string{
	".msgpack": formatMsgpack,
	".mp":      formatMsgpack,
	".pkl":     formatPickle,
	".pickle":  formatPickle,
	".jsonl":   formatJSONL,
	".ndjson":  formatJSONL,
	".csv":     formatCSV,
	".tsv":     formatTSV,
	".db":      formatSQLite,
	".sqlite":  formatSQLite,
}

func newExportCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export SRC DST",
		Short: "Load a file and write it in another format",
		Long: `Load SRC with the same strategies as load, then write the dataset to DST
as msgpack, pickle, jsonl, csv, tsv, or sqlite. The format comes from --format
or DST's extension.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, dst := args[0], args[1]
			if format == "" {
				format = formatOf(dst)
			}
			if format == "" {
				return fmt.Errorf("%w: cannot infer format of %s", types.ErrUnknownFormat, dst)
			}

			out := cmd.OutOrStdout()
			res := a.newLoader(out).Load(src, src)
			if !res.OK() {
				return fmt.Errorf("%w: %s", errLoadFailed, src)
			}
			if err := export(res.Data(), dst, format, a.cfg.SQLiteTable); err != nil {
				return err
			}
			logging.WithFields("src", src, "dst", dst).Info("exported", "format", format, "items", res.Len())
			fmt.Fprintf(out, "Wrote %d items to %s as %s\n", res.Len(), dst, format)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "output format: msgpack, pickle, jsonl, csv, tsv, sqlite")
	return cmd
}

func formatOf(path string) string {
	return extFormats[strings.ToLower(filepath.Ext(path))]
}

// export writes d to path in the named format.
func export(d types.Dataset, path, format, sqliteTable string) error {
	switch format {
	case formatMsgpack:
		return writeFile(path, func(w io.Writer) error { return codec.WriteArray(w, d) })
	case formatPickle:
		return writeFile(path, func(w io.Writer) error { return codec.WriteDataset(w, d) })
	}

	t, ok := d.(*types.Table)
	if !ok {
		return fmt.Errorf("%w: %s output needs a table, got %s", types.ErrNotTabular, format, d.Kind())
	}
	switch format {
	case formatJSONL:
		return frame.WriteJSONL(path, t)
	case formatCSV:
		return writeFile(path, func(w io.Writer) error { return frame.WriteCSV(w, t, ',') })
	case formatTSV:
		return writeFile(path, func(w io.Writer) error { return frame.WriteCSV(w, t, '\t') })
	case formatSQLite:
		return frame.WriteSQLite(path, t, sqliteTable)
	default:
		return fmt.Errorf("%w: %q", types.ErrUnknownFormat, format)
	}
}

// writeFile creates path and streams write's output into it through a
// buffer. A partial file is removed on error.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return asSysError(fmt.Errorf("creating %s: %w", path, err))
	}
	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		os.Remove(path)
		return asSysError(fmt.Errorf("writing %s: %w", path, err))
	}
	if err := f.Close(); err != nil {
		return asSysError(fmt.Errorf("closing %s: %w", path, err))
	}
	return nil
}
