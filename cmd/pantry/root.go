package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/internal/loader"
	"github.com/mesh-intelligence/pantry/internal/logging"
	"github.com/mesh-intelligence/pantry/internal/paths"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// app carries global flag values and the configuration resolved from them.
type app struct {
	flagConfigDir string
	flagDataDir   string
	flagEnvFile   string
	flagColor     string
	flagVerbose   bool

	cfg     types.Config
	dataDir string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "pantry",
		Short: "Load dataset files of unknown serialization",
		Long: `pantry loads serialized dataset files by trying msgpack arrays, pickled
object graphs, and tabular formats (SQLite, JSON, JSONL, YAML, CSV) in
that order, and summarizes whatever loads.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flagConfigDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/pantry)")
	pf.StringVar(&a.flagDataDir, "data-dir", "", "data directory manifest paths resolve against (default: $(CWD)/data)")
	pf.StringVar(&a.flagEnvFile, "env-file", "", "load environment variables from this file")
	pf.StringVar(&a.flagColor, "color", "", "color output: auto, on, or off")
	pf.BoolVarP(&a.flagVerbose, "verbose", "v", false, "print each strategy as it is tried")

	root.AddCommand(newLoadCmd(a))
	root.AddCommand(newBatchCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}

// setup resolves configuration for every subcommand: env file, config
// directory, config.yaml plus PANTRY_* overrides, flags, and logging.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if a.flagEnvFile != "" {
		if err := godotenv.Load(a.flagEnvFile); err != nil {
			return fmt.Errorf("loading env file: %w", err)
		}
	}

	configDir, err := paths.ResolveConfigDir(a.flagConfigDir)
	if err != nil {
		return asSysError(fmt.Errorf("resolving config dir: %w", err))
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return asSysError(err)
	}
	cfg, err := decodeConfig(v)
	if err != nil {
		return err
	}
	if a.flagColor != "" {
		cfg.Color = a.flagColor
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	a.dataDir, err = paths.ResolveDataDir(a.flagDataDir, cfg.DataDir)
	if err != nil {
		return asSysError(fmt.Errorf("resolving data dir: %w", err))
	}

	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	return nil
}

// newLoader builds a Loader whose diagnostic lines go to out.
func (a *app) newLoader(out io.Writer) *loader.Loader {
	f, _ := out.(*os.File)
	colored := logging.ColorEnabled(a.cfg.Color, f)
	return loader.New(
		loader.WithLogger(logging.NewConsoleLogger(out, a.flagVerbose, colored)),
		loader.WithPreviewLength(a.cfg.PreviewLength),
		loader.WithMissingFastPath(a.cfg.MissingFastPath),
		loader.WithSQLiteTable(a.cfg.SQLiteTable),
	)
}
