// paramit reruns a Python script under varying parameter values: it
// discovers constant literals in the source, persists them as a TOML
// config, and expands CLI overrides into a sweep of experiments, each
// executed on a rewritten copy of the script.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"paramit/internal/logging"
)

var (
	verbose bool
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "paramit",
	Short: "Config-driven hyperparameter sweeps for Python scripts",
	Long: `paramit turns the constant literals of a Python script into named,
overridable parameters without editing the script.

The first run against a script generates <script>.toml describing every
discovered parameter. Overrides are plain tokens after the path:

  paramit run train.py --lr=0.01
  paramit run train.py --lr 0.01,0.1,1.0 --batch-size=64

A multi-valued override defines a sweep dimension; paramit runs the full
Cartesian product, one experiment per combination, each in its own
reports/ directory with its config, rewritten script, and console log.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.Close()
	},
}

// The mode commands take paramit's own override syntax after the path,
// so cobra flag parsing is disabled and tokens are handled verbatim.

var runCmd = &cobra.Command{
	Use:   "run <path.py|path.toml> [--param=value | --param v1 v2 ...]...",
	Short: "Run a script (or a sweep of it) locally",
	Long: `Runs the target script once per experiment configuration. The path may
be the script itself or a previously generated .toml config. Use -h
after the path to list the script's derived arguments.`,
	Args:               cobra.ArbitraryArgs,
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executePipeline(cmd, modeRun, args)
	},
}

var notebookCmd = &cobra.Command{
	Use:   "notebook <path.ipynb|path.toml> [--param=value ...]",
	Short: "Run a Jupyter notebook (or a sweep of it) locally",
	Long: `Converts the notebook to linear source, runs the same pipeline as
'run', and writes a rewritten .ipynb next to each experiment's script.`,
	Args:               cobra.ArbitraryArgs,
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executePipeline(cmd, modeNotebook, args)
	},
}

var cloudCmd = &cobra.Command{
	Use:   "cloud <path.py|path.ipynb> [--param=value ...]",
	Short: "Submit a script to a paramit job server",
	Args:               cobra.ArbitraryArgs,
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executePipeline(cmd, modeCloud, args)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(notebookCmd)
	rootCmd.AddCommand(cloudCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		errorf("%v", err)
		os.Exit(1)
	}
}
