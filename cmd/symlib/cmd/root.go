package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/symlib/internal/config"
	"github.com/OpenTraceLab/symlib/internal/logger"
)

var (
	// Global flags
	verbose bool
	logMode string

	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "symlib",
	Short: "KiCad symbol library tools",
	Long: `symlib reads, checks and rewrites KiCad symbol libraries:
  - legacy .lib/.dcm library pairs
  - .kicad_sym S-expression libraries (read only)
  - S-expression files in general (formatting and syntax checks)

Records that cannot be represented are skipped with a warning. This
includes legacy records with arcs, circles or text (A, C, T) and items with
unit or convert 0 ("common to all units"), which older KiCad libraries use
often. "symlib lib info" shows how many records each library skipped, and
commands that save refuse to overwrite a library that lost records.

Examples:
  symlib lib info Device.lib                  # Symbol and alias counts
  symlib lib normalize Device.lib -o out/     # Rewrite in canonical order
  symlib check Device.lib -V high             # Run convention rules
  symlib footprints libs/ --footprints fp/    # Check footprint associations
  symlib remap libs/*.lib --table map.yaml    # Rename footprint libraries
  symlib sexp fmt R_0805.kicad_mod            # Pretty print an S-expression`,
	Version:       "0.3.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		mode := cfg.LogMode
		if cmd.Flags().Changed("log-mode") {
			mode = logMode
		}
		log, err = logger.New(mode, verbose)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logMode, "log-mode", "dev", "log format: dev or prod")
}
