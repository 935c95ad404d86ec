package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/symlib/pkg/kicad/footprint"
	"github.com/OpenTraceLab/symlib/pkg/kicad/klc"
	"github.com/OpenTraceLab/symlib/pkg/kicad/schlib"
)

var (
	checkRules      []string
	checkVerbosity  string
	checkFootprints string
	checkFix        bool
	checkForce      bool
	checkList       bool
)

var checkCmd = &cobra.Command{
	Use:   "check <library>...",
	Short: "Check symbols against the library conventions",
	Long: `Run the convention rules on every symbol of each library and print the
violations. With --footprints, footprint associations are also checked
against the *.pretty libraries in that directory. With --fix, fixable
violations are corrected and the library is saved again. A library with
records that could not be read is not saved unless --force is given.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if checkList {
			return nil
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringSliceVarP(&checkRules, "rules", "r", nil, "rule IDs to run (default all)")
	checkCmd.Flags().StringVarP(&checkVerbosity, "verbosity", "V", "", "diagnostic verbosity: normal or high")
	checkCmd.Flags().StringVar(&checkFootprints, "footprints", "", "directory of *.pretty footprint libraries")
	checkCmd.Flags().BoolVar(&checkFix, "fix", false, "apply fixes and save")
	checkCmd.Flags().BoolVar(&checkForce, "force", false, "save fixes even if records were skipped")
	checkCmd.Flags().BoolVar(&checkList, "list", false, "list the available rules")
}

func buildRegistry() (*klc.Registry, error) {
	reg := klc.Default()

	dir := cfg.FootprintDir
	if checkFootprints != "" {
		dir = checkFootprints
	}
	if dir == "" {
		return reg, nil
	}
	cat, err := footprint.LoadCatalog(dir)
	if err != nil {
		return nil, fmt.Errorf("error loading footprints: %w", err)
	}
	log.Debug("loaded footprint catalog", "dir", dir, "libraries", len(cat), "footprints", cat.Len())
	if err := reg.Register(klc.FootprintExistsRule{Catalog: cat}); err != nil {
		return nil, err
	}
	return reg, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	reg, err := buildRegistry()
	if err != nil {
		return err
	}
	if checkList {
		for _, r := range reg.Rules() {
			fmt.Printf("%-10s %s\n", r.ID(), r.Description())
		}
		return nil
	}

	rules, err := reg.Select(checkRules)
	if err != nil {
		return err
	}
	level := cfg.Verbosity
	if checkVerbosity != "" {
		level = checkVerbosity
	}
	verbosity, err := klc.ParseVerbosity(level)
	if err != nil {
		return err
	}

	files, err := expandLibraries(args)
	if err != nil {
		return err
	}

	violations := 0
	for _, f := range files {
		lib, skipped, err := loadLibrary(f)
		if err != nil {
			return err
		}

		results := klc.RunLibrary(lib, rules, verbosity)
		for _, sr := range results {
			if sr.Failed() == 0 {
				continue
			}
			violations += sr.Failed()
			var ids []string
			for _, r := range sr.Results {
				if r.Fail {
					ids = append(ids, r.RuleID)
				}
			}
			fmt.Printf("%s: %s violates %s\n", lib.Name, sr.Symbol, strings.Join(ids, ", "))
			for _, r := range sr.Results {
				for _, d := range r.Diagnostics {
					fmt.Printf("  [%s] %s\n", r.RuleID, d)
				}
			}
		}

		if checkFix {
			if err := checkOverwrite(f, filepath.Dir(f), skipped, checkForce); err != nil {
				return err
			}
			if err := fixLibrary(lib, filepath.Dir(f), rules, verbosity); err != nil {
				return err
			}
		}
	}

	if violations > 0 && !checkFix {
		return fmt.Errorf("%d rule violations", violations)
	}
	return nil
}

// fixLibrary applies every rule's fix to each symbol and saves the library
// as a .lib/.dcm pair in dir.
func fixLibrary(lib *schlib.Library, dir string, rules []klc.Rule, verbosity klc.Verbosity) error {
	fixed := schlib.NewLibrary(lib.Name)
	for _, s := range lib.Symbols() {
		out, diags := klc.FixAll(s, rules, verbosity)
		for _, d := range diags {
			log.Info("fix", "library", lib.Name, "symbol", s.Name(), "severity", d.Severity.String(), "message", d.Message)
		}
		if err := fixed.Add(out); err != nil {
			return err
		}
	}
	if err := schlib.Save(fixed, dir); err != nil {
		return fmt.Errorf("error saving %s: %w", lib.Name, err)
	}
	log.Info("saved fixed library", "library", lib.Name, "dir", dir)
	return nil
}
