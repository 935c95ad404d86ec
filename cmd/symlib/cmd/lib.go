package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/symlib/pkg/kicad/schlib"
)

var (
	normalizeOut   string
	normalizeForce bool
	infoSymbols    bool
)

var libCmd = &cobra.Command{
	Use:   "lib",
	Short: "Symbol library operations",
	Long:  `Commands for working with symbol libraries (.lib/.dcm pairs and .kicad_sym files)`,
}

var libInfoCmd = &cobra.Command{
	Use:   "info <library>...",
	Short: "Show library statistics",
	Long: `Print a Markdown table with the number of unique symbols, aliases and
placeable names of each library. Directories are searched for libraries.
Records that could not be read are counted as skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLibInfo,
}

var libNormalizeCmd = &cobra.Command{
	Use:   "normalize <library>...",
	Short: "Rewrite libraries in canonical form",
	Long: `Load each library and save it again as a .lib/.dcm pair with symbols and
documentation sorted by name. .kicad_sym input is converted to the legacy
format. Output goes next to the input unless --out is given.

A library with records that could not be read is not written back over
itself, since those records would be dropped. Use --out to write elsewhere,
or --force to overwrite anyway.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLibNormalize,
}

func init() {
	rootCmd.AddCommand(libCmd)
	libCmd.AddCommand(libInfoCmd)
	libCmd.AddCommand(libNormalizeCmd)

	libInfoCmd.Flags().BoolVarP(&infoSymbols, "symbols", "s", false, "list symbol names")
	libNormalizeCmd.Flags().StringVarP(&normalizeOut, "out", "o", "", "output directory")
	libNormalizeCmd.Flags().BoolVarP(&normalizeForce, "force", "f", false, "overwrite even if records were skipped")
}

func runLibInfo(cmd *cobra.Command, args []string) error {
	files, err := expandLibraries(args)
	if err != nil {
		return err
	}

	fmt.Println("| Library | Symbols | Aliases | Total | Skipped |")
	fmt.Println("|---|---|---|---|---|")
	var sum schlib.Stats
	totalSkipped := 0
	var libs []*schlib.Library
	for _, f := range files {
		lib, skipped, err := loadLibrary(f)
		if err != nil {
			return err
		}
		libs = append(libs, lib)
		st := lib.Stats()
		sum.Symbols += st.Symbols
		sum.Aliases += st.Aliases
		totalSkipped += len(skipped)
		fmt.Printf("| `%s` | %d | %d | %d | %d |\n", filepath.Base(f), st.Symbols, st.Aliases, st.Total(), len(skipped))
	}
	if len(files) > 1 {
		fmt.Printf("| **total** | %d | %d | %d | %d |\n", sum.Symbols, sum.Aliases, sum.Total(), totalSkipped)
	}

	if infoSymbols {
		for _, lib := range libs {
			fmt.Printf("\n%s:\n", lib.Name)
			for _, s := range lib.Symbols() {
				line := fmt.Sprintf("  %s (%s, %d pins)", s.Name(), s.Designator(), len(s.Pins()))
				if len(s.Aliases) > 0 {
					names := make([]string, len(s.Aliases))
					for i, a := range s.Aliases {
						names[i] = a.Name
					}
					line += " aliases: " + strings.Join(names, ", ")
				}
				fmt.Println(line)
			}
		}
	}
	return nil
}

func runLibNormalize(cmd *cobra.Command, args []string) error {
	files, err := expandLibraries(args)
	if err != nil {
		return err
	}
	if normalizeOut != "" {
		if err := os.MkdirAll(normalizeOut, 0o755); err != nil {
			return err
		}
	}

	for _, f := range files {
		lib, skipped, err := loadLibrary(f)
		if err != nil {
			return err
		}
		dir := normalizeOut
		if dir == "" {
			dir = filepath.Dir(f)
		}
		if err := checkOverwrite(f, dir, skipped, normalizeForce); err != nil {
			return err
		}
		if err := schlib.Save(lib, dir); err != nil {
			return fmt.Errorf("error saving %s: %w", lib.Name, err)
		}
		log.Info("normalized library", "library", lib.Name, "dir", dir, "symbols", lib.Len())
	}
	return nil
}
