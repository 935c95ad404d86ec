package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/symlib/pkg/kicad/footprint"
)

var (
	fpDir     string
	fpAll     bool
	fpEmpty   bool
	fpPattern bool
	fpName    bool
)

var footprintsCmd = &cobra.Command{
	Use:   "footprints <library>...",
	Short: "Check symbol footprint associations",
	Long: `Classify the default footprint of every symbol as empty, malformed
(not Library:Footprint), pointing at an unknown library, pointing at an
unknown footprint, or valid.

Select what to list with -e, -p and -n, or -a for everything.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFootprints,
}

func init() {
	rootCmd.AddCommand(footprintsCmd)

	footprintsCmd.Flags().StringVar(&fpDir, "footprints", "", "directory of *.pretty footprint libraries")
	footprintsCmd.Flags().BoolVarP(&fpAll, "all", "a", false, "show all problems")
	footprintsCmd.Flags().BoolVarP(&fpEmpty, "empty", "e", false, "show symbols with an empty footprint")
	footprintsCmd.Flags().BoolVarP(&fpPattern, "pattern", "p", false, "show symbols with a malformed footprint")
	footprintsCmd.Flags().BoolVarP(&fpName, "name", "n", false, "show symbols pointing at a missing library or footprint")
}

var statusHeadings = map[footprint.Status]string{
	footprint.StatusEmpty:            "Symbols with empty footprint field:",
	footprint.StatusMalformed:        "Symbols with incorrect footprint pattern:",
	footprint.StatusUnknownLibrary:   "Symbols pointing to missing footprint library:",
	footprint.StatusUnknownFootprint: "Symbols pointing to missing footprint:",
}

func showStatus(st footprint.Status) bool {
	switch st {
	case footprint.StatusEmpty:
		return fpAll || fpEmpty
	case footprint.StatusMalformed:
		return fpAll || fpPattern
	case footprint.StatusUnknownLibrary, footprint.StatusUnknownFootprint:
		return fpAll || fpName
	}
	return false
}

func runFootprints(cmd *cobra.Command, args []string) error {
	dir := cfg.FootprintDir
	if fpDir != "" {
		dir = fpDir
	}
	if dir == "" {
		return fmt.Errorf("no footprint directory: use --footprints or SYMLIB_FOOTPRINT_DIR")
	}
	cat, err := footprint.LoadCatalog(dir)
	if err != nil {
		return fmt.Errorf("error loading footprints: %w", err)
	}
	log.Info("loaded footprint catalog", "dir", dir, "libraries", len(cat), "footprints", cat.Len())

	files, err := expandLibraries(args)
	if err != nil {
		return err
	}

	var reports []*footprint.Report
	problems := 0
	for _, f := range files {
		lib, _, err := loadLibrary(f)
		if err != nil {
			return err
		}
		r := footprint.Check(lib, cat)
		reports = append(reports, r)
		problems += r.Problems()
		fmt.Printf("%s: %d valid, %d empty, %d malformed, %d unknown library, %d unknown footprint\n",
			r.Library, r.Count(footprint.StatusValid), r.Count(footprint.StatusEmpty),
			r.Count(footprint.StatusMalformed), r.Count(footprint.StatusUnknownLibrary),
			r.Count(footprint.StatusUnknownFootprint))
	}

	for _, st := range []footprint.Status{
		footprint.StatusEmpty,
		footprint.StatusMalformed,
		footprint.StatusUnknownLibrary,
		footprint.StatusUnknownFootprint,
	} {
		if !showStatus(st) {
			continue
		}
		printed := false
		for _, r := range reports {
			entries := r.Entries[st]
			if len(entries) == 0 {
				continue
			}
			if !printed {
				fmt.Printf("\n%s\n", statusHeadings[st])
				printed = true
			}
			fmt.Printf("Library: %s\n", r.Library)
			for _, e := range entries {
				fmt.Printf("  %s -> %s\n", e.Symbol, e.Footprint)
			}
		}
	}

	if problems > 0 {
		return fmt.Errorf("%d symbols with footprint problems", problems)
	}
	return nil
}
