package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/symlib/pkg/kicad/footprint"
)

var (
	remapTable  string
	remapPretty []string
	remapReal   bool
	remapForce  bool
)

var remapCmd = &cobra.Command{
	Use:   "remap <library.lib>...",
	Short: "Rename footprint libraries in symbol footprint fields",
	Long: `Rewrite the library part of Library:Footprint associations in .lib files
after footprint libraries were renamed. The old-to-new mapping is read from
a YAML or JSON file. Associations pointing at a library listed with --pretty
are left alone unless --force is given.

Nothing is written unless --real is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemap,
}

func init() {
	rootCmd.AddCommand(remapCmd)

	remapCmd.Flags().StringVarP(&remapTable, "table", "t", "", "YAML or JSON file mapping old to new library names")
	remapCmd.Flags().StringSliceVarP(&remapPretty, "pretty", "p", nil, "existing footprint libraries (.pretty dirs)")
	remapCmd.Flags().BoolVar(&remapReal, "real", false, "write the changes (dry run otherwise)")
	remapCmd.Flags().BoolVarP(&remapForce, "force", "f", false, "remap even if the current library exists")
	_ = remapCmd.MarkFlagRequired("table")
}

func runRemap(cmd *cobra.Command, args []string) error {
	table, err := footprint.LoadRemapTable(remapTable)
	if err != nil {
		return err
	}

	valid := footprint.NewCatalog()
	for _, p := range remapPretty {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() || !strings.HasSuffix(p, footprint.LibrarySuffix) {
			log.Warn("ignoring footprint library", "path", p)
			continue
		}
		valid.AddLibrary(strings.TrimSuffix(filepath.Base(p), footprint.LibrarySuffix))
	}

	r := footprint.NewRemapper(table, valid)
	r.Force = remapForce

	total, files, err := remapFiles(r, args, !remapReal)
	if err != nil {
		return err
	}

	verb := "would change"
	if remapReal {
		verb = "changed"
	}
	fmt.Printf("%s %d footprint associations in %d files\n", verb, total, files)
	if missing := r.Unmapped(); len(missing) > 0 {
		fmt.Printf("no mapping for: %s\n", strings.Join(missing, ", "))
	}
	return nil
}

// remapFiles rewrites the footprint fields of every .lib file in paths and
// returns the number of changed lines and of files processed.
func remapFiles(r *footprint.Remapper, paths []string, dryRun bool) (total, files int, err error) {
	for _, f := range paths {
		if !strings.EqualFold(filepath.Ext(f), ".lib") {
			log.Warn("skipping non-.lib file", "file", f)
			continue
		}
		n, err := r.RemapFile(f, dryRun)
		if err != nil {
			return total, files, err
		}
		files++
		total += n
		log.Debug("remapped library", "file", f, "lines", n, "dry_run", dryRun)
	}
	return total, files, nil
}
