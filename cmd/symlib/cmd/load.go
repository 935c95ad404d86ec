package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/OpenTraceLab/symlib/pkg/kicad/kicadsym"
	"github.com/OpenTraceLab/symlib/pkg/kicad/schlib"
)

// loadLibrary reads a .lib or .kicad_sym file. Records that fail to decode
// are logged and returned as skipped alongside the rest of the library.
func loadLibrary(path string) (*schlib.Library, schlib.ParseErrors, error) {
	var (
		lib *schlib.Library
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".kicad_sym") {
		lib, err = kicadsym.ParseFile(path)
	} else {
		lib, err = schlib.Load(path)
	}

	var skipped schlib.ParseErrors
	if errors.As(err, &skipped) {
		for _, e := range skipped {
			log.Warn("skipped record", "file", path, "symbol", e.Name, "line", e.Line, "error", e.Err)
		}
		err = nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("error loading %s: %w", path, err)
	}

	st := lib.Stats()
	log.Debug("loaded library", "file", path, "symbols", st.Symbols, "aliases", st.Aliases, "skipped", len(skipped))
	return lib, skipped, nil
}

// checkOverwrite refuses to save a library with skipped records into the
// directory it was read from, since the skipped records would be lost.
func checkOverwrite(path, dir string, skipped schlib.ParseErrors, force bool) error {
	if len(skipped) == 0 || force {
		return nil
	}
	src, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return err
	}
	dst, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if src != dst {
		return nil
	}
	return fmt.Errorf("refusing to overwrite %s: %d records could not be read and would be lost (use --force to write anyway)", path, len(skipped))
}

// expandLibraries turns directory arguments into the symbol library files
// they contain.
func expandLibraries(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			ext := strings.ToLower(filepath.Ext(e.Name()))
			if !e.IsDir() && (ext == ".lib" || ext == ".kicad_sym") {
				files = append(files, filepath.Join(arg, e.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}
