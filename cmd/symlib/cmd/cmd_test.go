package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/symlib/internal/config"
	"github.com/OpenTraceLab/symlib/internal/logger"
	"github.com/OpenTraceLab/symlib/pkg/kicad/footprint"
	"github.com/OpenTraceLab/symlib/pkg/kicad/schlib"
)

// partialLibrary holds one readable record and one with a unit 0 rectangle.
const partialLibrary = `EESchema-LIBRARY Version 2.3
#encoding utf-8
#
# KEEP
#
DEF KEEP U 0 40 Y Y 1 F N
F0 "U" 0 0 50 H V C CNN
F1 "KEEP" 0 0 50 H V C CNN
F2 "" 0 0 50 H I C CNN
F3 "" 0 0 50 H I C CNN
DRAW
X A 1 0 0 100 R 50 50 1 1 I
ENDDRAW
ENDDEF
#
# OPAMP
#
DEF OPAMP U 0 40 Y Y 1 F N
F0 "U" 0 0 50 H V C CNN
F1 "OPAMP" 0 0 50 H V C CNN
DRAW
S -100 100 100 -100 0 1 10 f
X + 3 -200 0 100 R 50 50 1 1 I
ENDDRAW
ENDDEF
#
#End Library
`

// wrongValueLibrary holds a readable record whose value differs from its name.
const wrongValueLibrary = `EESchema-LIBRARY Version 2.3
#encoding utf-8
#
# KEEP
#
DEF KEEP U 0 40 Y Y 1 F N
F0 "U" 0 0 50 H V C CNN
F1 "wrong" 0 0 50 H V C CNN
F2 "" 0 0 50 H I C CNN
F3 "" 0 0 50 H I C CNN
DRAW
X A 1 0 0 100 R 50 50 1 1 I
ENDDRAW
ENDDEF
#
#End Library
`

func setupCommand(t *testing.T) {
	t.Helper()
	cfg = &config.Config{
		LogMode:   "dev",
		Verbosity: "normal",
		Format:    config.FormatConfig{Indent: 2, MaxNesting: 2},
	}
	log = logger.Nop()
	t.Cleanup(func() {
		normalizeOut = ""
		normalizeForce = false
		checkRules = nil
		checkVerbosity = ""
		checkFootprints = ""
		checkFix = false
		checkForce = false
		checkList = false
	})
}

func writeLibrary(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNormalizeKeepsLibraryWithSkippedRecords(t *testing.T) {
	setupCommand(t)
	dir := t.TempDir()
	path := writeLibrary(t, dir, "parts.lib", partialLibrary)

	err := runLibNormalize(libNormalizeCmd, []string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to overwrite")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, partialLibrary, string(data))
	assert.NoFileExists(t, filepath.Join(dir, "parts.dcm"))
}

func TestNormalizeToOtherDirectory(t *testing.T) {
	setupCommand(t)
	dir := t.TempDir()
	path := writeLibrary(t, dir, "parts.lib", partialLibrary)
	normalizeOut = filepath.Join(t.TempDir(), "out")

	require.NoError(t, runLibNormalize(libNormalizeCmd, []string{path}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, partialLibrary, string(data), "source must not change")

	out, err := os.ReadFile(filepath.Join(normalizeOut, "parts.lib"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "DEF KEEP ")
	assert.NotContains(t, string(out), "OPAMP")
	assert.FileExists(t, filepath.Join(normalizeOut, "parts.dcm"))
}

func TestNormalizeForce(t *testing.T) {
	setupCommand(t)
	dir := t.TempDir()
	path := writeLibrary(t, dir, "parts.lib", partialLibrary)
	normalizeForce = true

	require.NoError(t, runLibNormalize(libNormalizeCmd, []string{path}))

	lib, err := schlib.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, lib.Len())
	assert.NotNil(t, lib.Get("KEEP"))
}

func TestNormalizeCleanLibrary(t *testing.T) {
	setupCommand(t)
	dir := t.TempDir()
	path := writeLibrary(t, dir, "clean.lib", wrongValueLibrary)

	require.NoError(t, runLibNormalize(libNormalizeCmd, []string{path}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), schlib.LibHeader+"\n"))
	assert.Contains(t, string(data), "X A 1 0 0 100 R 50 50 1 1 I\n")
	assert.FileExists(t, filepath.Join(dir, "clean.dcm"))
}

func TestCheckFixKeepsLibraryWithSkippedRecords(t *testing.T) {
	setupCommand(t)
	dir := t.TempDir()
	path := writeLibrary(t, dir, "parts.lib", partialLibrary)
	checkFix = true

	err := runCheck(checkCmd, []string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to overwrite")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, partialLibrary, string(data))
	assert.NoFileExists(t, filepath.Join(dir, "parts.dcm"))
}

func TestCheckFixSavesFixedLibrary(t *testing.T) {
	setupCommand(t)
	dir := t.TempDir()
	path := writeLibrary(t, dir, "parts.lib", wrongValueLibrary)
	checkFix = true

	require.NoError(t, runCheck(checkCmd, []string{path}))

	lib, err := schlib.Load(path)
	require.NoError(t, err)
	sym := lib.Get("KEEP")
	require.NotNil(t, sym)
	assert.Equal(t, "KEEP", sym.Value())
}

func TestCheckReportsViolations(t *testing.T) {
	setupCommand(t)
	dir := t.TempDir()
	path := writeLibrary(t, dir, "parts.lib", wrongValueLibrary)

	err := runCheck(checkCmd, []string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule violations")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, wrongValueLibrary, string(data))
}

func TestCheckOverwrite(t *testing.T) {
	skipped := schlib.ParseErrors{{Name: "OPAMP", Err: schlib.ErrInvalidArgument}}
	path := filepath.Join("libs", "parts.lib")

	assert.NoError(t, checkOverwrite(path, "libs", nil, false))
	assert.Error(t, checkOverwrite(path, "libs", skipped, false))
	assert.Error(t, checkOverwrite(path, "./libs/", skipped, false))
	assert.NoError(t, checkOverwrite(path, "libs", skipped, true))
	assert.NoError(t, checkOverwrite(path, "out", skipped, false))
}

func TestRemapFilesCountsProcessedFiles(t *testing.T) {
	setupCommand(t)
	dir := t.TempDir()
	lib := writeLibrary(t, dir, "parts.lib", `F2 "Old_Lib:R_0805" 0 0 50 H I C CNN
`)
	other := writeLibrary(t, dir, "notes.txt", `F2 "Old_Lib:R_0805" 0 0 50 H I C CNN
`)

	r := footprint.NewRemapper(map[string]string{"Old_Lib": "New_Lib"}, footprint.NewCatalog())
	total, files, err := remapFiles(r, []string{lib, other}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, files)

	data, err := os.ReadFile(lib)
	require.NoError(t, err)
	assert.Equal(t, "F2 \"New_Lib:R_0805\" 0 0 50 H I C CNN\n", string(data))

	untouched, err := os.ReadFile(other)
	require.NoError(t, err)
	assert.Contains(t, string(untouched), "Old_Lib")
}
