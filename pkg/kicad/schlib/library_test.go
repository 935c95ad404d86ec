package schlib

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func buildLibrary(t *testing.T, names ...string) *Library {
	t.Helper()

	lib := NewLibrary("test")
	for _, name := range names {
		s, err := New(Description{Name: name, Description: name + " part", Keywords: "kw " + name}, DefaultOptions())
		if err != nil {
			t.Fatalf("New(%s): %v", name, err)
		}
		pin, err := NewPin("IN", "1", -200, 0)
		if err != nil {
			t.Fatalf("NewPin: %v", err)
		}
		s.AddItem(pin)
		if err := lib.Add(s); err != nil {
			t.Fatalf("Add(%s): %v", name, err)
		}
	}
	return lib
}

func defNames(data []byte) []string {
	var names []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "DEF ") {
			names = append(names, strings.Fields(line)[1])
		}
	}
	return names
}

func TestLibraryAddDuplicate(t *testing.T) {
	lib := buildLibrary(t, "LM358")
	if err := lib.Get("lm358").AddAlias(Description{Name: "LM2904"}); err != nil {
		t.Fatalf("AddAlias: %v", err)
	}

	for _, name := range []string{"lm358", "lm2904"} {
		s, err := New(Description{Name: name}, DefaultOptions())
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if err := lib.Add(s); !errors.Is(err, ErrDuplicateSymbol) {
			t.Errorf("Add(%s): expected ErrDuplicateSymbol, got %v", name, err)
		}
	}
	if err := lib.Add(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Add(nil): expected ErrInvalidArgument, got %v", err)
	}
	if lib.Len() != 1 {
		t.Errorf("Expected 1 symbol, got %d", lib.Len())
	}
	if lib.Get("LM2904") == nil {
		t.Error("Get should find symbols by alias")
	}
}

func TestLibraryStats(t *testing.T) {
	lib := buildLibrary(t, "A", "B")
	if err := lib.Get("A").AddAlias(Description{Name: "A2"}); err != nil {
		t.Fatalf("AddAlias: %v", err)
	}
	if err := lib.Get("A").AddAlias(Description{Name: "A3"}); err != nil {
		t.Fatalf("AddAlias: %v", err)
	}

	st := lib.Stats()
	if st.Symbols != 2 || st.Aliases != 2 || st.Total() != 4 {
		t.Errorf("Unexpected stats %+v", st)
	}
}

func TestEncodeLibraryAlphabetical(t *testing.T) {
	lib := buildLibrary(t, "gamma", "Beta", "alpha", "ALPHA2")

	data, err := EncodeLibrary(lib)
	if err != nil {
		t.Fatalf("EncodeLibrary: %v", err)
	}

	names := defNames(data)
	want := []string{"alpha", "ALPHA2", "Beta", "gamma"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("Expected order %v, got %v", want, names)
	}
	for i := 1; i < len(names); i++ {
		if strings.ToLower(names[i-1]) > strings.ToLower(names[i]) {
			t.Errorf("Names out of order: %s before %s", names[i-1], names[i])
		}
	}

	text := string(data)
	if !strings.HasPrefix(text, LibHeader+"\n") {
		t.Errorf("Missing header, got %q", text[:40])
	}
	if !strings.HasSuffix(text, LibFooter+"\n") {
		t.Errorf("Missing footer")
	}
}

func TestEncodeDeterministic(t *testing.T) {
	first := buildLibrary(t, "B", "a", "C")
	second := buildLibrary(t, "C", "B", "a")

	for _, lib := range []*Library{first, second} {
		// Aliases in different insertion order.
		aliases := []string{"B2", "B1"}
		if lib == second {
			aliases = []string{"B1", "B2"}
		}
		for _, a := range aliases {
			if err := lib.Get("B").AddAlias(Description{Name: a}); err != nil {
				t.Fatalf("AddAlias: %v", err)
			}
		}
	}

	for _, enc := range []func(*Library) ([]byte, error){EncodeLibrary, EncodeDoc} {
		a, err := enc(first)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		b, err := enc(second)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		again, err := enc(first)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if !bytes.Equal(a, b) {
			t.Errorf("Output depends on insertion order:\n%s\n---\n%s", a, b)
		}
		if !bytes.Equal(a, again) {
			t.Errorf("Encoding twice gave different output")
		}
	}
}

func TestEncodeDoc(t *testing.T) {
	lib := NewLibrary("Device")
	s := newResistor(t)
	if err := s.AddAlias(Description{Name: "R_Small"}); err != nil {
		t.Fatalf("AddAlias: %v", err)
	}
	if err := lib.Add(s); err != nil {
		t.Fatalf("Add: %v", err)
	}
	bare, err := New(Description{Name: "Jumper"}, DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := lib.Add(bare); err != nil {
		t.Fatalf("Add: %v", err)
	}

	data, err := EncodeDoc(lib)
	if err != nil {
		t.Fatalf("EncodeDoc: %v", err)
	}

	want := strings.Join([]string{
		"EESchema-DOCLIB  Version 2.0",
		"#",
		"$CMP Jumper",
		"$ENDCMP",
		"#",
		"$CMP R",
		"D Resistor",
		"K R res",
		"F ~",
		"$ENDCMP",
		"#",
		"$CMP R_Small",
		"D Resistor",
		"K R res",
		"F ~",
		"$ENDCMP",
		"#",
		"#End Doc Library",
		"",
	}, "\n")
	if string(data) != want {
		t.Errorf("EncodeDoc mismatch\ngot:\n%s\nwant:\n%s", data, want)
	}
}

func TestEncodeLibraryRejectsInvalid(t *testing.T) {
	lib := buildLibrary(t, "A")
	lib.Get("A").Graphics[0].(*Pin).Orientation = "Q"

	if _, err := EncodeLibrary(lib); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	lib := NewLibrary("Device")

	r := newResistor(t)
	if err := r.AddAlias(Description{Name: "R_US", Description: "Resistor, US symbol"}); err != nil {
		t.Fatalf("AddAlias: %v", err)
	}
	tol := NewField(4, "1%")
	tol.Name = "Tolerance"
	tol.Visibility = Invisible
	if err := r.SetField(tol); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if err := lib.Add(r); err != nil {
		t.Fatalf("Add: %v", err)
	}

	opts := DefaultOptions()
	opts.UnitCount = 2
	opamp, err := New(Description{Name: "LM358", Description: "Dual op amp", Datasheet: "http://www.ti.com/lit/ds/symlink/lm358.pdf"}, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	opamp.Fields[FieldFootprint].Text = "Package_SO:SOIC-8_3.9x4.9mm_P1.27mm"
	tri, err := NewLine(Attrs{Unit: 1, Convert: 1, Thickness: 10, Fill: FillBackground},
		Point{-200, 200}, Point{200, 0}, Point{-200, -200}, Point{-200, 200})
	if err != nil {
		t.Fatalf("NewLine: %v", err)
	}
	opamp.AddItem(tri)
	for _, unit := range []int{1, 2} {
		p, err := NewPin("+", "3", -300, 100)
		if err != nil {
			t.Fatalf("NewPin: %v", err)
		}
		p.Unit = unit
		p.Type = Input
		opamp.AddItem(p)
	}
	vcc, err := NewPin("V+", "8", 0, 300)
	if err != nil {
		t.Fatalf("NewPin: %v", err)
	}
	vcc.Type = PowerInput
	vcc.Hidden = true
	vcc.Orientation = PinDown
	opamp.AddItem(vcc)
	opamp.AddFilter("SOIC*3.9x4.9mm*P1.27mm*")
	opamp.AddFilter("DIP*W7.62mm*")
	if err := lib.Add(opamp); err != nil {
		t.Fatalf("Add: %v", err)
	}

	libData, err := EncodeLibrary(lib)
	if err != nil {
		t.Fatalf("EncodeLibrary: %v", err)
	}
	docData, err := EncodeDoc(lib)
	if err != nil {
		t.Fatalf("EncodeDoc: %v", err)
	}

	decoded, err := Decode(bytes.NewReader(libData), "Device")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if err := DecodeDoc(bytes.NewReader(docData), decoded); err != nil {
		t.Fatalf("DecodeDoc: %v", err)
	}

	libAgain, err := EncodeLibrary(decoded)
	if err != nil {
		t.Fatalf("EncodeLibrary: %v", err)
	}
	docAgain, err := EncodeDoc(decoded)
	if err != nil {
		t.Fatalf("EncodeDoc: %v", err)
	}
	if !bytes.Equal(libData, libAgain) {
		t.Errorf(".lib round trip mismatch\nfirst:\n%s\nsecond:\n%s", libData, libAgain)
	}
	if !bytes.Equal(docData, docAgain) {
		t.Errorf(".dcm round trip mismatch\nfirst:\n%s\nsecond:\n%s", docData, docAgain)
	}

	got := decoded.Get("LM358")
	if got == nil {
		t.Fatal("LM358 missing after round trip")
	}
	if got.Description.Description != "Dual op amp" {
		t.Errorf("Expected description from .dcm, got '%s'", got.Description.Description)
	}
	pins := got.Pins()
	if len(pins) != 3 {
		t.Fatalf("Expected 3 pins, got %d", len(pins))
	}
	if !pins[2].Hidden || pins[2].Type != PowerInput {
		t.Errorf("Hidden power pin not preserved: %+v", pins[2])
	}
	if alias, ok := decoded.Get("R").Alias("R_US"); !ok || alias.Description != "Resistor, US symbol" {
		t.Errorf("Alias documentation not preserved: %+v", alias)
	}
	if f := decoded.Get("R").Field(4); f == nil || f.Name != "Tolerance" || f.IsVisible() {
		t.Errorf("User field not preserved: %+v", f)
	}
}

const brokenLibrary = `EESchema-LIBRARY Version 2.3
#encoding utf-8
#
# GOOD
#
DEF GOOD U 0 40 Y Y 1 F N
F0 "U" 0 0 50 H V C CNN
F1 "GOOD" 0 0 50 H V C CNN
DRAW
X A 1 0 0 100 R 50 50 1 1 I
ENDDRAW
ENDDEF
DEF BAD U 0 40 Y Y 1 F N
F0 "U" 0 0 50 H V C CNN
DRAW
A 0 0 100 0 900 1 1 0 N
X B 2 0 0 100 R 50 50 1 1 I
ENDDRAW
ENDDEF
DEF OPEN U 0 40 Y Y 1 F N
F0 "U" 0 0 50 H V C CNN
DEF LAST U 0 40 Y Y 1 F N
DRAW
S 0 0 100 100 1 1 0 f
ENDDRAW
ENDDEF
#
#End Library
`

func TestDecodeSkipAndContinue(t *testing.T) {
	lib, err := Decode(strings.NewReader(brokenLibrary), "broken")
	if err == nil {
		t.Fatal("Expected errors")
	}
	if lib == nil {
		t.Fatal("Expected a partial library")
	}

	if !errors.Is(err, ErrUnknownPrimitiveTag) {
		t.Errorf("Expected ErrUnknownPrimitiveTag in %v", err)
	}
	if !errors.Is(err, ErrUnterminatedRecord) {
		t.Errorf("Expected ErrUnterminatedRecord in %v", err)
	}

	var perrs ParseErrors
	if !errors.As(err, &perrs) {
		t.Fatalf("Expected ParseErrors, got %T", err)
	}
	if len(perrs) != 2 {
		t.Fatalf("Expected 2 record errors, got %d: %v", len(perrs), err)
	}
	if perrs[0].Name != "BAD" || perrs[0].Line != 16 {
		t.Errorf("Unexpected first error %+v", perrs[0])
	}
	if perrs[1].Name != "OPEN" || perrs[1].Line != 20 {
		t.Errorf("Unexpected second error %+v", perrs[1])
	}

	if lib.Len() != 2 {
		t.Fatalf("Expected 2 symbols, got %d", lib.Len())
	}
	if lib.Get("GOOD") == nil || lib.Get("LAST") == nil {
		t.Error("Valid records should be kept")
	}
	if lib.Get("BAD") != nil || lib.Get("OPEN") != nil {
		t.Error("Failed records should be skipped")
	}
	if len(lib.Get("LAST").Graphics) != 1 {
		t.Error("Record after a failure should decode completely")
	}
}

func TestDecodeUnterminatedAtEOF(t *testing.T) {
	input := "EESchema-LIBRARY Version 2.3\nDEF X U 0 40 Y Y 1 F N\nDRAW\nX A 1 0 0 100 R 50 50 1 1 P\n"

	lib, err := Decode(strings.NewReader(input), "eof")
	if !errors.Is(err, ErrUnterminatedRecord) {
		t.Fatalf("Expected ErrUnterminatedRecord, got %v", err)
	}
	if lib.Len() != 0 {
		t.Errorf("Expected no symbols, got %d", lib.Len())
	}
}

func TestDecodeJoinedPinType(t *testing.T) {
	input := `DEF U1 U 0 40 Y Y 1 F N
DRAW
X CLK 1 0 0 100 R 50 50 1 1 IC
X ~ 2 0 100 100 R 50 50 1 1 WN
ENDDRAW
ENDDEF
`
	lib, err := Decode(strings.NewReader(input), "joined")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	pins := lib.Get("U1").Pins()
	if len(pins) != 2 {
		t.Fatalf("Expected 2 pins, got %d", len(pins))
	}
	if pins[0].Type != Input || pins[0].Style != StyleClock {
		t.Errorf("Unexpected first pin %+v", pins[0])
	}
	if pins[1].Type != PowerInput || !pins[1].Hidden || pins[1].Style != StyleLine {
		t.Errorf("Unexpected second pin %+v", pins[1])
	}
}

func TestDecodeDocCaseInsensitive(t *testing.T) {
	lib := buildLibrary(t, "LM358")
	doc := `EESchema-DOCLIB  Version 2.0
#
$CMP lm358
D Dual op amp
K opamp dual
F http://www.ti.com/lit/ds/symlink/lm358.pdf
$ENDCMP
#
$CMP Missing
D nobody
$ENDCMP
#
#End Doc Library
`
	if err := DecodeDoc(strings.NewReader(doc), lib); err != nil {
		t.Fatalf("DecodeDoc: %v", err)
	}
	s := lib.Get("LM358")
	if s.Name() != "LM358" {
		t.Errorf("Name casing changed to '%s'", s.Name())
	}
	if s.Description.Description != "Dual op amp" || s.Description.Keywords != "opamp dual" {
		t.Errorf("Documentation not applied: %+v", s.Description)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	lib := buildLibrary(t, "B", "A")
	lib.Name = "pair"

	if err := Save(lib, dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	libData, err := os.ReadFile(filepath.Join(dir, "pair.lib"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	docData, err := os.ReadFile(filepath.Join(dir, "pair.dcm"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.HasPrefix(string(docData), DocHeader+"\n") || !strings.HasSuffix(string(docData), DocFooter+"\n") {
		t.Errorf("Unexpected .dcm framing:\n%s", docData)
	}

	loaded, err := Load(filepath.Join(dir, "pair.lib"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Name != "pair" {
		t.Errorf("Expected library name 'pair', got '%s'", loaded.Name)
	}
	if got := loaded.Get("A").Description.Keywords; got != "kw A" {
		t.Errorf("Expected keywords from .dcm, got '%s'", got)
	}

	again, err := EncodeLibrary(loaded)
	if err != nil {
		t.Fatalf("EncodeLibrary: %v", err)
	}
	if !bytes.Equal(libData, again) {
		t.Errorf("Reloaded library encodes differently")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected only the two library files, found %d entries", len(entries))
	}
}

func TestSaveInvalidKeepsPreviousFiles(t *testing.T) {
	dir := t.TempDir()
	lib := buildLibrary(t, "A")
	lib.Name = "keep"
	if err := Save(lib, dir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	before, err := os.ReadFile(filepath.Join(dir, "keep.lib"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	lib.Get("A").Graphics[0].(*Pin).Type = "?"
	if err := Save(lib, dir); err == nil {
		t.Fatal("Expected Save to fail")
	}

	after, err := os.ReadFile(filepath.Join(dir, "keep.lib"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Error("Failed save modified the previous file")
	}
}

func TestSaveRequiresName(t *testing.T) {
	lib := buildLibrary(t, "A")
	lib.Name = ""
	if err := Save(lib, t.TempDir()); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.lib"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist, got %v", err)
	}
}

func TestSaveDocFailureRestoresLibrary(t *testing.T) {
	dir := t.TempDir()
	lib := buildLibrary(t, "A")
	lib.Name = "pair"
	if err := Save(lib, dir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	before, err := os.ReadFile(filepath.Join(dir, "pair.lib"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	// A directory in place of the .dcm makes the second rename fail.
	docPath := filepath.Join(dir, "pair.dcm")
	if err := os.Remove(docPath); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := os.Mkdir(docPath, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	s, err := New(Description{Name: "B"}, DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := lib.Add(s); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := Save(lib, dir); err == nil {
		t.Fatal("Expected Save to fail")
	}

	after, err := os.ReadFile(filepath.Join(dir, "pair.lib"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Errorf("Previous .lib not restored:\n%s", after)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("Temporary files left behind: %v", names)
	}
}

func TestSaveDocFailureWithoutPreviousLibrary(t *testing.T) {
	dir := t.TempDir()
	lib := buildLibrary(t, "A")
	lib.Name = "fresh"
	if err := os.Mkdir(filepath.Join(dir, "fresh.dcm"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	if err := Save(lib, dir); err == nil {
		t.Fatal("Expected Save to fail")
	}
	if _, err := os.Stat(filepath.Join(dir, "fresh.lib")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected no .lib after a failed save, got %v", err)
	}
}
