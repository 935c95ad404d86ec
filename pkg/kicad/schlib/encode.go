package schlib

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// File headers and footers written by KiCad 4/5.
const (
	LibHeader = "EESchema-LIBRARY Version 2.3"
	LibFooter = "#End Library"
	DocHeader = "EESchema-DOCLIB  Version 2.0"
	DocFooter = "#End Doc Library"
)

// EncodeLibrary renders lib as a .lib file. Symbols are written sorted by
// name so the output depends only on the library's contents. Every symbol is
// validated first; nothing is returned if any of them is invalid.
func EncodeLibrary(lib *Library) ([]byte, error) {
	symbols := lib.Symbols()
	for _, s := range symbols {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	buf.WriteString(LibHeader + "\n")
	buf.WriteString("#encoding utf-8\n")
	for _, s := range symbols {
		buf.WriteString(s.Encode())
	}
	buf.WriteString("#\n")
	buf.WriteString(LibFooter + "\n")
	return buf.Bytes(), nil
}

// EncodeDoc renders the documentation of every symbol and alias of lib as a
// .dcm file. Blank D, K and F lines are left out.
func EncodeDoc(lib *Library) ([]byte, error) {
	descs := lib.Descriptions()
	for _, d := range descs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	buf.WriteString(DocHeader + "\n")
	for _, d := range descs {
		buf.WriteString("#\n")
		fmt.Fprintf(&buf, "$CMP %s\n", d.Name)
		if d.Description != "" {
			fmt.Fprintf(&buf, "D %s\n", d.Description)
		}
		if d.Keywords != "" {
			fmt.Fprintf(&buf, "K %s\n", d.Keywords)
		}
		if d.Datasheet != "" {
			fmt.Fprintf(&buf, "F %s\n", d.Datasheet)
		}
		buf.WriteString("$ENDCMP\n")
	}
	buf.WriteString("#\n")
	buf.WriteString(DocFooter + "\n")
	return buf.Bytes(), nil
}

// Save writes <dir>/<name>.lib and <dir>/<name>.dcm. Both files are rendered
// and staged in temporary files before either is replaced. If the .dcm cannot
// be put in place the previous .lib is restored.
func Save(lib *Library, dir string) error {
	if lib == nil || lib.Name == "" {
		return invalidf("library has no name")
	}
	libData, err := EncodeLibrary(lib)
	if err != nil {
		return err
	}
	docData, err := EncodeDoc(lib)
	if err != nil {
		return err
	}

	base := filepath.Join(dir, lib.Name)
	libFile, err := stage(base+".lib", libData)
	if err != nil {
		return err
	}
	docFile, err := stage(base+".dcm", docData)
	if err != nil {
		libFile.discard()
		return err
	}

	previous, err := os.ReadFile(libFile.path)
	hadPrevious := err == nil
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		libFile.discard()
		docFile.discard()
		return err
	}

	if err := libFile.commit(); err != nil {
		docFile.discard()
		return err
	}
	if err := docFile.commit(); err != nil {
		if hadPrevious {
			_ = WriteFileAtomic(libFile.path, previous)
		} else {
			os.Remove(libFile.path)
		}
		return err
	}
	return nil
}

// stagedFile is data written to a temporary file next to its destination.
type stagedFile struct {
	tmp  string
	path string
}

func stage(path string, data []byte) (stagedFile, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return stagedFile{}, err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return stagedFile{}, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return stagedFile{}, err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return stagedFile{}, err
	}
	return stagedFile{tmp: name, path: path}, nil
}

func (f stagedFile) discard() {
	os.Remove(f.tmp)
}

// commit renames the temporary file into place.
func (f stagedFile) commit() error {
	if err := os.Rename(f.tmp, f.path); err != nil {
		os.Remove(f.tmp)
		return err
	}
	return nil
}

// WriteFileAtomic writes data to a temporary file next to path and renames
// it into place.
func WriteFileAtomic(path string, data []byte) error {
	f, err := stage(path, data)
	if err != nil {
		return err
	}
	return f.commit()
}
