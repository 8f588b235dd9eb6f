package locator

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Directory serves class files from a class-path directory laid out by
// package, e.g. root/pkg/Outer$Inner.class.
type Directory struct {
	root string
}

func NewDirectory(root string) *Directory {
	return &Directory{root: root}
}

func (d *Directory) Locate(name string) ([]byte, bool, error) {
	path := filepath.Join(d.root, ClassFilePath(name))
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, true, nil
}

func (d *Directory) String() string { return d.root }

// ClassFilePath converts "pkg.Outer$Inner" to "pkg/Outer$Inner.class" using
// the host separator.
func ClassFilePath(name string) string {
	return filepath.FromSlash(strings.ReplaceAll(name, ".", "/") + ".class")
}

// TypeName converts a slash-separated entry path such as
// "pkg/Outer$Inner.class" back to a binary name.
func TypeName(entry string) (string, bool) {
	entry = filepath.ToSlash(entry)
	if !strings.HasSuffix(entry, ".class") {
		return "", false
	}
	base := strings.TrimSuffix(entry, ".class")
	if base == "" || base == "module-info" || strings.HasSuffix(base, "/package-info") || base == "package-info" {
		return "", false
	}
	return strings.ReplaceAll(base, "/", "."), true
}
