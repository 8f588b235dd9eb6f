package crawler

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"typepool/internal/locator"
)

// Entry is one class file found by a scan.
type Entry struct {
	// Name is the binary name derived from the entry path.
	Name string
	// Source is the directory or archive the entry came from.
	Source string
	Data   []byte
}

// Crawler scans class-path directories and jar archives for class files.
type Crawler struct {
	ignored []string
}

// NewCrawler creates a new crawler instance.
func NewCrawler() *Crawler {
	return &Crawler{
		ignored: []string{".git", "META-INF", "versions"},
	}
}

// IsArchive reports whether path names a jar or zip file.
func IsArchive(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jar" || ext == ".zip"
}

// Scan walks root, a class directory or an archive, and streams every
// class file to onEntry. Archives found inside a directory are scanned as
// separate sources. An error from onEntry stops the scan.
func (c *Crawler) Scan(root string, onEntry func(Entry) error) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		if !IsArchive(root) {
			return fmt.Errorf("%s is neither a directory nor a jar", root)
		}
		return c.scanArchive(root, onEntry)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip ignored directories
		if d.IsDir() {
			for _, ign := range c.ignored {
				if d.Name() == ign && path != root {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if IsArchive(path) {
			return c.scanArchive(path, onEntry)
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name, ok := locator.TypeName(rel)
		if !ok {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return onEntry(Entry{Name: name, Source: root, Data: data})
	})
}

func (c *Crawler) scanArchive(path string, onEntry func(Entry) error) error {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	defer archive.Close()

	for _, f := range archive.File {
		if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "META-INF/") {
			continue
		}
		name, ok := locator.TypeName(f.Name)
		if !ok {
			continue
		}
		data, err := readEntry(f)
		if err != nil {
			return fmt.Errorf("failed to read %s in %s: %w", f.Name, path, err)
		}
		if err := onEntry(Entry{Name: name, Source: path, Data: data}); err != nil {
			return err
		}
	}
	return nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
