package locator

import (
	"archive/zip"
	"fmt"
	"io"
	"sync"
)

// Jar serves class files from a jar or zip archive. The archive is opened
// once and its entries indexed by binary name.
type Jar struct {
	path    string
	mu      sync.Mutex
	archive *zip.ReadCloser
	entries map[string]*zip.File
}

func OpenJar(path string) (*Jar, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open jar %s: %w", path, err)
	}
	j := &Jar{path: path, archive: archive, entries: make(map[string]*zip.File)}
	for _, f := range archive.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if name, ok := TypeName(f.Name); ok {
			j.entries[name] = f
		}
	}
	return j, nil
}

func (j *Jar) Locate(name string) ([]byte, bool, error) {
	f, ok := j.entries[name]
	if !ok {
		return nil, false, nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	rc, err := f.Open()
	if err != nil {
		return nil, false, fmt.Errorf("failed to open %s in %s: %w", f.Name, j.path, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s in %s: %w", f.Name, j.path, err)
	}
	return data, true, nil
}

// Names lists the binary names of every class in the archive.
func (j *Jar) Names() []string {
	names := make([]string, 0, len(j.entries))
	for n := range j.entries {
		names = append(names, n)
	}
	return names
}

func (j *Jar) String() string { return j.path }

func (j *Jar) Close() error {
	return j.archive.Close()
}
