package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// CatalogFile is the optional model list inside the models directory.
const CatalogFile = "catalog.yaml"

// Exts are the model file extensions the loader understands.
var Exts = []string{".glb", ".gltf", ".vrm"}

// Entry is one selectable model. File is relative to the models directory.
// Scale 0 means "use the configured model scale".
type Entry struct {
	File  string  `yaml:"file"`
	Name  string  `yaml:"name,omitempty"`
	Scale float32 `yaml:"scale,omitempty"`
}

// Label returns the display name, falling back to the file name.
func (e Entry) Label() string {
	if e.Name != "" {
		return e.Name
	}
	return e.File
}

// Catalog lists the models that can be loaded from Dir.
type Catalog struct {
	Dir    string  `yaml:"-"`
	Models []Entry `yaml:"models"`
}

// LoadCatalog reads dir/catalog.yaml. When the file is missing, the catalog is built by
// scanning dir for model files.
func LoadCatalog(dir string) (Catalog, error) {
	c := Catalog{Dir: dir}
	data, err := os.ReadFile(filepath.Join(dir, CatalogFile))
	if errors.Is(err, fs.ErrNotExist) {
		files, err := ScanDir(dir)
		if err != nil {
			return c, fmt.Errorf("assets: scan %s: %w", dir, err)
		}
		for _, f := range files {
			c.Models = append(c.Models, Entry{File: f})
		}
		return c, nil
	}
	if err != nil {
		return c, fmt.Errorf("assets: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("assets: parse %s: %w", CatalogFile, err)
	}
	c.Dir = dir
	return c, nil
}

// Find returns the entry whose file or display name equals name.
func (c Catalog) Find(name string) (Entry, bool) {
	for _, e := range c.Models {
		if e.File == name || (e.Name != "" && e.Name == name) {
			return e, true
		}
	}
	return Entry{}, false
}

// Path returns the on-disk path of e.
func (c Catalog) Path(e Entry) string {
	return filepath.Join(c.Dir, filepath.FromSlash(e.File))
}

// IsModelFile reports whether path has one of Exts.
func IsModelFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Exts {
		if ext == e {
			return true
		}
	}
	return false
}

// ScanDir returns relative paths of all model files under dir, sorted.
// Paths use forward slashes. A missing dir yields no files.
func ScanDir(dir string) ([]string, error) {
	var out []string
	dir = filepath.Clean(dir)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || !IsModelFile(path) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	sort.Strings(out)
	return out, err
}
