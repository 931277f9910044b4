package fonts

import (
	"os"
	"path/filepath"
	"strings"
)

// Extensions we consider as font files.
var Exts = []string{".ttf", ".otf"}

// ScanDir returns relative paths of all font files under dir (e.g. "Inter/Inter-Regular.ttf").
// Paths use forward slashes. A missing dir yields no fonts.
func ScanDir(dir string) ([]string, error) {
	var out []string
	dir = filepath.Clean(dir)
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() || !isFont(path) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	return out, err
}

func isFont(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Exts {
		if ext == e {
			return true
		}
	}
	return false
}

// normalizeForMatch lowercases and removes spaces, dashes, and underscores for fuzzy matching.
func normalizeForMatch(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}

// Find searches dir for a font file whose relative path contains search, ignoring case,
// spaces, dashes and underscores. When several match, a path containing "regular" wins.
// Returns the full path, or os.ErrNotExist.
func Find(dir, search string) (string, error) {
	norm := normalizeForMatch(search)
	if norm == "" {
		return "", os.ErrNotExist
	}
	list, err := ScanDir(dir)
	if err != nil {
		return "", err
	}
	var match string
	for _, rel := range list {
		if !strings.Contains(normalizeForMatch(rel), norm) {
			continue
		}
		if strings.Contains(strings.ToLower(rel), "regular") {
			return filepath.Join(dir, rel), nil
		}
		if match == "" {
			match = rel
		}
	}
	if match == "" {
		return "", os.ErrNotExist
	}
	return filepath.Join(dir, match), nil
}
