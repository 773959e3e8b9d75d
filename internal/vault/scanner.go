// Package vault handles the filesystem side of a tracked root directory:
// enumerating eligible document files and extracting display metadata.
package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultExtensions is the extension allow-list applied while scanning.
var DefaultExtensions = []string{".md", ".markdown", ".txt"}

// Scan enumerates eligible files under root, recursively, filtered to the
// given extension allow-list (DefaultExtensions when nil). A root that is
// itself a file is treated as a one-file tree. Hidden directories
// (.obsidian, .git and friends) are skipped. Paths come back sorted by
// the walk order, so results are deterministic.
func Scan(root string, exts []string) ([]string, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	allowed := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		allowed[strings.ToLower(ext)] = struct{}{}
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access root %s: %w", root, err)
	}

	// One-file tree.
	if !info.IsDir() {
		if _, ok := allowed[strings.ToLower(filepath.Ext(root))]; ok {
			return []string{root}, nil
		}
		return nil, nil
	}

	var files []string
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}

		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		if _, ok := allowed[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	return files, nil
}
