package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// collectFilesWithExt resolves the argument paths into a deduplicated,
// sorted list of files carrying the given extension. Directory arguments are
// walked recursively; file arguments must carry the extension themselves.
func collectFilesWithExt(paths []string, ext string) ([]string, error) {
	seen := make(map[string]bool)

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("resolving %q: %w", path, err)
		}

		if !info.IsDir() {
			if strings.EqualFold(filepath.Ext(path), ext) {
				seen[filepath.Clean(path)] = true
			}
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ext) {
				seen[filepath.Clean(p)] = true
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %q: %w", path, err)
		}
	}

	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

// metadataPathFor pairs a RAW volume with its DAT sidecar.
func metadataPathFor(volumePath string) string {
	return strings.TrimSuffix(volumePath, filepath.Ext(volumePath)) + ".dat"
}
