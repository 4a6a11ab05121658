package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// dataExts are the extensions picked up when a directory is scanned.
var dataExts = map[string]bool{
	".json":   true,
	".ndjson": true,
	".jsonl":  true,
}

// IsDataFile reports whether name has an export file extension.
func IsDataFile(name string) bool {
	return dataExts[strings.ToLower(filepath.Ext(name))]
}

// Discover expands input paths into files, preserving the given order.
// Directories are walked for export files, which are appended in lexical
// order. Plain paths are kept even if they cannot be stat'ed, so a missing
// file surfaces later as a read failure for that file alone.
func Discover(paths []string) ([]DiscoveredFile, error) {
	var files []DiscoveredFile
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			df := DiscoveredFile{Path: p, Name: filepath.Base(p)}
			if err == nil {
				df.ModTime = info.ModTime()
				df.Size = info.Size()
			}
			files = append(files, df)
			continue
		}

		found, err := ScanDir(p)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

// ScanDir walks dir and returns every export file beneath it, sorted by path.
func ScanDir(dir string) ([]DiscoveredFile, error) {
	var files []DiscoveredFile

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil //nolint:nilerr // intentionally skip unreadable entries
		}
		if d.IsDir() || !IsDataFile(d.Name()) {
			return nil
		}
		df := DiscoveredFile{Path: path, Name: d.Name()}
		if info, err := d.Info(); err == nil {
			df.ModTime = info.ModTime()
			df.Size = info.Size()
		}
		files = append(files, df)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}
