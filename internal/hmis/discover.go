package hmis

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Discover lists the CSV files directly inside dir, sorted by name. Files
// whose stem already ends with outputSuffix are earlier outputs and are left
// out.
func Discover(dir, outputSuffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list inputs in %s: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if !strings.EqualFold(ext, ".csv") {
			continue
		}
		stem := strings.TrimSuffix(name, ext)
		if outputSuffix != "" && strings.HasSuffix(stem, outputSuffix) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

// Stem returns the file name of path without its extension.
func Stem(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
