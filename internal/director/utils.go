package director

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// GenerateOutputPath creates a timestamped file name in dir, e.g. "reel_2026-02-13_01-00-00.mp4".
func GenerateOutputPath(dir, name, ext string) string {
	if name == "" {
		name = "reel"
	}
	clean := strings.ReplaceAll(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)), " ", "_")
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", clean, timestamp, ext))
}

// FindLatestTemplate finds the most recently modified template document in dir.
func FindLatestTemplate(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read templates directory: %w", err)
	}

	type candidate struct {
		path string
		mod  time.Time
	}
	var templates []candidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml", ".json":
		default:
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		templates = append(templates, candidate{filepath.Join(dir, entry.Name()), info.ModTime()})
	}

	if len(templates) == 0 {
		return "", fmt.Errorf("no template files found in %s", dir)
	}

	// Newest first
	sort.Slice(templates, func(i, j int) bool {
		return templates[i].mod.After(templates[j].mod)
	})
	return templates[0].path, nil
}
