package director

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGenerateOutputPath(t *testing.T) {
	path := GenerateOutputPath("output", "My Paris Trip.yaml", ".mp4")

	if !strings.HasPrefix(path, filepath.Join("output", "My_Paris_Trip_")) {
		t.Errorf("Path should start with sanitized name: %s", path)
	}
	if !strings.HasSuffix(path, ".mp4") {
		t.Errorf("Path should end with .mp4: %s", path)
	}

	if got := GenerateOutputPath("out", "", ".mp4"); !strings.Contains(got, "reel_") {
		t.Errorf("Empty name should fall back to 'reel': %s", got)
	}
}

func TestFindLatestTemplate(t *testing.T) {
	dir := t.TempDir()

	files := []string{
		filepath.Join(dir, "template_a.yaml"),
		filepath.Join(dir, "template_b.json"),
		filepath.Join(dir, "template_c.yml"),
	}
	for i, f := range files {
		if err := os.WriteFile(f, []byte("type: reel\n"), 0644); err != nil {
			t.Fatal(err)
		}
		modTime := time.Now().Add(time.Duration(i) * time.Hour)
		os.Chtimes(f, modTime, modTime)
	}
	// Non-template files are ignored even when newer
	other := filepath.Join(dir, "notes.txt")
	os.WriteFile(other, []byte("x"), 0644)
	future := time.Now().Add(10 * time.Hour)
	os.Chtimes(other, future, future)

	latest, err := FindLatestTemplate(dir)
	if err != nil {
		t.Fatalf("FindLatestTemplate failed: %v", err)
	}
	if latest != files[len(files)-1] {
		t.Errorf("Expected latest to be %s, got %s", files[len(files)-1], latest)
	}
}

func TestFindLatestTemplateEmpty(t *testing.T) {
	if _, err := FindLatestTemplate(t.TempDir()); err == nil {
		t.Error("Expected error for empty directory")
	}
}
