package director

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// WriteTemplate writes a template document; ".json" selects JSON, anything else YAML.
func WriteTemplate(t *Template, path string) error {
	t.Recalculate()

	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(t, "", "  ")
	} else {
		data, err = yaml.Marshal(t)
	}
	if err != nil {
		return fmt.Errorf("encode template: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// ReadTemplate reads a YAML or JSON template document. Aggregate durations are
// recomputed on load so a stale stored total can never leak into a render.
func ReadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var t Template
	if isJSON(path) {
		err = json.Unmarshal(data, &t)
	} else {
		err = yaml.Unmarshal(data, &t)
	}
	if err != nil {
		return nil, fmt.Errorf("decode template %s: %w", filepath.Base(path), err)
	}
	if t.Type == "" {
		t.Type = TypeReel
	}
	t.Recalculate()
	return &t, nil
}

// ReadItems reads a supplier item list (YAML or JSON array of {text, duration}).
func ReadItems(path string) ([]RawItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []RawItem
	if isJSON(path) {
		err = json.Unmarshal(data, &items)
	} else {
		err = yaml.Unmarshal(data, &items)
	}
	if err != nil {
		return nil, fmt.Errorf("decode items %s: %w", filepath.Base(path), err)
	}
	return items, nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
