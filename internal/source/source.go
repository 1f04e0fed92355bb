// Package source supplies user clips to the render pipeline. Clips are
// opaque bytes plus a duration the caller claims; nothing here trusts it.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ivlev/reel2video/internal/director"
)

// Source resolves the clip bound to a scene key ("locationID/sceneID").
type Source interface {
	Clip(key string) (*Clip, bool)
	Len() int
}

// Clip is one user-supplied video.
type Clip struct {
	Name             string
	Data             []byte
	ReportedDuration float64 // seconds, as claimed by the supplier; 0 if unknown
}

// Size is the payload length in bytes.
func (c *Clip) Size() int64 { return int64(len(c.Data)) }

// ClipSet maps scene keys to clips.
type ClipSet map[string]*Clip

func (s ClipSet) Clip(key string) (*Clip, bool) {
	c, ok := s[key]
	return c, ok
}

func (s ClipSet) Len() int { return len(s) }

var videoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".m4v": true, ".webm": true, ".mkv": true,
}

// LoadFile reads a clip from disk.
func LoadFile(path string, reported float64) (*Clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("clip %s is empty", path)
	}
	return &Clip{Name: filepath.Base(path), Data: data, ReportedDuration: reported}, nil
}

// LoadDir reads every video file in dir, sorted by file name.
func LoadDir(dir string) ([]*Clip, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if videoExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no video files in %s", dir)
	}

	clips := make([]*Clip, 0, len(paths))
	for _, p := range paths {
		c, err := LoadFile(p, 0)
		if err != nil {
			return nil, err
		}
		clips = append(clips, c)
	}
	return clips, nil
}

// ParseBinding splits a "locationID/sceneID=path" flag value.
func ParseBinding(s string) (key, path string, err error) {
	key, path, ok := strings.Cut(s, "=")
	if !ok || key == "" || path == "" || !strings.Contains(key, "/") {
		return "", "", fmt.Errorf("binding %q must look like location/scene=path", s)
	}
	return key, path, nil
}

// Bind assigns clips to the template's scenes in playback order and marks
// them filled. Scenes named in overrides are skipped by the sequential
// assignment and get the override clip instead. Clips left over are returned.
func Bind(tmpl *director.Template, clips []*Clip, overrides map[string]*Clip) (ClipSet, []*Clip, error) {
	set := make(ClipSet)
	for key, c := range overrides {
		if err := tmpl.FillScene(key, nil); err != nil {
			return nil, nil, fmt.Errorf("override: %w", err)
		}
		set[key] = c
	}

	next := 0
	for _, p := range tmpl.Scenes() {
		if _, taken := set[p.Key]; taken {
			continue
		}
		if next >= len(clips) {
			break
		}
		set[p.Key] = clips[next]
		next++
		if err := tmpl.FillScene(p.Key, nil); err != nil {
			return nil, nil, err
		}
	}
	return set, clips[next:], nil
}
