package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Entry is one temporary file created during a render.
type Entry struct {
	Scene int // playback index, -1 for render-wide files
	Step  string
	Path  string
}

// Workspace scopes a render's temporary files. The directory is created on
// first use and removed by Release, which every exit path calls.
type Workspace struct {
	parent  string
	pattern string

	mu       sync.Mutex
	dir      string
	live     map[string]Entry
	history  []Entry
	released bool
}

func NewWorkspace(parent, pattern string) *Workspace {
	return &Workspace{parent: parent, pattern: pattern, live: make(map[string]Entry)}
}

// Path reserves a file name for a scene's step output.
func (w *Workspace) Path(scene int, step, ext string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.released {
		return "", errors.New("workspace already released")
	}
	if w.dir == "" {
		dir, err := os.MkdirTemp(w.parent, w.pattern)
		if err != nil {
			return "", fmt.Errorf("create workspace: %w", err)
		}
		w.dir = dir
	}

	name := step + ext
	if scene >= 0 {
		name = fmt.Sprintf("s%03d_%s%s", scene, step, ext)
	}
	e := Entry{Scene: scene, Step: step, Path: filepath.Join(w.dir, name)}
	w.live[e.Path] = e
	w.history = append(w.history, e)
	return e.Path, nil
}

// WriteFile reserves a path and writes data to it.
func (w *Workspace) WriteFile(scene int, step, ext string, data []byte) (string, error) {
	path, err := w.Path(scene, step, ext)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", err
	}
	return path, nil
}

// Remove deletes one file early.
func (w *Workspace) Remove(path string) error {
	w.mu.Lock()
	delete(w.live, path)
	w.mu.Unlock()
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Dir is the workspace directory, empty until the first file is reserved.
func (w *Workspace) Dir() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dir
}

// History lists every file ever reserved, in order.
func (w *Workspace) History() []Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Entry(nil), w.history...)
}

// Live counts files not yet removed.
func (w *Workspace) Live() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.live)
}

// Release removes the workspace directory. It is safe to call more than once.
func (w *Workspace) Release() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.released {
		return nil
	}
	w.released = true
	clear(w.live)
	if w.dir == "" {
		return nil
	}
	return os.RemoveAll(w.dir)
}
