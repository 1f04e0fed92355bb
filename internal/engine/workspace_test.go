package engine

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWorkspaceLazyCreateAndRelease(t *testing.T) {
	parent := t.TempDir()
	ws := NewWorkspace(parent, "ws-")

	if ws.Dir() != "" {
		t.Fatal("workspace directory should not exist before first use")
	}
	if entries, _ := os.ReadDir(parent); len(entries) != 0 {
		t.Fatal("nothing should be created eagerly")
	}

	path, err := ws.WriteFile(0, "source", ".mp4", []byte("data"))
	if err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if filepath.Base(path) != "s000_source.mp4" {
		t.Errorf("unexpected name %s", filepath.Base(path))
	}
	if _, err := ws.Path(-1, "inputs", ".txt"); err != nil {
		t.Fatal(err)
	}
	if ws.Live() != 2 {
		t.Errorf("Expected 2 live entries, got %d", ws.Live())
	}

	if err := ws.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(ws.Dir()); !os.IsNotExist(err) {
		t.Error("workspace directory survived Release")
	}
	if err := ws.Release(); err != nil {
		t.Errorf("second Release should be a no-op, got %v", err)
	}
	if _, err := ws.Path(1, "frame", ".mp4"); err == nil {
		t.Error("reserving after Release should fail")
	}
}

func TestWorkspaceRemoveKeepsHistory(t *testing.T) {
	ws := NewWorkspace(t.TempDir(), "ws-")
	defer ws.Release()

	path, err := ws.WriteFile(3, "probe", ".mov", []byte("x"))
	if err != nil {
		t.Fatal(err)
	}
	if err := ws.Remove(path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file still exists")
	}
	if ws.Live() != 0 {
		t.Errorf("Expected no live entries, got %d", ws.Live())
	}
	h := ws.History()
	if len(h) != 1 || h[0].Scene != 3 || h[0].Step != "probe" {
		t.Errorf("unexpected history %+v", h)
	}
	if err := ws.Remove(path); err != nil {
		t.Errorf("removing twice should be harmless, got %v", err)
	}
}

func TestReleaseUnusedWorkspace(t *testing.T) {
	if err := NewWorkspace(t.TempDir(), "ws-").Release(); err != nil {
		t.Errorf("Release of unused workspace failed: %v", err)
	}
}
