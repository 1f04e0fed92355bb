package engine

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func writeNormalized(t *testing.T, ws *Workspace, index int, content string) string {
	t.Helper()
	path, err := ws.WriteFile(index, "frame", ".mp4", []byte(content))
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSequencerSingleClipIsFreshCopy(t *testing.T) {
	ws := NewWorkspace(t.TempDir(), "seq-")
	enc := &fakeEncoder{}
	clip := writeNormalized(t, ws, 0, "norm:2:A")

	art, err := NewSequencer(enc).Concatenate(context.Background(), ws, []string{clip})
	if err != nil {
		t.Fatalf("Concatenate failed: %v", err)
	}
	if err := ws.Release(); err != nil {
		t.Fatal(err)
	}
	if string(art.Data) != "norm:2:A" {
		t.Errorf("artifact changed or aliased released storage: %q", art.Data)
	}
	if art.Duration != 2 {
		t.Errorf("duration %.2f", art.Duration)
	}
}

func TestSequencerWritesManifestInOrder(t *testing.T) {
	ws := NewWorkspace(t.TempDir(), "seq-")
	defer ws.Release()
	enc := &fakeEncoder{}
	clips := []string{
		writeNormalized(t, ws, 0, "norm:1:A"),
		writeNormalized(t, ws, 1, "norm:2:B"),
		writeNormalized(t, ws, 2, "norm:3:C"),
	}

	art, err := NewSequencer(enc).Concatenate(context.Background(), ws, clips)
	if err != nil {
		t.Fatalf("Concatenate failed: %v", err)
	}
	if string(art.Data) != "concat:A,B,C" || art.Duration != 6 {
		t.Errorf("unexpected artifact %q %.1fs", art.Data, art.Duration)
	}

	var manifest string
	for _, e := range ws.History() {
		if e.Step == "inputs" {
			manifest = e.Path
		}
	}
	data, err := os.ReadFile(manifest)
	if err != nil {
		t.Fatalf("manifest missing: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	for i, c := range clips {
		if lines[i] != "file '"+c+"'" {
			t.Errorf("manifest line %d = %s", i, lines[i])
		}
	}
}

func TestSequencerRejects(t *testing.T) {
	ws := NewWorkspace(t.TempDir(), "seq-")
	defer ws.Release()

	if _, err := NewSequencer(&fakeEncoder{}).Concatenate(context.Background(), ws, nil); err == nil {
		t.Error("Expected error for zero clips")
	}

	enc := &fakeEncoder{oddLabel: "B"}
	clips := []string{writeNormalized(t, ws, 0, "norm:1:A"), writeNormalized(t, ws, 1, "norm:1:B")}
	_, err := NewSequencer(enc).Concatenate(context.Background(), ws, clips)
	if err == nil || !strings.Contains(err.Error(), "720x1920") {
		t.Errorf("Expected size mismatch error, got %v", err)
	}

	bad := []string{writeNormalized(t, ws, 2, "BAD")}
	if _, err := NewSequencer(&fakeEncoder{}).Concatenate(context.Background(), ws, bad); err == nil {
		t.Error("Expected probe error")
	}
}

func TestArtifactSave(t *testing.T) {
	art := &Artifact{Data: []byte("video")}
	path := t.TempDir() + "/out/nested/reel.mp4"
	if err := art.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "video" {
		t.Errorf("saved %q, %v", got, err)
	}
}

func TestStatsLine(t *testing.T) {
	s := &Stats{JobID: "j1", Template: "paris", Scenes: 5, Total: 2 * time.Second, Transform: time.Second}
	line := s.Line(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), "v1")
	if !strings.HasPrefix(line, "[2026-01-02 03:04:05] Build: v1 | Job: j1 | Template: paris | Scenes: 5 | Total: 2.00s") {
		t.Errorf("unexpected line %q", line)
	}
	if s.ScenesPerSecond() != 2.5 {
		t.Errorf("ScenesPerSecond = %.2f", s.ScenesPerSecond())
	}

	path := t.TempDir() + "/stats.log"
	if err := s.AppendTo(path, "v1"); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendTo(path, "v1"); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if n := strings.Count(string(data), "\n"); n != 2 {
		t.Errorf("Expected 2 appended lines, got %d", n)
	}
}

func TestClassify(t *testing.T) {
	ctx := context.Background()
	if !errors.Is(classify(ctx, context.Canceled), ErrCanceled) {
		t.Error("canceled context error should classify as ErrCanceled")
	}
	if !errors.Is(classify(ctx, errors.New("x")), ErrTransform) {
		t.Error("generic error should classify as ErrTransform")
	}
}
