package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/ivlev/reel2video/internal/config"
	"github.com/ivlev/reel2video/internal/director"
	"github.com/ivlev/reel2video/internal/renderer"
	"github.com/ivlev/reel2video/internal/source"
	"github.com/ivlev/reel2video/internal/video"
)

// fakeEncoder stands in for ffmpeg. Clip files hold text:
//
//	clip:<seconds>:<label>   a user source (1920x1080, with audio)
//	norm:<seconds>:<label>   a normalized clip (h264 1080x1920@30)
//	BAD...                   undecodable
type fakeEncoder struct {
	mu        sync.Mutex
	calls     []fakeCall
	failFrame string // label whose Frame step fails
	oddLabel  string // label whose normalized clip has another size

	filesAtConcat int // files in the workspace when Concatenate starts
}

type fakeCall struct {
	Op     string
	Src    string
	Dst    string
	Filter string
	In     float64
	Out    float64
}

func (f *fakeEncoder) record(c fakeCall) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

// ops lists recorded operations, probes excluded.
func (f *fakeEncoder) ops() []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fakeCall
	for _, c := range f.calls {
		if c.Op != "probe" {
			out = append(out, c)
		}
	}
	return out
}

func readClip(path string) (kind string, seconds float64, label string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, "", err
	}
	parts := strings.SplitN(string(data), ":", 3)
	if len(parts) != 3 {
		return "", 0, "", fmt.Errorf("%w: %s", video.ErrUndecodable, filepath.Base(path))
	}
	seconds, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", 0, "", fmt.Errorf("%w: %v", video.ErrUndecodable, err)
	}
	return parts[0], seconds, parts[2], nil
}

func (f *fakeEncoder) Probe(ctx context.Context, path string) (*video.ProbeResult, error) {
	f.record(fakeCall{Op: "probe", Src: path})
	kind, seconds, label, err := readClip(path)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "clip":
		return &video.ProbeResult{Duration: seconds, Width: 1920, Height: 1080, Codec: "hevc", FrameRate: 60, HasAudio: true}, nil
	case "norm":
		w := 1080
		if f.oddLabel != "" && strings.HasPrefix(label, f.oddLabel) {
			w = 720
		}
		return &video.ProbeResult{Duration: seconds, Width: w, Height: 1920, Codec: "h264", FrameRate: 30, PixFmt: "yuv420p", HasAudio: true}, nil
	}
	return nil, fmt.Errorf("%w: kind %q", video.ErrUndecodable, kind)
}

func (f *fakeEncoder) Trim(ctx context.Context, src, dst string, in, out float64) error {
	f.record(fakeCall{Op: "trim", Src: src, Dst: dst, In: in, Out: out})
	_, _, label, err := readClip(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, []byte(fmt.Sprintf("clip:%g:%s", out-in, label)), 0600)
}

func (f *fakeEncoder) Frame(ctx context.Context, src, dst string, p config.ClipParams, filter string, hasAudio bool) error {
	f.record(fakeCall{Op: "frame", Src: src, Dst: dst, Filter: filter})
	_, _, label, err := readClip(src)
	if err != nil {
		return err
	}
	if f.failFrame != "" && label == f.failFrame {
		return &video.CommandError{Step: "frame", ExitCode: 1, Stderr: "Conversion failed!", Err: errors.New("exit status 1")}
	}
	return os.WriteFile(dst, []byte(fmt.Sprintf("norm:%g:%s", p.Duration, label)), 0600)
}

func (f *fakeEncoder) Overlay(ctx context.Context, src, overlayPNG, dst string) error {
	f.record(fakeCall{Op: "overlay", Src: src, Dst: dst})
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if _, err := os.Stat(overlayPNG); err != nil {
		return err
	}
	return os.WriteFile(dst, append(data, "+text"...), 0600)
}

func (f *fakeEncoder) Concatenate(ctx context.Context, clips []string, manifest, dst string) error {
	f.record(fakeCall{Op: "concat", Dst: dst})
	entries, err := os.ReadDir(filepath.Dir(manifest))
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.filesAtConcat = len(entries)
	f.mu.Unlock()
	if err := video.WriteManifest(manifest, clips); err != nil {
		return err
	}
	labels := make([]string, 0, len(clips))
	for _, c := range clips {
		_, _, label, err := readClip(c)
		if err != nil {
			return err
		}
		labels = append(labels, label)
	}
	return os.WriteFile(dst, []byte("concat:"+strings.Join(labels, ",")), 0600)
}

// fakeOverlays records overlay requests and writes a stub PNG.
type fakeOverlays struct {
	mu    sync.Mutex
	drawn []renderer.Overlay
}

func (f *fakeOverlays) WritePNG(path string, o renderer.Overlay) error {
	f.mu.Lock()
	f.drawn = append(f.drawn, o)
	f.mu.Unlock()
	return os.WriteFile(path, []byte("png"), 0600)
}

func noDiskCheck(context.Context, string, uint64, int) error { return nil }

type harness struct {
	cfg      *config.Config
	encoder  *fakeEncoder
	overlays *fakeOverlays
	pipeline *Pipeline
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	cfg := config.Default()
	cfg.TempDir = t.TempDir()
	h := &harness{cfg: &cfg, encoder: &fakeEncoder{}, overlays: &fakeOverlays{}}

	all := append([]Option{WithOverlayWriter(h.overlays), WithDiskCheck(noDiskCheck)}, opts...)
	p, err := NewPipeline(h.cfg, h.encoder, nil, all...)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	h.pipeline = p
	return h
}

// tempLeftovers lists anything left in the configured temp dir.
func (h *harness) tempLeftovers(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(h.cfg.TempDir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// singleLocation builds a filled template with one location holding scenes of
// the given durations, plus clips labelled A, B, C... of matching length.
func singleLocation(durations ...float64) (*director.Template, source.ClipSet) {
	tmpl := &director.Template{ID: "tmpl-test", Type: director.TypeReel, Name: "test"}
	loc := director.Location{ID: "loc-1", Name: "Spot"}
	clips := make(source.ClipSet)
	for i, d := range durations {
		id := fmt.Sprintf("scene-%d", i+1)
		loc.Scenes = append(loc.Scenes, director.Scene{ID: id, Duration: d, Filled: true})
		label := string(rune('A' + i))
		clips[director.SceneKey(loc.ID, id)] = &source.Clip{
			Name:             label + ".mp4",
			Data:             []byte(fmt.Sprintf("clip:%g:%s", d, label)),
			ReportedDuration: d,
		}
	}
	tmpl.Locations = []director.Location{loc}
	tmpl.Retime()
	return tmpl, clips
}

type eventLog struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (l *eventLog) Emit(ev ProgressEvent) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) count(stage State) int {
	n := 0
	for _, ev := range l.events {
		if ev.Stage == stage {
			n++
		}
	}
	return n
}
