package video

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ivlev/reel2video/internal/config"
)

func testEncoder(codec string, keepAudio bool) *FFmpegEncoder {
	return &FFmpegEncoder{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		Codec:       codec,
		Quality:     23,
		Preset:      "fast",
		KeepAudio:   keepAudio,
		SampleRate:  44100,
	}
}

func argValue(args []string, flag string) (string, bool) {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1], true
		}
	}
	return "", false
}

func hasArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func TestTrimArgs(t *testing.T) {
	args := testEncoder("libx264", true).trimArgs("in.mp4", "out.mp4", 1.5, 4)

	if v, _ := argValue(args, "-ss"); v != "1.500" {
		t.Errorf("-ss = %s", v)
	}
	if v, _ := argValue(args, "-t"); v != "2.500" {
		t.Errorf("-t = %s", v)
	}
	// input seeking: -ss must precede -i
	if strings.Index(strings.Join(args, " "), "-ss") > strings.Index(strings.Join(args, " "), "-i ") {
		t.Error("-ss should come before -i")
	}
	if v, _ := argValue(args, "-crf"); v != "23" {
		t.Errorf("-crf = %s", v)
	}
	if args[len(args)-1] != "out.mp4" {
		t.Errorf("output must be last, got %s", args[len(args)-1])
	}

	mute := testEncoder("libx264", false).trimArgs("in.mp4", "out.mp4", 0, 1)
	if !hasArg(mute, "-an") {
		t.Error("expected -an when audio is dropped")
	}
}

func TestFrameArgsAudioModes(t *testing.T) {
	p := config.ClipParams{Width: 1080, Height: 1920, FPS: 30, Duration: 5}

	tests := []struct {
		name      string
		keepAudio bool
		hasAudio  bool
		wantMap   string
		wantLavfi bool
		wantAn    bool
	}{
		{"source audio", true, true, "0:a:0", false, false},
		{"silence fill", true, false, "1:a:0", true, false},
		{"muted", false, true, "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := testEncoder("libx264", tt.keepAudio).frameArgs("src.mp4", "dst.mp4", p, "scale=1080:1920", tt.hasAudio)
			joined := strings.Join(args, " ")

			if tt.wantMap != "" && !strings.Contains(joined, "-map "+tt.wantMap) {
				t.Errorf("expected -map %s in %s", tt.wantMap, joined)
			}
			if got := strings.Contains(joined, "anullsrc"); got != tt.wantLavfi {
				t.Errorf("anullsrc present = %v, want %v", got, tt.wantLavfi)
			}
			if got := hasArg(args, "-an"); got != tt.wantAn {
				t.Errorf("-an present = %v, want %v", got, tt.wantAn)
			}
			if v, _ := argValue(args, "-t"); v != "5.000" {
				t.Errorf("-t = %s", v)
			}
			if v, _ := argValue(args, "-r"); v != "30" {
				t.Errorf("-r = %s", v)
			}
			if v, _ := argValue(args, "-vf"); v != "scale=1080:1920" {
				t.Errorf("-vf = %s", v)
			}
		})
	}
}

func TestOverlayArgs(t *testing.T) {
	args := testEncoder("h264_nvenc", true).overlayArgs("clip.mp4", "text.png", "out.mp4")
	if v, _ := argValue(args, "-filter_complex"); !strings.Contains(v, "overlay=0:0") {
		t.Errorf("filter_complex = %s", v)
	}
	if v, _ := argValue(args, "-cq"); v != "23" {
		t.Errorf("-cq = %s", v)
	}
	if v, _ := argValue(args, "-c:a"); v != "copy" {
		t.Errorf("audio should be copied, got %s", v)
	}
}

func TestQualityArgs(t *testing.T) {
	tests := []struct {
		codec string
		want  string
	}{
		{"h264_videotoolbox", "-b:v 2300k"},
		{"h264_nvenc", "-cq 23"},
		{"libx264", "-crf 23 -preset fast"},
	}
	for _, tt := range tests {
		if got := strings.Join(testEncoder(tt.codec, true).qualityArgs(), " "); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.codec, got, tt.want)
		}
	}
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "inputs.txt")
	clips := []string{filepath.Join(dir, "a.mp4"), filepath.Join(dir, "it's.mp4")}

	if err := WriteManifest(manifest, clips); err != nil {
		t.Fatalf("WriteManifest failed: %v", err)
	}
	data, err := os.ReadFile(manifest)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", data)
	}
	if lines[0] != "file '"+clips[0]+"'" {
		t.Errorf("line 0 = %s", lines[0])
	}
	if !strings.Contains(lines[1], `it'\''s.mp4`) {
		t.Errorf("quote not escaped: %s", lines[1])
	}
}

func TestParseProbe(t *testing.T) {
	data := []byte(`{
		"streams": [
			{"codec_type": "video", "codec_name": "h264", "width": 1080, "height": 1920,
			 "pix_fmt": "yuv420p", "r_frame_rate": "30/1", "avg_frame_rate": "30000/1001", "duration": "4.95"},
			{"codec_type": "audio", "codec_name": "aac", "sample_rate": "48000"}
		],
		"format": {"duration": "5.005", "size": "123456"}
	}`)
	res, err := parseProbe(data)
	if err != nil {
		t.Fatalf("parseProbe failed: %v", err)
	}
	if res.Codec != "h264" || res.Width != 1080 || res.Height != 1920 {
		t.Errorf("video stream: %+v", res)
	}
	if res.Duration != 5.005 || res.Size != 123456 {
		t.Errorf("format: %+v", res)
	}
	if res.FrameRate < 29.96 || res.FrameRate > 29.98 {
		t.Errorf("frame rate %.3f", res.FrameRate)
	}
	if !res.HasAudio || res.AudioCodec != "aac" || res.SampleRate != 48000 {
		t.Errorf("audio stream: %+v", res)
	}
}

func TestParseProbeRejects(t *testing.T) {
	tests := map[string]string{
		"garbage":     `not json`,
		"audio only":  `{"streams":[{"codec_type":"audio","codec_name":"mp3"}],"format":{"duration":"3"}}`,
		"no duration": `{"streams":[{"codec_type":"video","codec_name":"png"}],"format":{}}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := parseProbe([]byte(data)); !errors.Is(err, ErrUndecodable) {
				t.Errorf("expected ErrUndecodable, got %v", err)
			}
		})
	}
}

func TestParseRate(t *testing.T) {
	tests := map[string]float64{"30/1": 30, "25": 25, "0/0": 0, "": 0, "x/1": 0}
	for in, want := range tests {
		if got := parseRate(in); got != want {
			t.Errorf("parseRate(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSameFormat(t *testing.T) {
	a := &ProbeResult{Codec: "h264", Width: 1080, Height: 1920, FrameRate: 30}
	b := *a
	if !a.SameFormat(&b) {
		t.Error("identical formats should match")
	}
	b.Width = 720
	if a.SameFormat(&b) {
		t.Error("different widths should not match")
	}
}

func TestLimitedWriterKeepsTail(t *testing.T) {
	var buf bytes.Buffer
	lw := &limitedWriter{w: &buf, limit: 5}
	lw.Write([]byte("hello "))
	n, err := lw.Write([]byte("world"))
	if n != 5 || err != nil {
		t.Errorf("Write() = %d, %v", n, err)
	}
	if buf.String() != "world" {
		t.Errorf("expected tail 'world', got %q", buf.String())
	}
}

func TestRunCapturesFailure(t *testing.T) {
	e := testEncoder("libx264", true)
	_, err := e.run(context.Background(), "frame", "sh", "-c", "echo first >&2; echo 'Invalid data found' >&2; exit 3")

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected *CommandError, got %T %v", err, err)
	}
	if cmdErr.ExitCode != 3 || cmdErr.Step != "frame" {
		t.Errorf("unexpected error fields: %+v", cmdErr)
	}
	if !strings.HasSuffix(cmdErr.Error(), "Invalid data found") {
		t.Errorf("message should end with last stderr line: %s", cmdErr.Error())
	}
}

func TestRunMissingBinary(t *testing.T) {
	e := testEncoder("libx264", true)
	_, err := e.run(context.Background(), "probe", filepath.Join(t.TempDir(), "no-such-ffprobe"))
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) || cmdErr.ExitCode != -1 {
		t.Errorf("expected exit -1 CommandError, got %v", err)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testEncoder("libx264", true).run(ctx, "trim", "sh", "-c", "sleep 5")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
