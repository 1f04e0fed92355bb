package system

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestPickEncoder(t *testing.T) {
	tests := []struct {
		name    string
		listing string
		want    string
	}{
		{"videotoolbox first", " V....D h264_nvenc  NVIDIA\n V....D h264_videotoolbox VideoToolbox\n", "h264_videotoolbox"},
		{"nvenc", " V....D libx264  x264\n V....D h264_nvenc  NVIDIA NVENC\n", "h264_nvenc"},
		{"software only", " V....D libx264  libx264 H.264\n", "libx264"},
		{"empty", "", "libx264"},
		{"name in description only", " V....D libx264  not h264_nvenc\n", "libx264"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PickEncoder(tt.listing); got != tt.want {
				t.Errorf("PickEncoder() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCheckHeadroom(t *testing.T) {
	const mb = 1024 * 1024
	if err := checkHeadroom(100*mb, 10*mb, 50); err != nil {
		t.Errorf("expected enough space, got %v", err)
	}
	err := checkHeadroom(100*mb, 60*mb, 50)
	if !errors.Is(err, ErrInsufficientDisk) {
		t.Errorf("expected ErrInsufficientDisk, got %v", err)
	}
}

func TestCheckFreeSpaceTempDir(t *testing.T) {
	if err := CheckFreeSpace(context.Background(), t.TempDir(), 1, 0); err != nil {
		t.Errorf("temp dir should have a free byte: %v", err)
	}
}

func TestHumanBytes(t *testing.T) {
	tests := map[uint64]string{
		512:             "512 B",
		2048:            "2.0 KiB",
		5 * 1024 * 1024: "5.0 MiB",
	}
	for n, want := range tests {
		if got := HumanBytes(n); got != want {
			t.Errorf("HumanBytes(%d) = %s, want %s", n, got, want)
		}
	}
}

func TestImagePoolReturnsClearedCanvas(t *testing.T) {
	pool := NewImagePool()
	rect := image.Rect(0, 0, 4, 4)

	img := pool.Get(rect)
	img.Set(1, 1, color.RGBA{255, 0, 0, 255})
	pool.Put(img)

	again := pool.Get(rect)
	if again.Bounds() != rect {
		t.Fatalf("wrong bounds %v", again.Bounds())
	}
	for _, b := range again.Pix {
		if b != 0 {
			t.Fatal("pooled canvas was not cleared")
		}
	}
}
