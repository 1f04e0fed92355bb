// Package system holds host-level helpers: file descriptor limits, hardware
// encoder detection, disk headroom and memory reporting.
package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// ErrInsufficientDisk is returned when the scratch volume cannot hold a render.
var ErrInsufficientDisk = errors.New("insufficient disk space")

// InitResourceLimits raises the open file limit; ffmpeg children plus scratch
// files for long templates can exceed the common 256 default.
func InitResourceLimits(logger *log.Logger) {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn("could not read open file limit", "err", err)
		return
	}

	if rLimit.Cur >= 2048 {
		return
	}
	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn("could not raise open file limit", "err", err)
		return
	}
	logger.Debug("open file limit raised", "limit", rLimit.Cur)
}

// encoderPriority lists hardware H.264 encoders, best first. libx264 is the fallback.
var encoderPriority = []string{"h264_videotoolbox", "h264_nvenc"}

// GetBestH264Encoder asks ffmpeg for its encoder list once and picks the best
// available H.264 encoder.
func GetBestH264Encoder(ctx context.Context, ffmpegPath string) string {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	out, err := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	return PickEncoder(string(out))
}

// PickEncoder selects from an `ffmpeg -encoders` listing.
func PickEncoder(listing string) string {
	available := make(map[string]bool)
	for _, line := range strings.Split(listing, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			available[fields[1]] = true
		}
	}
	for _, name := range encoderPriority {
		if available[name] {
			return name
		}
	}
	return "libx264"
}

// FreeBytes reports the free space of the volume holding dir.
func FreeBytes(ctx context.Context, dir string) (uint64, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	usage, err := disk.UsageWithContext(ctx, dir)
	if err != nil {
		return 0, fmt.Errorf("disk usage %s: %w", dir, err)
	}
	return usage.Free, nil
}

// CheckFreeSpace fails with ErrInsufficientDisk unless dir's volume has at
// least need bytes plus the configured floor available.
func CheckFreeSpace(ctx context.Context, dir string, need uint64, floorMB int) error {
	free, err := FreeBytes(ctx, dir)
	if err != nil {
		return err
	}
	return checkHeadroom(free, need, floorMB)
}

func checkHeadroom(free, need uint64, floorMB int) error {
	if floorMB < 0 {
		floorMB = 0
	}
	want := need + uint64(floorMB)*1024*1024
	if free < want {
		return fmt.Errorf("%w: need %s, have %s", ErrInsufficientDisk, HumanBytes(want), HumanBytes(free))
	}
	return nil
}

// MemoryStats is a point-in-time snapshot of host memory.
type MemoryStats struct {
	Total       uint64
	Available   uint64
	UsedPercent float64
}

// MemoryReport samples host memory for the performance report.
func MemoryReport(ctx context.Context) (MemoryStats, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryStats{}, err
	}
	return MemoryStats{Total: vm.Total, Available: vm.Available, UsedPercent: vm.UsedPercent}, nil
}

// HumanBytes formats a byte count with a binary unit.
func HumanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
