package engine

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ivlev/reel2video/internal/system"
)

// Stats is the per-render performance report.
type Stats struct {
	JobID       string
	Template    string
	Scenes      int
	Initialize  time.Duration
	Transform   time.Duration
	Concatenate time.Duration
	Total       time.Duration
	SourceBytes int64
	OutputBytes int64
	Memory      system.MemoryStats
}

// ScenesPerSecond is transform throughput over the whole render.
func (s *Stats) ScenesPerSecond() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Scenes) / s.Total.Seconds()
}

func (s *Stats) sampleMemory(ctx context.Context) {
	if m, err := system.MemoryReport(ctx); err == nil {
		s.Memory = m
	}
}

// Log writes the report as one structured record.
func (s *Stats) Log(l *log.Logger, build string) {
	l.Info("performance report",
		"build", build,
		"scenes", s.Scenes,
		"total", s.Total.Round(time.Millisecond),
		"initialize", s.Initialize.Round(time.Millisecond),
		"transform", s.Transform.Round(time.Millisecond),
		"concatenate", s.Concatenate.Round(time.Millisecond),
		"scenes_per_sec", fmt.Sprintf("%.2f", s.ScenesPerSecond()),
		"output", system.HumanBytes(uint64(s.OutputBytes)),
		"mem_used", fmt.Sprintf("%.1f%%", s.Memory.UsedPercent),
	)
}

// Line formats the report for the stats log file.
func (s *Stats) Line(now time.Time, build string) string {
	return fmt.Sprintf("[%s] Build: %s | Job: %s | Template: %s | Scenes: %d | Total: %.2fs | Init: %.2fs | Transform: %.2fs | Concat: %.2fs | Mem: %.1f%%\n",
		now.Format("2006-01-02 15:04:05"),
		build,
		s.JobID,
		s.Template,
		s.Scenes,
		s.Total.Seconds(),
		s.Initialize.Seconds(),
		s.Transform.Seconds(),
		s.Concatenate.Seconds(),
		s.Memory.UsedPercent,
	)
}

// AppendTo appends Line to the file at path.
func (s *Stats) AppendTo(path, build string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(s.Line(time.Now(), build)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
