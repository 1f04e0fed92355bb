package engine

import (
	"math"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// State is a Render Pipeline state; it doubles as the progress stage name.
type State string

const (
	StateIdle              State = "idle"
	StateInitializing      State = "initializing"
	StateTransformingClips State = "transforming_clips"
	StateConcatenating     State = "concatenating"
	StateComplete          State = "complete"
	StateFailed            State = "failed"
)

// Percent checkpoints of a render.
const (
	percentInitialized = 5.0
	percentTransformed = 90.0
	percentComplete    = 100.0
)

// ProgressEvent is one push notification to the render consumer.
type ProgressEvent struct {
	Stage       State
	CurrentClip int
	TotalClips  int
	Percent     float64
	Message     string
}

// Sink receives progress events. Emit is called on the render goroutine and
// must return promptly.
type Sink interface {
	Emit(ProgressEvent)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ProgressEvent)

func (f SinkFunc) Emit(ev ProgressEvent) { f(ev) }

// ChannelSink forwards events to a buffered channel and drops them when the
// reader falls behind.
type ChannelSink struct {
	C       chan ProgressEvent
	dropped atomic.Int64
}

func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{C: make(chan ProgressEvent, buffer)}
}

func (s *ChannelSink) Emit(ev ProgressEvent) {
	select {
	case s.C <- ev:
	default:
		s.dropped.Add(1)
	}
}

// Dropped counts events discarded because the channel was full.
func (s *ChannelSink) Dropped() int64 { return s.dropped.Load() }

// Close closes C. Call it only after Render returns.
func (s *ChannelSink) Close() { close(s.C) }

// tracker keeps percent monotonic and logs each event.
type tracker struct {
	sink   Sink
	logger *log.Logger
	total  int
	last   float64
}

func (t *tracker) emit(stage State, current int, percent float64, msg string) {
	percent = math.Min(percentComplete, math.Max(t.last, percent))
	t.last = percent

	t.logger.Info(msg, "stage", stage, "percent", math.Round(percent))
	if t.sink == nil {
		return
	}
	t.sink.Emit(ProgressEvent{
		Stage:       stage,
		CurrentClip: current,
		TotalClips:  t.total,
		Percent:     percent,
		Message:     msg,
	})
}

// transformPercent is the checkpoint after done of total scenes.
func transformPercent(done, total int) float64 {
	if total == 0 {
		return percentTransformed
	}
	return percentInitialized + (percentTransformed-percentInitialized)*float64(done)/float64(total)
}
