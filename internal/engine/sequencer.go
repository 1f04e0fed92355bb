package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ivlev/reel2video/internal/video"
)

// ContentTypeMP4 is the content type of every rendered artifact.
const ContentTypeMP4 = "video/mp4"

// Artifact is the final rendered video handed to the render consumer.
type Artifact struct {
	Data        []byte
	ContentType string
	Duration    float64
	FileName    string
	Stats       *Stats
}

// Save writes the artifact to path, creating parent directories.
func (a *Artifact) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, a.Data, 0644)
}

// Sequencer joins normalized clips in the order given.
type Sequencer struct {
	encoder video.VideoEncoder
}

func NewSequencer(encoder video.VideoEncoder) *Sequencer {
	return &Sequencer{encoder: encoder}
}

// Concatenate checks the shared-format precondition and splices clips with
// stream copy. A single clip is returned as a fresh copy of its bytes.
func (s *Sequencer) Concatenate(ctx context.Context, ws *Workspace, clips []string) (*Artifact, error) {
	if len(clips) == 0 {
		return nil, errors.New("no normalized clips to concatenate")
	}

	var first *video.ProbeResult
	duration := 0.0
	for i, c := range clips {
		pr, err := s.encoder.Probe(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("clip %d: %w", i+1, err)
		}
		if first == nil {
			first = pr
		} else if !first.SameFormat(pr) {
			return nil, fmt.Errorf("clip %d is %s, clip 1 is %s", i+1, pr.Format(), first.Format())
		}
		duration += pr.Duration
	}

	out := clips[0]
	if len(clips) > 1 {
		manifest, err := ws.Path(-1, "inputs", ".txt")
		if err != nil {
			return nil, err
		}
		dst, err := ws.Path(-1, "final", ".mp4")
		if err != nil {
			return nil, err
		}
		if err := s.encoder.Concatenate(ctx, clips, manifest, dst); err != nil {
			return nil, err
		}
		out = dst
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, err
	}
	return &Artifact{Data: data, ContentType: ContentTypeMP4, Duration: duration}, nil
}
