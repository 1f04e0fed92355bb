// Package engine runs the Template Render Pipeline:
//
//	Idle -> Initializing -> TransformingClips(i/n) -> Concatenating -> Complete
//
// with Failed reachable from every non-terminal state. Scenes are transformed
// one at a time in playback order; all temporary files live in a per-render
// Workspace released on every exit path.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/reel2video/internal/config"
	"github.com/ivlev/reel2video/internal/director"
	"github.com/ivlev/reel2video/internal/effects"
	"github.com/ivlev/reel2video/internal/logging"
	"github.com/ivlev/reel2video/internal/renderer"
	"github.com/ivlev/reel2video/internal/source"
	"github.com/ivlev/reel2video/internal/system"
	"github.com/ivlev/reel2video/internal/video"
)

const (
	// durationDriftWarn is how far a reported duration may be off before we log it.
	durationDriftWarn = 0.1
	// trimEpsilon tolerates container rounding at the clip's tail.
	trimEpsilon = 0.05
	// diskFactor estimates scratch space as a multiple of the source bytes.
	diskFactor = 4
)

// DiskCheck verifies free space for a render's scratch files.
type DiskCheck func(ctx context.Context, dir string, need uint64, floorMB int) error

// Pipeline renders templates. One Pipeline may serve many renders, but never
// two overlapping renders of the same template id.
type Pipeline struct {
	cfg         *config.Config
	logger      *log.Logger
	encoder     video.VideoEncoder
	transformer *Transformer
	sequencer   *Sequencer
	diskCheck   DiskCheck

	mu     sync.Mutex
	active map[string]struct{}
}

type Option func(*pipelineOptions)

type pipelineOptions struct {
	overlays  OverlayWriter
	effect    effects.Effect
	diskCheck DiskCheck
}

// WithOverlayWriter replaces the text overlay rasterizer.
func WithOverlayWriter(w OverlayWriter) Option {
	return func(o *pipelineOptions) { o.overlays = w }
}

// WithEffect replaces the framing filter builder.
func WithEffect(e effects.Effect) Option {
	return func(o *pipelineOptions) { o.effect = e }
}

// WithDiskCheck replaces the free space check.
func WithDiskCheck(c DiskCheck) Option {
	return func(o *pipelineOptions) { o.diskCheck = c }
}

// NewPipeline wires the stages around a shared encoder.
func NewPipeline(cfg *config.Config, encoder video.VideoEncoder, logger *log.Logger, opts ...Option) (*Pipeline, error) {
	if logger == nil {
		logger = log.Default()
	}
	o := pipelineOptions{
		effect:    &effects.FramingEffect{},
		diskCheck: system.CheckFreeSpace,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.overlays == nil {
		r, err := renderer.NewOverlayRenderer(cfg.OutputWidth, cfg.OutputHeight, cfg.FontPath)
		if err != nil {
			return nil, fmt.Errorf("overlay renderer: %w", err)
		}
		o.overlays = r
	}

	return &Pipeline{
		cfg:         cfg,
		logger:      logger,
		encoder:     encoder,
		transformer: NewTransformer(cfg, encoder, o.effect, o.overlays),
		sequencer:   NewSequencer(encoder),
		diskCheck:   o.diskCheck,
		active:      make(map[string]struct{}),
	}, nil
}

// renderJob is the in-flight state of one Render call.
type renderJob struct {
	id       string
	tmpl     *director.Template
	clips    source.Source
	ws       *Workspace
	progress *tracker
	logger   *log.Logger
	stats    Stats
}

// Render turns tmpl and its bound clips into one video. sink may be nil.
func (p *Pipeline) Render(ctx context.Context, tmpl *director.Template, clips source.Source, sink Sink) (*Artifact, error) {
	if tmpl == nil {
		return nil, failure(ErrValidation, StateIdle, errors.New("template is nil"))
	}
	key := tmpl.ID
	if key == "" {
		key = fmt.Sprintf("%p", tmpl)
	}
	if !p.acquire(key) {
		return nil, failure(ErrRenderInProgress, StateIdle, fmt.Errorf("template %s", key))
	}
	defer p.release(key)

	id := uuid.NewString()
	logger := logging.WithJob(p.logger, id)
	ctx = logging.WithLogger(ctx, logger)

	job := &renderJob{
		id:     id,
		tmpl:   tmpl,
		clips:  clips,
		ws:     NewWorkspace(p.cfg.TempDir, "reel2video-"+id[:8]+"-"),
		logger: logger,
		stats:  Stats{JobID: id, Template: tmpl.Name},
	}
	job.progress = &tracker{sink: sink, logger: logger}
	defer func() {
		if err := job.ws.Release(); err != nil {
			logger.Warn("workspace cleanup failed", "dir", job.ws.Dir(), "err", err)
		}
	}()

	artifact, err := p.run(ctx, job)
	if err != nil {
		job.progress.emit(StateFailed, 0, job.progress.last, err.Error())
		return nil, err
	}
	return artifact, nil
}

func (p *Pipeline) run(ctx context.Context, job *renderJob) (*Artifact, error) {
	start := time.Now()

	job.progress.emit(StateInitializing, 0, 0, "validating template")
	plan, err := p.initialize(ctx, job)
	if err != nil {
		return nil, err
	}
	job.stats.Initialize = time.Since(start)

	n := len(plan)
	job.stats.Scenes = n
	job.progress.total = n
	job.progress.emit(StateTransformingClips, 0, percentInitialized, fmt.Sprintf("transforming %d clips", n))

	transformStart := time.Now()
	outputs := make([]string, 0, n)
	for i, sj := range plan {
		if err := ctx.Err(); err != nil {
			return nil, sceneFailure(ErrCanceled, StateTransformingClips, i, sj.Key, err)
		}
		out, err := p.transformer.Transform(ctx, job.ws, sj, job.tmpl.CTALink)
		if err != nil {
			return nil, sceneFailure(classify(ctx, err), StateTransformingClips, i, sj.Key, err)
		}
		outputs = append(outputs, out)
		job.progress.emit(StateTransformingClips, i+1, transformPercent(i+1, n),
			fmt.Sprintf("scene %d/%d ready", i+1, n))
	}
	job.stats.Transform = time.Since(transformStart)

	if err := ctx.Err(); err != nil {
		return nil, failure(ErrCanceled, StateConcatenating, err)
	}
	job.progress.emit(StateConcatenating, n, percentTransformed, "concatenating clips")
	concatStart := time.Now()
	artifact, err := p.sequencer.Concatenate(ctx, job.ws, outputs)
	if err != nil {
		kind := ErrConcatenation
		if ctx.Err() != nil {
			kind = ErrCanceled
		}
		return nil, failure(kind, StateConcatenating, err)
	}
	job.stats.Concatenate = time.Since(concatStart)
	job.stats.Total = time.Since(start)
	job.stats.OutputBytes = int64(len(artifact.Data))
	job.stats.sampleMemory(ctx)

	artifact.FileName = filepath.Base(director.GenerateOutputPath("", job.tmpl.Name, ".mp4"))
	artifact.Stats = &job.stats
	p.report(&job.stats, job.logger)

	job.progress.emit(StateComplete, n, percentComplete,
		fmt.Sprintf("rendered %.1fs video", artifact.Duration))
	return artifact, nil
}

// initialize validates every scene, probes every bound clip and checks disk
// headroom. Nothing is transformed unless all of it passes.
func (p *Pipeline) initialize(ctx context.Context, job *renderJob) ([]sceneJob, error) {
	tmpl := job.tmpl
	if tmpl.Type == director.TypeCarousel {
		return nil, failure(ErrValidation, StateInitializing, errors.New("carousel templates have no media pipeline"))
	}

	placements := tmpl.Scenes()
	if len(placements) == 0 {
		return nil, failure(ErrConcatenation, StateInitializing, errors.New("template has no scenes"))
	}

	plan := make([]sceneJob, len(placements))
	for i, pl := range placements {
		if err := director.ValidateScene(pl.Scene); err != nil {
			return nil, sceneFailure(ErrValidation, StateInitializing, i, pl.Key, err)
		}
		if !pl.Scene.Filled {
			return nil, sceneFailure(ErrValidation, StateInitializing, i, pl.Key, errors.New("scene is not filled"))
		}
		clip, ok := job.clips.Clip(pl.Key)
		if !ok || clip == nil || len(clip.Data) == 0 {
			return nil, sceneFailure(ErrValidation, StateInitializing, i, pl.Key, errors.New("no clip bound to filled scene"))
		}
		plan[i] = sceneJob{Placement: pl, Clip: clip}
	}
	if err := director.ValidateTemplate(tmpl); err != nil {
		return nil, failure(ErrValidation, StateInitializing, err)
	}

	if err := p.probeAll(ctx, job, plan); err != nil {
		return nil, err
	}

	var need uint64
	for i, sj := range plan {
		if err := checkTrimBounds(sj); err != nil {
			return nil, sceneFailure(ErrValidation, StateInitializing, i, sj.Key, err)
		}
		need += uint64(sj.Clip.Size())
	}
	job.stats.SourceBytes = int64(need)

	if err := p.diskCheck(ctx, p.cfg.TempDir, need*diskFactor, p.cfg.MinFreeDiskMB); err != nil {
		return nil, failure(ErrTransform, StateInitializing, err)
	}

	job.progress.emit(StateInitializing, 0, percentInitialized, fmt.Sprintf("%d scenes validated", len(plan)))
	return plan, nil
}

// probeAll decodes every clip's real duration in parallel. When several clips
// fail, the earliest scene is reported.
func (p *Pipeline) probeAll(ctx context.Context, job *renderJob, plan []sceneJob) error {
	errs := make([]error, len(plan))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, p.cfg.ProbeWorkers))

	for i := range plan {
		i := i
		g.Go(func() error {
			pr, err := p.probeClip(gctx, job.ws, i, plan[i].Clip)
			if err != nil {
				errs[i] = err
				return err
			}
			plan[i].Probe = pr
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return failure(ErrCanceled, StateInitializing, err)
	}
	for i, err := range errs {
		if err == nil || errors.Is(err, context.Canceled) {
			continue
		}
		return sceneFailure(ErrMediaDecode, StateInitializing, i, plan[i].Key, err)
	}

	for _, sj := range plan {
		reported := sj.Clip.ReportedDuration
		if reported > 0 && math.Abs(reported-sj.Probe.Duration) > durationDriftWarn {
			job.logger.Warn("reported clip duration differs from decoded duration",
				"scene_key", sj.Key, "reported", reported, "decoded", sj.Probe.Duration)
		}
	}
	return nil
}

// probeClip probes a scratch copy of the clip and deletes it right away.
func (p *Pipeline) probeClip(ctx context.Context, ws *Workspace, index int, clip *source.Clip) (*video.ProbeResult, error) {
	path, err := ws.WriteFile(index, "probe", clipExt(clip.Name), clip.Data)
	if err != nil {
		return nil, err
	}
	defer ws.Remove(path)

	pr, err := p.encoder.Probe(ctx, path)
	if err != nil {
		return nil, err
	}
	if pr.Duration <= 0 {
		return nil, fmt.Errorf("%w: zero duration", video.ErrUndecodable)
	}
	return pr, nil
}

// checkTrimBounds checks trim data against the decoded duration, never the reported one.
func checkTrimBounds(sj sceneJob) error {
	td := sj.Scene.TrimData
	if td == nil {
		return nil
	}
	if !(td.InTime < td.OutTime) {
		return fmt.Errorf("inTime %.3f must be before outTime %.3f", td.InTime, td.OutTime)
	}
	limit := sj.Probe.Duration + trimEpsilon
	if td.InTime < 0 || td.InTime >= sj.Probe.Duration || td.OutTime > limit {
		return fmt.Errorf("trim [%.3f, %.3f) outside clip duration %.3f", td.InTime, td.OutTime, sj.Probe.Duration)
	}
	return nil
}

func classify(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil || errors.Is(err, context.Canceled):
		return ErrCanceled
	case errors.Is(err, video.ErrUndecodable):
		return ErrMediaDecode
	default:
		return ErrTransform
	}
}

func (p *Pipeline) acquire(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.active[key]; busy {
		return false
	}
	p.active[key] = struct{}{}
	return true
}

func (p *Pipeline) release(key string) {
	p.mu.Lock()
	delete(p.active, key)
	p.mu.Unlock()
}

func (p *Pipeline) report(s *Stats, logger *log.Logger) {
	if !p.cfg.ShowStats {
		return
	}
	s.Log(logger, p.cfg.BuildVersion)
	if p.cfg.StatsLog == "" {
		return
	}
	if err := s.AppendTo(p.cfg.StatsLog, p.cfg.BuildVersion); err != nil {
		logger.Warn("could not write stats log", "path", p.cfg.StatsLog, "err", err)
	}
}
