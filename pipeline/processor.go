// SPDX-License-Identifier: EPL-2.0

package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ik5/speechrig/anim"
	"github.com/ik5/speechrig/audio"
	"github.com/ik5/speechrig/features"
	"github.com/ik5/speechrig/inference"
	"github.com/ik5/speechrig/internal/metrics"
	"github.com/ik5/speechrig/rig"
)

// DefaultFrameRate is the asset frame rate when neither the request nor the
// options set one.
const DefaultFrameRate = 30

type Options struct {
	// Downmix sums multi-channel audio; otherwise Channel is used.
	Downmix bool
	Channel int
	Quality audio.Quality

	GenerateBlinks bool
	FrameRate      float64

	// Controls names the decoder output columns; nil uses rig's table.
	Controls *rig.Controls
	// Mapper converts GUI controls to raw ones; nil uses rig's table.
	Mapper rig.Mapper

	Encoder features.Options
	Decoder rig.TensorNames

	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

func DefaultOptions() Options {
	return Options{
		Downmix:        true,
		GenerateBlinks: true,
		FrameRate:      DefaultFrameRate,
		Encoder:        features.DefaultOptions(),
		Decoder:        rig.DefaultTensorNames(),
		Logger:         zerolog.Nop(),
	}
}

// Processor owns the models and runs one request at a time.
type Processor struct {
	models    *inference.Registry
	opts      Options
	assembler *anim.Assembler

	guard admission
	state atomic.Int32
}

func New(models *inference.Registry, opts Options) *Processor {
	if opts.FrameRate == 0 {
		opts.FrameRate = DefaultFrameRate
	}
	if opts.Controls == nil {
		opts.Controls = rig.DefaultControls()
	}
	if opts.Mapper == nil {
		opts.Mapper = rig.DefaultMapper()
	}
	if opts.Decoder == (rig.TensorNames{}) {
		opts.Decoder = rig.DefaultTensorNames()
	}

	return &Processor{
		models:    models,
		opts:      opts,
		assembler: anim.NewAssembler(opts.Mapper),
	}
}

// State is the stage of the current run, or the outcome of the last one.
func (p *Processor) State() State {
	return State(p.state.Load())
}

// Busy reports whether a run is in progress.
func (p *Processor) Busy() bool {
	return p.guard.held()
}

// Models exposes the registry, e.g. for health checks.
func (p *Processor) Models() *inference.Registry {
	return p.models
}

// Preload loads both models ahead of the first request.
func (p *Processor) Preload(ctx context.Context) error {
	return p.models.Preload(ctx)
}

// Run processes req on the calling goroutine.
func (p *Processor) Run(ctx context.Context, req Request) (*anim.Asset, error) {
	release, ok := p.guard.acquire()
	if !ok {
		p.opts.Metrics.Rejected()
		return nil, &StageError{Stage: Validating, Err: ErrAlreadyProcessing}
	}
	defer release()

	return p.run(ctx, req, nil)
}

// DecodeFunc produces the waveform of an upload.
type DecodeFunc func() (*audio.Waveform, error)

// RunDecoding is Run for an upload that still has to be decoded. decode is
// called in the validating stage, after admission, and replaces
// req.Waveform. A decode error fails the run with ErrNoInput.
func (p *Processor) RunDecoding(ctx context.Context, req Request, decode DecodeFunc) (*anim.Asset, error) {
	release, ok := p.guard.acquire()
	if !ok {
		p.opts.Metrics.Rejected()
		return nil, &StageError{Stage: Validating, Err: ErrAlreadyProcessing}
	}
	defer release()

	return p.run(ctx, req, decode)
}

// Submit admits req or rejects it synchronously, then runs it on its own
// goroutine. Exactly one callback fires.
func (p *Processor) Submit(ctx context.Context, req Request, cb Callbacks) {
	release, ok := p.guard.acquire()
	if !ok {
		p.opts.Metrics.Rejected()
		cb.failed(&StageError{Stage: Validating, Err: ErrAlreadyProcessing})
		return
	}

	go func() {
		// the slot is free before a callback fires, so it can submit again
		asset, err := func() (*anim.Asset, error) {
			defer release()
			return p.run(ctx, req, nil)
		}()

		if err != nil {
			cb.failed(err)
			return
		}
		cb.completed(asset)
	}()
}

// run tracks stage timing for one request.
type run struct {
	p     *Processor
	log   zerolog.Logger
	stage State
	start time.Time
}

func (r *run) enter(s State) {
	now := time.Now()
	if r.stage != Idle {
		r.p.opts.Metrics.ObserveStage(r.stage.String(), now.Sub(r.start))
	}
	r.stage, r.start = s, now
	r.p.state.Store(int32(s))
	r.log.Debug().Str("stage", s.String()).Msg("stage")
}

func (r *run) fail(err error) error {
	r.p.opts.Metrics.ObserveStage(r.stage.String(), time.Since(r.start))
	err = &StageError{Stage: r.stage, Err: err}
	r.p.state.Store(int32(Failed))
	r.log.Error().Err(err).Str("stage", r.stage.String()).Msg("request failed")
	return err
}

func (p *Processor) run(ctx context.Context, req Request, decode DecodeFunc) (*anim.Asset, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	r := &run{p: p, log: p.opts.Logger.With().Str("request_id", req.ID).Logger()}
	began := time.Now()

	p.opts.Metrics.SetInFlight(true)
	defer p.opts.Metrics.SetInFlight(false)

	asset, err := p.stages(ctx, r, &req, decode)
	if err != nil {
		p.opts.Metrics.ObserveRequest(err, 0)
		return nil, err
	}

	p.state.Store(int32(Completed))
	p.opts.Metrics.ObserveRequest(nil, req.Waveform.Duration())
	r.log.Info().
		Int("curves", len(asset.Curves)).
		Int("keys", asset.Keys()).
		Float64("duration", asset.Duration).
		Dur("took", time.Since(began)).
		Msg("Success")

	return asset, nil
}

func (p *Processor) stages(ctx context.Context, r *run, req *Request, decode DecodeFunc) (*anim.Asset, error) {
	r.enter(LoadingModels)
	enc, err := p.models.Get(ctx, inference.AudioEncoder)
	if err != nil {
		return nil, r.fail(err)
	}
	dec, err := p.models.Get(ctx, inference.AnimationDecoder)
	if err != nil {
		return nil, r.fail(err)
	}

	r.enter(Validating)
	if decode != nil {
		w, err := decode()
		if err != nil {
			return nil, r.fail(fmt.Errorf("%w: %w", ErrNoInput, err))
		}
		req.Waveform = w
	}
	if req.Waveform == nil || req.Waveform.Len() == 0 {
		return nil, r.fail(ErrNoInput)
	}
	if !req.Mood.Valid() {
		return nil, r.fail(fmt.Errorf("%w: %d", rig.ErrUnknownMood, int(req.Mood)))
	}
	fps := req.FrameRate
	if fps == 0 {
		fps = p.opts.FrameRate
	}
	if err := anim.CheckFrameRate(fps); err != nil {
		return nil, r.fail(err)
	}

	r.enter(Normalizing)
	sig, err := audio.Normalize(req.Waveform, audio.NormalizeOptions{
		Offset:  req.Offset,
		Downmix: p.opts.Downmix,
		Channel: p.opts.Channel,
		Quality: p.opts.Quality,
	})
	if err != nil {
		return nil, r.fail(err)
	}
	r.log.Debug().Int("samples", sig.Len()).Int("source_rate", req.Waveform.SampleRate()).Msg("audio normalized")

	r.enter(Extracting)
	encOpts := p.opts.Encoder
	encOpts.Logger = r.log
	seq, err := features.NewExtractor(enc, encOpts).Extract(ctx, sig)
	if err != nil {
		return nil, r.fail(err)
	}

	r.enter(Predicting)
	predictor := rig.NewPredictor(dec, p.opts.Controls, rig.PredictorOptions{Names: p.opts.Decoder, Logger: r.log})
	tracks, err := predictor.Predict(ctx, seq, rig.Condition{Mood: req.Mood, Intensity: req.MoodIntensity})
	if err != nil {
		return nil, r.fail(err)
	}
	tracks = tracks.Select(req.Controls, p.opts.GenerateBlinks)

	r.enter(Resampling)
	var perTrack [][]anim.Frame
	for _, tr := range tracks.All() {
		frames, err := anim.Resample(tr, features.FrameRate, fps)
		if err != nil {
			return nil, r.fail(err)
		}
		perTrack = append(perTrack, frames)
	}
	frames := anim.Merge(perTrack...)
	r.log.Debug().Int("native_frames", seq.Frames).Int("frames", len(frames)).Float64("fps", fps).Msg("resampled")

	r.enter(Assembling)
	duration := (req.Waveform.Duration() - req.Offset).Seconds()
	asset, err := p.assembler.Assemble(frames, fps, duration)
	if err != nil {
		return nil, r.fail(err)
	}
	p.opts.Metrics.ObserveStage(Assembling.String(), time.Since(r.start))

	return asset, nil
}
