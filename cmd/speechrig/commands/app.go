// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/ik5/speechrig/audio"
	"github.com/ik5/speechrig/inference"
	"github.com/ik5/speechrig/inference/ort"
	"github.com/ik5/speechrig/internal/config"
	"github.com/ik5/speechrig/internal/metrics"
	"github.com/ik5/speechrig/pipeline"
	"github.com/ik5/speechrig/rig"
)

// openLoader starts the inference backend. Tests replace it.
var openLoader = func(cfg *config.Config, log zerolog.Logger) (inference.Loader, io.Closer, error) {
	rt, err := ort.New(ort.Config{
		LibraryPath:    cfg.Runtime.LibraryPath,
		IntraOpThreads: cfg.Runtime.IntraOpThreads,
		Logger:         log,
	})
	if err != nil {
		return nil, nil, err
	}
	return rt, rt, nil
}

// app is a processor wired from config.
type app struct {
	processor *pipeline.Processor
	models    *inference.Registry
	backend   io.Closer
}

func newApp(cfg *config.Config, log zerolog.Logger, m *metrics.Metrics) (*app, error) {
	opts, err := processorOptions(cfg, log, m)
	if err != nil {
		return nil, err
	}

	loader, backend, err := openLoader(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("starting inference runtime: %w", err)
	}

	models := inference.NewRegistry(loader,
		inference.WithLogger(log),
		inference.WithLoadObserver(func(id inference.ModelID, took time.Duration, err error) {
			m.ObserveModelLoad(string(id), took, err)
		}),
	)
	for _, spec := range cfg.ModelSpecs() {
		if err := models.Register(spec); err != nil {
			_ = backend.Close()
			return nil, err
		}
	}

	return &app{
		processor: pipeline.New(models, opts),
		models:    models,
		backend:   backend,
	}, nil
}

func (a *app) Close() error {
	return errors.Join(a.models.Close(), a.backend.Close())
}

func processorOptions(cfg *config.Config, log zerolog.Logger, m *metrics.Metrics) (pipeline.Options, error) {
	opts := pipeline.DefaultOptions()
	opts.Logger = log
	opts.Metrics = m

	opts.Downmix = cfg.Audio.Downmix
	opts.Channel = cfg.Audio.Channel
	q, err := audio.ParseQuality(cfg.Audio.Quality)
	if err != nil {
		return opts, err
	}
	opts.Quality = q

	opts.FrameRate = cfg.Animation.FPS
	opts.GenerateBlinks = cfg.Animation.GenerateBlinks

	opts.Encoder.Input = cfg.Models.AudioEncoder.Inputs[0]
	opts.Encoder.Output = cfg.Models.AudioEncoder.Outputs[0]
	opts.Decoder = cfg.TensorNames()

	if opts.Controls, err = controlsFrom(cfg); err != nil {
		return opts, err
	}
	if opts.Mapper, err = mapperFrom(cfg); err != nil {
		return opts, err
	}
	return opts, nil
}

func controlsFrom(cfg *config.Config) (*rig.Controls, error) {
	if cfg.Rig.ControlsPath == "" {
		return rig.DefaultControls(), nil
	}
	return rig.LoadControls(cfg.Rig.ControlsPath)
}

func mapperFrom(cfg *config.Config) (*rig.TableMapper, error) {
	if cfg.Rig.MappingPath == "" {
		return rig.DefaultMapper(), nil
	}
	return rig.LoadMapping(cfg.Rig.MappingPath)
}

// baseRequest holds the configured per-request defaults.
func baseRequest(cfg *config.Config) (pipeline.Request, error) {
	mood, err := rig.ParseMood(cfg.Animation.Mood)
	if err != nil {
		return pipeline.Request{}, err
	}
	controls, err := rig.ParseOutputControls(cfg.Animation.OutputControls)
	if err != nil {
		return pipeline.Request{}, err
	}

	return pipeline.Request{
		Mood:          mood,
		MoodIntensity: float32(cfg.Animation.MoodIntensity),
		FrameRate:     cfg.Animation.FPS,
		Offset:        cfg.Audio.Offset,
		Controls:      controls,
	}, nil
}
