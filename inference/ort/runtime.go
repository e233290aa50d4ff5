// SPDX-License-Identifier: EPL-2.0

// Package ort runs inference sessions on ONNX Runtime through
// github.com/yalue/onnxruntime_go. The shared library is loaded at runtime;
// set Config.LibraryPath when it is not on the default search path.
package ort

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/ik5/speechrig/inference"
)

var ErrNotInitialized = errors.New("onnx runtime not initialized")

type Config struct {
	// LibraryPath points at onnxruntime.so / .dylib / .dll.
	LibraryPath string
	// IntraOpThreads limits per-session threads; 0 keeps the runtime default.
	IntraOpThreads int
	Logger         zerolog.Logger
}

// The ONNX Runtime environment is process-wide.
var (
	envMu   sync.Mutex
	envRefs int
)

// Runtime is an inference.Loader backed by ONNX Runtime.
type Runtime struct {
	cfg Config

	mu     sync.Mutex
	closed bool
}

// New initializes the ONNX Runtime environment, sharing it with any other
// open Runtime.
func New(cfg Config) (*Runtime, error) {
	envMu.Lock()
	defer envMu.Unlock()

	if envRefs == 0 && !ort.IsInitialized() {
		if cfg.LibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.LibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initializing onnx runtime: %w", err)
		}
		cfg.Logger.Debug().Str("library", cfg.LibraryPath).Msg("onnx runtime initialized")
	}
	envRefs++

	return &Runtime{cfg: cfg}, nil
}

// Load implements inference.Loader.
func (r *Runtime) Load(ctx context.Context, spec inference.ModelSpec) (inference.Session, error) {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, ErrNotInitialized
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if spec.Path == "" {
		return nil, errors.New("model path is empty")
	}
	if len(spec.Inputs) == 0 || len(spec.Outputs) == 0 {
		return nil, fmt.Errorf("model %s declares no input or output names", spec.ID)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	defer opts.Destroy()

	if r.cfg.IntraOpThreads > 0 {
		if err := opts.SetIntraOpNumThreads(r.cfg.IntraOpThreads); err != nil {
			return nil, fmt.Errorf("session options: %w", err)
		}
	}

	s, err := ort.NewDynamicAdvancedSession(spec.Path, spec.Inputs, spec.Outputs, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", spec.Path, err)
	}

	return &session{spec: spec, s: s}, nil
}

// Close releases this Runtime's hold on the environment. The environment is
// destroyed with the last Runtime.
func (r *Runtime) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	envMu.Lock()
	defer envMu.Unlock()

	envRefs--
	if envRefs > 0 || !ort.IsInitialized() {
		return nil
	}
	if err := ort.DestroyEnvironment(); err != nil {
		return fmt.Errorf("destroying onnx runtime: %w", err)
	}
	return nil
}
