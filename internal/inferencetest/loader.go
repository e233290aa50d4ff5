// SPDX-License-Identifier: EPL-2.0

package inferencetest

import (
	"context"
	"errors"
	"sync"

	"github.com/ik5/speechrig/inference"
)

// ErrNoSession is returned for models the Loader was not given.
var ErrNoSession = errors.New("inferencetest: no session for model")

// Loader hands out preset sessions and counts loads per model.
type Loader struct {
	Sessions map[inference.ModelID]inference.Session

	// Fail makes the next N loads of a model fail with Err.
	Fail map[inference.ModelID]int
	Err  error

	// Block, when non-nil, holds every Load until it is closed.
	Block chan struct{}

	mu    sync.Mutex
	loads map[inference.ModelID]int
	specs []inference.ModelSpec
}

// NewLoader serves a fresh fake encoder and decoder.
func NewLoader() *Loader {
	return &Loader{
		Sessions: map[inference.ModelID]inference.Session{
			inference.AudioEncoder:     NewEncoder(),
			inference.AnimationDecoder: NewDecoder(),
		},
	}
}

func (l *Loader) Load(ctx context.Context, spec inference.ModelSpec) (inference.Session, error) {
	if l.Block != nil {
		<-l.Block
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loads == nil {
		l.loads = make(map[inference.ModelID]int)
	}
	l.loads[spec.ID]++
	l.specs = append(l.specs, spec)

	if l.Fail[spec.ID] > 0 {
		l.Fail[spec.ID]--
		err := l.Err
		if err == nil {
			err = errors.New("scripted load failure")
		}
		return nil, err
	}

	s, ok := l.Sessions[spec.ID]
	if !ok {
		return nil, ErrNoSession
	}
	return s, nil
}

// Loads counts Load calls for id.
func (l *Loader) Loads(id inference.ModelID) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.loads[id]
}

// Specs returns every spec passed to Load.
func (l *Loader) Specs() []inference.ModelSpec {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]inference.ModelSpec(nil), l.specs...)
}

// Encoder returns the preset encoder session as a *Session.
func (l *Loader) Encoder() *Session {
	s, _ := l.Sessions[inference.AudioEncoder].(*Session)
	return s
}

// Decoder returns the preset decoder session as a *Session.
func (l *Loader) Decoder() *Session {
	s, _ := l.Sessions[inference.AnimationDecoder].(*Session)
	return s
}

// Registry builds a registry over l with default specs for both models.
func (l *Loader) Registry(opts ...inference.RegistryOption) *inference.Registry {
	reg := inference.NewRegistry(l, opts...)
	_ = reg.Register(inference.ModelSpec{
		ID:      inference.AudioEncoder,
		Path:    "encoder.onnx",
		Inputs:  []string{"audio"},
		Outputs: []string{"embeddings"},
	})
	_ = reg.Register(inference.ModelSpec{
		ID:      inference.AnimationDecoder,
		Path:    "decoder.onnx",
		Inputs:  []string{"embeddings", "mood", "mood_intensity"},
		Outputs: []string{"face", "blink", "head"},
	})
	return reg
}
