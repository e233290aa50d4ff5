// SPDX-License-Identifier: EPL-2.0

package inference

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ModelState tracks a registered model's lifecycle.
type ModelState int

const (
	Unloaded ModelState = iota
	Loading
	Ready
	Failed
)

func (s ModelState) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("ModelState(%d)", int(s))
}

// LoadObserver is told about every completed load attempt.
type LoadObserver func(id ModelID, took time.Duration, err error)

type RegistryOption func(*Registry)

func WithLogger(l zerolog.Logger) RegistryOption {
	return func(r *Registry) { r.log = l }
}

func WithLoadObserver(o LoadObserver) RegistryOption {
	return func(r *Registry) { r.observe = o }
}

type entry struct {
	spec    ModelSpec
	state   ModelState
	session Session
	err     error
}

// Registry loads each registered model at most once and hands the same
// Session to every caller afterwards. Concurrent first calls share a single
// load. A failed load is remembered as Failed but not cached: the next Get
// tries again.
type Registry struct {
	loader  Loader
	log     zerolog.Logger
	observe LoadObserver

	mu     sync.RWMutex
	models map[ModelID]*entry
	closed bool

	group singleflight.Group
}

func NewRegistry(loader Loader, opts ...RegistryOption) *Registry {
	r := &Registry{
		loader: loader,
		log:    zerolog.Nop(),
		models: make(map[ModelID]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds or replaces a model spec. Replacing a loaded model closes
// its session.
func (r *Registry) Register(spec ModelSpec) error {
	if spec.ID == "" {
		return fmt.Errorf("%w: empty model id", ErrModelNotRegistered)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRegistryClosed
	}

	if old, ok := r.models[spec.ID]; ok && old.session != nil {
		if err := old.session.Close(); err != nil {
			r.log.Warn().Err(err).Str("model", string(spec.ID)).Msg("closing replaced model")
		}
	}

	r.models[spec.ID] = &entry{spec: spec}
	return nil
}

// Spec returns the registered spec for id.
func (r *Registry) Spec(id ModelID) (ModelSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.models[id]
	if !ok {
		return ModelSpec{}, false
	}
	return e.spec, true
}

// State reports the model's lifecycle state and, when Failed, the last
// load error.
func (r *Registry) State(id ModelID) (ModelState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.models[id]
	if !ok {
		return Unloaded, fmt.Errorf("%w: %s", ErrModelNotRegistered, id)
	}
	return e.state, e.err
}

// Models lists registered ids in sorted order.
func (r *Registry) Models() []ModelID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]ModelID, 0, len(r.models))
	for id := range r.models {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Get returns the model's session, loading it first if needed.
func (r *Registry) Get(ctx context.Context, id ModelID) (Session, error) {
	if s, done, err := r.ready(id); done {
		return s, err
	}

	v, err, _ := r.group.Do(string(id), func() (any, error) {
		return r.load(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(Session), nil
}

// ready answers Get without loading when it can.
func (r *Registry) ready(id ModelID) (Session, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, true, ErrRegistryClosed
	}

	e, ok := r.models[id]
	if !ok {
		return nil, true, fmt.Errorf("%w: %s", ErrModelNotRegistered, id)
	}
	if e.state == Ready {
		return e.session, true, nil
	}
	return nil, false, nil
}

func (r *Registry) load(ctx context.Context, id ModelID) (Session, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRegistryClosed
	}
	e, ok := r.models[id]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrModelNotRegistered, id)
	}
	// an earlier flight may have finished between ready and Do
	if e.state == Ready {
		r.mu.Unlock()
		return e.session, nil
	}
	e.state = Loading
	spec := e.spec
	r.mu.Unlock()

	log := r.log.With().Str("model", string(id)).Str("path", spec.Path).Logger()
	log.Debug().Msg("loading model")

	start := time.Now()
	s, err := r.loader.Load(ctx, spec)
	took := time.Since(start)

	if err == nil && s == nil {
		err = errors.New("loader returned no session")
	}
	if err != nil {
		err = &LoadError{Model: id, Err: err}
	}

	if r.observe != nil {
		r.observe(id, took, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		if s != nil {
			_ = s.Close()
		}
		return nil, ErrRegistryClosed
	}

	// Register may have swapped the entry while we were loading
	if cur := r.models[id]; cur != e {
		if s != nil {
			_ = s.Close()
		}
		return nil, fmt.Errorf("%w: %s was re-registered during load", ErrModelLoad, id)
	}

	if err != nil {
		e.state = Failed
		e.err = err
		log.Error().Err(err).Dur("took", took).Msg("model load failed")
		return nil, err
	}

	e.state = Ready
	e.session = s
	e.err = nil
	log.Info().Dur("took", took).Msg("model loaded")
	return s, nil
}

// Preload loads every registered model, stopping at the first failure.
func (r *Registry) Preload(ctx context.Context) error {
	for _, id := range r.Models() {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Close releases all loaded sessions. Further Gets fail with
// ErrRegistryClosed.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	for _, id := range slices.Sorted(maps.Keys(r.models)) {
		e := r.models[id]
		if e.session == nil {
			continue
		}
		if err := e.session.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", id, err))
		}
		e.session = nil
		e.state = Unloaded
	}
	return errors.Join(errs...)
}
