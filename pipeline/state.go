// SPDX-License-Identifier: EPL-2.0

package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	ErrAlreadyProcessing = errors.New("already processing another request")
	ErrNoInput           = errors.New("no speech input")
)

// State is a pipeline stage.
type State int32

const (
	Idle State = iota
	LoadingModels
	Validating
	Normalizing
	Extracting
	Predicting
	Resampling
	Assembling
	Completed
	Failed
)

var stateNames = [...]string{
	Idle:          "idle",
	LoadingModels: "loading_models",
	Validating:    "validating",
	Normalizing:   "normalizing",
	Extracting:    "extracting",
	Predicting:    "predicting",
	Resampling:    "resampling",
	Assembling:    "assembling",
	Completed:     "completed",
	Failed:        "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	return s == Completed || s == Failed
}

// StageError is a failure tagged with the stage it happened in.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StageOf returns the stage err failed in, or Failed when it carries none.
func StageOf(err error) State {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return Failed
}

// admission lets one run in at a time.
type admission struct {
	busy atomic.Bool
}

// acquire returns a release func that is safe to call more than once.
func (a *admission) acquire() (func(), bool) {
	if !a.busy.CompareAndSwap(false, true) {
		return nil, false
	}

	var once sync.Once
	return func() {
		once.Do(func() { a.busy.Store(false) })
	}, true
}

func (a *admission) held() bool {
	return a.busy.Load()
}
