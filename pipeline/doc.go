// SPDX-License-Identifier: EPL-2.0

// Package pipeline turns a speech waveform into an animation asset.
//
// A [Processor] runs the stages in order:
//
//	loading_models -> validating -> normalizing -> extracting ->
//	predicting -> resampling -> assembling -> completed
//
// Any stage may end the run in failed. Errors come back as a [StageError]
// naming the stage, and still match the underlying sentinel with errors.Is:
// [ErrNoInput], audio.ErrInsufficientAudio, inference.ErrModelLoad,
// inference.ErrModelInvocation and so on.
//
// A Processor runs one request at a time. A request arriving while another
// is in progress is rejected with [ErrAlreadyProcessing]; it is not queued.
// [Processor.Run] works on the calling goroutine, [Processor.Submit] runs
// in the background and reports through exactly one callback.
package pipeline
