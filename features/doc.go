// SPDX-License-Identifier: EPL-2.0

// Package features turns a normalized 16 kHz speech signal into a sequence
// of 512-wide audio embeddings, one per 20 ms of audio.
//
// The encoder model accepts at most 30 seconds per call, so the signal is
// split into windows of up to [MaxWindowSamples] samples and each window is
// encoded separately. Every window contributes floor(len/320) frames; the
// trailing partial frame of each window is dropped. A window too short for
// even one frame is skipped without calling the model.
package features
