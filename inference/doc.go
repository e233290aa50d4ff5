// SPDX-License-Identifier: EPL-2.0

// Package inference is the runtime-neutral boundary between the speech
// pipeline and a neural network backend.
//
// # Architecture
//
//   - [Tensor] - a named float32 or int32 tensor with its [Shape]
//   - [Session] - a loaded model: announce input shapes, then run
//   - [Loader] - turns a [ModelSpec] into a Session
//   - [Registry] - loads each model at most once and shares it
//
// Usage flow:
//
//	reg := inference.NewRegistry(loader)
//	_ = reg.Register(inference.ModelSpec{
//		ID:      inference.AudioEncoder,
//		Path:    "encoder.onnx",
//		Inputs:  []string{"audio"},
//		Outputs: []string{"embeddings"},
//	})
//
//	s, _ := reg.Get(ctx, inference.AudioEncoder)
//	in, _ := inference.NewFloat32("audio", inference.Shape{1, 16000}, samples)
//	out := inference.EmptyFloat32("embeddings", inference.Shape{1, 50, 512})
//	err := inference.Invoke(ctx, inference.AudioEncoder, s, []*inference.Tensor{in}, []*inference.Tensor{out})
//
// # Errors
//
// Every load failure matches [ErrModelLoad] and every invocation failure
// matches [ErrModelInvocation] with errors.Is. The concrete [LoadError] and
// [InvocationError] carry the model id and the failing phase.
//
// The ONNX Runtime backend lives in the ort subpackage.
package inference
