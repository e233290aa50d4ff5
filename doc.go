// SPDX-License-Identifier: EPL-2.0

// Package speechrig turns recorded speech into facial rig animation.
//
// A request walks through a fixed set of stages:
//
//	decode       formats      wav, mp3, ogg vorbis or aiff into 16-bit PCM
//	normalize    audio        mono, peak limited, 16 kHz
//	extract      features     audio encoder, 512 values per 20 ms frame
//	predict      rig          mood conditioned decoder, face/blink/head tracks
//	resample     anim         50 fps model output to the requested frame rate
//	assemble     anim         GUI controls mapped to raw rig curves
//
// # Quick Start
//
// The pipeline needs both models. With ONNX Runtime installed:
//
//	rt, _ := ort.New(ort.Config{LibraryPath: "/usr/lib/libonnxruntime.so"})
//	models := inference.NewRegistry(rt)
//	models.Register(inference.ModelSpec{ID: inference.AudioEncoder, ...})
//	models.Register(inference.ModelSpec{ID: inference.AnimationDecoder, ...})
//
//	p := pipeline.New(models, pipeline.DefaultOptions())
//	asset, err := speechrig.AnimateFile(ctx, p, "hello.wav", pipeline.Request{
//		Mood:          rig.MoodHappiness,
//		MoodIntensity: 0.8,
//	})
//
// The asset holds one curve per raw rig control, keyed at the frame rate
// (30 fps unless the request or options say otherwise):
//
//	for _, c := range asset.Curves {
//		fmt.Println(c.Name, c.Evaluate(0.5))
//	}
//	asset.EncodeJSON(os.Stdout)
//
// # Concurrency
//
// A Processor runs one request at a time. A second request while one is in
// flight fails with pipeline.ErrAlreadyProcessing instead of queueing. Use
// one Processor per worker when throughput matters; the model registry can
// be shared between them.
//
// # Writing WAV Files
//
// The normalized signal can be dumped for inspection:
//
//	sig, _ := speechrig.NormalizeFile("hello.ogg", audio.NormalizeOptions{Downmix: true})
//	out, _ := os.Create("hello-16k.wav")
//	wav.WriteSignal(out, sig)
//
// See the individual subpackages for more detailed documentation.
package speechrig
