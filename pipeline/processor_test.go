// SPDX-License-Identifier: EPL-2.0

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/speechrig/anim"
	"github.com/ik5/speechrig/audio"
	"github.com/ik5/speechrig/inference"
	"github.com/ik5/speechrig/internal/audiotest"
	"github.com/ik5/speechrig/internal/inferencetest"
	"github.com/ik5/speechrig/internal/metrics"
	"github.com/ik5/speechrig/rig"
)

func silence(t testing.TB, rate, channels int, d time.Duration) *audio.Waveform {
	t.Helper()

	frames := int(int64(rate) * int64(d) / int64(time.Second))
	w, err := audio.NewWaveform(audiotest.SilencePCM(frames, channels), rate, channels)
	require.NoError(t, err)
	return w
}

func newProcessor(loader *inferencetest.Loader, mutate ...func(*Options)) *Processor {
	opts := DefaultOptions()
	for _, m := range mutate {
		m(&opts)
	}
	return New(loader.Registry(), opts)
}

func TestRun_OneSecondOfSilence(t *testing.T) {
	t.Parallel()

	loader := inferencetest.NewLoader()
	p := newProcessor(loader)

	asset, err := p.Run(context.Background(), Request{Waveform: silence(t, 16000, 1, time.Second)})
	require.NoError(t, err)

	assert.Equal(t, 30.0, asset.FrameRate)
	assert.Equal(t, 1.0, asset.Duration)

	jaw := asset.Curve("CTRL_expressions_jawOpen")
	require.NotNil(t, jaw)
	assert.Len(t, jaw.Keys, 30)
	assert.Equal(t, 0.0, jaw.Keys[0].Time)

	// head controls pass through the mapping; HeadYaw is column 5
	yaw := asset.Curve("HeadYaw")
	require.NotNil(t, yaw)
	assert.Len(t, yaw.Keys, 30)
	assert.InDelta(t, 0.05, yaw.Keys[10].Value, 1e-6)

	assert.NotNil(t, asset.Curve("CTRL_expressions_eyeBlinkL"))

	enc := loader.Encoder().Calls()
	require.Len(t, enc, 1)
	assert.Equal(t, inference.Shape{1, 16000}, enc[0].Shapes["audio"])

	dec := loader.Decoder().Calls()
	require.Len(t, dec, 1)
	assert.Equal(t, inference.Shape{1, 50, 512}, dec[0].Shapes["embeddings"])

	assert.Equal(t, Completed, p.State())
	assert.False(t, p.Busy())
}

func TestRun_Deterministic(t *testing.T) {
	t.Parallel()

	p := newProcessor(inferencetest.NewLoader())
	w, err := audio.NewWaveform(audiotest.SinePCM(22050, 2, 33075, 220, 0.8), 22050, 2)
	require.NoError(t, err)
	req := Request{Waveform: w, Mood: rig.MoodSadness, MoodIntensity: 0.7}

	first, err := p.Run(context.Background(), req)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1.5, first.Duration)
}

func TestRun_ModelsLoadOnce(t *testing.T) {
	t.Parallel()

	loader := inferencetest.NewLoader()
	p := newProcessor(loader)
	req := Request{Waveform: silence(t, 16000, 1, 100*time.Millisecond)}

	for range 3 {
		_, err := p.Run(context.Background(), req)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, loader.Loads(inference.AudioEncoder))
	assert.Equal(t, 1, loader.Loads(inference.AnimationDecoder))
}

func TestRun_MoodEncoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mood rig.Mood
		want int32
	}{
		{rig.MoodAutoDetect, -1},
		{rig.MoodNeutral, 0},
		{rig.MoodHappiness, 1},
	}

	for _, tt := range tests {
		t.Run(tt.mood.String(), func(t *testing.T) {
			t.Parallel()

			loader := inferencetest.NewLoader()
			_, err := newProcessor(loader).Run(context.Background(),
				Request{Waveform: silence(t, 16000, 1, 100*time.Millisecond), Mood: tt.mood, MoodIntensity: 2})
			require.NoError(t, err)

			in := loader.Decoder().Calls()[0].Inputs
			assert.Equal(t, []int32{tt.want}, in[1].Int32)
			assert.Equal(t, []float32{1}, in[2].Float32, "intensity clamps to 1")
		})
	}
}

func TestRun_NaNIntensityIsZero(t *testing.T) {
	t.Parallel()

	loader := inferencetest.NewLoader()
	_, err := newProcessor(loader).Run(context.Background(), Request{
		Waveform:      silence(t, 16000, 1, 100*time.Millisecond),
		Mood:          rig.MoodHappiness,
		MoodIntensity: float32(math.NaN()),
	})
	require.NoError(t, err)

	in := loader.Decoder().Calls()[0].Inputs
	assert.Equal(t, []float32{0}, in[2].Float32)
}

func TestRun_OffsetPastEndFailsBeforeAnyModelCall(t *testing.T) {
	t.Parallel()

	loader := inferencetest.NewLoader()
	p := newProcessor(loader)

	_, err := p.Run(context.Background(), Request{
		Waveform: silence(t, 16000, 1, time.Second),
		Offset:   2 * time.Second,
	})

	require.ErrorIs(t, err, audio.ErrInsufficientAudio)
	assert.Equal(t, Normalizing, StageOf(err))
	assert.Empty(t, loader.Encoder().Calls())
	assert.Empty(t, loader.Decoder().Calls())
	assert.Equal(t, Failed, p.State())
	assert.False(t, p.Busy())
}

func TestRun_Offset(t *testing.T) {
	t.Parallel()

	asset, err := newProcessor(inferencetest.NewLoader()).Run(context.Background(), Request{
		Waveform: silence(t, 16000, 1, 2*time.Second),
		Offset:   500 * time.Millisecond,
	})
	require.NoError(t, err)

	assert.Equal(t, 1.5, asset.Duration)
	assert.Len(t, asset.Curve("HeadYaw").Keys, 45)
}

func TestRun_ValidationFailures(t *testing.T) {
	t.Parallel()

	empty, err := audio.NewWaveform(nil, 16000, 1)
	require.NoError(t, err)
	one := silence(t, 16000, 1, time.Second)

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"nil waveform", Request{}, ErrNoInput},
		{"empty waveform", Request{Waveform: empty}, ErrNoInput},
		{"bad frame rate", Request{Waveform: one, FrameRate: 0.5}, anim.ErrInvalidFrameRate},
		{"NaN frame rate", Request{Waveform: one, FrameRate: math.NaN()}, anim.ErrInvalidFrameRate},
		{"infinite frame rate", Request{Waveform: one, FrameRate: math.Inf(1)}, anim.ErrInvalidFrameRate},
		{"huge frame rate", Request{Waveform: one, FrameRate: 1e300}, anim.ErrInvalidFrameRate},
		{"bad mood", Request{Waveform: one, Mood: rig.Mood(77)}, rig.ErrUnknownMood},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			loader := inferencetest.NewLoader()
			_, err := newProcessor(loader).Run(context.Background(), tt.req)

			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, Validating, StageOf(err))
			assert.Empty(t, loader.Encoder().Calls())
		})
	}
}

func TestRun_ModelLoadFailureIsRetried(t *testing.T) {
	t.Parallel()

	loader := inferencetest.NewLoader()
	loader.Fail = map[inference.ModelID]int{inference.AnimationDecoder: 1}
	p := newProcessor(loader)
	req := Request{Waveform: silence(t, 16000, 1, 100*time.Millisecond)}

	_, err := p.Run(context.Background(), req)
	require.ErrorIs(t, err, inference.ErrModelLoad)
	assert.Equal(t, LoadingModels, StageOf(err))

	_, err = p.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, loader.Loads(inference.AnimationDecoder))
	assert.Equal(t, 1, loader.Loads(inference.AudioEncoder))
}

func TestRun_InvocationFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		model inference.ModelID
		stage State
	}{
		{"encoder", inference.AudioEncoder, Extracting},
		{"decoder", inference.AnimationDecoder, Predicting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			loader := inferencetest.NewLoader()
			loader.Sessions[tt.model] = &inferencetest.Session{RunErr: errors.New("boom")}
			p := newProcessor(loader)

			_, err := p.Run(context.Background(), Request{Waveform: silence(t, 16000, 1, time.Second)})
			require.ErrorIs(t, err, inference.ErrModelInvocation)
			assert.Equal(t, tt.stage, StageOf(err))
			assert.False(t, p.Busy(), "guard released after failure")
		})
	}
}

func TestRun_OutputSelection(t *testing.T) {
	t.Parallel()

	p := newProcessor(inferencetest.NewLoader(), func(o *Options) { o.GenerateBlinks = false })

	asset, err := p.Run(context.Background(), Request{
		Waveform: silence(t, 16000, 1, time.Second),
		Controls: rig.MouthOnly,
	})
	require.NoError(t, err)

	assert.NotNil(t, asset.Curve("CTRL_expressions_jawOpen"))
	assert.NotNil(t, asset.Curve("CTRL_expressions_mouthPressL"))
	assert.Nil(t, asset.Curve("HeadYaw"))
	assert.Nil(t, asset.Curve("CTRL_expressions_eyeBlinkL"))
	assert.Nil(t, asset.Curve("CTRL_expressions_browDownL"))
}

func TestRun_ResampledInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rate, channels int
	}{
		{44100, 2},
		{48000, 1},
		{22050, 6},
	}

	for _, tt := range tests {
		loader := inferencetest.NewLoader()
		asset, err := newProcessor(loader).Run(context.Background(),
			Request{Waveform: silence(t, tt.rate, tt.channels, time.Second), FrameRate: 60})
		require.NoError(t, err)

		assert.Equal(t, inference.Shape{1, 16000}, loader.Encoder().Calls()[0].Shapes["audio"], "%d Hz", tt.rate)
		assert.Len(t, asset.Curve("HeadYaw").Keys, 60)
		assert.Equal(t, 60.0, asset.FrameRate)
	}
}

func TestRun_RejectsWhileBusy(t *testing.T) {
	t.Parallel()

	loader := inferencetest.NewLoader()
	enc := loader.Encoder()
	enc.Started = make(chan struct{}, 1)
	enc.Block = make(chan struct{})
	p := newProcessor(loader)

	req := Request{Waveform: silence(t, 16000, 1, time.Second)}
	done := make(chan *anim.Asset, 1)
	p.Submit(context.Background(), req, Callbacks{
		OnCompleted: func(a *anim.Asset) { done <- a },
		OnFailed:    func(reason string, err error) { t.Errorf("first request failed: %s", reason) },
	})

	<-enc.Started
	assert.True(t, p.Busy())
	assert.Equal(t, Extracting, p.State())

	_, err := p.Run(context.Background(), req)
	require.ErrorIs(t, err, ErrAlreadyProcessing)
	assert.Equal(t, Validating, StageOf(err))

	var reason string
	p.Submit(context.Background(), req, Callbacks{
		OnCompleted: func(*anim.Asset) { t.Error("rejected request completed") },
		OnFailed:    func(r string, _ error) { reason = r },
	})
	assert.Equal(t, "validating: already processing another request", reason, "rejection is reported synchronously")

	close(enc.Block)
	select {
	case asset := <-done:
		assert.NotEmpty(t, asset.Curves)
	case <-time.After(5 * time.Second):
		t.Fatal("first request never completed")
	}

	_, err = p.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, enc.Calls(), 2, "rejected requests never reach the model")
}

func TestSubmit_ExactlyOneCallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		req    Request
		reason string
	}{
		{"success", Request{Waveform: silence(t, 16000, 1, 200*time.Millisecond)}, ""},
		{"failure", Request{}, "validating: no speech input"},
		{"NaN frame rate", Request{Waveform: silence(t, 16000, 1, 200*time.Millisecond), FrameRate: math.NaN()},
			"validating: invalid frame rate: NaN fps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := newProcessor(inferencetest.NewLoader())

			var completed, failed atomic.Int32
			var gotReason string
			finished := make(chan struct{}, 2)

			p.Submit(context.Background(), tt.req, Callbacks{
				OnCompleted: func(*anim.Asset) {
					completed.Add(1)
					finished <- struct{}{}
				},
				OnFailed: func(reason string, _ error) {
					gotReason = reason
					failed.Add(1)
					finished <- struct{}{}
				},
			})

			select {
			case <-finished:
			case <-time.After(5 * time.Second):
				t.Fatal("no callback")
			}
			// a second callback would arrive right behind the first
			select {
			case <-finished:
				t.Fatal("second callback")
			case <-time.After(50 * time.Millisecond):
			}

			if tt.reason != "" {
				assert.Equal(t, int32(1), failed.Load())
				assert.Equal(t, int32(0), completed.Load())
				assert.Equal(t, tt.reason, gotReason)
			} else {
				assert.Equal(t, int32(1), completed.Load())
				assert.Equal(t, int32(0), failed.Load())
			}
			assert.False(t, p.Busy())
		})
	}
}

func TestRun_LogsAndMetrics(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	m := metrics.New(prometheus.NewRegistry())
	p := newProcessor(inferencetest.NewLoader(), func(o *Options) {
		o.Logger = zerolog.New(&buf)
		o.Metrics = m
	})

	_, err := p.Run(context.Background(), Request{ID: "req-1", Waveform: silence(t, 16000, 1, time.Second)})
	require.NoError(t, err)
	_, err = p.Run(context.Background(), Request{})
	require.Error(t, err)

	assert.Contains(t, buf.String(), `"request_id":"req-1"`)
	assert.Contains(t, buf.String(), `"message":"Success"`)
	assert.Contains(t, buf.String(), `"message":"request failed"`)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("failure")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlight))
}

func TestRunDecoding(t *testing.T) {
	t.Parallel()

	loader := inferencetest.NewLoader()
	p := newProcessor(loader)

	asset, err := p.RunDecoding(context.Background(), Request{}, func() (*audio.Waveform, error) {
		return silence(t, 16000, 1, time.Second), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, asset.Duration)
	assert.Len(t, loader.Encoder().Calls(), 1)
}

func TestRunDecoding_FailureIsLoggedAndCounted(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	m := metrics.New(prometheus.NewRegistry())
	loader := inferencetest.NewLoader()
	p := newProcessor(loader, func(o *Options) {
		o.Logger = zerolog.New(&buf)
		o.Metrics = m
	})
	bad := errors.New("truncated header")

	_, err := p.RunDecoding(context.Background(), Request{ID: "upload-7"}, func() (*audio.Waveform, error) {
		return nil, bad
	})

	require.ErrorIs(t, err, ErrNoInput)
	require.ErrorIs(t, err, bad)
	assert.Equal(t, Validating, StageOf(err))
	assert.Equal(t, Failed, p.State())
	assert.False(t, p.Busy())
	assert.Empty(t, loader.Encoder().Calls())

	assert.Contains(t, buf.String(), `"request_id":"upload-7"`)
	assert.Contains(t, buf.String(), `"message":"request failed"`)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("failure")))
}

func TestRunDecoding_RejectsWhileBusy(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	loader := inferencetest.NewLoader()
	enc := loader.Encoder()
	enc.Started = make(chan struct{}, 1)
	enc.Block = make(chan struct{})
	p := newProcessor(loader, func(o *Options) { o.Metrics = m })

	done := make(chan struct{})
	p.Submit(context.Background(), Request{Waveform: silence(t, 16000, 1, time.Second)}, Callbacks{
		OnCompleted: func(*anim.Asset) { close(done) },
		OnFailed:    func(reason string, _ error) { t.Errorf("first request failed: %s", reason); close(done) },
	})
	<-enc.Started

	decoded := false
	_, err := p.RunDecoding(context.Background(), Request{}, func() (*audio.Waveform, error) {
		decoded = true
		return nil, errors.New("unreachable")
	})
	require.ErrorIs(t, err, ErrAlreadyProcessing)
	assert.Equal(t, Validating, StageOf(err))
	assert.False(t, decoded, "a busy processor never decodes")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("rejected")))

	close(enc.Block)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("first request never completed")
	}
}

func BenchmarkRun(b *testing.B) {
	p := newProcessor(inferencetest.NewLoader())
	req := Request{Waveform: silence(b, 44100, 2, 5*time.Second)}
	ctx := context.Background()

	b.ReportAllocs()
	for b.Loop() {
		if _, err := p.Run(ctx, req); err != nil {
			b.Fatal(err)
		}
	}
}
