// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"slices"
	"sync"
	"testing"

	"github.com/ik5/speechrig/internal/audiotest"
)

type stubDecoder struct {
	rate int
}

func (d *stubDecoder) Decode(r io.Reader) (Source, error) {
	return audiotest.NewSilentSource(d.rate, 1, 100), nil
}

func TestRegistry_Get(t *testing.T) {
	t.Parallel()

	wav := &stubDecoder{rate: 44100}
	ogg := &stubDecoder{rate: 48000}

	registry := NewRegistry()
	registry.Register("wav", wav)
	registry.Register("ogg", ogg)

	tests := []struct {
		key    string
		want   Decoder
		wantOK bool
	}{
		{"wav", wav, true},
		{".wav", wav, true},
		{".WaV", wav, true},
		{"OGG", ogg, true},
		{"flac", nil, false},
		{"", nil, false},
	}

	for _, tt := range tests {
		got, ok := registry.Get(tt.key)
		if ok != tt.wantOK {
			t.Errorf("Get(%q) ok = %v, want %v", tt.key, ok, tt.wantOK)
		}
		if tt.wantOK && got != tt.want {
			t.Errorf("Get(%q) returned the wrong decoder", tt.key)
		}
	}
}

func TestRegistry_Overwrite(t *testing.T) {
	t.Parallel()

	first, second := &stubDecoder{}, &stubDecoder{}

	registry := NewRegistry()
	registry.Register("wav", first)
	registry.Register(".WAV", second)

	if got, _ := registry.Get("wav"); got != second {
		t.Error("later registration did not replace the earlier one")
	}
	if n := len(registry.Formats()); n != 1 {
		t.Errorf("Formats() has %d entries, want 1", n)
	}
}

func TestRegistry_Formats(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register("wav", &stubDecoder{})
	registry.Register(".OGG", &stubDecoder{})

	got := registry.Formats()
	slices.Sort(got)

	if !slices.Equal(got, []string{"ogg", "wav"}) {
		t.Errorf("Formats() = %v, want [ogg wav]", got)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	decoder := &stubDecoder{}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			registry.Register("mp3", decoder)
		}()
		go func() {
			defer wg.Done()
			_, _ = registry.Get("mp3")
		}()
	}
	wg.Wait()

	if got, ok := registry.Get("mp3"); !ok || got != decoder {
		t.Error("decoder missing after concurrent registration")
	}
}

func BenchmarkRegistry_Get(b *testing.B) {
	registry := NewRegistry()
	registry.Register("wav", &stubDecoder{})

	b.ReportAllocs()
	b.ResetTimer()

	for b.Loop() {
		_, _ = registry.Get(".wav")
	}
}
