// Package audiotest writes synthetic WAV fixtures for tests.
package audiotest

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Tone returns seconds of a sine at freq Hz, amplitude 0.5, 16-bit scaled.
func Tone(freq, seconds float64, rate int) []float64 {
	n := int(seconds * float64(rate))
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return out
}

// EncodeWAV returns a 16-bit PCM WAV of samples (interleaved when channels > 1).
func EncodeWAV(t testing.TB, samples []float64, rate, channels int) []byte {
	t.Helper()
	path := WriteWAV(t, t.TempDir(), "fixture.wav", samples, rate, channels)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

// WriteWAV writes a 16-bit PCM WAV file named name into dir and returns its path.
func WriteWAV(t testing.TB, dir, name string, samples []float64, rate, channels int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	defer f.Close()

	ints := make([]int, len(samples))
	for i, s := range samples {
		ints[i] = int(math.Max(-1, math.Min(1, s)) * 32767)
	}

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:           ints,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	return path
}
