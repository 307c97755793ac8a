// Package audio decodes uploaded clips into mono float64 samples.
//
// WAV (integer PCM) and MP3 are recognised by their leading bytes. Every
// decoder mixes channels down to mono and scales samples to [-1, 1].
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrDecode            = errors.New("audio decode failed")
	ErrEmptyAudio        = errors.New("audio contains no samples")
)

// Clip is decoded mono audio.
type Clip struct {
	Samples    []float64
	SampleRate int
}

// Duration is the playing time of the clip.
func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)) / float64(c.SampleRate) * float64(time.Second))
}

// LoadOptions selects the part of a file to analyze.
type LoadOptions struct {
	OffsetSeconds   float64
	DurationSeconds float64
	// SampleRate resamples the window; 0 keeps the file's own rate.
	SampleRate int
}

// Load decodes the requested window of the file at path and resamples it.
// Audio outside the window is never decoded. It fails with ErrEmptyAudio
// when no samples remain.
func Load(ctx context.Context, path string, opts LoadOptions) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defer f.Close()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clip, err := DecodeWindow(f, opts.OffsetSeconds, opts.DurationSeconds)
	if err != nil {
		return nil, err
	}

	if opts.SampleRate > 0 && opts.SampleRate != clip.SampleRate {
		if clip, err = Resample(clip, opts.SampleRate); err != nil {
			return nil, err
		}
	}
	return clip, nil
}

// span is a window in seconds; a non-positive duration runs to the end.
type span struct {
	offset   float64
	duration float64
}

// frames converts s to a start frame and frame count at rate. A negative
// count means every frame after start.
func (s span) frames(rate int) (start, count int64) {
	start = int64(math.Round(s.offset * float64(rate)))
	if start < 0 {
		start = 0
	}
	count = -1
	if s.duration > 0 {
		count = int64(math.Round(s.duration * float64(rate)))
	}
	return start, count
}

type format int

const (
	formatUnknown format = iota
	formatWAV
	formatMP3
)

func sniff(head []byte) format {
	switch {
	case len(head) >= 12 && string(head[0:4]) == "RIFF" && string(head[8:12]) == "WAVE":
		return formatWAV
	case len(head) >= 3 && string(head[0:3]) == "ID3":
		return formatMP3
	case len(head) >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0:
		return formatMP3
	}
	return formatUnknown
}

// Decode reads a whole WAV or MP3 stream.
func Decode(r io.ReadSeeker) (*Clip, error) {
	return DecodeWindow(r, 0, 0)
}

// DecodeWindow decodes at most duration seconds starting offset seconds
// into a WAV or MP3 stream. A non-positive duration reads to the end.
func DecodeWindow(r io.ReadSeeker, offset, duration float64) (*Clip, error) {
	head := make([]byte, 12)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyAudio
		}
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	s := span{offset: offset, duration: duration}
	var clip *Clip
	switch sniff(head[:n]) {
	case formatWAV:
		clip, err = decodeWAV(r, s)
	case formatMP3:
		clip, err = decodeMP3(r, s)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	if len(clip.Samples) == 0 {
		if offset > 0 {
			return nil, fmt.Errorf("%w: nothing after %.2fs", ErrEmptyAudio, offset)
		}
		return nil, ErrEmptyAudio
	}
	return clip, nil
}

// downmix averages interleaved frames into one channel.
func downmix(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		return interleaved
	}
	frames := len(interleaved) / channels
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for ch := 0; ch < channels; ch++ {
			sum += interleaved[i*channels+ch]
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}
