package audio

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE

	// wavBlockFrames is how many frames are decoded per read.
	wavBlockFrames = 4096
)

// decodeWAV reads only the frames covered by s. Frames before the span are
// skipped with a seek.
func decodeWAV(r io.ReadSeeker, s span) (*Clip, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid wav header", ErrDecode)
	}
	if d.WavAudioFormat != wavFormatPCM && d.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("%w: wav encoding %d", ErrUnsupportedFormat, d.WavAudioFormat)
	}
	if err := d.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: wav: %w", ErrDecode, err)
	}

	channels := int(d.NumChans)
	rate := int(d.SampleRate)
	depth := int(d.BitDepth)
	if channels <= 0 || rate <= 0 {
		return nil, fmt.Errorf("%w: wav without format", ErrDecode)
	}
	if depth <= 0 || depth > 32 || depth%8 != 0 {
		return nil, fmt.Errorf("%w: wav bit depth %d", ErrUnsupportedFormat, depth)
	}

	frameBytes := int64(channels * depth / 8)
	total := d.PCMLen() / frameBytes
	start, count := s.frames(rate)
	if start >= total {
		return &Clip{SampleRate: rate}, nil
	}
	if count < 0 || start+count > total {
		count = total - start
	}
	if start > 0 {
		if _, err := d.Seek(start*frameBytes, io.SeekCurrent); err != nil {
			return nil, fmt.Errorf("%w: wav seek: %w", ErrDecode, err)
		}
	}

	// 8-bit PCM is unsigned; wider depths are signed.
	scale := float64(int64(1) << (depth - 1))
	bias := 0.0
	if depth == 8 {
		bias = 128
	}

	want := count * int64(channels)
	block := &goaudio.IntBuffer{Data: make([]int, min(want, int64(wavBlockFrames*channels)))}
	samples := make([]float64, 0, len(block.Data))
	for remaining := want; remaining > 0; {
		block.Data = block.Data[:min(remaining, int64(cap(block.Data)))]
		n, err := d.PCMBuffer(block)
		if err != nil {
			return nil, fmt.Errorf("%w: wav: %w", ErrDecode, err)
		}
		if n == 0 {
			break
		}
		for _, v := range block.Data[:n] {
			samples = append(samples, (float64(v)-bias)/scale)
		}
		remaining -= int64(n)
	}
	// Drop a trailing partial frame.
	samples = samples[:len(samples)/channels*channels]

	return &Clip{
		Samples:    downmix(samples, channels),
		SampleRate: rate,
	}, nil
}
