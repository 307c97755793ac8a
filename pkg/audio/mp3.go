package audio

import (
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always yields 16-bit little-endian stereo frames.
const mp3FrameBytes = 4

// decodeMP3 seeks to the start of s and decodes no further than its end.
func decodeMP3(r io.ReadSeeker, s span) (*Clip, error) {
	d, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: mp3: %w", ErrDecode, err)
	}
	rate := d.SampleRate()
	if rate <= 0 {
		return nil, fmt.Errorf("%w: mp3 without sample rate", ErrDecode)
	}

	start, count := s.frames(rate)
	offset := start * mp3FrameBytes
	if offset >= d.Length() {
		return &Clip{SampleRate: rate}, nil
	}
	if _, err := d.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: mp3 seek: %w", ErrDecode, err)
	}

	var src io.Reader = d
	if count >= 0 {
		src = io.LimitReader(d, count*mp3FrameBytes)
	}
	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("%w: mp3: %w", ErrDecode, err)
	}

	frames := len(raw) / mp3FrameBytes
	interleaved := make([]float64, frames*2)
	for i := range interleaved {
		v := int16(uint16(raw[i*2]) | uint16(raw[i*2+1])<<8)
		interleaved[i] = float64(v) / 32768.0
	}

	return &Clip{
		Samples:    downmix(interleaved, 2),
		SampleRate: rate,
	}, nil
}
