package audio

import (
	"fmt"
	"math"
	"sync"

	resampling "github.com/tphakala/go-audio-resampling"
)

// shifts caches the measured output misalignment per rate pair.
var shifts sync.Map

type ratePair struct{ in, out int }

// Resample converts c to rate. The output is aligned so that input sample
// i lands on output sample round(i*rate/c.SampleRate), and it is trimmed to
// the exact converted length.
func Resample(c *Clip, rate int) (*Clip, error) {
	if rate <= 0 || rate == c.SampleRate {
		return c, nil
	}
	pair := ratePair{in: c.SampleRate, out: rate}

	shift, err := alignment(pair)
	if err != nil {
		return nil, err
	}
	out, err := convert(pair, c.Samples)
	if err != nil {
		return nil, err
	}

	switch {
	case shift > 0:
		out = out[min(shift, len(out)):]
	case shift < 0:
		out = append(make([]float64, -shift), out...)
	}

	want := int(math.Round(float64(len(c.Samples)) * float64(rate) / float64(c.SampleRate)))
	if len(out) > want {
		out = out[:want]
	}
	return &Clip{Samples: out, SampleRate: rate}, nil
}

// convert runs samples through a fresh resampler, padded with silence and
// flushed so the filter tail is not lost.
func convert(pair ratePair, samples []float64) ([]float64, error) {
	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(pair.in),
		OutputRate: float64(pair.out),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("create resampler: %w", err)
	}

	input := make([]float64, len(samples)+pair.in/10)
	copy(input, samples)

	out, err := rs.Process(input)
	if err != nil {
		return nil, fmt.Errorf("resample %d->%d: %w", pair.in, pair.out, err)
	}
	tail, err := rs.Flush()
	if err != nil {
		return nil, fmt.Errorf("resample %d->%d: %w", pair.in, pair.out, err)
	}
	return append(out, tail...), nil
}

// alignment measures how many output samples late (positive) or early
// (negative) the resampler places an impulse.
func alignment(pair ratePair) (int, error) {
	if v, ok := shifts.Load(pair); ok {
		return v.(int), nil
	}

	impulse := make([]float64, pair.in)
	at := pair.in / 2
	impulse[at] = 1

	out, err := convert(pair, impulse)
	if err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("resample %d->%d: no output", pair.in, pair.out)
	}
	peak := 0
	for i, v := range out {
		if math.Abs(v) > math.Abs(out[peak]) {
			peak = i
		}
	}
	expected := int(math.Round(float64(at) * float64(pair.out) / float64(pair.in)))

	shift := peak - expected
	shifts.Store(pair, shift)
	return shift, nil
}
