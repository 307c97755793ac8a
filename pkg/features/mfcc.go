// Package features computes time-averaged mel-frequency cepstral
// coefficients from mono PCM audio.
//
// Parameters follow the common speech-analysis defaults:
//
//	FFTSize:         2048 (Hann window, centred frames, zero padded)
//	HopSize:         512
//	NumMels:         128 (Slaney scale and area normalization, 0 Hz to Nyquist)
//	TopDB:           80
//	NumCoefficients: 40 (orthonormal DCT-II of the log-power mel spectrum)
package features

import (
	"fmt"
	"math"
	"sync"

	"voice-insight/pkg/audio"
	"voice-insight/pkg/models"

	"github.com/mjibson/go-dsp/fft"
)

var ErrNoSamples = fmt.Errorf("no samples to analyze: %w", audio.ErrEmptyAudio)

// Config controls cepstral extraction.
type Config struct {
	NumCoefficients int
	FFTSize         int
	HopSize         int
	NumMels         int
	TopDB           float64
}

// DefaultConfig returns the configuration producing models.FeatureSize coefficients.
func DefaultConfig() Config {
	return Config{
		NumCoefficients: models.FeatureSize,
		FFTSize:         2048,
		HopSize:         512,
		NumMels:         128,
		TopDB:           80,
	}
}

const amin = 1e-10

// Extractor computes cepstral feature vectors. It is safe for concurrent use.
type Extractor struct {
	cfg    Config
	window []float64
	dct    [][]float64

	mu    sync.Mutex
	banks map[int][][]float64 // mel filterbank per sample rate
}

// New creates an Extractor for cfg.
func New(cfg Config) *Extractor {
	return &Extractor{
		cfg:    cfg,
		window: hannWindow(cfg.FFTSize),
		dct:    dctMatrix(cfg.NumCoefficients, cfg.NumMels),
		banks:  make(map[int][][]float64),
	}
}

func (e *Extractor) melBank(sampleRate int) [][]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	bank, ok := e.banks[sampleRate]
	if !ok {
		bank = melFilterBank(e.cfg.NumMels, e.cfg.FFTSize, sampleRate, 0, float64(sampleRate)/2)
		e.banks[sampleRate] = bank
	}
	return bank
}

// MFCC returns the [frames][NumCoefficients] cepstral matrix of samples.
func (e *Extractor) MFCC(samples []float64, sampleRate int) ([][]float64, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	logMel := e.logMelSpectrogram(samples, sampleRate)

	out := make([][]float64, len(logMel))
	for t, frame := range logMel {
		coeffs := make([]float64, e.cfg.NumCoefficients)
		for k, basis := range e.dct {
			sum := 0.0
			for m, w := range basis {
				sum += w * frame[m]
			}
			coeffs[k] = sum
		}
		out[t] = coeffs
	}
	return out, nil
}

// Extract returns the per-coefficient mean of MFCC over all frames.
func (e *Extractor) Extract(samples []float64, sampleRate int) (models.FeatureVector, error) {
	frames, err := e.MFCC(samples, sampleRate)
	if err != nil {
		return nil, err
	}
	vec := make(models.FeatureVector, e.cfg.NumCoefficients)
	for _, f := range frames {
		for k, v := range f {
			vec[k] += v
		}
	}
	for k := range vec {
		vec[k] /= float64(len(frames))
	}
	return vec, nil
}

// logMelSpectrogram frames the zero-padded signal, takes the power spectrum
// of each Hann-windowed frame, applies the mel bank and converts to dB
// clipped at TopDB below the peak.
func (e *Extractor) logMelSpectrogram(samples []float64, sampleRate int) [][]float64 {
	cfg := e.cfg
	nfft := cfg.FFTSize
	half := nfft/2 + 1
	bank := e.melBank(sampleRate)

	padded := make([]float64, len(samples)+nfft)
	copy(padded[nfft/2:], samples)
	numFrames := 1 + len(samples)/cfg.HopSize

	frame := make([]float64, nfft)
	power := make([]float64, half)
	out := make([][]float64, numFrames)
	peak := math.Inf(-1)

	for t := 0; t < numFrames; t++ {
		start := t * cfg.HopSize
		for i := 0; i < nfft; i++ {
			frame[i] = padded[start+i] * e.window[i]
		}
		spec := fft.FFTReal(frame)
		for k := 0; k < half; k++ {
			re, im := real(spec[k]), imag(spec[k])
			power[k] = re*re + im*im
		}

		mel := make([]float64, cfg.NumMels)
		for m, filter := range bank {
			sum := 0.0
			for k, w := range filter {
				if w != 0 {
					sum += w * power[k]
				}
			}
			db := 10 * math.Log10(math.Max(amin, sum))
			mel[m] = db
			if db > peak {
				peak = db
			}
		}
		out[t] = mel
	}

	if cfg.TopDB > 0 {
		floor := peak - cfg.TopDB
		for _, mel := range out {
			for m, v := range mel {
				if v < floor {
					mel[m] = floor
				}
			}
		}
	}
	return out
}
