package models

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FeatureSize is the number of cepstral coefficients in a FeatureVector.
const FeatureSize = 40

// UploadedClip is one received audio file. It is never mutated after
// creation; Path is set once the clip has been written to disk.
type UploadedClip struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	Data       []byte    `json:"-"`
	Size       int       `json:"size"`
	Checksum   string    `json:"checksum"`
	ReceivedAt time.Time `json:"received_at"`
}

// FeatureVector holds the time-averaged cepstral coefficients of a clip.
type FeatureVector []float64

// ChartSet maps a category to the chart image path, relative to the
// static root.
type ChartSet map[Category]string

type ProcessingStatus string

const (
	StatusPending     ProcessingStatus = "pending"
	StatusValidating  ProcessingStatus = "validating"
	StatusStoring     ProcessingStatus = "storing"
	StatusExtracting  ProcessingStatus = "extracting"
	StatusClassifying ProcessingStatus = "classifying"
	StatusRendering   ProcessingStatus = "rendering"
	StatusCompleted   ProcessingStatus = "completed"
	StatusFailed      ProcessingStatus = "failed"
)

// Analysis is the ledger record of one pipeline run.
type Analysis struct {
	ID          string            `json:"id" yaml:"id"`
	Filename    string            `json:"filename" yaml:"filename"`
	ClipPath    string            `json:"clip_path" yaml:"clip_path"`
	Size        int               `json:"size" yaml:"size"`
	Checksum    string            `json:"checksum" yaml:"checksum"`
	Features    FeatureVector     `json:"features,omitempty" yaml:"features,omitempty"`
	Prediction  *PredictionResult `json:"prediction,omitempty" yaml:"prediction,omitempty"`
	Charts      ChartSet          `json:"charts,omitempty" yaml:"charts,omitempty"`
	Status      ProcessingStatus  `json:"status" yaml:"status"`
	Error       string            `json:"error,omitempty" yaml:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at" yaml:"created_at"`
	ProcessedAt time.Time         `json:"processed_at" yaml:"processed_at"`
}

// NewUploadedClip assigns an id and checksum to freshly received bytes.
func NewUploadedClip(filename string, data []byte) *UploadedClip {
	return &UploadedClip{
		ID:         uuid.New().String(),
		Filename:   filename,
		Data:       data,
		Size:       len(data),
		Checksum:   fmt.Sprintf("%x", sha256.Sum256(data)),
		ReceivedAt: time.Now(),
	}
}

// NewAnalysis starts the ledger record for clip.
func NewAnalysis(clip *UploadedClip) *Analysis {
	return &Analysis{
		ID:        clip.ID,
		Filename:  clip.Filename,
		Size:      clip.Size,
		Checksum:  clip.Checksum,
		Status:    StatusPending,
		CreatedAt: clip.ReceivedAt,
	}
}

// Fail marks the analysis as failed with err.
func (a *Analysis) Fail(err error) {
	a.Status = StatusFailed
	a.Error = err.Error()
	a.ProcessedAt = time.Now()
}
