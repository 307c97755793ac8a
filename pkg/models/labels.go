package models

import (
	"fmt"
	"image/color"
)

// Category is one of the four independently predicted label groups.
type Category string

const (
	CategoryEmotion Category = "emotion"
	CategoryGender  Category = "gender"
	CategoryEnergy  Category = "energy"
	CategoryStress  Category = "stress"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryEmotion, CategoryGender, CategoryEnergy, CategoryStress}

var labelSets = map[Category][]string{
	CategoryEmotion: {"Happy", "Sad", "Angry", "Neutral", "Fearful", "Surprised"},
	CategoryGender:  {"Male", "Female"},
	CategoryEnergy:  {"Low", "Medium", "High"},
	CategoryStress:  {"Relaxed", "Moderate", "Stressed"},
}

var titles = map[Category]string{
	CategoryEmotion: "Emotion Prediction",
	CategoryGender:  "Gender Prediction",
	CategoryEnergy:  "Energy Level",
	CategoryStress:  "Stress Level",
}

var colors = map[Category]color.RGBA{
	CategoryEmotion: {R: 135, G: 206, B: 235, A: 255}, // skyblue
	CategoryGender:  {R: 255, G: 165, B: 0, A: 255},   // orange
	CategoryEnergy:  {R: 0, G: 128, B: 0, A: 255},     // green
	CategoryStress:  {R: 255, G: 0, B: 0, A: 255},     // red
}

// Labels returns a copy of the fixed label set for c.
func (c Category) Labels() []string {
	return append([]string(nil), labelSets[c]...)
}

// Title is the chart title for c.
func (c Category) Title() string { return titles[c] }

// Color is the bar colour used when charting c.
func (c Category) Color() color.RGBA { return colors[c] }

// Valid reports whether label belongs to the set of c.
func (c Category) Valid(label string) bool {
	for _, l := range labelSets[c] {
		if l == label {
			return true
		}
	}
	return false
}

// PredictionResult carries one label per category.
type PredictionResult struct {
	Emotion string `json:"emotion" yaml:"emotion"`
	Gender  string `json:"gender" yaml:"gender"`
	Energy  string `json:"energy" yaml:"energy"`
	Stress  string `json:"stress" yaml:"stress"`
}

// Label returns the label chosen for c.
func (p PredictionResult) Label(c Category) string {
	switch c {
	case CategoryEmotion:
		return p.Emotion
	case CategoryGender:
		return p.Gender
	case CategoryEnergy:
		return p.Energy
	case CategoryStress:
		return p.Stress
	}
	return ""
}

// Set stores label for c.
func (p *PredictionResult) Set(c Category, label string) {
	switch c {
	case CategoryEmotion:
		p.Emotion = label
	case CategoryGender:
		p.Gender = label
	case CategoryEnergy:
		p.Energy = label
	case CategoryStress:
		p.Stress = label
	}
}

// Validate checks that every category holds a label from its set.
func (p PredictionResult) Validate() error {
	for _, c := range Categories {
		if !c.Valid(p.Label(c)) {
			return fmt.Errorf("invalid %s label %q", c, p.Label(c))
		}
	}
	return nil
}
