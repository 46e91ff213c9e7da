package models

import (
	"fmt"
	"math"
)

// AgeGaugeMax caps the age indicator.
const AgeGaugeMax = 100

// Summary is the most salient detection of the latest non-empty frame,
// flattened for display widgets. Values are immutable once published.
type Summary struct {
	Gender            string  `json:"gender"`
	GenderConfidence  float64 `json:"genderConfidence"`
	Emotion           string  `json:"emotion"`
	EmotionConfidence float64 `json:"emotionConfidence"`
	Age               float64 `json:"age"`
}

// SummaryOf projects a single detection.
func SummaryOf(d Detection) Summary {
	emotion, confidence := d.Expressions.Top()
	return Summary{
		Gender:            d.Gender,
		GenderConfidence:  d.GenderConfidence,
		Emotion:           emotion.String(),
		EmotionConfidence: confidence,
		Age:               d.Age,
	}
}

// IsZero reports whether nothing has been detected yet.
func (s Summary) IsZero() bool {
	return s == Summary{}
}

// Indicator is one circular gauge of the summary panel.
type Indicator struct {
	Value float64 `json:"value"` // 0..100
	Text  string  `json:"text"`
}

// Panel holds the derived views of a Summary.
type Panel struct {
	Male    Indicator `json:"male"`
	Female  Indicator `json:"female"`
	Emotion Indicator `json:"emotion"`
	Age     Indicator `json:"age"`
}

// MalePercent returns the male likelihood in percent. GenderConfidence is
// the confidence of the reported Gender, so a female label contributes its
// complement.
func (s Summary) MalePercent() float64 {
	if s.Gender == Male {
		return s.GenderConfidence * 100
	}
	return (1 - s.GenderConfidence) * 100
}

// FemalePercent is the complement of MalePercent.
func (s Summary) FemalePercent() float64 {
	return 100 - s.MalePercent()
}

// AgeGauge returns the age capped at AgeGaugeMax.
func (s Summary) AgeGauge() float64 {
	return math.Min(s.Age, AgeGaugeMax)
}

// Panel derives the indicator views. A zero summary yields an empty panel.
func (s Summary) Panel() Panel {
	if s.IsZero() {
		return Panel{}
	}

	male := s.MalePercent()
	female := s.FemalePercent()
	emotion := s.EmotionConfidence * 100

	return Panel{
		Male:    Indicator{Value: male, Text: fmt.Sprintf("Male %.0f%%", math.Round(male))},
		Female:  Indicator{Value: female, Text: fmt.Sprintf("Female %.0f%%", math.Round(female))},
		Emotion: Indicator{Value: emotion, Text: fmt.Sprintf("%s %.0f%%", s.Emotion, math.Round(emotion))},
		Age:     Indicator{Value: s.AgeGauge(), Text: fmt.Sprintf("Age %d", int(math.Floor(s.Age)))},
	}
}
