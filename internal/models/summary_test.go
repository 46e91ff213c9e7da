package models

import (
	"math"
	"testing"
)

func TestSummary_GenderSplit(t *testing.T) {
	tests := []struct {
		name       string
		summary    Summary
		wantMale   string
		wantFemale string
	}{
		{"male 0.8", Summary{Gender: Male, GenderConfidence: 0.8}, "Male 80%", "Female 20%"},
		{"female 0.7", Summary{Gender: Female, GenderConfidence: 0.7}, "Male 30%", "Female 70%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.summary.Panel()
			if p.Male.Text != tt.wantMale {
				t.Errorf("Male indicator = %q, expected %q", p.Male.Text, tt.wantMale)
			}
			if p.Female.Text != tt.wantFemale {
				t.Errorf("Female indicator = %q, expected %q", p.Female.Text, tt.wantFemale)
			}
			if math.Abs(p.Male.Value+p.Female.Value-100) > 1e-9 {
				t.Errorf("Indicators should be complementary, got %v + %v", p.Male.Value, p.Female.Value)
			}
		})
	}
}

func TestSummary_AgeGaugeCapped(t *testing.T) {
	s := Summary{Gender: Male, GenderConfidence: 0.9, Age: 142.3}

	p := s.Panel()

	if p.Age.Value != 100 {
		t.Errorf("Expected gauge capped at 100, got %v", p.Age.Value)
	}
	if p.Age.Text != "Age 142" {
		t.Errorf("Expected label 'Age 142', got %q", p.Age.Text)
	}
}

func TestSummary_AgeBelowCap(t *testing.T) {
	s := Summary{Gender: Female, GenderConfidence: 0.6, Age: 27.9}

	if s.AgeGauge() != 27.9 {
		t.Errorf("Expected gauge 27.9, got %v", s.AgeGauge())
	}
	if got := s.Panel().Age.Text; got != "Age 27" {
		t.Errorf("Expected floored label 'Age 27', got %q", got)
	}
}

func TestSummaryOf(t *testing.T) {
	d := Detection{
		Age:              40.2,
		Gender:           Female,
		GenderConfidence: 0.93,
		Expressions:      Expressions{Neutral: 0.15, Surprised: 0.85},
	}

	s := SummaryOf(d)

	want := Summary{Gender: Female, GenderConfidence: 0.93, Emotion: "surprised", EmotionConfidence: 0.85, Age: 40.2}
	if s != want {
		t.Errorf("Expected %+v, got %+v", want, s)
	}
	if got := s.Panel().Emotion.Text; got != "surprised 85%" {
		t.Errorf("Unexpected emotion indicator %q", got)
	}
}

func TestSummary_ZeroPanel(t *testing.T) {
	var s Summary
	if !s.IsZero() {
		t.Fatal("Zero summary should report IsZero")
	}
	if s.Panel() != (Panel{}) {
		t.Errorf("Expected empty panel, got %+v", s.Panel())
	}
}
