package summary

import (
	"testing"

	"faceoverlay/internal/models"
)

func face(gender string, p, age float64, e models.Expressions) models.Detection {
	return models.Detection{Gender: gender, GenderConfidence: p, Age: age, Expressions: e}
}

func TestProject_UsesFirstDetection(t *testing.T) {
	p := NewProjector()

	changed := p.Project(models.ResultSet{Detections: []models.Detection{
		face(models.Female, 0.7, 33.3, models.Expressions{models.Happy: 0.6, models.Neutral: 0.4}),
		face(models.Male, 0.99, 80, models.Expressions{models.Angry: 1}),
	}})

	if !changed {
		t.Fatal("Expected summary update")
	}
	want := models.Summary{Gender: models.Female, GenderConfidence: 0.7, Emotion: "happy", EmotionConfidence: 0.6, Age: 33.3}
	if got := p.Current(); got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestProject_EmptyKeepsPrevious(t *testing.T) {
	p := NewProjector()
	p.Project(models.ResultSet{Detections: []models.Detection{
		face(models.Male, 0.8, 41, models.Expressions{models.Surprised: 0.9, models.Neutral: 0.1}),
	}})
	before := p.Current()

	if p.Project(models.ResultSet{}) {
		t.Error("Empty result set must not report a change")
	}
	if got := p.Current(); got != before {
		t.Errorf("Summary changed on empty frame: %+v -> %+v", before, got)
	}
}

func TestProject_EmptyBeforeAnyDetection(t *testing.T) {
	p := NewProjector()

	p.Project(models.ResultSet{Detections: []models.Detection{}})

	if !p.Current().IsZero() {
		t.Errorf("Expected zero summary, got %+v", p.Current())
	}
}

func TestSubscribe(t *testing.T) {
	p := NewProjector()
	var got []models.Summary
	cancel := p.Subscribe(func(s models.Summary) { got = append(got, s) })

	rs := models.ResultSet{Detections: []models.Detection{face(models.Male, 0.6, 20, models.Expressions{models.Neutral: 1})}}
	p.Project(rs)
	p.Project(models.ResultSet{})
	cancel()
	p.Project(rs)

	if len(got) != 1 {
		t.Fatalf("Expected exactly one notification, got %d", len(got))
	}
	if got[0].Emotion != "neutral" {
		t.Errorf("Unexpected summary %+v", got[0])
	}
}
