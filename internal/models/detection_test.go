package models

import (
	"encoding/json"
	"math"
	"testing"
)

func TestExpressions_Top(t *testing.T) {
	tests := []struct {
		name      string
		scores    Expressions
		want      Emotion
		wantScore float64
	}{
		{"clear winner", Expressions{Happy: 0.7, Neutral: 0.2, Sad: 0.1}, Happy, 0.7},
		{"last label", Expressions{Neutral: 0.1, Surprised: 0.9}, Surprised, 0.9},
		{"tie resolves to first label", Expressions{Sad: 0.4, Angry: 0.4, Neutral: 0.2}, Sad, 0.4},
		{"all equal", Expressions{1.0 / 7, 1.0 / 7, 1.0 / 7, 1.0 / 7, 1.0 / 7, 1.0 / 7, 1.0 / 7}, Neutral, 1.0 / 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, score := tt.scores.Top()
			if got != tt.want {
				t.Errorf("Top() = %v, expected %v", got, tt.want)
			}
			if score != tt.wantScore {
				t.Errorf("Top() score = %v, expected %v", score, tt.wantScore)
			}
		})
	}
}

func TestExpressions_TopIsArgmax(t *testing.T) {
	// Distributions summing to 1: the winner is never beaten by another label.
	dists := []Expressions{
		{0.05, 0.05, 0.05, 0.05, 0.05, 0.05, 0.7},
		{0.3, 0.1, 0.1, 0.1, 0.1, 0.1, 0.2},
		{0.0, 0.0, 0.0, 0.0, 1.0, 0.0, 0.0},
	}

	for _, d := range dists {
		if math.Abs(d.Sum()-1) > 1e-9 {
			t.Fatalf("Bad fixture, sum = %v", d.Sum())
		}
		top, score := d.Top()
		for i, v := range d {
			if v > score {
				t.Errorf("Label %v (%v) beats reported top %v (%v)", Emotion(i), v, top, score)
			}
		}
		if d[top] != score {
			t.Errorf("Score %v does not match label %v value %v", score, top, d[top])
		}
	}
}

func TestExpressions_JSON(t *testing.T) {
	in := Expressions{Happy: 0.9, Neutral: 0.1}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Expected JSON object, got %s", data)
	}
	if raw["happy"] != 0.9 || len(raw) != NumEmotions {
		t.Errorf("Unexpected JSON payload: %s", data)
	}

	var out Expressions
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if out != in {
		t.Errorf("Expected %v, got %v", in, out)
	}

	if err := json.Unmarshal([]byte(`{"bored":1}`), &out); err == nil {
		t.Error("Expected error for unknown label")
	}
}

func TestResultSet_Resize(t *testing.T) {
	working := ResultSet{
		Geometry: Geometry{Width: 320, Height: 180},
		Detections: []Detection{
			{Box: Box{X: 10, Y: 20, Width: 30, Height: 40}, Age: 31},
			{Box: Box{X: 100, Y: 50, Width: 16, Height: 18}},
		},
	}

	got := working.Resize(Geometry{Width: 1280, Height: 720})

	if got.Geometry != (Geometry{Width: 1280, Height: 720}) {
		t.Errorf("Expected frame geometry, got %+v", got.Geometry)
	}
	want := []Box{
		{X: 40, Y: 80, Width: 120, Height: 160},
		{X: 400, Y: 200, Width: 64, Height: 72},
	}
	for i, d := range got.Detections {
		if d.Box != want[i] {
			t.Errorf("Detection %d: expected %+v, got %+v", i, want[i], d.Box)
		}
	}
	if got.Detections[0].Age != 31 {
		t.Error("Resize must keep non-geometric attributes")
	}
	if working.Detections[0].Box.X != 10 {
		t.Error("Resize must not modify the source result set")
	}
}

func TestResultSet_ResizeWithoutWorkingGeometry(t *testing.T) {
	rs := ResultSet{Detections: []Detection{{Box: Box{X: 5, Y: 5, Width: 10, Height: 10}}}}

	got := rs.Resize(Geometry{Width: 640, Height: 480})

	if got.Detections[0].Box != rs.Detections[0].Box {
		t.Errorf("Expected unchanged box, got %+v", got.Detections[0].Box)
	}
}

func TestEmotion_String(t *testing.T) {
	if Happy.String() != "happy" {
		t.Errorf("Expected 'happy', got %q", Happy.String())
	}
	if Emotion(42).String() != "emotion(42)" {
		t.Errorf("Unexpected out-of-range name %q", Emotion(42).String())
	}
	if e, ok := ParseEmotion("surprised"); !ok || e != Surprised {
		t.Errorf("ParseEmotion(surprised) = %v, %v", e, ok)
	}
}
