package models

import (
	"encoding/json"
	"fmt"
)

// Geometry is the pixel size of a frame or surface.
type Geometry struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether either dimension is not positive.
func (g Geometry) Empty() bool {
	return g.Width <= 0 || g.Height <= 0
}

// Box is an axis-aligned face bounding box in pixels.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Scale returns the box with x/width multiplied by sx and y/height by sy.
func (b Box) Scale(sx, sy float64) Box {
	return Box{X: b.X * sx, Y: b.Y * sy, Width: b.Width * sx, Height: b.Height * sy}
}

// Emotion identifies one entry of the fixed expression label set.
type Emotion int

const (
	Neutral Emotion = iota
	Happy
	Sad
	Angry
	Fearful
	Disgusted
	Surprised

	NumEmotions = int(Surprised) + 1
)

var emotionNames = [NumEmotions]string{
	"neutral", "happy", "sad", "angry", "fearful", "disgusted", "surprised",
}

func (e Emotion) String() string {
	if e < 0 || int(e) >= NumEmotions {
		return fmt.Sprintf("emotion(%d)", int(e))
	}
	return emotionNames[e]
}

// ParseEmotion maps a label back to its Emotion.
func ParseEmotion(label string) (Emotion, bool) {
	for i, name := range emotionNames {
		if name == label {
			return Emotion(i), true
		}
	}
	return 0, false
}

// Expressions holds one confidence per Emotion, in label order.
type Expressions [NumEmotions]float64

// Top returns the most confident emotion. Ties resolve to the label that
// comes first in the fixed ordering.
func (e Expressions) Top() (Emotion, float64) {
	best := Neutral
	for i := 1; i < NumEmotions; i++ {
		if e[i] > e[best] {
			best = Emotion(i)
		}
	}
	return best, e[best]
}

// Sum returns the total confidence across all labels.
func (e Expressions) Sum() float64 {
	var s float64
	for _, v := range e {
		s += v
	}
	return s
}

func (e Expressions) MarshalJSON() ([]byte, error) {
	m := make(map[string]float64, NumEmotions)
	for i, v := range e {
		m[emotionNames[i]] = v
	}
	return json.Marshal(m)
}

func (e *Expressions) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*e = Expressions{}
	for label, v := range m {
		emotion, ok := ParseEmotion(label)
		if !ok {
			return fmt.Errorf("unknown emotion label %q", label)
		}
		e[emotion] = v
	}
	return nil
}

const (
	Male   = "male"
	Female = "female"
)

// Detection is one detected face with its estimated attributes.
type Detection struct {
	Box              Box         `json:"box"`
	Age              float64     `json:"age"`
	Gender           string      `json:"gender"`
	GenderConfidence float64     `json:"genderConfidence"`
	Expressions      Expressions `json:"expressions"`
}

// ResultSet is every detection found in one frame, in engine order.
// Geometry is the pixel space the boxes are expressed in.
type ResultSet struct {
	Geometry   Geometry    `json:"geometry"`
	Detections []Detection `json:"detections"`
}

// Empty reports whether no face was found.
func (r ResultSet) Empty() bool {
	return len(r.Detections) == 0
}

// Resize maps every box from r.Geometry into target. A result set without
// a working geometry is assumed to already be in target space.
func (r ResultSet) Resize(target Geometry) ResultSet {
	out := ResultSet{Geometry: target}
	if len(r.Detections) == 0 {
		return out
	}

	sx, sy := 1.0, 1.0
	if !r.Geometry.Empty() {
		sx = float64(target.Width) / float64(r.Geometry.Width)
		sy = float64(target.Height) / float64(r.Geometry.Height)
	}

	out.Detections = make([]Detection, len(r.Detections))
	for i, d := range r.Detections {
		d.Box = d.Box.Scale(sx, sy)
		out.Detections[i] = d
	}
	return out
}

// Frame is a decoded video frame handed from the stream source to the
// inference engine. The receiver must Close it.
type Frame interface {
	Geometry() Geometry
	Close() error
}
