package ai

import (
	"fmt"
	"image"
	"math"

	"faceoverlay/internal/models"
)

// ferPlusOrder maps the FER+ output index to the expression label set.
// Index 7 (contempt) has no counterpart and is dropped before softmax.
var ferPlusOrder = [...]models.Emotion{
	models.Neutral,
	models.Happy,
	models.Surprised,
	models.Sad,
	models.Angry,
	models.Disgusted,
	models.Fearful,
}

const ferPlusOutputs = 8

func softmax(logits []float32) []float64 {
	if len(logits) == 0 {
		return nil
	}
	maxLogit := float64(logits[0])
	for _, v := range logits[1:] {
		maxLogit = math.Max(maxLogit, float64(v))
	}

	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(float64(v) - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// decodeExpressions turns FER+ logits into a distribution over the
// expression labels that sums to one.
func decodeExpressions(logits []float32) (models.Expressions, error) {
	if len(logits) < len(ferPlusOrder) {
		return models.Expressions{}, fmt.Errorf("unexpected expression output size: %d", len(logits))
	}

	probs := softmax(logits[:len(ferPlusOrder)])

	var e models.Expressions
	for i, emotion := range ferPlusOrder {
		e[emotion] = probs[i]
	}
	return e, nil
}

// decodeGenderAge reads the InsightFace genderage head: two gender scores
// (female, male) followed by age/100.
func decodeGenderAge(out []float32) (gender string, confidence, age float64, err error) {
	if len(out) < 3 {
		return "", 0, 0, fmt.Errorf("unexpected gender/age output size: %d", len(out))
	}

	probs := softmax(out[:2])
	gender, confidence = models.Female, probs[0]
	if probs[1] > probs[0] {
		gender, confidence = models.Male, probs[1]
	}

	age = math.Max(0, float64(out[2])*100)
	return gender, confidence, age, nil
}

// workingGeometry returns the reduced resolution inference runs at. Frames
// narrower than width are used as they are.
func workingGeometry(frame models.Geometry, width int) models.Geometry {
	if width <= 0 || frame.Width <= width {
		return frame
	}
	height := int(math.Round(float64(frame.Height) * float64(width) / float64(frame.Width)))
	return models.Geometry{Width: width, Height: max(height, 1)}
}

// cropRect clamps a face box to the image bounds.
func cropRect(b models.Box, g models.Geometry) image.Rectangle {
	r := image.Rect(
		int(math.Floor(b.X)),
		int(math.Floor(b.Y)),
		int(math.Ceil(b.X+b.Width)),
		int(math.Ceil(b.Y+b.Height)),
	)
	return r.Intersect(image.Rect(0, 0, g.Width, g.Height))
}

func bytesToFloat32(data []byte) []float32 {
	result := make([]float32, len(data)/4)
	for i := range result {
		bits := uint32(data[i*4]) | uint32(data[i*4+1])<<8 | uint32(data[i*4+2])<<16 | uint32(data[i*4+3])<<24
		result[i] = math.Float32frombits(bits)
	}
	return result
}
