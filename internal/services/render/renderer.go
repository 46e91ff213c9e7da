package render

import (
	"fmt"
	"image/color"
	"math"

	"faceoverlay/internal/models"
)

const (
	StrokeWeight = 2
	FontSize     = 16
	LabelMargin  = 10 // Etykieta nad ramką
)

// Lime is the annotation color.
var Lime = color.RGBA{R: 0, G: 255, B: 0, A: 255}

// Renderer paints one result set onto a surface. Every call is a full
// redraw; nothing persists between frames.
type Renderer struct {
	Color  color.RGBA
	Weight int
	Size   int
}

func NewRenderer() *Renderer {
	return &Renderer{Color: Lime, Weight: StrokeWeight, Size: FontSize}
}

// Render clears the surface and annotates every detection in result order.
func (r *Renderer) Render(s Surface, results models.ResultSet) {
	s.Clear()

	for _, d := range results.Detections {
		s.StrokeRect(d.Box, r.Color, r.Weight)
		s.FillText(Label(d), d.Box.X, d.Box.Y-LabelMargin, r.Color, r.Size)
	}

	if p, ok := s.(Presenter); ok {
		p.Present()
	}
}

// Label formats the single-line annotation of a detection.
func Label(d models.Detection) string {
	emotion, _ := d.Expressions.Top()
	return fmt.Sprintf("Age: %d, Gender: %s (%d%%), Emotion: %s",
		int(math.Round(d.Age)),
		d.Gender,
		int(math.Round(d.GenderConfidence*100)),
		emotion)
}
