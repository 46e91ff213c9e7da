package ui

import (
	"image"
	"image/color"
	"math"
	"sync"

	"faceoverlay/internal/models"

	"gocv.io/x/gocv"
)

// hersheyBaseHeight is the approximate pixel height of FontHersheySimplex
// at scale 1.
const hersheyBaseHeight = 22.0

// MatSurface is a render surface backed by a transparent BGRA canvas. The
// loop paints into the back buffer; Present swaps it into the buffer that
// Composite blends onto preview frames.
type MatSurface struct {
	mu        sync.Mutex
	geometry  models.Geometry
	back      gocv.Mat
	front     gocv.Mat
	hasFront  bool
	allocated bool
}

func NewMatSurface() *MatSurface {
	return &MatSurface{}
}

func (s *MatSurface) Resize(g models.Geometry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.allocated && s.geometry == g {
		return
	}
	s.releaseLocked()
	if g.Empty() {
		s.geometry = g
		return
	}

	s.geometry = g
	s.back = gocv.NewMatWithSize(g.Height, g.Width, gocv.MatTypeCV8UC4)
	s.front = gocv.NewMatWithSize(g.Height, g.Width, gocv.MatTypeCV8UC4)
	s.back.SetTo(gocv.NewScalar(0, 0, 0, 0))
	s.front.SetTo(gocv.NewScalar(0, 0, 0, 0))
	s.allocated = true
}

func (s *MatSurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.allocated {
		s.back.SetTo(gocv.NewScalar(0, 0, 0, 0))
	}
}

func (s *MatSurface) StrokeRect(box models.Box, c color.RGBA, weight int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.allocated {
		return
	}
	rect := image.Rect(
		int(math.Round(box.X)),
		int(math.Round(box.Y)),
		int(math.Round(box.X+box.Width)),
		int(math.Round(box.Y+box.Height)),
	)
	gocv.Rectangle(&s.back, rect, c, weight)
}

func (s *MatSurface) FillText(text string, x, y float64, c color.RGBA, size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.allocated {
		return
	}
	pt := image.Pt(int(math.Round(x)), int(math.Round(y)))
	gocv.PutText(&s.back, text, pt, gocv.FontHersheySimplex, textScale(size), c, 1)
}

// Present publishes the painted frame to Composite.
func (s *MatSurface) Present() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.allocated {
		return
	}
	s.back.CopyTo(&s.front)
	s.hasFront = true
}

// Composite draws the last presented overlay onto frame. Frames whose size
// differs from the surface are left untouched.
func (s *MatSurface) Composite(frame *gocv.Mat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasFront || frame.Cols() != s.geometry.Width || frame.Rows() != s.geometry.Height {
		return nil
	}

	channels := gocv.Split(s.front)
	defer func() {
		for _, ch := range channels {
			ch.Close()
		}
	}()
	alpha := channels[3]

	bgr := gocv.NewMat()
	defer bgr.Close()
	if err := gocv.CvtColor(s.front, &bgr, gocv.ColorBGRAToBGR); err != nil {
		return err
	}
	return bgr.CopyToWithMask(frame, alpha)
}

// Close releases the canvases.
func (s *MatSurface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked()
	return nil
}

func (s *MatSurface) releaseLocked() {
	if !s.allocated {
		return
	}
	s.back.Close()
	s.front.Close()
	s.allocated = false
	s.hasFront = false
}

func textScale(size int) float64 {
	if size <= 0 {
		return 1
	}
	return float64(size) / hersheyBaseHeight
}
