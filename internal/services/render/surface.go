package render

import (
	"fmt"
	"image/color"
	"sync"

	"faceoverlay/internal/models"
)

// Surface is a transparent 2D layer aligned with the video frame.
type Surface interface {
	// Resize sets the pixel dimensions. Resizing to the current size is a no-op.
	Resize(g models.Geometry)
	// Clear erases the whole surface.
	Clear()
	StrokeRect(box models.Box, c color.RGBA, weight int)
	FillText(text string, x, y float64, c color.RGBA, size int)
}

// Presenter is implemented by surfaces that need an explicit commit once
// a full frame has been painted.
type Presenter interface {
	Present()
}

// Primitive kinds recorded by Recorder.
const (
	KindRect = "rect"
	KindText = "text"
)

// Primitive is one drawing operation in a display list.
type Primitive struct {
	Kind   string     `json:"kind"`
	Box    models.Box `json:"box,omitempty"`
	Text   string     `json:"text,omitempty"`
	X      float64    `json:"x,omitempty"`
	Y      float64    `json:"y,omitempty"`
	Color  string     `json:"color"`
	Weight int        `json:"weight,omitempty"`
	Size   int        `json:"size,omitempty"`
}

// DisplayList is the content of a surface after one paint.
type DisplayList struct {
	Geometry   models.Geometry `json:"geometry"`
	Primitives []Primitive     `json:"primitives"`
}

// Recorder is a Surface that keeps its drawing operations as data. Viewers
// receive the committed display list and repaint it on their own canvas.
type Recorder struct {
	mu        sync.Mutex
	geometry  models.Geometry
	pending   []Primitive
	committed DisplayList
	onPresent func(DisplayList)
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// OnPresent registers a callback receiving every committed display list.
func (r *Recorder) OnPresent(fn func(DisplayList)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onPresent = fn
}

func (r *Recorder) Resize(g models.Geometry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.geometry == g {
		return
	}
	r.geometry = g
	r.pending = nil
}

func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = nil
}

func (r *Recorder) StrokeRect(box models.Box, c color.RGBA, weight int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, Primitive{Kind: KindRect, Box: box, Color: hex(c), Weight: weight})
}

func (r *Recorder) FillText(text string, x, y float64, c color.RGBA, size int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, Primitive{Kind: KindText, Text: text, X: x, Y: y, Color: hex(c), Size: size})
}

// Present commits the pending primitives.
func (r *Recorder) Present() {
	r.mu.Lock()
	list := DisplayList{Geometry: r.geometry, Primitives: append([]Primitive{}, r.pending...)}
	r.committed = list
	fn := r.onPresent
	r.mu.Unlock()

	if fn != nil {
		fn(list)
	}
}

// Geometry returns the current surface size.
func (r *Recorder) Geometry() models.Geometry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.geometry
}

// Pending returns a copy of the primitives drawn since the last Clear.
func (r *Recorder) Pending() []Primitive {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Primitive{}, r.pending...)
}

// Snapshot returns the last committed display list.
func (r *Recorder) Snapshot() DisplayList {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.committed
}

// Multi fans every operation out to several surfaces.
type Multi []Surface

func (m Multi) Resize(g models.Geometry) {
	for _, s := range m {
		s.Resize(g)
	}
}

func (m Multi) Clear() {
	for _, s := range m {
		s.Clear()
	}
}

func (m Multi) StrokeRect(box models.Box, c color.RGBA, weight int) {
	for _, s := range m {
		s.StrokeRect(box, c, weight)
	}
}

func (m Multi) FillText(text string, x, y float64, c color.RGBA, size int) {
	for _, s := range m {
		s.FillText(text, x, y, c, size)
	}
}

func (m Multi) Present() {
	for _, s := range m {
		if p, ok := s.(Presenter); ok {
			p.Present()
		}
	}
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
