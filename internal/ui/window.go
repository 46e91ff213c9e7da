package ui

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"time"

	"faceoverlay/internal/logger"
	"faceoverlay/internal/models"

	"gocv.io/x/gocv"
)

// Window manages the preview display
type Window struct {
	window     *gocv.Window
	name       string
	lastFrame  time.Time
	frameCount int
	fps        float64
}

// NewWindow creates a new preview window
func NewWindow(name string) *Window {
	window := gocv.NewWindow(name)
	window.ResizeWindow(1280, 720)
	return &Window{
		window:    window,
		name:      name,
		lastFrame: time.Now(),
	}
}

// Show displays a frame and updates FPS counter
func (w *Window) Show(frame *gocv.Mat) {
	w.frameCount++
	now := time.Now()

	elapsed := now.Sub(w.lastFrame)
	if elapsed >= time.Second {
		w.fps = float64(w.frameCount) / elapsed.Seconds()
		w.frameCount = 0
		w.lastFrame = now
	}

	fpsText := fmt.Sprintf("FPS: %.1f", w.fps)
	gocv.PutText(frame, fpsText, image.Pt(10, 30),
		gocv.FontHersheyPlain, 2, color.RGBA{R: 0, G: 255, B: 0, A: 255}, 2)

	w.window.IMShow(*frame)
}

// WaitKey waits for key press, returns key code or -1
func (w *Window) WaitKey(delayMs int) int {
	return w.window.WaitKey(delayMs)
}

// FPS returns current frames per second
func (w *Window) FPS() float64 {
	return w.fps
}

// Close closes the window
func (w *Window) Close() error {
	if w.window != nil {
		return w.window.Close()
	}
	return nil
}

// FrameSource supplies the frames shown in the preview.
type FrameSource interface {
	Current() (models.Frame, bool)
}

type matFrame interface {
	Mat() gocv.Mat
}

// RunPreview shows the live stream with the overlay composited on top until
// ctx is cancelled or the user presses Esc or q. It must run on the main
// goroutine on platforms whose GUI toolkit requires it.
func RunPreview(ctx context.Context, source FrameSource, overlay *MatSurface, logger *logger.Logger) {
	window := NewWindow("faceoverlay")
	defer window.Close()

	logger.Info("🖥️  Preview window opened")
	for ctx.Err() == nil {
		if !showFrame(window, source, overlay, logger) {
			time.Sleep(10 * time.Millisecond)
		}

		key := window.WaitKey(1)
		if key == 27 || key == 'q' {
			logger.Info("Preview closed by user")
			return
		}
	}
}

func showFrame(window *Window, source FrameSource, overlay *MatSurface, logger *logger.Logger) bool {
	frame, ok := source.Current()
	if !ok {
		return false
	}
	defer frame.Close()

	mf, ok := frame.(matFrame)
	if !ok {
		return false
	}
	img := mf.Mat()
	if err := overlay.Composite(&img); err != nil {
		logger.Warning("Failed to composite overlay: %v", err)
	}
	window.Show(&img)
	return true
}
