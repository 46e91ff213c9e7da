package camera

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"faceoverlay/internal/logger"
	"faceoverlay/internal/models"

	"gocv.io/x/gocv"
)

// ErrClosed is returned after the capture was closed.
var ErrClosed = errors.New("camera closed")

const (
	maxReadFailures = 30
	readRetryDelay  = 10 * time.Millisecond
)

// Frame is a decoded camera frame. It owns its Mat.
type Frame struct {
	mat gocv.Mat
	seq uint64
}

func (f *Frame) Geometry() models.Geometry {
	return models.Geometry{Width: f.mat.Cols(), Height: f.mat.Rows()}
}

// Mat returns the BGR image. It stays valid until Close.
func (f *Frame) Mat() gocv.Mat {
	return f.mat
}

// Seq is the capture sequence number of the frame.
func (f *Frame) Seq() uint64 {
	return f.seq
}

func (f *Frame) Close() error {
	return f.mat.Close()
}

type Options struct {
	DeviceID  int
	TargetFPS int
	Width     int
	Height    int
}

// Capture reads a webcam on its own goroutine and keeps only the most
// recent frame; readers never see a backlog.
type Capture struct {
	webcam   *gocv.VideoCapture
	deviceID int
	width    int
	height   int
	logger   *logger.Logger

	mu       sync.Mutex
	latest   gocv.Mat
	hasFrame bool
	seq      uint64
	err      error
	closed   bool

	cancel context.CancelFunc
	done   chan struct{}
}

// Open opens the camera and starts reading frames.
func Open(opts Options, logger *logger.Logger) (*Capture, error) {
	webcam, err := gocv.OpenVideoCapture(opts.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %d: %w", opts.DeviceID, err)
	}

	if opts.Width > 0 && opts.Height > 0 {
		webcam.Set(gocv.VideoCaptureFrameWidth, float64(opts.Width))
		webcam.Set(gocv.VideoCaptureFrameHeight, float64(opts.Height))
	}
	if opts.TargetFPS > 0 {
		webcam.Set(gocv.VideoCaptureFPS, float64(opts.TargetFPS))
	}

	// Kamera może nie obsługiwać żądanej rozdzielczości
	actualWidth := int(webcam.Get(gocv.VideoCaptureFrameWidth))
	actualHeight := int(webcam.Get(gocv.VideoCaptureFrameHeight))

	ctx, cancel := context.WithCancel(context.Background())
	c := &Capture{
		webcam:   webcam,
		deviceID: opts.DeviceID,
		width:    actualWidth,
		height:   actualHeight,
		logger:   logger,
		latest:   gocv.NewMat(),
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go c.readLoop(ctx)

	logger.Info("🎥 Camera %d opened: %dx%d", opts.DeviceID, actualWidth, actualHeight)
	return c, nil
}

func (c *Capture) readLoop(ctx context.Context) {
	defer close(c.done)

	frame := gocv.NewMat()
	defer frame.Close()

	failures := 0
	for ctx.Err() == nil {
		if ok := c.webcam.Read(&frame); !ok || frame.Empty() {
			failures++
			if failures == maxReadFailures {
				c.setErr(fmt.Errorf("camera %d stopped delivering frames", c.deviceID))
			}
			time.Sleep(readRetryDelay)
			continue
		}
		failures = 0

		c.mu.Lock()
		frame.CopyTo(&c.latest)
		c.hasFrame = true
		c.seq++
		c.err = nil
		c.mu.Unlock()
	}
}

func (c *Capture) setErr(err error) {
	c.mu.Lock()
	c.err = err
	c.hasFrame = false
	c.mu.Unlock()
	c.logger.Warning("%v", err)
}

// Current returns a copy of the most recent frame.
func (c *Capture) Current() (models.Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || !c.hasFrame || c.latest.Empty() {
		return nil, false
	}
	return &Frame{mat: c.latest.Clone(), seq: c.seq}, true
}

// SnapshotJPEG encodes the most recent frame and returns its sequence
// number.
func (c *Capture) SnapshotJPEG(quality int) ([]byte, uint64, bool, error) {
	current, ok := c.Current()
	if !ok {
		return nil, 0, false, nil
	}
	frame := current.(*Frame)
	defer frame.Close()

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, frame.Mat(), []int{int(gocv.IMWriteJpegQuality), quality})
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())
	return data, frame.Seq(), true, nil
}

// Err returns the current stream error, nil while frames arrive.
func (c *Capture) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return c.err
}

// Width returns frame width
func (c *Capture) Width() int {
	return c.width
}

// Height returns frame height
func (c *Capture) Height() int {
	return c.height
}

// Close stops reading and releases the camera.
func (c *Capture) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	<-c.done

	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest.Close()
	return c.webcam.Close()
}
