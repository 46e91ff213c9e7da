// Package pipeline runs the capture→inference→render loop.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"faceoverlay/internal/logger"
	"faceoverlay/internal/models"
	"faceoverlay/internal/services/render"
	"faceoverlay/internal/services/summary"
)

// ErrRunning is returned by Start while a run is active.
var ErrRunning = errors.New("detection loop already running")

// Source supplies the most recent decoded frame of the live stream.
type Source interface {
	// Current returns a frame owned by the caller, or false while no
	// decoded frame is available.
	Current() (models.Frame, bool)
}

// Engine runs face localization, age/gender and expression estimation in
// one call. Boxes are returned in the geometry of the result set, which may
// be smaller than the frame.
type Engine interface {
	Detect(ctx context.Context, frame models.Frame) (models.ResultSet, error)
}

// Gate reports model readiness.
type Gate interface {
	Ready() bool
	Err() error
}

// Handle identifies one run of the loop, from Start to Stop. Every Start
// issues a new, larger handle; the cycles of a run share it.
type Handle uint64

type Options struct {
	Gate      Gate
	Engine    Engine
	Renderer  *render.Renderer
	Projector *summary.Projector
	Clock     Clock
	Logger    *logger.Logger
}

// Stats counts what happened to the loop's cycles.
type Stats struct {
	Running       bool          `json:"running"`
	Cycles        uint64        `json:"cycles"`
	Idle          uint64        `json:"idle"`
	Inferences    uint64        `json:"inferences"`
	Failures      uint64        `json:"failures"`
	Discarded     uint64        `json:"discarded"`
	LastInference time.Duration `json:"lastInferenceNs"`
	IdleReason    string        `json:"idleReason,omitempty"`
}

// Loop is a cancellable, self-scheduling detection loop. Only one cycle is
// in flight at any time and the next cycle is armed after the previous one
// has rendered.
type Loop struct {
	gate      Gate
	engine    Engine
	renderer  *render.Renderer
	projector *summary.Projector
	clock     Clock
	logger    *logger.Logger

	// mu guards everything below and is held while a cycle applies its
	// result, so Stop and the detach calls are ordered against late writes.
	mu         sync.Mutex
	source     Source
	surface    render.Surface
	attachGen  uint64 // zmienia się przy każdej zmianie źródła lub powierzchni
	handle     Handle
	cancel     context.CancelFunc
	done       chan struct{}
	running    bool

	cycles        atomic.Uint64
	idle          atomic.Uint64
	inferences    atomic.Uint64
	failures      atomic.Uint64
	discarded     atomic.Uint64
	lastInference atomic.Int64
	idleReason    atomic.Value // string
}

func New(opts Options) *Loop {
	if opts.Renderer == nil {
		opts.Renderer = render.NewRenderer()
	}
	if opts.Projector == nil {
		opts.Projector = summary.NewProjector()
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}

	l := &Loop{
		gate:      opts.Gate,
		engine:    opts.Engine,
		renderer:  opts.Renderer,
		projector: opts.Projector,
		clock:     opts.Clock,
		logger:    opts.Logger,
		done:      make(chan struct{}),
	}
	close(l.done)
	l.idleReason.Store("")
	return l
}

// AttachSource sets the stream the loop reads from. It takes effect at the
// top of the next cycle; a cycle still running on the previous stream
// drops its result.
func (l *Loop) AttachSource(src Source) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.source = src
	l.attachGen++
}

// DetachSource removes the stream and clears the surface. Cycles idle until
// a new stream is attached.
func (l *Loop) DetachSource() {
	l.mu.Lock()
	defer l.mu.Unlock()

	hadSource := l.source != nil
	l.source = nil
	l.attachGen++

	if hadSource && l.surface != nil {
		l.renderer.Render(l.surface, models.ResultSet{})
	}
}

// AttachSurface sets the surface annotations are drawn on.
func (l *Loop) AttachSurface(s render.Surface) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.surface = s
	l.attachGen++
}

// DetachSurface removes the surface. A cycle already running drops its
// result instead of drawing on the old surface.
func (l *Loop) DetachSurface() {
	l.AttachSurface(nil)
}

// Start schedules the first cycle and returns its handle. The loop runs
// until Stop, Cancel or ctx cancellation.
func (l *Loop) Start(ctx context.Context) (Handle, error) {
	if l.gate == nil || l.engine == nil || l.clock == nil {
		return 0, fmt.Errorf("detection loop requires gate, engine and clock")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return 0, ErrRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	prev := l.done
	done := make(chan struct{})

	l.handle++
	l.cancel = cancel
	l.done = done
	l.running = true

	go l.run(runCtx, prev, done)

	l.logger.Info("🎬 Detection loop started (handle %d)", l.handle)
	return l.handle, nil
}

// Stop cancels the pending cycle. An inference already in flight finishes
// on its own, but once Stop returns no result reaches the surface or the
// summary.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
}

// Cancel stops the run identified by h. Stale handles are ignored.
func (l *Loop) Cancel(h Handle) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running || h != l.handle {
		return false
	}
	l.stopLocked()
	return true
}

func (l *Loop) stopLocked() {
	if !l.running {
		return
	}
	l.cancel()
	l.running = false
	l.logger.Info("🛑 Detection loop stopped (handle %d)", l.handle)
}

// Done is closed when the current run's goroutine has exited, including
// any inference that was in flight at Stop.
func (l *Loop) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

func (l *Loop) Stats() Stats {
	l.mu.Lock()
	running := l.running
	l.mu.Unlock()

	return Stats{
		Running:       running,
		Cycles:        l.cycles.Load(),
		Idle:          l.idle.Load(),
		Inferences:    l.inferences.Load(),
		Failures:      l.failures.Load(),
		Discarded:     l.discarded.Load(),
		LastInference: time.Duration(l.lastInference.Load()),
		IdleReason:    l.idleReason.Load().(string),
	}
}

func (l *Loop) run(ctx context.Context, prev <-chan struct{}, done chan struct{}) {
	defer close(done)
	defer func() {
		l.mu.Lock()
		if l.done == done {
			l.running = false
		}
		l.mu.Unlock()
	}()

	// Poprzedni przebieg może jeszcze czekać na inferencję
	select {
	case <-prev:
	case <-ctx.Done():
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.clock.Next():
		}

		if ctx.Err() != nil {
			return
		}
		l.cycle(ctx)
	}
}

// cycle performs one capture→inference→render pass. Any failure skips the
// frame; the caller always schedules the next cycle.
func (l *Loop) cycle(ctx context.Context) {
	l.cycles.Add(1)
	defer func() {
		if r := recover(); r != nil {
			l.failures.Add(1)
			l.logger.Error("Detection cycle panicked: %v", r)
		}
	}()

	if !l.gate.Ready() {
		if err := l.gate.Err(); err != nil {
			l.setIdle(err.Error())
		} else {
			l.setIdle("models loading")
		}
		return
	}

	l.mu.Lock()
	src, surface, gen := l.source, l.surface, l.attachGen
	l.mu.Unlock()

	if src == nil {
		l.setIdle("no stream")
		return
	}
	if surface == nil {
		l.setIdle("no render surface")
		return
	}

	frame, ok := src.Current()
	if !ok {
		l.setIdle("no decoded frame")
		return
	}
	defer frame.Close()

	geometry := frame.Geometry()
	if geometry.Empty() {
		l.setIdle("empty frame")
		return
	}
	l.setIdle("")

	if !l.apply(ctx, gen, func() { surface.Resize(geometry) }) {
		return
	}

	start := time.Now()
	l.inferences.Add(1)
	results, err := l.engine.Detect(context.WithoutCancel(ctx), frame)
	l.lastInference.Store(int64(time.Since(start)))

	if err != nil {
		if ctx.Err() != nil {
			l.discarded.Add(1)
			return
		}
		l.failures.Add(1)
		l.logger.Warning("Detection failed, skipping frame: %v", err)
		return
	}

	results = results.Resize(geometry)

	applied := l.apply(ctx, gen, func() {
		l.renderer.Render(surface, results)
		l.projector.Project(results)
	})
	if !applied {
		l.discarded.Add(1)
	}
}

// apply runs fn under the loop lock unless the run was cancelled or the
// stream or surface was replaced since the cycle began.
func (l *Loop) apply(ctx context.Context, gen uint64, fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ctx.Err() != nil || gen != l.attachGen {
		return false
	}
	fn()
	return true
}

func (l *Loop) setIdle(reason string) {
	if reason != "" {
		l.idle.Add(1)
	}
	prev := l.idleReason.Swap(reason)
	if prev == reason {
		return
	}
	if reason == "" {
		l.logger.Info("Detection running")
		return
	}
	l.logger.Info("Detection idle: %s", reason)
}
