// Package readiness holds the one-time model loading barrier that every
// detection cycle waits on.
package readiness

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"faceoverlay/internal/logger"
)

var (
	// ErrUnavailable wraps every load failure: detection will not run for
	// the rest of the process.
	ErrUnavailable = errors.New("detection unavailable")
	// ErrAlreadyLoaded is returned by a second Load call.
	ErrAlreadyLoaded = errors.New("models already loading or loaded")
)

// Loader loads the resources of one inference sub-model.
type Loader interface {
	Name() string
	Load(ctx context.Context) error
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc struct {
	ID string
	Fn func(ctx context.Context) error
}

func (f LoaderFunc) Name() string                   { return f.ID }
func (f LoaderFunc) Load(ctx context.Context) error { return f.Fn(ctx) }

// Gate flips to ready once every loader has succeeded. It never reverts.
type Gate struct {
	loaders []Loader
	logger  *logger.Logger

	started  atomic.Bool
	ready    atomic.Bool
	done     chan struct{}
	err      error // written once before done is closed
	progress func(name string, err error)
}

func NewGate(logger *logger.Logger, loaders ...Loader) *Gate {
	return &Gate{
		loaders: loaders,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// OnProgress registers a callback invoked after each sub-model finishes
// loading. Must be called before Load.
func (g *Gate) OnProgress(fn func(name string, err error)) {
	g.progress = fn
}

// Load loads every sub-model concurrently and blocks until all of them
// finished. It may run only once per Gate.
func (g *Gate) Load(ctx context.Context) error {
	if !g.started.CompareAndSwap(false, true) {
		return ErrAlreadyLoaded
	}
	defer close(g.done)

	if len(g.loaders) == 0 {
		g.err = fmt.Errorf("%w: no models configured", ErrUnavailable)
		g.logger.Error("%v", g.err)
		return g.err
	}

	start := time.Now()
	errs := make([]error, len(g.loaders))

	var (
		wg     sync.WaitGroup
		progMu sync.Mutex
	)
	for i, l := range g.loaders {
		wg.Add(1)
		go func(i int, l Loader) {
			defer wg.Done()
			err := l.Load(ctx)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", l.Name(), err)
			}
			if g.progress != nil {
				progMu.Lock()
				g.progress(l.Name(), err)
				progMu.Unlock()
			}
		}(i, l)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		g.err = fmt.Errorf("%w: %w", ErrUnavailable, err)
		g.logger.Error("Model loading failed: %v", err)
		return g.err
	}

	g.ready.Store(true)
	g.logger.Info("✅ %d models loaded in %s", len(g.loaders), time.Since(start).Round(time.Millisecond))
	return nil
}

// Ready reports whether every model loaded successfully.
func (g *Gate) Ready() bool {
	return g.ready.Load()
}

// Done is closed when Load has finished, successfully or not.
func (g *Gate) Done() <-chan struct{} {
	return g.done
}

// Err returns the load failure, or nil while loading or after success.
func (g *Gate) Err() error {
	select {
	case <-g.done:
		return g.err
	default:
		return nil
	}
}
