package readiness

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"faceoverlay/internal/logger"
)

func okLoader(name string, calls *atomic.Int32) Loader {
	return LoaderFunc{ID: name, Fn: func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}}
}

func TestGate_AllLoadersSucceed(t *testing.T) {
	var calls atomic.Int32
	g := NewGate(logger.NewNop(),
		okLoader("face", &calls),
		okLoader("age_gender", &calls),
		okLoader("expression", &calls),
	)

	if g.Ready() {
		t.Fatal("Gate must not be ready before Load")
	}

	if err := g.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !g.Ready() {
		t.Error("Gate should be ready after all loaders succeed")
	}
	if calls.Load() != 3 {
		t.Errorf("Expected 3 load calls, got %d", calls.Load())
	}
	if g.Err() != nil {
		t.Errorf("Expected no error, got %v", g.Err())
	}
	select {
	case <-g.Done():
	default:
		t.Error("Done should be closed after Load")
	}
}

func TestGate_OneFailureKeepsGateClosed(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("file not found")
	g := NewGate(logger.NewNop(),
		okLoader("face", &calls),
		LoaderFunc{ID: "expression", Fn: func(ctx context.Context) error { return boom }},
	)

	err := g.Load(context.Background())

	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped loader error, got %v", err)
	}
	if g.Ready() {
		t.Error("Gate must stay closed when any loader fails")
	}
	if !errors.Is(g.Err(), ErrUnavailable) {
		t.Errorf("Err() should surface the failure, got %v", g.Err())
	}
}

func TestGate_LoadRunsOnce(t *testing.T) {
	var calls atomic.Int32
	g := NewGate(logger.NewNop(), okLoader("face", &calls))

	if err := g.Load(context.Background()); err != nil {
		t.Fatalf("First Load failed: %v", err)
	}
	if err := g.Load(context.Background()); !errors.Is(err, ErrAlreadyLoaded) {
		t.Errorf("Expected ErrAlreadyLoaded, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("Loader should run exactly once, ran %d times", calls.Load())
	}
	if !g.Ready() {
		t.Error("Second Load must not revert readiness")
	}
}

func TestGate_LoadsConcurrently(t *testing.T) {
	// Each loader waits for the other to start; sequential loading would deadlock.
	var wg sync.WaitGroup
	wg.Add(2)
	barrier := func(ctx context.Context) error {
		wg.Done()
		wg.Wait()
		return nil
	}
	g := NewGate(logger.NewNop(),
		LoaderFunc{ID: "a", Fn: barrier},
		LoaderFunc{ID: "b", Fn: barrier},
	)

	done := make(chan error, 1)
	go func() { done <- g.Load(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Loaders did not run concurrently")
	}
}

func TestGate_NoLoaders(t *testing.T) {
	g := NewGate(logger.NewNop())

	if err := g.Load(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
	if g.Ready() {
		t.Error("Gate without models must not become ready")
	}
}

func TestGate_Progress(t *testing.T) {
	var calls atomic.Int32
	g := NewGate(logger.NewNop(), okLoader("face", &calls), okLoader("age_gender", &calls))

	seen := map[string]bool{}
	g.OnProgress(func(name string, err error) {
		seen[name] = err == nil
	})

	if err := g.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !seen["face"] || !seen["age_gender"] {
		t.Errorf("Expected progress for both models, got %v", seen)
	}
}
