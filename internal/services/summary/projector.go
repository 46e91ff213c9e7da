// Package summary publishes the most salient detection as a single
// immutable value for display-only panels.
package summary

import (
	"sync"
	"sync/atomic"

	"faceoverlay/internal/models"
)

// Projector keeps the current summary. The first detection of the latest
// non-empty result set wins; empty sets leave the previous value in place.
type Projector struct {
	current atomic.Pointer[models.Summary]

	mu     sync.Mutex
	nextID int
	subs   map[int]func(models.Summary)
}

func NewProjector() *Projector {
	p := &Projector{subs: make(map[int]func(models.Summary))}
	p.current.Store(&models.Summary{})
	return p
}

// Project publishes the summary of results.Detections[0]. It reports
// whether the summary was replaced.
func (p *Projector) Project(results models.ResultSet) bool {
	if results.Empty() {
		return false
	}

	s := models.SummaryOf(results.Detections[0])
	p.current.Store(&s)

	p.mu.Lock()
	subs := make([]func(models.Summary), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
	return true
}

// Current returns the last published summary.
func (p *Projector) Current() models.Summary {
	return *p.current.Load()
}

// Subscribe registers fn for every future summary. The returned function
// removes the subscription.
func (p *Projector) Subscribe(fn func(models.Summary)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.subs[id] = fn

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}
