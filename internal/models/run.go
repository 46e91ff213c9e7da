package models

import "time"

// Run is the operational record of one detection loop run: how many cycles
// were attempted and what happened to them. Detections are never stored.
type Run struct {
	ID         string     `json:"id"`
	Camera     int        `json:"camera"`
	StartedAt  time.Time  `json:"startedAt"`
	StoppedAt  *time.Time `json:"stoppedAt,omitempty"`
	Cycles     uint64     `json:"cycles"`
	Idle       uint64     `json:"idle"`
	Inferences uint64     `json:"inferences"`
	Failures   uint64     `json:"failures"`
	Discarded  uint64     `json:"discarded"`
	ModelError string     `json:"modelError,omitempty"`
}
