package dto

import "faceoverlay/internal/models"

// Typy wiadomości wysyłanych do przeglądarek
const (
	MessageOverlay = "overlay"
	MessageSummary = "summary"
	MessageStatus  = "status"
	MessageFrame   = "frame"
)

// ViewMessage is the envelope of every message pushed on /api/view.
type ViewMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// SummaryPayload carries the summary and its derived panel.
type SummaryPayload struct {
	Summary models.Summary `json:"summary"`
	Panel   models.Panel   `json:"panel"`
}

func NewSummaryPayload(s models.Summary) SummaryPayload {
	return SummaryPayload{Summary: s, Panel: s.Panel()}
}

// StatusPayload describes what the viewer should show instead of, or next
// to, the overlay.
type StatusPayload struct {
	Ready      bool   `json:"ready"`
	Stream     bool   `json:"stream"`
	Text       string `json:"text,omitempty"`
	Error      string `json:"error,omitempty"`
	ModelError string `json:"modelError,omitempty"` // ustawiony także gdy Error dotyczy kamery
}

// FramePayload is one JPEG encoded camera frame.
type FramePayload struct {
	Image string `json:"image"` // base64
	Seq   uint64 `json:"seq"`
}
