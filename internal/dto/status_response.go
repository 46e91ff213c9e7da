package dto

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	Ready      bool        `json:"ready"`
	Loading    bool        `json:"loading"`
	Error      string      `json:"error,omitempty"`
	ModelError string      `json:"modelError,omitempty"`
	Stream     bool        `json:"stream"`
	Status     string      `json:"status,omitempty"`
	RunID      string      `json:"runId,omitempty"`
	Loop       interface{} `json:"loop"`
	Viewers    int         `json:"viewers"`
}
