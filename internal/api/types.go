package api

import (
	"encoding/json"
	"time"

	"github.com/mattjoyce/signalhub/internal/hub"
)

// EmitRequest is the JSON body for POST /v1/signals/{signal}/emit
type EmitRequest struct {
	Payload json.RawMessage `json:"payload,omitempty"`
}

// EmitResponse is returned on a successful emission.
type EmitResponse struct {
	EmissionID  string            `json:"emission_id"`
	Signal      string            `json:"signal"`
	Mode        string            `json:"mode"`
	Subscribers int               `json:"subscribers"`
	Delivered   int               `json:"delivered,omitempty"`
	Submitted   int               `json:"submitted,omitempty"`
	Failures    []hub.FailureInfo `json:"failures,omitempty"`
}

// SignalsResponse is returned by GET /v1/signals.
type SignalsResponse struct {
	Signals []hub.SignalInfo `json:"signals"`
}

// JournalEntry is one emission in GET /v1/journal/recent.
type JournalEntry struct {
	EmissionID  string          `json:"emission_id"`
	Signal      string          `json:"signal"`
	Mode        string          `json:"mode"`
	Subscribers int             `json:"subscribers"`
	Failures    int             `json:"failures"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// JournalResponse is returned by GET /v1/journal/recent.
type JournalResponse struct {
	Emissions []JournalEntry `json:"emissions"`
}

// ErrorResponse is returned on errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Signals       int    `json:"signals"`
	Subscribers   int    `json:"subscribers"`
	ExecutorState string `json:"executor_state"`
	JournalDepth  int    `json:"journal_depth"`
}
