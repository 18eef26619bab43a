// Package telemetry keeps a bounded in-memory history of command executions
// and derives aggregate statistics from it. Records can optionally be
// drained to an external sink; sink failures never affect execution.
package telemetry

import "time"

// Status of one top-level execution.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ExecutionRecord captures the outcome and timing of one top-level command
// execution. Immutable once recorded.
type ExecutionRecord struct {
	ExecutionID string    `json:"execution_id"`
	CommandType string    `json:"command_type"`
	Status      Status    `json:"status"`
	StartedAt   time.Time `json:"started_at"`
	DurationMs  int64     `json:"duration_ms"`
	Error       string    `json:"error,omitempty"`
}

// FallbackEvent records that a versioned command fell back from one protocol
// version to another.
type FallbackEvent struct {
	OriginalVersion int       `json:"original_version"`
	FallbackVersion int       `json:"fallback_version"`
	At              time.Time `json:"at"`
}

// Stats is a point-in-time aggregation over the record buffer.
type Stats struct {
	Total         int            `json:"total"`
	Succeeded     int            `json:"succeeded"`
	Failed        int            `json:"failed"`
	SuccessRate   string         `json:"success_rate"`
	AvgDurationMs float64        `json:"avg_duration_ms"`
	MaxDurationMs int64          `json:"max_duration_ms"`
	ByKind        map[string]int `json:"by_kind"`
	Fallbacks     int            `json:"fallbacks"`
}
