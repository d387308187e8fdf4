package checkerrors

import "time"

// Phase names where a check can fail.
const (
	PhaseRun    = "run"
	PhaseParse  = "parse"
	PhaseUpload = "upload"
	PhaseStore  = "store"
)

// CheckError represents a persisted check failure entry
type CheckError struct {
	ID          int64     `json:"id"`
	TenantID    string    `json:"tenant_id"`
	CheckID     string    `json:"check_id"`
	Package     string    `json:"package,omitempty"`
	Phase       string    `json:"phase,omitempty"` // run | parse | upload | store
	Message     string    `json:"message"`
	DetailsJSON string    `json:"details_json,omitempty"` // raw JSON string
	CreatedAt   time.Time `json:"created_at"`
}
