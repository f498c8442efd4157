package model

import "time"

// RunStatus represents the current state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one invocation of the contact pipeline.
type Run struct {
	ID        string      `json:"id"`
	Kind      string      `json:"kind"`
	Status    RunStatus   `json:"status"`
	Summary   *RunSummary `json:"summary,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// RunSummary holds the counters reported at the end of a run.
type RunSummary struct {
	Organizations int                 `json:"organizations" yaml:"organizations"`
	Websites      int                 `json:"websites" yaml:"websites"`
	Pages         int                 `json:"pages" yaml:"pages"`
	Contacts      int                 `json:"contacts" yaml:"contacts"`
	MapsContacts  int                 `json:"maps_contacts" yaml:"maps_contacts"`
	Iterations    int                 `json:"iterations" yaml:"iterations"`
	CapReached    bool                `json:"cap_reached" yaml:"cap_reached"`
	StillMissing  []string            `json:"still_missing,omitempty" yaml:"still_missing,omitempty"`
	Statuses      map[MatchStatus]int `json:"statuses,omitempty" yaml:"statuses,omitempty"`
	Duration      time.Duration       `json:"duration" yaml:"duration"`
}
