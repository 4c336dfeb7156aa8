package models

// RunStatus represents the state of a pipeline run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// SourceQueryMode controls how the sourcing query is built
type SourceQueryMode string

const (
	SourceQueryModeDefault SourceQueryMode = "default"
	SourceQueryModeBroad   SourceQueryMode = "broad"
)

// EvidenceQueryMode controls how aggressively external evidence is searched
type EvidenceQueryMode string

const (
	EvidenceQueryModeDefault EvidenceQueryMode = "default"
	EvidenceQueryModeStrict  EvidenceQueryMode = "strict"
)

// SearchFilter is a single sourcing filter fragment. Filters resolved to a
// provider-side ID survive query normalisation even when their text is
// stripped empty.
type SearchFilter struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text,omitempty"`
}

// SearchCriteria describes a LinkedIn talent search
type SearchCriteria struct {
	Keywords     string         `json:"keywords,omitempty"`
	RoleKeywords []SearchFilter `json:"role_keywords,omitempty"`
	Skills       []SearchFilter `json:"skills,omitempty"`
	Companies    []SearchFilter `json:"companies,omitempty"`
	Location     string         `json:"location,omitempty"`
	Industry     string         `json:"industry,omitempty"`
	API          string         `json:"api,omitempty"` // classic, recruiter, sales_navigator
	AccountID    string         `json:"account_id,omitempty"`
}

// RoleSpec identifies the role a run sources candidates for
type RoleSpec struct {
	RoleKey          string         `json:"role_key" validate:"required"`
	RoleTitle        string         `json:"role_title" validate:"required"`
	Search           SearchCriteria `json:"search"`
	TargetCandidates int            `json:"target_candidates,omitempty"`
}

// RunInput is the full input to a pipeline run
type RunInput struct {
	Role                        RoleSpec          `json:"role" validate:"required"`
	IdempotencyKey              string            `json:"idempotency_key,omitempty"`
	BrowserVerificationEnabled  bool              `json:"browser_verification_enabled,omitempty"`
	SourceQueryMode             SourceQueryMode   `json:"source_query_mode,omitempty"`
	EvidenceQueryMode           EvidenceQueryMode `json:"evidence_query_mode,omitempty"`
}

// RunHandle is what run() returns to callers: the run identity and whether an
// existing run was resumed instead of starting a new one.
type RunHandle struct {
	RunID   string    `json:"run_id"`
	Resumed bool      `json:"resumed"`
	Status  RunStatus `json:"status"`
}

// PipelineRun is the persisted run row
type PipelineRun struct {
	ID               string               `json:"id"`
	IdempotencyKey   string               `json:"idempotency_key,omitempty"`
	Status           RunStatus            `json:"status"`
	StartedAt        int64                `json:"started_at"`
	FinishedAt       int64                `json:"finished_at,omitempty"`
	TargetCandidates int                  `json:"target_candidates"`
	RoleKey          string               `json:"role_key"`
	RoleTitle        string               `json:"role_title"`
	Diagnostics      *PipelineDiagnostics `json:"diagnostics,omitempty"`
}

// RunFailure is an append-only failure record for a run
type RunFailure struct {
	Stage        string    `json:"stage"`
	CandidateRef string    `json:"candidate_ref,omitempty"`
	ErrorType    ErrorKind `json:"error_type"`
	Message      string    `json:"message"`
	Retryable    bool      `json:"retryable"`
	Payload      string    `json:"payload,omitempty"`
}
