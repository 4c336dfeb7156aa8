package models

// RunCounts are the per-run pipeline counters
type RunCounts struct {
	Sourced               int `json:"sourced"`
	Enriched              int `json:"enriched"`
	EnrichFailed          int `json:"enrich_failed"`
	ExternalDiscovered    int `json:"external_discovered"`
	IdentityConfirmedHigh int `json:"identity_confirmed_high"`
	IdentityMediumLow     int `json:"identity_medium_low"`
	ShortlistEligible     int `json:"shortlist_eligible"`
}

// StageErrorMessage is one aggregated error message within a stage
type StageErrorMessage struct {
	Message   string    `json:"message"`
	ErrorType ErrorKind `json:"error_type"`
	Count     int       `json:"count"`
}

// StageErrorAggregate summarises failures for one pipeline stage, keeping the
// top-3 messages by count
type StageErrorAggregate struct {
	Stage       string              `json:"stage"`
	Count       int                 `json:"count"`
	TopMessages []StageErrorMessage `json:"top_messages,omitempty"`
}

// AccountHealth describes the resolved LinkedIn account at run time
type AccountHealth struct {
	AccountID          string   `json:"account_id,omitempty"`
	UnipileAccountID   string   `json:"unipile_account_id,omitempty"`
	Enabled            bool     `json:"enabled"`
	APIKeySource       string   `json:"api_key_source,omitempty"` // env, config, none
	MissingCredentials []string `json:"missing_credentials,omitempty"`
}

// RunModes records the query modes a run executed with
type RunModes struct {
	SourceQueryMode   SourceQueryMode   `json:"source_query_mode"`
	EvidenceQueryMode EvidenceQueryMode `json:"evidence_query_mode"`
}

// RunFailureInfo is the fatal-failure descriptor attached to failed runs
type RunFailureInfo struct {
	Stage     string    `json:"stage"`
	ErrorType ErrorKind `json:"error_type"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
}

// PipelineDiagnostics is the summary blob serialised onto completed and failed
// runs, surfaced through both status and results
type PipelineDiagnostics struct {
	Counts         RunCounts             `json:"counts"`
	StageErrors    []StageErrorAggregate `json:"stage_errors,omitempty"`
	Account        AccountHealth         `json:"account"`
	EffectiveQuery string                `json:"effective_query,omitempty"`
	Modes          RunModes              `json:"modes"`
	Failure        *RunFailureInfo       `json:"failure,omitempty"`
}
