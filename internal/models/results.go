package models

// CandidateResult is one scored candidate row in the results view
type CandidateResult struct {
	CandidateID       string         `json:"candidate_id"`
	Name              string         `json:"name,omitempty"`
	Headline          string         `json:"headline,omitempty"`
	Location          string         `json:"location,omitempty"`
	CurrentCompany    string         `json:"current_company,omitempty"`
	CurrentRole       string         `json:"current_role,omitempty"`
	ProfileURL        string         `json:"profile_url,omitempty"`
	TotalScore        float64        `json:"total_score"`
	Breakdown         ScoreBreakdown `json:"breakdown"`
	Concerns          []string       `json:"concerns,omitempty"`
	ShortlistEligible bool           `json:"shortlist_eligible"`
	OutreachAngle     string         `json:"outreach_angle,omitempty"`
	Identity          *Identity      `json:"identity,omitempty"` // cross-platform resolution
	Evidence          []EvidenceLink `json:"evidence,omitempty"` // top 3 by (relevance DESC, created_at DESC)
}

// ResultsMeta carries run-level context alongside result rows
type ResultsMeta struct {
	RunID       string               `json:"run_id"`
	Status      RunStatus            `json:"status"`
	RoleKey     string               `json:"role_key,omitempty"`
	RoleTitle   string               `json:"role_title,omitempty"`
	Modes       RunModes             `json:"modes"`
	Diagnostics *PipelineDiagnostics `json:"diagnostics,omitempty"`
}

// CandidatePipelineResults partitions scored candidates into the shortlist and
// the review queue
type CandidatePipelineResults struct {
	Shortlist   []CandidateResult `json:"shortlist"`
	ReviewQueue []CandidateResult `json:"review_queue"`
	Meta        ResultsMeta       `json:"meta"`
}

// CandidateDetail is the full per-candidate document for the detail view
type CandidateDetail struct {
	Candidate     Candidate      `json:"candidate"`
	Identities    []Identity     `json:"identities,omitempty"`
	Signals       []Signal       `json:"signals,omitempty"`
	Score         *Score         `json:"score,omitempty"`
	Evidence      []EvidenceLink `json:"evidence,omitempty"`
	Review        *Review        `json:"review,omitempty"`
	Verifications []Verification `json:"verifications,omitempty"`
	Promotion     *Promotion     `json:"promotion,omitempty"`
}

// WorkflowStats counts reviews by workflow state within a UTC day window
type WorkflowStats struct {
	NewReview         int `json:"new_review"`
	UnderVerification int `json:"under_verification"`
	PromotedShortlist int `json:"promoted_shortlist"`
	Rejected          int `json:"rejected"`
	Deferred          int `json:"deferred"`
	Total             int `json:"total"`
}

// VerificationStats counts verification outcomes within a UTC day window
type VerificationStats struct {
	Confirmed    int `json:"confirmed"`
	Rejected     int `json:"rejected"`
	Inconclusive int `json:"inconclusive"`
	Total        int `json:"total"`
}

// QuotaTargets are the configured daily quota ceilings
type QuotaTargets struct {
	PromotedTarget     int `json:"promoted_target"`
	ReviewedTarget     int `json:"reviewed_target"`
	VerificationBudget int `json:"verification_budget"`
}

// QuotaStatus compares daily activity to the configured targets
type QuotaStatus struct {
	Date                string `json:"date"`
	Promoted            int    `json:"promoted"`
	PromotedTarget      int    `json:"promoted_target"`
	Reviewed            int    `json:"reviewed"`
	ReviewedTarget      int    `json:"reviewed_target"`
	Verifications       int    `json:"verifications"`
	VerificationBudget  int    `json:"verification_budget"`
	PromotedRemaining   int    `json:"promoted_remaining"`
	ReviewedRemaining   int    `json:"reviewed_remaining"`
	VerificationsRemaining int `json:"verifications_remaining"`
}

// ContractStatus summarises whether the run produced its targeted volume
type ContractStatus struct {
	RunID            string    `json:"run_id"`
	RoleKey          string    `json:"role_key"`
	Status           RunStatus `json:"status"`
	TargetCandidates int       `json:"target_candidates"`
	Sourced          int       `json:"sourced"`
	Enriched         int       `json:"enriched"`
	ShortlistEligible int      `json:"shortlist_eligible"`
}

// DailyReport is the operator-facing daily rollup
type DailyReport struct {
	Contract     ContractStatus    `json:"contract"`
	Workflow     WorkflowStats     `json:"workflow"`
	Verification VerificationStats `json:"verification"`
	Quota        QuotaStatus       `json:"quota"`
}

// DailyOutput is the per-(run, role, date) aggregate counter row
type DailyOutput struct {
	RunID     string `json:"run_id"`
	RoleKey   string `json:"role_key"`
	Date      string `json:"date"` // YYYY-MM-DD UTC
	Sourced   int    `json:"sourced"`
	Enriched  int    `json:"enriched"`
	Promoted  int    `json:"promoted"`
	Reviewed  int    `json:"reviewed"`
	Verified  int    `json:"verified"`
	UpdatedAt int64  `json:"updated_at,omitempty"`
}
