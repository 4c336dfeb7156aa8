package models

// ReviewStatus is the human-in-the-loop workflow state for a (candidate, run)
type ReviewStatus string

const (
	ReviewStatusNew               ReviewStatus = "new_review"
	ReviewStatusUnderVerification ReviewStatus = "under_verification"
	ReviewStatusPromotedShortlist ReviewStatus = "promoted_shortlist"
	ReviewStatusRejected          ReviewStatus = "rejected"
	ReviewStatusDeferred          ReviewStatus = "deferred"
)

// Review is the upsert-keyed workflow row for a (candidate, run)
type Review struct {
	CandidateID string       `json:"candidate_id"`
	RunID       string       `json:"run_id"`
	Status      ReviewStatus `json:"status"`
	Priority    int          `json:"priority,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	CreatedAt   int64        `json:"created_at,omitempty"`
	UpdatedAt   int64        `json:"updated_at,omitempty"`
}

// VerificationMethod is how an identity verification was performed
type VerificationMethod string

const (
	VerificationMethodBrowser VerificationMethod = "browser"
	VerificationMethodAPI     VerificationMethod = "api"
)

// VerificationOutcome is the result of a verification attempt
type VerificationOutcome string

const (
	VerificationConfirmed    VerificationOutcome = "confirmed"
	VerificationRejected     VerificationOutcome = "rejected"
	VerificationInconclusive VerificationOutcome = "inconclusive"
)

// Verification is an append-only identity verification record
type Verification struct {
	CandidateID      string              `json:"candidate_id"`
	RunID            string              `json:"run_id"`
	Method           VerificationMethod  `json:"method"`
	Outcome          VerificationOutcome `json:"outcome"`
	ConfidenceBefore float64             `json:"confidence_before"`
	ConfidenceAfter  float64             `json:"confidence_after"`
	ProofLinks       []string            `json:"proof_links,omitempty"`
	Notes            string              `json:"notes,omitempty"`
	CreatedAt        int64               `json:"created_at,omitempty"`
}

// Promotion is the single shortlist-promotion record for a (candidate, run)
type Promotion struct {
	CandidateID        string   `json:"candidate_id"`
	RunID              string   `json:"run_id"`
	PromotionReason    string   `json:"promotion_reason"`
	ConfidenceOverride *float64 `json:"confidence_override,omitempty"`
	OutreachAngle      string   `json:"outreach_angle,omitempty"`
	ProofLinks         []string `json:"proof_links"`
	PromotedAt         int64    `json:"promoted_at"`
}

// PromotionResult is returned by promoteCandidate. Business precondition
// failures come back as {Success:false, Error} rather than a thrown error.
type PromotionResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// VerificationQueueItem is a row of the under-verification queue
type VerificationQueueItem struct {
	CandidateID string  `json:"candidate_id"`
	RunID       string  `json:"run_id"`
	Name        string  `json:"name,omitempty"`
	Headline    string  `json:"headline,omitempty"`
	ProfileURL  string  `json:"profile_url,omitempty"`
	Priority    int     `json:"priority"`
	TotalScore  float64 `json:"total_score"`
	Confidence  float64 `json:"confidence"`
	Band        string  `json:"band,omitempty"`
}
