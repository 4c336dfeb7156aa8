package interfaces

import (
	"context"

	"github.com/ternarybob/venari/internal/models"
)

// BeginRunInput creates or resumes a pipeline run
type BeginRunInput struct {
	IdempotencyKey   string
	RoleKey          string
	RoleTitle        string
	TargetCandidates int
	Criteria         models.SearchCriteria
	Modes            models.RunModes
}

// BeginRunResult reports the winning run for an idempotency key
type BeginRunResult struct {
	RunID   string
	Resumed bool
	Status  models.RunStatus
}

// CandidateUpsert carries the mutable candidate fields for an upsert
type CandidateUpsert struct {
	Provider         string
	ProviderID       string
	PublicIdentifier string
	ProfileURL       string
	Name             string
	Headline         string
	Location         string
	CurrentCompany   string
	CurrentRole      string
	OpenToWork       bool
}

// RunStorage persists pipeline runs and their failures
type RunStorage interface {
	// BeginRun is idempotent: an existing run with the same non-empty key in
	// status running or completed is returned as-is with Resumed=true.
	// Concurrent same-key calls must both observe one winning insert.
	BeginRun(ctx context.Context, input *BeginRunInput) (*BeginRunResult, error)
	MarkRunCompleted(ctx context.Context, runID string, diagnostics *models.PipelineDiagnostics) error
	MarkRunFailed(ctx context.Context, runID string, diagnostics *models.PipelineDiagnostics) error
	GetRunStatus(ctx context.Context, runID string) (*models.PipelineRun, error)
	ListRecentRuns(ctx context.Context, limit int) ([]*models.PipelineRun, error)
	AddRunFailure(ctx context.Context, runID string, failure *models.RunFailure) error
}

// CandidateStorage persists candidates and their per-run artifacts
type CandidateStorage interface {
	// UpsertCandidate resolves an existing candidate by provider id, public
	// identifier, then profile URL hash, in that order, and returns its id.
	UpsertCandidate(ctx context.Context, upsert *CandidateUpsert) (string, error)
	AddSourceRecord(ctx context.Context, record *models.SourceRecord) error
	AddSignals(ctx context.Context, candidateID, runID string, signals []models.Signal) error
	AddEvidenceLinks(ctx context.Context, candidateID, runID string, links []models.EvidenceLink) error
	UpsertIdentity(ctx context.Context, candidateID string, identity *models.Identity) error
	UpsertScore(ctx context.Context, candidateID, runID string, score *models.Score) error
	GetIdentity(ctx context.Context, candidateID string, platform models.IdentityPlatform) (*models.Identity, error)
	GetCandidateDetail(ctx context.Context, candidateID string) (*models.CandidateDetail, error)
}

// ReviewStorage persists the human review workflow state
type ReviewStorage interface {
	UpsertReviewStatus(ctx context.Context, candidateID, runID string, status models.ReviewStatus, notes string) error
	GetReview(ctx context.Context, candidateID, runID string) (*models.Review, error)
	InsertVerification(ctx context.Context, verification *models.Verification) error
	// InsertPromotion also upserts the review to promoted_shortlist in the
	// same transaction; it is the single source of truth for that transition.
	InsertPromotion(ctx context.Context, promotion *models.Promotion) error
	HasPromotion(ctx context.Context, candidateID, runID string) (bool, error)
	HasConfirmedVerification(ctx context.Context, candidateID, runID string) (bool, error)
	GetVerificationQueue(ctx context.Context, runID, priority string, limit int) ([]*models.VerificationQueueItem, error)
}

// ReportStorage serves the read-side result and report queries
type ReportStorage interface {
	GetResults(ctx context.Context, runID string, limit int) (*models.CandidatePipelineResults, error)
	GetWorkflowStats(ctx context.Context, runID, date string) (*models.WorkflowStats, error)
	GetVerificationStats(ctx context.Context, runID, date string) (*models.VerificationStats, error)
	GetQuotaStatus(ctx context.Context, runID, date string, quotas models.QuotaTargets) (*models.QuotaStatus, error)
	FindLatestRunForRole(ctx context.Context, roleKey string) (string, error)
	UpsertDailyOutput(ctx context.Context, output *models.DailyOutput) error
}

// PipelineStorage is the full persistence surface the orchestrator needs
type PipelineStorage interface {
	RunStorage
	CandidateStorage
	ReviewStorage
	ReportStorage
}
