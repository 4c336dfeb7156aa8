package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ternarybob/venari/internal/app"
	"github.com/ternarybob/venari/internal/models"
)

var recruitingCmd = &cobra.Command{
	Use:   "recruiting",
	Short: "Candidate pipeline operations",
}

var (
	runRoleKey           string
	runRoleTitle         string
	runKeywords          string
	runRoleKeywords      []string
	runSkills            []string
	runCompanies         []string
	runLocation          string
	runIndustry          string
	runAPI               string
	runAccountID         string
	runTargetCandidates  int
	runIdempotencyKey    string
	runSourceQueryMode   string
	runEvidenceQueryMode string
	runBrowserVerify     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Source, enrich, and score candidates for a role",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			input := &models.RunInput{
				Role: models.RoleSpec{
					RoleKey:   runRoleKey,
					RoleTitle: runRoleTitle,
					Search: models.SearchCriteria{
						Keywords:     runKeywords,
						RoleKeywords: toFilters(runRoleKeywords),
						Skills:       toFilters(runSkills),
						Companies:    toFilters(runCompanies),
						Location:     runLocation,
						Industry:     runIndustry,
						API:          runAPI,
						AccountID:    runAccountID,
					},
					TargetCandidates: runTargetCandidates,
				},
				IdempotencyKey:             runIdempotencyKey,
				BrowserVerificationEnabled: runBrowserVerify,
				SourceQueryMode:            models.SourceQueryMode(runSourceQueryMode),
				EvidenceQueryMode:          models.EvidenceQueryMode(runEvidenceQueryMode),
			}

			handle := a.Pipeline.Run(cmd.Context(), input)
			return emit(handle, func() {
				fmt.Printf("Run %s (%s)", handle.RunID, handle.Status)
				if handle.Resumed {
					fmt.Print(" [resumed]")
				}
				fmt.Println()
			})
		})
	},
}

var (
	statusRunID string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show run status, or the 20 most recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			runs, err := a.Pipeline.Status(cmd.Context(), statusRunID)
			if err != nil {
				return err
			}
			var payload interface{} = runs
			if statusRunID != "" && len(runs) == 1 {
				payload = runs[0]
			}
			return emit(payload, func() {
				for _, run := range runs {
					fmt.Printf("%s  %-10s  %s (%s)\n", run.ID, run.Status, run.RoleKey, run.RoleTitle)
				}
			})
		})
	},
}

var (
	resultsRunID string
	resultsLimit int
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show scored candidates for a run",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			results, err := a.Pipeline.Results(cmd.Context(), resultsRunID, resultsLimit)
			if err != nil {
				return err
			}
			return emit(results, func() {
				fmt.Printf("Shortlist (%d):\n", len(results.Shortlist))
				for _, row := range results.Shortlist {
					fmt.Printf("  %.3f  %s  %s\n", row.TotalScore, row.CandidateID, row.Name)
				}
				fmt.Printf("Review queue (%d):\n", len(results.ReviewQueue))
				for _, row := range results.ReviewQueue {
					fmt.Printf("  %.3f  %s  %s\n", row.TotalScore, row.CandidateID, row.Name)
				}
			})
		})
	},
}

var candidateCmd = &cobra.Command{
	Use:   "candidate <id>",
	Short: "Show the full candidate document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			detail, err := a.Pipeline.Candidate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return emit(detail, func() {
				fmt.Printf("%s  %s\n", detail.Candidate.ID, detail.Candidate.Name)
				if detail.Score != nil {
					fmt.Printf("  score: %.3f  shortlist: %v\n", detail.Score.Total, detail.Score.ShortlistEligible)
				}
			})
		})
	},
}

var (
	reviewRunID  string
	reviewStatus string
	reviewNotes  string
)

var reviewCmd = &cobra.Command{
	Use:   "review <candidate-id>",
	Short: "Update a candidate's review status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			err := a.Pipeline.UpdateReviewStatus(cmd.Context(), args[0], reviewRunID,
				models.ReviewStatus(reviewStatus), reviewNotes)
			if err != nil {
				return err
			}
			return emit(map[string]interface{}{"success": true}, func() {
				fmt.Println("Review updated")
			})
		})
	},
}

var (
	verifyRunID      string
	verifyMethod     string
	verifyOutcome    string
	verifyConfidence float64
	verifyProofLinks []string
	verifyNotes      string
)

var verifyCmd = &cobra.Command{
	Use:   "verify <candidate-id>",
	Short: "Submit an identity verification result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			err := a.Pipeline.SubmitVerification(cmd.Context(), &models.Verification{
				CandidateID:     args[0],
				RunID:           verifyRunID,
				Method:          models.VerificationMethod(verifyMethod),
				Outcome:         models.VerificationOutcome(verifyOutcome),
				ConfidenceAfter: verifyConfidence,
				ProofLinks:      verifyProofLinks,
				Notes:           verifyNotes,
			})
			if err != nil {
				return err
			}
			return emit(map[string]interface{}{"success": true}, func() {
				fmt.Println("Verification recorded")
			})
		})
	},
}

var (
	promoteRunID      string
	promoteReason     string
	promoteAngle      string
	promoteProofLinks []string
)

var promoteCmd = &cobra.Command{
	Use:   "promote <candidate-id>",
	Short: "Promote a candidate to the shortlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			result, err := a.Pipeline.PromoteCandidate(cmd.Context(), &models.Promotion{
				CandidateID:     args[0],
				RunID:           promoteRunID,
				PromotionReason: promoteReason,
				OutreachAngle:   promoteAngle,
				ProofLinks:      promoteProofLinks,
			})
			if err != nil {
				return err
			}
			return emit(result, func() {
				if result.Success {
					fmt.Println("Candidate promoted")
				} else {
					fmt.Printf("Promotion refused: %s\n", result.Error)
				}
			})
		})
	},
}

var (
	queueRunID    string
	queuePriority string
	queueLimit    int
)

var verificationQueueCmd = &cobra.Command{
	Use:   "verification-queue",
	Short: "List candidates awaiting verification",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			items, err := a.Pipeline.GetVerificationQueue(cmd.Context(), queueRunID, queuePriority, queueLimit)
			if err != nil {
				return err
			}
			return emit(items, func() {
				for _, item := range items {
					fmt.Printf("  p%-3d  %.3f  %s  %s\n", item.Priority, item.TotalScore, item.CandidateID, item.Name)
				}
			})
		})
	},
}

var (
	reportRunID   string
	reportRoleKey string
	reportDate    string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the daily pipeline report",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			report, err := a.Pipeline.GetDailyReport(cmd.Context(), reportRunID, reportRoleKey, reportDate)
			if err != nil {
				return err
			}
			return emit(report, func() {
				fmt.Printf("Run %s (%s): sourced %d, enriched %d\n",
					report.Contract.RunID, report.Contract.Status,
					report.Contract.Sourced, report.Contract.Enriched)
				fmt.Printf("Quota %s: promoted %d/%d, reviewed %d/%d, verifications %d/%d\n",
					report.Quota.Date,
					report.Quota.Promoted, report.Quota.PromotedTarget,
					report.Quota.Reviewed, report.Quota.ReviewedTarget,
					report.Quota.Verifications, report.Quota.VerificationBudget)
			})
		})
	},
}

func init() {
	runCmd.Flags().StringVar(&runRoleKey, "role-key", "", "Role key (required)")
	runCmd.Flags().StringVar(&runRoleTitle, "role-title", "", "Role title (required)")
	runCmd.Flags().StringVar(&runKeywords, "keywords", "", "Search keywords")
	runCmd.Flags().StringArrayVar(&runRoleKeywords, "role-keyword", nil, "Role keyword filter (repeatable)")
	runCmd.Flags().StringArrayVar(&runSkills, "skill", nil, "Skill filter (repeatable)")
	runCmd.Flags().StringArrayVar(&runCompanies, "company", nil, "Company filter (repeatable)")
	runCmd.Flags().StringVar(&runLocation, "location", "", "Location filter")
	runCmd.Flags().StringVar(&runIndustry, "industry", "", "Industry filter")
	runCmd.Flags().StringVar(&runAPI, "api", "classic", "LinkedIn API tier (classic, recruiter, sales_navigator)")
	runCmd.Flags().StringVar(&runAccountID, "account-id", "", "Override sourcing account id")
	runCmd.Flags().IntVar(&runTargetCandidates, "target-candidates", 0, "Target candidate count (clamped to [1,2000])")
	runCmd.Flags().StringVar(&runIdempotencyKey, "idempotency-key", "", "Explicit idempotency key")
	runCmd.Flags().StringVar(&runSourceQueryMode, "source-query-mode", "default", "Source query mode (default, broad)")
	runCmd.Flags().StringVar(&runEvidenceQueryMode, "evidence-query-mode", "default", "Evidence query mode (default, strict)")
	runCmd.Flags().BoolVar(&runBrowserVerify, "browser-verification", false, "Flag candidates for browser verification")
	runCmd.MarkFlagRequired("role-key")
	runCmd.MarkFlagRequired("role-title")

	statusCmd.Flags().StringVar(&statusRunID, "run-id", "", "Run id")

	resultsCmd.Flags().StringVar(&resultsRunID, "run-id", "", "Run id (required)")
	resultsCmd.Flags().IntVar(&resultsLimit, "limit", 100, "Maximum candidates returned")
	resultsCmd.MarkFlagRequired("run-id")

	reviewCmd.Flags().StringVar(&reviewRunID, "run-id", "", "Run id (required)")
	reviewCmd.Flags().StringVar(&reviewStatus, "status", "", "New review status (required)")
	reviewCmd.Flags().StringVar(&reviewNotes, "notes", "", "Review notes")
	reviewCmd.MarkFlagRequired("run-id")
	reviewCmd.MarkFlagRequired("status")

	verifyCmd.Flags().StringVar(&verifyRunID, "run-id", "", "Run id (required)")
	verifyCmd.Flags().StringVar(&verifyMethod, "method", "browser", "Verification method (browser, api)")
	verifyCmd.Flags().StringVar(&verifyOutcome, "outcome", "", "Outcome (confirmed, rejected, inconclusive) (required)")
	verifyCmd.Flags().Float64Var(&verifyConfidence, "confidence", 0, "Confidence after verification")
	verifyCmd.Flags().StringArrayVar(&verifyProofLinks, "proof-link", nil, "Proof link URL (repeatable)")
	verifyCmd.Flags().StringVar(&verifyNotes, "notes", "", "Verification notes")
	verifyCmd.MarkFlagRequired("run-id")
	verifyCmd.MarkFlagRequired("outcome")

	promoteCmd.Flags().StringVar(&promoteRunID, "run-id", "", "Run id (required)")
	promoteCmd.Flags().StringVar(&promoteReason, "reason", "", "Promotion reason")
	promoteCmd.Flags().StringVar(&promoteAngle, "outreach-angle", "", "Outreach angle")
	promoteCmd.Flags().StringArrayVar(&promoteProofLinks, "proof-link", nil, "Proof link URL (repeatable)")
	promoteCmd.MarkFlagRequired("run-id")

	verificationQueueCmd.Flags().StringVar(&queueRunID, "run-id", "", "Run id (required)")
	verificationQueueCmd.Flags().StringVar(&queuePriority, "priority", "", "Filter: high restricts to priority >= 50")
	verificationQueueCmd.Flags().IntVar(&queueLimit, "limit", 20, "Maximum queue entries")
	verificationQueueCmd.MarkFlagRequired("run-id")

	reportCmd.Flags().StringVar(&reportRunID, "run-id", "", "Run id (resolved from role key when omitted)")
	reportCmd.Flags().StringVar(&reportRoleKey, "role-key", "", "Role key")
	reportCmd.Flags().StringVar(&reportDate, "date", "", "Report date YYYY-MM-DD UTC (defaults to today)")

	recruitingCmd.AddCommand(runCmd, statusCmd, resultsCmd, candidateCmd,
		reviewCmd, verifyCmd, promoteCmd, verificationQueueCmd, reportCmd)
}

// toFilters converts repeatable flag values into search filter fragments
func toFilters(values []string) []models.SearchFilter {
	if len(values) == 0 {
		return nil
	}
	filters := make([]models.SearchFilter, 0, len(values))
	for _, v := range values {
		filters = append(filters, models.SearchFilter{Text: v})
	}
	return filters
}

// withApp wires the application for one command invocation
func withApp(fn func(*app.App) error) error {
	a, err := app.New(config, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// emit prints JSON when --json is set, otherwise runs the human renderer
func emit(payload interface{}, human func()) error {
	if jsonOutput {
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	}
	human()
	return nil
}
