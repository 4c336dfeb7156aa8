package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// CandidateStorage implements SQLite persistence for candidates and their
// per-run artifacts
type CandidateStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex
}

// NewCandidateStorage creates a new candidate storage instance
func NewCandidateStorage(db *SQLiteDB, logger arbor.ILogger) *CandidateStorage {
	return &CandidateStorage{
		db:     db,
		logger: logger,
	}
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{Valid: true, String: s}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// UpsertCandidate resolves an existing candidate by provider id, public
// identifier, then profile URL hash, in that order. New candidates get an id
// derived from the strongest natural key available.
func (s *CandidateStorage) UpsertCandidate(ctx context.Context, upsert *interfaces.CandidateUpsert) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	provider := upsert.Provider
	if provider == "" {
		provider = models.ProviderLinkedIn
	}
	urlHash := models.ProfileURLHash(upsert.ProfileURL)
	now := common.NowMillis()

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	existingID, err := s.resolveExisting(ctx, tx, provider, upsert.ProviderID, upsert.PublicIdentifier, urlHash)
	if err != nil {
		return "", err
	}

	if existingID != "" {
		_, err := tx.ExecContext(ctx, `
			UPDATE candidates SET
				provider_id = COALESCE(provider_id, ?),
				public_identifier = COALESCE(public_identifier, ?),
				profile_url = COALESCE(?, profile_url),
				profile_url_hash = COALESCE(profile_url_hash, ?),
				name = COALESCE(?, name),
				headline = COALESCE(?, headline),
				location = COALESCE(?, location),
				current_company = COALESCE(?, current_company),
				current_role = COALESCE(?, current_role),
				open_to_work = ?,
				last_seen_at = ?
			WHERE id = ?`,
			nullable(upsert.ProviderID), nullable(upsert.PublicIdentifier),
			nullable(upsert.ProfileURL), nullable(urlHash),
			nullable(upsert.Name), nullable(upsert.Headline), nullable(upsert.Location),
			nullable(upsert.CurrentCompany), nullable(upsert.CurrentRole),
			boolToInt(upsert.OpenToWork), now, existingID,
		)
		if err != nil {
			return "", fmt.Errorf("failed to update candidate: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return "", fmt.Errorf("failed to commit transaction: %w", err)
		}
		return existingID, nil
	}

	id := generateCandidateID(upsert.ProviderID, upsert.PublicIdentifier, urlHash)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO candidates (id, provider, provider_id, public_identifier, profile_url, profile_url_hash,
			name, headline, location, current_company, current_role, open_to_work, first_seen_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, provider,
		nullable(upsert.ProviderID), nullable(upsert.PublicIdentifier),
		nullable(upsert.ProfileURL), nullable(urlHash),
		nullable(upsert.Name), nullable(upsert.Headline), nullable(upsert.Location),
		nullable(upsert.CurrentCompany), nullable(upsert.CurrentRole),
		boolToInt(upsert.OpenToWork), now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert candidate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Debug().Str("candidate_id", id).Str("name", upsert.Name).Msg("Candidate created")
	return id, nil
}

func (s *CandidateStorage) resolveExisting(ctx context.Context, tx *sql.Tx, provider, providerID, publicID, urlHash string) (string, error) {
	lookups := []struct {
		column string
		value  string
	}{
		{"provider_id", providerID},
		{"public_identifier", publicID},
		{"profile_url_hash", urlHash},
	}

	for _, lookup := range lookups {
		if lookup.value == "" {
			continue
		}
		var id string
		err := tx.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT id FROM candidates WHERE provider = ? AND %s = ?`, lookup.column),
			provider, lookup.value,
		).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != sql.ErrNoRows {
			return "", fmt.Errorf("failed to resolve candidate by %s: %w", lookup.column, err)
		}
	}
	return "", nil
}

// generateCandidateID derives a stable id from the strongest natural key
func generateCandidateID(providerID, publicID, urlHash string) string {
	switch {
	case providerID != "":
		return "li:" + providerID
	case publicID != "":
		return "li_pub:" + publicID
	case urlHash != "":
		return "li_url:" + urlHash[:24]
	default:
		return common.NewCandidateID()
	}
}

// AddSourceRecord inserts a sourcing snapshot, ignoring duplicates for the
// same (candidate, run, source, rank)
func (s *CandidateStorage) AddSourceRecord(ctx context.Context, record *models.SourceRecord) error {
	_, err := s.db.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO candidate_source_records (candidate_id, run_id, source, rank, payload_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		record.CandidateID, record.RunID, record.Source, record.Rank,
		nullable(record.Payload), common.NowMillis(),
	)
	if err != nil {
		return fmt.Errorf("failed to add source record: %w", err)
	}
	return nil
}

// AddSignals batch-writes signals inside one transaction
func (s *CandidateStorage) AddSignals(ctx context.Context, candidateID, runID string, signals []models.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := common.NowMillis()
	for _, signal := range signals {
		var numeric sql.NullFloat64
		if signal.NumericValue != nil {
			numeric.Valid = true
			numeric.Float64 = *signal.NumericValue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO candidate_signals (candidate_id, run_id, key, numeric_value, source, details, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			candidateID, runID, string(signal.Key), numeric,
			nullable(signal.Source), nullable(signal.Details), now,
		); err != nil {
			return fmt.Errorf("failed to insert signal %s: %w", signal.Key, err)
		}
	}

	return tx.Commit()
}

// AddEvidenceLinks batch-writes evidence links, ignoring duplicate URLs for
// the same (candidate, run)
func (s *CandidateStorage) AddEvidenceLinks(ctx context.Context, candidateID, runID string, links []models.EvidenceLink) error {
	if len(links) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := common.NowMillis()
	for _, link := range links {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO candidate_evidence_links (candidate_id, run_id, url, title, source, relevance, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			candidateID, runID, link.URL, nullable(link.Title), nullable(link.Source),
			link.Relevance, now,
		); err != nil {
			return fmt.Errorf("failed to insert evidence link: %w", err)
		}
	}

	return tx.Commit()
}

// UpsertIdentity writes a per-(candidate, platform) identity resolution
func (s *CandidateStorage) UpsertIdentity(ctx context.Context, candidateID string, identity *models.Identity) error {
	reasons, err := json.Marshal(identity.Reasons)
	if err != nil {
		return fmt.Errorf("failed to serialize identity reasons: %w", err)
	}

	_, err = s.db.db.ExecContext(ctx, `
		INSERT INTO candidate_identities (candidate_id, platform, handle, url, confidence, band, reasons_json, shortlist_eligible, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(candidate_id, platform) DO UPDATE SET
			handle = excluded.handle,
			url = excluded.url,
			confidence = excluded.confidence,
			band = excluded.band,
			reasons_json = excluded.reasons_json,
			shortlist_eligible = excluded.shortlist_eligible,
			updated_at = excluded.updated_at`,
		candidateID, string(identity.Platform), nullable(identity.Handle), nullable(identity.URL),
		identity.Confidence, string(identity.Band), string(reasons),
		boolToInt(identity.ShortlistEligible), common.NowMillis(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert identity: %w", err)
	}
	return nil
}

// UpsertScore writes a per-(candidate, run) score
func (s *CandidateStorage) UpsertScore(ctx context.Context, candidateID, runID string, score *models.Score) error {
	concerns, err := json.Marshal(score.Concerns)
	if err != nil {
		return fmt.Errorf("failed to serialize concerns: %w", err)
	}

	now := common.NowMillis()
	_, err = s.db.db.ExecContext(ctx, `
		INSERT INTO candidate_scores (candidate_id, run_id, total, builder_activity, ai_native_evidence,
			technical_depth, role_fit, identity_confidence, concerns_json, shortlist_eligible, outreach_angle,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(candidate_id, run_id) DO UPDATE SET
			total = excluded.total,
			builder_activity = excluded.builder_activity,
			ai_native_evidence = excluded.ai_native_evidence,
			technical_depth = excluded.technical_depth,
			role_fit = excluded.role_fit,
			identity_confidence = excluded.identity_confidence,
			concerns_json = excluded.concerns_json,
			shortlist_eligible = excluded.shortlist_eligible,
			outreach_angle = excluded.outreach_angle,
			updated_at = excluded.updated_at`,
		candidateID, runID, score.Total,
		score.Breakdown.BuilderActivity, score.Breakdown.AINativeEvidence,
		score.Breakdown.TechnicalDepth, score.Breakdown.RoleFit, score.Breakdown.IdentityConfidence,
		string(concerns), boolToInt(score.ShortlistEligible), nullable(score.OutreachAngle),
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert score: %w", err)
	}
	return nil
}

// GetIdentity returns the identity resolution for a platform, or nil when none
// has been recorded
func (s *CandidateStorage) GetIdentity(ctx context.Context, candidateID string, platform models.IdentityPlatform) (*models.Identity, error) {
	row := s.db.db.QueryRowContext(ctx, `
		SELECT platform, handle, url, confidence, band, reasons_json, shortlist_eligible
		FROM candidate_identities WHERE candidate_id = ? AND platform = ?`,
		candidateID, string(platform))

	identity, err := scanIdentity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}
	return identity, nil
}

func scanIdentity(row rowScanner) (*models.Identity, error) {
	var identity models.Identity
	var platform, band string
	var handle, url, reasons sql.NullString
	var eligible int

	err := row.Scan(&platform, &handle, &url, &identity.Confidence, &band, &reasons, &eligible)
	if err != nil {
		return nil, err
	}

	identity.Platform = models.IdentityPlatform(platform)
	identity.Band = models.IdentityBand(band)
	identity.Handle = handle.String
	identity.URL = url.String
	identity.ShortlistEligible = eligible == 1
	if reasons.Valid && reasons.String != "" {
		_ = json.Unmarshal([]byte(reasons.String), &identity.Reasons)
	}
	return &identity, nil
}

// GetCandidateDetail assembles the full candidate document: profile,
// identities, latest-run signals/score/evidence, review state, verifications,
// and promotion.
func (s *CandidateStorage) GetCandidateDetail(ctx context.Context, candidateID string) (*models.CandidateDetail, error) {
	detail := &models.CandidateDetail{}

	var candidate models.Candidate
	var providerID, publicID, profileURL, urlHash, name, headline, location, company, role sql.NullString
	var openToWork int
	err := s.db.db.QueryRowContext(ctx, `
		SELECT id, provider, provider_id, public_identifier, profile_url, profile_url_hash,
			name, headline, location, current_company, current_role, open_to_work, first_seen_at, last_seen_at
		FROM candidates WHERE id = ?`, candidateID,
	).Scan(&candidate.ID, &candidate.Provider, &providerID, &publicID, &profileURL, &urlHash,
		&name, &headline, &location, &company, &role, &openToWork,
		&candidate.FirstSeenAt, &candidate.LastSeenAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("candidate not found: %s", candidateID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}

	candidate.ProviderID = providerID.String
	candidate.PublicIdentifier = publicID.String
	candidate.ProfileURL = profileURL.String
	candidate.NormalizedProfileURLHash = urlHash.String
	candidate.Name = name.String
	candidate.Headline = headline.String
	candidate.Location = location.String
	candidate.CurrentCompany = company.String
	candidate.CurrentRole = role.String
	candidate.OpenToWork = openToWork == 1
	detail.Candidate = candidate

	// Identities across all platforms
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT platform, handle, url, confidence, band, reasons_json, shortlist_eligible
		FROM candidate_identities WHERE candidate_id = ?`, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan identity: %w", err)
		}
		detail.Identities = append(detail.Identities, *identity)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Most recent run touching this candidate drives the per-run sections
	var latestRunID string
	err = s.db.db.QueryRowContext(ctx, `
		SELECT run_id FROM candidate_scores WHERE candidate_id = ?
		ORDER BY updated_at DESC LIMIT 1`, candidateID,
	).Scan(&latestRunID)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to find latest run: %w", err)
	}
	if latestRunID == "" {
		return detail, nil
	}

	if err := s.loadRunArtifacts(ctx, detail, candidateID, latestRunID); err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *CandidateStorage) loadRunArtifacts(ctx context.Context, detail *models.CandidateDetail, candidateID, runID string) error {
	sigRows, err := s.db.db.QueryContext(ctx, `
		SELECT key, numeric_value, source, details FROM candidate_signals
		WHERE candidate_id = ? AND run_id = ? ORDER BY created_at`, candidateID, runID)
	if err != nil {
		return fmt.Errorf("failed to list signals: %w", err)
	}
	defer sigRows.Close()
	for sigRows.Next() {
		var signal models.Signal
		var key string
		var numeric sql.NullFloat64
		var source, details sql.NullString
		if err := sigRows.Scan(&key, &numeric, &source, &details); err != nil {
			return fmt.Errorf("failed to scan signal: %w", err)
		}
		signal.Key = models.SignalKey(key)
		if numeric.Valid {
			v := numeric.Float64
			signal.NumericValue = &v
		}
		signal.Source = source.String
		signal.Details = details.String
		detail.Signals = append(detail.Signals, signal)
	}
	if err := sigRows.Err(); err != nil {
		return err
	}

	var score models.Score
	var concerns, angle sql.NullString
	var eligible int
	err = s.db.db.QueryRowContext(ctx, `
		SELECT total, builder_activity, ai_native_evidence, technical_depth, role_fit, identity_confidence,
			concerns_json, shortlist_eligible, outreach_angle
		FROM candidate_scores WHERE candidate_id = ? AND run_id = ?`, candidateID, runID,
	).Scan(&score.Total, &score.Breakdown.BuilderActivity, &score.Breakdown.AINativeEvidence,
		&score.Breakdown.TechnicalDepth, &score.Breakdown.RoleFit, &score.Breakdown.IdentityConfidence,
		&concerns, &eligible, &angle)
	if err == nil {
		score.ShortlistEligible = eligible == 1
		score.OutreachAngle = angle.String
		if concerns.Valid && concerns.String != "" {
			_ = json.Unmarshal([]byte(concerns.String), &score.Concerns)
		}
		detail.Score = &score
	} else if err != sql.ErrNoRows {
		return fmt.Errorf("failed to get score: %w", err)
	}

	evRows, err := s.db.db.QueryContext(ctx, `
		SELECT url, title, source, relevance, created_at FROM candidate_evidence_links
		WHERE candidate_id = ? AND run_id = ? ORDER BY relevance DESC, created_at DESC`, candidateID, runID)
	if err != nil {
		return fmt.Errorf("failed to list evidence: %w", err)
	}
	defer evRows.Close()
	for evRows.Next() {
		var link models.EvidenceLink
		var title, source sql.NullString
		if err := evRows.Scan(&link.URL, &title, &source, &link.Relevance, &link.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan evidence link: %w", err)
		}
		link.Title = title.String
		link.Source = source.String
		detail.Evidence = append(detail.Evidence, link)
	}
	if err := evRows.Err(); err != nil {
		return err
	}

	var review models.Review
	var notes sql.NullString
	var status string
	err = s.db.db.QueryRowContext(ctx, `
		SELECT status, priority, notes, created_at, updated_at FROM candidate_reviews
		WHERE candidate_id = ? AND run_id = ?`, candidateID, runID,
	).Scan(&status, &review.Priority, &notes, &review.CreatedAt, &review.UpdatedAt)
	if err == nil {
		review.CandidateID = candidateID
		review.RunID = runID
		review.Status = models.ReviewStatus(status)
		review.Notes = notes.String
		detail.Review = &review
	} else if err != sql.ErrNoRows {
		return fmt.Errorf("failed to get review: %w", err)
	}

	verRows, err := s.db.db.QueryContext(ctx, `
		SELECT method, outcome, confidence_before, confidence_after, proof_links_json, notes, created_at
		FROM candidate_verifications WHERE candidate_id = ? AND run_id = ?
		ORDER BY created_at DESC`, candidateID, runID)
	if err != nil {
		return fmt.Errorf("failed to list verifications: %w", err)
	}
	defer verRows.Close()
	for verRows.Next() {
		var verification models.Verification
		var method, outcome string
		var proofLinks, verNotes sql.NullString
		if err := verRows.Scan(&method, &outcome, &verification.ConfidenceBefore,
			&verification.ConfidenceAfter, &proofLinks, &verNotes, &verification.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan verification: %w", err)
		}
		verification.CandidateID = candidateID
		verification.RunID = runID
		verification.Method = models.VerificationMethod(method)
		verification.Outcome = models.VerificationOutcome(outcome)
		verification.Notes = verNotes.String
		if proofLinks.Valid && proofLinks.String != "" {
			_ = json.Unmarshal([]byte(proofLinks.String), &verification.ProofLinks)
		}
		detail.Verifications = append(detail.Verifications, verification)
	}
	if err := verRows.Err(); err != nil {
		return err
	}

	var promotion models.Promotion
	var reason, promotionAngle, proofLinks sql.NullString
	var override sql.NullFloat64
	err = s.db.db.QueryRowContext(ctx, `
		SELECT promotion_reason, confidence_override, outreach_angle, proof_links_json, promoted_at
		FROM candidate_promotions WHERE candidate_id = ? AND run_id = ?`, candidateID, runID,
	).Scan(&reason, &override, &promotionAngle, &proofLinks, &promotion.PromotedAt)
	if err == nil {
		promotion.CandidateID = candidateID
		promotion.RunID = runID
		promotion.PromotionReason = reason.String
		promotion.OutreachAngle = promotionAngle.String
		if override.Valid {
			v := override.Float64
			promotion.ConfidenceOverride = &v
		}
		if proofLinks.Valid && proofLinks.String != "" {
			_ = json.Unmarshal([]byte(proofLinks.String), &promotion.ProofLinks)
		}
		detail.Promotion = &promotion
	} else if err != sql.ErrNoRows {
		return fmt.Errorf("failed to get promotion: %w", err)
	}

	return nil
}
