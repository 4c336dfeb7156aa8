package sqlite

// All timestamps are UTC epoch milliseconds.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS pipeline_runs (
	id TEXT PRIMARY KEY,
	idempotency_key TEXT UNIQUE,
	status TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	finished_at INTEGER,
	target_candidates INTEGER NOT NULL,
	role_key TEXT NOT NULL,
	role_title TEXT NOT NULL,
	config_json TEXT,
	summary_json TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_role ON pipeline_runs(role_key, started_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_started ON pipeline_runs(started_at DESC);

CREATE TABLE IF NOT EXISTS run_roles (
	run_id TEXT NOT NULL REFERENCES pipeline_runs(id),
	role_key TEXT NOT NULL,
	role_title TEXT NOT NULL,
	criteria_json TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	UNIQUE(run_id, role_key)
);

CREATE TABLE IF NOT EXISTS candidates (
	id TEXT PRIMARY KEY,
	provider TEXT NOT NULL,
	provider_id TEXT,
	public_identifier TEXT,
	profile_url TEXT,
	profile_url_hash TEXT,
	name TEXT,
	headline TEXT,
	location TEXT,
	current_company TEXT,
	current_role TEXT,
	open_to_work INTEGER DEFAULT 0,
	first_seen_at INTEGER NOT NULL,
	last_seen_at INTEGER NOT NULL,
	UNIQUE(provider, provider_id),
	UNIQUE(provider, public_identifier),
	UNIQUE(provider, profile_url_hash)
);

CREATE TABLE IF NOT EXISTS candidate_source_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	candidate_id TEXT NOT NULL REFERENCES candidates(id),
	run_id TEXT NOT NULL REFERENCES pipeline_runs(id),
	source TEXT NOT NULL,
	rank INTEGER NOT NULL,
	payload_json TEXT,
	created_at INTEGER NOT NULL,
	UNIQUE(candidate_id, run_id, source, rank)
);

CREATE TABLE IF NOT EXISTS candidate_identities (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	candidate_id TEXT NOT NULL REFERENCES candidates(id),
	platform TEXT NOT NULL,
	handle TEXT,
	url TEXT,
	confidence REAL NOT NULL DEFAULT 0,
	band TEXT NOT NULL,
	reasons_json TEXT,
	shortlist_eligible INTEGER NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL,
	UNIQUE(candidate_id, platform)
);

CREATE TABLE IF NOT EXISTS candidate_signals (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	candidate_id TEXT NOT NULL REFERENCES candidates(id),
	run_id TEXT NOT NULL REFERENCES pipeline_runs(id),
	key TEXT NOT NULL,
	numeric_value REAL,
	source TEXT,
	details TEXT,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_signals_candidate ON candidate_signals(candidate_id, run_id, key);

CREATE TABLE IF NOT EXISTS candidate_scores (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	candidate_id TEXT NOT NULL REFERENCES candidates(id),
	run_id TEXT NOT NULL REFERENCES pipeline_runs(id),
	total REAL NOT NULL,
	builder_activity REAL NOT NULL DEFAULT 0,
	ai_native_evidence REAL NOT NULL DEFAULT 0,
	technical_depth REAL NOT NULL DEFAULT 0,
	role_fit REAL NOT NULL DEFAULT 0,
	identity_confidence REAL NOT NULL DEFAULT 0,
	concerns_json TEXT,
	shortlist_eligible INTEGER NOT NULL DEFAULT 0,
	outreach_angle TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	UNIQUE(candidate_id, run_id)
);

CREATE INDEX IF NOT EXISTS idx_scores_run ON candidate_scores(run_id, total DESC);

CREATE TABLE IF NOT EXISTS candidate_evidence_links (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	candidate_id TEXT NOT NULL REFERENCES candidates(id),
	run_id TEXT NOT NULL REFERENCES pipeline_runs(id),
	url TEXT NOT NULL,
	title TEXT,
	source TEXT,
	relevance REAL NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	UNIQUE(candidate_id, run_id, url)
);

CREATE TABLE IF NOT EXISTS run_failures (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES pipeline_runs(id),
	stage TEXT NOT NULL,
	candidate_ref TEXT,
	error_type TEXT NOT NULL,
	message TEXT,
	retryable INTEGER NOT NULL DEFAULT 0,
	payload_json TEXT,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_failures_run ON run_failures(run_id, created_at DESC);

CREATE TABLE IF NOT EXISTS candidate_reviews (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	candidate_id TEXT NOT NULL REFERENCES candidates(id),
	run_id TEXT NOT NULL REFERENCES pipeline_runs(id),
	status TEXT NOT NULL,
	priority INTEGER NOT NULL DEFAULT 0,
	notes TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	UNIQUE(candidate_id, run_id)
);

CREATE INDEX IF NOT EXISTS idx_reviews_run ON candidate_reviews(run_id, status);

CREATE TABLE IF NOT EXISTS candidate_verifications (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	candidate_id TEXT NOT NULL REFERENCES candidates(id),
	run_id TEXT NOT NULL REFERENCES pipeline_runs(id),
	method TEXT NOT NULL,
	outcome TEXT NOT NULL,
	confidence_before REAL NOT NULL DEFAULT 0,
	confidence_after REAL NOT NULL DEFAULT 0,
	proof_links_json TEXT,
	notes TEXT,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_verifications_run ON candidate_verifications(run_id, created_at DESC);

CREATE TABLE IF NOT EXISTS candidate_promotions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	candidate_id TEXT NOT NULL REFERENCES candidates(id),
	run_id TEXT NOT NULL REFERENCES pipeline_runs(id),
	promotion_reason TEXT,
	confidence_override REAL,
	outreach_angle TEXT,
	proof_links_json TEXT NOT NULL,
	promoted_at INTEGER NOT NULL,
	UNIQUE(candidate_id, run_id)
);

CREATE TABLE IF NOT EXISTS daily_run_outputs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES pipeline_runs(id),
	role_key TEXT NOT NULL,
	date TEXT NOT NULL,
	sourced INTEGER NOT NULL DEFAULT 0,
	enriched INTEGER NOT NULL DEFAULT 0,
	promoted INTEGER NOT NULL DEFAULT 0,
	reviewed INTEGER NOT NULL DEFAULT 0,
	verified INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	UNIQUE(run_id, role_key, date)
);
`
