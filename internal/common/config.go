package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Tools     ToolsConfig     `toml:"tools"`
	Storage   StorageConfig   `toml:"storage"`
	Logging   LoggingConfig   `toml:"logging"`
	Providers ProvidersConfig `toml:"providers"`
}

// ToolsConfig groups tool feature blocks. The recruiting pipeline refuses to
// start unless tools.recruiting.enabled is true.
type ToolsConfig struct {
	Recruiting RecruitingConfig `toml:"recruiting"`
}

// RecruitingConfig is the resolved candidate-pipeline configuration
type RecruitingConfig struct {
	Enabled             bool                      `toml:"enabled"`
	Identity            IdentityConfig            `toml:"identity"`
	Run                 RunConfig                 `toml:"run"`
	BrowserVerification BrowserVerificationConfig `toml:"browser_verification"`
	DailyQuotas         DailyQuotasConfig         `toml:"daily_quotas"`
	Promotion           PromotionConfig           `toml:"promotion"`
	LaneTargeting       LaneTargetingConfig       `toml:"lane_targeting"`
	Roles               []RoleConfig              `toml:"roles"`
}

// RoleConfig is a role sourced on the daily cadence in daemon mode
type RoleConfig struct {
	RoleKey           string `toml:"role_key" validate:"required"`
	RoleTitle         string `toml:"role_title" validate:"required"`
	Keywords          string `toml:"keywords"`
	Location          string `toml:"location"`
	Industry          string `toml:"industry"`
	API               string `toml:"api"`
	TargetCandidates  int    `toml:"target_candidates"`
	SourceQueryMode   string `toml:"source_query_mode"`
	EvidenceQueryMode string `toml:"evidence_query_mode"`
}

type IdentityConfig struct {
	MinConfidenceForShortlist float64 `toml:"min_confidence_for_shortlist" validate:"gte=0,lte=1"`
}

type RunConfig struct {
	TargetCandidatesPerRole int    `toml:"target_candidates_per_role" validate:"gte=1,lte=2000"`
	DefaultCadence          string `toml:"default_cadence"` // cron expression, validated separately
}

type BrowserVerificationConfig struct {
	Enabled bool   `toml:"enabled"`
	Mode    string `toml:"mode" validate:"oneof=high_only always"`
}

type DailyQuotasConfig struct {
	PromotedTarget     int `toml:"promoted_target" validate:"gte=1,lte=100"`
	ReviewedTarget     int `toml:"reviewed_target" validate:"gte=1,lte=200"`
	VerificationBudget int `toml:"verification_budget" validate:"gte=1,lte=100"`
}

type PromotionConfig struct {
	MinProofLinks            int  `toml:"min_proof_links" validate:"gte=1,lte=10"`
	AllowUnverifiedPromotion bool `toml:"allow_unverified_promotion"`
}

// LaneTargetingConfig is validated and surfaced but not yet read by any
// pipeline step.
type LaneTargetingConfig struct {
	G1Percentage float64 `toml:"g1_percentage" validate:"gte=0,lte=1"`
	G2Percentage float64 `toml:"g2_percentage" validate:"gte=0,lte=1"`
}

type StorageConfig struct {
	SQLite SQLiteConfig `toml:"sqlite"`
}

// SQLiteConfig represents SQLite-specific configuration
type SQLiteConfig struct {
	Path          string `toml:"path"`
	CacheSizeMB   int    `toml:"cache_size_mb"`
	BusyTimeoutMS int    `toml:"busy_timeout_ms"`
	WALMode       bool   `toml:"wal_mode"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// ProvidersConfig configures the external collaborators
type ProvidersConfig struct {
	Unipile   UnipileConfig   `toml:"unipile"`
	WebSearch WebSearchConfig `toml:"web_search"`
	WebFetch  WebFetchConfig  `toml:"web_fetch"`
}

type UnipileConfig struct {
	BaseURL           string  `toml:"base_url"`
	APIKey            string  `toml:"api_key"` // usually provided via VENARI_UNIPILE_API_KEY
	AccountID         string  `toml:"account_id"`
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

type WebSearchConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

type WebFetchConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
	MaxChars       int `toml:"max_chars"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Tools: ToolsConfig{
			Recruiting: RecruitingConfig{
				Enabled: false,
				Identity: IdentityConfig{
					MinConfidenceForShortlist: 0.8,
				},
				Run: RunConfig{
					TargetCandidatesPerRole: 300,
					DefaultCadence:          "0 6 * * *",
				},
				BrowserVerification: BrowserVerificationConfig{
					Enabled: false,
					Mode:    "high_only",
				},
				DailyQuotas: DailyQuotasConfig{
					PromotedTarget:     10,
					ReviewedTarget:     30,
					VerificationBudget: 20,
				},
				Promotion: PromotionConfig{
					MinProofLinks:            2,
					AllowUnverifiedPromotion: false,
				},
			},
		},
		Storage: StorageConfig{
			SQLite: SQLiteConfig{
				Path:          "./data/venari.db",
				CacheSizeMB:   64,
				BusyTimeoutMS: 5000,
				WALMode:       true,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Providers: ProvidersConfig{
			Unipile: UnipileConfig{
				BaseURL:           "https://api.unipile.com/v1",
				Enabled:           true,
				RequestsPerSecond: 2,
			},
			WebSearch: WebSearchConfig{},
			WebFetch: WebFetchConfig{
				TimeoutSeconds: 30,
				MaxChars:       8000,
			},
		},
	}
}

// LoadFromFiles loads configuration from defaults, then each file in order,
// then environment overrides. Later sources win.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := DefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	clampRecruiting(&config.Tools.Recruiting)

	if err := Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies VENARI_-prefixed environment variables on top of
// file configuration.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("VENARI_STORE_PATH"); v != "" {
		config.Storage.SQLite.Path = v
	}
	if v := os.Getenv("VENARI_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("VENARI_RECRUITING_ENABLED"); v != "" {
		config.Tools.Recruiting.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("VENARI_UNIPILE_API_KEY"); v != "" {
		config.Providers.Unipile.APIKey = v
	}
	if v := os.Getenv("VENARI_UNIPILE_ACCOUNT_ID"); v != "" {
		config.Providers.Unipile.AccountID = v
	}
	if v := os.Getenv("VENARI_WEB_SEARCH_API_KEY"); v != "" {
		config.Providers.WebSearch.APIKey = v
	}
	if v := os.Getenv("VENARI_TARGET_CANDIDATES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Tools.Recruiting.Run.TargetCandidatesPerRole = n
		}
	}
}

// clampRecruiting forces out-of-range values back into their documented
// ranges instead of failing startup. Zero values fall back to defaults.
func clampRecruiting(rc *RecruitingConfig) {
	rc.Identity.MinConfidenceForShortlist = clampFloat(rc.Identity.MinConfidenceForShortlist, 0, 1, 0.8)
	rc.Run.TargetCandidatesPerRole = clampInt(rc.Run.TargetCandidatesPerRole, 1, 2000, 300)
	rc.DailyQuotas.PromotedTarget = clampInt(rc.DailyQuotas.PromotedTarget, 1, 100, 10)
	rc.DailyQuotas.ReviewedTarget = clampInt(rc.DailyQuotas.ReviewedTarget, 1, 200, 30)
	rc.DailyQuotas.VerificationBudget = clampInt(rc.DailyQuotas.VerificationBudget, 1, 100, 20)
	rc.Promotion.MinProofLinks = clampInt(rc.Promotion.MinProofLinks, 1, 10, 2)
	rc.LaneTargeting.G1Percentage = clampUnit(rc.LaneTargeting.G1Percentage)
	rc.LaneTargeting.G2Percentage = clampUnit(rc.LaneTargeting.G2Percentage)
	if rc.BrowserVerification.Mode == "" {
		rc.BrowserVerification.Mode = "high_only"
	}
	if rc.Run.DefaultCadence == "" {
		rc.Run.DefaultCadence = "0 6 * * *"
	}
}

func clampInt(v, min, max, def int) int {
	if v == 0 {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampFloat(v, min, max, def float64) float64 {
	if v == 0 {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ClampTargetCandidates clamps a per-run target override into [1, 2000],
// falling back to the configured default when unset.
func (c *Config) ClampTargetCandidates(target int) int {
	if target <= 0 {
		return c.Tools.Recruiting.Run.TargetCandidatesPerRole
	}
	if target > 2000 {
		return 2000
	}
	return target
}

var validate = validator.New()

// Validate checks structural constraints plus the cadence cron expression
func Validate(config *Config) error {
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cadence := config.Tools.Recruiting.Run.DefaultCadence; cadence != "" {
		if _, err := cron.ParseStandard(cadence); err != nil {
			return fmt.Errorf("invalid run cadence %q: %w", cadence, err)
		}
	}
	if strings.TrimSpace(config.Storage.SQLite.Path) == "" {
		return fmt.Errorf("storage.sqlite.path is required")
	}
	return nil
}
