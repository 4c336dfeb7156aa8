package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.False(t, config.Tools.Recruiting.Enabled)
	assert.Equal(t, 0.8, config.Tools.Recruiting.Identity.MinConfidenceForShortlist)
	assert.Equal(t, 300, config.Tools.Recruiting.Run.TargetCandidatesPerRole)
	assert.Equal(t, "0 6 * * *", config.Tools.Recruiting.Run.DefaultCadence)
	assert.Equal(t, 10, config.Tools.Recruiting.DailyQuotas.PromotedTarget)
	assert.Equal(t, 30, config.Tools.Recruiting.DailyQuotas.ReviewedTarget)
	assert.Equal(t, 20, config.Tools.Recruiting.DailyQuotas.VerificationBudget)
	assert.Equal(t, 2, config.Tools.Recruiting.Promotion.MinProofLinks)
	assert.Equal(t, "high_only", config.Tools.Recruiting.BrowserVerification.Mode)

	require.NoError(t, Validate(config))
}

func TestLoadFromFiles_OverridesAndClamps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "venari.toml")
	content := `
[tools.recruiting]
enabled = true

[tools.recruiting.run]
target_candidates_per_role = 9000

[tools.recruiting.daily_quotas]
promoted_target = 500

[tools.recruiting.promotion]
min_proof_links = 3

[storage.sqlite]
path = "` + filepath.Join(dir, "venari.db") + `"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.True(t, config.Tools.Recruiting.Enabled)
	assert.Equal(t, 2000, config.Tools.Recruiting.Run.TargetCandidatesPerRole, "clamped to range max")
	assert.Equal(t, 100, config.Tools.Recruiting.DailyQuotas.PromotedTarget, "clamped to range max")
	assert.Equal(t, 3, config.Tools.Recruiting.Promotion.MinProofLinks)
}

func TestLoadFromFiles_InvalidCadence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "venari.toml")
	content := `
[tools.recruiting.run]
default_cadence = "not a cron"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := LoadFromFiles(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cadence")
}

func TestClampTargetCandidates(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, 300, config.ClampTargetCandidates(0), "unset falls back to config")
	assert.Equal(t, 1, config.ClampTargetCandidates(1))
	assert.Equal(t, 2000, config.ClampTargetCandidates(50000))
	assert.Equal(t, 42, config.ClampTargetCandidates(42))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VENARI_RECRUITING_ENABLED", "true")
	t.Setenv("VENARI_STORE_PATH", filepath.Join(t.TempDir(), "env.db"))

	config, err := LoadFromFiles()
	require.NoError(t, err)
	assert.True(t, config.Tools.Recruiting.Enabled)
	assert.Contains(t, config.Storage.SQLite.Path, "env.db")
}
