package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 15*time.Second, cfg.SyncTimeout)
	assert.Zero(t, cfg.ResyncInterval)
	assert.Equal(t, 200, cfg.LeadsPageSize)
	assert.Equal(t, 60, cfg.WriteRateLimit)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.False(t, cfg.Mail.Enabled())
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SYNC_TIMEOUT", "3s")
	t.Setenv("RESYNC_INTERVAL", "1m")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("MAIL_HOST", "smtp.test")
	t.Setenv("STAGE_ALERT_RECIPIENT", "sales@example.com")
	t.Setenv("LOG_DEVELOPMENT", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 3*time.Second, cfg.SyncTimeout)
	assert.Equal(t, time.Minute, cfg.ResyncInterval)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.True(t, cfg.Mail.Enabled())
	assert.True(t, cfg.LogDevelopment)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leadflow.yaml"), []byte("leads_page_size: 25\ncrm_api_url: https://crm.test/api\n"), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.LeadsPageSize)
	assert.Equal(t, "https://crm.test/api", cfg.CRMAPIURL)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SYNC_TIMEOUT", "0s")

	_, err := Load("")
	assert.ErrorContains(t, err, "SYNC_TIMEOUT")
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
