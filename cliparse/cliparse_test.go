// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef-test"

func TestParseFlags_EnvVars(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("SESSION_SECRET", testSecret)
	t.Setenv("SESSION_TTL", "2h")

	cfg, err := ParseFlags([]string{})
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, DatabaseSQLite, cfg.DatabaseType)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_TYPE", "sqlite")

	cfg, err := ParseFlags([]string{
		"-p", "8080",
		"-d", "postgres://localhost/doclabel",
		"-t", "postgres",
		"-session-secret", testSecret,
	})
	require.NoError(t, err)

	// CLI should override env
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, DatabasePostgres, cfg.DatabaseType)
	assert.Equal(t, DefaultSessionTTL, cfg.SessionTTL)
}

func TestParseFlags_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_TYPE", "")

	cfg, err := ParseFlags([]string{"-d", "file:x.db", "-session-secret", testSecret})
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DatabaseSQLite, cfg.DatabaseType)
}

func TestParseFlags_Invalid(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_TYPE", "")
	t.Setenv("SESSION_TTL", "")

	tests := []struct {
		name string
		args []string
	}{
		{"missing database url", []string{"-session-secret", testSecret}},
		{"missing secret", []string{"-d", "file:x.db"}},
		{"short secret", []string{"-d", "file:x.db", "-session-secret", "short"}},
		{"bad database type", []string{"-d", "file:x.db", "-t", "mysql", "-session-secret", testSecret}},
		{"bad port", []string{"-p", "70000", "-d", "file:x.db", "-session-secret", testSecret}},
		{"unknown flag", []string{"-nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFlags(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestParseFlags_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "DATABASE_URL=file:from-env-file.db\nSESSION_SECRET=" + testSecret + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("ENV_FILE", path)
	// godotenv does not override variables that are already set.
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")
	t.Setenv("SESSION_SECRET", "")
	os.Unsetenv("SESSION_SECRET")

	cfg, err := ParseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, "file:from-env-file.db", cfg.DatabaseURL)
}

func TestParseFlags_MissingExplicitEnvFile(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))

	_, err := ParseFlags([]string{"-d", "file:x.db", "-session-secret", testSecret})
	assert.Error(t, err)
}
