package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MONEYQUEST_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.HTTP.Port)
	require.Equal(t, "info", cfg.HTTP.LogLevel)
	require.Equal(t, "internal/database/migrations", cfg.Database.MigrationsPath)
	require.Equal(t, int64(5*1024*1024), cfg.Import.MaxFileBytes)
	require.Equal(t, 10000, cfg.Import.MaxRows)
	require.Equal(t, 3, cfg.Game.WeeklyMinAgeDays)
	require.Equal(t, 7, cfg.Game.MonthlyMinAgeDays)
	require.Equal(t, "BRL", cfg.UI.CurrencyCode)
	require.Equal(t, "America/Sao_Paulo", cfg.UI.Timezone)
	require.NotEmpty(t, cfg.Database.Path)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[http]
port = "9090"
log_level = "debug"

[import]
max_rows = 500

[ui]
currency_code = "USD"
`), 0o644))
	t.Setenv("MONEYQUEST_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.HTTP.Port)
	require.Equal(t, "debug", cfg.HTTP.LogLevel)
	require.Equal(t, 500, cfg.Import.MaxRows)
	require.Equal(t, "USD", cfg.UI.CurrencyCode)
	// untouched keys keep their defaults
	require.Equal(t, int64(5*1024*1024), cfg.Import.MaxFileBytes)
	require.Equal(t, "America/Sao_Paulo", cfg.UI.Timezone)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MONEYQUEST_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("MONEYQUEST_HTTP_PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "7070", cfg.HTTP.Port)
}
