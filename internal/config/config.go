package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	HTTP     HTTPConfig
	Database DatabaseConfig
	Import   ImportConfig
	Game     GameConfig
	UI       UIConfig
}

// HTTPConfig holds server settings.
type HTTPConfig struct {
	Port     string
	LogLevel string
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path           string
	MigrationsPath string
}

// ImportConfig bounds the statement import pipeline.
type ImportConfig struct {
	MaxFileBytes int64
	MaxRows      int
}

// GameConfig holds gamification tuning knobs.
type GameConfig struct {
	WeeklyMinAgeDays  int
	MonthlyMinAgeDays int
}

// UIConfig holds presentation settings consumed by API clients.
type UIConfig struct {
	DateFormat   string
	CurrencyCode string
	Timezone     string
}

// Load reads configuration from file and env. Env var overrides use prefix MONEYQUEST_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("http.port", "8080")
	v.SetDefault("http.log_level", "info")
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "moneyquest", "moneyquest.db"))
	v.SetDefault("database.migrations_path", "internal/database/migrations")
	v.SetDefault("import.max_file_bytes", int64(5*1024*1024))
	v.SetDefault("import.max_rows", 10000)
	v.SetDefault("game.weekly_min_age_days", 3)
	v.SetDefault("game.monthly_min_age_days", 7)
	v.SetDefault("ui.date_format", "02/01/2006")
	v.SetDefault("ui.currency_code", "BRL")
	v.SetDefault("ui.timezone", "America/Sao_Paulo")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("MONEYQUEST_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "moneyquest"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("MONEYQUEST")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	c := Config{
		HTTP: HTTPConfig{
			Port:     v.GetString("http.port"),
			LogLevel: v.GetString("http.log_level"),
		},
		Database: DatabaseConfig{
			Path:           v.GetString("database.path"),
			MigrationsPath: v.GetString("database.migrations_path"),
		},
		Import: ImportConfig{
			MaxFileBytes: v.GetInt64("import.max_file_bytes"),
			MaxRows:      v.GetInt("import.max_rows"),
		},
		Game: GameConfig{
			WeeklyMinAgeDays:  v.GetInt("game.weekly_min_age_days"),
			MonthlyMinAgeDays: v.GetInt("game.monthly_min_age_days"),
		},
		UI: UIConfig{
			DateFormat:   v.GetString("ui.date_format"),
			CurrencyCode: v.GetString("ui.currency_code"),
			Timezone:     v.GetString("ui.timezone"),
		},
	}
	if c.Database.Path == "" {
		return Config{}, fmt.Errorf("database path must not be empty")
	}
	return c, nil
}
