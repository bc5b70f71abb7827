// Package config loads the dayoff server configuration.
//
// Sources are applied in order: built-in defaults, an optional YAML file, an
// optional .env file and the process environment (DAYOFF_* variables). The
// result is validated before it is returned.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/warp/dayoff/generic"
)

// LogConfig selects the zap encoder and level.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// CORSConfig configures the cors middleware.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins" validate:"dive,required"`
}

// AnalyzerConfig points at the external suggestion endpoint. An empty URL
// disables suggestions.
type AnalyzerConfig struct {
	URL     string        `yaml:"url" validate:"omitempty,url"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// SeedUser is created on startup when no user with the same email exists.
type SeedUser struct {
	Name                string `yaml:"name" validate:"required"`
	Email               string `yaml:"email" validate:"required,email"`
	Role                string `yaml:"role" validate:"required,oneof=admin user"`
	AllocatedVacation   int    `yaml:"allocatedVacation" validate:"gte=0"`
	AllocatedAdditional int    `yaml:"allocatedAdditional" validate:"gte=0"`
}

// SeedHoliday is either a single date or a recurrence rule.
type SeedHoliday struct {
	Name  string `yaml:"name" validate:"min=3,max=100"`
	Date  string `yaml:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	RRule string `yaml:"rrule,omitempty" validate:"required_without=Date"`
}

// SeedConfig describes initial data for an empty store.
type SeedConfig struct {
	Users    []SeedUser    `yaml:"users,omitempty" validate:"dive"`
	Holidays []SeedHoliday `yaml:"holidays,omitempty" validate:"dive"`
	// Years recurring holidays are expanded for. Defaults to the current year.
	Years []int `yaml:"years,omitempty" validate:"dive,gte=1900,lte=9999"`
	// RolloverInterval is how often the year-change check runs. Zero
	// disables it.
	RolloverInterval time.Duration `yaml:"rolloverInterval" validate:"gte=0"`
}

// Config represents the server configuration.
type Config struct {
	Addr     string         `yaml:"addr" validate:"required"`
	Store    string         `yaml:"store" validate:"oneof=memory sqlite"`
	DBPath   string         `yaml:"dbPath" validate:"required_if=Store sqlite"`
	Log      LogConfig      `yaml:"log"`
	CORS     CORSConfig     `yaml:"cors"`
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Seed     SeedConfig     `yaml:"seed,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Addr:   ":8080",
		Store:  "memory",
		DBPath: "dayoff.db",
		Log:    LogConfig{Level: "info", Format: "console"},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Analyzer: AnalyzerConfig{Timeout: 15 * time.Second},
		Seed:     SeedConfig{RolloverInterval: time.Hour},
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty), a .env file in the working directory if present and
// the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration struct and checks rrule syntax.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	for i, h := range cfg.Seed.Holidays {
		if h.RRule == "" {
			continue
		}
		if err := generic.ValidateRecurrence(h.RRule); err != nil {
			return fmt.Errorf("invalid rrule in seed.holidays[%d]: %w", i, err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Addr, "DAYOFF_ADDR")
	setString(&cfg.Store, "DAYOFF_STORE")
	setString(&cfg.DBPath, "DAYOFF_DB_PATH")
	setString(&cfg.Log.Level, "DAYOFF_LOG_LEVEL")
	setString(&cfg.Log.Format, "DAYOFF_LOG_FORMAT")
	setString(&cfg.Analyzer.URL, "DAYOFF_ANALYZER_URL")

	if v, ok := os.LookupEnv("DAYOFF_CORS_ORIGINS"); ok {
		cfg.CORS.AllowedOrigins = splitList(v)
	}
	if v, ok := os.LookupEnv("DAYOFF_ANALYZER_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid DAYOFF_ANALYZER_TIMEOUT: %w", err)
		}
		cfg.Analyzer.Timeout = d
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SeedYears returns the years recurring seed holidays are expanded for.
func (c *Config) SeedYears(now time.Time) []int {
	if len(c.Seed.Years) > 0 {
		return c.Seed.Years
	}
	return []int{now.Year()}
}
