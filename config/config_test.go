package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dayoff.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "memory", cfg.Store)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 15*time.Second, cfg.Analyzer.Timeout)
	assert.Empty(t, cfg.Analyzer.URL)
	assert.Equal(t, time.Hour, cfg.Seed.RolloverInterval)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
addr: ":9090"
store: sqlite
dbPath: /tmp/dayoff.db
log:
  level: debug
  format: json
cors:
  allowedOrigins: ["https://hr.example.com"]
analyzer:
  url: http://localhost:4000/analyze
  timeout: 5s
seed:
  years: [2025, 2026]
  users:
    - name: Alice Admin
      email: alice@example.com
      role: admin
      allocatedVacation: 25
      allocatedAdditional: 5
  holidays:
    - name: Christmas Day
      rrule: FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=25
    - name: Company Day
      date: "2025-06-13"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "sqlite", cfg.Store)
	assert.Equal(t, "/tmp/dayoff.db", cfg.DBPath)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []string{"https://hr.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.Analyzer.Timeout)
	require.Len(t, cfg.Seed.Users, 1)
	assert.Equal(t, 25, cfg.Seed.Users[0].AllocatedVacation)
	require.Len(t, cfg.Seed.Holidays, 2)
	assert.Equal(t, []int{2025, 2026}, cfg.SeedYears(time.Now()))
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "addr: \":9090\"\n")
	t.Setenv("DAYOFF_ADDR", ":7070")
	t.Setenv("DAYOFF_LOG_LEVEL", "warn")
	t.Setenv("DAYOFF_ANALYZER_TIMEOUT", "2s")
	t.Setenv("DAYOFF_CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 2*time.Second, cfg.Analyzer.Timeout)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_InvalidStore(t *testing.T) {
	path := writeConfig(t, "store: postgres\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidTimeoutEnv(t *testing.T) {
	t.Setenv("DAYOFF_ANALYZER_TIMEOUT", "soon")
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate_SeedHolidayNeedsDateOrRule(t *testing.T) {
	cfg := Default()
	cfg.Seed.Holidays = []SeedHoliday{{Name: "Nothing Day"}}
	assert.Error(t, Validate(cfg))

	cfg.Seed.Holidays = []SeedHoliday{{Name: "Bad Date", Date: "13/06/2025"}}
	assert.Error(t, Validate(cfg))

	cfg.Seed.Holidays = []SeedHoliday{{Name: "Bad Rule", RRule: "FREQ=SOMETIMES"}}
	assert.Error(t, Validate(cfg))

	cfg.Seed.Holidays = []SeedHoliday{{Name: "Good Day", Date: "2025-06-13"}}
	assert.NoError(t, Validate(cfg))
}

func TestValidate_SeedUser(t *testing.T) {
	cfg := Default()
	cfg.Seed.Users = []SeedUser{{Name: "Bob", Email: "not-an-email", Role: "user"}}
	assert.Error(t, Validate(cfg))

	cfg.Seed.Users = []SeedUser{{Name: "Bob", Email: "bob@example.com", Role: "owner"}}
	assert.Error(t, Validate(cfg))

	cfg.Seed.Users = []SeedUser{{Name: "Bob", Email: "bob@example.com", Role: "user", AllocatedVacation: -1}}
	assert.Error(t, Validate(cfg))
}

func TestSeedYears_DefaultsToCurrentYear(t *testing.T) {
	cfg := Default()
	now := time.Date(2031, time.March, 3, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, []int{2031}, cfg.SeedYears(now))
}
