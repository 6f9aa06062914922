package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pevans/tally/dates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: point HOME at a temp dir and optionally write a config file
func setupHome(t *testing.T, content string) string {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	if content != "" {
		dir := filepath.Join(tmpDir, ".tally")
		require.NoError(t, os.MkdirAll(dir, 0o700))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))
	}
	return tmpDir
}

// Test helper: write a config file somewhere other than HOME
func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "tally.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigFile_NoFile(t *testing.T) {
	setupHome(t, "")

	cfg, err := LoadConfigFile()
	require.NoError(t, err)
	assert.Nil(t, cfg, "Should return nil when config file doesn't exist")
}

func TestLoadConfigFile_ValidConfig(t *testing.T) {
	setupHome(t, `root_url: "https://intranet.example.com/cases/"
storage:
  counts:
    dsn: "/path/to/tally.db"
  handoff:
    dir: "/path/to/handoff"
calendar:
  weekend: [friday, saturday]
  holidays: ["2025-04-18", "2025-12-25"]
folders:
  selectors: ["nav.folders a"]
  path_patterns: ["/cases/"]
items:
  selector: "li.row"
people:
  JS: John Smith
  mk: Mary King
report:
  period_range: 6
  max_items: 10
fetch:
  timeout: 30s
  rate_per_second: 0.5
scan:
  only: [Hearings]
  month_limit: 3
`)

	cfg, err := LoadConfigFile()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "https://intranet.example.com/cases/", cfg.RootURL)
	assert.Equal(t, "/path/to/tally.db", cfg.Storage.Counts.DSN)
	assert.Equal(t, "/path/to/handoff", cfg.Storage.Handoff.Dir)
	assert.Equal(t, []string{"nav.folders a"}, cfg.Scraper.FolderConfig.Selectors)
	assert.Equal(t, []string{"/cases/"}, cfg.Scraper.FolderConfig.PathPatterns)
	assert.Equal(t, 2, cfg.Scraper.FolderConfig.MinNameLength, "unset keys keep their defaults")
	assert.NotEmpty(t, cfg.Scraper.MonthConfig.Selectors)
	assert.Equal(t, "li.row", cfg.Scraper.ItemConfig.Selector)
	assert.Equal(t, 6, cfg.Report.PeriodRange)
	assert.Equal(t, 10, cfg.Report.MaxItems)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 0.5, cfg.Fetch.RatePerSecond)
	assert.Equal(t, []string{"Hearings"}, cfg.Scan.Only)
	assert.Equal(t, 3, cfg.Scan.MonthLimit)

	require.NoError(t, Validate(cfg))

	cal, err := cfg.CalendarProvider()
	require.NoError(t, err)
	assert.True(t, cal.IsNonWorkingDay(dates.New(2025, time.January, 3)), "friday is a weekend day")
	assert.False(t, cal.IsNonWorkingDay(dates.New(2025, time.January, 5)), "sunday is a working day")
	assert.True(t, cal.IsHoliday(dates.New(2025, time.April, 18)))

	name, ok := cfg.Roster().Resolve("MK")
	assert.True(t, ok)
	assert.Equal(t, "Mary King", name)
}

func TestLoadConfigFile_InvalidYAML(t *testing.T) {
	setupHome(t, `storage:
  counts:
    - this is invalid yaml because counts should be an object not a list
`)

	cfg, err := LoadConfigFile()
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadFile_MissingIsError(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	setupHome(t, "")
	t.Setenv("TALLY_DSN", "")
	t.Setenv("TALLY_HANDOFF_DIR", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `storage:
  counts:
    dsn: from-file.db
  handoff:
    dir: from-file
`)
	t.Setenv("TALLY_DSN", "from-env.db")
	t.Setenv("TALLY_HANDOFF_DIR", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.Storage.Counts.DSN)
	assert.Equal(t, "from-file", cfg.Storage.Handoff.Dir)
}

func TestLoad_ValidationErrors(t *testing.T) {
	path := writeConfig(t, `root_url: "not a url"
storage:
  counts:
    dsn: ""
calendar:
  weekend: [caturday]
  holidays: ["25/12/2025"]
folders:
  min_name_length: -1
items:
  pattern: "(?P<date>\\S+) (?P<count>\\d+)"
people:
  JS: ""
report:
  period_range: -2
`)
	t.Setenv("TALLY_DSN", "")

	_, err := Load(path)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be a valid URL", verr.Fields["root_url"])
	assert.Equal(t, "is required", verr.Fields["storage.counts.dsn"])
	assert.Equal(t, "must be a weekday name", verr.Fields["calendar.weekend[0]"])
	assert.Contains(t, verr.Fields["calendar.holidays[0]"], "2006-01-02")
	assert.Contains(t, verr.Fields, "folders.min_name_length")
	assert.Contains(t, verr.Fields["items.pattern"], "names")
	assert.Contains(t, verr.Fields, "people[JS]")
	assert.Contains(t, verr.Fields, "report.period_range")
	assert.Contains(t, err.Error(), "invalid configuration: ")
}

func TestAggregateOptions(t *testing.T) {
	cfg := Default()
	cfg.Report.MaxItems = 7

	opts := cfg.AggregateOptions(nil)
	assert.Equal(t, 12, opts.PeriodRange)
	assert.Equal(t, 7, opts.MaxItems)
}
