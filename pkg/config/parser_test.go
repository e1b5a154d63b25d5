package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andrearaponi/gauge/internal/models"
	"github.com/andrearaponi/gauge/pkg/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile_ValidConfig(t *testing.T) {
	configContent := `
name = "Nightly sync"
description = "Copies the nightly artifacts"

[bar]
tick_interval = "250ms"
refresh_rate = 10
width = 100
finish = "with_message"
finish_message = "synced"
units = "bytes"
prefix = "[sync] "

[run]
workers = 8
log_level = "DEBUG"
log_file = "gauge.log"

[[jobs]]
name = "artifacts"
units = 512
step = "5ms"
jitter = "2ms"

[[jobs]]
name = "checksums"
units = 16
fail_at = 9
depends_on = ["artifacts"]
`

	tmpFile := createTempFile(t, configContent)

	config, err := LoadFromFile(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, "Nightly sync", config.Name)
	assert.Equal(t, "Copies the nightly artifacts", config.Description)

	assert.Equal(t, 250*time.Millisecond, config.Bar.TickInterval)
	assert.Equal(t, 10.0, config.Bar.RefreshRate)
	assert.Equal(t, 100, config.Bar.Width)
	assert.Equal(t, "with_message", config.Bar.Finish)
	assert.Equal(t, "synced", config.Bar.FinishMessage)
	assert.Equal(t, "bytes", config.Bar.Units)
	assert.Equal(t, "[sync] ", config.Bar.Prefix)

	assert.Equal(t, 8, config.Run.Workers)
	assert.Equal(t, "debug", config.Run.LogLevel)
	assert.Equal(t, "gauge.log", config.Run.LogFile)

	require.Len(t, config.Jobs, 2)
	assert.Equal(t, models.Job{
		Name:   "artifacts",
		Units:  512,
		Step:   5 * time.Millisecond,
		Jitter: 2 * time.Millisecond,
	}, config.Jobs[0])
	assert.Equal(t, models.Job{
		Name:      "checksums",
		Units:     16,
		Step:      defaultStep,
		FailAt:    9,
		DependsOn: []string{"artifacts"},
	}, config.Jobs[1])
	assert.Equal(t, uint64(528), config.GetTotalUnits())
}

func TestLoadFromFile_Defaults(t *testing.T) {
	tmpFile := createTempFile(t, `
name = "minimal"

[[jobs]]
name = "only"
units = 3
`)

	config, err := LoadFromFile(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, defaultTickInterval, config.Bar.TickInterval)
	assert.Equal(t, float64(defaultRefreshRate), config.Bar.RefreshRate)
	assert.Equal(t, 0, config.Bar.Width)
	assert.Equal(t, defaultFinish, config.Bar.Finish)
	assert.Equal(t, "", config.Bar.Units)
	assert.Equal(t, defaultWorkers, config.Run.Workers)
	assert.Equal(t, defaultLogLevel, config.Run.LogLevel)
	assert.Equal(t, defaultStep, config.Jobs[0].Step)

	finish, err := progress.ParseFinish(config.Bar.Finish, "")
	require.NoError(t, err)
	assert.Equal(t, progress.FinishAndLeave, finish)
}

func TestLoadFromFile_InvalidTOML(t *testing.T) {
	tmpFile := createTempFile(t, `name = "broken`)

	_, err := LoadFromFile(tmpFile)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse TOML")
}

func TestLoadFromFile_FileNotFound(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, ErrConfigFileNotFound)
}

func TestLoadFromFile_InvalidDurations(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		expectedErr string
	}{
		{
			name: "tick interval",
			content: `
name = "x"
[bar]
tick_interval = "soon"
[[jobs]]
name = "a"
units = 1
`,
			expectedErr: "invalid bar tick_interval",
		},
		{
			name: "step",
			content: `
name = "x"
[[jobs]]
name = "a"
units = 1
step = "fast"
`,
			expectedErr: "job 0: invalid step",
		},
		{
			name: "jitter",
			content: `
name = "x"
[[jobs]]
name = "a"
units = 1
jitter = "lots"
`,
			expectedErr: "job 0: invalid jitter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(createTempFile(t, tt.content))
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestLoadFromFile_NegativeUnits(t *testing.T) {
	_, err := LoadFromFile(createTempFile(t, `
name = "x"
[[jobs]]
name = "a"
units = -1
`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "units must not be negative")
}

func validConfig() *models.Config {
	return &models.Config{
		Name: "valid",
		Bar: models.BarConfig{
			TickInterval: 100 * time.Millisecond,
			RefreshRate:  20,
			Finish:       "and_leave",
		},
		Run: models.RunConfig{Workers: 2, LogLevel: "info"},
		Jobs: []models.Job{
			{Name: "a", Units: 10, Step: 10 * time.Millisecond, Jitter: 5 * time.Millisecond},
		},
	}
}

func TestValidateConfig_Valid(t *testing.T) {
	assert.NoError(t, validateConfig(validConfig()))
}

func TestValidateConfig_MissingName(t *testing.T) {
	config := validConfig()
	config.Name = ""

	err := validateConfig(config)
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestValidateConfig_NoJobs(t *testing.T) {
	config := validConfig()
	config.Jobs = nil

	err := validateConfig(config)
	assert.ErrorIs(t, err, ErrNoJobs)
}

func TestValidateConfig_UnknownFinish(t *testing.T) {
	config := validConfig()
	config.Bar.Finish = "explode"

	err := validateConfig(config)
	assert.ErrorIs(t, err, progress.ErrUnknownFinish)
}

func TestValidateConfig_Invalid(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *models.Config)
		expectedErr string
	}{
		{"negative tick", func(c *models.Config) { c.Bar.TickInterval = -time.Second }, "tick_interval must not be negative"},
		{"negative refresh", func(c *models.Config) { c.Bar.RefreshRate = -1 }, "refresh_rate must not be negative"},
		{"negative width", func(c *models.Config) { c.Bar.Width = -3 }, "width must not be negative"},
		{"bad units", func(c *models.Config) { c.Bar.Units = "parsecs" }, "bar units"},
		{"no workers", func(c *models.Config) { c.Run.Workers = 0 }, "workers must be at least 1"},
		{"bad log level", func(c *models.Config) { c.Run.LogLevel = "chatty" }, "log_level"},
		{"job without name", func(c *models.Config) { c.Jobs[0].Name = "" }, "job 0: name is required"},
		{"job without units", func(c *models.Config) { c.Jobs[0].Units = 0 }, "job 0: units must be greater than 0"},
		{"jitter over step", func(c *models.Config) { c.Jobs[0].Jitter = time.Second }, "job 0: jitter"},
		{"duplicate job", func(c *models.Config) { c.Jobs = append(c.Jobs, c.Jobs[0]) }, "job 1: duplicate name"},
		{"unknown dependency", func(c *models.Config) { c.Jobs[0].DependsOn = []string{"ghost"} }, "unknown dependency"},
		{"dependency cycle", func(c *models.Config) {
			c.Jobs[0].DependsOn = []string{"b"}
			c.Jobs = append(c.Jobs, models.Job{Name: "b", Units: 1, DependsOn: []string{"a"}})
		}, "cyclic dependency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.mutate(config)

			err := validateConfig(config)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func createTempFile(t *testing.T, content string) string {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "config.toml")

	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	return tmpFile
}
