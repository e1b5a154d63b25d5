package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/andrearaponi/gauge/internal/models"
	"github.com/andrearaponi/gauge/pkg/engine"
	"github.com/andrearaponi/gauge/pkg/progress"
	"github.com/andrearaponi/gauge/pkg/style"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrNameRequired       = errors.New("config name is required")
	ErrNoJobs             = errors.New("at least one job is required")
)

const (
	defaultTickInterval = 100 * time.Millisecond
	defaultRefreshRate  = 20
	defaultWorkers      = 4
	defaultLogLevel     = "info"
	defaultFinish       = "and_leave"
	defaultStep         = 10 * time.Millisecond
)

func LoadFromFile(filename string) (*models.Config, error) {
	if _, err := os.Stat(filename); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, filename)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(filename), toml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	var raw rawConfig
	if err := k.Unmarshal("", &raw); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	config, err := parseConfig(&raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

type rawConfig struct {
	Name        string   `koanf:"name"`
	Description string   `koanf:"description"`
	Bar         rawBar   `koanf:"bar"`
	Run         rawRun   `koanf:"run"`
	Jobs        []rawJob `koanf:"jobs"`
}

type rawBar struct {
	TickInterval  string  `koanf:"tick_interval"`
	RefreshRate   float64 `koanf:"refresh_rate"`
	Width         int64   `koanf:"width"`
	Finish        string  `koanf:"finish"`
	FinishMessage string  `koanf:"finish_message"`
	Units         string  `koanf:"units"`
	Prefix        string  `koanf:"prefix"`
}

type rawRun struct {
	Workers  int64  `koanf:"workers"`
	LogLevel string `koanf:"log_level"`
	LogFile  string `koanf:"log_file"`
}

type rawJob struct {
	Name      string   `koanf:"name"`
	Units     int64    `koanf:"units"`
	Step      string   `koanf:"step"`
	Jitter    string   `koanf:"jitter"`
	FailAt    int64    `koanf:"fail_at"`
	DependsOn []string `koanf:"depends_on"`
}

func parseConfig(raw *rawConfig) (*models.Config, error) {
	tickInterval := defaultTickInterval
	var err error
	if raw.Bar.TickInterval != "" {
		tickInterval, err = time.ParseDuration(raw.Bar.TickInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid bar tick_interval: %w", err)
		}
	}

	refreshRate := raw.Bar.RefreshRate
	if refreshRate == 0 {
		refreshRate = defaultRefreshRate
	}

	finish := raw.Bar.Finish
	if finish == "" {
		finish = defaultFinish
	}

	workers := int(raw.Run.Workers)
	if workers == 0 {
		workers = defaultWorkers
	}

	logLevel := raw.Run.LogLevel
	if logLevel == "" {
		logLevel = defaultLogLevel
	}

	config := &models.Config{
		Name:        raw.Name,
		Description: raw.Description,
		Bar: models.BarConfig{
			TickInterval:  tickInterval,
			RefreshRate:   refreshRate,
			Width:         int(raw.Bar.Width),
			Finish:        strings.ToLower(finish),
			FinishMessage: raw.Bar.FinishMessage,
			Units:         strings.ToLower(raw.Bar.Units),
			Prefix:        raw.Bar.Prefix,
		},
		Run: models.RunConfig{
			Workers:  workers,
			LogLevel: strings.ToLower(logLevel),
			LogFile:  raw.Run.LogFile,
		},
	}

	for i, rawJob := range raw.Jobs {
		if rawJob.Units < 0 {
			return nil, fmt.Errorf("job %d: units must not be negative", i)
		}
		if rawJob.FailAt < 0 {
			return nil, fmt.Errorf("job %d: fail_at must not be negative", i)
		}

		step := defaultStep
		if rawJob.Step != "" {
			step, err = time.ParseDuration(rawJob.Step)
			if err != nil {
				return nil, fmt.Errorf("job %d: invalid step: %w", i, err)
			}
		}

		var jitter time.Duration
		if rawJob.Jitter != "" {
			jitter, err = time.ParseDuration(rawJob.Jitter)
			if err != nil {
				return nil, fmt.Errorf("job %d: invalid jitter: %w", i, err)
			}
		}

		config.Jobs = append(config.Jobs, models.Job{
			Name:      rawJob.Name,
			Units:     uint64(rawJob.Units),
			Step:      step,
			Jitter:    jitter,
			FailAt:    uint64(rawJob.FailAt),
			DependsOn: rawJob.DependsOn,
		})
	}

	return config, nil
}

func validateConfig(config *models.Config) error {
	if config.Name == "" {
		return ErrNameRequired
	}

	if config.Bar.TickInterval < 0 {
		return fmt.Errorf("bar tick_interval must not be negative")
	}

	if config.Bar.RefreshRate < 0 {
		return fmt.Errorf("bar refresh_rate must not be negative")
	}

	if config.Bar.Width < 0 {
		return fmt.Errorf("bar width must not be negative")
	}

	if _, err := progress.ParseFinish(config.Bar.Finish, config.Bar.FinishMessage); err != nil {
		return fmt.Errorf("bar finish: %w", err)
	}

	if _, err := style.ParseUnits(config.Bar.Units); err != nil {
		return fmt.Errorf("bar units: %w", err)
	}

	if config.Run.Workers < 1 {
		return fmt.Errorf("run workers must be at least 1")
	}

	switch config.Run.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("run log_level %q is not one of debug, info, warn, error", config.Run.LogLevel)
	}

	if len(config.Jobs) == 0 {
		return ErrNoJobs
	}

	seen := make(map[string]bool, len(config.Jobs))
	for i, job := range config.Jobs {
		if job.Name == "" {
			return fmt.Errorf("job %d: name is required", i)
		}

		if seen[job.Name] {
			return fmt.Errorf("job %d: duplicate name %q", i, job.Name)
		}
		seen[job.Name] = true

		if job.Units == 0 {
			return fmt.Errorf("job %d: units must be greater than 0", i)
		}

		if job.Step < 0 || job.Jitter < 0 {
			return fmt.Errorf("job %d: step and jitter must not be negative", i)
		}

		if job.Jitter > job.Step {
			return fmt.Errorf("job %d: jitter %v exceeds step %v", i, job.Jitter, job.Step)
		}
	}

	if _, err := engine.BuildPlan(config.Jobs); err != nil {
		return err
	}

	return nil
}
