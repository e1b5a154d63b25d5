package models

import "time"

type Config struct {
	Name        string
	Description string
	Bar         BarConfig
	Run         RunConfig
	Jobs        []Job
}

type BarConfig struct {
	TickInterval  time.Duration
	RefreshRate   float64
	Width         int
	Finish        string
	FinishMessage string
	Units         string
	Prefix        string
}

type RunConfig struct {
	Workers  int
	LogLevel string
	LogFile  string
}

type Job struct {
	Name      string
	Units     uint64
	Step      time.Duration
	Jitter    time.Duration
	FailAt    uint64 // 1-based unit that fails, 0 never fails
	DependsOn []string
}

type JobResult struct {
	Name     string
	Units    uint64
	Done     uint64
	Duration time.Duration
	Success  bool
	Skipped  bool
	Error    string
}

type Summary struct {
	RunID          string
	Name           string
	TotalJobs      int
	SucceededJobs  int
	FailedJobs     int
	TotalUnits     uint64
	CompletedUnits uint64
	TotalTime      time.Duration
	UnitsPerSec    float64
	AvgJobTime     time.Duration
	MinJobTime     time.Duration
	MaxJobTime     time.Duration
	P50JobTime     time.Duration
	P95JobTime     time.Duration
	Canceled       bool
	Jobs           []JobResult
	Errors         map[string]int
}

func (c *Config) GetTotalUnits() uint64 {
	var total uint64
	for _, job := range c.Jobs {
		total += job.Units
	}
	return total
}

func (c *Config) ExpectsFailures() bool {
	for _, job := range c.Jobs {
		if job.FailAt > 0 && job.FailAt <= job.Units {
			return true
		}
	}
	return false
}

func (s *Summary) Success() bool {
	return s.FailedJobs == 0
}
