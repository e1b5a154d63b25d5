package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/andrearaponi/gauge/internal/models"
	"github.com/andrearaponi/gauge/pkg/progress"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

type Engine struct {
	workers int
	bar     *progress.ProgressBar
	logger  *zap.Logger
	finish  progress.ProgressFinish
}

// New creates an engine running at most workers jobs at once. bar may be
// nil, in which case nothing is drawn. finish is applied to the bar when
// every job succeeded.
func New(workers int, bar *progress.ProgressBar, logger *zap.Logger, finish progress.ProgressFinish) *Engine {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		workers: workers,
		bar:     bar,
		logger:  logger,
		finish:  finish,
	}
}

// Run executes the jobs of config phase by phase. Jobs whose dependencies
// failed are skipped. The returned error only reports a broken dependency
// graph; job failures are carried in the summary.
func (e *Engine) Run(ctx context.Context, config *models.Config) (*models.Summary, error) {
	plan, err := BuildPlan(config.Jobs)
	if err != nil {
		return nil, fmt.Errorf("failed to plan jobs: %w", err)
	}

	runID := uuid.NewString()
	logger := e.logger.With(zap.String("run_id", runID))
	logger.Info("run started",
		zap.String("name", config.Name),
		zap.Int("jobs", len(config.Jobs)),
		zap.Int("phases", plan.TotalPhases()),
		zap.Int("workers", e.workers))

	start := time.Now()
	var results []models.JobResult
	failed := make(map[string]bool)

	for i, phase := range plan.Phases {
		logger.Debug("phase started", zap.Int("phase", i), zap.Int("jobs", len(phase)))

		p := pool.NewWithResults[models.JobResult]().
			WithContext(ctx).
			WithMaxGoroutines(e.workers)

		for _, job := range phase {
			if dep := failedDependency(job, failed); dep != "" {
				results = append(results, e.skipJob(logger, job, dep))
				continue
			}
			p.Go(func(ctx context.Context) (models.JobResult, error) {
				return e.runJob(ctx, logger, job), nil
			})
		}

		// Jobs never return errors; failures are carried in the results.
		phaseResults, _ := p.Wait()
		results = append(results, phaseResults...)
		for _, result := range results {
			if !result.Success {
				failed[result.Name] = true
			}
		}
	}

	summary := e.collectResults(config, results, time.Since(start))
	summary.RunID = runID
	summary.Canceled = ctx.Err() != nil

	e.finishBar(summary)

	logger.Info("run finished",
		zap.Int("succeeded", summary.SucceededJobs),
		zap.Int("failed", summary.FailedJobs),
		zap.Duration("elapsed", summary.TotalTime))

	return summary, nil
}

func failedDependency(job models.Job, failed map[string]bool) string {
	for _, dep := range job.DependsOn {
		if failed[dep] {
			return dep
		}
	}
	return ""
}

func (e *Engine) skipJob(logger *zap.Logger, job models.Job, dep string) models.JobResult {
	e.dropUnits(job.Units)
	logger.Warn("job skipped", zap.String("job", job.Name), zap.String("dependency", dep))
	return models.JobResult{
		Name:    job.Name,
		Units:   job.Units,
		Skipped: true,
		Error:   fmt.Sprintf("skipped: dependency %s failed", dep),
	}
}

// dropUnits takes units that will never run off the bar so the remaining
// jobs can still fill it.
func (e *Engine) dropUnits(units uint64) {
	if e.bar == nil || units == 0 {
		return
	}
	e.bar.Update(func(st *progress.ProgressState) {
		st.SetLen(st.Len() - min(units, st.Len()))
	})
}

func (e *Engine) runJob(ctx context.Context, logger *zap.Logger, job models.Job) models.JobResult {
	logger = logger.With(zap.String("job", job.Name))
	result := models.JobResult{Name: job.Name, Units: job.Units}
	start := time.Now()

	if e.bar != nil {
		e.bar.SetMessage(job.Name)
	}

	for unit := uint64(1); unit <= job.Units; unit++ {
		if err := sleep(ctx, stepDuration(job)); err != nil {
			result.Error = fmt.Sprintf("canceled after %d units", result.Done)
			break
		}

		if unit == job.FailAt {
			result.Error = fmt.Sprintf("unit %d failed", unit)
			break
		}

		result.Done++
		if e.bar != nil {
			e.bar.Inc(1)
		}
		logger.Debug("unit done", zap.Uint64("unit", unit))
	}

	result.Duration = time.Since(start)
	result.Success = result.Error == ""

	e.dropUnits(job.Units - result.Done)

	if result.Success {
		logger.Info("job finished",
			zap.Uint64("units", result.Done),
			zap.Duration("elapsed", result.Duration))
	} else {
		logger.Warn("job failed",
			zap.String("error", result.Error),
			zap.Uint64("units_done", result.Done),
			zap.Uint64("units", job.Units))
	}

	return result
}

func (e *Engine) finishBar(summary *models.Summary) {
	if e.bar == nil {
		return
	}

	switch {
	case summary.Canceled:
		e.bar.AbandonWithMessage("canceled")
	case summary.FailedJobs > 0:
		e.bar.AbandonWithMessage(fmt.Sprintf("%d of %d jobs failed", summary.FailedJobs, summary.TotalJobs))
	default:
		e.bar.FinishUsingStyle(e.finish)
	}
}

// stepDuration returns job.Step shifted by a random amount within
// [-job.Jitter, +job.Jitter].
func stepDuration(job models.Job) time.Duration {
	if job.Jitter <= 0 {
		return job.Step
	}
	return randomDuration(job.Step-job.Jitter, job.Step+job.Jitter)
}

// randomDuration returns a random duration between min and max
func randomDuration(min, max time.Duration) time.Duration {
	if min >= max {
		return min
	}
	return min + rand.N(max-min)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (e *Engine) collectResults(config *models.Config, results []models.JobResult, elapsed time.Duration) *models.Summary {
	summary := &models.Summary{
		Name:       config.Name,
		TotalJobs:  len(config.Jobs),
		TotalUnits: config.GetTotalUnits(),
		TotalTime:  elapsed,
		Errors:     make(map[string]int),
	}

	// Results arrive in completion order; report them in config order.
	order := make(map[string]int, len(config.Jobs))
	for i, job := range config.Jobs {
		order[job.Name] = i
	}
	sort.Slice(results, func(i, j int) bool {
		return order[results[i].Name] < order[results[j].Name]
	})
	summary.Jobs = results

	var times []time.Duration
	var totalTime time.Duration
	for _, result := range results {
		summary.CompletedUnits += result.Done
		if result.Success {
			summary.SucceededJobs++
		} else {
			summary.FailedJobs++
			summary.Errors[result.Error]++
		}

		times = append(times, result.Duration)
		totalTime += result.Duration
		if summary.MinJobTime == 0 || result.Duration < summary.MinJobTime {
			summary.MinJobTime = result.Duration
		}
		if result.Duration > summary.MaxJobTime {
			summary.MaxJobTime = result.Duration
		}
	}

	if len(times) > 0 {
		summary.AvgJobTime = totalTime / time.Duration(len(times))
		summary.P50JobTime = calculatePercentile(times, 50)
		summary.P95JobTime = calculatePercentile(times, 95)
	}

	if elapsed > 0 {
		summary.UnitsPerSec = float64(summary.CompletedUnits) / elapsed.Seconds()
	}

	return summary
}

func calculatePercentile(times []time.Duration, percentile float64) time.Duration {
	if len(times) == 0 {
		return 0
	}

	sorted := append([]time.Duration(nil), times...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	index := percentile * float64(len(sorted)-1) / 100.0
	lowerIndex := int(index)
	upperIndex := lowerIndex + 1

	if upperIndex >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	// Linear interpolation
	weight := index - float64(lowerIndex)
	lower := sorted[lowerIndex]
	upper := sorted[upperIndex]

	return time.Duration(float64(lower) + weight*float64(upper-lower))
}
