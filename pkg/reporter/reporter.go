package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/andrearaponi/gauge/internal/models"
	"github.com/dustin/go-humanize"
)

type Reporter struct {
	w       io.Writer
	verbose bool
}

func New(w io.Writer, verbose bool) *Reporter {
	return &Reporter{
		w:       w,
		verbose: verbose,
	}
}

func (r *Reporter) GenerateReport(summary *models.Summary) {
	r.printHeader()
	r.printSummary(summary)
	if len(summary.Jobs) > 0 {
		r.printJobResults(summary)
	}
	if len(summary.Errors) > 0 {
		r.printErrors(summary)
	}
	r.printFooter(summary)
}

type JSONReport struct {
	Summary JSONSummary `json:"summary"`
	Jobs    []JSONJob   `json:"jobs"`
	Success bool        `json:"success"`
}

type JSONSummary struct {
	RunID          string         `json:"run_id"`
	Name           string         `json:"name"`
	TotalJobs      int            `json:"total_jobs"`
	SucceededJobs  int            `json:"succeeded_jobs"`
	FailedJobs     int            `json:"failed_jobs"`
	SuccessRate    float64        `json:"success_rate_percent"`
	TotalUnits     uint64         `json:"total_units"`
	CompletedUnits uint64         `json:"completed_units"`
	UnitsPerSec    float64        `json:"units_per_sec"`
	TotalTime      string         `json:"total_time"`
	AvgJobTime     string         `json:"avg_job_time"`
	MinJobTime     string         `json:"min_job_time"`
	MaxJobTime     string         `json:"max_job_time"`
	P50JobTime     string         `json:"p50_job_time"`
	P95JobTime     string         `json:"p95_job_time"`
	Canceled       bool           `json:"canceled"`
	Errors         map[string]int `json:"errors"`
}

type JSONJob struct {
	Name     string `json:"name"`
	Units    uint64 `json:"units"`
	Done     uint64 `json:"done"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
	Skipped  bool   `json:"skipped,omitempty"`
	Success  bool   `json:"success"`
}

func (r *Reporter) GenerateJSONReport(summary *models.Summary) error {
	jsonReport := r.createJSONReport(summary)
	output, err := json.MarshalIndent(jsonReport, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if _, err := fmt.Fprintln(r.w, string(output)); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}
	return nil
}

func (r *Reporter) createJSONReport(summary *models.Summary) JSONReport {
	jobs := make([]JSONJob, 0, len(summary.Jobs))
	for _, job := range summary.Jobs {
		jobs = append(jobs, JSONJob{
			Name:     job.Name,
			Units:    job.Units,
			Done:     job.Done,
			Duration: roundDuration(job.Duration).String(),
			Error:    job.Error,
			Skipped:  job.Skipped,
			Success:  job.Success,
		})
	}

	errors := summary.Errors
	if errors == nil {
		errors = map[string]int{}
	}

	return JSONReport{
		Summary: JSONSummary{
			RunID:          summary.RunID,
			Name:           summary.Name,
			TotalJobs:      summary.TotalJobs,
			SucceededJobs:  summary.SucceededJobs,
			FailedJobs:     summary.FailedJobs,
			SuccessRate:    successRate(summary),
			TotalUnits:     summary.TotalUnits,
			CompletedUnits: summary.CompletedUnits,
			UnitsPerSec:    summary.UnitsPerSec,
			TotalTime:      roundDuration(summary.TotalTime).String(),
			AvgJobTime:     roundDuration(summary.AvgJobTime).String(),
			MinJobTime:     roundDuration(summary.MinJobTime).String(),
			MaxJobTime:     roundDuration(summary.MaxJobTime).String(),
			P50JobTime:     roundDuration(summary.P50JobTime).String(),
			P95JobTime:     roundDuration(summary.P95JobTime).String(),
			Canceled:       summary.Canceled,
			Errors:         errors,
		},
		Jobs:    jobs,
		Success: summary.Success() && !summary.Canceled,
	}
}

func (r *Reporter) printHeader() {
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "╔══════════════════════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(r.w, "║                                 GAUGE RESULTS                                ║")
	fmt.Fprintln(r.w, "╚══════════════════════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(r.w)
}

func (r *Reporter) printSummary(summary *models.Summary) {
	fmt.Fprintln(r.w, "📊 SUMMARY")
	fmt.Fprintln(r.w, strings.Repeat("─", 80))

	rate := successRate(summary)

	if summary.Name != "" {
		fmt.Fprintf(r.w, "Run:                 %s\n", summary.Name)
	}
	if r.verbose && summary.RunID != "" {
		fmt.Fprintf(r.w, "Run ID:              %s\n", summary.RunID)
	}
	fmt.Fprintf(r.w, "Total Jobs:          %d\n", summary.TotalJobs)
	fmt.Fprintf(r.w, "Succeeded:           %d (%.1f%%)\n", summary.SucceededJobs, rate)
	fmt.Fprintf(r.w, "Failed:              %d (%.1f%%)\n", summary.FailedJobs, 100-rate)
	fmt.Fprintf(r.w, "Units:               %s/%s\n",
		humanize.Comma(int64(summary.CompletedUnits)), humanize.Comma(int64(summary.TotalUnits)))
	fmt.Fprintf(r.w, "Units/sec:           %.2f\n", summary.UnitsPerSec)
	fmt.Fprintf(r.w, "Total Duration:      %v\n", roundDuration(summary.TotalTime))
	fmt.Fprintln(r.w)

	fmt.Fprintln(r.w, "⏱️  JOB TIMES")
	fmt.Fprintln(r.w, strings.Repeat("─", 80))
	fmt.Fprintf(r.w, "Average:             %v\n", roundDuration(summary.AvgJobTime))
	fmt.Fprintf(r.w, "Minimum:             %v\n", roundDuration(summary.MinJobTime))
	fmt.Fprintf(r.w, "Maximum:             %v\n", roundDuration(summary.MaxJobTime))
	fmt.Fprintf(r.w, "P50 (median):        %v\n", roundDuration(summary.P50JobTime))
	fmt.Fprintf(r.w, "P95:                 %v\n", roundDuration(summary.P95JobTime))
	fmt.Fprintln(r.w)
}

func (r *Reporter) printJobResults(summary *models.Summary) {
	fmt.Fprintln(r.w, "🎯 JOB RESULTS")
	fmt.Fprintln(r.w, strings.Repeat("─", 80))

	for _, job := range summary.Jobs {
		status := "✅"
		switch {
		case job.Skipped:
			status = "⏭️ "
		case !job.Success:
			status = "❌"
		}

		fmt.Fprintf(r.w, "%s %s\n", status, job.Name)
		fmt.Fprintf(r.w, "   Units: %s/%s | Duration: %v\n",
			humanize.Comma(int64(job.Done)), humanize.Comma(int64(job.Units)), roundDuration(job.Duration))

		if r.verbose && job.Duration > 0 {
			fmt.Fprintf(r.w, "   Units/sec: %.2f\n", float64(job.Done)/job.Duration.Seconds())
		}
		if job.Error != "" {
			fmt.Fprintf(r.w, "   Error: %s\n", job.Error)
		}
		fmt.Fprintln(r.w)
	}
}

func (r *Reporter) printErrors(summary *models.Summary) {
	fmt.Fprintln(r.w, "❌ ERRORS")
	fmt.Fprintln(r.w, strings.Repeat("─", 80))

	type errorCount struct {
		error string
		count int
	}

	var errors []errorCount
	for err, count := range summary.Errors {
		errors = append(errors, errorCount{err, count})
	}

	sort.Slice(errors, func(i, j int) bool {
		if errors[i].count != errors[j].count {
			return errors[i].count > errors[j].count
		}
		return errors[i].error < errors[j].error
	})

	for _, ec := range errors {
		var percentage float64
		if summary.TotalJobs > 0 {
			percentage = float64(ec.count) / float64(summary.TotalJobs) * 100
		}
		fmt.Fprintf(r.w, "• %s: %d (%.1f%%)\n", ec.error, ec.count, percentage)
	}
	fmt.Fprintln(r.w)
}

func (r *Reporter) printFooter(summary *models.Summary) {
	fmt.Fprintln(r.w, strings.Repeat("═", 80))
	switch {
	case summary.Canceled:
		fmt.Fprintln(r.w, "🛑 Run canceled!")
	case summary.FailedJobs > 0:
		fmt.Fprintln(r.w, "⚠️  Run completed with failures!")
	default:
		fmt.Fprintln(r.w, "🚀 Run completed successfully!")
	}
	fmt.Fprintln(r.w)
}

func successRate(summary *models.Summary) float64 {
	if summary.TotalJobs == 0 {
		return 0
	}
	return float64(summary.SucceededJobs) / float64(summary.TotalJobs) * 100
}

func roundDuration(d time.Duration) time.Duration {
	return d.Round(time.Microsecond)
}
