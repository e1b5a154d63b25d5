package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/andrearaponi/gauge/internal/logging"
	"github.com/andrearaponi/gauge/pkg/config"
	"github.com/andrearaponi/gauge/pkg/engine"
	"github.com/andrearaponi/gauge/pkg/progress"
	"github.com/andrearaponi/gauge/pkg/reporter"
	"github.com/andrearaponi/gauge/pkg/style"
	"github.com/andrearaponi/gauge/pkg/term"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

var errRunFailed = errors.New("run did not complete successfully")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).Run(ctx, os.Args); err != nil {
		if !errors.Is(err, errRunFailed) {
			log.Printf("Error: %v", err)
		}
		stop()
		os.Exit(1)
	}
}

func newApp(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "gauge",
		Usage:   "Run workloads behind a live terminal progress bar",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the jobs described in a TOML config file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to TOML configuration file",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "Number of concurrent jobs (overrides run.workers)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Value:   "text",
						Usage:   "Output format: text or json",
					},
					&cli.BoolFlag{
						Name:  "verbose",
						Usage: "Log every unit and print run details",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return runJobs(ctx, c, stdout)
				},
			},
			{
				Name:  "version",
				Usage: "Show version information",
				Action: func(_ context.Context, _ *cli.Command) error {
					printVersion(stdout)
					return nil
				},
			},
		},
	}
}

func runJobs(ctx context.Context, c *cli.Command, stdout io.Writer) error {
	cfg, err := config.LoadFromFile(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if c.IsSet("workers") {
		if c.Int("workers") < 1 {
			return fmt.Errorf("workers must be at least 1")
		}
		cfg.Run.Workers = int(c.Int("workers"))
	}

	outputFormat := c.String("output")
	if outputFormat != "text" && outputFormat != "json" {
		return fmt.Errorf("unknown output format %q", outputFormat)
	}

	verbose := c.Bool("verbose")
	level := cfg.Run.LogLevel
	if verbose {
		level = "debug"
	}

	fileLogger, err := logging.New(level, cfg.Run.LogFile)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer fileLogger.Sync()

	finish, err := progress.ParseFinish(cfg.Bar.Finish, cfg.Bar.FinishMessage)
	if err != nil {
		return err
	}

	units, err := style.ParseUnits(cfg.Bar.Units)
	if err != nil {
		return err
	}

	// Only show progress bar for text output
	var progressBar *progress.ProgressBar
	runLogger := fileLogger
	if outputFormat == "text" {
		targetOpts := []term.Option{term.WithRefreshRate(cfg.Bar.RefreshRate)}
		if cfg.Bar.Width > 0 {
			targetOpts = append(targetOpts, term.WithWidth(cfg.Bar.Width))
		}

		progressBar = progress.New(cfg.GetTotalUnits(),
			progress.WithDrawTarget(term.Stderr(targetOpts...)),
			progress.WithFormatter(style.NewBar(units)),
			progress.WithPrefix(cfg.Bar.Prefix),
			progress.WithFinish(finish),
			progress.WithLogger(fileLogger),
			progress.WithTickInterval(cfg.Bar.TickInterval),
		)
		defer progressBar.Close()

		barLogger, err := logging.ThroughBar(progressBar, level)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		runLogger = zap.New(zapcore.NewTee(fileLogger.Core(), barLogger.Core()))
	}

	summary, err := engine.New(cfg.Run.Workers, progressBar, runLogger, finish).Run(ctx, cfg)
	if err != nil {
		return err
	}

	rep := reporter.New(stdout, verbose)
	if outputFormat == "json" {
		if err := rep.GenerateJSONReport(summary); err != nil {
			return fmt.Errorf("failed to generate JSON report: %w", err)
		}
	} else {
		rep.GenerateReport(summary)
	}

	// Exit with an error code if any job failed or the run was interrupted
	if !summary.Success() || summary.Canceled {
		return errRunFailed
	}
	return nil
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "Gauge %s\n", version)
	fmt.Fprintf(w, "Commit: %s\n", commit)
	fmt.Fprintf(w, "Built: %s\n", buildTime)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Terminal progress bars for concurrent Go workloads")
}
