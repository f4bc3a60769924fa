// Command blockview-verify runs the BlockView transaction-trace UI
// verification flow against a running explorer instance.
//
// Usage:
//
//	blockview-verify                         # verify http://localhost:5173
//	blockview-verify -url http://host:5173   # override the target
//	blockview-verify -config verify.yaml     # full configuration
//
// Exits 0 when the flow reaches either terminal indicator (trace panel or
// application-surfaced trace error); exits 1 after writing the error
// screenshot otherwise.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vyquocvu/blockview/dbopen"
	"github.com/vyquocvu/blockview/runlog"
	"github.com/vyquocvu/blockview/verify"
)

func main() {
	configPath := flag.String("config", "", "path to verify.yaml config file")
	baseURL := flag.String("url", "", "base URL of the explorer (overrides config)")
	outDir := flag.String("out", "", "artifacts directory (overrides config)")
	headful := flag.Bool("headful", false, "run Chrome headful on an Xvfb display")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *baseURL, *outDir, *headful); err != nil {
		logger.Error("blockview-verify: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, baseURL, outDir string, headful bool) error {
	cfg := verify.DefaultConfig()
	if configPath != "" {
		loaded, err := verify.LoadConfigFile(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if baseURL != "" {
		cfg.Target.BaseURL = baseURL
	}
	if outDir != "" {
		cfg.Artifacts.Dir = outDir
	}
	if headful {
		cfg.Browser.Headful = true
	}

	runner := verify.New(cfg, logger)
	started := time.Now()
	res, runErr := runner.Run(ctx)

	if cfg.Ledger.DB != "" {
		if err := record(ctx, cfg, started, res, runErr); err != nil {
			logger.Warn("blockview-verify: ledger record failed", "error", err)
		}
	}

	return runErr
}

// record appends the run to the SQLite ledger, success or failure. The run
// context may already be cancelled (an interrupted run is still a recordable
// outcome), so the write gets its own bound.
func record(ctx context.Context, cfg *verify.Config, started time.Time, res *verify.Result, runErr error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	db, err := dbopen.Open(cfg.Ledger.DB, dbopen.WithMkdirAll(), dbopen.WithSchema(runlog.Schema))
	if err != nil {
		return err
	}
	defer db.Close()

	store := runlog.NewStore(db)

	r := &runlog.Run{StartedAt: started, FinishedAt: time.Now()}
	if runErr != nil {
		r.Outcome = runlog.OutcomeFailed
		r.Error = runErr.Error()
		r.Screenshot = filepath.Join(cfg.Artifacts.Dir, cfg.Artifacts.Error)
		var step *verify.StepError
		if errors.As(runErr, &step) {
			r.FailedStep = step.Step
		}
	} else {
		r.Outcome = string(res.State)
		r.StartedAt = res.Started
		r.FinishedAt = res.Finished
		r.TxRef = res.TxRef
		r.Screenshot = res.Screenshot
		r.Snapshot = res.Snapshot
	}

	_, err = store.Record(ctx, r)
	return err
}
