package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/vyquocvu/blockview/dbopen"
	"github.com/vyquocvu/blockview/runlog"
	"github.com/vyquocvu/blockview/verify"
)

// An interrupt cancels the signal context before the ledger write happens;
// the row must land anyway.
func TestRecordSurvivesCancelledContext(t *testing.T) {
	cfg := verify.DefaultConfig()
	cfg.Ledger.DB = filepath.Join(t.TempDir(), "runs.db")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	started := time.Now().Add(-2 * time.Second)
	res := &verify.Result{
		TxRef:      "0xabc123",
		State:      verify.StateTrace,
		Screenshot: filepath.Join(cfg.Artifacts.Dir, cfg.Artifacts.Success),
		Started:    started,
		Finished:   time.Now(),
	}
	if err := record(ctx, cfg, started, res, nil); err != nil {
		t.Fatalf("record on cancelled context: %v", err)
	}

	db, err := dbopen.Open(cfg.Ledger.DB)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	defer db.Close()

	last, err := runlog.NewStore(db).Last(context.Background())
	if err != nil {
		t.Fatalf("last: %v", err)
	}
	if last == nil {
		t.Fatal("ledger is empty")
	}
	if last.Outcome != runlog.OutcomeTrace || last.TxRef != "0xabc123" {
		t.Errorf("last = %+v, want trace outcome for 0xabc123", last)
	}
}

func TestRecordFailedRun(t *testing.T) {
	cfg := verify.DefaultConfig()
	cfg.Ledger.DB = filepath.Join(t.TempDir(), "runs.db")

	runErr := &verify.StepError{Step: verify.StepOutcome, Err: context.DeadlineExceeded}
	if err := record(context.Background(), cfg, time.Now(), nil, runErr); err != nil {
		t.Fatalf("record: %v", err)
	}

	db, err := dbopen.Open(cfg.Ledger.DB)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	defer db.Close()

	last, err := runlog.NewStore(db).Last(context.Background())
	if err != nil {
		t.Fatalf("last: %v", err)
	}
	if last == nil {
		t.Fatal("ledger is empty")
	}
	if last.Outcome != runlog.OutcomeFailed {
		t.Errorf("outcome = %s, want %s", last.Outcome, runlog.OutcomeFailed)
	}
	if last.FailedStep != verify.StepOutcome {
		t.Errorf("failed step = %s, want %s", last.FailedStep, verify.StepOutcome)
	}
	if last.Screenshot != filepath.Join(cfg.Artifacts.Dir, cfg.Artifacts.Error) {
		t.Errorf("screenshot = %s, want error artifact path", last.Screenshot)
	}
}
