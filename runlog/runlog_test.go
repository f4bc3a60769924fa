package runlog

import (
	"context"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vyquocvu/blockview/dbopen"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	db := dbopen.OpenMemory(t)
	store := NewStore(db)
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestRecordAndList(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	base := time.Now().Add(-time.Hour)
	runs := []Run{
		{StartedAt: base, FinishedAt: base.Add(10 * time.Second), Outcome: OutcomeTrace,
			TxRef: "0xaaa", Screenshot: "verification/verification.png"},
		{StartedAt: base.Add(time.Minute), FinishedAt: base.Add(time.Minute + 8*time.Second),
			Outcome: OutcomeAppError, TxRef: "0xaaa"},
		{StartedAt: base.Add(2 * time.Minute), FinishedAt: base.Add(2*time.Minute + time.Second),
			Outcome: OutcomeFailed, FailedStep: "first-row-link",
			Error: "verify: element table > tbody > tr:first-child > td:first-child > a not visible within 30s"},
	}
	for i := range runs {
		id, err := store.Record(ctx, &runs[i])
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if id == 0 {
			t.Fatalf("record %d: zero id", i)
		}
	}

	got, err := store.List(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("list = %d runs, want 3", len(got))
	}
	// Most recent first.
	if got[0].Outcome != OutcomeFailed || got[2].Outcome != OutcomeTrace {
		t.Errorf("order wrong: %s, %s, %s", got[0].Outcome, got[1].Outcome, got[2].Outcome)
	}
	if got[0].FailedStep != "first-row-link" {
		t.Errorf("failed step = %q", got[0].FailedStep)
	}

	// Millisecond timestamps round-trip.
	if got[2].StartedAt.UnixMilli() != base.UnixMilli() {
		t.Errorf("started_at = %v, want %v", got[2].StartedAt, base)
	}
}

func TestLast(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	last, err := store.Last(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if last != nil {
		t.Fatal("empty ledger should return nil")
	}

	now := time.Now()
	if _, err := store.Record(ctx, &Run{StartedAt: now.Add(-time.Minute), FinishedAt: now, Outcome: OutcomeTrace}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Record(ctx, &Run{StartedAt: now, FinishedAt: now, Outcome: OutcomeAppError}); err != nil {
		t.Fatal(err)
	}

	last, err = store.Last(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if last == nil || last.Outcome != OutcomeAppError {
		t.Errorf("last = %+v, want most recent app_error run", last)
	}
}

func TestListLimit(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	now := time.Now()
	for i := 0; i < 5; i++ {
		if _, err := store.Record(ctx, &Run{
			StartedAt: now.Add(time.Duration(i) * time.Second), FinishedAt: now, Outcome: OutcomeTrace,
		}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("list = %d runs, want 2", len(got))
	}
}
