package store

import (
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "edfgen.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInsertAndGetRun(t *testing.T) {
	db := newTestDB(t)

	params := RunParams{
		ID:               "run-1",
		Seed:             42,
		NumProcessors:    4,
		NumTasks:         10,
		MaxHyperedgeSize: 5,
		NumSamples:       100,
		ImplicitDeadline: true,
		TruncatedLCM:     0,
	}
	if err := db.InsertRun(params); err != nil {
		t.Fatalf("InsertRun() error: %v", err)
	}

	run, err := db.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun() error: %v", err)
	}
	if run == nil {
		t.Fatalf("GetRun() = nil, want a run")
	}
	if run.Seed != 42 {
		t.Errorf("Seed = %d, want 42", run.Seed)
	}
	if !run.ImplicitDeadline {
		t.Errorf("ImplicitDeadline = false, want true")
	}
	if run.FinishedAt != nil {
		t.Errorf("FinishedAt = %v, want nil before FinishRun", run.FinishedAt)
	}
}

func TestGetRun_Unknown(t *testing.T) {
	db := newTestDB(t)
	run, err := db.GetRun("does-not-exist")
	if err != nil {
		t.Fatalf("GetRun() error: %v", err)
	}
	if run != nil {
		t.Errorf("GetRun() = %+v, want nil", run)
	}
}

func TestFinishRun(t *testing.T) {
	db := newTestDB(t)
	if err := db.InsertRun(RunParams{ID: "run-2", Seed: 1, NumProcessors: 1, NumTasks: 1, MaxHyperedgeSize: 1, NumSamples: 1}); err != nil {
		t.Fatalf("InsertRun() error: %v", err)
	}
	if err := db.FinishRun("run-2", 3, 2, 1); err != nil {
		t.Fatalf("FinishRun() error: %v", err)
	}

	run, err := db.GetRun("run-2")
	if err != nil {
		t.Fatalf("GetRun() error: %v", err)
	}
	if run.FinishedAt == nil {
		t.Fatalf("FinishedAt = nil, want set after FinishRun")
	}
	if run.PositiveCount != 3 || run.NegativeCount != 2 || run.MUCCount != 1 {
		t.Errorf("counts = (%d,%d,%d), want (3,2,1)", run.PositiveCount, run.NegativeCount, run.MUCCount)
	}
}

func TestRecordAndLoadDecisions(t *testing.T) {
	db := newTestDB(t)
	if err := db.InsertRun(RunParams{ID: "run-3", Seed: 1, NumProcessors: 1, NumTasks: 3, MaxHyperedgeSize: 3, NumSamples: 1}); err != nil {
		t.Fatalf("InsertRun() error: %v", err)
	}

	if err := db.RecordDecision("run-3", "0,1", true, false); err != nil {
		t.Fatalf("RecordDecision() error: %v", err)
	}
	if err := db.RecordDecision("run-3", "0,1,2", false, true); err != nil {
		t.Fatalf("RecordDecision() error: %v", err)
	}

	decisions, err := db.LoadDecisions("run-3")
	if err != nil {
		t.Fatalf("LoadDecisions() error: %v", err)
	}
	if len(decisions) != 2 {
		t.Fatalf("len(decisions) = %d, want 2", len(decisions))
	}

	byKey := make(map[string]Decision, len(decisions))
	for _, d := range decisions {
		byKey[d.Subset] = d
	}
	if !byKey["0,1"].Verdict {
		t.Errorf("0,1 verdict = false, want true")
	}
	if byKey["0,1"].IsMUC {
		t.Errorf("0,1 is_muc = true, want false")
	}
	if byKey["0,1,2"].Verdict {
		t.Errorf("0,1,2 verdict = true, want false")
	}
	if !byKey["0,1,2"].IsMUC {
		t.Errorf("0,1,2 is_muc = false, want true")
	}
}

func TestRecorder_DelegatesToRecordDecision(t *testing.T) {
	db := newTestDB(t)
	if err := db.InsertRun(RunParams{ID: "run-5", Seed: 1, NumProcessors: 1, NumTasks: 2, MaxHyperedgeSize: 2, NumSamples: 1}); err != nil {
		t.Fatalf("InsertRun() error: %v", err)
	}

	rec := db.Recorder("run-5")
	if err := rec.RecordDecision("0,1", true, false); err != nil {
		t.Fatalf("RecordDecision() error: %v", err)
	}

	decisions, err := db.LoadDecisions("run-5")
	if err != nil {
		t.Fatalf("LoadDecisions() error: %v", err)
	}
	if len(decisions) != 1 || decisions[0].Subset != "0,1" || !decisions[0].Verdict {
		t.Errorf("LoadDecisions() = %+v, want one {0,1 true false}", decisions)
	}
}

func TestRecordDecision_UpsertIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	if err := db.InsertRun(RunParams{ID: "run-4", Seed: 1, NumProcessors: 1, NumTasks: 1, MaxHyperedgeSize: 1, NumSamples: 1}); err != nil {
		t.Fatalf("InsertRun() error: %v", err)
	}
	if err := db.RecordDecision("run-4", "0", false, false); err != nil {
		t.Fatalf("RecordDecision() error: %v", err)
	}
	if err := db.RecordDecision("run-4", "0", true, false); err != nil {
		t.Fatalf("RecordDecision() error: %v", err)
	}

	decisions, err := db.LoadDecisions("run-4")
	if err != nil {
		t.Fatalf("LoadDecisions() error: %v", err)
	}
	if len(decisions) != 1 {
		t.Fatalf("len(decisions) = %d, want 1 (re-recording the same subset must update, not duplicate)", len(decisions))
	}
	if !decisions[0].Verdict {
		t.Errorf("verdict = false, want true (latest write wins)")
	}
}
