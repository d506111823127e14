package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/unccx/edfgen/internal/output"
)

func resetGenFlags() {
	genFlags = struct {
		seed             int64
		seedFromConfig   bool
		processors       int
		tasks            int
		maxHyperedgeSize int
		samples          int
		implicitDeadline bool
		loadPlatform     string
		out              string
		db               string
		runID            string
		httpAddr         string
		sampling         string
		workers          int
		configPath       string
		truncatedLCM     int64
		excludeTruncated bool
		force            bool
		quiet            bool
	}{}
}

func TestValidateGenFlags_RejectsMissingSeed(t *testing.T) {
	resetGenFlags()
	genFlags.processors = 1
	genFlags.tasks = 1
	genFlags.samples = 1
	genFlags.out = "out"
	genFlags.sampling = "uniform"
	if err := validateGenFlags(false); err == nil {
		t.Errorf("expected error when --seed was never supplied")
	}
}

func TestValidateGenFlags_RejectsMissingRequired(t *testing.T) {
	resetGenFlags()
	genFlags.sampling = "uniform"
	if err := validateGenFlags(true); err == nil {
		t.Errorf("expected error for all-zero flags")
	}
}

func TestValidateGenFlags_AcceptsMinimalValid(t *testing.T) {
	resetGenFlags()
	genFlags.processors = 1
	genFlags.tasks = 1
	genFlags.samples = 1
	genFlags.out = "out"
	genFlags.sampling = "uniform"
	if err := validateGenFlags(true); err != nil {
		t.Errorf("validateGenFlags() error = %v, want nil", err)
	}
}

func TestValidateGenFlags_AcceptsZeroSeedWhenExplicitlySet(t *testing.T) {
	resetGenFlags()
	genFlags.seed = 0
	genFlags.processors = 1
	genFlags.tasks = 1
	genFlags.samples = 1
	genFlags.out = "out"
	genFlags.sampling = "uniform"
	if err := validateGenFlags(true); err != nil {
		t.Errorf("validateGenFlags() error = %v, want nil for an explicit zero seed", err)
	}
}

func TestValidateGenFlags_RejectsUnknownSamplingStrategy(t *testing.T) {
	resetGenFlags()
	genFlags.processors = 1
	genFlags.tasks = 1
	genFlags.samples = 1
	genFlags.out = "out"
	genFlags.sampling = "exotic"
	if err := validateGenFlags(true); err == nil {
		t.Errorf("expected error for unknown sampling strategy")
	}
}

func TestValidateGenFlags_DefaultsZeroWorkersToOne(t *testing.T) {
	resetGenFlags()
	genFlags.processors = 1
	genFlags.tasks = 1
	genFlags.samples = 1
	genFlags.out = "out"
	genFlags.sampling = "uniform"
	genFlags.workers = 0
	if err := validateGenFlags(true); err != nil {
		t.Fatalf("validateGenFlags() error = %v", err)
	}
	if genFlags.workers != 1 {
		t.Errorf("workers = %d, want 1", genFlags.workers)
	}
}

func TestPrepareOutputDir_RefusesWithoutForceWhenFilesExist(t *testing.T) {
	dir := t.TempDir()
	w, err := output.New(dir)
	if err != nil {
		t.Fatalf("output.New: %v", err)
	}
	w.Close()

	if err := prepareOutputDir(dir, false, false); err == nil {
		t.Errorf("expected refusal when output files already exist")
	}
}

func TestPrepareOutputDir_ForceTruncatesExistingFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := output.New(dir)
	if err != nil {
		t.Fatalf("output.New: %v", err)
	}
	if err := w.WriteHyperedge([]int{0}); err != nil {
		t.Fatalf("WriteHyperedge: %v", err)
	}
	w.Close()

	if err := prepareOutputDir(dir, true, false); err != nil {
		t.Fatalf("prepareOutputDir: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "hyperedges.csv"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("expected truncated file, got %q", data)
	}
}

func TestPrepareOutputDir_CreatesFreshDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	if err := prepareOutputDir(dir, false, false); err != nil {
		t.Fatalf("prepareOutputDir: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("expected dir to be created")
	}
}

func TestPrepareOutputDir_ResumingSkipsRefusalAndClobber(t *testing.T) {
	dir := t.TempDir()
	w, err := output.New(dir)
	if err != nil {
		t.Fatalf("output.New: %v", err)
	}
	if err := w.WriteHyperedge([]int{3, 4}); err != nil {
		t.Fatalf("WriteHyperedge: %v", err)
	}
	w.Close()

	if err := prepareOutputDir(dir, false, true); err != nil {
		t.Fatalf("prepareOutputDir with resuming=true: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "hyperedges.csv"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) == 0 {
		t.Errorf("resuming must not clobber pre-existing output, got empty file")
	}
}
