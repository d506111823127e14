package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/unccx/edfgen/internal/api"
	"github.com/unccx/edfgen/internal/config"
	"github.com/unccx/edfgen/internal/domain"
	"github.com/unccx/edfgen/internal/genrand"
	"github.com/unccx/edfgen/internal/logging"
	"github.com/unccx/edfgen/internal/metrics"
	"github.com/unccx/edfgen/internal/output"
	"github.com/unccx/edfgen/internal/search"
	"github.com/unccx/edfgen/internal/sim"
	"github.com/unccx/edfgen/internal/store"
)

var genFlags struct {
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
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a schedulability dataset",
	RunE:  runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.Int64Var(&genFlags.seed, "seed", 0, "random seed (required)")
	f.IntVar(&genFlags.processors, "processors", 0, "number of processors (required, >=1)")
	f.IntVar(&genFlags.tasks, "tasks", 0, "number of tasks (required, >=1)")
	f.IntVar(&genFlags.maxHyperedgeSize, "max-hyperedge-size", 0, "largest subset size searched (default: --tasks)")
	f.IntVar(&genFlags.samples, "samples", 0, "number of root subsets to sample (required, >=1)")
	f.BoolVar(&genFlags.implicitDeadline, "implicit-deadline", false, "set deadline = period for every generated task")
	f.StringVar(&genFlags.loadPlatform, "load-platform", "", "load a platform.csv from a prior run instead of generating one")
	f.StringVar(&genFlags.out, "out", "", "output directory (required)")
	f.StringVar(&genFlags.db, "db", "", "optional SQLite path for resumable runs")
	f.StringVar(&genFlags.runID, "run-id", "", "resume a previous --db run by id instead of starting a fresh one")
	f.StringVar(&genFlags.httpAddr, "http-addr", "", "optional address for the status/metrics HTTP server, e.g. :9400")
	f.StringVar(&genFlags.sampling, "sampling", "uniform", "root-subset sampling strategy: uniform|bandit")
	f.IntVar(&genFlags.workers, "workers", 1, "number of concurrent root-subset searches (1 = sequential, fully deterministic)")
	f.StringVar(&genFlags.configPath, "config", "", "optional TOML file of flag defaults, under a [generate] table")
	f.Int64Var(&genFlags.truncatedLCM, "truncated-lcm", 0, "cap the simulation horizon at this many time units instead of the full hyperperiod LCM (0 = no truncation)")
	f.BoolVar(&genFlags.excludeTruncated, "exclude-truncated", false, "omit truncated-but-feasible verdicts from hyperedges.csv (only meaningful with --truncated-lcm)")
	f.BoolVar(&genFlags.force, "force", false, "truncate pre-existing output files instead of refusing to start")
	f.BoolVar(&genFlags.quiet, "quiet", false, "suppress console logging (the rotating file sink is always installed)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if err := mergeConfigFile(cmd); err != nil {
		return err
	}
	seedSet := cmd.Flags().Changed("seed") || genFlags.seedFromConfig
	if err := validateGenFlags(seedSet); err != nil {
		return err
	}

	runID := genFlags.runID
	if runID == "" {
		runID = uuid.NewString()
	}

	var db *store.DB
	var resuming bool
	if genFlags.db != "" {
		var err error
		db, err = store.Open(genFlags.db)
		if err != nil {
			return fmt.Errorf("failed to open run store: %w", err)
		}
		defer db.Close()

		existing, err := db.GetRun(runID)
		if err != nil {
			return fmt.Errorf("failed to look up run %s: %w", runID, err)
		}
		resuming = existing != nil
	}

	// A resumed run continues appending to its own prior output files
	// instead of being refused or truncated — prepareOutputDir's
	// pre-existing-files check exists to stop a fresh run from silently
	// mixing into stale data, which does not apply here.
	if err := prepareOutputDir(genFlags.out, genFlags.force, resuming); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logCfg := logging.DefaultConfig(filepath.Join(genFlags.out, "edfgen.log"))
	logCfg.Quiet = genFlags.quiet
	log := logging.New(logCfg)
	entry := logging.WithName(log, "generate")

	platform, err := resolvePlatform(entry)
	if err != nil {
		entry.WithError(err).Error("configuration error")
		return err
	}

	tasks := genrand.Tasks(genFlags.seed, genrand.DefaultTaskParams(genFlags.tasks, genFlags.implicitDeadline))

	maxSize := genFlags.maxHyperedgeSize
	if maxSize <= 0 || maxSize > len(tasks) {
		maxSize = len(tasks)
	}

	writer, err := output.New(genFlags.out)
	if err != nil {
		entry.WithError(err).Error("failed to open output streams")
		return err
	}
	defer writer.Close()

	if err := writer.WritePlatform(platform); err != nil {
		return fmt.Errorf("write platform.csv: %w", err)
	}
	if err := writer.WriteTaskQuadruples(tasks); err != nil {
		return fmt.Errorf("write task_quadruples.csv: %w", err)
	}

	var seedDecisions []search.SeedDecision
	if db != nil {
		if resuming {
			decisions, err := db.LoadDecisions(runID)
			if err != nil {
				entry.WithError(err).Error("failed to load persisted decisions")
				return err
			}
			seedDecisions, err = toSeedDecisions(decisions)
			if err != nil {
				entry.WithError(err).Error("failed to parse persisted decisions")
				return err
			}
			entry.WithField("run_id", runID).WithField("decisions", len(seedDecisions)).Info("resuming existing run")
		} else {
			if err := db.InsertRun(store.RunParams{
				ID:               runID,
				Seed:             genFlags.seed,
				NumProcessors:    genFlags.processors,
				NumTasks:         genFlags.tasks,
				MaxHyperedgeSize: maxSize,
				NumSamples:       genFlags.samples,
				ImplicitDeadline: genFlags.implicitDeadline,
				TruncatedLCM:     genFlags.truncatedLCM,
			}); err != nil {
				entry.WithError(err).Error("failed to record run start")
				return err
			}
		}
	}

	var obs search.Observer = metrics.Observer{}
	engine := search.New(tasks, platform, sim.GlobalEDF{Log: entry}, writer, genFlags.truncatedLCM, genFlags.excludeTruncated, obs, entry)
	if db != nil {
		engine.SetRecorder(db.Recorder(runID))
		if len(seedDecisions) > 0 {
			engine.Seed(seedDecisions)
		}
	}

	var httpServer *api.Server
	var httpSrv *http.Server
	if genFlags.httpAddr != "" {
		httpServer = api.NewServer()
		httpSrv = &http.Server{Addr: genFlags.httpAddr, Handler: httpServer.Handler()}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				entry.WithError(err).Error("status server stopped unexpectedly")
			}
		}()
		defer httpSrv.Close()
		httpServer.MarkRunning()
		defer httpServer.MarkStopped()
	}

	var sampler search.Sampler
	switch genFlags.sampling {
	case "bandit":
		sampler = search.NewBanditSampler(search.DefaultBanditConfig())
	default:
		sampler = search.UniformSampler{}
	}

	pool := search.NewPool(search.PoolConfig{MaxConcurrent: genFlags.workers}, engine, sampler)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	taskIDs := engine.SortedTaskIDs()
	entry.WithField("tasks", len(taskIDs)).Info("starting search")

	runErr := pool.Run(ctx, genFlags.seed, taskIDs, maxSize, genFlags.samples)

	positive, negative, muc := engine.Counts()
	entry.WithField("positive", positive).WithField("negative", negative).WithField("muc", muc).Info("search finished")

	if db != nil {
		if ferr := db.FinishRun(runID, positive, negative, muc); ferr != nil {
			entry.WithError(ferr).Error("failed to record run completion")
			if runErr == nil {
				runErr = ferr
			}
		}
	}

	if runErr != nil {
		entry.WithError(runErr).Error("run aborted")
		return runErr
	}
	return nil
}

// toSeedDecisions parses each persisted decision's "0,2,5" subset encoding
// back into a sorted id slice, for Engine.Seed.
func toSeedDecisions(decisions []store.Decision) ([]search.SeedDecision, error) {
	out := make([]search.SeedDecision, 0, len(decisions))
	for _, d := range decisions {
		ids, err := parseSubset(d.Subset)
		if err != nil {
			return nil, err
		}
		out = append(out, search.SeedDecision{Subset: ids, Verdict: d.Verdict, IsMUC: d.IsMUC})
	}
	return out, nil
}

// parseSubset reverses search's canonical "0,2,5" subset key encoding.
func parseSubset(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("parse subset id %q in %q: %w", p, s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func mergeConfigFile(cmd *cobra.Command) error {
	if genFlags.configPath == "" {
		return nil
	}
	file, err := config.Load(genFlags.configPath)
	if err != nil {
		return err
	}
	g := file.Generate
	flags := cmd.Flags()
	config.Int64Var(&genFlags.seed, g.Seed, flags.Changed("seed"))
	if !flags.Changed("seed") && g.Seed != nil {
		genFlags.seedFromConfig = true
	}
	config.IntVar(&genFlags.processors, g.Processors, flags.Changed("processors"))
	config.IntVar(&genFlags.tasks, g.Tasks, flags.Changed("tasks"))
	config.IntVar(&genFlags.maxHyperedgeSize, g.MaxHyperedgeSize, flags.Changed("max-hyperedge-size"))
	config.IntVar(&genFlags.samples, g.Samples, flags.Changed("samples"))
	config.BoolVar(&genFlags.implicitDeadline, g.ImplicitDeadline, flags.Changed("implicit-deadline"))
	config.StringVar(&genFlags.loadPlatform, g.LoadPlatform, flags.Changed("load-platform"))
	config.StringVar(&genFlags.out, g.Out, flags.Changed("out"))
	config.StringVar(&genFlags.db, g.DB, flags.Changed("db"))
	config.StringVar(&genFlags.httpAddr, g.HTTPAddr, flags.Changed("http-addr"))
	config.StringVar(&genFlags.sampling, g.Sampling, flags.Changed("sampling"))
	config.IntVar(&genFlags.workers, g.Workers, flags.Changed("workers"))
	config.Int64Var(&genFlags.truncatedLCM, g.TruncatedLCM, flags.Changed("truncated-lcm"))
	config.BoolVar(&genFlags.excludeTruncated, g.ExcludeTruncated, flags.Changed("exclude-truncated"))
	config.BoolVar(&genFlags.force, g.Force, flags.Changed("force"))
	config.BoolVar(&genFlags.quiet, g.Quiet, flags.Changed("quiet"))
	return nil
}

// validateGenFlags checks the required flags and normalizes workers.
// seedSet reports whether --seed (or its config-file fallback) was
// actually supplied; it cannot be inferred from genFlags.seed itself
// since 0 is a legitimate seed value.
func validateGenFlags(seedSet bool) error {
	if !seedSet {
		return fmt.Errorf("--seed is required")
	}
	if genFlags.processors < 1 {
		return fmt.Errorf("--processors must be >= 1")
	}
	if genFlags.tasks < 1 {
		return fmt.Errorf("--tasks must be >= 1")
	}
	if genFlags.samples < 1 {
		return fmt.Errorf("--samples must be >= 1")
	}
	if genFlags.out == "" {
		return fmt.Errorf("--out is required")
	}
	if genFlags.sampling != "uniform" && genFlags.sampling != "bandit" {
		return fmt.Errorf("--sampling must be uniform or bandit, got %q", genFlags.sampling)
	}
	if genFlags.workers < 1 {
		genFlags.workers = 1
	}
	return nil
}

// prepareOutputDir enforces spec.md §6's "callers must remove pre-existing
// files" requirement: refuse to start if any of the five output files
// already exist in dir, unless force truncates them first. resuming skips
// both checks — a resumed run is expected to keep appending to its own
// prior output.
func prepareOutputDir(dir string, force, resuming bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", dir, err)
	}
	if resuming {
		return nil
	}
	existing := output.ExistingFiles(dir)
	if len(existing) == 0 {
		return nil
	}
	if !force {
		return fmt.Errorf("output files already exist in %s: %v (use --force to truncate)", dir, existing)
	}
	return output.Clobber(dir)
}

func resolvePlatform(log *logrus.Entry) (domain.Platform, error) {
	if genFlags.loadPlatform != "" {
		log.WithField("path", genFlags.loadPlatform).Info("loading platform from file")
		return output.LoadPlatform(genFlags.loadPlatform)
	}
	return genrand.Platform(genFlags.seed, genrand.DefaultPlatformParams(genFlags.processors)), nil
}
