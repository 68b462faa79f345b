package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"clientdedup/internal/analysis"
	"clientdedup/internal/config"
	"clientdedup/internal/fileutil"
	"clientdedup/internal/hmis"
	"clientdedup/internal/logging"
	"clientdedup/internal/matching"
	"clientdedup/internal/remap"
	"clientdedup/internal/resultdb"
)

// ErrOutputLocked is returned when another run holds the output directory.
var ErrOutputLocked = errors.New("output directory is locked by another run")

const lockFileName = ".clientdedup.lock"

// Options controls a Run.
type Options struct {
	// RunID names the run; a random id is generated when empty.
	RunID string
	// DryRun resolves and reports without writing anything.
	DryRun bool
}

// Summary reports the outcome of a run.
type Summary struct {
	RunID           string               `json:"run_id" yaml:"run_id"`
	DryRun          bool                 `json:"dry_run" yaml:"dry_run"`
	InputDir        string               `json:"input_dir" yaml:"input_dir"`
	OutputDir       string               `json:"output_dir" yaml:"output_dir"`
	StartedAt       time.Time            `json:"started_at" yaml:"started_at"`
	ElapsedSeconds  float64              `json:"elapsed_seconds" yaml:"elapsed_seconds"`
	Clients         hmis.ReadStats       `json:"clients" yaml:"clients"`
	Temporal        hmis.TemporalStats   `json:"temporal" yaml:"temporal"`
	Anchors         int                  `json:"anchors" yaml:"anchors"`
	DuplicateGroups int                  `json:"duplicate_groups" yaml:"duplicate_groups"`
	LinkedRecords   int                  `json:"linked_records" yaml:"linked_records"`
	RemappedIDs     int                  `json:"remapped_ids" yaml:"remapped_ids"`
	GroupSizes      map[int]int          `json:"group_sizes" yaml:"group_sizes"`
	Matching        matching.Stats       `json:"matching" yaml:"matching"`
	Twins           *analysis.TwinCensus `json:"twins,omitempty" yaml:"twins,omitempty"`
	Files           []remap.FileResult   `json:"files,omitempty" yaml:"files,omitempty"`
	Extracts        []Extract            `json:"extracts,omitempty" yaml:"extracts,omitempty"`
	ResultsDB       string               `json:"results_db,omitempty" yaml:"results_db,omitempty"`
}

// Run resolves the input snapshot described by cfg and, unless opts.DryRun is
// set, writes the remapped datasets and extracts into the output directory.
func Run(ctx context.Context, cfg *config.Config, opts Options, logger *slog.Logger) (Summary, error) {
	if cfg == nil {
		return Summary{}, errors.New("config is nil")
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	ctx = logging.WithRunID(ctx, opts.RunID)
	logger = logging.NewComponentLogger(logging.WithContext(ctx, logger), "pipeline")

	summary := Summary{
		RunID:     opts.RunID,
		DryRun:    opts.DryRun,
		InputDir:  cfg.Paths.InputDir,
		OutputDir: cfg.Paths.OutputDir,
		StartedAt: time.Now().UTC(),
	}

	if !opts.DryRun {
		if err := cfg.EnsureDirectories(); err != nil {
			return summary, err
		}
		lock := flock.New(filepath.Join(cfg.Paths.OutputDir, lockFileName))
		ok, err := lock.TryLock()
		if err != nil {
			return summary, fmt.Errorf("acquire output lock: %w", err)
		}
		if !ok {
			return summary, fmt.Errorf("%w: %s", ErrOutputLocked, cfg.Paths.OutputDir)
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				logging.WarnWithContext(logger, "failed to release output lock", "lock_release_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "remove "+lockFileName+" if no run is active"),
				)
			}
		}()
		logging.PruneRunLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays,
			logging.RunLogPath(cfg.Paths.LogDir, opts.RunID))
	}

	res, err := Resolve(ctx, cfg, logger)
	if err != nil {
		return summary, err
	}
	summary.fill(res)

	if cfg.Output.TwinExtract {
		census, err := analysis.CountTwins(ctx, res.Anchors, res.Index, cfg.Matching.AdultAge)
		if err != nil {
			return summary, fmt.Errorf("count twins: %w", err)
		}
		summary.Twins = &census
	}

	if opts.DryRun {
		summary.ElapsedSeconds = time.Since(summary.StartedAt).Seconds()
		logger.Info("dry run complete", logging.Int("duplicate_groups", summary.DuplicateGroups))
		return summary, nil
	}

	remapper := remap.New(res.IDs, remap.Options{
		OutputDir: cfg.Paths.OutputDir,
		Suffix:    cfg.Output.Suffix,
		Column:    cfg.Output.NewIDColumn,
		Workers:   cfg.Output.Workers,
		Logger:    logger,
	})
	inputs, err := hmis.Discover(cfg.Paths.InputDir, cfg.Output.Suffix)
	if err != nil {
		return summary, err
	}
	summary.Files, err = remapper.RemapAll(ctx, inputs)
	if err != nil {
		return summary, fmt.Errorf("remap datasets: %w", err)
	}

	summary.Extracts, err = writeExtracts(remapper, summary.Twins, res.Duplicates(), cfg.Output.GroupExtracts)
	if err != nil {
		return summary, err
	}

	if cfg.Output.ResultsDB {
		if err := exportResults(ctx, cfg, res, &summary); err != nil {
			return summary, err
		}
		summary.ResultsDB = cfg.Output.ResultsDBPath
	}

	summary.ElapsedSeconds = time.Since(summary.StartedAt).Seconds()
	logger.Info("run complete",
		logging.Int("files", len(summary.Files)),
		logging.Int("extracts", len(summary.Extracts)),
		logging.Int("remapped_ids", summary.RemappedIDs),
	)
	return summary, nil
}

func (s *Summary) fill(res *Resolution) {
	s.Clients = res.Clients
	s.Temporal = res.Temporal
	s.Anchors = len(res.Anchors)
	s.RemappedIDs = res.IDs.Changed()
	s.Matching = res.Matching
	s.GroupSizes = make(map[int]int)
	for _, g := range res.Groups {
		s.GroupSizes[g.Size()]++
		if len(g.Members) > 0 {
			s.DuplicateGroups++
			s.LinkedRecords += len(g.Members)
		}
	}
}

func exportResults(ctx context.Context, cfg *config.Config, res *Resolution, summary *Summary) error {
	var outputs []resultdb.OutputFile
	add := func(path string, rows int) error {
		sum, size, err := fileutil.SHA256File(path)
		if err != nil {
			return fmt.Errorf("checksum %s: %w", path, err)
		}
		rel, err := filepath.Rel(cfg.Paths.OutputDir, path)
		if err != nil {
			rel = path
		}
		outputs = append(outputs, resultdb.OutputFile{Path: rel, Rows: rows, Size: size, SHA256: sum})
		return nil
	}
	for _, f := range summary.Files {
		if f.Skipped || f.Output == "" {
			continue
		}
		if err := add(f.Output, f.Rows); err != nil {
			return err
		}
	}
	for _, e := range summary.Extracts {
		if err := add(e.Path, e.Rows); err != nil {
			return err
		}
	}

	store, err := resultdb.Open(ctx, cfg.Output.ResultsDBPath)
	if err != nil {
		return fmt.Errorf("open results db: %w", err)
	}
	defer store.Close()

	run := resultdb.Run{
		ID:          summary.RunID,
		StartedAt:   summary.StartedAt,
		FinishedAt:  time.Now().UTC(),
		InputDir:    summary.InputDir,
		Records:     summary.Clients.Accepted,
		Anchors:     summary.Anchors,
		Groups:      summary.DuplicateGroups,
		SkippedRows: summary.Clients.Skipped,
	}
	if err := store.RecordRun(ctx, run, res.Groups, res.IDs, outputs); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}
