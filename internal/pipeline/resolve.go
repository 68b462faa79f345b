package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"clientdedup/internal/cluster"
	"clientdedup/internal/config"
	"clientdedup/internal/hmis"
	"clientdedup/internal/logging"
	"clientdedup/internal/matching"
	"clientdedup/internal/record"
	"clientdedup/internal/temporal"
)

// Resolution is the in-memory outcome of matching and clustering.
type Resolution struct {
	Index    *temporal.Index
	Groups   []*cluster.Group
	Anchors  []*record.Client
	IDs      *cluster.IDMap
	Clients  hmis.ReadStats
	Temporal hmis.TemporalStats
	Matching matching.Stats
}

// Duplicates returns the groups holding more than one record.
func (r *Resolution) Duplicates() []*cluster.Group {
	var out []*cluster.Group
	for _, g := range r.Groups {
		if len(g.Members) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// Dataset is the admissible client registry with its stay history.
type Dataset struct {
	Index    *temporal.Index
	Clients  []*record.Client
	Stats    hmis.ReadStats
	Temporal hmis.TemporalStats
}

// MatcherOptions translates the matching section of cfg.
func MatcherOptions(cfg *config.Config) (matching.Options, error) {
	policy, err := matching.ParseTwinSSNPolicy(cfg.Matching.TwinSSNPolicy)
	if err != nil {
		return matching.Options{}, err
	}
	return matching.Options{
		InvalidSSNs: cfg.Matching.InvalidSSNs,
		AdultAge:    cfg.Matching.AdultAge,
		TwinSSN:     policy,
		Strict:      cfg.Matching.StrictRule,
		Lenient:     cfg.Matching.LenientRule,
	}, nil
}

// Resolve clusters the client registry in file order and resolves every
// group to its majority-DOB representative.
func Resolve(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Resolution, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	logger = logging.NewComponentLogger(logger, "resolve")

	opts, err := MatcherOptions(cfg)
	if err != nil {
		return nil, err
	}
	index, temporalStats, err := hmis.LoadIndex(ctx, cfg.EnrollmentPath(), cfg.ExitPath(), logger)
	if err != nil {
		return nil, fmt.Errorf("load stay history: %w", err)
	}

	matcher := matching.NewMatcher(index, opts)
	clusterer := cluster.New(matcher)
	clientStats, err := hmis.ReadClients(ctx, cfg.ClientPath(), hmis.ClientOptions{
		SentinelDOB: cfg.Matching.SentinelDOB,
		Logger:      logger,
	}, func(c *record.Client) error {
		if anchor, linked := clusterer.Add(c); linked {
			logger.Debug("record linked",
				logging.String(logging.FieldPersonalID, c.PersonalID),
				logging.String("anchor_id", anchor.PersonalID),
			)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read clients: %w", err)
	}

	groups := clusterer.Groups()
	cluster.Resolve(groups)
	res := &Resolution{
		Index:    index,
		Groups:   groups,
		Anchors:  clusterer.Anchors(),
		IDs:      cluster.BuildIDMap(groups),
		Clients:  clientStats,
		Temporal: temporalStats,
		Matching: matcher.Stats(),
	}
	logger.Info("clients resolved",
		logging.Int("accepted", clientStats.Accepted),
		logging.Int("anchors", len(res.Anchors)),
		logging.Int("duplicate_groups", len(res.Duplicates())),
		logging.Int("remapped_ids", res.IDs.Changed()),
		logging.Int64("stay_conflicts", res.Matching.StayConflicts),
	)
	return res, nil
}

// Load reads every admissible client record without clustering.
func Load(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dataset, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	index, temporalStats, err := hmis.LoadIndex(ctx, cfg.EnrollmentPath(), cfg.ExitPath(), logger)
	if err != nil {
		return nil, fmt.Errorf("load stay history: %w", err)
	}
	ds := &Dataset{Index: index, Temporal: temporalStats}
	ds.Stats, err = hmis.ReadClients(ctx, cfg.ClientPath(), hmis.ClientOptions{
		SentinelDOB: cfg.Matching.SentinelDOB,
		Logger:      logger,
	}, func(c *record.Client) error {
		ds.Clients = append(ds.Clients, c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read clients: %w", err)
	}
	return ds, nil
}
