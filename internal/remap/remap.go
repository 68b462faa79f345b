package remap

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"clientdedup/internal/fileutil"
	"clientdedup/internal/hmis"
	"clientdedup/internal/logging"
)

// PersonalIDHeader is the column name located in every dataset, compared
// case-insensitively.
const PersonalIDHeader = "PersonalID"

// Resolver maps a personal id to its canonical id.
type Resolver interface {
	Resolve(id string) string
}

// Options configures a Remapper.
type Options struct {
	OutputDir string
	Suffix    string
	Column    string
	Workers   int
	Logger    *slog.Logger
}

// FileResult describes one rewritten (or skipped) dataset.
type FileResult struct {
	Input     string `json:"input" yaml:"input"`
	Output    string `json:"output,omitempty" yaml:"output,omitempty"`
	Rows      int    `json:"rows" yaml:"rows"`
	Changed   int    `json:"changed" yaml:"changed"`
	Malformed int    `json:"malformed" yaml:"malformed"`
	Skipped   bool   `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Remapper rewrites datasets through a Resolver.
type Remapper struct {
	ids    Resolver
	opts   Options
	logger *slog.Logger
}

// New constructs a Remapper.
func New(ids Resolver, opts Options) *Remapper {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Column == "" {
		opts.Column = "NewPersonalID"
	}
	return &Remapper{
		ids:    ids,
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "remap"),
	}
}

// OutputPath is where input's rewritten copy is written.
func (r *Remapper) OutputPath(input string) string {
	return filepath.Join(r.opts.OutputDir, hmis.Stem(input)+r.opts.Suffix+".csv")
}

// RemapAll rewrites inputs in parallel. Results are returned in input order.
// The first failure cancels the remaining files.
func (r *Remapper) RemapAll(ctx context.Context, inputs []string) ([]FileResult, error) {
	results := make([]FileResult, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, input := range inputs {
		g.Go(func() error {
			res, err := r.RemapFile(ctx, input)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RemapFile rewrites one dataset. A file without a personal id column is
// skipped and reported with Skipped set.
func (r *Remapper) RemapFile(ctx context.Context, input string) (FileResult, error) {
	res := FileResult{Input: input}

	src, err := hmis.Open(input)
	if errors.Is(err, io.EOF) {
		res.Skipped = true
		r.logger.Info("empty dataset skipped", logging.String(logging.FieldFile, input))
		return res, nil
	}
	if err != nil {
		return res, err
	}
	defer src.Close()

	idCol := hmis.HeaderIndex(src.Header(), PersonalIDHeader)
	if idCol < 0 {
		res.Skipped = true
		r.logger.Info("dataset has no personal id column; skipped",
			logging.String(logging.FieldFile, input),
			logging.String("decision_reason", "no PersonalID header"),
		)
		return res, nil
	}

	res.Output = r.OutputPath(input)
	err = fileutil.AtomicWrite(res.Output, 0o644, func(w io.Writer) error {
		out := csv.NewWriter(w)
		if err := out.Write(prepend(r.opts.Column, src.Header())); err != nil {
			return err
		}
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			row, err := src.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return err
			}
			res.Rows++
			newID := ""
			if idCol < len(row) {
				var changed bool
				newID, changed = r.canonical(row[idCol])
				if changed {
					res.Changed++
				}
			} else {
				res.Malformed++
				logging.WarnWithContext(r.logger, "row lacks personal id; emitted with empty id", "row_malformed",
					logging.String(logging.FieldFile, input),
					logging.Int(logging.FieldLine, src.Line()),
					logging.String(logging.FieldImpact, "row copied without a canonical id"),
				)
			}
			if err := out.Write(prepend(newID, row)); err != nil {
				return err
			}
		}
		out.Flush()
		return out.Error()
	})
	if err != nil {
		return res, fmt.Errorf("remap %s: %w", input, err)
	}

	r.logger.Info("dataset remapped",
		logging.String(logging.FieldFile, input),
		logging.String("output", res.Output),
		logging.Int("rows", res.Rows),
		logging.Int("changed", res.Changed),
		logging.Int("malformed", res.Malformed),
	)
	return res, nil
}

// WriteExtract writes header and rows to name in the output directory,
// prefixed with the canonical id of the value in idCol.
func (r *Remapper) WriteExtract(name string, header []string, rows [][]string, idCol int) (string, error) {
	path := filepath.Join(r.opts.OutputDir, name)
	err := fileutil.AtomicWrite(path, 0o644, func(w io.Writer) error {
		out := csv.NewWriter(w)
		if err := out.Write(prepend(r.opts.Column, header)); err != nil {
			return err
		}
		for _, row := range rows {
			newID := ""
			if idCol >= 0 && idCol < len(row) {
				newID, _ = r.canonical(row[idCol])
			}
			if err := out.Write(prepend(newID, row)); err != nil {
				return err
			}
		}
		out.Flush()
		return out.Error()
	})
	if err != nil {
		return "", fmt.Errorf("write extract %s: %w", name, err)
	}
	return path, nil
}

// canonical resolves a dataset id cell. Registry ids are trimmed on ingest,
// so the cell is trimmed before lookup; the source cell itself is left as is.
func (r *Remapper) canonical(cell string) (string, bool) {
	id := strings.TrimSpace(cell)
	target := r.ids.Resolve(id)
	return target, target != id
}

func prepend(first string, rest []string) []string {
	out := make([]string, 0, len(rest)+1)
	out = append(out, first)
	return append(out, rest...)
}
