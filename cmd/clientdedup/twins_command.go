package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"clientdedup/internal/analysis"
	"clientdedup/internal/logging"
	"clientdedup/internal/pipeline"
	"clientdedup/internal/record"
)

type twinReport struct {
	Census analysis.TwinCensus `json:"census" yaml:"census"`
	Twins  []twinEntry         `json:"twins" yaml:"twins"`
}

type twinEntry struct {
	PersonalID string `json:"personal_id" yaml:"personal_id"`
	FirstName  string `json:"first_name" yaml:"first_name"`
	LastName   string `json:"last_name" yaml:"last_name"`
	DOB        string `json:"dob" yaml:"dob"`
}

func newTwinsCommand(ctx *commandContext) *cobra.Command {
	var inputDir, format string

	cmd := &cobra.Command{
		Use:   "twins",
		Short: "Count admitted clients that look like one of a set of twins",
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := parseFormat(format)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyDirFlags(cfg, inputDir, ""); err != nil {
				return err
			}
			logger, err := ctx.newLogger("")
			if err != nil {
				return err
			}
			logger = logging.NewComponentLogger(logger, "twins")

			res, err := pipeline.Resolve(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			census, err := analysis.CountTwins(cmd.Context(), res.Anchors, res.Index, cfg.Matching.AdultAge)
			if err != nil {
				return err
			}

			report := twinReport{Census: census, Twins: twinEntries(census.Twins)}
			if ok, err := writeStructured(cmd, outFormat, report); ok {
				return err
			}
			printTwins(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputDir, "input", "i", "", "Directory holding Client.csv and related datasets")
	cmd.Flags().StringVar(&format, "format", formatTable, "Output format: table, json or yaml")
	return cmd
}

func twinEntries(records []*record.Client) []twinEntry {
	out := make([]twinEntry, 0, len(records))
	for _, c := range records {
		out = append(out, twinEntry{PersonalID: c.PersonalID, FirstName: c.FirstName, LastName: c.LastName, DOB: c.DOBText()})
	}
	return out
}

func printTwins(out io.Writer, report twinReport) {
	c := report.Census
	rows := [][]string{
		{"No twin", strconv.Itoa(c.Neither)},
		{"Twin sharing an SSN", strconv.Itoa(c.SharedSSN)},
		{"Twin with a different SSN", strconv.Itoa(c.DistinctSSN)},
		{"Both kinds", strconv.Itoa(c.Both)},
	}
	fmt.Fprintln(out, renderTable("Twin census", []string{"Bucket", "Anchors"}, rows, rightAligned(2, 1)))
	if len(report.Twins) == 0 {
		return
	}
	list := make([][]string, 0, len(report.Twins))
	for _, t := range report.Twins {
		list = append(list, []string{t.PersonalID, t.FirstName, t.LastName, t.DOB})
	}
	fmt.Fprintln(out, renderTable("Anchors with a twin", []string{"PersonalID", "First", "Last", "DOB"}, list, nil))
}
