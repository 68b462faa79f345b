package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"clientdedup/internal/analysis"
	"clientdedup/internal/logging"
	"clientdedup/internal/matching"
	"clientdedup/internal/pipeline"
)

type analyzeReport struct {
	Records int             `json:"records" yaml:"records"`
	Matrix  analysis.Matrix `json:"matrix" yaml:"matrix"`
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var inputDir, format string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Print how often records agree on each field within each block",
		Long: "Groups admissible records by each identifying field and by each match rule, and counts\n" +
			"for every block how many records have a partner agreeing on each field.",
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
			logger = logging.NewComponentLogger(logger, "analyze")

			ds, err := pipeline.Load(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			opts, err := pipeline.MatcherOptions(cfg)
			if err != nil {
				return err
			}
			matrix, err := analysis.Analyze(cmd.Context(), ds.Clients, matching.NewMatcher(ds.Index, opts))
			if err != nil {
				return err
			}
			logger.Info("analysis complete", logging.Int("records", len(ds.Clients)))

			report := analyzeReport{Records: len(ds.Clients), Matrix: matrix}
			if ok, err := writeStructured(cmd, outFormat, report); ok {
				return err
			}
			printMatrix(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputDir, "input", "i", "", "Directory holding Client.csv and related datasets")
	cmd.Flags().StringVar(&format, "format", formatTable, "Output format: table, json or yaml")
	return cmd
}

func printMatrix(out io.Writer, report analyzeReport) {
	headers := append([]string{"Block"}, report.Matrix.Fields...)
	headers = append(headers, "Compared")
	rows := make([][]string, 0, len(report.Matrix.Rows))
	for _, r := range report.Matrix.Rows {
		row := make([]string, 0, len(headers))
		row = append(row, r.Block)
		for _, n := range r.Agreeing {
			row = append(row, strconv.Itoa(n))
		}
		row = append(row, strconv.Itoa(r.Compared))
		rows = append(rows, row)
	}
	title := fmt.Sprintf("Field agreement over %d records", report.Records)
	fmt.Fprintln(out, renderTable(title, headers, rows, rightAligned(len(headers), 1)))
}
