package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"clientdedup/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var inputDir, outputDir, format string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Resolve duplicate clients and write remapped datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := parseFormat(format)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyDirFlags(cfg, inputDir, outputDir); err != nil {
				return err
			}

			runID := uuid.NewString()
			logRunID := runID
			if dryRun {
				logRunID = ""
			}
			logger, err := ctx.newLogger(logRunID)
			if err != nil {
				return err
			}

			summary, err := pipeline.Run(cmd.Context(), cfg, pipeline.Options{RunID: runID, DryRun: dryRun}, logger)
			if err != nil {
				return err
			}
			if ok, err := writeStructured(cmd, outFormat, summary); ok {
				return err
			}
			printRunSummary(cmd.OutOrStdout(), summary, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputDir, "input", "i", "", "Directory holding Client.csv and related datasets")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for remapped datasets and extracts")
	cmd.Flags().StringVar(&format, "format", formatTable, "Output format: table, json or yaml")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve and report without writing any file")
	return cmd
}

func printRunSummary(out io.Writer, s pipeline.Summary, colorize bool) {
	title := "Run " + s.RunID
	if s.DryRun {
		title += " (dry run)"
	}
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(out, line)
	}

	lines := []string{
		renderStatusLine("Input", statusInfo, s.InputDir, colorize),
		renderStatusLine("Clients", warnWhen(s.Clients.Skipped > 0, statusOK),
			fmt.Sprintf("%d accepted, %d skipped, %d without DOB", s.Clients.Accepted, s.Clients.Skipped, s.Clients.Sentinel), colorize),
		renderStatusLine("Stay history", statusInfo,
			fmt.Sprintf("%d enrollments, %d exits", s.Temporal.Enrollments.Accepted, s.Temporal.Exits.Accepted), colorize),
		renderStatusLine("Duplicates", statusOK,
			fmt.Sprintf("%d groups, %d linked records, %d ids remapped", s.DuplicateGroups, s.LinkedRecords, s.RemappedIDs), colorize),
		renderStatusLine("Rules", statusInfo,
			fmt.Sprintf("%d strict, %d lenient", s.Matching.StrictMatches, s.Matching.LenientMatches), colorize),
		renderStatusLine("Vetoes", statusInfo,
			fmt.Sprintf("%d stay conflicts, %d household, %d twin, %d distinction",
				s.Matching.StayConflicts, s.Matching.HouseholdConflicts, s.Matching.TwinVetoes, s.Matching.DistinctionVetoes), colorize),
	}
	if s.Twins != nil {
		lines = append(lines, renderStatusLine("Twins", warnWhen(len(s.Twins.Twins) > 0, statusOK),
			fmt.Sprintf("%d anchors with a twin of %d", len(s.Twins.Twins), s.Twins.Total()), colorize))
	}
	if s.ResultsDB != "" {
		lines = append(lines, renderStatusLine("Results DB", statusOK, s.ResultsDB, colorize))
	}
	lines = append(lines, renderStatusLine("Elapsed", statusInfo, fmt.Sprintf("%.2fs", s.ElapsedSeconds), colorize))
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}

	if len(s.Files) > 0 {
		rows := make([][]string, 0, len(s.Files))
		for _, f := range s.Files {
			output := filepath.Base(f.Output)
			if f.Skipped {
				output = "skipped"
			}
			rows = append(rows, []string{
				filepath.Base(f.Input), output,
				strconv.Itoa(f.Rows), strconv.Itoa(f.Changed), strconv.Itoa(f.Malformed),
			})
		}
		headers := []string{"Input", "Output", "Rows", "Changed", "Malformed"}
		fmt.Fprintln(out, renderTable("Datasets", headers, rows, rightAligned(len(headers), 2)))
	}
	if len(s.Extracts) > 0 {
		rows := make([][]string, 0, len(s.Extracts))
		for _, e := range s.Extracts {
			rows = append(rows, []string{e.Name, strconv.Itoa(e.Rows)})
		}
		fmt.Fprintln(out, renderTable("Extracts", []string{"File", "Rows"}, rows, rightAligned(2, 1)))
	}
	if s.DryRun {
		fmt.Fprintln(out, "No files were written.")
	}
}
