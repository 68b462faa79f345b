package pipeline

import (
	"strconv"

	"clientdedup/internal/analysis"
	"clientdedup/internal/cluster"
	"clientdedup/internal/record"
	"clientdedup/internal/remap"
)

// Extract file names.
const (
	TwinExtractName   = "TwinOutput.csv"
	GroupsExtractName = "DuplicateGroups.csv"
	DOBExtractName    = "DuplicateDOB.csv"
	GenderExtractName = "DuplicateGender.csv"
	RaceExtractName   = "DuplicateRace.csv"
)

// Extract is one diagnostic file written by a run.
type Extract struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
	Rows int    `json:"rows" yaml:"rows"`
}

var groupHeader = append(append([]string(nil), record.SummaryHeader...), "Race", "Group")

func groupRow(c *record.Client, group int) []string {
	return append(c.Summary(), c.Race, strconv.Itoa(group))
}

// disagreement selects, per group, the anchor and every member whose value
// differs from the anchor's. Groups without a disagreement are left out.
func disagreement(groups []*cluster.Group, value func(*record.Client) string) [][]string {
	var rows [][]string
	for i, g := range groups {
		want := value(g.Anchor)
		var differing [][]string
		for _, m := range g.Members {
			if value(m) != want {
				differing = append(differing, groupRow(m, i))
			}
		}
		if len(differing) > 0 {
			rows = append(rows, groupRow(g.Anchor, i))
			rows = append(rows, differing...)
		}
	}
	return rows
}

func writeExtracts(r *remap.Remapper, twins *analysis.TwinCensus, groups []*cluster.Group, withGroups bool) ([]Extract, error) {
	var out []Extract
	write := func(name string, header []string, rows [][]string) error {
		path, err := r.WriteExtract(name, header, rows, 0)
		if err != nil {
			return err
		}
		out = append(out, Extract{Name: name, Path: path, Rows: len(rows)})
		return nil
	}

	if twins != nil {
		rows := make([][]string, 0, len(twins.Twins))
		for _, c := range twins.Twins {
			rows = append(rows, c.Summary())
		}
		if err := write(TwinExtractName, record.SummaryHeader, rows); err != nil {
			return out, err
		}
	}
	if !withGroups {
		return out, nil
	}

	var all [][]string
	for i, g := range groups {
		for _, c := range g.Records() {
			all = append(all, groupRow(c, i))
		}
	}
	extracts := []struct {
		name string
		rows [][]string
	}{
		{GroupsExtractName, all},
		{DOBExtractName, disagreement(groups, (*record.Client).DOBText)},
		{GenderExtractName, disagreement(groups, func(c *record.Client) string { return c.Gender })},
		{RaceExtractName, disagreement(groups, func(c *record.Client) string { return c.Race })},
	}
	for _, e := range extracts {
		if err := write(e.name, groupHeader, e.rows); err != nil {
			return out, err
		}
	}
	return out, nil
}
