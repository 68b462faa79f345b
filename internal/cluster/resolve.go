package cluster

import "clientdedup/internal/record"

// Resolve picks the representative of every multi-record group: the first
// record, in group order, carrying the most common date of birth. Ties go to
// the date seen first.
func Resolve(groups []*Group) {
	for _, g := range groups {
		if len(g.Members) == 0 {
			g.Representative = g.Anchor
			continue
		}
		g.Representative = majority(g.Records())
	}
}

func majority(records []*record.Client) *record.Client {
	counts := make(map[string]int, len(records))
	for _, r := range records {
		counts[r.DOBText()]++
	}
	best := records[0]
	for _, r := range records[1:] {
		if counts[r.DOBText()] > counts[best.DOBText()] {
			best = r
		}
	}
	return best
}
