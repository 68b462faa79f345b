package analysis

import (
	"context"

	"clientdedup/internal/matching"
	"clientdedup/internal/record"
	"clientdedup/internal/temporal"
)

// TwinCensus buckets records by which twin tests they pass against any other
// record: the shared-SSN test, the distinct-SSN test, both, or neither.
type TwinCensus struct {
	Neither     int `json:"neither" yaml:"neither"`
	SharedSSN   int `json:"shared_ssn" yaml:"shared_ssn"`
	DistinctSSN int `json:"distinct_ssn" yaml:"distinct_ssn"`
	Both        int `json:"both" yaml:"both"`

	// Twins lists, in input order, every record with at least one twin.
	Twins []*record.Client `json:"-" yaml:"-"`
}

// Total is the number of records counted.
func (c TwinCensus) Total() int {
	return c.Neither + c.SharedSSN + c.DistinctSSN + c.Both
}

// CountTwins runs both twin tests for every record against every other.
func CountTwins(ctx context.Context, records []*record.Client, index *temporal.Index, adultAge int) (TwinCensus, error) {
	shared := matching.TwinFilter{AdultAge: adultAge, SSN: matching.TwinSSNMatch}
	distinct := matching.TwinFilter{AdultAge: adultAge, SSN: matching.TwinSSNDiffer}

	var census TwinCensus
	for i, a := range records {
		if err := ctx.Err(); err != nil {
			return census, err
		}
		pa := index.Profile(a.PersonalID)
		var passShared, passDistinct bool
		for j, b := range records {
			if i == j {
				continue
			}
			pb := index.Profile(b.PersonalID)
			if !passShared && shared.Applies(a, b, pa, pb) {
				passShared = true
			}
			if !passDistinct && distinct.Applies(a, b, pa, pb) {
				passDistinct = true
			}
			if passShared && passDistinct {
				break
			}
		}
		switch {
		case passShared && passDistinct:
			census.Both++
		case passShared:
			census.SharedSSN++
		case passDistinct:
			census.DistinctSSN++
		default:
			census.Neither++
			continue
		}
		census.Twins = append(census.Twins, a)
	}
	return census, nil
}
