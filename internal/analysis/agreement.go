package analysis

import (
	"context"

	"clientdedup/internal/record"
)

// Field names, used both as blocking keys and as compared fields.
const (
	FieldSSN       = "SSN"
	FieldFirstName = "FirstName"
	FieldLastName  = "LastName"
	FieldDOB       = "DOB"
	FieldDay       = "Day"
	FieldMonth     = "Month"
	FieldYear      = "Year"
	FieldGender    = "Gender"
	FieldRace      = "Race"
	FieldStrict    = "RuleA"
	FieldLenient   = "RuleB"
)

// Fields lists the matrix columns and rows in display order.
var Fields = []string{
	FieldSSN, FieldFirstName, FieldLastName, FieldDOB, FieldDay, FieldMonth,
	FieldYear, FieldGender, FieldRace, FieldStrict, FieldLenient,
}

// Rules evaluates the pairwise predicates the matrix reports on.
type Rules interface {
	SSNMatch(a, b *record.Client) bool
	MatchStrict(a, b *record.Client) bool
	MatchLenient(a, b *record.Client) bool
}

// BlockRow is one row of the matrix: for records sharing the block's key,
// Agreeing[i] counts distinct records with at least one partner agreeing on
// Fields[i], and Compared counts distinct records with any partner.
type BlockRow struct {
	Block    string `json:"block" yaml:"block"`
	Agreeing []int  `json:"agreeing" yaml:"agreeing"`
	Compared int    `json:"compared" yaml:"compared"`
}

// Matrix is the field-agreement matrix.
type Matrix struct {
	Fields []string   `json:"fields" yaml:"fields"`
	Rows   []BlockRow `json:"rows" yaml:"rows"`
}

type blockKey func(*record.Client) (string, bool)

var keyed = []struct {
	name string
	key  blockKey
}{
	{FieldSSN, func(c *record.Client) (string, bool) { return c.SSN, c.SSNQuality == record.QualityFull }},
	{FieldFirstName, func(c *record.Client) (string, bool) { return c.FirstName, true }},
	{FieldLastName, func(c *record.Client) (string, bool) { return c.LastName, true }},
	{FieldDOB, func(c *record.Client) (string, bool) { return c.DOBText(), true }},
	{FieldDay, func(c *record.Client) (string, bool) { return c.BirthDay(), true }},
	{FieldMonth, func(c *record.Client) (string, bool) { return c.BirthMonth(), true }},
	{FieldYear, func(c *record.Client) (string, bool) { return c.BirthYear(), true }},
	{FieldGender, func(c *record.Client) (string, bool) { return c.Gender, true }},
	{FieldRace, func(c *record.Client) (string, bool) { return c.Race, true }},
}

// Analyze builds the matrix over records. Key blocks group records by an
// equal field value; the SSN block keeps only verified SSN pairs. The rule
// blocks pair every record with every other record the rule accepts.
func Analyze(ctx context.Context, records []*record.Client, rules Rules) (Matrix, error) {
	m := Matrix{Fields: append([]string(nil), Fields...)}

	for _, k := range keyed {
		blocks := make(map[string][]int)
		for i, c := range records {
			if key, ok := k.key(c); ok {
				blocks[key] = append(blocks[key], i)
			}
		}
		acc := newAccumulator(len(records))
		for i, c := range records {
			if err := ctx.Err(); err != nil {
				return m, err
			}
			key, ok := k.key(c)
			if !ok {
				continue
			}
			for _, j := range blocks[key] {
				if i == j {
					continue
				}
				if k.name == FieldSSN && !rules.SSNMatch(c, records[j]) {
					continue
				}
				acc.compare(rules, i, c, records[j])
			}
		}
		m.Rows = append(m.Rows, acc.row(k.name))
	}

	for _, rule := range []struct {
		name  string
		match func(a, b *record.Client) bool
	}{
		{FieldStrict, rules.MatchStrict},
		{FieldLenient, rules.MatchLenient},
	} {
		acc := newAccumulator(len(records))
		for i, c := range records {
			if err := ctx.Err(); err != nil {
				return m, err
			}
			for j, other := range records {
				if i != j && rule.match(c, other) {
					acc.compare(rules, i, c, other)
				}
			}
		}
		m.Rows = append(m.Rows, acc.row(rule.name))
	}
	return m, nil
}

type accumulator struct {
	agreeing [][]bool
	compared []bool
}

func newAccumulator(n int) *accumulator {
	a := &accumulator{agreeing: make([][]bool, len(Fields)), compared: make([]bool, n)}
	for i := range a.agreeing {
		a.agreeing[i] = make([]bool, n)
	}
	return a
}

func (a *accumulator) compare(rules Rules, i int, c, other *record.Client) {
	a.compared[i] = true
	checks := []bool{
		rules.SSNMatch(c, other),
		c.FirstName != "" && c.FirstName == other.FirstName,
		c.LastName != "" && c.LastName == other.LastName,
		c.DOB.Equal(other.DOB),
		c.DOB.Day() == other.DOB.Day(),
		c.DOB.Month() == other.DOB.Month(),
		c.DOB.Year() == other.DOB.Year(),
		c.Gender == other.Gender,
		c.Race == other.Race,
	}
	for f, ok := range checks {
		if ok {
			a.agreeing[f][i] = true
		}
	}
	strict, lenient := len(checks), len(checks)+1
	if !a.agreeing[strict][i] && rules.MatchStrict(c, other) {
		a.agreeing[strict][i] = true
	}
	if !a.agreeing[lenient][i] && rules.MatchLenient(c, other) {
		a.agreeing[lenient][i] = true
	}
}

func (a *accumulator) row(block string) BlockRow {
	r := BlockRow{Block: block, Agreeing: make([]int, len(Fields))}
	for f, marks := range a.agreeing {
		for _, ok := range marks {
			if ok {
				r.Agreeing[f]++
			}
		}
	}
	for _, ok := range a.compared {
		if ok {
			r.Compared++
		}
	}
	return r
}
