package record

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultSentinelDOB marks a date of birth that was never provided.
const DefaultSentinelDOB = "1/1/1900"

// ErrSentinelDOB is returned by NewClient for rows carrying the sentinel DOB.
var ErrSentinelDOB = errors.New("date of birth not provided")

// Fields holds the raw identifying values of one registry row.
type Fields struct {
	PersonalID  string
	FirstName   string
	LastName    string
	Suffix      string
	NameQuality string
	SSN         string
	SSNQuality  string
	DOB         string
	DOBQuality  string
	Gender      string
	Race        string
	RaceQuality string
}

// Client is one admissible row of the client registry. Several Clients may
// describe the same person; PersonalID is unique per row source, not per person.
type Client struct {
	PersonalID  string
	FirstName   string
	LastName    string
	Suffix      string
	NameQuality Quality
	SSN         string
	SSNQuality  Quality
	DOBRaw      string
	DOB         time.Time
	DOBQuality  Quality
	Gender      string
	Race        string
	RaceQuality Quality

	// Raw quality codes retained for passthrough output.
	rawNameQuality string
	rawSSNQuality  string
	rawDOBQuality  string

	line []string
	dob  string
}

// NewClient validates and parses the raw fields of a row. Rows whose DOB
// renders to sentinel are rejected with ErrSentinelDOB; unparsable dates are
// rejected with an error wrapping ErrUnparsableDate.
func NewClient(f Fields, line []string, sentinel string) (*Client, error) {
	if strings.TrimSpace(f.PersonalID) == "" {
		return nil, errors.New("personal id is empty")
	}
	dob, err := ParseDate(f.DOB)
	if err != nil {
		return nil, fmt.Errorf("client %s dob: %w", f.PersonalID, err)
	}
	text := FormatDate(dob)
	if sentinel == "" {
		sentinel = DefaultSentinelDOB
	}
	if text == sentinel || strings.TrimSpace(f.DOB) == sentinel {
		return nil, ErrSentinelDOB
	}

	cp := make([]string, len(line))
	copy(cp, line)

	return &Client{
		PersonalID:     strings.TrimSpace(f.PersonalID),
		FirstName:      f.FirstName,
		LastName:       f.LastName,
		Suffix:         f.Suffix,
		NameQuality:    ParseQuality(f.NameQuality),
		SSN:            strings.TrimSpace(f.SSN),
		SSNQuality:     ParseQuality(f.SSNQuality),
		DOBRaw:         f.DOB,
		DOB:            dob,
		DOBQuality:     ParseQuality(f.DOBQuality),
		Gender:         f.Gender,
		Race:           f.Race,
		RaceQuality:    ParseQuality(f.RaceQuality),
		rawNameQuality: f.NameQuality,
		rawSSNQuality:  f.SSNQuality,
		rawDOBQuality:  f.DOBQuality,
		line:           cp,
		dob:            text,
	}, nil
}

// DOBText is the canonical M/d/yyyy rendering of the date of birth.
func (c *Client) DOBText() string { return c.dob }

// BirthDay returns the day of month as a decimal string.
func (c *Client) BirthDay() string { return strconv.Itoa(c.DOB.Day()) }

// BirthMonth returns the month number as a decimal string.
func (c *Client) BirthMonth() string { return strconv.Itoa(int(c.DOB.Month())) }

// BirthYear returns the year as a decimal string.
func (c *Client) BirthYear() string { return strconv.Itoa(c.DOB.Year()) }

// Line returns a copy of the verbatim source row.
func (c *Client) Line() []string {
	cp := make([]string, len(c.line))
	copy(cp, c.line)
	return cp
}

// SummaryHeader lists the columns produced by Summary.
var SummaryHeader = []string{
	"PersonalID", "FirstName", "LastName", "NameSuffix", "NameDataQuality",
	"SSN", "SSNDataQuality", "DOB", "DOBDataQuality", "Gender",
}

// Summary returns the identifying columns used by diagnostic extracts.
func (c *Client) Summary() []string {
	return []string{
		c.PersonalID, c.FirstName, c.LastName, c.Suffix, c.rawNameQuality,
		c.SSN, c.rawSSNQuality, c.dob, c.rawDOBQuality, c.Gender,
	}
}

func (c *Client) String() string {
	return fmt.Sprintf("%s %s %s (%s)", c.PersonalID, c.FirstName, c.LastName, c.dob)
}
