package matching_test

import (
	"testing"

	"clientdedup/internal/matching"
	"clientdedup/internal/record"
	"clientdedup/internal/temporal"
	"clientdedup/internal/testsupport"
)

func identicalPair(t *testing.T) (*record.Client, *record.Client) {
	t.Helper()
	f := record.Fields{
		FirstName: "Ann", LastName: "Smith", SSN: "123456789", SSNQuality: "1",
		DOB: "5/1/1990", Gender: "1",
	}
	a, b := f, f
	a.PersonalID = "P1"
	b.PersonalID = "P2"
	return testsupport.NewClient(t, a), testsupport.NewClient(t, b)
}

func TestIdenticalRecordsMatchUnderBothRules(t *testing.T) {
	a, b := identicalPair(t)
	m := matching.NewMatcher(nil, matching.DefaultOptions())
	if !m.MatchStrict(a, b) {
		t.Fatal("expected strict match")
	}
	if !m.MatchLenient(a, b) {
		t.Fatal("expected lenient match")
	}
	if got := m.Match(a, b); got != matching.RuleStrict {
		t.Fatalf("Match = %v, want strict", got)
	}
}

func TestUnrelatedRecordsNeverMatch(t *testing.T) {
	a := testsupport.NewClient(t, record.Fields{PersonalID: "P1", FirstName: "Ann", LastName: "Smith", SSN: "123456789", SSNQuality: "1", DOB: "1/1/1980", Gender: "0"})
	b := testsupport.NewClient(t, record.Fields{PersonalID: "P2", FirstName: "Bob", LastName: "Jones", SSN: "987654321", SSNQuality: "1", DOB: "2/2/1970", Gender: "1"})
	m := matching.NewMatcher(nil, matching.DefaultOptions())
	if m.MatchStrict(a, b) || m.MatchLenient(a, b) {
		t.Fatal("unrelated records must not match")
	}
	if got := m.Match(a, b); got != matching.RuleNone {
		t.Fatalf("Match = %v, want none", got)
	}
}

func TestStayConflictVetoesBothRules(t *testing.T) {
	a, b := identicalPair(t)
	idx := testsupport.IndexOf(t,
		testsupport.Stay{PersonalID: "P1", Entry: "1/1/2020", Exit: "3/1/2020"},
		testsupport.Stay{PersonalID: "P2", Entry: "2/1/2020", Exit: "4/1/2020"},
	)
	if !temporal.StayConflict(idx.Profile("P1"), idx.Profile("P2")) {
		t.Fatal("fixture must conflict")
	}
	m := matching.NewMatcher(idx, matching.DefaultOptions())
	if m.MatchStrict(a, b) || m.MatchLenient(a, b) {
		t.Fatal("stay conflict must veto both rules")
	}
	if m.Stats().StayConflicts != 2 {
		t.Fatalf("StayConflicts = %d, want 2", m.Stats().StayConflicts)
	}
}

func TestHouseholdConflictVetoesBothRules(t *testing.T) {
	a, b := identicalPair(t)
	idx := testsupport.IndexOf(t,
		testsupport.Stay{PersonalID: "P1", Entry: "1/1/2019", Exit: "2/1/2019", Household: "H1"},
		testsupport.Stay{PersonalID: "P2", Entry: "1/1/2021", Exit: "2/1/2021", Household: "H1"},
	)
	m := matching.NewMatcher(idx, matching.DefaultOptions())
	if m.MatchStrict(a, b) || m.MatchLenient(a, b) {
		t.Fatal("household conflict must veto both rules")
	}
	if m.Stats().HouseholdConflicts != 2 {
		t.Fatalf("HouseholdConflicts = %d, want 2", m.Stats().HouseholdConflicts)
	}
	if m.Stats().StayConflicts != 0 {
		t.Fatalf("StayConflicts = %d, want 0", m.Stats().StayConflicts)
	}
}

func TestRepeatedPersonalIDIsNotVetoedByItsOwnHistory(t *testing.T) {
	f := record.Fields{
		PersonalID: "P1", FirstName: "Ann", LastName: "Smith", SSN: "123456789", SSNQuality: "1",
		DOB: "5/1/1990", Gender: "1",
	}
	a := testsupport.NewClient(t, f)
	b := testsupport.NewClient(t, f)
	idx := testsupport.IndexOf(t, testsupport.Stay{PersonalID: "P1", Entry: "1/1/2015", Exit: "2/1/2015", Household: "H1"})

	m := matching.NewMatcher(idx, matching.DefaultOptions())
	if got := m.Match(a, b); got != matching.RuleStrict {
		t.Fatalf("Match = %v, want strict", got)
	}
	if !m.MatchLenient(a, b) {
		t.Fatal("expected lenient match")
	}
	if st := m.Stats(); st.StayConflicts != 0 || st.HouseholdConflicts != 0 {
		t.Fatalf("a profile must not conflict with itself: %+v", st)
	}
}

func TestAnnAndAnneSmithMergeUnderStrictRule(t *testing.T) {
	a := testsupport.NewClient(t, record.Fields{PersonalID: "P1", FirstName: "Ann", LastName: "Smith", SSN: "123456789", SSNQuality: "1", DOB: "5/1/1990"})
	b := testsupport.NewClient(t, record.Fields{PersonalID: "P2", FirstName: "Anne", LastName: "Smith", SSN: "123456789", SSNQuality: "1", DOB: "5/1/1990"})
	idx := testsupport.IndexOf(t,
		testsupport.Stay{PersonalID: "P1", Entry: "1/1/2015", Exit: "2/1/2015", Household: "H1"},
		testsupport.Stay{PersonalID: "P2", Entry: "3/1/2016", Exit: "4/1/2016", Household: "H2"},
	)
	m := matching.NewMatcher(idx, matching.DefaultOptions())
	if !m.MatchStrict(a, b) {
		t.Fatalf("expected strict match, stats %+v", m.Stats())
	}
}

func TestTwinSSNPolicyIgnoreVetoesSharedSSNSiblings(t *testing.T) {
	a := testsupport.NewClient(t, record.Fields{PersonalID: "P1", FirstName: "Ann", LastName: "Smith", SSN: "123456789", SSNQuality: "1", DOB: "5/1/1990"})
	b := testsupport.NewClient(t, record.Fields{PersonalID: "P2", FirstName: "Anne", LastName: "Smith", SSN: "123456789", SSNQuality: "1", DOB: "5/1/1990"})
	idx := testsupport.IndexOf(t, testsupport.Stay{PersonalID: "P1", Entry: "1/1/2015", Exit: "2/1/2015"})
	opts := matching.DefaultOptions()
	opts.TwinSSN = matching.TwinSSNIgnore
	m := matching.NewMatcher(idx, opts)
	if m.MatchStrict(a, b) {
		t.Fatal("ignore policy treats adult Ann/Anne Smith as twins")
	}
	if m.Stats().TwinVetoes != 1 {
		t.Fatalf("TwinVetoes = %d, want 1", m.Stats().TwinVetoes)
	}
}

func TestLenientHardMatchSkipsDistinctionCheck(t *testing.T) {
	a := testsupport.NewClient(t, record.Fields{PersonalID: "P1", FirstName: "Ann", LastName: "Smith", SSN: "123456789", SSNQuality: "1", DOB: "5/1/1990", Gender: "0"})
	b := testsupport.NewClient(t, record.Fields{PersonalID: "P2", FirstName: "Ann", LastName: "Smith", SSN: "123456789", SSNQuality: "1", DOB: "5/3/1991", Gender: "1"})
	m := matching.NewMatcher(nil, matching.DefaultOptions())
	if !m.MatchLenient(a, b) {
		t.Fatal("hard match must tolerate distinguishing fields")
	}
	if m.Stats().DistinctionVetoes != 0 {
		t.Fatalf("DistinctionVetoes = %d, want 0", m.Stats().DistinctionVetoes)
	}
}

func TestLenientSoftMatchRejectedByDistinctions(t *testing.T) {
	a := testsupport.NewClient(t, record.Fields{PersonalID: "P1", FirstName: "Ann", LastName: "Smith", SSN: "123456789", SSNQuality: "1", DOB: "5/1/1990", Gender: "0"})
	b := testsupport.NewClient(t, record.Fields{PersonalID: "P2", FirstName: "Ann", LastName: "Smith", SSN: "222334444", SSNQuality: "1", DOB: "6/1/1990", Gender: "1"})
	m := matching.NewMatcher(nil, matching.DefaultOptions())
	if m.MatchLenient(a, b) {
		t.Fatal("soft match with gender and month disagreeing must be rejected")
	}
	if m.Stats().DistinctionVetoes != 1 {
		t.Fatalf("DistinctionVetoes = %d, want 1", m.Stats().DistinctionVetoes)
	}
}

func TestLenientSoftMatchSurvivesSingleDistinction(t *testing.T) {
	a := testsupport.NewClient(t, record.Fields{PersonalID: "P1", FirstName: "Ann", LastName: "Smith", SSN: "123456789", SSNQuality: "2", DOB: "5/1/1990", Gender: "0"})
	b := testsupport.NewClient(t, record.Fields{PersonalID: "P2", FirstName: "Ann", LastName: "Smith", SSN: "123456789", SSNQuality: "2", DOB: "5/1/1990", Gender: "1"})
	m := matching.NewMatcher(nil, matching.DefaultOptions())
	if m.MatchStrict(a, b) {
		t.Fatal("partial-quality SSNs must not satisfy the strict rule")
	}
	if got := m.Match(a, b); got != matching.RuleLenient {
		t.Fatalf("Match = %v, want lenient", got)
	}
	if s := m.Stats(); s.LenientMatches != 1 || s.StrictMatches != 0 || s.Comparisons != 1 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestLenientRuleVetoesSiblingsWithDistinctSSNs(t *testing.T) {
	a := testsupport.NewClient(t, record.Fields{PersonalID: "P1", FirstName: "Ann", LastName: "Smith", SSN: "111223333", SSNQuality: "1", DOB: "5/1/1990"})
	b := testsupport.NewClient(t, record.Fields{PersonalID: "P2", FirstName: "Beth", LastName: "Smith", SSN: "444556666", SSNQuality: "1", DOB: "5/1/1990"})

	withoutHistory := matching.NewMatcher(nil, matching.DefaultOptions())
	if !withoutHistory.MatchLenient(a, b) {
		t.Fatal("without enrollment history the twin gate cannot fire")
	}

	idx := testsupport.IndexOf(t, testsupport.Stay{PersonalID: "P2", Entry: "1/1/2015"})
	withHistory := matching.NewMatcher(idx, matching.DefaultOptions())
	if withHistory.MatchLenient(a, b) {
		t.Fatal("adult siblings must be vetoed")
	}
	if !withHistory.Twins(a, b) {
		t.Fatal("expected Twins to report the pair")
	}
}

func TestDisabledRules(t *testing.T) {
	a, b := identicalPair(t)
	opts := matching.DefaultOptions()
	opts.Strict = false
	m := matching.NewMatcher(nil, opts)
	if got := m.Match(a, b); got != matching.RuleLenient {
		t.Fatalf("Match = %v, want lenient when strict is disabled", got)
	}
	opts.Lenient = false
	m = matching.NewMatcher(nil, opts)
	if got := m.Match(a, b); got != matching.RuleNone {
		t.Fatalf("Match = %v, want none when both rules are disabled", got)
	}
}
