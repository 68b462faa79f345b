package cluster_test

import (
	"testing"

	"clientdedup/internal/cluster"
	"clientdedup/internal/matching"
	"clientdedup/internal/record"
	"clientdedup/internal/testsupport"
)

// pairMatcher matches exactly the listed unordered pairs.
type pairMatcher map[[2]string]bool

func (p pairMatcher) Match(a, b *record.Client) matching.Rule {
	if p[[2]string{a.PersonalID, b.PersonalID}] || p[[2]string{b.PersonalID, a.PersonalID}] {
		return matching.RuleStrict
	}
	return matching.RuleNone
}

func ids(records []*record.Client) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.PersonalID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func chain(t *testing.T) (x, y, z *record.Client) {
	t.Helper()
	x = testsupport.NewClient(t, record.Fields{PersonalID: "X", FirstName: "Ann", LastName: "Smith", SSN: "111223333", SSNQuality: "1", DOB: "1/1/1980"})
	y = testsupport.NewClient(t, record.Fields{PersonalID: "Y", FirstName: "Ann", LastName: "Smith", SSN: "222334444", SSNQuality: "1", DOB: "1/1/1980"})
	z = testsupport.NewClient(t, record.Fields{PersonalID: "Z", FirstName: "Ann", LastName: "Jones", SSN: "222334444", SSNQuality: "1", DOB: "1/2/1981"})
	return x, y, z
}

func TestClustererFirstMatchWins(t *testing.T) {
	m := pairMatcher{{"A", "C"}: true, {"B", "C"}: true}
	c := cluster.New(m)
	for _, id := range []string{"A", "B", "C"} {
		c.Add(testsupport.NewClient(t, record.Fields{PersonalID: id, DOB: "1/1/1980"}))
	}
	groups := c.Groups()
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if got := ids(groups[0].Records()); !equalIDs(got, []string{"A", "C"}) {
		t.Fatalf("first group = %v, want [A C]", got)
	}
	if got := ids(groups[1].Records()); !equalIDs(got, []string{"B"}) {
		t.Fatalf("second group = %v, want [B]", got)
	}
	if got := ids(c.Anchors()); !equalIDs(got, []string{"A", "B"}) {
		t.Fatalf("anchors = %v", got)
	}
}

func TestClustererAddReportsAnchor(t *testing.T) {
	a := testsupport.NewClient(t, record.Fields{PersonalID: "A", DOB: "1/1/1980"})
	b := testsupport.NewClient(t, record.Fields{PersonalID: "B", DOB: "1/1/1980"})
	c := cluster.New(pairMatcher{{"A", "B"}: true})
	if anchor, linked := c.Add(a); linked || anchor != a {
		t.Fatalf("first record must become an anchor")
	}
	if anchor, linked := c.Add(b); !linked || anchor != a {
		t.Fatalf("second record must link to A")
	}
	if c.Len() != 1 || len(c.Duplicates()) != 1 {
		t.Fatalf("expected one duplicate group, got len=%d dups=%d", c.Len(), len(c.Duplicates()))
	}
	if rules := c.Groups()[0].Rules; len(rules) != 1 || rules[0] != matching.RuleStrict {
		t.Fatalf("unexpected rules %v", rules)
	}
}

func TestClusteringIsOrderSensitive(t *testing.T) {
	x, y, z := chain(t)

	first := cluster.New(matching.NewMatcher(nil, matching.DefaultOptions()))
	for _, r := range []*record.Client{x, y, z} {
		first.Add(r)
	}
	if got := len(first.Groups()); got != 2 {
		t.Fatalf("[X Y Z] produced %d groups, want 2", got)
	}
	if got := ids(first.Groups()[0].Records()); !equalIDs(got, []string{"X", "Y"}) {
		t.Fatalf("[X Y Z] first group = %v", got)
	}

	second := cluster.New(matching.NewMatcher(nil, matching.DefaultOptions()))
	for _, r := range []*record.Client{y, z, x} {
		second.Add(r)
	}
	if got := len(second.Groups()); got != 1 {
		t.Fatalf("[Y Z X] produced %d groups, want 1", got)
	}
	if got := ids(second.Groups()[0].Records()); !equalIDs(got, []string{"Y", "Z", "X"}) {
		t.Fatalf("[Y Z X] group = %v", got)
	}
}

// hub returns X, which matches Y and Z under the strict rule, while Y and Z
// disagree on everything but the shared SSN and birth month.
func hub(t *testing.T) (x, y, z *record.Client) {
	t.Helper()
	x = testsupport.NewClient(t, record.Fields{PersonalID: "X", FirstName: "Ann", LastName: "Smith", SSN: "123456789", SSNQuality: "1", DOB: "1/1/1980"})
	y = testsupport.NewClient(t, record.Fields{PersonalID: "Y", FirstName: "Ann", LastName: "Jones", SSN: "123456789", SSNQuality: "1", DOB: "1/1/1980", Gender: "1"})
	z = testsupport.NewClient(t, record.Fields{PersonalID: "Z", FirstName: "Beth", LastName: "Smith", SSN: "123456789", SSNQuality: "1", DOB: "1/5/1981", Gender: "2"})
	return x, y, z
}

func TestClusteringAroundHubDependsOnArrivalOrder(t *testing.T) {
	x, y, z := hub(t)
	m := matching.NewMatcher(nil, matching.DefaultOptions())
	if m.Match(y, x) != matching.RuleStrict || m.Match(z, x) != matching.RuleStrict {
		t.Fatal("fixture: X must match Y and Z under the strict rule")
	}
	if got := m.Match(z, y); got != matching.RuleNone {
		t.Fatalf("fixture: Y and Z must not match, got %v", got)
	}

	hubFirst := cluster.New(matching.NewMatcher(nil, matching.DefaultOptions()))
	for _, r := range []*record.Client{x, y, z} {
		hubFirst.Add(r)
	}
	if got := len(hubFirst.Groups()); got != 1 {
		t.Fatalf("[X Y Z] produced %d groups, want 1", got)
	}
	if got := ids(hubFirst.Groups()[0].Records()); !equalIDs(got, []string{"X", "Y", "Z"}) {
		t.Fatalf("[X Y Z] group = %v", got)
	}

	// X arrives last and can only join the first anchor it matches, so Z
	// stays alone.
	hubLast := cluster.New(matching.NewMatcher(nil, matching.DefaultOptions()))
	for _, r := range []*record.Client{y, z, x} {
		hubLast.Add(r)
	}
	groups := hubLast.Groups()
	if len(groups) != 2 {
		t.Fatalf("[Y Z X] produced %d groups, want 2", len(groups))
	}
	if got := ids(groups[0].Records()); !equalIDs(got, []string{"Y", "X"}) {
		t.Fatalf("[Y Z X] first group = %v, want [Y X]", got)
	}
	if got := ids(groups[1].Records()); !equalIDs(got, []string{"Z"}) {
		t.Fatalf("[Y Z X] second group = %v, want [Z]", got)
	}
}

func TestRepeatedRowsOfOneClientShareAGroup(t *testing.T) {
	f := record.Fields{PersonalID: "P1", FirstName: "Ann", LastName: "Smith", SSN: "123456789", SSNQuality: "1", DOB: "1/1/1980", Gender: "1"}
	idx := testsupport.IndexOf(t, testsupport.Stay{PersonalID: "P1", Entry: "1/1/2015", Exit: "2/1/2015", Household: "H1"})

	c := cluster.New(matching.NewMatcher(idx, matching.DefaultOptions()))
	c.Add(testsupport.NewClient(t, f))
	if _, linked := c.Add(testsupport.NewClient(t, f)); !linked {
		t.Fatal("a repeated row must join the first row's group")
	}
	if c.Len() != 1 {
		t.Fatalf("expected one group, got %d", c.Len())
	}
}

func TestResolveMajorityDOB(t *testing.T) {
	g := &cluster.Group{
		Anchor: testsupport.NewClient(t, record.Fields{PersonalID: "A", DOB: "2/2/1980"}),
		Members: []*record.Client{
			testsupport.NewClient(t, record.Fields{PersonalID: "B", DOB: "1/1/1980"}),
			testsupport.NewClient(t, record.Fields{PersonalID: "C", DOB: "1980-01-01"}),
		},
	}
	cluster.Resolve([]*cluster.Group{g})
	if g.Representative == nil || g.Representative.PersonalID != "B" {
		t.Fatalf("representative = %v, want B", g.Representative)
	}
	if g.CanonicalID() != "B" {
		t.Fatalf("CanonicalID = %s", g.CanonicalID())
	}
}

func TestResolveTieGoesToFirstSeen(t *testing.T) {
	g := &cluster.Group{
		Anchor: testsupport.NewClient(t, record.Fields{PersonalID: "A", DOB: "3/3/1975"}),
		Members: []*record.Client{
			testsupport.NewClient(t, record.Fields{PersonalID: "B", DOB: "4/4/1975"}),
		},
	}
	cluster.Resolve([]*cluster.Group{g})
	if g.Representative.PersonalID != "A" {
		t.Fatalf("representative = %s, want A", g.Representative.PersonalID)
	}
}

func TestBuildIDMap(t *testing.T) {
	rec := func(id string) *record.Client {
		return testsupport.NewClient(t, record.Fields{PersonalID: id, DOB: "1/1/1980"})
	}
	dup := &cluster.Group{Anchor: rec("A"), Members: []*record.Client{rec("B"), rec("C")}}
	dup.Representative = dup.Members[0]
	single := &cluster.Group{Anchor: rec("D")}
	single.Representative = single.Anchor
	overlap := &cluster.Group{Anchor: rec("E"), Members: []*record.Client{rec("C")}}
	overlap.Representative = overlap.Anchor

	m := cluster.BuildIDMap([]*cluster.Group{dup, single, overlap})
	cases := map[string]string{"A": "B", "B": "B", "C": "B", "D": "D", "E": "E", "Z": "Z"}
	for in, want := range cases {
		if got := m.Resolve(in); got != want {
			t.Fatalf("Resolve(%s) = %s, want %s", in, got, want)
		}
	}
	if _, ok := m.Lookup("D"); ok {
		t.Fatal("singleton ids must be absent from the map")
	}
	if m.Len() != 4 {
		t.Fatalf("Len = %d, want 4", m.Len())
	}
	if m.Changed() != 2 {
		t.Fatalf("Changed = %d, want 2", m.Changed())
	}
	if entries := m.Entries(); entries[0] != [2]string{"A", "B"} {
		t.Fatalf("entries not sorted: %v", entries)
	}
}
