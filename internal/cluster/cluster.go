package cluster

import (
	"clientdedup/internal/matching"
	"clientdedup/internal/record"
)

// Matcher decides whether an incoming record duplicates an admitted anchor.
type Matcher interface {
	Match(incoming, anchor *record.Client) matching.Rule
}

// Group is one anchor and every record linked to it.
type Group struct {
	Anchor         *record.Client
	Members        []*record.Client
	Representative *record.Client
	// Rules holds the rule that linked each member, aligned with Members.
	Rules []matching.Rule
}

// Records returns the anchor followed by the members in link order.
func (g *Group) Records() []*record.Client {
	out := make([]*record.Client, 0, len(g.Members)+1)
	out = append(out, g.Anchor)
	return append(out, g.Members...)
}

// Size is the number of records in the group.
func (g *Group) Size() int { return len(g.Members) + 1 }

// CanonicalID is the personal id every member is rewritten to.
func (g *Group) CanonicalID() string {
	if g.Representative != nil {
		return g.Representative.PersonalID
	}
	return g.Anchor.PersonalID
}

// Clusterer performs first-match-wins clustering. It is not safe for
// concurrent use.
type Clusterer struct {
	matcher Matcher
	groups  []*Group
}

// New returns an empty Clusterer using m.
func New(m Matcher) *Clusterer {
	return &Clusterer{matcher: m}
}

// Add compares r with each admitted anchor in admission order. On the first
// match r joins that anchor's group and Add returns the anchor and true.
// Otherwise r is admitted as a new anchor and Add returns r and false.
func (c *Clusterer) Add(r *record.Client) (*record.Client, bool) {
	for _, g := range c.groups {
		if rule := c.matcher.Match(r, g.Anchor); rule != matching.RuleNone {
			g.Members = append(g.Members, r)
			g.Rules = append(g.Rules, rule)
			return g.Anchor, true
		}
	}
	c.groups = append(c.groups, &Group{Anchor: r, Representative: r})
	return r, false
}

// Groups returns every group, singletons included, in admission order.
func (c *Clusterer) Groups() []*Group { return c.groups }

// Duplicates returns only the groups with more than one record.
func (c *Clusterer) Duplicates() []*Group {
	var out []*Group
	for _, g := range c.groups {
		if len(g.Members) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// Anchors returns the admitted anchors in admission order.
func (c *Clusterer) Anchors() []*record.Client {
	out := make([]*record.Client, len(c.groups))
	for i, g := range c.groups {
		out[i] = g.Anchor
	}
	return out
}

// Len is the number of admitted anchors.
func (c *Clusterer) Len() int { return len(c.groups) }
