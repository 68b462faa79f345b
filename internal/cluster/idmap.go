package cluster

import "sort"

// IDMap rewrites personal ids to the canonical id of their group. Ids that
// belong to no multi-record group are absent and pass through unchanged.
type IDMap struct {
	canonical map[string]string
}

// BuildIDMap maps every record of every multi-record group, the
// representative included, to the group's canonical id. When a personal id
// occurs in more than one group the first assignment wins.
func BuildIDMap(groups []*Group) *IDMap {
	m := &IDMap{canonical: make(map[string]string)}
	for _, g := range groups {
		if len(g.Members) == 0 {
			continue
		}
		target := g.CanonicalID()
		for _, r := range g.Records() {
			if _, ok := m.canonical[r.PersonalID]; ok {
				continue
			}
			m.canonical[r.PersonalID] = target
		}
	}
	return m
}

// Lookup returns the canonical id recorded for id.
func (m *IDMap) Lookup(id string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.canonical[id]
	return v, ok
}

// Resolve returns the canonical id for id, or id itself when unmapped.
func (m *IDMap) Resolve(id string) string {
	if v, ok := m.Lookup(id); ok {
		return v
	}
	return id
}

// Len is the number of mapped ids.
func (m *IDMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.canonical)
}

// Changed counts ids whose canonical id differs from the id itself.
func (m *IDMap) Changed() int {
	if m == nil {
		return 0
	}
	n := 0
	for id, target := range m.canonical {
		if id != target {
			n++
		}
	}
	return n
}

// Entries returns the mapping as sorted pairs for stable export.
func (m *IDMap) Entries() [][2]string {
	if m == nil {
		return nil
	}
	out := make([][2]string, 0, len(m.canonical))
	for id, target := range m.canonical {
		out = append(out, [2]string{id, target})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}
