package matcher

import (
	"sort"

	"radiograb/internal/broadcast"
	"radiograb/internal/rules"
)

// Group is the set of broadcasts one rule matched, in insertion order.
type Group struct {
	Rule  rules.Rule
	Items []broadcast.Enriched
}

// MatchSet maps rule names to matched broadcasts.
type MatchSet struct {
	groups map[string]*Group
	ids    map[string]map[string]struct{}
}

// NewMatchSet returns an empty MatchSet.
func NewMatchSet() *MatchSet {
	return &MatchSet{
		groups: make(map[string]*Group),
		ids:    make(map[string]map[string]struct{}),
	}
}

// Add inserts item into the group of rule. It reports false when the rule
// already holds a broadcast with the same id.
func (m *MatchSet) Add(rule rules.Rule, item broadcast.Enriched) bool {
	seen, ok := m.ids[rule.Name]
	if !ok {
		seen = make(map[string]struct{})
		m.ids[rule.Name] = seen
		m.groups[rule.Name] = &Group{Rule: rule}
	}
	if _, dup := seen[item.ID]; dup {
		return false
	}
	seen[item.ID] = struct{}{}
	g := m.groups[rule.Name]
	g.Items = append(g.Items, item)
	return true
}

// Contains reports whether rule matched the broadcast id.
func (m *MatchSet) Contains(ruleName, id string) bool {
	_, ok := m.ids[ruleName][id]
	return ok
}

// Names returns the rule names with at least one match, sorted.
func (m *MatchSet) Names() []string {
	names := make([]string, 0, len(m.groups))
	for name := range m.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Group returns a copy of the group for name.
func (m *MatchSet) Group(name string) (Group, bool) {
	g, ok := m.groups[name]
	if !ok {
		return Group{}, false
	}
	return Group{Rule: g.Rule, Items: append([]broadcast.Enriched(nil), g.Items...)}, true
}

// Groups returns every group sorted by rule name.
func (m *MatchSet) Groups() []Group {
	names := m.Names()
	out := make([]Group, 0, len(names))
	for _, name := range names {
		g, _ := m.Group(name)
		out = append(out, g)
	}
	return out
}

// Len returns the number of (rule, broadcast) pairs.
func (m *MatchSet) Len() int {
	n := 0
	for _, g := range m.groups {
		n += len(g.Items)
	}
	return n
}
