package aggregate

import (
	"sort"
	"strings"
)

// presence is the set of field and include names present in one instance.
type presence map[string]bool

// presenceOf marks the given field names, the include wrappers on each
// field's effective path and any wrappers seen on the wire.
func (s *Schema) presenceOf(names []string, via map[string][]string, wrappers []string) presence {
	p := make(presence, len(names)+len(wrappers))
	for _, n := range names {
		p[n] = true
		path := via[n]
		if path == nil {
			if f := s.byName[n]; f != nil {
				path = f.Path
			}
		}
		for _, inc := range path {
			p[inc] = true
		}
	}
	for _, w := range wrappers {
		p[w] = true
	}
	return p
}

// scoped reports whether every include on path is present, i.e. whether
// constraints declared inside that include apply.
func (p presence) scoped(path []string) bool {
	for _, inc := range path {
		if !p[inc] {
			return false
		}
	}
	return true
}

// check applies the aggregate constraints in a fixed order: required
// fields, required mutex groups, optional mutex groups, unrecognized names.
// Decode and New share it, so both reject the same inputs.
func (s *Schema) check(p presence) error {
	for _, inc := range s.includes {
		if inc.Required && !p[inc.Name] && p.scoped(inc.Parent) {
			return newError(CodeMissingRequired, s.kind, inc.Tag, "")
		}
	}
	for _, f := range s.fields {
		if !f.Required || p[f.Name] {
			continue
		}
		for _, path := range f.paths() {
			if p.scoped(path) {
				return newError(CodeMissingRequired, s.kind, f.Tag, "")
			}
		}
	}

	for _, g := range s.mutexes {
		if !g.required || !p.scoped(g.scope) {
			continue
		}
		switch n := g.count(p); {
		case n == 0:
			return newError(CodeMutexViolation, s.kind, g.label(), ReasonMutexNone)
		case n > 1:
			return newError(CodeMutexViolation, s.kind, g.label(), ReasonMutexMany)
		}
	}
	for _, g := range s.mutexes {
		if g.required || !p.scoped(g.scope) {
			continue
		}
		if g.count(p) > 1 {
			return newError(CodeMutexViolation, s.kind, g.label(), ReasonMutexOptional)
		}
	}

	var unknown []string
	for name := range p {
		if _, ok := s.byName[name]; !ok && !s.isInclude(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return newError(CodeUnrecognizedField, s.kind, strings.ToUpper(unknown[0]), "")
	}
	return nil
}

func (g mutexGroup) count(p presence) int {
	n := 0
	for _, name := range g.names {
		if p[name] {
			n++
		}
	}
	return n
}

func (g mutexGroup) label() string {
	return strings.ToUpper(strings.Join(g.names, "|"))
}

// precheck rejects mutually exclusive subtrees before any leaf is parsed.
// Only include wrappers and nested aggregates count here; leaf conflicts
// surface later through check.
func (s *Schema) precheck(children []*treeNode) error {
	seen := make(presence)
	var walk func(nodes []*treeNode)
	walk = func(nodes []*treeNode) {
		for _, n := range nodes {
			tag := s.normalizeTag(n.Tag)
			if inc, ok := s.incByTag[tag]; ok && len(n.Children) > 0 {
				seen[inc.Name] = true
				walk(n.Children)
				continue
			}
			if f := s.fieldByTag(tag); f != nil && !f.IsScalar() {
				seen[f.Name] = true
			}
		}
	}
	walk(children)
	for _, g := range s.mutexes {
		if g.count(seen) > 1 {
			return newError(CodeMutexViolation, s.kind, g.label(), ReasonMutexTree)
		}
	}
	return nil
}
