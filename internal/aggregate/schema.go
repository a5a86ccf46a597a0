package aggregate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/zjrosen/ofxkit/internal/element"
)

// maxIncludeDepth bounds include chains so a cycle fails registration
// instead of recursing forever.
const maxIncludeDepth = 16

// Field is one resolved field of a Schema.
type Field struct {
	Name        string
	Tag         string          // wire tag, after undoing renames
	Element     element.Element // nil for Sub and List fields
	Kinds       []string        // accepted aggregate tags for Sub and List fields
	Required    bool
	List        bool
	Homogeneous bool
	// Path names the include wrappers enclosing the field, outermost first.
	Path []string
	// Alternates are other wrapper paths the field may appear under. They
	// arise when mutually exclusive includes declare the same name.
	Alternates [][]string
	Index      int
}

// IsScalar reports whether the field is a leaf.
func (f *Field) IsScalar() bool { return f.Element != nil }

// IsSub reports whether the field holds a single nested aggregate.
func (f *Field) IsSub() bool { return f.Element == nil && !f.List }

func (f *Field) accepts(tag string) bool {
	return slices.Contains(f.Kinds, tag)
}

func (f *Field) paths() [][]string {
	return append([][]string{f.Path}, f.Alternates...)
}

func (f *Field) legalPath(path []string) bool {
	for _, p := range f.paths() {
		if slices.Equal(p, path) {
			return true
		}
	}
	return false
}

// IncludeInfo describes the wrapper of an included kind.
type IncludeInfo struct {
	Name     string // lower-case name used in mutex groups
	Tag      string
	Parent   []string
	Required bool
}

type mutexGroup struct {
	names    []string
	scope    []string
	required bool
}

// Schema is the resolved, immutable layout of a Kind.
type Schema struct {
	kind     string
	fields   []*Field
	byName   map[string]*Field
	byTag    map[string]*Field
	includes []*IncludeInfo
	incByTag map[string]*IncludeInfo
	incNames map[string]*IncludeInfo
	mutexes  []mutexGroup
	renames  map[string]string // wire tag to declared tag
	unrename map[string]string // declared tag to wire tag
	members  *Members
}

// Kind returns the tag the schema was resolved for.
func (s *Schema) Kind() string { return s.kind }

// Fields returns the resolved fields in serialization order.
func (s *Schema) Fields() []*Field { return slices.Clone(s.fields) }

// Field returns the named field, or nil.
func (s *Schema) Field(name string) *Field { return s.byName[strings.ToLower(name)] }

// Includes returns the include wrappers in declaration order.
func (s *Schema) Includes() []*IncludeInfo { return slices.Clone(s.includes) }

// Members returns the collection declaration, or nil for plain aggregates.
func (s *Schema) Members() *Members { return s.members }

// MutexGroups returns every mutex group, required ones first.
func (s *Schema) MutexGroups() (required, optional [][]string) {
	for _, g := range s.mutexes {
		if g.required {
			required = append(required, slices.Clone(g.names))
		} else {
			optional = append(optional, slices.Clone(g.names))
		}
	}
	return required, optional
}

func (s *Schema) isInclude(name string) bool {
	_, ok := s.incNames[name]
	return ok
}

// fieldByTag matches a normalized wire tag against the declared fields.
func (s *Schema) fieldByTag(tag string) *Field {
	return s.byTag[tag]
}

func (s *Schema) wireTag(declared string) string {
	if w, ok := s.unrename[declared]; ok {
		return w
	}
	return declared
}

func (s *Schema) normalizeTag(tag string) string {
	if t, ok := s.renames[tag]; ok {
		return t
	}
	return tag
}

type resolver struct {
	reg    *Registry
	root   string
	schema *Schema
}

func (r *Registry) resolve(k *Kind) (*Schema, error) {
	s := &Schema{
		kind:     k.Name,
		byName:   make(map[string]*Field),
		byTag:    make(map[string]*Field),
		incByTag: make(map[string]*IncludeInfo),
		incNames: make(map[string]*IncludeInfo),
		renames:  make(map[string]string),
		unrename: make(map[string]string),
	}
	rs := &resolver{reg: r, root: k.Name, schema: s}
	if err := rs.walk(k, map[string]bool{}, nil, 0); err != nil {
		return nil, err
	}
	if k.Members != nil {
		s.members = &Members{Kinds: r.expand(k.Members.Kinds), Homogeneous: k.Members.Homogeneous}
	}
	if err := rs.index(); err != nil {
		return nil, err
	}
	if err := rs.checkMutexNames(); err != nil {
		return nil, err
	}
	return s, nil
}

func (rs *resolver) conflict(field, format string, args ...any) error {
	return newError(CodeSchemaConflict, rs.root, field, fmt.Sprintf(format, args...))
}

// walk resolves k's entries at the given include path. claimed holds the
// names declared by kinds that include k; those declarations win, so k's
// own versions are skipped.
func (rs *resolver) walk(k *Kind, claimed map[string]bool, path []string, depth int) error {
	if depth > maxIncludeDepth {
		return rs.conflict(k.Name, "include chain deeper than %d", maxIncludeDepth)
	}
	s := rs.schema
	for _, g := range cloneGroups(k.RequiredMutexes) {
		s.mutexes = append(s.mutexes, mutexGroup{names: g, scope: slices.Clone(path), required: true})
	}
	for _, g := range cloneGroups(k.OptionalMutexes) {
		s.mutexes = append(s.mutexes, mutexGroup{names: g, scope: slices.Clone(path)})
	}
	for wire, declared := range k.Renames {
		s.renames[strings.ToUpper(wire)] = strings.ToUpper(declared)
		s.unrename[strings.ToUpper(declared)] = strings.ToUpper(wire)
	}

	next := make(map[string]bool, len(claimed))
	for n := range claimed {
		next[n] = true
	}
	for n := range k.ownNames() {
		next[n] = true
	}

	for _, e := range k.Entries {
		if e.typ == entryInclude {
			if err := rs.include(k, e, next, path, depth); err != nil {
				return err
			}
			continue
		}
		if claimed[e.name] {
			continue
		}
		f := &Field{
			Name:        e.name,
			Element:     e.element,
			Required:    e.required,
			List:        e.typ == entryList,
			Homogeneous: e.homogeneous,
			Path:        slices.Clone(path),
		}
		if e.typ != entryScalar {
			f.Kinds = rs.reg.expand(e.kinds)
			if len(f.Kinds) == 0 {
				return rs.conflict(e.name, "list accepts no kinds")
			}
		}
		if err := rs.add(f); err != nil {
			return err
		}
	}
	return nil
}

func (rs *resolver) include(k *Kind, e Entry, claimed map[string]bool, path []string, depth int) error {
	base, ok := rs.reg.kinds[e.name]
	if !ok {
		return rs.conflict(e.name, "%s includes unregistered kind %s", k.Name, e.name)
	}
	if base.Members != nil {
		return rs.conflict(e.name, "collection kind %s cannot be included", e.name)
	}
	name := strings.ToLower(e.name)
	if _, dup := rs.schema.incNames[name]; dup {
		return rs.conflict(name, "kind %s included twice", e.name)
	}
	info := &IncludeInfo{Name: name, Tag: e.name, Parent: slices.Clone(path), Required: e.required}
	rs.schema.includes = append(rs.schema.includes, info)
	rs.schema.incNames[name] = info
	rs.schema.incByTag[e.name] = info
	return rs.walk(base, claimed, append(slices.Clone(path), name), depth+1)
}

// add appends f, or records f's path as an alternate of an existing field
// with the same name when a mutex group keeps the two apart.
func (rs *resolver) add(f *Field) error {
	s := rs.schema
	prev, ok := s.byName[f.Name]
	if !ok {
		f.Index = len(s.fields)
		s.fields = append(s.fields, f)
		s.byName[f.Name] = f
		return nil
	}
	a, b, diverge := divergence(prev.Path, f.Path, f.Name)
	if !diverge {
		return rs.conflict(f.Name, "field declared twice")
	}
	for _, g := range s.mutexes {
		if containsAll(g.names, a, b) {
			prev.Alternates = append(prev.Alternates, f.Path)
			return nil
		}
	}
	return rs.conflict(f.Name, "declared under both %s and %s, which are not mutually exclusive", a, b)
}

// divergence returns the first names at which two include paths differ.
// A path that ends first contributes the field name itself.
func divergence(p, q []string, field string) (string, string, bool) {
	for i := 0; ; i++ {
		var a, b string
		switch {
		case i < len(p):
			a = p[i]
		default:
			a = field
		}
		switch {
		case i < len(q):
			b = q[i]
		default:
			b = field
		}
		if a != b {
			return a, b, true
		}
		if i >= len(p) && i >= len(q) {
			return "", "", false
		}
	}
}

func (rs *resolver) index() error {
	s := rs.schema
	claim := func(tag string, f *Field) error {
		if other, ok := s.byTag[tag]; ok && other != f {
			return rs.conflict(f.Name, "tag %s also matches field %s", tag, other.Name)
		}
		if _, ok := s.incByTag[tag]; ok {
			return rs.conflict(f.Name, "tag %s also names an included kind", tag)
		}
		s.byTag[tag] = f
		return nil
	}
	for _, f := range s.fields {
		f.Tag = s.wireTag(strings.ToUpper(f.Name))
		if !f.IsSub() {
			if err := claim(strings.ToUpper(f.Name), f); err != nil {
				return err
			}
			continue
		}
		for _, k := range f.Kinds {
			if err := claim(k, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func (rs *resolver) checkMutexNames() error {
	s := rs.schema
	for _, g := range s.mutexes {
		if len(g.names) < 2 {
			return rs.conflict(strings.Join(g.names, "|"), "mutex group needs at least two names")
		}
		for _, n := range g.names {
			if _, ok := s.byName[n]; !ok && !s.isInclude(n) {
				return rs.conflict(n, "mutex group names an undeclared field")
			}
		}
	}
	return nil
}
