package aggregate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/zjrosen/ofxkit/internal/element"
	"github.com/zjrosen/ofxkit/internal/log"
	"github.com/zjrosen/ofxkit/internal/tagtree"
)

type treeNode = tagtree.Node

// DefaultMaxDepth bounds aggregate nesting during Decode.
const DefaultMaxDepth = 64

// DecodeOption configures Registry.Decode.
type DecodeOption func(*decoder)

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(n int) DecodeOption {
	return func(d *decoder) {
		if n > 0 {
			d.maxDepth = n
		}
	}
}

// WithBestEffort keeps validating the remaining members of a collection
// after one fails and reports every failure in a *MemberErrors. No partial
// instance is returned either way.
func WithBestEffort() DecodeOption {
	return func(d *decoder) { d.bestEffort = true }
}

// WithStrictText rejects text values that would otherwise only warn, such
// as values longer than their declared maximum.
func WithStrictText() DecodeOption {
	return func(d *decoder) { d.strictText = true }
}

type decoder struct {
	reg        *Registry
	maxDepth   int
	bestEffort bool
	strictText bool
}

// Decode validates the tree rooted at n and converts it to an Instance of
// the kind registered for n's tag.
func (r *Registry) Decode(n *tagtree.Node, opts ...DecodeOption) (*Instance, error) {
	d := &decoder{reg: r, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(d)
	}
	in, err := d.decode(n, 1)
	if err != nil {
		return nil, err
	}
	log.Debug(log.CatCodec, "decoded", "kind", in.Kind(), "depth", n.Depth())
	return in, nil
}

func (d *decoder) decode(n *treeNode, depth int) (*Instance, error) {
	if depth > d.maxDepth {
		return nil, newError(CodeTooDeep, n.Tag, "", fmt.Sprintf("aggregates nested deeper than %d", d.maxDepth))
	}
	k, err := d.reg.Lookup(n.Tag)
	if err != nil {
		return nil, err
	}
	s := k.schema
	if n.IsLeaf() {
		return nil, newError(CodeInvalidValue, k.Name, "", "aggregate element carries text")
	}

	if err := s.precheck(n.Children); err != nil {
		return nil, err
	}
	ex, err := s.extract(s.normalize(n.Children))
	if err != nil {
		return nil, err
	}
	m, err := s.merge(ex)
	if err != nil {
		return nil, err
	}
	return d.assemble(k, m, ex, depth)
}

func isVendor(tag string) bool {
	return strings.Contains(tag, ".")
}

// normalize applies the kind's tag renames to its own leaves and to the
// leaves of include wrappers. Nested aggregates keep their tags; their own
// kinds rename them when they are decoded.
func (s *Schema) normalize(nodes []*treeNode) []*treeNode {
	if len(s.renames) == 0 {
		return nodes
	}
	out := make([]*treeNode, len(nodes))
	for i, n := range nodes {
		tag := s.normalizeTag(n.Tag)
		switch {
		case tag != n.Tag:
			c := *n
			c.Tag = tag
			out[i] = &c
		case s.incByTag[tag] != nil && len(n.Children) > 0:
			c := *n
			c.Children = s.normalize(n.Children)
			out[i] = &c
		default:
			out[i] = n
		}
	}
	return out
}

// memberSlot marks the placeholder of a collection member.
var memberSlot = &Field{Name: "#member"}

type extraction struct {
	rest    []*treeNode
	subs    map[string]*treeNode
	members []*treeNode
	// marks maps each placeholder left in rest to the field it stands for,
	// so the order check still sees where the subtree was.
	marks map[*treeNode]*Field
}

// extract lifts nested aggregates, lists and collection members out of the
// tree, including those inside include wrappers.
func (s *Schema) extract(nodes []*treeNode) (*extraction, error) {
	ex := &extraction{
		subs:  make(map[string]*treeNode),
		marks: make(map[*treeNode]*Field),
	}
	rest, err := s.extractLevel(nodes, ex, true)
	if err != nil {
		return nil, err
	}
	ex.rest = rest
	return ex, nil
}

func (s *Schema) extractLevel(nodes []*treeNode, ex *extraction, top bool) ([]*treeNode, error) {
	out := make([]*treeNode, 0, len(nodes))
	for _, n := range nodes {
		if isVendor(n.Tag) {
			out = append(out, n)
			continue
		}
		if s.incByTag[n.Tag] != nil && len(n.Children) > 0 {
			kids, err := s.extractLevel(n.Children, ex, false)
			if err != nil {
				return nil, err
			}
			c := *n
			c.Children = kids
			out = append(out, &c)
			continue
		}
		f := s.fieldByTag(n.Tag)
		switch {
		case f != nil && !f.IsScalar():
			if n.IsLeaf() {
				return nil, newError(CodeInvalidValue, s.kind, f.Tag, ReasonNotAggregate)
			}
			if _, dup := ex.subs[f.Name]; dup {
				return nil, newError(CodeDuplicateElement, s.kind, n.Tag, "")
			}
			ex.subs[f.Name] = n
			ph := &treeNode{Tag: n.Tag}
			ex.marks[ph] = f
			out = append(out, ph)
		case f == nil && top && s.members != nil && !n.IsLeaf() && s.incByTag[n.Tag] == nil:
			ex.members = append(ex.members, n)
			ph := &treeNode{Tag: n.Tag}
			ex.marks[ph] = memberSlot
			out = append(out, ph)
		default:
			out = append(out, n)
		}
	}
	return out, nil
}

type merged struct {
	leaves   map[string]string
	order    []string
	seen     map[string]bool
	via      map[string][]string
	wrappers []string
	last     int
}

// merge flattens the remaining leaves, checking document order, duplicates
// and placement against the include wrappers.
func (s *Schema) merge(ex *extraction) (*merged, error) {
	m := &merged{
		leaves: make(map[string]string),
		seen:   make(map[string]bool),
		via:    make(map[string][]string),
		last:   -1,
	}
	if err := s.mergeLevel(ex.rest, nil, ex, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Schema) mergeLevel(nodes []*treeNode, path []string, ex *extraction, m *merged) error {
	for _, n := range nodes {
		if isVendor(n.Tag) {
			log.Debug(log.CatCodec, "dropped vendor element", "kind", s.kind, "tag", n.Tag)
			continue
		}
		if f, ok := ex.marks[n]; ok {
			idx := len(s.fields)
			if f != memberSlot {
				if !f.legalPath(path) {
					return s.misplaced(n.Tag, path)
				}
				idx = f.Index
				if len(f.Alternates) > 0 {
					m.via[f.Name] = slices.Clone(path)
				}
			}
			if err := m.advance(s, n.Tag, idx); err != nil {
				return err
			}
			continue
		}
		if inc := s.incByTag[n.Tag]; inc != nil {
			if n.IsLeaf() {
				return newError(CodeInvalidValue, s.kind, n.Tag, ReasonNotAggregate)
			}
			if !slices.Equal(inc.Parent, path) {
				return s.misplaced(n.Tag, path)
			}
			if slices.Contains(m.wrappers, inc.Name) {
				return newError(CodeDuplicateElement, s.kind, n.Tag, "")
			}
			m.wrappers = append(m.wrappers, inc.Name)
			if err := s.mergeLevel(n.Children, append(slices.Clone(path), inc.Name), ex, m); err != nil {
				return err
			}
			continue
		}

		f := s.fieldByTag(n.Tag)
		if f == nil {
			if len(n.Children) > 0 {
				return newError(CodeUnrecognizedField, s.kind, n.Tag, "")
			}
			// Unknown leaves are reported by the checker, after missing
			// required fields and mutex violations.
			name := strings.ToLower(n.Tag)
			if m.seen[name] {
				return newError(CodeDuplicateElement, s.kind, n.Tag, "")
			}
			m.seen[name] = true
			m.leaves[name] = n.Text
			m.order = append(m.order, name)
			continue
		}
		if len(n.Children) > 0 {
			return newError(CodeInvalidValue, s.kind, f.Tag, "expected a leaf element")
		}
		if !f.legalPath(path) {
			return s.misplaced(n.Tag, path)
		}
		if m.seen[f.Name] {
			return newError(CodeDuplicateElement, s.kind, f.Tag, "")
		}
		m.seen[f.Name] = true
		if n.Text == "" {
			continue
		}
		if err := m.advance(s, f.Tag, f.Index); err != nil {
			return err
		}
		m.leaves[f.Name] = n.Text
		m.order = append(m.order, f.Name)
		if len(f.Alternates) > 0 {
			m.via[f.Name] = slices.Clone(path)
		}
	}
	return nil
}

func (m *merged) advance(s *Schema, tag string, idx int) error {
	if idx < m.last {
		prev := "members"
		if m.last < len(s.fields) {
			prev = s.fields[m.last].Tag
		}
		return newError(CodeOutOfOrder, s.kind, tag, "must precede "+prev)
	}
	m.last = idx
	return nil
}

func (s *Schema) misplaced(tag string, path []string) error {
	where := "directly inside " + s.kind
	if len(path) > 0 {
		where = "inside " + strings.ToUpper(path[len(path)-1])
	}
	return newError(CodeUnrecognizedField, s.kind, tag, "not allowed "+where)
}

func (d *decoder) assemble(k *Kind, m *merged, ex *extraction, depth int) (*Instance, error) {
	s := k.schema
	names := slices.Clone(m.order)
	for name := range ex.subs {
		names = append(names, name)
	}
	if err := s.check(s.presenceOf(names, m.via, m.wrappers)); err != nil {
		return nil, err
	}

	in := newInstance(k)
	for _, name := range m.order {
		f := s.byName[name]
		if f == nil {
			return nil, newError(CodeUnrecognizedField, k.Name, strings.ToUpper(name), "")
		}
		var ws element.Warnings
		v, err := f.Element.Parse(m.leaves[name], &ws)
		if err != nil {
			return nil, &Error{Code: CodeInvalidValue, Kind: k.Name, Field: f.Tag, Err: err}
		}
		if err := d.warn(in, f, ws); err != nil {
			return nil, err
		}
		if v != nil {
			in.values[name] = v
		}
	}
	if len(m.via) > 0 {
		in.via = m.via
	}

	for _, f := range s.fields {
		n, ok := ex.subs[f.Name]
		if !ok {
			continue
		}
		if f.List {
			list, err := d.collect(k.Name, f.Kinds, f.Homogeneous, n.Children, depth)
			if err != nil {
				return nil, err
			}
			in.values[f.Name] = list
			continue
		}
		sub, err := d.decode(n, depth+1)
		if err != nil {
			return nil, err
		}
		in.values[f.Name] = sub
	}

	if s.members != nil {
		members, err := d.collect(k.Name, s.members.Kinds, s.members.Homogeneous, ex.members, depth)
		if err != nil {
			return nil, err
		}
		in.members = members
	}
	return in, nil
}

func (d *decoder) warn(in *Instance, f *Field, ws element.Warnings) error {
	for _, w := range ws {
		if _, isText := f.Element.(*element.TextElement); isText && d.strictText {
			return newError(CodeInvalidValue, in.Kind(), f.Tag, w)
		}
		in.warnings = append(in.warnings, Warning{Kind: in.Kind(), Field: f.Name, Message: w})
		log.Warn(log.CatCodec, "value warning", "kind", in.Kind(), "field", f.Name, "warning", w)
	}
	return nil
}

// collect decodes the members of a collection or list in document order.
func (d *decoder) collect(owner string, kinds []string, homogeneous bool, nodes []*treeNode, depth int) ([]*Instance, error) {
	out := make([]*Instance, 0, len(nodes))
	var failed []MemberError
	first := ""
	i := -1
	for _, n := range nodes {
		if isVendor(n.Tag) {
			log.Debug(log.CatCodec, "dropped vendor element", "kind", owner, "tag", n.Tag)
			continue
		}
		i++
		err := memberKindError(owner, kinds, homogeneous, first, n.Tag)
		var inst *Instance
		if err == nil {
			if first == "" {
				first = n.Tag
			}
			inst, err = d.decode(n, depth+1)
		}
		if err != nil {
			if !d.bestEffort {
				return nil, err
			}
			failed = append(failed, MemberError{Index: i, Tag: n.Tag, Err: err})
			continue
		}
		out = append(out, inst)
	}
	if len(failed) > 0 {
		log.Warn(log.CatCodec, "collection members rejected", "kind", owner, "count", len(failed))
		return nil, &MemberErrors{Kind: owner, Members: failed}
	}
	return out, nil
}

func memberKindError(owner string, kinds []string, homogeneous bool, first, tag string) error {
	if !slices.Contains(kinds, tag) {
		return newError(CodeIllegalMember, owner, tag, "accepted kinds are "+strings.Join(kinds, ", "))
	}
	if homogeneous && first != "" && tag != first {
		return newError(CodeIllegalMember, owner, tag, "members must all be "+first)
	}
	return nil
}
