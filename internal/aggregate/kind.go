// Package aggregate is the schema engine of the OFX codec.
//
// A Kind declares the ordered fields of one aggregate tag. Kinds may include
// other kinds, whose fields are flattened into the including kind and whose
// wrapper element is re-created on output. A Registry resolves each Kind
// into a Schema when it is registered, so field order, shadowing and name
// collisions are settled once rather than per document.
//
// Registry.Decode turns a tag tree into a validated Instance; Encode turns
// an Instance back into a tree. Registry.New builds an Instance from Go
// values and applies the same constraint checks as Decode.
package aggregate

import (
	"slices"
	"strings"

	"github.com/zjrosen/ofxkit/internal/element"
)

type entryType int

const (
	entryScalar entryType = iota
	entryInclude
	entrySub
	entryList
)

// Entry is one declaration in a Kind: a scalar field, an included kind, a
// nested aggregate or a wrapped list of aggregates.
type Entry struct {
	name        string
	typ         entryType
	element     element.Element
	kinds       []string
	required    bool
	homogeneous bool
}

// EntryOption configures Include, Sub and List entries.
type EntryOption func(*Entry)

// Required marks an included kind, nested aggregate or list as mandatory.
func Required() EntryOption {
	return func(e *Entry) { e.required = true }
}

// Kinds lists the aggregate tags (or family names) a Sub or List accepts.
func Kinds(kinds ...string) EntryOption {
	return func(e *Entry) { e.kinds = append(e.kinds, kinds...) }
}

// Homogeneous requires every member of a List to share one kind.
func Homogeneous() EntryOption {
	return func(e *Entry) { e.homogeneous = true }
}

// Scalar declares a leaf field. Names are lower case; the wire tag is the
// upper-cased name.
func Scalar(name string, el element.Element) Entry {
	return Entry{name: strings.ToLower(name), typ: entryScalar, element: el, required: el.Required()}
}

// Include flattens the fields of another registered kind into this one at
// this position. On the wire they sit inside a <KIND> wrapper element.
func Include(kind string, opts ...EntryOption) Entry {
	e := Entry{name: strings.ToUpper(kind), typ: entryInclude}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// Sub declares a single nested aggregate. Without Kinds, the accepted tag is
// the upper-cased field name.
func Sub(name string, opts ...EntryOption) Entry {
	return composite(name, entrySub, opts)
}

// List declares a wrapper element whose children are aggregates of the
// accepted kinds.
func List(name string, opts ...EntryOption) Entry {
	return composite(name, entryList, opts)
}

func composite(name string, typ entryType, opts []EntryOption) Entry {
	e := Entry{name: strings.ToLower(name), typ: typ}
	for _, opt := range opts {
		opt(&e)
	}
	if len(e.kinds) == 0 && typ == entrySub {
		e.kinds = []string{strings.ToUpper(name)}
	}
	return e
}

// Members makes a Kind a collection: after its ordinary fields it holds an
// ordered sequence of aggregates drawn from Kinds.
type Members struct {
	Kinds       []string
	Homogeneous bool
}

// Kind declares one aggregate tag.
type Kind struct {
	Name    string
	Entries []Entry

	// RequiredMutexes are groups of which exactly one member must be present.
	// OptionalMutexes are groups of which at most one member may be present.
	// Members name fields or included kinds, in lower case.
	RequiredMutexes [][]string
	OptionalMutexes [][]string

	// Renames maps a wire tag to the tag of the declared field, e.g.
	// YIELD to YLD. The substitution is undone on output.
	Renames map[string]string

	Members *Members

	schema *Schema
}

// Schema returns the resolved schema, or nil before registration.
func (k *Kind) Schema() *Schema {
	return k.schema
}

func (k *Kind) ownNames() map[string]bool {
	own := make(map[string]bool, len(k.Entries))
	for _, e := range k.Entries {
		if e.typ != entryInclude {
			own[e.name] = true
		}
	}
	return own
}

func cloneGroups(groups [][]string) [][]string {
	out := make([][]string, len(groups))
	for i, g := range groups {
		out[i] = make([]string, len(g))
		for j, name := range g {
			out[i][j] = strings.ToLower(name)
		}
	}
	return out
}

func containsAll(group []string, names ...string) bool {
	for _, n := range names {
		if !slices.Contains(group, n) {
			return false
		}
	}
	return true
}
