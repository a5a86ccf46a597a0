package aggregate

import (
	"iter"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Values maps field names to Go values for Registry.New. Scalars take the
// descriptor's value type (or a convertible one), Sub fields take an
// *Instance and List fields take []*Instance.
type Values map[string]any

// Warning is a soft finding recorded while building an instance.
type Warning struct {
	Kind    string
	Field   string
	Message string
}

func (w Warning) String() string {
	return w.Kind + "." + w.Field + ": " + w.Message
}

// Instance is a validated aggregate. Instances are not modified after
// construction and may be shared between goroutines.
type Instance struct {
	kind     *Kind
	values   map[string]any
	members  []*Instance
	via      map[string][]string
	warnings []Warning
}

func newInstance(k *Kind) *Instance {
	return &Instance{kind: k, values: make(map[string]any)}
}

// Kind returns the aggregate tag.
func (in *Instance) Kind() string { return in.kind.Name }

// Schema returns the resolved schema of the instance's kind.
func (in *Instance) Schema() *Schema { return in.kind.schema }

// Has reports whether the named field is present.
func (in *Instance) Has(name string) bool {
	_, ok := in.values[name]
	return ok
}

// Get returns the raw value of a present field.
func (in *Instance) Get(name string) (any, bool) {
	v, ok := in.values[name]
	return v, ok
}

// String returns a Text or OneOf field.
func (in *Instance) String(name string) (string, bool) {
	v, ok := in.values[name].(string)
	return v, ok
}

// Int returns an Integer field.
func (in *Instance) Int(name string) (int64, bool) {
	v, ok := in.values[name].(int64)
	return v, ok
}

// Decimal returns a Decimal field.
func (in *Instance) Decimal(name string) (decimal.Decimal, bool) {
	v, ok := in.values[name].(decimal.Decimal)
	return v, ok
}

// Bool returns a Bool field.
func (in *Instance) Bool(name string) (bool, bool) {
	v, ok := in.values[name].(bool)
	return v, ok
}

// Time returns a DateTime or Time field.
func (in *Instance) Time(name string) (time.Time, bool) {
	v, ok := in.values[name].(time.Time)
	return v, ok
}

// Sub returns a nested aggregate, or nil.
func (in *Instance) Sub(name string) *Instance {
	v, _ := in.values[name].(*Instance)
	return v
}

// List returns the members of a List field.
func (in *Instance) List(name string) []*Instance {
	v, _ := in.values[name].([]*Instance)
	return slices.Clone(v)
}

// Len returns the number of collection members.
func (in *Instance) Len() int { return len(in.members) }

// At returns the i-th collection member.
func (in *Instance) At(i int) *Instance { return in.members[i] }

// Members iterates the collection members in order.
func (in *Instance) Members() iter.Seq2[int, *Instance] {
	return func(yield func(int, *Instance) bool) {
		for i, m := range in.members {
			if !yield(i, m) {
				return
			}
		}
	}
}

// Fields returns the names of the present fields in serialization order.
func (in *Instance) Fields() []string {
	var names []string
	for _, f := range in.kind.schema.fields {
		if _, ok := in.values[f.Name]; ok {
			names = append(names, f.Name)
		}
	}
	return names
}

// PathOf returns the include wrappers the named field is written under.
func (in *Instance) PathOf(name string) []string {
	f := in.kind.schema.byName[name]
	if f == nil {
		return nil
	}
	if p, ok := in.via[name]; ok {
		return p
	}
	return f.Path
}

// Warnings returns the findings of this instance and everything nested in
// it, depth first.
func (in *Instance) Warnings() []Warning {
	out := slices.Clone(in.warnings)
	for _, f := range in.kind.schema.fields {
		switch v := in.values[f.Name].(type) {
		case *Instance:
			out = append(out, v.Warnings()...)
		case []*Instance:
			for _, m := range v {
				out = append(out, m.Warnings()...)
			}
		}
	}
	for _, m := range in.members {
		out = append(out, m.Warnings()...)
	}
	return out
}

// Equal reports whether two instances have the same kind, the same field
// values, the same wrapper choices and equal members. Decimals compare by
// value and times by instant.
func (in *Instance) Equal(o *Instance) bool {
	if in == nil || o == nil {
		return in == o
	}
	if in.Kind() != o.Kind() || len(in.values) != len(o.values) || len(in.members) != len(o.members) {
		return false
	}
	for name, v := range in.values {
		w, ok := o.values[name]
		if !ok || !valueEqual(v, w) {
			return false
		}
		if !slices.Equal(in.PathOf(name), o.PathOf(name)) {
			return false
		}
	}
	for i := range in.members {
		if !in.members[i].Equal(o.members[i]) {
			return false
		}
	}
	return true
}

func valueEqual(a, b any) bool {
	switch x := a.(type) {
	case decimal.Decimal:
		y, ok := b.(decimal.Decimal)
		return ok && x.Equal(y)
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case *Instance:
		y, ok := b.(*Instance)
		return ok && x.Equal(y)
	case []*Instance:
		y, ok := b.([]*Instance)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !x[i].Equal(y[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
