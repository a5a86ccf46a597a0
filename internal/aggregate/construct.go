package aggregate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/zjrosen/ofxkit/internal/element"
)

// Option configures Registry.New.
type Option func(*buildOptions)

type buildOptions struct {
	members []*Instance
	via     map[string][]string
}

// WithMembers sets the members of a collection kind.
func WithMembers(members ...*Instance) Option {
	return func(o *buildOptions) { o.members = append(o.members, members...) }
}

// Via chooses the include wrappers a field is written under, for fields
// that more than one mutually exclusive include declares. For example
// Via("cursym", "origcurrency") places CURSYM inside ORIGCURRENCY.
func Via(field string, wrappers ...string) Option {
	return func(o *buildOptions) {
		if o.via == nil {
			o.via = make(map[string][]string)
		}
		path := make([]string, len(wrappers))
		for i, w := range wrappers {
			path[i] = strings.ToLower(w)
		}
		o.via[strings.ToLower(field)] = path
	}
}

// New builds an instance of the kind registered for tag from Go values. It
// enforces the same required, mutex and unrecognized-field rules as Decode,
// then coerces each value through its descriptor.
func (r *Registry) New(tag string, values Values, opts ...Option) (*Instance, error) {
	k, err := r.Lookup(tag)
	if err != nil {
		return nil, err
	}
	s := k.schema
	var bo buildOptions
	for _, opt := range opts {
		opt(&bo)
	}

	vals := make(map[string]any, len(values))
	var names []string
	for name, v := range values {
		if v == nil {
			continue
		}
		name = strings.ToLower(name)
		if s.byName[name] == nil {
			if s.isInclude(name) {
				return nil, newError(CodeUnrecognizedField, k.Name, strings.ToUpper(name), "wrappers follow from their fields")
			}
			names = append(names, name)
			continue
		}
		vals[name] = v
	}
	for name, path := range bo.via {
		f := s.byName[name]
		if f == nil {
			return nil, newError(CodeUnrecognizedField, k.Name, strings.ToUpper(name), "")
		}
		if !f.legalPath(path) {
			return nil, newError(CodeUnrecognizedField, k.Name, f.Tag, fmt.Sprintf("cannot be placed under %v", path))
		}
	}

	// Presence follows coercion: a value that coerces to nil, such as an
	// empty string, is absent.
	in := newInstance(k)
	var coerceErr error
	for _, f := range s.fields {
		v, ok := vals[f.Name]
		if !ok {
			continue
		}
		cv, err := coerceField(in, f, v)
		switch {
		case err != nil:
			if coerceErr == nil {
				coerceErr = err
			}
			names = append(names, f.Name)
		case cv != nil:
			in.values[f.Name] = cv
			names = append(names, f.Name)
		}
	}
	if err := s.check(s.presenceOf(names, bo.via, nil)); err != nil {
		return nil, err
	}
	if coerceErr != nil {
		return nil, coerceErr
	}
	for name, path := range bo.via {
		if _, ok := in.values[name]; ok {
			if in.via == nil {
				in.via = make(map[string][]string)
			}
			in.via[name] = path
		}
	}

	if len(bo.members) > 0 {
		if s.members == nil {
			return nil, newError(CodeIllegalMember, k.Name, bo.members[0].Kind(), "kind is not a collection")
		}
		if err := checkMembers(k.Name, s.members.Kinds, s.members.Homogeneous, bo.members); err != nil {
			return nil, err
		}
		in.members = slices.Clone(bo.members)
	}
	return in, nil
}

func coerceField(in *Instance, f *Field, v any) (any, error) {
	switch {
	case f.IsScalar():
		var ws element.Warnings
		cv, err := f.Element.Coerce(v, &ws)
		if err != nil {
			return nil, &Error{Code: CodeInvalidValue, Kind: in.Kind(), Field: f.Tag, Err: err}
		}
		for _, w := range ws {
			in.warnings = append(in.warnings, Warning{Kind: in.Kind(), Field: f.Name, Message: w})
		}
		return cv, nil
	case f.List:
		list, ok := v.([]*Instance)
		if !ok {
			return nil, newError(CodeInvalidValue, in.Kind(), f.Tag, fmt.Sprintf("expected []*Instance, got %T", v))
		}
		if err := checkMembers(in.Kind(), f.Kinds, f.Homogeneous, list); err != nil {
			return nil, err
		}
		return slices.Clone(list), nil
	default:
		sub, ok := v.(*Instance)
		if !ok || sub == nil {
			return nil, newError(CodeInvalidValue, in.Kind(), f.Tag, fmt.Sprintf("expected *Instance, got %T", v))
		}
		if !f.accepts(sub.Kind()) {
			return nil, newError(CodeIllegalMember, in.Kind(), sub.Kind(), "accepted kinds are "+strings.Join(f.Kinds, ", "))
		}
		return sub, nil
	}
}

func checkMembers(owner string, kinds []string, homogeneous bool, members []*Instance) error {
	first := ""
	for _, m := range members {
		if m == nil {
			return newError(CodeIllegalMember, owner, "", "nil member")
		}
		if err := memberKindError(owner, kinds, homogeneous, first, m.Kind()); err != nil {
			return err
		}
		if first == "" {
			first = m.Kind()
		}
	}
	return nil
}
