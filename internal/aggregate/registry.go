package aggregate

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/zjrosen/ofxkit/internal/log"
)

// Registry errors
var (
	ErrDuplicateKind = errors.New("aggregate kind already registered")
	ErrNilKind       = errors.New("aggregate kind cannot be nil")
	ErrNonExhaustive = errors.New("family match does not cover every kind")
)

// Registry maps aggregate tags to their kinds. It is safe for concurrent
// use; registered kinds are never modified.
type Registry struct {
	mu       sync.RWMutex
	kinds    map[string]*Kind
	families map[string]*Family
}

// NewRegistry creates a new empty registry
func NewRegistry() *Registry {
	return &Registry{
		kinds:    make(map[string]*Kind),
		families: make(map[string]*Family),
	}
}

// Register resolves k and adds it. Kinds named by Include must already be
// registered; kinds named by Sub, List and Members may follow later and are
// checked by Validate.
func (r *Registry) Register(k *Kind) error {
	if k == nil {
		return ErrNilKind
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	k.Name = strings.ToUpper(k.Name)
	if _, ok := r.kinds[k.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKind, k.Name)
	}
	if _, ok := r.families[k.Name]; ok {
		return fmt.Errorf("%w: %s names a family", ErrDuplicateKind, k.Name)
	}
	s, err := r.resolve(k)
	if err != nil {
		return err
	}
	k.schema = s
	r.kinds[k.Name] = k
	log.Debug(log.CatSchema, "registered kind", "kind", k.Name, "fields", len(s.fields))
	return nil
}

// MustRegister registers kinds in order and panics on the first failure.
// It is meant for package-level schema tables.
func (r *Registry) MustRegister(kinds ...*Kind) {
	for _, k := range kinds {
		if err := r.Register(k); err != nil {
			panic(err)
		}
	}
}

// DefineFamily declares a closed set of kinds that may stand in for the
// family name wherever Sub, List or Members accept kinds. Families must be
// defined before the kinds that reference them are registered.
func (r *Registry) DefineFamily(name string, kinds ...string) (*Family, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name = strings.ToUpper(name)
	if _, ok := r.families[name]; ok {
		return nil, fmt.Errorf("%w: family %s", ErrDuplicateKind, name)
	}
	if _, ok := r.kinds[name]; ok {
		return nil, fmt.Errorf("%w: %s names a kind", ErrDuplicateKind, name)
	}
	members := make([]string, len(kinds))
	for i, k := range kinds {
		members[i] = strings.ToUpper(k)
	}
	f := &Family{Name: name, kinds: members}
	r.families[name] = f
	return f, nil
}

// Family returns a defined family.
func (r *Registry) Family(name string) (*Family, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.families[strings.ToUpper(name)]
	return f, ok
}

// Lookup returns the kind registered for tag.
func (r *Registry) Lookup(tag string) (*Kind, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[strings.ToUpper(tag)]
	if !ok {
		return nil, newError(CodeUnknownAggregate, strings.ToUpper(tag), "", "no kind registered for this tag")
	}
	return k, nil
}

// Kinds returns the registered tags, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.kinds))
	for t := range r.kinds {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Validate reports every kind referenced by a Sub, List or Members
// declaration that is not registered.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for _, tag := range sortedKeys(r.kinds) {
		s := r.kinds[tag].schema
		for _, f := range s.fields {
			for _, k := range f.Kinds {
				if _, ok := r.kinds[k]; !ok {
					errs = append(errs, newError(CodeUnknownAggregate, tag, f.Name, "references unregistered kind "+k))
				}
			}
		}
		if s.members != nil {
			for _, k := range s.members.Kinds {
				if _, ok := r.kinds[k]; !ok {
					errs = append(errs, newError(CodeUnknownAggregate, tag, "", "member kind "+k+" is not registered"))
				}
			}
		}
	}
	for _, name := range sortedKeys(r.families) {
		for _, k := range r.families[name].kinds {
			if _, ok := r.kinds[k]; !ok {
				errs = append(errs, newError(CodeUnknownAggregate, name, "", "family member "+k+" is not registered"))
			}
		}
	}
	return errors.Join(errs...)
}

// expand replaces family names with their member kinds. Callers hold mu.
func (r *Registry) expand(kinds []string) []string {
	out := make([]string, 0, len(kinds))
	for _, k := range kinds {
		k = strings.ToUpper(k)
		if f, ok := r.families[k]; ok {
			out = append(out, f.kinds...)
			continue
		}
		out = append(out, k)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Family is a closed set of aggregate kinds, such as every flavor of an
// investment buy.
type Family struct {
	Name  string
	kinds []string
}

// Kinds returns the member tags.
func (f *Family) Kinds() []string { return slices.Clone(f.kinds) }

// Contains reports whether tag is a member.
func (f *Family) Contains(tag string) bool {
	return slices.Contains(f.kinds, strings.ToUpper(tag))
}

// Match calls the case for inst's kind. Cases must cover every member, so
// adding a kind to the family breaks callers that do not handle it.
func (f *Family) Match(inst *Instance, cases map[string]func(*Instance) error) error {
	for _, k := range f.kinds {
		if _, ok := cases[k]; !ok {
			return fmt.Errorf("%w: %s has no case for %s", ErrNonExhaustive, f.Name, k)
		}
	}
	if len(cases) != len(f.kinds) {
		return fmt.Errorf("%w: %s has cases for kinds outside the family", ErrNonExhaustive, f.Name)
	}
	fn, ok := cases[inst.Kind()]
	if !ok {
		return newError(CodeIllegalMember, f.Name, inst.Kind(), "kind is not a member of the family")
	}
	return fn(inst)
}
