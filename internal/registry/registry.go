// Package registry holds the component schema registry: the append-only
// mapping from short type tags to kind descriptors (parameter names, units,
// ranges and defaults) shared by the encoder, decoder and estimator.
//
// A Registry is immutable once constructed. Extending it produces a new
// Registry, and a tag that has been released can never be redefined, so
// tokens written against an older registry keep decoding to the same kinds.
package registry

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidTag is returned for tags outside [A-Z][A-Za-z]*.
	ErrInvalidTag = errors.New("registry: invalid tag")
	// ErrEmptyName is returned when a kind or parameter has no name.
	ErrEmptyName = errors.New("registry: empty name")
	// ErrConflictingRegistration indicates an attempt to redefine a
	// released tag or reuse a kind name.
	ErrConflictingRegistration = errors.New("registry: conflicting registration")
	// ErrInvalidParam is returned for bad parameter keys or ranges.
	ErrInvalidParam = errors.New("registry: invalid parameter")
	// ErrIncompatible is returned by CompatibleWith when a released tag
	// disappeared or changed meaning.
	ErrIncompatible = errors.New("registry: incompatible with previous release")
)

// Registry maps tags to kinds. The zero value is not usable; call New.
type Registry struct {
	kinds  []*Kind
	byTag  map[string]*Kind
	byName map[string]*Kind
}

// New builds a registry from kinds, in order.
func New(kinds ...Kind) (*Registry, error) {
	empty := &Registry{
		byTag:  map[string]*Kind{},
		byName: map[string]*Kind{},
	}
	return empty.Extend(kinds...)
}

// MustNew is New that panics; for package-level registries.
func MustNew(kinds ...Kind) *Registry {
	r, err := New(kinds...)
	if err != nil {
		panic(err)
	}
	return r
}

// Extend returns a new registry with kinds appended. Re-registering an
// identical kind is a no-op; redefining a tag or reusing a name fails.
// The receiver is left untouched.
func (r *Registry) Extend(kinds ...Kind) (*Registry, error) {
	next := &Registry{
		kinds:  append([]*Kind(nil), r.kinds...),
		byTag:  make(map[string]*Kind, len(r.byTag)+len(kinds)),
		byName: make(map[string]*Kind, len(r.byName)+len(kinds)),
	}
	for tag, k := range r.byTag {
		next.byTag[tag] = k
	}
	for name, k := range r.byName {
		next.byName[name] = k
	}

	for i := range kinds {
		k := kinds[i]
		k.Params = append([]ParamSpec(nil), k.Params...)
		if err := validateKind(&k); err != nil {
			return nil, err
		}
		k.index()

		if old, ok := next.byTag[k.Tag]; ok {
			if sameKind(old, &k) {
				continue
			}
			return nil, fmt.Errorf("%w: tag %q already names %q", ErrConflictingRegistration, k.Tag, old.Name)
		}
		if old, ok := next.byName[k.Name]; ok {
			return nil, fmt.Errorf("%w: name %q already used by tag %q", ErrConflictingRegistration, k.Name, old.Tag)
		}

		kp := &k
		next.kinds = append(next.kinds, kp)
		next.byTag[k.Tag] = kp
		next.byName[k.Name] = kp
	}

	return next, nil
}

// Lookup resolves a tag. The boolean is false for unregistered tags.
func (r *Registry) Lookup(tag string) (*Kind, bool) {
	k, ok := r.byTag[tag]
	return k, ok
}

// ByName resolves a kind by its long name.
func (r *Registry) ByName(name string) (*Kind, bool) {
	k, ok := r.byName[name]
	return k, ok
}

// Resolve accepts either a tag or a kind name.
func (r *Registry) Resolve(ref string) (*Kind, bool) {
	if k, ok := r.byTag[ref]; ok {
		return k, true
	}
	return r.ByName(ref)
}

// Kinds returns the registered kinds in registration order.
func (r *Registry) Kinds() []*Kind {
	return append([]*Kind(nil), r.kinds...)
}

// Len returns the number of registered kinds.
func (r *Registry) Len() int {
	return len(r.kinds)
}

// CompatibleWith checks that every kind of prev is still registered under
// the same tag with an identical descriptor.
func (r *Registry) CompatibleWith(prev *Registry) error {
	for _, old := range prev.kinds {
		cur, ok := r.byTag[old.Tag]
		if !ok {
			return fmt.Errorf("%w: tag %q (%s) was removed", ErrIncompatible, old.Tag, old.Name)
		}
		if !sameKind(old, cur) {
			return fmt.Errorf("%w: tag %q changed from %q", ErrIncompatible, old.Tag, old.Name)
		}
	}
	return nil
}

func validateKind(k *Kind) error {
	if !validTag(k.Tag) {
		return fmt.Errorf("%w: %q", ErrInvalidTag, k.Tag)
	}
	if k.Name == "" {
		return fmt.Errorf("%w: kind %q", ErrEmptyName, k.Tag)
	}

	keys := make(map[string]bool, len(k.Params))
	names := make(map[string]bool, len(k.Params))
	for _, p := range k.Params {
		if p.Name == "" {
			return fmt.Errorf("%w: parameter of kind %q", ErrEmptyName, k.Tag)
		}
		if !validKey(p.Key) {
			return fmt.Errorf("%w: %s.%s key %q must be lowercase letters", ErrInvalidParam, k.Name, p.Name, p.Key)
		}
		if keys[p.Key] || names[p.Name] {
			return fmt.Errorf("%w: %s.%s declared twice", ErrInvalidParam, k.Name, p.Name)
		}
		keys[p.Key], names[p.Name] = true, true

		for _, v := range []float64{p.Min, p.Max, p.Default} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: %s.%s has a non-finite bound", ErrInvalidParam, k.Name, p.Name)
			}
		}
		if p.Min > p.Default || p.Default > p.Max {
			return fmt.Errorf("%w: %s.%s default outside [min, max]", ErrInvalidParam, k.Name, p.Name)
		}
	}
	return nil
}

// ValidTag reports whether tag has the syntax of a registry tag,
// whether or not it is registered.
func ValidTag(tag string) bool {
	return validTag(tag)
}

func validTag(tag string) bool {
	if tag == "" || tag[0] < 'A' || tag[0] > 'Z' {
		return false
	}
	for i := 1; i < len(tag); i++ {
		c := tag[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= 'a' && c <= 'z') {
			return false
		}
	}
	return true
}

func validKey(key string) bool {
	if key == "" {
		return false
	}
	for i := 0; i < len(key); i++ {
		if key[i] < 'a' || key[i] > 'z' {
			return false
		}
	}
	return true
}
