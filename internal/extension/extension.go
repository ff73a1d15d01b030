// Package extension defines the pluggable computations a render pass runs
// to produce dynamic text, and the built-in ones.
//
// An extension reports one of three outcomes from Calculate:
//
//	(result, nil)  the extension produced a value
//	(nil, nil)     nothing to contribute; the pass goes on and the
//	               variable renders as empty text
//	(nil, err)     the extension failed; the whole pass is aborted
//
// Missing parameters are the common reason for the second outcome. They are
// logged as ErrMissingData and never fail the render on their own.
package extension

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mitchellh/mapstructure"
)

var (
	// ErrInternal is returned when an extension cannot complete at all.
	ErrInternal = errors.New("extension: internal error")

	// ErrMissingData marks a recoverable absence of a parameter. It is only
	// ever logged.
	ErrMissingData = errors.New("extension: missing data")

	// ErrDuplicate is returned when two extensions register the same name.
	ErrDuplicate = errors.New("extension: already registered")
)

// Extension is a named, stateless-per-call computation. Implementations
// must be safe for concurrent use by independent render passes.
type Extension interface {
	// Name is the stable identifier variables use to select the extension.
	Name() string

	// Calculate computes a value from params, positional args and the
	// results produced earlier in the same pass. It must not mutate params.
	Calculate(params Params, args []string, scope Scope) (Result, error)
}

// Scope is the read-only view of a render pass given to extensions.
type Scope interface {
	Lookup(name string) (Result, bool)
	Each(fn func(name string, r Result))
}

// Result is the value of one extension invocation.
type Result interface {
	// String is the text the result renders to when referenced by name.
	String() string
	isResult()
}

// Single is a result carrying one string.
type Single struct {
	Value string
}

func (s Single) String() string { return s.Value }
func (Single) isResult()         {}

// Multiple is a result with a main value and named sub-values, referenced
// in templates as {{name}} and {{name.key}}.
type Multiple struct {
	Main   string
	Values map[string]string
}

func (m Multiple) String() string { return m.Main }
func (Multiple) isResult()         {}

// Field returns the named sub-value.
func (m Multiple) Field(key string) (string, bool) {
	v, ok := m.Values[key]
	return v, ok
}

// Params are the loosely typed parameters of one variable, as decoded from
// a match file: strings, sequences and nested mappings.
type Params map[string]any

// Decode fills the struct pointed to by out from p, matching yaml tags and
// converting scalars where the target type asks for it.
func (p Params) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "yaml",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]any(p)); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}
	return nil
}

// Has reports whether key is present, even with a null value.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Registry maps extension names to implementations. Adding an extension
// never requires touching the render engine.
type Registry struct {
	mu   sync.RWMutex
	exts map[string]Extension
}

// NewRegistry returns a registry holding exts.
func NewRegistry(exts ...Extension) (*Registry, error) {
	r := &Registry{exts: make(map[string]Extension, len(exts))}
	for _, ext := range exts {
		if err := r.Register(ext); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds ext under ext.Name().
func (r *Registry) Register(ext Extension) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := ext.Name()
	if _, ok := r.exts[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	r.exts[name] = ext
	return nil
}

// Lookup returns the extension registered under name.
func (r *Registry) Lookup(name string) (Extension, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ext, ok := r.exts[name]
	return ext, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.exts))
	for name := range r.exts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
