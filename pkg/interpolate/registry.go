package interpolate

import (
	"fmt"
	"sort"
	"sync"
)

// Function is an interpolation function such as literal('%') or
// variable('::fqdn'). ctx is the context of the token being expanded, so
// functions can read the scope of the lookup in progress.
type Function func(ctx RuleContext, args ...any) (any, error)

// Variadic registers a function that accepts any number of arguments.
const Variadic = -1

type registration struct {
	fn    Function
	arity int
}

// FunctionRegistry holds the functions callable from interpolation tokens.
// Names are case sensitive identifiers and may not shadow the bindings every
// expression sees (scope, context, args, now, call).
type FunctionRegistry struct {
	mu      sync.RWMutex
	entries map[string]registration
}

func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{entries: map[string]registration{}}
}

// Register adds fn under name. arity is the exact argument count, or
// Variadic.
func (r *FunctionRegistry) Register(name string, arity int, fn Function) error {
	switch {
	case fn == nil:
		return fmt.Errorf("interpolate: function %q is nil", name)
	case !identifierPattern.MatchString(name):
		return fmt.Errorf("interpolate: invalid function name %q", name)
	case reservedBinding(name):
		return fmt.Errorf("interpolate: function name %q is reserved", name)
	case arity < Variadic:
		return fmt.Errorf("interpolate: invalid arity %d for %q", arity, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = map[string]registration{}
	}
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("interpolate: function %q already registered", name)
	}
	r.entries[name] = registration{fn: fn, arity: arity}
	return nil
}

// Clone returns an independent copy; later registrations on either side do
// not leak into the other.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{entries: make(map[string]registration, len(r.entries))}
	for name, entry := range r.entries {
		clone.entries[name] = entry
	}
	return clone
}

// Call runs name with args after checking its arity.
func (r *FunctionRegistry) Call(ctx RuleContext, name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("interpolate: no functions registered, cannot call %q", name)
	}
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("interpolate: function %q not registered", name)
	}
	if entry.arity != Variadic && len(args) != entry.arity {
		return nil, fmt.Errorf("interpolate: %s expects %d argument(s), got %d", name, entry.arity, len(args))
	}
	return entry.fn(ctx, args...)
}

// Bind closes every registered function over ctx. Evaluators expose the
// result as plain callables for one evaluation.
func (r *FunctionRegistry) Bind(ctx RuleContext) map[string]func(args ...any) (any, error) {
	names := r.Names()
	bound := make(map[string]func(args ...any) (any, error), len(names))
	for _, name := range names {
		bound[name] = func(args ...any) (any, error) {
			return r.Call(ctx, name, args...)
		}
	}
	return bound
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
