// Package expr holds the named formulas that drive frame channels.
//
// A driver in the host scene stores the name of its formula rather than the
// function itself, so a scene written to disk can be bound again after it is
// read back. Packages that define formulas register them at init time; the
// scene resolves them by name when a driver is bound or evaluated.
//
// # Usage
//
// Register formulas once, at package initialization:
//
//	func init() {
//	    expr.MustRegister("megamini.fp_scale", fpScale)
//	}
//
// Evaluate by name:
//
//	f, ok := expr.Lookup("megamini.fp_scale")
//	v := f(expr.Vars{"proxy_dist": 2, "mega_mini_scl": 1000})
package expr

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// ErrUnknownFormula is returned by [Resolve] when no formula is registered
// under the requested name.
var ErrUnknownFormula = errors.New("unknown formula")

// Vars maps driver variable names to their current values.
type Vars map[string]float64

// Formula computes one channel value from the driver's variables.
// Formulas must be pure: the same variables always give the same result.
type Formula func(v Vars) float64

var (
	formulas   = map[string]Formula{}
	formulasMu sync.RWMutex
)

// Register adds a formula under name. It returns an error if the name is
// empty, the formula is nil, or the name is already taken.
func Register(name string, f Formula) error {
	if name == "" {
		return errors.New("formula name must not be empty")
	}
	if f == nil {
		return fmt.Errorf("formula %q: nil function", name)
	}
	formulasMu.Lock()
	defer formulasMu.Unlock()
	if _, exists := formulas[name]; exists {
		return fmt.Errorf("formula %q already registered", name)
	}
	formulas[name] = f
	return nil
}

// MustRegister is like [Register] but panics on error. It is meant for init
// functions, where a duplicate name is a programming error.
func MustRegister(name string, f Formula) {
	if err := Register(name, f); err != nil {
		panic(err)
	}
}

// Lookup returns the formula registered under name.
func Lookup(name string) (Formula, bool) {
	formulasMu.RLock()
	defer formulasMu.RUnlock()
	f, ok := formulas[name]
	return f, ok
}

// Resolve is like [Lookup] but returns an error wrapping [ErrUnknownFormula].
func Resolve(name string) (Formula, error) {
	f, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormula, name)
	}
	return f, nil
}

// Names returns all registered formula names in sorted order.
func Names() []string {
	formulasMu.RLock()
	defer formulasMu.RUnlock()
	return slices.Sorted(maps.Keys(formulas))
}
