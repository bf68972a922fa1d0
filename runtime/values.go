package runtime

import "fmt"

// Environment is the shared variable store for one run. Keys are stored in the
// flat underscore form ("trials.thisN" -> "trials_thisN") so that expressions
// can reference them as plain identifiers after FormatExpression rewriting.
//
// The environment is created when a run starts and torn down when it ends.
// All mutation happens on the single execution thread, in component
// declaration order, so no locking is needed.
type Environment struct {
	values map[string]any
}

func NewEnvironment() *Environment {
	return &Environment{
		values: make(map[string]any),
	}
}

func (e *Environment) Set(key string, value any) {
	e.values[FormatKey(key)] = value
}

func (e *Environment) Get(key string) (any, bool) {
	v, ok := e.values[FormatKey(key)]
	return v, ok
}

// Delete removes a binding. Loop counters are iteration-scoped: the owning
// loop deletes them on exit so a later loop reusing the name never sees a
// stale value.
func (e *Environment) Delete(key string) {
	delete(e.values, FormatKey(key))
}

// SetNested stores a value and recursively expands nested maps/arrays into
// flat keys, so a condition row {stim: {pos: [1, 2]}} is addressable as
// stim_pos_0.
func (e *Environment) SetNested(prefix string, value any) {
	e.Set(prefix, value)

	if m, ok := value.(map[string]any); ok {
		for k, v := range m {
			e.SetNested(prefix+"."+k, v)
		}
	}

	if arr, ok := value.([]any); ok {
		for i, v := range arr {
			e.SetNested(fmt.Sprintf("%s.%d", prefix, i), v)
		}
	}
}

// All returns the live key/value map for expression evaluation.
// Callers must not retain it across mutations.
func (e *Environment) All() map[string]any {
	return e.values
}

// Snapshot returns a copy of the current bindings, used for the end-of-run
// summary after the environment itself is torn down.
func (e *Environment) Snapshot() map[string]any {
	out := make(map[string]any, len(e.values))
	for k, v := range e.values {
		out[k] = v
	}
	return out
}
