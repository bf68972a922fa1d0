package runtime

import (
	"errors"
	"fmt"
)

// Structural errors detected while linking a flow definition.
var (
	// ErrUnmatchedLoopStart: a loopStart entry has no matching loopEnd.
	ErrUnmatchedLoopStart = errors.New("loopStart without matching loopEnd")

	// ErrUnmatchedLoopEnd: a loopEnd entry has no open loopStart.
	ErrUnmatchedLoopEnd = errors.New("loopEnd without matching loopStart")

	// ErrOverlappingLoops: a loopEnd closes a loop other than the innermost open one.
	ErrOverlappingLoops = errors.New("loopEnd does not close the innermost open loop")

	// ErrDuplicateLoopName: two loops in the flow share a name.
	ErrDuplicateLoopName = errors.New("duplicate loop name")

	// ErrUnknownRoutine: a flow entry references a routine that is not defined.
	ErrUnknownRoutine = errors.New("flow references unknown routine")

	// ErrUnknownComponentKind: a component record uses a kind the engine does not know.
	ErrUnknownComponentKind = errors.New("unknown component kind")

	// ErrEmptyFlow: the experiment defines no flow entries.
	ErrEmptyFlow = errors.New("experiment flow is empty")
)

// Repetition-count errors detected at loop entry.
var (
	// ErrNegativeReps: the repetition expression produced a negative number.
	ErrNegativeReps = errors.New("repetition count is negative")

	// ErrNonIntegerReps: the repetition expression produced a non-integral number.
	ErrNonIntegerReps = errors.New("repetition count is not an integer")

	// ErrNonNumericReps: the repetition expression produced a non-numeric value.
	ErrNonNumericReps = errors.New("repetition count is not numeric")

	// ErrBranchNotBoolean: a branch guard expression produced something other
	// than a boolean or 0/1.
	ErrBranchNotBoolean = errors.New("branch guard must evaluate to a boolean or 0/1")
)

// ConfigError reports a malformed flow structure or an invalid runtime-computed
// configuration value (e.g. a negative repetition count). It is fatal: the run
// aborts at the offending construct and is never retried.
type ConfigError struct {
	Construct string // loop or routine name, "" for flow-level problems
	Field     string
	Message   string
	Err       error
}

func (e *ConfigError) Error() string {
	if e.Construct != "" {
		return fmt.Sprintf("%s: %s", e.Construct, e.Message)
	}
	return e.Message
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func newConfigError(construct, field, message string, err error) *ConfigError {
	return &ConfigError{
		Construct: construct,
		Field:     field,
		Message:   message,
		Err:       err,
	}
}

// EvalError reports a malformed expression. Carries the offending expression
// and the name of the component or loop that owns it.
type EvalError struct {
	Owner      string
	Expression string
	Err        error
}

func (e *EvalError) Error() string {
	if e.Owner != "" {
		return fmt.Sprintf("%s: error evaluating %q: %v", e.Owner, e.Expression, e.Err)
	}
	return fmt.Sprintf("error evaluating %q: %v", e.Expression, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// UnresolvedNameError reports an expression referencing a variable that is not
// bound in the environment at evaluation time. The engine never substitutes a
// default: the expression must only be evaluated after the name is published.
type UnresolvedNameError struct {
	Name       string
	Expression string
}

func (e *UnresolvedNameError) Error() string {
	return fmt.Sprintf("unresolved name %q in expression %q", e.Name, e.Expression)
}
