package runtime

import (
	"regexp"

	"github.com/expr-lang/expr"
)

// ExpressionEvaluator evaluates a runtime expression against an environment.
// Implementations must be pure: all mutation goes through explicit component
// writes, never through evaluation.
type ExpressionEvaluator interface {
	Eval(expression string, env *Environment) (any, error)
}

// Evaluator evaluates expressions with the expr-lang library. Dotted names are
// rewritten to the environment's flat underscore form before compilation.
//
// Unlike engines that tolerate missing variables, a reference to an unbound
// name fails with UnresolvedNameError. Loop counters only exist while their
// loop is iterating, and silently defaulting a missing counter to zero would
// turn a sequencing bug into a wrong-but-plausible experiment.
type Evaluator struct{}

func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

var unknownNameRe = regexp.MustCompile(`unknown name ([A-Za-z_][A-Za-z0-9_]*)`)

func (e *Evaluator) Eval(expression string, env *Environment) (any, error) {
	values := env.All()

	program, err := expr.Compile(FormatExpression(expression), expr.Env(values))
	if err != nil {
		if m := unknownNameRe.FindStringSubmatch(err.Error()); m != nil {
			return nil, &UnresolvedNameError{Name: m[1], Expression: expression}
		}
		return nil, &EvalError{Expression: expression, Err: err}
	}

	result, err := expr.Run(program, values)
	if err != nil {
		return nil, &EvalError{Expression: expression, Err: err}
	}
	return result, nil
}
