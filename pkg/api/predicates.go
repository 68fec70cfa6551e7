package api

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// EnvFunc supplies the variables an expression predicate evaluates against.
// It is called on every evaluation, so expressions always see current state.
type EnvFunc func() map[string]any

// ExprPredicate compiles expression with github.com/expr-lang/expr and
// returns a SkipPredicate that runs it against env() on each evaluation.
//
// Undefined variables are allowed at compile time (the environment is only
// known at run time); a missing variable evaluates to nil. A run-time error
// or a non-boolean result means "do not skip": a broken predicate degrades
// to showing the step, never to hiding it.
//
// Typical use is YAML-authored tours, where a step carries
// `skip_when: "user.signedIn"` and the host wires an EnvFunc exposing its
// session state.
func ExprPredicate(expression string, env EnvFunc) (SkipPredicate, error) {
	if expression == "" {
		return nil, fmt.Errorf("skip expression must not be empty")
	}
	program, err := exprlang.Compile(expression,
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile skip expression %q: %w", expression, err)
	}
	return exprSkip(program, env), nil
}

func exprSkip(program *exprvm.Program, env EnvFunc) SkipPredicate {
	return func() bool {
		vars := map[string]any{}
		if env != nil {
			if m := env(); m != nil {
				vars = m
			}
		}
		out, err := exprlang.Run(program, vars)
		if err != nil {
			return false
		}
		b, ok := out.(bool)
		return ok && b
	}
}

// Not inverts a predicate. A nil predicate is treated as "never skip", so
// Not(nil) always skips.
func Not(p SkipPredicate) SkipPredicate {
	return func() bool {
		if p == nil {
			return true
		}
		return !p()
	}
}

// AnyOf skips when any of the given predicates is true. Nil entries are
// ignored.
func AnyOf(ps ...SkipPredicate) SkipPredicate {
	return func() bool {
		for _, p := range ps {
			if p != nil && p() {
				return true
			}
		}
		return false
	}
}
