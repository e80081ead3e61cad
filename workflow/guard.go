package workflow

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

type guard struct {
	expr    string
	program cel.Program
}

func newGuardEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("order", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create guard environment: %w", err)
	}
	return env, nil
}

func compileGuard(env *cel.Env, expr string) (*guard, error) {
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile guard %q: %w", expr, iss.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build guard program %q: %w", expr, err)
	}

	return &guard{expr: expr, program: prg}, nil
}

func (g *guard) eval(facts Facts) (bool, error) {
	vars := map[string]any{"order": map[string]any(facts)}

	out, _, err := g.program.Eval(vars)
	if err != nil {
		return false, err
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("guard %q returned %T, expected bool", g.expr, out.Value())
	}
	return result, nil
}
