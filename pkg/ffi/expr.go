package ffi

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"
	"github.com/oarkflow/expr"
)

type evalFunc func(env map[string]any) (any, error)

// ExprRuntime evaluates code as an expr expression with parameters bound by
// name. Parsed programs are cached by source text.
type ExprRuntime struct {
	cache *ristretto.Cache
}

// NewExprRuntime builds a runtime that keeps at most maxPrograms parsed programs.
func NewExprRuntime(maxPrograms int64) (*ExprRuntime, error) {
	if maxPrograms <= 0 {
		maxPrograms = 1024
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxPrograms * 10,
		MaxCost:     maxPrograms,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create program cache: %w", err)
	}
	return &ExprRuntime{cache: cache}, nil
}

func (r *ExprRuntime) Run(ctx context.Context, code string, args []Arg) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	eval, err := r.program(code)
	if err != nil {
		return nil, err
	}
	env := make(map[string]any, len(args))
	for _, arg := range args {
		env[arg.Name] = arg.Value
	}
	return eval(env)
}

func (r *ExprRuntime) program(code string) (evalFunc, error) {
	if cached, ok := r.cache.Get(code); ok {
		if eval, ok := cached.(evalFunc); ok {
			return eval, nil
		}
	}
	program, err := expr.Parse(code)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", code, err)
	}
	eval := evalFunc(func(env map[string]any) (any, error) {
		return program.Eval(env)
	})
	r.cache.Set(code, eval, 1)
	return eval, nil
}

// Close releases the program cache.
func (r *ExprRuntime) Close() {
	r.cache.Close()
}
