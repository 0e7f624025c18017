// Package ffi hosts the foreign runtimes that back 번역 function declarations.
package ffi

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"yaksok/interpreter-go/pkg/ast"
	"yaksok/interpreter-go/pkg/yaksokerr"
)

// Runtime tags understood out of the box.
const (
	ExprTag = "expr"
	HostTag = "Go"
)

// Arg is one bound parameter of a foreign call.
type Arg struct {
	Name  string
	Value any
}

// Runtime executes foreign code. Implementations must honour ctx.
type Runtime interface {
	Run(ctx context.Context, code string, args []Arg) (any, error)
}

// RuntimeFunc adapts a plain function to Runtime.
type RuntimeFunc func(ctx context.Context, code string, args []Arg) (any, error)

func (f RuntimeFunc) Run(ctx context.Context, code string, args []Arg) (any, error) {
	return f(ctx, code, args)
}

// Registry maps runtime tags to runtimes.
type Registry struct {
	mu       sync.RWMutex
	runtimes map[string]Runtime
}

func NewRegistry() *Registry {
	return &Registry{runtimes: make(map[string]Runtime)}
}

func (r *Registry) Register(tag string, rt Runtime) {
	r.mu.Lock()
	r.runtimes[tag] = rt
	r.mu.Unlock()
}

func (r *Registry) Lookup(tag string) (Runtime, error) {
	r.mu.RLock()
	rt, ok := r.runtimes[tag]
	r.mu.RUnlock()
	if !ok {
		return nil, yaksokerr.New(yaksokerr.FFIRuntimeNotFound, map[string]any{"runtime": tag})
	}
	return rt, nil
}

// Tags lists the registered tags in sorted order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.runtimes))
	for tag := range r.runtimes {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// ToValue converts a foreign result into a value node. A nil result yields a
// nil value so the caller can substitute its default.
func ToValue(v any) (ast.Value, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case ast.Value:
		return v, nil
	case float64:
		return ast.NewNumber(v), nil
	case float32:
		return ast.NewNumber(float64(v)), nil
	case int:
		return ast.NewNumber(float64(v)), nil
	case int8:
		return ast.NewNumber(float64(v)), nil
	case int16:
		return ast.NewNumber(float64(v)), nil
	case int32:
		return ast.NewNumber(float64(v)), nil
	case int64:
		return ast.NewNumber(float64(v)), nil
	case uint:
		return ast.NewNumber(float64(v)), nil
	case uint8:
		return ast.NewNumber(float64(v)), nil
	case uint16:
		return ast.NewNumber(float64(v)), nil
	case uint32:
		return ast.NewNumber(float64(v)), nil
	case uint64:
		return ast.NewNumber(float64(v)), nil
	case string:
		return ast.NewString(v), nil
	case bool:
		return ast.NewBoolean(v), nil
	case []any:
		return listOf(len(v), func(i int) any { return v[i] })
	case []string:
		return listOf(len(v), func(i int) any { return v[i] })
	case []float64:
		return listOf(len(v), func(i int) any { return v[i] })
	case []int:
		return listOf(len(v), func(i int) any { return v[i] })
	case []bool:
		return listOf(len(v), func(i int) any { return v[i] })
	}
	return nil, yaksokerr.New(yaksokerr.FFIInvalidResult, map[string]any{"type": fmt.Sprintf("%T", v)})
}

func listOf(n int, at func(int) any) (ast.Value, error) {
	items := make([]ast.Evaluatable, n)
	for i := 0; i < n; i++ {
		item, err := ToValue(at(i))
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, yaksokerr.New(yaksokerr.FFIInvalidResult, map[string]any{"type": "nil list element"})
		}
		items[i] = item
	}
	return ast.NewList(items...), nil
}
