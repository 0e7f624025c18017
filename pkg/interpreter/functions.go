package interpreter

import (
	"context"
	"fmt"

	"yaksok/interpreter-go/pkg/ast"
	"yaksok/interpreter-go/pkg/ffi"
	"yaksok/interpreter-go/pkg/runtime"
	"yaksok/interpreter-go/pkg/yaksokerr"
)

func (i *Interpreter) declareFunction(fn ast.Function, scope *runtime.Scope) error {
	name := fn.FunctionName()
	if name == "" {
		return yaksokerr.New(yaksokerr.FunctionMustHaveName, nil)
	}
	scope.SetFunction(name, fn)
	return nil
}

// evaluateFunctionInvoke binds the evaluated arguments in a fresh scope under
// the caller's and runs the function there. A call that returns nothing
// evaluates to 0.
func (i *Interpreter) evaluateFunctionInvoke(ctx context.Context, call *ast.FunctionInvoke, scope *runtime.Scope, parent *runtime.Frame) (ast.Value, error) {
	frame := runtime.NewFrame(call, parent)
	name := call.FunctionName()
	if name == "" {
		return nil, yaksokerr.New(yaksokerr.FunctionMustHaveName, nil)
	}
	args := make(map[string]ast.Value, len(call.Args))
	for _, arg := range call.Args {
		expr, ok := arg.Value.(ast.Evaluatable)
		if !ok {
			return nil, yaksokerr.New(yaksokerr.NotEvaluableExpression, map[string]any{"piece": serializeNode(arg.Value)})
		}
		val, err := i.Evaluate(ctx, expr, scope, frame)
		if err != nil {
			return nil, err
		}
		args[arg.Name] = val
	}
	fn, err := scope.GetFunction(name)
	if err != nil {
		return nil, err
	}
	i.logger.Debug().Str("function", name).Int("args", len(args)).Msg("invoking function")
	result, err := i.Run(ctx, fn, runtime.NewScope(scope, args), frame)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return ast.NewNumber(0), nil
	}
	return result, nil
}

// Run executes a declared function's body against scope. The returned value
// is nil when the body never declared a result.
func (i *Interpreter) Run(ctx context.Context, fn ast.Function, scope *runtime.Scope, caller *runtime.Frame) (ast.Value, error) {
	switch f := fn.(type) {
	case *ast.FunctionDeclaration:
		return i.runDeclared(ctx, f, scope, caller)
	case *ast.DeclareFFI:
		return i.runForeign(ctx, f, scope, caller)
	default:
		panic(fmt.Sprintf("%s has no run method", fn.NodeType()))
	}
}

func (i *Interpreter) runDeclared(ctx context.Context, fn *ast.FunctionDeclaration, scope *runtime.Scope, caller *runtime.Frame) (ast.Value, error) {
	frame := runtime.NewFrame(fn, caller)
	var result ast.Value
	frame.On(runtime.EventReturnValue, runtime.ReturnHandler(&result))
	if err := i.executeBlock(ctx, fn.Body, scope, frame); err != nil {
		return nil, err
	}
	return result, nil
}

func (i *Interpreter) runForeign(ctx context.Context, fn *ast.DeclareFFI, scope *runtime.Scope, caller *runtime.Frame) (ast.Value, error) {
	frame := runtime.NewFrame(fn, caller)
	rt, err := i.runtimes.Lookup(fn.Runtime)
	if err != nil {
		return nil, err
	}
	args := make([]ffi.Arg, len(fn.Params))
	for idx, param := range fn.Params {
		val, err := scope.GetVariable(param)
		if err != nil {
			return nil, err
		}
		native, err := i.nativeValue(ctx, val, scope, frame, nil)
		if err != nil {
			return nil, err
		}
		args[idx] = ffi.Arg{Name: param, Value: native}
	}
	i.logger.Debug().Str("function", fn.FunctionName()).Str("runtime", fn.Runtime).Msg("calling foreign function")
	out, err := rt.Run(ctx, fn.Code, args)
	if err != nil {
		if _, ok := yaksokerr.KindOf(err); ok {
			return nil, err
		}
		return nil, yaksokerr.Wrap(yaksokerr.FFIRuntimeError, err, map[string]any{
			"function": fn.FunctionName(),
			"runtime":  fn.Runtime,
		})
	}
	return ffi.ToValue(out)
}

// nativeValue converts a value into the Go form handed to foreign runtimes.
// active holds the lists on the current path; a list that contains itself
// has no Go form and fails with CIRCULAR_LIST.
func (i *Interpreter) nativeValue(ctx context.Context, val ast.Value, scope *runtime.Scope, frame *runtime.Frame, active map[ast.Indexable]bool) (any, error) {
	switch v := val.(type) {
	case *ast.Number:
		return v.Value, nil
	case *ast.String:
		return v.Value, nil
	case *ast.Boolean:
		return v.Value, nil
	case ast.Indexable:
		if active[v] {
			return nil, yaksokerr.New(yaksokerr.CircularList, nil)
		}
		if active == nil {
			active = make(map[ast.Indexable]bool)
		}
		active[v] = true
		defer delete(active, v)

		items, err := i.ListValues(ctx, v, scope, frame)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(items))
		for idx, item := range items {
			native, err := i.nativeValue(ctx, item, scope, frame, active)
			if err != nil {
				return nil, err
			}
			out[idx] = native
		}
		return out, nil
	}
	return nil, yaksokerr.New(yaksokerr.FFIInvalidResult, map[string]any{"type": ast.TypeName(val)})
}
