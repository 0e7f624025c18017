package interpreter

import (
	"context"

	"yaksok/interpreter-go/pkg/ast"
	"yaksok/interpreter-go/pkg/runtime"
	"yaksok/interpreter-go/pkg/yaksokerr"
)

func (i *Interpreter) evaluateValueGroup(ctx context.Context, group *ast.ValueGroup, scope *runtime.Scope, parent *runtime.Frame) (ast.Value, error) {
	frame := runtime.NewFrame(group, parent)
	return i.Evaluate(ctx, group.Value, scope, frame)
}

func (i *Interpreter) evaluateBinaryCalculation(ctx context.Context, calc *ast.BinaryCalculation, scope *runtime.Scope, parent *runtime.Frame) (ast.Value, error) {
	if calc.Operator == nil {
		return nil, yaksokerr.New(yaksokerr.CannotParse, map[string]any{"piece": serializeNode(calc)})
	}
	frame := runtime.NewFrame(calc, parent)
	left, err := i.Evaluate(ctx, calc.Left, scope, frame)
	if err != nil {
		return nil, err
	}
	right, err := i.Evaluate(ctx, calc.Right, scope, frame)
	if err != nil {
		return nil, err
	}
	return calc.Operator.Apply(left, right)
}

// evaluateSequence yields the last item. Earlier items are not evaluated.
func (i *Interpreter) evaluateSequence(ctx context.Context, seq *ast.EvaluatableSequence, scope *runtime.Scope, parent *runtime.Frame) (ast.Value, error) {
	if len(seq.Items) == 0 {
		return nil, yaksokerr.New(yaksokerr.InvalidTypeForEvaluatableSequence, map[string]any{"piece": serializeNode(seq)})
	}
	frame := runtime.NewFrame(seq, parent)
	return i.Evaluate(ctx, seq.Items[len(seq.Items)-1], scope, frame)
}

// evaluateIndexFetch evaluates the index before the target.
func (i *Interpreter) evaluateIndexFetch(ctx context.Context, fetch *ast.IndexFetch, scope *runtime.Scope, parent *runtime.Frame) (ast.Value, error) {
	frame := runtime.NewFrame(fetch, parent)
	index, err := i.Evaluate(ctx, fetch.Index, scope, frame)
	if err != nil {
		return nil, err
	}
	target, err := i.Evaluate(ctx, fetch.Target, scope, frame)
	if err != nil {
		return nil, err
	}
	seq, ok := target.(ast.Indexable)
	if !ok {
		return nil, yaksokerr.New(yaksokerr.InvalidTypeForIndexFetch, map[string]any{"type": ast.TypeName(target)})
	}
	return i.GetIndex(ctx, seq, index, scope, frame)
}
