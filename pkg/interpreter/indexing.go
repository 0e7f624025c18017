package interpreter

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"yaksok/interpreter-go/pkg/ast"
	"yaksok/interpreter-go/pkg/runtime"
	"yaksok/interpreter-go/pkg/yaksokerr"
)

// GetIndex reads the 1-based position index of target. Every slot is
// evaluated before the element is selected.
func (i *Interpreter) GetIndex(ctx context.Context, target ast.Indexable, index ast.Value, scope *runtime.Scope, parent *runtime.Frame) (ast.Value, error) {
	frame := runtime.NewFrame(target, parent)
	pos, err := listPosition(index)
	if err != nil {
		return nil, err
	}
	values, err := i.evaluateSlots(ctx, target.Slots(), scope, frame)
	if err != nil {
		return nil, err
	}
	if pos >= float64(len(values)) {
		return nil, outOfRange(pos, len(values))
	}
	return values[int(pos)], nil
}

// SetValueOfIndex freezes the 1-based position index of target to value.
func (i *Interpreter) SetValueOfIndex(target ast.SettableIndexable, index ast.Value, value ast.Value) (ast.Value, error) {
	pos, err := listPosition(index)
	if err != nil {
		return nil, err
	}
	length := target.Len()
	if pos >= float64(length) {
		return nil, outOfRange(pos, length)
	}
	target.SetSlotValue(int(pos), value)
	return value, nil
}

// listPosition validates a 1-based index and returns it zero-based.
func listPosition(index ast.Value) (float64, error) {
	n, ok := index.(*ast.Number)
	if !ok {
		return 0, yaksokerr.New(yaksokerr.ListIndexMustBeNumber, map[string]any{"type": ast.TypeName(index)})
	}
	if n.Value < 1 {
		return 0, yaksokerr.New(yaksokerr.ListIndexMustBeGreaterThan0, map[string]any{"index": ast.FormatNumber(n.Value)})
	}
	if math.IsNaN(n.Value) || (!math.IsInf(n.Value, 1) && n.Value != math.Trunc(n.Value)) {
		return 0, yaksokerr.New(yaksokerr.ListIndexMustBeInteger, map[string]any{"index": ast.FormatNumber(n.Value)})
	}
	return n.Value - 1, nil
}

func outOfRange(pos float64, length int) error {
	return yaksokerr.New(yaksokerr.ListIndexOutOfRange, map[string]any{
		"index":  ast.FormatNumber(pos + 1),
		"length": length,
	})
}

func (i *Interpreter) evaluateSlots(ctx context.Context, slots []ast.ListSlot, scope *runtime.Scope, frame *runtime.Frame) ([]ast.Value, error) {
	values := make([]ast.Value, len(slots))
	if i.listEvaluation != Concurrent || len(slots) < 2 || !isolatedSlots(slots) {
		for idx, slot := range slots {
			val, err := i.evaluateSlot(ctx, slot, scope, frame)
			if err != nil {
				return nil, err
			}
			values[idx] = val
		}
		return values, nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for idx, slot := range slots {
		idx, slot := idx, slot
		g.Go(func() error {
			val, err := i.evaluateSlot(gctx, slot, scope, frame)
			if err != nil {
				return err
			}
			values[idx] = val
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return values, nil
}

// isolatedSlots reports whether every slot can be evaluated on its own
// goroutine. Slots that call functions, write variables or list elements, or
// read through another list may touch the shared scope or raise control
// events on the shared frame, so they keep the list sequential.
func isolatedSlots(slots []ast.ListSlot) bool {
	for _, slot := range slots {
		if !slot.Materialized && !isolatedExpr(slot.Node) {
			return false
		}
	}
	return true
}

func isolatedExpr(node ast.Evaluatable) bool {
	switch n := node.(type) {
	case ast.Value, *ast.Variable:
		return true
	case *ast.ValueGroup:
		return isolatedExpr(n.Value)
	case *ast.BinaryCalculation:
		return isolatedExpr(n.Left) && isolatedExpr(n.Right)
	case *ast.Indexing:
		return isolatedExpr(n.Index)
	case *ast.EvaluatableSequence:
		for _, item := range n.Items {
			if !isolatedExpr(item) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (i *Interpreter) evaluateSlot(ctx context.Context, slot ast.ListSlot, scope *runtime.Scope, frame *runtime.Frame) (ast.Value, error) {
	if slot.Materialized {
		if v, ok := slot.Node.(ast.Value); ok {
			return v, nil
		}
	}
	return i.Evaluate(ctx, slot.Node, scope, frame)
}

// ListValues evaluates every element of list in order.
func (i *Interpreter) ListValues(ctx context.Context, list ast.Indexable, scope *runtime.Scope, frame *runtime.Frame) ([]ast.Value, error) {
	return i.evaluateSlots(ctx, list.Slots(), scope, runtime.NewFrame(list, frame))
}
