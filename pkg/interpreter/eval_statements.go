package interpreter

import (
	"context"

	"yaksok/interpreter-go/pkg/ast"
	"yaksok/interpreter-go/pkg/runtime"
	"yaksok/interpreter-go/pkg/yaksokerr"
)

func (i *Interpreter) executeBlock(ctx context.Context, block *ast.Block, scope *runtime.Scope, parent *runtime.Frame) error {
	if block == nil {
		return nil
	}
	frame := runtime.NewFrame(block, parent)
	for _, child := range block.Children {
		switch c := child.(type) {
		case *ast.EOL:
			continue
		case ast.Executable:
			if _, err := i.Execute(ctx, c, scope, frame); err != nil {
				return err
			}
		default:
			return yaksokerr.New(yaksokerr.CannotParse, map[string]any{"piece": serializeNode(child)})
		}
	}
	return nil
}

func (i *Interpreter) executeCondition(ctx context.Context, cond *ast.Condition, scope *runtime.Scope, parent *runtime.Frame) error {
	frame := runtime.NewFrame(cond, parent)
	val, err := i.Evaluate(ctx, cond.Condition, scope, frame)
	if err != nil {
		return err
	}
	b, ok := val.(*ast.Boolean)
	if !ok {
		return yaksokerr.New(yaksokerr.InvalidTypeForCondition, map[string]any{"type": ast.TypeName(val)})
	}
	if !b.Value {
		return nil
	}
	return i.executeBlock(ctx, cond.Body, scope, frame)
}

// executeRepeat loops until a break clears the running flag. Statements after
// a Break in the same pass still run; the flag is checked before each pass.
func (i *Interpreter) executeRepeat(ctx context.Context, loop *ast.Repeat, scope *runtime.Scope, parent *runtime.Frame) error {
	frame := runtime.NewFrame(loop, parent)
	running := true
	frame.On(runtime.EventBreak, runtime.BreakHandler(&running))
	for running {
		if err := ctx.Err(); err != nil {
			return yaksokerr.Wrap(yaksokerr.ExecutionCancelled, err, nil)
		}
		if err := i.executeBlock(ctx, loop.Body, scope, frame); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interpreter) executeBreak(brk *ast.Break, parent *runtime.Frame) error {
	frame := runtime.NewFrame(brk, parent)
	handler, err := frame.Invoke(runtime.EventBreak)
	if err != nil {
		return err
	}
	i.logger.Debug().Str("event", string(runtime.EventBreak)).Str("handler", string(handler.Owner().NodeType())).Msg("event dispatched")
	return nil
}

func (i *Interpreter) evaluateDeclareVariable(ctx context.Context, decl *ast.DeclareVariable, scope *runtime.Scope, parent *runtime.Frame) (ast.Value, error) {
	frame := runtime.NewFrame(decl, parent)
	val, err := i.Evaluate(ctx, decl.Value, scope, frame)
	if err != nil {
		return nil, err
	}
	if decl.Name == ast.ReturnIdentifier {
		if _, err := frame.Invoke(runtime.EventReturnValue, val); err != nil {
			return nil, err
		}
		return val, nil
	}
	scope.SetVariable(decl.Name, val)
	return val, nil
}

func (i *Interpreter) executePrint(ctx context.Context, p *ast.Print, scope *runtime.Scope, frame *runtime.Frame) error {
	val, err := i.Evaluate(ctx, p.Value, scope, frame)
	if err != nil {
		return err
	}
	text, err := i.render(ctx, val, scope, frame)
	if err != nil {
		return err
	}
	return i.writeLine(text)
}

func (i *Interpreter) executeSetToIndex(ctx context.Context, set *ast.SetToIndex, scope *runtime.Scope, parent *runtime.Frame) (ast.Value, error) {
	if set.Target == nil {
		return nil, yaksokerr.New(yaksokerr.CannotParse, map[string]any{"piece": serializeNode(set)})
	}
	frame := runtime.NewFrame(set, parent)
	val, err := i.Evaluate(ctx, set.Value, scope, frame)
	if err != nil {
		return nil, err
	}
	target, err := i.Evaluate(ctx, set.Target.Target, scope, frame)
	if err != nil {
		return nil, err
	}
	index, err := i.Evaluate(ctx, set.Target.Index, scope, frame)
	if err != nil {
		return nil, err
	}
	seq, ok := target.(ast.SettableIndexable)
	if !ok {
		return nil, yaksokerr.New(yaksokerr.InvalidSequenceTypeForIndexFetch, map[string]any{"type": ast.TypeName(target)})
	}
	return i.SetValueOfIndex(seq, index, val)
}
