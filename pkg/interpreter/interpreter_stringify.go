package interpreter

import (
	"context"
	"strings"

	"yaksok/interpreter-go/pkg/ast"
	"yaksok/interpreter-go/pkg/runtime"
)

// cyclePlaceholder stands in for a list that is already being printed.
const cyclePlaceholder = "[...]"

// render produces the raw text Print writes. Lists evaluate their slots and
// print as [a, b, c].
func (i *Interpreter) render(ctx context.Context, val ast.Value, scope *runtime.Scope, frame *runtime.Frame) (string, error) {
	return i.renderValue(ctx, val, scope, frame, make(map[ast.Indexable]bool))
}

// renderValue tracks the lists on the current path in active so a list that
// contains itself prints as a placeholder.
func (i *Interpreter) renderValue(ctx context.Context, val ast.Value, scope *runtime.Scope, frame *runtime.Frame, active map[ast.Indexable]bool) (string, error) {
	if text, ok := ast.Stringify(val); ok {
		return text, nil
	}
	list, ok := val.(ast.Indexable)
	if !ok {
		return ast.TypeName(val), nil
	}
	if active[list] {
		return cyclePlaceholder, nil
	}
	active[list] = true
	defer delete(active, list)

	items, err := i.ListValues(ctx, list, scope, frame)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(items))
	for idx, item := range items {
		text, err := i.renderValue(ctx, item, scope, frame, active)
		if err != nil {
			return "", err
		}
		parts[idx] = text
	}
	return "[" + strings.Join(parts, ", ") + "]", nil
}
