package runtime

import (
	"testing"

	"yaksok/interpreter-go/pkg/ast"
	"yaksok/interpreter-go/pkg/yaksokerr"
)

func TestInvokeReachesNearestHandler(t *testing.T) {
	outerRunning, innerRunning := true, true
	outer := NewFrame(nil, nil)
	outer.On(EventBreak, BreakHandler(&outerRunning))
	inner := NewFrame(nil, NewFrame(nil, outer))
	inner.On(EventBreak, BreakHandler(&innerRunning))
	leaf := NewFrame(nil, NewFrame(nil, inner))

	handled, err := leaf.Invoke(EventBreak)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if handled != inner {
		t.Fatalf("expected inner frame to handle the event")
	}
	if innerRunning || !outerRunning {
		t.Fatalf("expected only the inner flag cleared, got inner=%v outer=%v", innerRunning, outerRunning)
	}
}

func TestInvokeWithoutHandler(t *testing.T) {
	frame := NewFrame(nil, NewFrame(nil, nil))
	_, err := frame.Invoke(EventReturnValue, ast.NewNumber(1))
	if !yaksokerr.HasKind(err, yaksokerr.EventNotFound) {
		t.Fatalf("expected EVENT_NOT_FOUND, got %v", err)
	}
	var nilFrame *Frame
	if _, err := nilFrame.Invoke(EventBreak); !yaksokerr.HasKind(err, yaksokerr.EventNotFound) {
		t.Fatalf("nil frame: expected EVENT_NOT_FOUND, got %v", err)
	}
}

func TestCaptureReturn(t *testing.T) {
	var slot ast.Value
	frame := NewFrame(nil, nil)
	frame.On(EventReturnValue, ReturnHandler(&slot))
	if _, err := NewFrame(nil, frame).Invoke(EventReturnValue, ast.NewNumber(5)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n, ok := slot.(*ast.Number); !ok || n.Value != 5 {
		t.Fatalf("unexpected slot %#v", slot)
	}
	if frame.Depth() != 1 {
		t.Fatalf("depth = %d", frame.Depth())
	}
}

func TestScopeLookupAndAssignment(t *testing.T) {
	global := NewScope(nil, nil)
	global.SetVariable("a", ast.NewNumber(1))
	child := NewScope(global, map[string]ast.Value{"b": ast.NewString("x")})

	if v, err := child.GetVariable("a"); err != nil || v.(*ast.Number).Value != 1 {
		t.Fatalf("unexpected lookup %v %v", v, err)
	}
	child.SetVariable("a", ast.NewNumber(2))
	if v, _ := global.GetVariable("a"); v.(*ast.Number).Value != 2 {
		t.Fatalf("assignment should update the defining scope")
	}
	child.SetVariable("c", ast.NewBoolean(true))
	if _, err := global.GetVariable("c"); !yaksokerr.HasKind(err, yaksokerr.NotDefinedVariable) {
		t.Fatalf("new binding must stay local, got %v", err)
	}
	if got := child.Keys(); len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Fatalf("unexpected keys %v", got)
	}
}

func TestScopeFunctions(t *testing.T) {
	global := NewScope(nil, nil)
	fn := ast.Fn("더하기")
	global.SetFunction("더하기", fn)
	child := NewScope(global, nil)
	got, err := child.GetFunction("더하기")
	if err != nil || got != fn {
		t.Fatalf("unexpected function lookup %v %v", got, err)
	}
	if _, err := child.GetFunction("빼기"); !yaksokerr.HasKind(err, yaksokerr.FunctionNotFound) {
		t.Fatalf("expected FUNCTION_NOT_FOUND, got %v", err)
	}
	if names := global.Functions(); len(names) != 1 || names[0] != "더하기" {
		t.Fatalf("unexpected function names %v", names)
	}
}
