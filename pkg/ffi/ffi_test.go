package ffi

import (
	"context"
	"testing"

	"yaksok/interpreter-go/pkg/ast"
	"yaksok/interpreter-go/pkg/yaksokerr"
)

func TestToValue(t *testing.T) {
	n, err := ToValue(int64(4))
	if err != nil || n.(*ast.Number).Value != 4 {
		t.Fatalf("int64: %#v %v", n, err)
	}
	s, err := ToValue("a")
	if err != nil || s.(*ast.String).Value != "a" {
		t.Fatalf("string: %#v %v", s, err)
	}
	b, err := ToValue(true)
	if err != nil || !b.(*ast.Boolean).Value {
		t.Fatalf("bool: %#v %v", b, err)
	}
	none, err := ToValue(nil)
	if err != nil || none != nil {
		t.Fatalf("nil: %#v %v", none, err)
	}
	list, err := ToValue([]any{1, "x", []string{"y"}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	slots := list.(*ast.List).Slots()
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}
	if _, ok := slots[2].Node.(*ast.List); !ok {
		t.Fatalf("nested slice should become a list, got %#v", slots[2].Node)
	}
	if _, err := ToValue(map[string]any{}); !yaksokerr.HasKind(err, yaksokerr.FFIInvalidResult) {
		t.Fatalf("expected invalid result, got %v", err)
	}
	if _, err := ToValue([]any{nil}); !yaksokerr.HasKind(err, yaksokerr.FFIInvalidResult) {
		t.Fatalf("expected invalid result for nil element, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register("b", NewHostRuntime())
	reg.Register("a", NewHostRuntime())
	if tags := reg.Tags(); len(tags) != 2 || tags[0] != "a" {
		t.Fatalf("unexpected tags %v", tags)
	}
	if _, err := reg.Lookup("c"); !yaksokerr.HasKind(err, yaksokerr.FFIRuntimeNotFound) {
		t.Fatalf("expected runtime not found, got %v", err)
	}
}

func TestExprRuntime(t *testing.T) {
	rt, err := NewExprRuntime(16)
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	defer rt.Close()
	for i := 0; i < 3; i++ {
		out, err := rt.Run(context.Background(), "a * b", []Arg{{Name: "a", Value: 6.0}, {Name: "b", Value: 7.0}})
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		v, err := ToValue(out)
		if err != nil || v.(*ast.Number).Value != 42 {
			t.Fatalf("unexpected result %#v %v", out, err)
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := rt.Run(ctx, "1", nil); err == nil {
		t.Fatalf("expected cancelled context to fail")
	}
}

func TestHostRuntime(t *testing.T) {
	host := NewHostRuntime()
	host.Register("len", func(ctx context.Context, args []Arg) (any, error) {
		return len(args), nil
	})
	out, err := host.Run(context.Background(), " len ", []Arg{{Name: "x"}, {Name: "y"}})
	if err != nil || out != 2 {
		t.Fatalf("unexpected result %#v %v", out, err)
	}
	if _, err := host.Run(context.Background(), "missing", nil); err == nil {
		t.Fatalf("expected missing function error")
	}
}
