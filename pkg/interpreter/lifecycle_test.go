package interpreter

import (
	"context"
	"io"
	goruntime "runtime"
	"testing"
	"time"

	"yaksok/interpreter-go/pkg/ast"
	"yaksok/interpreter-go/pkg/ffi"
)

func TestCloseReleasesOwnedExprRuntime(t *testing.T) {
	program := ast.Blk(
		ast.FFI("더하기", ffi.ExprTag, "a + b", "a", "b"),
		ast.Out(ast.Call("더하기", ast.Arg("a", ast.Num(1)), ast.Arg("b", ast.Num(2)))),
	)
	baseline := goruntime.NumGoroutine()
	for i := 0; i < 50; i++ {
		interp := New(WithStdout(io.Discard), WithLogger(quietLogger()))
		if err := interp.ExecuteProgram(context.Background(), program); err != nil {
			t.Fatalf("program failed: %v", err)
		}
		interp.Close()
		interp.Close()
	}
	deadline := time.Now().Add(2 * time.Second)
	for goruntime.NumGoroutine() > baseline+2 {
		if time.Now().After(deadline) {
			t.Fatalf("goroutines grew from %d to %d", baseline, goruntime.NumGoroutine())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSuppliedExprRuntimeIsNotOwned(t *testing.T) {
	rt, err := ffi.NewExprRuntime(16)
	if err != nil {
		t.Fatalf("NewExprRuntime: %v", err)
	}
	defer rt.Close()

	for i := 0; i < 2; i++ {
		interp, out := newTestInterpreter(WithForeignRuntime(ffi.ExprTag, rt))
		if interp.expr != nil {
			t.Fatalf("interpreter should not build its own expr runtime")
		}
		err := runProgram(t, interp,
			ast.FFI("곱하기", ffi.ExprTag, "a * b", "a", "b"),
			ast.Out(ast.Call("곱하기", ast.Arg("a", ast.Num(6)), ast.Arg("b", ast.Num(7)))),
		)
		interp.Close()
		if err != nil {
			t.Fatalf("program failed: %v", err)
		}
		if got := out.String(); got != "42\n" {
			t.Fatalf("output = %q", got)
		}
	}
}
