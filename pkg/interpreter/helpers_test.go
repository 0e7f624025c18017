package interpreter

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/oarkflow/log"

	"yaksok/interpreter-go/pkg/ast"
	"yaksok/interpreter-go/pkg/yaksokerr"
)

func quietLogger() *log.Logger {
	return &log.Logger{Level: log.ErrorLevel, Writer: &log.IOWriter{Writer: io.Discard}}
}

func newTestInterpreter(opts ...Option) (*Interpreter, *bytes.Buffer) {
	out := &bytes.Buffer{}
	base := []Option{WithStdout(out), WithLogger(quietLogger())}
	return New(append(base, opts...)...), out
}

func outputLines(buf *bytes.Buffer) []string {
	text := strings.TrimSuffix(buf.String(), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func runProgram(t *testing.T, interp *Interpreter, statements ...ast.Node) error {
	t.Helper()
	return interp.ExecuteProgram(context.Background(), ast.Blk(statements...))
}

func mustRunOutput(t *testing.T, want []string, statements ...ast.Node) {
	t.Helper()
	interp, out := newTestInterpreter()
	if err := runProgram(t, interp, statements...); err != nil {
		t.Fatalf("program failed: %v", err)
	}
	if diff := cmp.Diff(want, outputLines(out)); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func expectKind(t *testing.T, err error, kind yaksokerr.Kind) *yaksokerr.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got no error", kind)
	}
	if !yaksokerr.HasKind(err, kind) {
		t.Fatalf("expected %s, got %v", kind, err)
	}
	var ye *yaksokerr.Error
	errors.As(err, &ye)
	return ye
}
