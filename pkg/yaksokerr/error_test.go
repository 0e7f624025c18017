package yaksokerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMessageIncludesKindAndSortedData(t *testing.T) {
	err := New(EventNotFound, map[string]any{"name": "break", "depth": 2})
	got := err.Error()
	if !strings.HasPrefix(got, "EVENT_NOT_FOUND: ") {
		t.Fatalf("unexpected prefix: %q", got)
	}
	if !strings.Contains(got, "(depth=2, name=break)") {
		t.Fatalf("expected sorted data in %q", got)
	}
}

func TestKindOfThroughWrapping(t *testing.T) {
	base := New(ListIndexMustBeNumber, nil)
	wrapped := fmt.Errorf("evaluating: %w", base)
	kind, ok := KindOf(wrapped)
	if !ok || kind != ListIndexMustBeNumber {
		t.Fatalf("KindOf = %q, %v", kind, ok)
	}
	if !errors.Is(wrapped, New(ListIndexMustBeNumber, nil)) {
		t.Fatalf("errors.Is should match by kind")
	}
	if errors.Is(wrapped, New(ListIndexOutOfRange, nil)) {
		t.Fatalf("errors.Is should not match a different kind")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(FFIRuntimeError, cause, map[string]any{"runtime": "expr"})
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause in chain")
	}
	if !strings.HasSuffix(err.Error(), ": boom") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if err.Category() != CategoryForeign {
		t.Fatalf("category = %q", err.Category())
	}
}

func TestEveryKindIsCatalogued(t *testing.T) {
	kinds := []Kind{
		CannotParse, FunctionMustHaveName, NotEvaluableExpression, InvalidTypeForEvaluatableSequence,
		EventNotFound, ExecutionCancelled,
		InvalidNumberOfOperands, InvalidTypeForPlusOperator, InvalidTypeForMinusOperator,
		InvalidTypeForMultiplyOperator, InvalidTypeForDivideOperator, InvalidTypeForAndOperator,
		InvalidTypeForGreaterThanOperator, InvalidTypeForLessThanOperator, InvalidRepeatCount, StringTooLong,
		InvalidTypeForCondition,
		ListIndexMustBeNumber, ListIndexMustBeGreaterThan0, ListIndexMustBeInteger, ListIndexOutOfRange,
		InvalidTypeForIndexFetch, InvalidSequenceTypeForIndexFetch, CircularList,
		NotDefinedVariable, FunctionNotFound,
		FFIRuntimeNotFound, FFIRuntimeError, FFIInvalidResult,
	}
	for _, k := range kinds {
		d, ok := Describe(k)
		if !ok || d.Description == "" || d.Category == "" {
			t.Fatalf("kind %s missing from catalogue", k)
		}
	}
}
