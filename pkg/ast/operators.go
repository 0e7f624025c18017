package ast

import (
	"math"
	"strings"

	"yaksok/interpreter-go/pkg/yaksokerr"
)

// Operator is a pure binary function over values.
type Operator interface {
	Node
	Symbol() string
	Apply(operands ...Value) (Value, error)
}

type operatorBase struct {
	nodeImpl
	Sym string `json:"symbol"`
}

func newOperatorBase(kind NodeType, symbol string) operatorBase {
	return operatorBase{nodeImpl: newNodeImpl(kind), Sym: symbol}
}

func (o *operatorBase) Symbol() string { return o.Sym }

var operatorConstructors = map[string]func() Operator{
	"+":  func() Operator { return NewPlusOperator() },
	"-":  func() Operator { return NewMinusOperator() },
	"*":  func() Operator { return NewMultiplyOperator() },
	"/":  func() Operator { return NewDivideOperator() },
	"=":  func() Operator { return NewEqualOperator() },
	"이고": func() Operator { return NewAndOperator() },
	">":  func() Operator { return NewGreaterThanOperator() },
	"<":  func() Operator { return NewLessThanOperator() },
	">=": func() Operator { return NewGreaterThanOrEqualOperator() },
	"<=": func() Operator { return NewLessThanOrEqualOperator() },
}

// OperatorFor returns a fresh operator node for a source symbol.
func OperatorFor(symbol string) (Operator, bool) {
	ctor, ok := operatorConstructors[symbol]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

// OperatorForType returns a fresh operator node for an operator node type.
func OperatorForType(kind NodeType) (Operator, bool) {
	for _, ctor := range operatorConstructors {
		if op := ctor(); op.NodeType() == kind {
			return op, true
		}
	}
	return nil, false
}

func binaryOperands(operands []Value) (Value, Value, error) {
	if len(operands) != 2 {
		return nil, nil, yaksokerr.New(yaksokerr.InvalidNumberOfOperands, map[string]any{"count": len(operands)})
	}
	return operands[0], operands[1], nil
}

func operandTypeError(kind yaksokerr.Kind, left, right Value) error {
	return yaksokerr.New(kind, map[string]any{"left": TypeName(left), "right": TypeName(right)})
}

func numberPair(left, right Value) (*Number, *Number, bool) {
	l, lok := left.(*Number)
	r, rok := right.(*Number)
	return l, r, lok && rok
}

type PlusOperator struct{ operatorBase }

func NewPlusOperator() *PlusOperator {
	return &PlusOperator{newOperatorBase(NodePlusOperator, "+")}
}

func (o *PlusOperator) Apply(operands ...Value) (Value, error) {
	left, right, err := binaryOperands(operands)
	if err != nil {
		return nil, err
	}
	if l, r, ok := numberPair(left, right); ok {
		return NewNumber(l.Value + r.Value), nil
	}
	if l, ok := left.(*String); ok {
		if text, ok := Stringify(right); ok {
			return NewString(l.Value + text), nil
		}
	}
	if r, ok := right.(*String); ok {
		if text, ok := Stringify(left); ok {
			return NewString(text + r.Value), nil
		}
	}
	return nil, operandTypeError(yaksokerr.InvalidTypeForPlusOperator, left, right)
}

type MinusOperator struct{ operatorBase }

func NewMinusOperator() *MinusOperator {
	return &MinusOperator{newOperatorBase(NodeMinusOperator, "-")}
}

func (o *MinusOperator) Apply(operands ...Value) (Value, error) {
	left, right, err := binaryOperands(operands)
	if err != nil {
		return nil, err
	}
	if l, r, ok := numberPair(left, right); ok {
		return NewNumber(l.Value - r.Value), nil
	}
	return nil, operandTypeError(yaksokerr.InvalidTypeForMinusOperator, left, right)
}

// MaxStringLength caps the byte length of a string built by repetition.
const MaxStringLength = 1<<29 - 24

type MultiplyOperator struct{ operatorBase }

func NewMultiplyOperator() *MultiplyOperator {
	return &MultiplyOperator{newOperatorBase(NodeMultiplyOperator, "*")}
}

func (o *MultiplyOperator) Apply(operands ...Value) (Value, error) {
	left, right, err := binaryOperands(operands)
	if err != nil {
		return nil, err
	}
	if l, r, ok := numberPair(left, right); ok {
		return NewNumber(l.Value * r.Value), nil
	}
	if l, ok := left.(*String); ok {
		if r, ok := right.(*Number); ok {
			if r.Value < 0 || math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
				return nil, yaksokerr.New(yaksokerr.InvalidRepeatCount, map[string]any{"count": FormatNumber(r.Value)})
			}
			if l.Value == "" {
				return NewString(""), nil
			}
			count := math.Trunc(r.Value)
			if float64(len(l.Value))*count > MaxStringLength {
				return nil, yaksokerr.New(yaksokerr.StringTooLong, map[string]any{
					"count": FormatNumber(r.Value),
					"limit": MaxStringLength,
				})
			}
			return NewString(strings.Repeat(l.Value, int(count))), nil
		}
	}
	return nil, operandTypeError(yaksokerr.InvalidTypeForMultiplyOperator, left, right)
}

type DivideOperator struct{ operatorBase }

func NewDivideOperator() *DivideOperator {
	return &DivideOperator{newOperatorBase(NodeDivideOperator, "/")}
}

func (o *DivideOperator) Apply(operands ...Value) (Value, error) {
	left, right, err := binaryOperands(operands)
	if err != nil {
		return nil, err
	}
	if l, r, ok := numberPair(left, right); ok {
		return NewNumber(l.Value / r.Value), nil
	}
	return nil, operandTypeError(yaksokerr.InvalidTypeForDivideOperator, left, right)
}

type EqualOperator struct{ operatorBase }

func NewEqualOperator() *EqualOperator {
	return &EqualOperator{newOperatorBase(NodeEqualOperator, "=")}
}

func (o *EqualOperator) Apply(operands ...Value) (Value, error) {
	left, right, err := binaryOperands(operands)
	if err != nil {
		return nil, err
	}
	return NewBoolean(Equal(left, right)), nil
}

type AndOperator struct{ operatorBase }

func NewAndOperator() *AndOperator {
	return &AndOperator{newOperatorBase(NodeAndOperator, "이고")}
}

func (o *AndOperator) Apply(operands ...Value) (Value, error) {
	left, right, err := binaryOperands(operands)
	if err != nil {
		return nil, err
	}
	l, lok := left.(*Boolean)
	r, rok := right.(*Boolean)
	if !lok || !rok {
		return nil, operandTypeError(yaksokerr.InvalidTypeForAndOperator, left, right)
	}
	return NewBoolean(l.Value && r.Value), nil
}

// comparison covers the four ordering operators; >= and <= report the same
// failure kind as their strict counterparts.
type comparison struct {
	operatorBase
	compare func(l, r float64) bool
	failure yaksokerr.Kind
}

func (o *comparison) Apply(operands ...Value) (Value, error) {
	left, right, err := binaryOperands(operands)
	if err != nil {
		return nil, err
	}
	if l, r, ok := numberPair(left, right); ok {
		return NewBoolean(o.compare(l.Value, r.Value)), nil
	}
	return nil, operandTypeError(o.failure, left, right)
}

type GreaterThanOperator struct{ comparison }

func NewGreaterThanOperator() *GreaterThanOperator {
	return &GreaterThanOperator{comparison{
		operatorBase: newOperatorBase(NodeGreaterThanOperator, ">"),
		compare:      func(l, r float64) bool { return l > r },
		failure:      yaksokerr.InvalidTypeForGreaterThanOperator,
	}}
}

type LessThanOperator struct{ comparison }

func NewLessThanOperator() *LessThanOperator {
	return &LessThanOperator{comparison{
		operatorBase: newOperatorBase(NodeLessThanOperator, "<"),
		compare:      func(l, r float64) bool { return l < r },
		failure:      yaksokerr.InvalidTypeForLessThanOperator,
	}}
}

type GreaterThanOrEqualOperator struct{ comparison }

func NewGreaterThanOrEqualOperator() *GreaterThanOrEqualOperator {
	return &GreaterThanOrEqualOperator{comparison{
		operatorBase: newOperatorBase(NodeGreaterThanOrEqualOperator, ">="),
		compare:      func(l, r float64) bool { return l >= r },
		failure:      yaksokerr.InvalidTypeForGreaterThanOperator,
	}}
}

type LessThanOrEqualOperator struct{ comparison }

func NewLessThanOrEqualOperator() *LessThanOrEqualOperator {
	return &LessThanOrEqualOperator{comparison{
		operatorBase: newOperatorBase(NodeLessThanOrEqualOperator, "<="),
		compare:      func(l, r float64) bool { return l <= r },
		failure:      yaksokerr.InvalidTypeForLessThanOperator,
	}}
}
