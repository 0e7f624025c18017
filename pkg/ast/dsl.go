package ast

import "fmt"

// Literal helpers.

func Num(value float64) *Number {
	return NewNumber(value)
}

func Str(value string) *String {
	return NewString(value)
}

func Bool(value bool) *Boolean {
	return NewBoolean(value)
}

func ListOf(items ...Evaluatable) *List {
	return NewList(items...)
}

func Var(name string) *Variable {
	return NewVariable(name)
}

// Expression helpers.

// Bin panics on an unknown operator symbol; it is meant for building trees in code.
func Bin(left Evaluatable, symbol string, right Evaluatable) *BinaryCalculation {
	op, ok := OperatorFor(symbol)
	if !ok {
		panic(fmt.Sprintf("ast: unknown operator %q", symbol))
	}
	return NewBinaryCalculation(left, op, right)
}

func Group(value Evaluatable) *ValueGroup {
	return NewValueGroup(value)
}

func Index(target Evaluatable, index Evaluatable) *IndexFetch {
	return NewIndexFetch(target, NewIndexing(index))
}

func SetIndex(target Evaluatable, index Evaluatable, value Evaluatable) *SetToIndex {
	return NewSetToIndex(Index(target, index), value)
}

// Statement helpers.

func Blk(children ...Node) *Block {
	return NewBlock(children...)
}

func If(condition Evaluatable, body ...Node) *Condition {
	return NewCondition(condition, NewBlock(body...))
}

func Loop(body ...Node) *Repeat {
	return NewRepeat(NewBlock(body...))
}

func Let(name string, value Evaluatable) *DeclareVariable {
	return NewDeclareVariable(name, value)
}

// Return declares the reserved return identifier.
func Return(value Evaluatable) *DeclareVariable {
	return NewDeclareVariable(ReturnIdentifier, value)
}

func Out(value Evaluatable) *Print {
	return NewPrint(value)
}

// Function helpers.

func Fn(name string, body ...Node) *FunctionDeclaration {
	return NewFunctionDeclaration(name, NewBlock(body...))
}

func FFI(name, runtime, code string, params ...string) *DeclareFFI {
	return NewDeclareFFI(name, runtime, code, params...)
}

func Arg(name string, value Node) Argument {
	return Argument{Name: name, Value: value}
}

func Call(name string, args ...Argument) *FunctionInvoke {
	return NewFunctionInvoke(name, args...)
}
