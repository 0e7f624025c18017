package ast

import "yaksok/interpreter-go/pkg/yaksokerr"

// Non-executable pieces. A Block may contain EOL markers; anything else here
// inside a Block is a malformed tree.

type EOL struct {
	nodeImpl
}

func NewEOL() *EOL { return &EOL{nodeImpl: newNodeImpl(NodeEOL)} }

type Identifier struct {
	nodeImpl

	Name string `json:"name"`
}

func NewIdentifier(name string) *Identifier {
	return &Identifier{nodeImpl: newNodeImpl(NodeIdentifier), Name: name}
}

type Keyword struct {
	nodeImpl

	Word string `json:"word"`
}

func NewKeyword(word string) *Keyword {
	return &Keyword{nodeImpl: newNodeImpl(NodeKeyword), Word: word}
}

// Expressions.

type Variable struct {
	nodeImpl
	evaluatableMarker

	Name string `json:"name"`
}

func NewVariable(name string) *Variable {
	return &Variable{nodeImpl: newNodeImpl(NodeVariable), Name: name}
}

// ValueGroup is a parenthesized expression.
type ValueGroup struct {
	nodeImpl
	evaluatableMarker

	Value Evaluatable `json:"value"`
}

func NewValueGroup(value Evaluatable) *ValueGroup {
	return &ValueGroup{nodeImpl: newNodeImpl(NodeValueGroup), Value: value}
}

type BinaryCalculation struct {
	nodeImpl
	evaluatableMarker

	Left     Evaluatable `json:"left"`
	Operator Operator    `json:"operator"`
	Right    Evaluatable `json:"right"`
}

func NewBinaryCalculation(left Evaluatable, operator Operator, right Evaluatable) *BinaryCalculation {
	return &BinaryCalculation{nodeImpl: newNodeImpl(NodeBinaryCalculation), Left: left, Operator: operator, Right: right}
}

// EvaluatableSequence is a comma sequence. It evaluates to its last item.
type EvaluatableSequence struct {
	nodeImpl
	evaluatableMarker

	Items []Evaluatable `json:"items"`
}

// NewEvaluatableSequence joins two pieces into one flat sequence. Nested
// sequences are spliced in place.
func NewEvaluatableSequence(a, b Node) (*EvaluatableSequence, error) {
	left, err := sequenceItems(a)
	if err != nil {
		return nil, err
	}
	right, err := sequenceItems(b)
	if err != nil {
		return nil, err
	}
	items := make([]Evaluatable, 0, len(left)+len(right))
	items = append(items, left...)
	items = append(items, right...)
	return &EvaluatableSequence{nodeImpl: newNodeImpl(NodeEvaluatableSequence), Items: items}, nil
}

func sequenceItems(n Node) ([]Evaluatable, error) {
	switch n := n.(type) {
	case *EvaluatableSequence:
		return n.Items, nil
	case Evaluatable:
		return []Evaluatable{n}, nil
	}
	return nil, yaksokerr.New(yaksokerr.InvalidTypeForEvaluatableSequence, map[string]any{"piece": TypeName(n)})
}

// Indexing wraps the index expression of an index fetch.
type Indexing struct {
	nodeImpl
	evaluatableMarker

	Index Evaluatable `json:"index"`
}

func NewIndexing(index Evaluatable) *Indexing {
	return &Indexing{nodeImpl: newNodeImpl(NodeIndexing), Index: index}
}

type IndexFetch struct {
	nodeImpl
	evaluatableMarker

	Target Evaluatable `json:"target"`
	Index  Evaluatable `json:"index"`
}

func NewIndexFetch(target, index Evaluatable) *IndexFetch {
	return &IndexFetch{nodeImpl: newNodeImpl(NodeIndexFetch), Target: target, Index: index}
}

// Statements.

type SetToIndex struct {
	nodeImpl
	executableMarker

	Target *IndexFetch `json:"target"`
	Value  Evaluatable `json:"value"`
}

func NewSetToIndex(target *IndexFetch, value Evaluatable) *SetToIndex {
	return &SetToIndex{nodeImpl: newNodeImpl(NodeSetToIndex), Target: target, Value: value}
}

type Block struct {
	nodeImpl
	executableMarker

	Children []Node `json:"children"`
}

func NewBlock(children ...Node) *Block {
	return &Block{nodeImpl: newNodeImpl(NodeBlock), Children: children}
}

// Condition runs Body when Condition evaluates to true. There is no else branch.
type Condition struct {
	nodeImpl
	executableMarker

	Condition Evaluatable `json:"condition"`
	Body      *Block      `json:"body"`
}

func NewCondition(condition Evaluatable, body *Block) *Condition {
	return &Condition{nodeImpl: newNodeImpl(NodeCondition), Condition: condition, Body: body}
}

// Repeat runs Body until a Break inside it fires.
type Repeat struct {
	nodeImpl
	executableMarker

	Body *Block `json:"body"`
}

func NewRepeat(body *Block) *Repeat {
	return &Repeat{nodeImpl: newNodeImpl(NodeRepeat), Body: body}
}

type Break struct {
	nodeImpl
	executableMarker
}

func NewBreak() *Break { return &Break{nodeImpl: newNodeImpl(NodeBreak)} }

// DeclareVariable binds Name to Value. Declaring ReturnIdentifier hands the
// value to the enclosing function instead.
type DeclareVariable struct {
	nodeImpl
	evaluatableMarker

	Name  string      `json:"name"`
	Value Evaluatable `json:"value"`
}

func NewDeclareVariable(name string, value Evaluatable) *DeclareVariable {
	return &DeclareVariable{nodeImpl: newNodeImpl(NodeDeclareVariable), Name: name, Value: value}
}

type Print struct {
	nodeImpl
	executableMarker

	Value Evaluatable `json:"value"`
}

func NewPrint(value Evaluatable) *Print {
	return &Print{nodeImpl: newNodeImpl(NodePrint), Value: value}
}

// Functions.

type FunctionDeclaration struct {
	nodeImpl
	functionMarker

	Name string `json:"name,omitempty"`
	Body *Block `json:"body"`
}

func NewFunctionDeclaration(name string, body *Block) *FunctionDeclaration {
	return &FunctionDeclaration{nodeImpl: newNodeImpl(NodeFunctionDeclaration), Name: name, Body: body}
}

// FunctionName prefers the typed name and falls back to config["name"].
func (f *FunctionDeclaration) FunctionName() string {
	if f.Name != "" {
		return f.Name
	}
	return f.Config.String("name")
}

// DeclareFFI declares a function whose body is Code run by the foreign runtime
// selected by Runtime.
type DeclareFFI struct {
	nodeImpl
	functionMarker

	Name    string   `json:"name,omitempty"`
	Runtime string   `json:"runtime"`
	Code    string   `json:"code"`
	Params  []string `json:"params"`
}

func NewDeclareFFI(name, runtime, code string, params ...string) *DeclareFFI {
	return &DeclareFFI{
		nodeImpl: newNodeImpl(NodeDeclareFFI),
		Name:     name,
		Runtime:  runtime,
		Code:     code,
		Params:   params,
	}
}

func (f *DeclareFFI) FunctionName() string {
	if f.Name != "" {
		return f.Name
	}
	return f.Config.String("name")
}

// Argument is a named call argument. Value is a plain Node so a malformed tree
// can carry something that does not evaluate.
type Argument struct {
	Name  string `json:"name"`
	Value Node   `json:"value"`
}

type FunctionInvoke struct {
	nodeImpl
	evaluatableMarker

	Name string     `json:"name,omitempty"`
	Args []Argument `json:"args"`
}

func NewFunctionInvoke(name string, args ...Argument) *FunctionInvoke {
	return &FunctionInvoke{nodeImpl: newNodeImpl(NodeFunctionInvoke), Name: name, Args: args}
}

func (f *FunctionInvoke) FunctionName() string {
	if f.Name != "" {
		return f.Name
	}
	return f.Config.String("name")
}
