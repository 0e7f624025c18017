package ast

type NodeType string

const (
	NodeNumber              NodeType = "Number"
	NodeString              NodeType = "String"
	NodeBoolean             NodeType = "Boolean"
	NodeList                NodeType = "List"
	NodeEOL                 NodeType = "EOL"
	NodeIdentifier          NodeType = "Identifier"
	NodeKeyword             NodeType = "Keyword"
	NodeVariable            NodeType = "Variable"
	NodeValueGroup          NodeType = "ValueGroup"
	NodeBinaryCalculation   NodeType = "BinaryCalculation"
	NodeEvaluatableSequence NodeType = "EvaluatableSequence"
	NodeIndexing            NodeType = "Indexing"
	NodeIndexFetch          NodeType = "IndexFetch"
	NodeSetToIndex          NodeType = "SetToIndex"
	NodeBlock               NodeType = "Block"
	NodeCondition           NodeType = "Condition"
	NodeRepeat              NodeType = "Repeat"
	NodeBreak               NodeType = "Break"
	NodeDeclareVariable     NodeType = "DeclareVariable"
	NodePrint               NodeType = "Print"
	NodeFunctionDeclaration NodeType = "FunctionDeclaration"
	NodeFunctionInvoke      NodeType = "FunctionInvoke"
	NodeDeclareFFI          NodeType = "DeclareFFI"

	NodePlusOperator               NodeType = "PlusOperator"
	NodeMinusOperator              NodeType = "MinusOperator"
	NodeMultiplyOperator           NodeType = "MultiplyOperator"
	NodeDivideOperator             NodeType = "DivideOperator"
	NodeEqualOperator              NodeType = "EqualOperator"
	NodeAndOperator                NodeType = "AndOperator"
	NodeGreaterThanOperator        NodeType = "GreaterThanOperator"
	NodeLessThanOperator           NodeType = "LessThanOperator"
	NodeGreaterThanOrEqualOperator NodeType = "GreaterThanOrEqualOperator"
	NodeLessThanOrEqualOperator    NodeType = "LessThanOrEqualOperator"
)

// ReturnIdentifier is the variable name whose assignment hands a value back to the caller.
const ReturnIdentifier = "결과"

// Config carries metadata attached to a node after construction.
type Config map[string]any

// String returns the string stored under key, or "".
func (c Config) String(key string) string {
	if c == nil {
		return ""
	}
	s, _ := c[key].(string)
	return s
}

type Node interface {
	NodeType() NodeType
	NodeConfig() Config
	SetConfig(Config)
	isNode()
}

type nodeImpl struct {
	Type   NodeType `json:"type"`
	Config Config   `json:"config,omitempty"`
}

func newNodeImpl(kind NodeType) nodeImpl {
	return nodeImpl{Type: kind}
}

func (n *nodeImpl) NodeType() NodeType   { return n.Type }
func (n *nodeImpl) NodeConfig() Config   { return n.Config }
func (n *nodeImpl) SetConfig(cfg Config) { n.Config = cfg }
func (*nodeImpl) isNode()                {}

// Capability tiers. Every Value is Evaluatable and every Evaluatable is Executable.

type Executable interface {
	Node
	executableNode()
}

type executableMarker struct{}

func (executableMarker) executableNode() {}

type Evaluatable interface {
	Executable
	evaluatableNode()
}

type evaluatableMarker struct{ executableMarker }

func (evaluatableMarker) evaluatableNode() {}

type Value interface {
	Evaluatable
	valueNode()
}

type valueMarker struct{ evaluatableMarker }

func (valueMarker) valueNode() {}

// Indexable values expose their element slots for position-based reads.
type Indexable interface {
	Value
	Len() int
	Slots() []ListSlot
}

// SettableIndexable values additionally accept position-based writes.
type SettableIndexable interface {
	Indexable
	SetSlotValue(pos int, value Value)
}

// Function is anything a scope can bind as a callable name.
type Function interface {
	Executable
	FunctionName() string
	functionNode()
}

type functionMarker struct{ executableMarker }

func (functionMarker) functionNode() {}
