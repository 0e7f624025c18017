package ast

import (
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/oarkflow/json"
)

type Number struct {
	nodeImpl
	valueMarker

	Value float64 `json:"value"`
}

func NewNumber(value float64) *Number {
	return &Number{nodeImpl: newNodeImpl(NodeNumber), Value: value}
}

type String struct {
	nodeImpl
	valueMarker

	Value string `json:"value"`
}

func NewString(value string) *String {
	return &String{nodeImpl: newNodeImpl(NodeString), Value: value}
}

type Boolean struct {
	nodeImpl
	valueMarker

	Value bool `json:"value"`
}

func NewBoolean(value bool) *Boolean {
	return &Boolean{nodeImpl: newNodeImpl(NodeBoolean), Value: value}
}

// ListSlot is one element position of a List. A slot holds either an expression
// that is evaluated on every read, or a value frozen in place by an index write.
type ListSlot struct {
	Node         Evaluatable
	Materialized bool
}

// List keeps its elements as unevaluated slots. Reads evaluate every slot; an
// index write replaces a single slot with a materialized value.
type List struct {
	nodeImpl
	valueMarker

	mu    sync.RWMutex
	slots []ListSlot
}

func NewList(items ...Evaluatable) *List {
	slots := make([]ListSlot, len(items))
	for i, item := range items {
		slots[i] = ListSlot{Node: item}
	}
	return &List{nodeImpl: newNodeImpl(NodeList), slots: slots}
}

func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.slots)
}

// Slots returns a snapshot of the slot arena.
func (l *List) Slots() []ListSlot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]ListSlot, len(l.slots))
	copy(out, l.slots)
	return out
}

// SetSlotValue freezes the zero-based position pos to value. Callers validate pos.
func (l *List) SetSlotValue(pos int, value Value) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.slots[pos] = ListSlot{Node: value, Materialized: true}
}

func (l *List) MarshalJSON() ([]byte, error) {
	slots := l.Slots()
	items := make([]Evaluatable, len(slots))
	for i, slot := range slots {
		items[i] = slot.Node
	}
	return json.Marshal(struct {
		Type   NodeType      `json:"type"`
		Items  []Evaluatable `json:"items"`
		Config Config        `json:"config,omitempty"`
	}{Type: l.Type, Items: items, Config: l.Config})
}

// FormatNumber renders a number the way the language prints it: integers carry
// no fraction and very large or very small magnitudes switch to exponent form.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		digits := strings.TrimLeft(exp[1:], "0")
		if digits == "" {
			digits = "0"
		}
		return mantissa + "e" + exp[:1] + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Equal compares raw contents. Values of different variants are never equal and
// lists compare by identity.
func Equal(a, b Value) bool {
	switch l := a.(type) {
	case *Number:
		r, ok := b.(*Number)
		return ok && l.Value == r.Value
	case *String:
		r, ok := b.(*String)
		return ok && l.Value == r.Value
	case *Boolean:
		r, ok := b.(*Boolean)
		return ok && l.Value == r.Value
	case *List:
		r, ok := b.(*List)
		return ok && l == r
	}
	return false
}

// Stringify returns the raw text of a scalar value. Lists need evaluation and
// are rendered by the interpreter.
func Stringify(v Value) (string, bool) {
	switch v := v.(type) {
	case *Number:
		return FormatNumber(v.Value), true
	case *String:
		return v.Value, true
	case *Boolean:
		return strconv.FormatBool(v.Value), true
	}
	return "", false
}

// TypeName names a value's variant for diagnostics.
func TypeName(v Node) string {
	if v == nil {
		return "nothing"
	}
	return string(v.NodeType())
}
