package yaksokerr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error is the tagged condition every engine failure is reported as.
type Error struct {
	Kind Kind
	Data map[string]any
	Err  error
}

// New builds an error of the given kind. data may be nil.
func New(kind Kind, data map[string]any) *Error {
	return &Error{Kind: kind, Data: data}
}

// Wrap attaches a cause to a kind.
func Wrap(kind Kind, err error, data map[string]any) *Error {
	return &Error{Kind: kind, Data: data, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if d, ok := catalogue[e.Kind]; ok {
		b.WriteString(": ")
		b.WriteString(d.Description)
	}
	if len(e.Data) > 0 {
		keys := make([]string, 0, len(e.Data))
		for k := range e.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Data[k])
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind so errors.Is(err, yaksokerr.New(kind, nil)) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Category reports the kind's category, or "" for unknown kinds.
func (e *Error) Category() Category {
	return catalogue[e.Kind].Category
}

// KindOf extracts the kind from anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var ye *Error
	if errors.As(err, &ye) {
		return ye.Kind, true
	}
	return "", false
}

// HasKind reports whether err carries kind.
func HasKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
