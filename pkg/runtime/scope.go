package runtime

import (
	"sort"
	"sync"

	"yaksok/interpreter-go/pkg/ast"
	"yaksok/interpreter-go/pkg/yaksokerr"
)

// Scope provides lexical scoping for variables and declared functions.
type Scope struct {
	mu        sync.RWMutex
	parent    *Scope
	variables map[string]ast.Value
	functions map[string]ast.Function
}

// NewScope creates a scope under parent seeded with initial bindings.
func NewScope(parent *Scope, initial map[string]ast.Value) *Scope {
	vars := make(map[string]ast.Value, len(initial))
	for k, v := range initial {
		vars[k] = v
	}
	return &Scope{
		parent:    parent,
		variables: vars,
		functions: make(map[string]ast.Function),
	}
}

// Parent exposes the lexical parent (nil when global).
func (s *Scope) Parent() *Scope {
	return s.parent
}

// GetVariable searches outward through the scope chain.
func (s *Scope) GetVariable(name string) (ast.Value, error) {
	for sc := s; sc != nil; sc = sc.parent {
		sc.mu.RLock()
		v, ok := sc.variables[name]
		sc.mu.RUnlock()
		if ok {
			return v, nil
		}
	}
	return nil, yaksokerr.New(yaksokerr.NotDefinedVariable, map[string]any{"name": name})
}

// SetVariable updates the nearest scope that already binds name, otherwise it
// defines name here.
func (s *Scope) SetVariable(name string, value ast.Value) {
	for sc := s; sc != nil; sc = sc.parent {
		sc.mu.Lock()
		if _, ok := sc.variables[name]; ok {
			sc.variables[name] = value
			sc.mu.Unlock()
			return
		}
		sc.mu.Unlock()
	}
	s.DefineVariable(name, value)
}

// DefineVariable inserts or shadows a binding in this scope.
func (s *Scope) DefineVariable(name string, value ast.Value) {
	s.mu.Lock()
	s.variables[name] = value
	s.mu.Unlock()
}

func (s *Scope) GetFunction(name string) (ast.Function, error) {
	for sc := s; sc != nil; sc = sc.parent {
		sc.mu.RLock()
		fn, ok := sc.functions[name]
		sc.mu.RUnlock()
		if ok {
			return fn, nil
		}
	}
	return nil, yaksokerr.New(yaksokerr.FunctionNotFound, map[string]any{"name": name})
}

func (s *Scope) SetFunction(name string, fn ast.Function) {
	s.mu.Lock()
	s.functions[name] = fn
	s.mu.Unlock()
}

// Keys returns this scope's variable names in sorted order.
func (s *Scope) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.variables))
	for k := range s.variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Functions returns the names of functions declared directly in this scope, sorted.
func (s *Scope) Functions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.functions))
	for k := range s.functions {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
