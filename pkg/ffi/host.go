package ffi

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// HostFunc is a Go function callable from a yaksok program.
type HostFunc func(ctx context.Context, args []Arg) (any, error)

// HostRuntime dispatches foreign code to registered Go functions. The code
// text names the function.
type HostRuntime struct {
	mu    sync.RWMutex
	funcs map[string]HostFunc
}

func NewHostRuntime() *HostRuntime {
	return &HostRuntime{funcs: make(map[string]HostFunc)}
}

func (h *HostRuntime) Register(name string, fn HostFunc) {
	h.mu.Lock()
	h.funcs[name] = fn
	h.mu.Unlock()
}

func (h *HostRuntime) Run(ctx context.Context, code string, args []Arg) (any, error) {
	name := strings.TrimSpace(code)
	h.mu.RLock()
	fn, ok := h.funcs[name]
	h.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("host function %q is not registered", name)
	}
	return fn(ctx, args)
}
