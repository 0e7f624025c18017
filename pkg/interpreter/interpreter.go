package interpreter

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/oarkflow/json"
	"github.com/oarkflow/log"

	"yaksok/interpreter-go/pkg/ast"
	"yaksok/interpreter-go/pkg/ffi"
	"yaksok/interpreter-go/pkg/runtime"
	"yaksok/interpreter-go/pkg/yaksokerr"
)

// ListEvaluation selects how list slots are evaluated on an index read.
type ListEvaluation string

const (
	Sequential ListEvaluation = "sequential"
	Concurrent ListEvaluation = "concurrent"
)

// Interpreter drives execution of yaksok AST nodes.
type Interpreter struct {
	global         *runtime.Scope
	stdoutMu       sync.Mutex
	stdout         io.Writer
	logger         *log.Logger
	runtimes       *ffi.Registry
	host           *ffi.HostRuntime
	listEvaluation ListEvaluation
	// expr is set when New built the expr runtime itself; Close releases it.
	expr *ffi.ExprRuntime
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithStdout redirects program output.
func WithStdout(w io.Writer) Option {
	return func(i *Interpreter) {
		i.stdout = w
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(i *Interpreter) {
		i.logger = logger
	}
}

// WithForeignRuntime makes rt available to 번역 declarations tagged tag.
func WithForeignRuntime(tag string, rt ffi.Runtime) Option {
	return func(i *Interpreter) {
		i.runtimes.Register(tag, rt)
	}
}

// WithHostFunction registers fn under name in the built-in Go runtime.
func WithHostFunction(name string, fn ffi.HostFunc) Option {
	return func(i *Interpreter) {
		i.host.Register(name, fn)
	}
}

func WithListEvaluation(mode ListEvaluation) Option {
	return func(i *Interpreter) {
		i.listEvaluation = mode
	}
}

// New returns an interpreter with an empty global scope. The expr and Go
// foreign runtimes are registered unless an option replaces them. Callers
// that let New build the expr runtime must Close the interpreter.
func New(opts ...Option) *Interpreter {
	i := &Interpreter{
		global:         runtime.NewScope(nil, nil),
		stdout:         os.Stdout,
		logger:         &log.DefaultLogger,
		runtimes:       ffi.NewRegistry(),
		host:           ffi.NewHostRuntime(),
		listEvaluation: Sequential,
	}
	i.runtimes.Register(ffi.HostTag, i.host)
	for _, opt := range opts {
		opt(i)
	}
	if _, err := i.runtimes.Lookup(ffi.ExprTag); err != nil {
		if rt, err := ffi.NewExprRuntime(1024); err == nil {
			i.expr = rt
			i.runtimes.Register(ffi.ExprTag, rt)
		} else {
			i.logger.Warn().Err(err).Msg("expr runtime unavailable")
		}
	}
	return i
}

// Close releases the runtimes New created. Runtimes passed in through
// WithForeignRuntime stay open. Close is safe to call more than once.
func (i *Interpreter) Close() {
	if i.expr != nil {
		i.expr.Close()
		i.expr = nil
	}
}

// GlobalScope returns the interpreter's global scope.
func (i *Interpreter) GlobalScope() *runtime.Scope {
	return i.global
}

// ExecuteProgram runs program in the global scope with no enclosing frame.
func (i *Interpreter) ExecuteProgram(ctx context.Context, program ast.Executable) error {
	_, err := i.Execute(ctx, program, i.global, nil)
	return err
}

// Execute runs node against scope. Nodes that produce no value return a nil
// value. A node kind without an execution rule is a programming error and panics.
func (i *Interpreter) Execute(ctx context.Context, node ast.Executable, scope *runtime.Scope, frame *runtime.Frame) (ast.Value, error) {
	if node == nil {
		return nil, yaksokerr.New(yaksokerr.CannotParse, map[string]any{"piece": "null"})
	}
	switch n := node.(type) {
	case ast.Value:
		return n, nil
	case *ast.Variable:
		return scope.GetVariable(n.Name)
	case *ast.ValueGroup:
		return i.evaluateValueGroup(ctx, n, scope, frame)
	case *ast.BinaryCalculation:
		return i.evaluateBinaryCalculation(ctx, n, scope, frame)
	case *ast.EvaluatableSequence:
		return i.evaluateSequence(ctx, n, scope, frame)
	case *ast.Indexing:
		return i.Evaluate(ctx, n.Index, scope, frame)
	case *ast.IndexFetch:
		return i.evaluateIndexFetch(ctx, n, scope, frame)
	case *ast.DeclareVariable:
		return i.evaluateDeclareVariable(ctx, n, scope, frame)
	case *ast.FunctionInvoke:
		return i.evaluateFunctionInvoke(ctx, n, scope, frame)
	case *ast.Block:
		return nil, i.executeBlock(ctx, n, scope, frame)
	case *ast.Condition:
		return nil, i.executeCondition(ctx, n, scope, frame)
	case *ast.Repeat:
		return nil, i.executeRepeat(ctx, n, scope, frame)
	case *ast.Break:
		return nil, i.executeBreak(n, frame)
	case *ast.Print:
		return nil, i.executePrint(ctx, n, scope, frame)
	case *ast.SetToIndex:
		return i.executeSetToIndex(ctx, n, scope, frame)
	case *ast.FunctionDeclaration:
		return nil, i.declareFunction(n, scope)
	case *ast.DeclareFFI:
		return nil, i.declareFunction(n, scope)
	default:
		panic(fmt.Sprintf("%s has no execute method", node.NodeType()))
	}
}

// Evaluate executes node and guarantees a value on success.
func (i *Interpreter) Evaluate(ctx context.Context, node ast.Evaluatable, scope *runtime.Scope, frame *runtime.Frame) (ast.Value, error) {
	val, err := i.Execute(ctx, node, scope, frame)
	if err != nil {
		return nil, err
	}
	if val == nil {
		panic(fmt.Sprintf("%s evaluated to no value", node.NodeType()))
	}
	return val, nil
}

func (i *Interpreter) writeLine(text string) error {
	i.stdoutMu.Lock()
	defer i.stdoutMu.Unlock()
	_, err := io.WriteString(i.stdout, text+"\n")
	return err
}

// serializeNode renders a node for error payloads.
func serializeNode(node ast.Node) string {
	if node == nil {
		return "null"
	}
	data, err := json.Marshal(node)
	if err != nil {
		return fmt.Sprintf("{\"type\":%q}", node.NodeType())
	}
	return string(data)
}
