package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/oarkflow/json"
	"gopkg.in/yaml.v3"

	"yaksok/interpreter-go/pkg/ast"
)

// LoadDocument reads a JSON or YAML AST document and returns its root block.
func LoadDocument(path string) (*ast.Block, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("document: read %s: %w", path, err)
	}
	var block *ast.Block
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		block, err = DecodeJSON(data)
	case ".yml", ".yaml":
		block, err = DecodeYAML(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}
	if err != nil {
		return nil, fmt.Errorf("document: %s: %w", path, err)
	}
	return block, nil
}

// DecodeJSON decodes a JSON AST document.
func DecodeJSON(data []byte) (*ast.Block, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("document: parse json: %w", err)
	}
	return DecodeDocument(doc)
}

// DecodeYAML decodes a YAML AST document.
func DecodeYAML(data []byte) (*ast.Block, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("document: parse yaml: %w", err)
	}
	return DecodeDocument(doc)
}

// DecodeDocument turns a generic document into a program block. The root may
// be a Block node, any other single node, or a list of statements.
func DecodeDocument(doc any) (*ast.Block, error) {
	return decodeBody(doc, "document")
}

// DecodeNode decodes a single node map.
func DecodeNode(node map[string]any) (ast.Node, error) {
	return decodeNode(node)
}

func decodeNode(node map[string]any) (ast.Node, error) {
	typ, _ := node["type"].(string)
	n, err := decodeTyped(ast.NodeType(typ), node)
	if err != nil {
		return nil, err
	}
	if cfg, ok := asMap(node["config"]); ok {
		n.SetConfig(ast.Config(cfg))
	}
	return n, nil
}

func decodeTyped(typ ast.NodeType, node map[string]any) (ast.Node, error) {
	switch typ {
	case ast.NodeNumber:
		val, ok := numberValue(node["value"])
		if !ok {
			return nil, malformed(typ, "value must be a number")
		}
		return ast.NewNumber(val), nil
	case ast.NodeString:
		val, ok := node["value"].(string)
		if !ok {
			return nil, malformed(typ, "value must be a string")
		}
		return ast.NewString(val), nil
	case ast.NodeBoolean:
		val, ok := node["value"].(bool)
		if !ok {
			return nil, malformed(typ, "value must be a boolean")
		}
		return ast.NewBoolean(val), nil
	case ast.NodeList:
		raw, _ := node["items"].([]any)
		items := make([]ast.Evaluatable, 0, len(raw))
		for idx, item := range raw {
			ev, err := decodeEvaluatable(item, fmt.Sprintf("items[%d]", idx))
			if err != nil {
				return nil, err
			}
			items = append(items, ev)
		}
		return ast.NewList(items...), nil
	case ast.NodeEOL:
		return ast.NewEOL(), nil
	case ast.NodeIdentifier:
		name, _ := node["name"].(string)
		return ast.NewIdentifier(name), nil
	case ast.NodeKeyword:
		word, _ := node["word"].(string)
		return ast.NewKeyword(word), nil
	case ast.NodeVariable:
		name := nodeName(node)
		if name == "" {
			return nil, malformed(typ, "name is required")
		}
		return ast.NewVariable(name), nil
	case ast.NodeValueGroup:
		value, err := decodeEvaluatable(node["value"], "value")
		if err != nil {
			return nil, err
		}
		return ast.NewValueGroup(value), nil
	case ast.NodeBinaryCalculation:
		left, err := decodeEvaluatable(node["left"], "left")
		if err != nil {
			return nil, err
		}
		right, err := decodeEvaluatable(node["right"], "right")
		if err != nil {
			return nil, err
		}
		op, err := decodeOperator(node["operator"])
		if err != nil {
			return nil, err
		}
		return ast.NewBinaryCalculation(left, op, right), nil
	case ast.NodeEvaluatableSequence:
		return decodeSequence(node)
	case ast.NodeIndexing:
		index, err := decodeEvaluatable(node["index"], "index")
		if err != nil {
			return nil, err
		}
		return ast.NewIndexing(index), nil
	case ast.NodeIndexFetch:
		return decodeIndexFetch(node)
	case ast.NodeSetToIndex:
		targetMap, ok := asMap(node["target"])
		if !ok {
			return nil, malformed(typ, "target must be an IndexFetch node")
		}
		target, err := decodeIndexFetch(targetMap)
		if err != nil {
			return nil, err
		}
		value, err := decodeEvaluatable(node["value"], "value")
		if err != nil {
			return nil, err
		}
		return ast.NewSetToIndex(target, value), nil
	case ast.NodeBlock:
		return decodeBody(node["children"], "children")
	case ast.NodeCondition:
		cond, err := decodeEvaluatable(node["condition"], "condition")
		if err != nil {
			return nil, err
		}
		body, err := decodeBody(node["body"], "body")
		if err != nil {
			return nil, err
		}
		return ast.NewCondition(cond, body), nil
	case ast.NodeRepeat:
		body, err := decodeBody(node["body"], "body")
		if err != nil {
			return nil, err
		}
		return ast.NewRepeat(body), nil
	case ast.NodeBreak:
		return ast.NewBreak(), nil
	case ast.NodeDeclareVariable:
		name := nodeName(node)
		if name == "" {
			return nil, malformed(typ, "name is required")
		}
		value, err := decodeEvaluatable(node["value"], "value")
		if err != nil {
			return nil, err
		}
		return ast.NewDeclareVariable(name, value), nil
	case ast.NodePrint:
		value, err := decodeEvaluatable(node["value"], "value")
		if err != nil {
			return nil, err
		}
		return ast.NewPrint(value), nil
	case ast.NodeFunctionDeclaration:
		body, err := decodeBody(node["body"], "body")
		if err != nil {
			return nil, err
		}
		// A missing name is reported when the declaration runs.
		name, _ := node["name"].(string)
		return ast.NewFunctionDeclaration(name, body), nil
	case ast.NodeDeclareFFI:
		name, _ := node["name"].(string)
		runtime, _ := node["runtime"].(string)
		code, _ := node["code"].(string)
		if runtime == "" {
			return nil, malformed(typ, "runtime is required")
		}
		params, err := stringSlice(node["params"])
		if err != nil {
			return nil, malformed(typ, err.Error())
		}
		return ast.NewDeclareFFI(name, runtime, code, params...), nil
	case ast.NodeFunctionInvoke:
		args, err := decodeArguments(node["args"])
		if err != nil {
			return nil, err
		}
		name, _ := node["name"].(string)
		return ast.NewFunctionInvoke(name, args...), nil
	}
	if op, ok := ast.OperatorForType(typ); ok {
		return op, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, string(typ))
}

func decodeAny(raw any, field string) (ast.Node, error) {
	m, ok := asMap(raw)
	if !ok {
		if raw == nil {
			return nil, fmt.Errorf("%w: %s is missing", ErrMalformedNode, field)
		}
		return nil, fmt.Errorf("%w: %s must be a node, got %T", ErrMalformedNode, field, raw)
	}
	return decodeNode(m)
}

func decodeEvaluatable(raw any, field string) (ast.Evaluatable, error) {
	n, err := decodeAny(raw, field)
	if err != nil {
		return nil, err
	}
	ev, ok := n.(ast.Evaluatable)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be evaluatable, got %s", ErrMalformedNode, field, n.NodeType())
	}
	return ev, nil
}

// decodeBody accepts a Block node, a statement list, or a single statement.
func decodeBody(raw any, field string) (*ast.Block, error) {
	switch v := raw.(type) {
	case nil:
		return ast.NewBlock(), nil
	case []any:
		children := make([]ast.Node, 0, len(v))
		for idx, item := range v {
			child, err := decodeAny(item, fmt.Sprintf("%s[%d]", field, idx))
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		return ast.NewBlock(children...), nil
	}
	n, err := decodeAny(raw, field)
	if err != nil {
		return nil, err
	}
	if block, ok := n.(*ast.Block); ok {
		return block, nil
	}
	return ast.NewBlock(n), nil
}

func decodeIndexFetch(node map[string]any) (*ast.IndexFetch, error) {
	if typ, _ := node["type"].(string); typ != string(ast.NodeIndexFetch) {
		return nil, malformed(ast.NodeSetToIndex, "target must be an IndexFetch node")
	}
	target, err := decodeEvaluatable(node["target"], "target")
	if err != nil {
		return nil, err
	}
	// The index is either an Indexing wrapper or the bare index expression.
	index, err := decodeEvaluatable(node["index"], "index")
	if err != nil {
		return nil, err
	}
	fetch := ast.NewIndexFetch(target, index)
	if cfg, ok := asMap(node["config"]); ok {
		fetch.SetConfig(ast.Config(cfg))
	}
	return fetch, nil
}

func decodeSequence(node map[string]any) (ast.Node, error) {
	raw, _ := node["items"].([]any)
	if len(raw) < 2 {
		return nil, malformed(ast.NodeEvaluatableSequence, "at least two items are required")
	}
	items := make([]ast.Node, 0, len(raw))
	for idx, item := range raw {
		n, err := decodeAny(item, fmt.Sprintf("items[%d]", idx))
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	seq, err := ast.NewEvaluatableSequence(items[0], items[1])
	if err != nil {
		return nil, err
	}
	for _, item := range items[2:] {
		if seq, err = ast.NewEvaluatableSequence(seq, item); err != nil {
			return nil, err
		}
	}
	return seq, nil
}

func decodeOperator(raw any) (ast.Operator, error) {
	switch v := raw.(type) {
	case string:
		if op, ok := ast.OperatorFor(v); ok {
			return op, nil
		}
		return nil, fmt.Errorf("%w: operator %q", ErrUnknownNodeType, v)
	case map[string]any:
		if sym, ok := v["symbol"].(string); ok && v["type"] == nil {
			return decodeOperator(sym)
		}
		n, err := decodeNode(v)
		if err != nil {
			return nil, err
		}
		op, ok := n.(ast.Operator)
		if !ok {
			return nil, fmt.Errorf("%w: operator must be an operator node, got %s", ErrMalformedNode, n.NodeType())
		}
		return op, nil
	case nil:
		return nil, fmt.Errorf("%w: operator is missing", ErrMalformedNode)
	}
	return nil, fmt.Errorf("%w: operator must be a symbol or node, got %T", ErrMalformedNode, raw)
}

// decodeArguments accepts either [{name, value}] or a name->value mapping;
// mappings are ordered by name.
func decodeArguments(raw any) ([]ast.Argument, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []any:
		args := make([]ast.Argument, 0, len(v))
		for idx, item := range v {
			m, ok := asMap(item)
			if !ok {
				return nil, fmt.Errorf("%w: args[%d] must be a mapping", ErrMalformedNode, idx)
			}
			name, _ := m["name"].(string)
			value, err := decodeAny(m["value"], fmt.Sprintf("args[%d].value", idx))
			if err != nil {
				return nil, err
			}
			args = append(args, ast.Argument{Name: name, Value: value})
		}
		return args, nil
	case map[string]any:
		names := make([]string, 0, len(v))
		for name := range v {
			names = append(names, name)
		}
		sort.Strings(names)
		args := make([]ast.Argument, 0, len(names))
		for _, name := range names {
			value, err := decodeAny(v[name], "args."+name)
			if err != nil {
				return nil, err
			}
			args = append(args, ast.Argument{Name: name, Value: value})
		}
		return args, nil
	}
	return nil, fmt.Errorf("%w: args must be a list or mapping, got %T", ErrMalformedNode, raw)
}

func nodeName(node map[string]any) string {
	if name, ok := node["name"].(string); ok && name != "" {
		return name
	}
	if cfg, ok := asMap(node["config"]); ok {
		name, _ := cfg["name"].(string)
		return name
	}
	return ""
}

func malformed(typ ast.NodeType, msg string) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformedNode, typ, msg)
}

func asMap(raw any) (map[string]any, bool) {
	switch v := raw.(type) {
	case map[string]any:
		return v, true
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[fmt.Sprint(key)] = val
		}
		return out, true
	}
	return nil, false
}

func numberValue(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}

func stringSlice(raw any) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("params must be a list of strings")
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("params must be a list of strings")
		}
		out = append(out, s)
	}
	return out, nil
}
