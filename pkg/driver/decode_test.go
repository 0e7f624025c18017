package driver

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/oarkflow/json"
	"github.com/oarkflow/log"

	"yaksok/interpreter-go/pkg/ast"
)

// every node type the decoder understands, written as a single program.
const everyNodeJSON = `{
  "type": "Block",
  "children": [
    {"type": "DeclareVariable", "name": "목록", "value": {"type": "List", "items": [
      {"type": "Number", "value": 1},
      {"type": "String", "value": "둘"},
      {"type": "Boolean", "value": true}
    ]}},
    {"type": "EOL"},
    {"type": "SetToIndex",
     "target": {"type": "IndexFetch", "target": {"type": "Variable", "name": "목록"},
                "index": {"type": "Indexing", "index": {"type": "Number", "value": 2}}},
     "value": {"type": "ValueGroup", "value": {"type": "BinaryCalculation",
               "left": {"type": "Number", "value": 1}, "operator": "+",
               "right": {"type": "Number", "value": 2}}}},
    {"type": "Condition",
     "condition": {"type": "BinaryCalculation", "left": {"type": "Number", "value": 2},
                   "operator": {"type": "GreaterThanOperator"}, "right": {"type": "Number", "value": 1}},
     "body": [{"type": "Print", "value": {"type": "String", "value": "크다"}}]},
    {"type": "Repeat", "body": {"type": "Block", "children": [{"type": "Break"}]}},
    {"type": "FunctionDeclaration", "config": {"name": "더하기"}, "body": [
      {"type": "DeclareVariable", "name": "결과", "value": {"type": "BinaryCalculation",
        "left": {"type": "Variable", "name": "a"}, "operator": {"symbol": "+"},
        "right": {"type": "Variable", "name": "b"}}}
    ]},
    {"type": "DeclareFFI", "name": "곱하기", "runtime": "expr", "code": "a * b", "params": ["a", "b"]},
    {"type": "Print", "value": {"type": "FunctionInvoke", "name": "더하기",
      "args": [{"name": "a", "value": {"type": "Number", "value": 1}},
               {"name": "b", "value": {"type": "Number", "value": 2}}]}},
    {"type": "Print", "value": {"type": "FunctionInvoke", "name": "곱하기",
      "args": {"b": {"type": "Number", "value": 3}, "a": {"type": "Number", "value": 2}}}},
    {"type": "Print", "value": {"type": "EvaluatableSequence", "items": [
      {"type": "Number", "value": 1}, {"type": "Number", "value": 2}, {"type": "String", "value": "끝"}]}},
    {"type": "Identifier", "name": "x"},
    {"type": "Keyword", "word": "반복"}
  ]
}`

func TestDecodeEveryNodeType(t *testing.T) {
	block, err := DecodeJSON([]byte(everyNodeJSON))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	var got []ast.NodeType
	for _, child := range block.Children {
		got = append(got, child.NodeType())
	}
	want := []ast.NodeType{
		ast.NodeDeclareVariable, ast.NodeEOL, ast.NodeSetToIndex, ast.NodeCondition,
		ast.NodeRepeat, ast.NodeFunctionDeclaration, ast.NodeDeclareFFI,
		ast.NodePrint, ast.NodePrint, ast.NodePrint, ast.NodeIdentifier, ast.NodeKeyword,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("child types mismatch (-want +got):\n%s", diff)
	}

	set := block.Children[2].(*ast.SetToIndex)
	if _, ok := set.Target.Index.(*ast.Indexing); !ok {
		t.Fatalf("IndexFetch index should keep its Indexing wrapper, got %T", set.Target.Index)
	}
	cond := block.Children[3].(*ast.Condition)
	if op := cond.Condition.(*ast.BinaryCalculation).Operator; op.Symbol() != ">" {
		t.Fatalf("operator node decoded as %q", op.Symbol())
	}
	fn := block.Children[5].(*ast.FunctionDeclaration)
	if fn.FunctionName() != "더하기" {
		t.Fatalf("function name should come from config, got %q", fn.FunctionName())
	}
	ffiDecl := block.Children[6].(*ast.DeclareFFI)
	if ffiDecl.Runtime != "expr" || len(ffiDecl.Params) != 2 {
		t.Fatalf("unexpected DeclareFFI %#v", ffiDecl)
	}
	call := block.Children[8].(*ast.Print).Value.(*ast.FunctionInvoke)
	if call.Args[0].Name != "a" || call.Args[1].Name != "b" {
		t.Fatalf("mapping args should be ordered by name, got %#v", call.Args)
	}
	seq := block.Children[9].(*ast.Print).Value.(*ast.EvaluatableSequence)
	if len(seq.Items) != 3 {
		t.Fatalf("sequence should flatten to 3 items, got %d", len(seq.Items))
	}
}

func TestDecodeYAMLMatchesJSON(t *testing.T) {
	yamlDoc := `
- type: DeclareVariable
  config:
    name: 값
  value: {type: Number, value: 3}
- type: Print
  value:
    type: BinaryCalculation
    left: {type: Variable, name: 값}
    operator: "*"
    right: {type: Number, value: 2.5}
`
	fromYAML, err := DecodeYAML([]byte(yamlDoc))
	if err != nil {
		t.Fatalf("DecodeYAML: %v", err)
	}
	decl := fromYAML.Children[0].(*ast.DeclareVariable)
	if decl.Name != "값" {
		t.Fatalf("name should fall back to config.name, got %q", decl.Name)
	}
	if n := decl.Value.(*ast.Number); n.Value != 3 {
		t.Fatalf("integer YAML scalar should decode as number, got %v", n.Value)
	}

	data, err := json.Marshal(map[string]any{"type": "Block", "children": []any{
		map[string]any{"type": "DeclareVariable", "name": "값", "value": map[string]any{"type": "Number", "value": 3}},
		map[string]any{"type": "Print", "value": map[string]any{
			"type": "BinaryCalculation", "operator": "*",
			"left":  map[string]any{"type": "Variable", "name": "값"},
			"right": map[string]any{"type": "Number", "value": 2.5},
		}},
	}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	fromJSON, err := DecodeJSON(data)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if len(fromJSON.Children) != len(fromYAML.Children) {
		t.Fatalf("child count mismatch: %d vs %d", len(fromJSON.Children), len(fromYAML.Children))
	}
	left := fromJSON.Children[1].(*ast.Print).Value.(*ast.BinaryCalculation)
	right := fromYAML.Children[1].(*ast.Print).Value.(*ast.BinaryCalculation)
	if left.Operator.Symbol() != right.Operator.Symbol() || left.Right.(*ast.Number).Value != right.Right.(*ast.Number).Value {
		t.Fatalf("JSON and YAML decoded differently")
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"unknown type", `[{"type": "Teleport"}]`, ErrUnknownNodeType},
		{"unknown operator", `[{"type": "Print", "value": {"type": "BinaryCalculation", "left": {"type": "Number", "value": 1}, "operator": "%", "right": {"type": "Number", "value": 1}}}]`, ErrUnknownNodeType},
		{"number without value", `[{"type": "Number", "value": "1"}]`, ErrMalformedNode},
		{"print without value", `[{"type": "Print"}]`, ErrMalformedNode},
		{"keyword as print value", `[{"type": "Print", "value": {"type": "Keyword", "word": "x"}}]`, ErrMalformedNode},
		{"variable without name", `[{"type": "Variable"}]`, ErrMalformedNode},
		{"short sequence", `[{"type": "EvaluatableSequence", "items": [{"type": "Number", "value": 1}]}]`, ErrMalformedNode},
		{"set without fetch", `[{"type": "SetToIndex", "target": {"type": "Variable", "name": "a"}, "value": {"type": "Number", "value": 1}}]`, ErrMalformedNode},
		{"ffi without runtime", `[{"type": "DeclareFFI", "name": "f", "code": "1"}]`, ErrMalformedNode},
		{"scalar child", `[1]`, ErrMalformedNode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJSON([]byte(tt.doc))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadDocumentByExtension(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "main.json")
	yamlPath := filepath.Join(dir, "main.yaml")
	textPath := filepath.Join(dir, "main.txt")
	for path, body := range map[string]string{
		jsonPath: `[{"type": "Print", "value": {"type": "String", "value": "hi"}}]`,
		yamlPath: "- {type: Print, value: {type: String, value: hi}}\n",
		textPath: "hi",
	} {
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	for _, path := range []string{jsonPath, yamlPath} {
		block, err := LoadDocument(path)
		if err != nil {
			t.Fatalf("LoadDocument(%s): %v", path, err)
		}
		if len(block.Children) != 1 {
			t.Fatalf("%s: expected one statement, got %d", path, len(block.Children))
		}
	}
	if _, err := LoadDocument(textPath); !errors.Is(err, ErrUnsupportedFile) {
		t.Fatalf("expected ErrUnsupportedFile, got %v", err)
	}
}

func TestLoaderOrdersLibraries(t *testing.T) {
	libA := t.TempDir()
	libB := t.TempDir()
	entryDir := t.TempDir()
	files := map[string]string{
		filepath.Join(libA, "b.yml"):            "- {type: Print, value: {type: String, value: a/b}}\n",
		filepath.Join(libA, "a.json"):           `[{"type": "Print", "value": {"type": "String", "value": "a/a"}}]`,
		filepath.Join(libA, ManifestFileName):   "name: lib\n",
		filepath.Join(libA, "notes.md"):         "ignored",
		filepath.Join(libB, "only.yaml"):        "- {type: Print, value: {type: String, value: b}}\n",
		filepath.Join(entryDir, "main.json"):    `[{"type": "Print", "value": {"type": "String", "value": "main"}}]`,
		filepath.Join(libA, ".git", "x.json"):   `not even json`,
		filepath.Join(libA, "nested", "c.json"): `[{"type": "EOL"}]`,
	}
	for path, body := range files {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	program, err := NewLoader([]string{libA, libB}).Load(filepath.Join(entryDir, "main.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	var names []string
	for _, lib := range program.Libraries {
		rel, _ := filepath.Rel(filepath.Dir(filepath.Dir(lib.Path)), lib.Path)
		names = append(names, filepath.Base(rel))
	}
	if diff := cmp.Diff([]string{"a.json", "b.yml", "c.json", "only.yaml"}, names); diff != "" {
		t.Fatalf("library order mismatch (-want +got):\n%s", diff)
	}
	block := program.Block()
	if len(block.Children) != 5 || block.Children[4] != program.Entry.Root {
		t.Fatalf("program block should end with the entry, got %d children", len(block.Children))
	}
}

func TestNewLoggerLevel(t *testing.T) {
	if logger := NewLogger("", nil); logger.Level != log.InfoLevel {
		t.Fatalf("default level = %v", logger.Level)
	}
	if logger := NewLogger("debug", os.Stderr); logger.Level != log.DebugLevel {
		t.Fatalf("debug level = %v", logger.Level)
	}
}
