package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/oarkflow/json"
	"github.com/oarkflow/log"

	"yaksok/interpreter-go/pkg/ffi"
	"yaksok/interpreter-go/pkg/interpreter"
	"yaksok/interpreter-go/pkg/yaksokerr"
)

func newTestServer(cfg Config) *Server {
	cfg.Logger = &log.Logger{Level: log.ErrorLevel, Writer: &log.IOWriter{Writer: io.Discard}}
	return New(cfg)
}

func postRun(t *testing.T, s *Server, body string) (int, RunResponse, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/run", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var out RunResponse
	if res.StatusCode == http.StatusOK {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode response %s: %v", raw, err)
		}
	}
	return res.StatusCode, out, string(raw)
}

func TestRunCapturesOutput(t *testing.T) {
	s := newTestServer(Config{Version: "test"})
	status, resp, raw := postRun(t, s, `{"program": [
		{"type": "DeclareVariable", "name": "x", "value": {"type": "Number", "value": 2}},
		{"type": "Print", "value": {"type": "BinaryCalculation", "left": {"type": "Variable", "name": "x"},
		 "operator": "*", "right": {"type": "Number", "value": 21}}},
		{"type": "Print", "value": {"type": "List", "items": [{"type": "Number", "value": 1}, {"type": "String", "value": "a"}]}}
	]}`)
	if status != http.StatusOK {
		t.Fatalf("status = %d: %s", status, raw)
	}
	if diff := cmp.Diff([]string{"42", "[1, a]"}, resp.Output); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	if resp.Error != nil || resp.ID == "" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestRunReportsProgramErrors(t *testing.T) {
	s := newTestServer(Config{})
	status, resp, raw := postRun(t, s, `{"program": [
		{"type": "Print", "value": {"type": "String", "value": "before"}},
		{"type": "Print", "value": {"type": "Variable", "name": "없는변수"}},
		{"type": "Print", "value": {"type": "String", "value": "after"}}
	]}`)
	if status != http.StatusOK {
		t.Fatalf("program errors should still be 200, got %d: %s", status, raw)
	}
	if diff := cmp.Diff([]string{"before"}, resp.Output); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	if resp.Error == nil || resp.Error.Kind != string(yaksokerr.NotDefinedVariable) {
		t.Fatalf("expected NOT_DEFINED_VARIABLE, got %+v", resp.Error)
	}
	if resp.Error.Data["name"] != "없는변수" {
		t.Fatalf("error data should carry the name, got %v", resp.Error.Data)
	}
}

func TestRunYAMLProgram(t *testing.T) {
	s := newTestServer(Config{})
	body, err := json.Marshal(RunRequest{
		Format:  "yaml",
		Program: "- {type: Print, value: {type: String, value: 안녕}}\n",
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	status, resp, raw := postRun(t, s, string(body))
	if status != http.StatusOK || len(resp.Output) != 1 || resp.Output[0] != "안녕" {
		t.Fatalf("unexpected yaml run %d %s", status, raw)
	}
}

func TestRunRejectsMalformedBodies(t *testing.T) {
	s := newTestServer(Config{})
	for _, body := range []string{
		`not json`,
		`{}`,
		`{"program": [{"type": "Teleport"}]}`,
		`{"program": "[]", "format": "toml"}`,
		`{"program": [], "format": "yaml"}`,
	} {
		if status, _, raw := postRun(t, s, body); status != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d: %s", body, status, raw)
		}
	}
}

func TestRunTimeout(t *testing.T) {
	s := newTestServer(Config{Timeout: 50 * time.Millisecond})
	status, resp, raw := postRun(t, s, `{"program": [{"type": "Repeat", "body": [{"type": "EOL"}]}]}`)
	if status != http.StatusOK {
		t.Fatalf("status = %d: %s", status, raw)
	}
	if resp.Error == nil || resp.Error.Kind != string(yaksokerr.ExecutionCancelled) {
		t.Fatalf("expected EXECUTION_CANCELLED, got %+v", resp.Error)
	}
}

func TestRunUsesConfiguredOptions(t *testing.T) {
	s := newTestServer(Config{
		ListEvaluation: interpreter.Concurrent,
		Options: []interpreter.Option{
			interpreter.WithHostFunction("greet", func(ctx context.Context, args []ffi.Arg) (any, error) {
				return "hello " + args[0].Value.(string), nil
			}),
		},
	})
	status, resp, raw := postRun(t, s, `{"program": [
		{"type": "DeclareFFI", "name": "인사", "runtime": "Go", "code": "greet", "params": ["who"]},
		{"type": "Print", "value": {"type": "FunctionInvoke", "name": "인사",
		 "args": {"who": {"type": "String", "value": "world"}}}}
	]}`)
	if status != http.StatusOK || resp.Error != nil {
		t.Fatalf("unexpected response %d %s", status, raw)
	}
	if diff := cmp.Diff([]string{"hello world"}, resp.Output); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestHealthHistoryAndMetrics(t *testing.T) {
	s := newTestServer(Config{Version: "1.2.3"})
	postRun(t, s, `{"program": [{"type": "Print", "value": {"type": "Number", "value": 1}}]}`)
	postRun(t, s, `{"program": [{"type": "Break"}]}`)

	res, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/api/health", nil), -1)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	var health map[string]any
	raw, _ := io.ReadAll(res.Body)
	if err := json.Unmarshal(raw, &health); err != nil || health["version"] != "1.2.3" {
		t.Fatalf("unexpected health response %s (%v)", raw, err)
	}

	res, err = s.App().Test(httptest.NewRequest(http.MethodGet, "/api/runs", nil), -1)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	var runs []RunSummary
	raw, _ = io.ReadAll(res.Body)
	if err := json.Unmarshal(raw, &runs); err != nil {
		t.Fatalf("decode runs %s: %v", raw, err)
	}
	if len(runs) != 2 || runs[0].Status != "ok" || runs[1].Kind != string(yaksokerr.EventNotFound) {
		t.Fatalf("unexpected history %+v", runs)
	}

	res, err = s.App().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	raw, _ = io.ReadAll(res.Body)
	text := string(raw)
	for _, want := range []string{
		`yaksok_runs_total{status="ok"} 1`,
		`yaksok_runs_total{status="error"} 1`,
		`yaksok_run_failures_total{kind="EVENT_NOT_FOUND"} 1`,
		`yaksok_run_duration_seconds_count 2`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("metrics missing %q:\n%s", want, text)
		}
	}
}

func TestRunsDoNotLeakGoroutines(t *testing.T) {
	s := newTestServer(Config{})
	t.Cleanup(func() { _ = s.Shutdown() })
	body := `{"program": [
		{"type": "DeclareFFI", "name": "더하기", "runtime": "expr", "code": "a + b", "params": ["a", "b"]},
		{"type": "Print", "value": {"type": "FunctionInvoke", "name": "더하기",
		 "args": [{"name": "a", "value": {"type": "Number", "value": 1}}, {"name": "b", "value": {"type": "Number", "value": 2}}]}}
	]}`
	for i := 0; i < 2; i++ {
		if status, _, raw := postRun(t, s, body); status != http.StatusOK {
			t.Fatalf("status = %d: %s", status, raw)
		}
	}
	baseline := runtime.NumGoroutine()
	for i := 0; i < 30; i++ {
		status, resp, raw := postRun(t, s, body)
		if status != http.StatusOK || resp.Error != nil {
			t.Fatalf("run failed (%d): %s", status, raw)
		}
	}
	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > baseline+3 {
		if time.Now().After(deadline) {
			t.Fatalf("goroutines grew from %d to %d across runs", baseline, runtime.NumGoroutine())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
