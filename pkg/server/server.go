package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/oarkflow/json"
	"github.com/oarkflow/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"yaksok/interpreter-go/pkg/ast"
	"yaksok/interpreter-go/pkg/driver"
	"yaksok/interpreter-go/pkg/ffi"
	"yaksok/interpreter-go/pkg/interpreter"
	"yaksok/interpreter-go/pkg/yaksokerr"
)

const historyLimit = 100

type Config struct {
	Version string
	// Timeout bounds a single run; zero means no limit.
	Timeout        time.Duration
	ListEvaluation interpreter.ListEvaluation
	Logger         *log.Logger
	// Options are applied to every interpreter after the server's own.
	Options []interpreter.Option
}

// Server is the playground HTTP service.
type Server struct {
	app      *fiber.App
	config   Config
	logger   *log.Logger
	registry *prometheus.Registry
	metrics  *metrics
	// expr is shared by every run so its program cache outlives a request.
	expr *ffi.ExprRuntime

	mu      sync.Mutex
	history []RunSummary
}

type RunRequest struct {
	Program any `json:"program"`
	// Format is "json" (default) or "yaml"; yaml programs are sent as a string.
	Format string `json:"format,omitempty"`
}

type RunResponse struct {
	ID         string    `json:"id"`
	Output     []string  `json:"output"`
	Error      *RunError `json:"error,omitempty"`
	DurationMs float64   `json:"durationMs"`
}

type RunError struct {
	Kind    string         `json:"kind,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Message string         `json:"message"`
}

type RunSummary struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	Kind       string    `json:"kind,omitempty"`
	StartTime  time.Time `json:"startTime"`
	DurationMs float64   `json:"durationMs"`
	Lines      int       `json:"lines"`
}

func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = &log.DefaultLogger
	}
	if cfg.ListEvaluation == "" {
		cfg.ListEvaluation = interpreter.Sequential
	}
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		JSONEncoder:           func(v any) ([]byte, error) { return json.Marshal(v) },
		JSONDecoder:           func(data []byte, v any) error { return json.Unmarshal(data, v) },
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	registry := prometheus.NewRegistry()
	s := &Server{
		app:      app,
		config:   cfg,
		logger:   logger,
		registry: registry,
		metrics:  newMetrics(registry),
	}
	if rt, err := ffi.NewExprRuntime(4096); err == nil {
		s.expr = rt
	} else {
		logger.Warn().Err(err).Msg("shared expr runtime unavailable")
	}
	s.setupRoutes()
	return s
}

// App exposes the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) setupRoutes() {
	s.app.Use(recover.New())
	s.app.Use(cors.New())

	s.app.Get("/api/health", s.healthHandler)
	s.app.Post("/api/run", s.runHandler)
	s.app.Get("/api/runs", s.historyHandler)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
}

func (s *Server) healthHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"version":   s.config.Version,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) runHandler(c *fiber.Ctx) error {
	var req RunRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	program, err := decodeProgram(req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	resp := s.execute(c.UserContext(), program)
	return c.JSON(resp)
}

func (s *Server) historyHandler(c *fiber.Ctx) error {
	s.mu.Lock()
	runs := make([]RunSummary, len(s.history))
	copy(runs, s.history)
	s.mu.Unlock()
	return c.JSON(runs)
}

func decodeProgram(req RunRequest) (*ast.Block, error) {
	if req.Program == nil {
		return nil, fmt.Errorf("program is required")
	}
	switch strings.ToLower(strings.TrimSpace(req.Format)) {
	case "", "json":
		if text, ok := req.Program.(string); ok {
			return driver.DecodeJSON([]byte(text))
		}
		return driver.DecodeDocument(req.Program)
	case "yaml", "yml":
		text, ok := req.Program.(string)
		if !ok {
			return nil, fmt.Errorf("yaml programs must be sent as a string")
		}
		return driver.DecodeYAML([]byte(text))
	default:
		return nil, fmt.Errorf("unsupported format %q", req.Format)
	}
}

// execute runs program on a fresh interpreter with captured output.
func (s *Server) execute(parent context.Context, program *ast.Block) RunResponse {
	ctx := parent
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, s.config.Timeout)
		defer cancel()
	}

	id := uuid.New().String()
	var out bytes.Buffer
	opts := []interpreter.Option{
		interpreter.WithStdout(&out),
		interpreter.WithLogger(s.logger),
		interpreter.WithListEvaluation(s.config.ListEvaluation),
	}
	if s.expr != nil {
		opts = append(opts, interpreter.WithForeignRuntime(ffi.ExprTag, s.expr))
	}
	interp := interpreter.New(append(opts, s.config.Options...)...)
	defer interp.Close()

	start := time.Now()
	err := interp.ExecuteProgram(ctx, program)
	elapsed := time.Since(start)

	resp := RunResponse{
		ID:         id,
		Output:     splitLines(out.String()),
		DurationMs: float64(elapsed.Microseconds()) / 1000,
	}
	summary := RunSummary{ID: id, Status: "ok", StartTime: start, DurationMs: resp.DurationMs, Lines: len(resp.Output)}
	if err != nil {
		resp.Error = toRunError(err)
		summary.Status = "error"
		summary.Kind = resp.Error.Kind
	}
	s.metrics.observe(summary.Status, summary.Kind, elapsed)
	s.record(summary)

	s.logger.Info().Str("id", id).Str("status", summary.Status).Str("kind", summary.Kind).Int("lines", summary.Lines).Msg("program run finished")
	return resp
}

func (s *Server) record(summary RunSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, summary)
	if len(s.history) > historyLimit {
		s.history = s.history[len(s.history)-historyLimit:]
	}
}

func toRunError(err error) *RunError {
	var ye *yaksokerr.Error
	if errors.As(err, &ye) {
		return &RunError{Kind: string(ye.Kind), Data: ye.Data, Message: err.Error()}
	}
	return &RunError{Message: err.Error()}
}

func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []string{}
	}
	return strings.Split(text, "\n")
}

func (s *Server) Start(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("starting playground server")
	return s.app.Listen(addr)
}

// Shutdown stops the listener and then releases the shared expr runtime.
func (s *Server) Shutdown() error {
	s.logger.Info().Msg("shutting down playground server")
	err := s.app.Shutdown()
	if s.expr != nil {
		s.expr.Close()
		s.expr = nil
	}
	return err
}
