package driver

import (
	"io"
	"os"
	"strings"

	"github.com/oarkflow/log"
)

// NewLogger builds a logger writing to w at the named level ("" means info).
func NewLogger(level string, w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl := log.InfoLevel
	if level = strings.TrimSpace(level); level != "" {
		lvl = log.ParseLevel(level)
	}
	return &log.Logger{
		Level:  lvl,
		Writer: &log.IOWriter{Writer: w},
	}
}
