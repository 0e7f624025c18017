package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"yaksok/interpreter-go/pkg/driver"
	"yaksok/interpreter-go/pkg/interpreter"
	"yaksok/interpreter-go/pkg/server"
)

func serveCommand(c *cli.Context) error {
	mode := interpreter.ListEvaluation(strings.ToLower(c.String("list-evaluation")))
	if mode != interpreter.Sequential && mode != interpreter.Concurrent {
		return fmt.Errorf("unknown list evaluation %q", mode)
	}
	logger := driver.NewLogger(c.String("log-level"), c.App.ErrWriter)
	srv := server.New(server.Config{
		Version:        cliToolVersion,
		Timeout:        c.Duration("timeout"),
		ListEvaluation: mode,
		Logger:         logger,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start(c.String("addr"))
	}()

	select {
	case err := <-serverErr:
		return err
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("received signal, shutting down")
		if err := srv.Shutdown(); err != nil {
			return err
		}
		return <-serverErr
	}
}
