package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"yaksok/interpreter-go/pkg/yaksokerr"
)

const cliToolVersion = "yaksok-cli 0.1.0-dev"

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr)
	if err := app.Run(args); err != nil {
		reportError(stderr, err)
		return 1
	}
	return 0
}

func newApp(stdout, stderr io.Writer) *cli.App {
	logLevel := &cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level (trace, debug, info, warn, error)",
		EnvVars: []string{"YAKSOK_LOG_LEVEL"},
	}
	return &cli.App{
		Name:           "yaksok",
		Usage:          "Run yaksok AST documents",
		Version:        cliToolVersion,
		Writer:         stdout,
		ErrWriter:      stderr,
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Run an AST document, or the main document of a yaksok.yml project",
				ArgsUsage: "[document|project-dir]",
				Flags: []cli.Flag{
					logLevel,
					&cli.StringFlag{
						Name:    "list-evaluation",
						Usage:   "List slot evaluation on index reads (sequential or concurrent)",
						EnvVars: []string{"YAKSOK_LIST_EVALUATION"},
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Abort the program after this long (0 disables)",
					},
				},
				Action: runCommand,
			},
			{
				Name:  "deps",
				Usage: "Manage library dependencies",
				Subcommands: []*cli.Command{
					{
						Name:   "install",
						Usage:  "Fetch every dependency in yaksok.yml and write yaksok.lock",
						Action: depsInstallCommand,
					},
				},
			},
			{
				Name:  "serve",
				Usage: "Start the playground server",
				Flags: []cli.Flag{
					logLevel,
					&cli.StringFlag{
						Name:    "addr",
						Value:   ":8080",
						Usage:   "Address to listen on",
						EnvVars: []string{"YAKSOK_ADDR"},
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Value: 5 * time.Second,
						Usage: "Per-run timeout",
					},
					&cli.StringFlag{
						Name:  "list-evaluation",
						Value: "sequential",
						Usage: "List slot evaluation on index reads (sequential or concurrent)",
					},
				},
				Action: serveCommand,
			},
			{
				Name:  "version",
				Usage: "Print the CLI version",
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, cliToolVersion)
					return nil
				},
			},
		},
	}
}

func reportError(w io.Writer, err error) {
	var ye *yaksokerr.Error
	if errors.As(err, &ye) {
		fmt.Fprintf(w, "error[%s]: %v\n", ye.Kind, err)
		return
	}
	fmt.Fprintf(w, "error: %v\n", err)
}
