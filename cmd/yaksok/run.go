package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"yaksok/interpreter-go/pkg/driver"
	"yaksok/interpreter-go/pkg/interpreter"
)

func runCommand(c *cli.Context) error {
	if c.NArg() > 1 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(c.Args().Slice()[1:], " "))
	}
	entry, manifest, err := resolveEntry(c.Args().First())
	if err != nil {
		return err
	}

	settings := driver.RuntimeSettings{ListEvaluation: string(interpreter.Sequential)}
	if manifest != nil {
		if manifest.Runtime.ListEvaluation != "" {
			settings.ListEvaluation = manifest.Runtime.ListEvaluation
		}
		settings.LogLevel = manifest.Runtime.LogLevel
		settings.Timeout = manifest.Runtime.Timeout
	}
	if c.IsSet("list-evaluation") {
		settings.ListEvaluation = strings.ToLower(c.String("list-evaluation"))
	}
	if c.IsSet("log-level") {
		settings.LogLevel = c.String("log-level")
	}
	if c.IsSet("timeout") {
		settings.Timeout = c.Duration("timeout")
	}
	mode := interpreter.ListEvaluation(settings.ListEvaluation)
	if mode != interpreter.Sequential && mode != interpreter.Concurrent {
		return fmt.Errorf("unknown list evaluation %q", settings.ListEvaluation)
	}

	var dirs []string
	if manifest != nil {
		lock, err := loadLockfileForManifest(manifest)
		if err != nil {
			return err
		}
		home, err := resolveYaksokHome()
		if err != nil {
			return err
		}
		if dirs, err = libraryDirs(manifest, lock, home); err != nil {
			return err
		}
	}
	program, err := driver.NewLoader(dirs).Load(entry)
	if err != nil {
		return err
	}

	logger := driver.NewLogger(settings.LogLevel, c.App.ErrWriter)
	interp := interpreter.New(
		interpreter.WithStdout(c.App.Writer),
		interpreter.WithLogger(logger),
		interpreter.WithListEvaluation(mode),
	)
	defer interp.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, settings.Timeout)
		defer cancel()
	}

	logger.Debug().Str("entry", entry).Int("libraries", len(program.Libraries)).Msg("running program")
	return interp.ExecuteProgram(ctx, program.Block())
}

// resolveEntry maps the run target to an entry document and its project
// manifest, if any. An empty target means the project in the working directory.
func resolveEntry(target string) (string, *driver.Manifest, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		target = "."
	}
	info, err := os.Stat(target)
	if err != nil {
		return "", nil, fmt.Errorf("run: %w", err)
	}

	if info.IsDir() {
		manifestPath := filepath.Join(target, driver.ManifestFileName)
		if target == "." {
			if manifestPath, err = driver.FindManifest(target); err != nil {
				return "", nil, fmt.Errorf("yaksok run requires a document or a project (%w)", err)
			}
		}
		manifest, err := driver.LoadManifest(manifestPath)
		if err != nil {
			return "", nil, err
		}
		if manifest.Main == "" {
			return "", nil, fmt.Errorf("manifest %s does not name a main document", manifest.Path)
		}
		return manifest.MainPath(), manifest, nil
	}

	manifestPath, err := driver.FindManifest(filepath.Dir(target))
	switch {
	case errors.Is(err, driver.ErrManifestNotFound):
		return target, nil, nil
	case err != nil:
		return "", nil, err
	}
	manifest, err := driver.LoadManifest(manifestPath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read manifest for %s: %w", target, err)
	}
	return target, manifest, nil
}

func loadLockfileForManifest(manifest *driver.Manifest) (*driver.Lockfile, error) {
	lockPath := filepath.Join(manifest.Dir(), driver.LockFileName)
	lock, err := driver.LoadLockfile(lockPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read lockfile %s: %w", lockPath, err)
	}
	if lock.Root != driver.SanitizeName(manifest.Name) {
		return nil, fmt.Errorf("lockfile root %q does not match manifest name %q", lock.Root, manifest.Name)
	}
	return lock, nil
}

// libraryDirs resolves every dependency to a directory in manifest order.
func libraryDirs(manifest *driver.Manifest, lock *driver.Lockfile, home string) ([]string, error) {
	dirs := make([]string, 0, len(manifest.Dependencies))
	for _, name := range manifest.DependencyNames() {
		dep := manifest.Dependencies[name]
		if dep.Path != "" {
			dirs = append(dirs, resolveDependencyPath(manifest, dep.Path))
			continue
		}
		pkg, ok := lock.Find(name)
		if !ok {
			return nil, fmt.Errorf("dependency %q is not installed; run `yaksok deps install`", name)
		}
		dirs = append(dirs, gitCheckoutDir(home, name, pkg.Version))
	}
	return dirs, nil
}

func resolveDependencyPath(manifest *driver.Manifest, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(manifest.Dir(), filepath.FromSlash(path))
}

func gitCheckoutDir(home, name, version string) string {
	return filepath.Join(home, "pkg", "src", driver.SanitizeName(name), sanitizePathSegment(version))
}

func resolveYaksokHome() (string, error) {
	if home := strings.TrimSpace(os.Getenv("YAKSOK_HOME")); home != "" {
		abs, err := filepath.Abs(home)
		if err != nil {
			return "", fmt.Errorf("resolve YAKSOK_HOME %q: %w", home, err)
		}
		return abs, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}
	return filepath.Join(userHome, ".yaksok"), nil
}
