package main

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/urfave/cli/v2"

	"yaksok/interpreter-go/pkg/driver"
)

func depsInstallCommand(c *cli.Context) error {
	if c.NArg() > 0 {
		return fmt.Errorf("yaksok deps install does not take arguments (received %s)", strings.Join(c.Args().Slice(), " "))
	}
	manifestPath, err := driver.FindManifest(".")
	if err != nil {
		return fmt.Errorf("unable to locate %s: %w", driver.ManifestFileName, err)
	}
	manifest, err := driver.LoadManifest(manifestPath)
	if err != nil {
		return err
	}
	home, err := resolveYaksokHome()
	if err != nil {
		return err
	}

	out := c.App.Writer
	fmt.Fprintf(out, "Manifest: %s\n", manifest.Path)
	fmt.Fprintf(out, "Dependencies: %d\n", len(manifest.Dependencies))
	fmt.Fprintf(out, "Cache directory: %s\n", home)

	lockPath := filepath.Join(manifest.Dir(), driver.LockFileName)
	lock, err := loadLockfileForManifest(manifest)
	if err != nil {
		return err
	}
	lockCreated := lock == nil
	if lockCreated {
		lock = driver.NewLockfile(manifest.Name, cliToolVersion)
	}
	lock.Tool = cliToolVersion

	installer := newDependencyInstaller(manifest, home)
	changed, logs, err := installer.Install(lock)
	if err != nil {
		return fmt.Errorf("failed to resolve dependencies: %w", err)
	}
	for _, line := range logs {
		fmt.Fprintln(out, line)
	}

	if changed || lockCreated {
		if err := driver.WriteLockfile(lock, lockPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s: %s\n", driver.LockFileName, lock.Path)
	} else {
		fmt.Fprintf(out, "%s already up to date: %s\n", driver.LockFileName, lockPath)
	}
	fmt.Fprintln(out, "Dependencies installed.")
	return nil
}

type dependencyInstaller struct {
	manifest *driver.Manifest
	git      *gitFetcher
}

func newDependencyInstaller(manifest *driver.Manifest, cacheDir string) *dependencyInstaller {
	return &dependencyInstaller{manifest: manifest, git: newGitFetcher(cacheDir)}
}

// Install resolves every manifest dependency into lock and reports whether
// the lockfile changed. Entries for dependencies no longer declared are dropped.
func (d *dependencyInstaller) Install(lock *driver.Lockfile) (bool, []string, error) {
	var logs []string
	changed := false
	declared := make(map[string]struct{}, len(d.manifest.Dependencies))
	for _, name := range d.manifest.DependencyNames() {
		dep := d.manifest.Dependencies[name]
		declared[driver.SanitizeName(name)] = struct{}{}

		var pkg *driver.LockedPackage
		var err error
		if dep.Path != "" {
			pkg, err = d.installPath(name, dep)
		} else {
			pkg, err = d.git.Fetch(name, dep, lock)
		}
		if err != nil {
			return false, logs, err
		}
		if lock.Put(pkg) {
			changed = true
			logs = append(logs, fmt.Sprintf("Resolved %s -> %s", name, pkg.Source))
		} else {
			logs = append(logs, fmt.Sprintf("Unchanged %s (%s)", name, pkg.Version))
		}
	}

	kept := lock.Packages[:0]
	for _, pkg := range lock.Packages {
		if _, ok := declared[pkg.Name]; ok {
			kept = append(kept, pkg)
			continue
		}
		changed = true
		logs = append(logs, fmt.Sprintf("Removed %s", pkg.Name))
	}
	lock.Packages = kept
	return changed, logs, nil
}

func (d *dependencyInstaller) installPath(name string, dep *driver.DependencySpec) (*driver.LockedPackage, error) {
	dir := resolveDependencyPath(d.manifest, dep.Path)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("dependency %q: %w", name, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("dependency %q: %s is not a directory", name, dir)
	}
	checksum, err := dirChecksum(dir)
	if err != nil {
		return nil, err
	}
	return &driver.LockedPackage{
		Name:     name,
		Version:  "path",
		Source:   "path:" + filepath.ToSlash(dep.Path),
		Checksum: checksum,
	}, nil
}

type gitFetcher struct {
	cacheDir string
}

func newGitFetcher(cacheDir string) *gitFetcher {
	if cacheDir == "" {
		return nil
	}
	return &gitFetcher{cacheDir: cacheDir}
}

// Fetch clones dep.Git into the cache and checks out the pinned revision.
// A locked entry whose checkout is still on disk is reused without cloning.
func (g *gitFetcher) Fetch(name string, dep *driver.DependencySpec, lock *driver.Lockfile) (*driver.LockedPackage, error) {
	if g == nil {
		return nil, errors.New("git fetcher unavailable")
	}
	url := strings.TrimSpace(dep.Git)
	if url == "" {
		return nil, fmt.Errorf("dependency %q: git URL required", name)
	}
	if locked, ok := lock.Find(name); ok && strings.HasPrefix(locked.Source, "git+"+url+"@") && lockedMatches(locked, dep) {
		if _, err := os.Stat(gitCheckoutDir(g.cacheDir, name, locked.Version)); err == nil {
			return locked, nil
		}
	}

	baseDir := filepath.Join(g.cacheDir, "pkg", "src", driver.SanitizeName(name))
	version, commit, err := ensureGitCheckout(baseDir, url, dep)
	if err != nil {
		return nil, fmt.Errorf("dependency %q: %w", name, err)
	}
	checksum, err := dirChecksum(filepath.Join(baseDir, sanitizePathSegment(version)))
	if err != nil {
		return nil, err
	}
	return &driver.LockedPackage{
		Name:     name,
		Version:  version,
		Source:   fmt.Sprintf("git+%s@%s", url, commit),
		Checksum: checksum,
	}, nil
}

// lockedMatches reports whether a locked version still satisfies the pin.
func lockedMatches(locked *driver.LockedPackage, dep *driver.DependencySpec) bool {
	pin := dep.GitRevision()
	if pin == "" {
		return true
	}
	return locked.Version == pin || strings.HasPrefix(locked.Version, pin+"@")
}

func ensureGitCheckout(baseDir, url string, dep *driver.DependencySpec) (string, string, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", "", err
	}
	if rev := strings.TrimSpace(dep.Rev); rev != "" {
		if _, err := os.Stat(filepath.Join(baseDir, sanitizePathSegment(rev))); err == nil {
			return rev, rev, nil
		}
	}

	tmpDir, err := os.MkdirTemp(baseDir, "git-fetch-*")
	if err != nil {
		return "", "", err
	}
	if err := os.RemoveAll(tmpDir); err != nil {
		return "", "", err
	}
	repo, err := git.PlainClone(tmpDir, false, &git.CloneOptions{URL: url})
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("git clone %s: %w", url, err)
	}

	hash, descriptor, err := resolveGitRevision(repo, dep)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", err
	}

	version := gitPinnedVersion(descriptor, hash.String())
	targetDir := filepath.Join(baseDir, sanitizePathSegment(version))
	if _, err := os.Stat(targetDir); err == nil {
		_ = os.RemoveAll(tmpDir)
		return version, hash.String(), nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("git checkout %s: %w", descriptor, err)
	}
	if err := os.Rename(tmpDir, targetDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", err
	}
	return version, hash.String(), nil
}

// resolveGitRevision resolves rev, tag or branch; with no pin it follows HEAD.
func resolveGitRevision(repo *git.Repository, dep *driver.DependencySpec) (*plumbing.Hash, string, error) {
	var candidates []plumbing.Revision
	descriptor := ""
	switch {
	case strings.TrimSpace(dep.Rev) != "":
		descriptor = strings.TrimSpace(dep.Rev)
		candidates = []plumbing.Revision{plumbing.Revision(descriptor)}
	case strings.TrimSpace(dep.Tag) != "":
		descriptor = strings.TrimSpace(dep.Tag)
		candidates = []plumbing.Revision{plumbing.Revision("refs/tags/" + descriptor)}
	case strings.TrimSpace(dep.Branch) != "":
		descriptor = strings.TrimSpace(dep.Branch)
		candidates = []plumbing.Revision{
			plumbing.Revision("refs/heads/" + descriptor),
			plumbing.Revision("refs/remotes/origin/" + descriptor),
		}
	default:
		candidates = []plumbing.Revision{plumbing.Revision("HEAD")}
	}
	var lastErr error
	for _, rev := range candidates {
		hash, err := repo.ResolveRevision(rev)
		if err == nil {
			return hash, descriptor, nil
		}
		lastErr = err
	}
	return nil, "", fmt.Errorf("resolve revision %s: %w", candidates[0], lastErr)
}

func gitPinnedVersion(descriptor, commit string) string {
	commit = strings.TrimSpace(commit)
	descriptor = strings.TrimSpace(descriptor)
	if commit == "" {
		return descriptor
	}
	if descriptor == "" || descriptor == commit {
		return commit
	}
	return fmt.Sprintf("%s@%s", descriptor, commit)
}

func dirChecksum(path string) (string, error) {
	h := sha256.New()
	err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != path && d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}
		h.Write([]byte(filepath.ToSlash(rel)))
		h.Write(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func sanitizePathSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "head"
	}
	var b strings.Builder
	for _, r := range segment {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
