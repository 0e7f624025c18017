package driver

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"yaksok/interpreter-go/pkg/ast"
)

// Document is a decoded AST document together with where it came from.
type Document struct {
	Path string
	Root *ast.Block
}

// Program is an entry document plus the library documents that run before it.
type Program struct {
	Entry     Document
	Libraries []Document
}

// Block returns a single block running every library, then the entry.
func (p *Program) Block() *ast.Block {
	children := make([]ast.Node, 0, len(p.Libraries)+1)
	for _, lib := range p.Libraries {
		children = append(children, lib.Root)
	}
	children = append(children, p.Entry.Root)
	return ast.NewBlock(children...)
}

// Loader reads entry documents and the library directories they depend on.
type Loader struct {
	libraryDirs []string
}

func NewLoader(libraryDirs []string) *Loader {
	return &Loader{libraryDirs: append([]string(nil), libraryDirs...)}
}

// Load decodes entry and every library document. Libraries are ordered by
// directory as given, then by path within a directory.
func (l *Loader) Load(entry string) (*Program, error) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return nil, ErrEmptyPath
	}
	root, err := LoadDocument(entry)
	if err != nil {
		return nil, err
	}
	program := &Program{Entry: Document{Path: entry, Root: root}}
	entryAbs, _ := filepath.Abs(entry)
	for _, dir := range l.libraryDirs {
		docs, err := LoadLibrary(dir)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			if abs, _ := filepath.Abs(doc.Path); abs == entryAbs {
				continue
			}
			program.Libraries = append(program.Libraries, doc)
		}
	}
	return program, nil
}

// LoadLibrary decodes every AST document under dir, sorted by path.
func LoadLibrary(dir string) ([]Document, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("library: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("library: %s is not a directory", dir)
	}
	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if isDocumentPath(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("library: walk %s: %w", dir, err)
	}
	sort.Strings(paths)

	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		root, err := LoadDocument(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{Path: path, Root: root})
	}
	return docs, nil
}

func isDocumentPath(path string) bool {
	if filepath.Base(path) == ManifestFileName || filepath.Base(path) == LockFileName {
		return false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yml", ".yaml":
		return true
	}
	return false
}
