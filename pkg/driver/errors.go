package driver

import "github.com/oarkflow/errors"

var (
	ErrEmptyPath        = errors.New("manifest: empty path")
	ErrManifestNotFound = errors.New("manifest: yaksok.yml not found")
	ErrUnknownNodeType  = errors.New("document: unknown node type")
	ErrMalformedNode    = errors.New("document: malformed node")
	ErrUnsupportedFile  = errors.New("document: unsupported file extension")
)
