// Package patch rewrites the property trees of individual container objects
// with payloads from the catalogue.
//
// Every error returned by a patcher is scoped to one asset; callers record it
// and move on to the next object.
package patch

import (
	"errors"

	"github.com/heisthecat31/assetpatch/pkg/container"
)

var (
	// ErrNotFound reports a missing catalogue entry.
	ErrNotFound = errors.New("no replacement in catalogue")
	// ErrStructuralMismatch reports a tree that lacks the fields a patcher rewrites.
	ErrStructuralMismatch = errors.New("property tree does not have the expected shape")
	// ErrEncode reports a replacement that could not be decoded or encoded.
	ErrEncode = errors.New("replacement could not be encoded")
	// ErrUnsupported reports an object layout the patcher cannot rewrite safely.
	ErrUnsupported = errors.New("unsupported asset layout")
	// ErrNotTarget reports an object outside the patcher's allow-list.
	ErrNotTarget = errors.New("asset is not a patch target")
)

// Patcher rewrites one object.
type Patcher interface {
	Patch(obj *container.Object) error
}

// TreeStore reads and writes property trees.
type TreeStore interface {
	ReadTree(obj *container.Object) (container.Tree, error)
	WriteTree(obj *container.Object, tree container.Tree) error
}
