package container

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/heisthecat31/assetpatch/pkg/archive"
)

// ErrStreamNotFound is returned when an object references a stream that is not
// a sibling of its serialized file.
var ErrStreamNotFound = errors.New("resource stream not found")

// Codec opens packed containers, exposes their objects and re-serializes them.
type Codec interface {
	// Load opens the container at path.
	Load(path string) (*Handle, error)
	// Objects lists every object in the container, recursing into nested bundles.
	Objects(h *Handle) []*Object
	// ReadTree returns a copy of the object's property tree.
	ReadTree(obj *Object) (Tree, error)
	// WriteTree replaces the object's property tree.
	WriteTree(obj *Object, tree Tree) error
	// Stream returns the bytes of the resource stream ref, resolved relative to obj.
	Stream(obj *Object, ref string) ([]byte, error)
	// ReplaceStream swaps the resource stream ref, resolved relative to obj, for data.
	ReplaceStream(obj *Object, ref string, data []byte) error
	// Serialize encodes the whole container.
	Serialize(h *Handle) ([]byte, error)
}

// PackCodec implements Codec for APAK containers.
type PackCodec struct {
	level int
}

// PackOption configures a PackCodec.
type PackOption func(*PackCodec)

// WithCompressionLevel sets the zstd level used by Serialize.
func WithCompressionLevel(level int) PackOption {
	return func(c *PackCodec) {
		c.level = level
	}
}

// NewPackCodec creates an APAK codec.
func NewPackCodec(opts ...PackOption) *PackCodec {
	c := &PackCodec{level: archive.DefaultCompressionLevel}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load reads and decodes the container at path.
func (c *PackCodec) Load(path string) (*Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read container: %w", err)
	}
	defer f.Close()

	body, err := archive.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	h, err := c.parse(filepath.Base(path), body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	h.Path = path
	return h, nil
}

// Decode parses an in-memory container.
func (c *PackCodec) Decode(name string, raw []byte) (*Handle, error) {
	body, err := archive.Decode(raw)
	if err != nil {
		return nil, err
	}
	return c.parse(name, body)
}

func (c *PackCodec) parse(name string, body []byte) (*Handle, error) {
	nodes, err := unmarshalBody(body, 0)
	if err != nil {
		return nil, fmt.Errorf("parse body: %w", err)
	}
	return NewHandle(name, NewBundleNode(name, nodes...)), nil
}

// Objects lists every object in tree order.
func (c *PackCodec) Objects(h *Handle) []*Object {
	var objects []*Object
	walk(h.Root, func(o *Object) {
		objects = append(objects, o)
	})
	return objects
}

// ReadTree returns a deep copy of the object's tree.
func (c *PackCodec) ReadTree(obj *Object) (Tree, error) {
	if obj.tree == nil {
		return nil, fmt.Errorf("object %d has no property tree", obj.PathID)
	}
	return Clone(obj.tree), nil
}

// WriteTree stores a deep copy of tree on the object.
func (c *PackCodec) WriteTree(obj *Object, tree Tree) error {
	if tree == nil {
		return fmt.Errorf("object %d: nil property tree", obj.PathID)
	}
	obj.tree = Clone(tree)
	if name, ok := GetString(tree, KeyName); ok {
		obj.Name = name
	}
	return nil
}

// Stream returns the bytes of the referenced stream node.
func (c *PackCodec) Stream(obj *Object, ref string) ([]byte, error) {
	n, err := c.streamNode(obj, ref)
	if err != nil {
		return nil, err
	}
	return n.Data, nil
}

// ReplaceStream installs data as the new content of the referenced stream node.
func (c *PackCodec) ReplaceStream(obj *Object, ref string, data []byte) error {
	n, err := c.streamNode(obj, ref)
	if err != nil {
		return err
	}
	n.Data = data
	return nil
}

func (c *PackCodec) streamNode(obj *Object, ref string) (*Node, error) {
	bundle := obj.Bundle()
	if bundle == nil {
		return nil, fmt.Errorf("%w: object %d is detached", ErrStreamNotFound, obj.PathID)
	}
	name := StreamName(ref)
	n := bundle.Child(name)
	if n == nil || n.Kind != NodeStream {
		return nil, fmt.Errorf("%w: %s", ErrStreamNotFound, name)
	}
	return n, nil
}

// Serialize encodes the container into an APAK envelope.
func (c *PackCodec) Serialize(h *Handle) ([]byte, error) {
	body, err := marshalBody(h.Root.Children)
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}
	return archive.Encode(body, archive.WithCompressionLevel(c.level))
}
