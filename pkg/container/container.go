// Package container defines the object-graph view of a packed game container and a
// reference codec for the APAK container format.
//
// A container is a tree of nodes. Bundle nodes hold further nodes, serialized
// nodes hold typed objects with a property tree each, and stream nodes hold raw
// resource bytes that objects reference by offset and size.
package container

import (
	"path"
	"strings"
)

// Kind classifies an object by its declared type tag.
type Kind int

const (
	KindUnknown Kind = iota
	KindFont
	KindMaterial
	KindTexture2D
	KindTextBlob
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindFont:
		return "Font"
	case KindMaterial:
		return "Material"
	case KindTexture2D:
		return "Texture2D"
	case KindTextBlob:
		return "TextBlob"
	default:
		return "Unknown"
	}
}

// KindOf maps a serialized type tag to a Kind.
// Font assets are stored as MonoBehaviour objects; text blobs as TextAsset.
func KindOf(typeName string) Kind {
	switch typeName {
	case "Font", "MonoBehaviour":
		return KindFont
	case "Material":
		return KindMaterial
	case "Texture2D":
		return KindTexture2D
	case "TextBlob", "TextAsset":
		return KindTextBlob
	default:
		return KindUnknown
	}
}

// NodeKind identifies the payload held by a Node.
type NodeKind uint32

const (
	NodeSerialized NodeKind = 1
	NodeStream     NodeKind = 2
	NodeBundle     NodeKind = 3
)

// String returns the node kind name.
func (k NodeKind) String() string {
	switch k {
	case NodeSerialized:
		return "serialized"
	case NodeStream:
		return "stream"
	case NodeBundle:
		return "bundle"
	default:
		return "unknown"
	}
}

// Node is one file inside a container.
type Node struct {
	Name     string
	Kind     NodeKind
	Objects  []*Object // NodeSerialized
	Data     []byte    // NodeStream
	Children []*Node   // NodeBundle

	parent *Node
}

// Parent returns the bundle holding this node, or nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Child returns the direct child with the given name.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Object is a typed record inside a serialized node.
type Object struct {
	PathID   int64
	TypeName string
	Kind     Kind
	Name     string

	tree Tree
	file *Node
}

// File returns the serialized node owning this object.
func (o *Object) File() *Node {
	return o.file
}

// Bundle returns the bundle holding the object's serialized file. Stream
// references of the object resolve inside this bundle.
func (o *Object) Bundle() *Node {
	if o.file == nil {
		return nil
	}
	return o.file.parent
}

// Handle is a loaded container file.
type Handle struct {
	Path string
	Root *Node
}

// NewObject creates a detached object. The name is taken from the tree's m_Name.
func NewObject(pathID int64, typeName string, tree Tree) *Object {
	name, _ := GetString(tree, KeyName)
	return &Object{
		PathID:   pathID,
		TypeName: typeName,
		Kind:     KindOf(typeName),
		Name:     name,
		tree:     tree,
	}
}

// NewSerializedNode creates a node holding objects.
func NewSerializedNode(name string, objects ...*Object) *Node {
	n := &Node{Name: name, Kind: NodeSerialized, Objects: objects}
	for _, o := range objects {
		o.file = n
	}
	return n
}

// NewStreamNode creates a node holding raw resource bytes.
func NewStreamNode(name string, data []byte) *Node {
	return &Node{Name: name, Kind: NodeStream, Data: data}
}

// NewBundleNode creates a node holding further nodes.
func NewBundleNode(name string, children ...*Node) *Node {
	n := &Node{Name: name, Kind: NodeBundle, Children: children}
	for _, c := range children {
		c.parent = n
	}
	return n
}

// NewHandle wraps a root node as a container handle.
func NewHandle(path string, root *Node) *Handle {
	return &Handle{Path: path, Root: root}
}

// StreamName reduces a stream reference such as "archive:/CAB-1/CAB-1.resS"
// to the name of the stream node it points at.
func StreamName(ref string) string {
	ref = strings.ReplaceAll(ref, "\\", "/")
	return path.Base(ref)
}

// walk visits every serialized object below n in tree order.
func walk(n *Node, fn func(*Object)) {
	switch n.Kind {
	case NodeSerialized:
		for _, o := range n.Objects {
			fn(o)
		}
	case NodeBundle:
		for _, c := range n.Children {
			walk(c, fn)
		}
	}
}
