package container

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// maxDepth bounds bundle nesting when decoding.
const maxDepth = 16

// bodyHeader precedes the node table of a container body.
type bodyHeader struct {
	NodeCount uint32
	Flags     uint32 // Reserved - 0
	Nodes     Section
}

// Section describes a fixed-size element table.
type Section struct {
	Length      uint64 // Total byte length of section
	ElementSize uint64 // Byte size of single entry
	Count       uint64 // Number of elements
}

// nodeEntry locates one node inside the data region.
// DataOffset is relative to the start of the data region and points at the
// node name, which is immediately followed by DataSize payload bytes.
type nodeEntry struct {
	Kind       uint32
	NameSize   uint32
	DataOffset uint64
	DataSize   uint64
}

const (
	bodyHeaderSize = 32
	nodeEntrySize  = 24
)

type serializedObject struct {
	PathID int64          `json:"pathId"`
	Type   string         `json:"type"`
	Tree   map[string]any `json:"tree"`
}

type serializedFile struct {
	Objects []serializedObject `json:"objects"`
}

// marshalBody encodes a list of nodes.
func marshalBody(nodes []*Node) ([]byte, error) {
	entries := make([]nodeEntry, 0, len(nodes))
	var data bytes.Buffer

	for _, n := range nodes {
		payload, err := marshalNode(n)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.Name, err)
		}
		entries = append(entries, nodeEntry{
			Kind:       uint32(n.Kind),
			NameSize:   uint32(len(n.Name)),
			DataOffset: uint64(data.Len()),
			DataSize:   uint64(len(payload)),
		})
		data.WriteString(n.Name)
		data.Write(payload)
	}

	header := bodyHeader{
		NodeCount: uint32(len(nodes)),
		Nodes: Section{
			Length:      uint64(len(entries)) * nodeEntrySize,
			ElementSize: nodeEntrySize,
			Count:       uint64(len(entries)),
		},
	}

	buf := bytes.NewBuffer(make([]byte, 0, bodyHeaderSize+len(entries)*nodeEntrySize+data.Len()))
	for _, section := range []any{header, entries} {
		if err := binary.Write(buf, binary.LittleEndian, section); err != nil {
			return nil, fmt.Errorf("write section: %w", err)
		}
	}
	buf.Write(data.Bytes())
	return buf.Bytes(), nil
}

func marshalNode(n *Node) ([]byte, error) {
	switch n.Kind {
	case NodeStream:
		return n.Data, nil
	case NodeBundle:
		return marshalBody(n.Children)
	case NodeSerialized:
		file := serializedFile{Objects: make([]serializedObject, 0, len(n.Objects))}
		for _, o := range n.Objects {
			tree, _ := encodeValue(o.tree).(map[string]any)
			file.Objects = append(file.Objects, serializedObject{
				PathID: o.PathID,
				Type:   o.TypeName,
				Tree:   tree,
			})
		}
		return json.Marshal(file)
	default:
		return nil, fmt.Errorf("unknown node kind %d", n.Kind)
	}
}

// unmarshalBody decodes a list of nodes.
func unmarshalBody(data []byte, depth int) ([]*Node, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("bundle nesting exceeds %d levels", maxDepth)
	}

	reader := bytes.NewReader(data)
	var header bodyHeader
	if err := binary.Read(reader, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if header.Nodes.ElementSize != nodeEntrySize {
		return nil, fmt.Errorf("invalid node entry size %d", header.Nodes.ElementSize)
	}
	if header.Nodes.Count != uint64(header.NodeCount) || header.Nodes.Length != header.Nodes.Count*nodeEntrySize {
		return nil, fmt.Errorf("inconsistent node table: count %d, length %d", header.Nodes.Count, header.Nodes.Length)
	}
	if header.Nodes.Length > uint64(reader.Len()) {
		return nil, fmt.Errorf("node table truncated")
	}

	entries := make([]nodeEntry, header.NodeCount)
	if err := binary.Read(reader, binary.LittleEndian, &entries); err != nil {
		return nil, fmt.Errorf("read node table: %w", err)
	}

	region := data[bodyHeaderSize+header.Nodes.Length:]
	nodes := make([]*Node, 0, len(entries))
	for i, e := range entries {
		size := uint64(len(region))
		if e.DataOffset > size || uint64(e.NameSize) > size-e.DataOffset {
			return nil, fmt.Errorf("node %d name out of bounds", i)
		}
		start := e.DataOffset
		nameEnd := start + uint64(e.NameSize)
		if e.DataSize > size-nameEnd {
			return nil, fmt.Errorf("node %d data out of bounds", i)
		}
		end := nameEnd + e.DataSize
		n, err := unmarshalNode(NodeKind(e.Kind), string(region[start:nameEnd]), region[nameEnd:end], depth)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func unmarshalNode(kind NodeKind, name string, payload []byte, depth int) (*Node, error) {
	switch kind {
	case NodeStream:
		return NewStreamNode(name, payload), nil
	case NodeBundle:
		children, err := unmarshalBody(payload, depth+1)
		if err != nil {
			return nil, err
		}
		return NewBundleNode(name, children...), nil
	case NodeSerialized:
		var file serializedFile
		if err := json.Unmarshal(payload, &file); err != nil {
			return nil, fmt.Errorf("decode objects: %w", err)
		}
		objects := make([]*Object, 0, len(file.Objects))
		for _, so := range file.Objects {
			decoded, err := decodeValue(so.Tree)
			if err != nil {
				return nil, fmt.Errorf("decode object %d: %w", so.PathID, err)
			}
			tree, _ := decoded.(map[string]any)
			if tree == nil {
				tree = Tree{}
			}
			objects = append(objects, NewObject(so.PathID, so.Type, tree))
		}
		return NewSerializedNode(name, objects...), nil
	default:
		return nil, fmt.Errorf("unknown node kind %d", kind)
	}
}
