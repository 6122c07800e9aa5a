// Package classify sorts container objects into the buckets the patchers work on.
package classify

import (
	"log/slog"
	"sort"

	"github.com/heisthecat31/assetpatch/pkg/container"
	"github.com/heisthecat31/assetpatch/pkg/texture"
)

// AllowLists names the objects eligible for patching, per kind.
type AllowLists struct {
	Fonts     []string
	Materials []string
	Textures  []string
}

// DefaultAllowLists returns the font, material and atlas names of the
// localized font bundle.
func DefaultAllowLists() AllowLists {
	return AllowLists{
		Fonts: []string{
			"chinese_body",
			"chinese_body_bold",
			"do_not_use_chinese_body_bold",
		},
		Materials: []string{
			"simsun_tmpro Material",
			"chinese_body_bold Material",
			"do_not_use_chinese_body_bold Material",
		},
		Textures: []string{
			"chinese_body Atlas",
			"chinese_body_bold Atlas",
			"do_not_use_chinese_body_bold Atlas",
		},
	}
}

// Member is a texture inside a stream group.
type Member struct {
	Object  *container.Object
	Texture *texture.Texture
}

// Offset returns the member's current offset in the stream.
func (m Member) Offset() int64 {
	return m.Texture.Stream.Offset
}

// StreamGroup is the set of objects sharing one resource stream. Streams are
// scoped to a bundle, so equally named streams of sibling bundles form
// separate groups.
type StreamGroup struct {
	// StreamID is "<bundle>/<stream>", or the stream name for detached objects.
	StreamID string
	// Bundle holds the stream node; nil for detached objects.
	Bundle *container.Node
	// Members are allow-listed and sorted by offset.
	Members []Member
	// Passengers reference the same stream but are never patched.
	Passengers []Member
}

// Buckets holds the classified objects of one container.
type Buckets struct {
	Fonts         []*container.Object
	Materials     []*container.Object
	TextureGroups []*StreamGroup
	Standalone    []*container.Object
	TextBlobs     []*container.Object
}

// TreeReader is the part of container.Codec the classifier needs.
type TreeReader interface {
	ReadTree(obj *container.Object) (container.Tree, error)
}

type set map[string]struct{}

func newSet(names []string) set {
	s := make(set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s set) has(name string) bool {
	_, ok := s[name]
	return ok
}

// Classify buckets objects. Textures are read through r to find their stream
// references; unreadable textures are logged and ignored.
func Classify(r TreeReader, objects []*container.Object, lists AllowLists) *Buckets {
	fonts := newSet(lists.Fonts)
	materials := newSet(lists.Materials)
	textures := newSet(lists.Textures)

	b := &Buckets{}
	groups := make(map[streamKey]*StreamGroup)
	var order []*StreamGroup

	for _, obj := range objects {
		switch obj.Kind {
		case container.KindFont:
			if obj.Name != "" && fonts.has(obj.Name) {
				b.Fonts = append(b.Fonts, obj)
			}
		case container.KindMaterial:
			if obj.Name != "" && materials.has(obj.Name) {
				b.Materials = append(b.Materials, obj)
			}
		case container.KindTextBlob:
			if obj.Name != "" {
				b.TextBlobs = append(b.TextBlobs, obj)
			}
		case container.KindTexture2D:
			allowed := obj.Name != "" && textures.has(obj.Name)
			tree, err := r.ReadTree(obj)
			if err != nil {
				if allowed {
					slog.Warn("skipping unreadable texture", "asset", obj.Name, "reason", err)
				}
				continue
			}
			tex, err := texture.FromTree(tree)
			if err != nil {
				if allowed {
					slog.Warn("skipping malformed texture", "asset", obj.Name, "reason", err)
				}
				continue
			}
			if !tex.Streamed() {
				if allowed {
					b.Standalone = append(b.Standalone, obj)
				}
				continue
			}
			key := streamKey{bundle: obj.Bundle(), name: container.StreamName(tex.Stream.Path)}
			g, ok := groups[key]
			if !ok {
				g = &StreamGroup{StreamID: key.id(), Bundle: key.bundle}
				groups[key] = g
				order = append(order, g)
			}
			m := Member{Object: obj, Texture: tex}
			if allowed {
				g.Members = append(g.Members, m)
			} else {
				g.Passengers = append(g.Passengers, m)
			}
		}
	}

	for _, g := range order {
		// a stream nobody asked to patch is not a group
		if len(g.Members) == 0 {
			continue
		}
		sortByOffset(g.Members)
		sortByOffset(g.Passengers)
		b.TextureGroups = append(b.TextureGroups, g)
	}
	sort.SliceStable(b.TextureGroups, func(i, j int) bool {
		return b.TextureGroups[i].StreamID < b.TextureGroups[j].StreamID
	})
	return b
}

type streamKey struct {
	bundle *container.Node
	name   string
}

func (k streamKey) id() string {
	if k.bundle == nil {
		return k.name
	}
	return k.bundle.Name + "/" + k.name
}

func sortByOffset(ms []Member) {
	sort.SliceStable(ms, func(i, j int) bool {
		return ms[i].Offset() < ms[j].Offset()
	})
}

// Count returns the number of patchable objects across all buckets.
func (b *Buckets) Count() int {
	n := len(b.Fonts) + len(b.Materials) + len(b.Standalone) + len(b.TextBlobs)
	for _, g := range b.TextureGroups {
		n += len(g.Members)
	}
	return n
}
