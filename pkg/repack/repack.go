// Package repack rebuilds shared resource streams after some of their textures
// have been replaced.
//
// Every object referencing the stream is laid out again in original offset
// order. Replaced textures contribute their new payload; all other referents
// keep their original bytes. Offsets are then recomputed cumulatively, so the
// new stream has no gaps and no overlaps.
package repack

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/heisthecat31/assetpatch/pkg/classify"
	"github.com/heisthecat31/assetpatch/pkg/container"
	"github.com/heisthecat31/assetpatch/pkg/patch"
	"github.com/heisthecat31/assetpatch/pkg/texture"
)

var (
	// ErrOutOfRange reports a referent whose payload lies outside the stream.
	ErrOutOfRange = errors.New("stream reference out of range")
	// ErrOverlap reports two referents sharing bytes of the stream.
	ErrOverlap = errors.New("stream references overlap")
	// ErrPartialGroup reports a group where only some members have a replacement
	// while partial groups are rejected.
	ErrPartialGroup = errors.New("group only partially replaced")
	// ErrLayout reports a rebuilt stream that is not contiguous.
	ErrLayout = errors.New("rebuilt stream layout is inconsistent")
	// ErrForeignReferent reports a group entry whose stream lives in another bundle.
	ErrForeignReferent = errors.New("stream referent belongs to another bundle")
)

// Codec is the part of container.Codec the repacker needs.
type Codec interface {
	ReadTree(obj *container.Object) (container.Tree, error)
	WriteTree(obj *container.Object, tree container.Tree) error
	Stream(obj *container.Object, ref string) ([]byte, error)
	ReplaceStream(obj *container.Object, ref string, data []byte) error
}

// Span is the position of one referent in the rebuilt stream.
type Span struct {
	Name     string
	Offset   int64
	Size     int64
	Replaced bool
}

// Result describes one repacked group.
type Result struct {
	StreamID   string
	Replaced   []string
	Preserved  []string
	Misses     []string // members without a catalogue image
	Failures   []error  // members whose image could not be encoded
	Layout     []Span
	StreamSize int64
}

// Changed reports whether the stream was rewritten.
func (r *Result) Changed() bool {
	return len(r.Replaced) > 0
}

// Repacker rewrites stream groups.
type Repacker struct {
	codec         Codec
	images        *patch.ImageSource
	rejectPartial bool
}

// Option configures a Repacker.
type Option func(*Repacker)

// WithRejectPartial leaves a group untouched unless every member has a replacement.
func WithRejectPartial() Option {
	return func(r *Repacker) {
		r.rejectPartial = true
	}
}

// New creates a Repacker.
func New(codec Codec, images *patch.ImageSource, opts ...Option) *Repacker {
	r := &Repacker{codec: codec, images: images}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type entry struct {
	member   classify.Member
	image    *patch.Image
	isMember bool
}

// Repack replaces the members of g that have a catalogue image and rebuilds the
// stream. Nothing is mutated when an error is returned or no member has an image.
func (r *Repacker) Repack(g *classify.StreamGroup) (*Result, error) {
	res := &Result{StreamID: g.StreamID}
	if len(g.Members) == 0 {
		return res, nil
	}

	entries := make([]*entry, 0, len(g.Members)+len(g.Passengers))
	replacements := 0
	for _, m := range g.Members {
		e := &entry{member: m, isMember: true}
		img, err := r.images.Load(m.Object.Name, m.Texture.Format)
		switch {
		case errors.Is(err, patch.ErrNotFound):
			slog.Warn("no replacement image", "asset", m.Object.Name, "stream", g.StreamID)
			res.Misses = append(res.Misses, m.Object.Name)
		case err != nil:
			slog.Warn("keeping original texture", "asset", m.Object.Name, "reason", err)
			res.Failures = append(res.Failures, fmt.Errorf("%s: %w", m.Object.Name, err))
		default:
			e.image = img
			replacements++
		}
		entries = append(entries, e)
	}
	for _, m := range g.Passengers {
		entries = append(entries, &entry{member: m})
	}

	if replacements == 0 {
		for _, e := range entries {
			if e.isMember {
				res.Preserved = append(res.Preserved, e.member.Object.Name)
			}
		}
		return res, nil
	}
	if r.rejectPartial && replacements < len(g.Members) {
		return res, fmt.Errorf("%w: %d of %d members in %s", ErrPartialGroup, replacements, len(g.Members), g.StreamID)
	}

	anchor := g.Members[0]
	ref := anchor.Texture.Stream.Path
	old, err := r.codec.Stream(anchor.Object, ref)
	if err != nil {
		return res, fmt.Errorf("read stream %s: %w", g.StreamID, err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].member.Offset() < entries[j].member.Offset()
	})
	if err := checkSource(entries, anchor.Object.Bundle(), int64(len(old))); err != nil {
		return res, fmt.Errorf("stream %s: %w", g.StreamID, err)
	}

	var buf bytes.Buffer
	trees := make([]container.Tree, len(entries))
	originals := make([]container.Tree, 0, len(entries))
	layout := make([]Span, len(entries))
	currentOffset := int64(0)
	for i, e := range entries {
		obj := e.member.Object
		tree, err := r.codec.ReadTree(obj)
		if err != nil {
			return res, fmt.Errorf("read texture %q: %w", obj.Name, err)
		}
		originals = append(originals, container.Clone(tree))

		var size int64
		if e.image != nil {
			buf.Write(e.image.Data)
			size = int64(len(e.image.Data))
			if err := applyReplacement(tree, e.image, currentOffset); err != nil {
				return res, fmt.Errorf("texture %q: %w", obj.Name, err)
			}
		} else {
			src := e.member.Texture.Stream
			buf.Write(old[src.Offset:src.End()])
			size = src.Size
			if err := applyOffset(tree, currentOffset); err != nil {
				return res, fmt.Errorf("texture %q: %w", obj.Name, err)
			}
		}

		trees[i] = tree
		layout[i] = Span{Name: obj.Name, Offset: currentOffset, Size: size, Replaced: e.image != nil}
		currentOffset += size
	}

	stream := buf.Bytes()
	if err := CheckLayout(layout, int64(len(stream))); err != nil {
		return res, fmt.Errorf("stream %s: %w", g.StreamID, err)
	}

	if err := r.codec.ReplaceStream(anchor.Object, ref, stream); err != nil {
		return res, fmt.Errorf("install stream %s: %w", g.StreamID, err)
	}
	for i, e := range entries {
		if err := r.codec.WriteTree(e.member.Object, trees[i]); err != nil {
			err = fmt.Errorf("write texture %q: %w", e.member.Object.Name, err)
			res.Replaced, res.Preserved = nil, nil
			return res, r.rollback(anchor.Object, ref, old, entries[:i], originals, err)
		}
		if !e.isMember {
			continue
		}
		if e.image != nil {
			res.Replaced = append(res.Replaced, e.member.Object.Name)
		} else {
			res.Preserved = append(res.Preserved, e.member.Object.Name)
		}
	}

	res.Layout = layout
	res.StreamSize = int64(len(stream))
	slog.Info("repacked stream", "stream", g.StreamID, "replaced", len(res.Replaced),
		"preserved", len(res.Preserved), "passengers", len(g.Passengers), "size", res.StreamSize)
	return res, nil
}

// rollback reinstalls the original stream and the trees already written.
func (r *Repacker) rollback(anchor *container.Object, ref string, old []byte, written []*entry, originals []container.Tree, cause error) error {
	errs := []error{cause}
	if err := r.codec.ReplaceStream(anchor, ref, old); err != nil {
		errs = append(errs, fmt.Errorf("reinstall stream: %w", err))
	}
	for i, e := range written {
		if err := r.codec.WriteTree(e.member.Object, originals[i]); err != nil {
			errs = append(errs, fmt.Errorf("restore texture %q: %w", e.member.Object.Name, err))
		}
	}
	return errors.Join(errs...)
}

func checkSource(entries []*entry, bundle *container.Node, streamLen int64) error {
	prevEnd := int64(0)
	for i, e := range entries {
		if e.member.Object.Bundle() != bundle {
			return fmt.Errorf("%w: %q", ErrForeignReferent, e.member.Object.Name)
		}
		src := e.member.Texture.Stream
		if src.End() > streamLen {
			return fmt.Errorf("%w: %q ends at %d, stream has %d bytes", ErrOutOfRange, e.member.Object.Name, src.End(), streamLen)
		}
		if i > 0 && src.Offset < prevEnd {
			return fmt.Errorf("%w: %q starts at %d before %d", ErrOverlap, e.member.Object.Name, src.Offset, prevEnd)
		}
		prevEnd = src.End()
	}
	return nil
}

// CheckLayout verifies that spans tile [0, total) in order with no gaps.
func CheckLayout(spans []Span, total int64) error {
	next := int64(0)
	for _, s := range spans {
		if s.Offset != next {
			return fmt.Errorf("%w: %q at %d, expected %d", ErrLayout, s.Name, s.Offset, next)
		}
		next += s.Size
	}
	if next != total {
		return fmt.Errorf("%w: spans cover %d of %d bytes", ErrLayout, next, total)
	}
	return nil
}

func applyReplacement(tree container.Tree, img *patch.Image, offset int64) error {
	tex, err := texture.FromTree(tree)
	if err != nil {
		return err
	}
	if !tex.Streamed() {
		return errors.New("no longer stream backed")
	}
	tex.Stream.Offset = offset
	tex.Stream.Size = int64(len(img.Data))
	tex.Width, tex.Height = img.Width, img.Height
	tex.Format = img.Format
	tex.CompleteImageSize = int64(len(img.Data))
	tex.ImageData = nil
	tex.Apply(tree)
	return nil
}

func applyOffset(tree container.Tree, offset int64) error {
	sd, ok := container.GetMap(tree, texture.KeyStreamData)
	if !ok {
		return fmt.Errorf("missing %s", texture.KeyStreamData)
	}
	sd[texture.KeyStreamOffset] = offset
	return nil
}
