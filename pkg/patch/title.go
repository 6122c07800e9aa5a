package patch

import (
	"fmt"

	"github.com/heisthecat31/assetpatch/pkg/container"
	"github.com/heisthecat31/assetpatch/pkg/texture"
)

const (
	// TitleTexture is the title-screen logo atlas.
	TitleTexture = "sactx-0-1024x1024-BC7-Title-228dda81"
	// TitleImage is the catalogue image (Png/logo.png) replacing it.
	TitleImage = "logo"
)

// TitlePatcher replaces the title-screen logo in the title atlas bundle.
type TitlePatcher struct {
	codec    container.Codec
	textures *TexturePatcher
	images   *ImageSource
	target   string
	image    string
}

// NewTitlePatcher creates a TitlePatcher for TitleTexture and TitleImage.
func NewTitlePatcher(codec container.Codec, images *ImageSource) *TitlePatcher {
	return &TitlePatcher{
		codec:    codec,
		textures: NewTexturePatcher(codec, images),
		images:   images,
		target:   TitleTexture,
		image:    TitleImage,
	}
}

// Patch finds the logo texture in h and swaps its payload. A stream-backed
// logo is only rewritten when it is the sole referent of its stream, since the
// stream is replaced wholesale.
func (p *TitlePatcher) Patch(h *container.Handle) error {
	objects := p.codec.Objects(h)

	var obj *container.Object
	for _, o := range objects {
		if o.Kind == container.KindTexture2D && o.Name == p.target {
			obj = o
			break
		}
	}
	if obj == nil {
		return fmt.Errorf("%w: texture %q not in %s", ErrNotFound, p.target, h.Path)
	}

	tree, err := p.codec.ReadTree(obj)
	if err != nil {
		return fmt.Errorf("read texture %q: %w", obj.Name, err)
	}
	tex, err := texture.FromTree(tree)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStructuralMismatch, err)
	}
	if !tex.Streamed() {
		return p.textures.patchAs(obj, p.image)
	}

	shared, err := p.sharesStream(objects, obj, tex.Stream.Path)
	if err != nil {
		return err
	}
	if shared {
		return fmt.Errorf("%w: stream %s of %q has other referents", ErrUnsupported, tex.Stream.Path, obj.Name)
	}

	img, err := p.images.Load(p.image, tex.Format)
	if err != nil {
		return err
	}

	tex.Stream.Offset = 0
	tex.Stream.Size = int64(len(img.Data))
	tex.Width, tex.Height = img.Width, img.Height
	tex.Format = img.Format
	tex.CompleteImageSize = int64(len(img.Data))
	tex.ImageData = nil
	tex.Apply(tree)

	if err := p.codec.ReplaceStream(obj, tex.Stream.Path, img.Data); err != nil {
		return fmt.Errorf("replace stream %s: %w", tex.Stream.Path, err)
	}
	if err := p.codec.WriteTree(obj, tree); err != nil {
		return fmt.Errorf("write texture %q: %w", obj.Name, err)
	}
	return nil
}

func (p *TitlePatcher) sharesStream(objects []*container.Object, target *container.Object, ref string) (bool, error) {
	name := container.StreamName(ref)
	for _, o := range objects {
		if o == target || o.Kind != container.KindTexture2D || o.Bundle() == nil || o.Bundle() != target.Bundle() {
			continue
		}
		tree, err := p.codec.ReadTree(o)
		if err != nil {
			return false, fmt.Errorf("read texture %q: %w", o.Name, err)
		}
		tex, err := texture.FromTree(tree)
		if err != nil {
			continue
		}
		if tex.Streamed() && container.StreamName(tex.Stream.Path) == name {
			return true, nil
		}
	}
	return false, nil
}

