package patch

import (
	"fmt"

	"github.com/heisthecat31/assetpatch/pkg/container"
	"github.com/heisthecat31/assetpatch/pkg/texture"
)

// TexturePatcher replaces the inline payload of standalone textures.
type TexturePatcher struct {
	store  TreeStore
	images *ImageSource
}

// NewTexturePatcher creates a TexturePatcher.
func NewTexturePatcher(store TreeStore, images *ImageSource) *TexturePatcher {
	return &TexturePatcher{store: store, images: images}
}

// Patch encodes the catalogue image for obj and stores it inline.
// Stream-backed textures are repacked per stream and are rejected here.
func (p *TexturePatcher) Patch(obj *container.Object) error {
	return p.patchAs(obj, obj.Name)
}

func (p *TexturePatcher) patchAs(obj *container.Object, imageName string) error {
	tree, err := p.store.ReadTree(obj)
	if err != nil {
		return fmt.Errorf("read texture %q: %w", obj.Name, err)
	}
	tex, err := texture.FromTree(tree)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStructuralMismatch, err)
	}
	if tex.Streamed() {
		return fmt.Errorf("%w: texture %q is stream backed", ErrUnsupported, obj.Name)
	}

	img, err := p.images.Load(imageName, tex.Format)
	if err != nil {
		return err
	}

	tex.ImageData = img.Data
	tex.Width, tex.Height = img.Width, img.Height
	tex.Format = img.Format
	tex.CompleteImageSize = int64(len(img.Data))
	tex.Apply(tree)

	if err := p.store.WriteTree(obj, tree); err != nil {
		return fmt.Errorf("write texture %q: %w", obj.Name, err)
	}
	return nil
}
