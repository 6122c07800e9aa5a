package patch

import (
	"errors"
	"fmt"

	"github.com/heisthecat31/assetpatch/pkg/catalogue"
	"github.com/heisthecat31/assetpatch/pkg/pixel"
	"github.com/heisthecat31/assetpatch/pkg/texture"
)

// Image is an encoded replacement texture payload.
type Image struct {
	Data   []byte
	Width  int
	Height int
	Format texture.Format
}

// ImageSource loads catalogue images and encodes them for a texture.
type ImageSource struct {
	images   catalogue.Lookup
	pixels   pixel.Codec
	platform int
}

// NewImageSource creates an ImageSource. platform is passed through to the pixel codec.
func NewImageSource(images catalogue.Lookup, pixels pixel.Codec, platform int) *ImageSource {
	return &ImageSource{images: images, pixels: pixels, platform: platform}
}

// Load resolves name in the image catalogue and encodes it, using hint as the
// preferred format. The returned format is the one the codec actually produced.
func (s *ImageSource) Load(name string, hint texture.Format) (*Image, error) {
	entry, err := s.images.Lookup(catalogue.KindImage, name)
	if errors.Is(err, catalogue.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if err != nil {
		return nil, err
	}

	img, err := s.pixels.Decode(entry.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEncode, entry.Path, err)
	}
	data, format, err := s.pixels.Encode(img, hint, s.platform)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEncode, entry.Path, err)
	}

	b := img.Bounds()
	return &Image{Data: data, Width: b.Dx(), Height: b.Dy(), Format: format}, nil
}
