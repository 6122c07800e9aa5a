// Package pixel decodes replacement images and encodes them into texture payloads.
package pixel

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/transform"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/heisthecat31/assetpatch/pkg/texture"
)

// ErrEmptyImage is returned for images with no pixels.
var ErrEmptyImage = errors.New("image has no pixels")

// Codec converts between source images and texture payloads.
type Codec interface {
	// Decode parses an encoded image file.
	Decode(data []byte) (image.Image, error)
	// Encode produces a texture payload. hint is the texture's current format;
	// the returned format is the one actually used and may differ from hint.
	Encode(img image.Image, hint texture.Format, platform int) ([]byte, texture.Format, error)
}

// RawCodec emits uncompressed payloads. Block-compressed hints fall back to RGBA32.
type RawCodec struct{}

// NewRawCodec creates a RawCodec.
func NewRawCodec() *RawCodec {
	return &RawCodec{}
}

// Decode parses PNG, JPEG, BMP or WebP data.
func (RawCodec) Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	return img, nil
}

// Encode flips the image vertically (textures are stored bottom row first) and
// packs it as Alpha8, RGB24 or RGBA32.
func (RawCodec) Encode(img image.Image, hint texture.Format, platform int) ([]byte, texture.Format, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, texture.FormatUnknown, ErrEmptyImage
	}
	rgba := clone.AsRGBA(transform.FlipV(img))
	w, h := rgba.Bounds().Dx(), rgba.Bounds().Dy()

	format := actualFormat(hint)
	out := make([]byte, 0, texture.ImageSize(w, h, format))
	for y := 0; y < h; y++ {
		row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
		for x := 0; x < w*4; x += 4 {
			switch format {
			case texture.FormatAlpha8:
				out = append(out, row[x+3])
			case texture.FormatRGB24:
				out = append(out, row[x], row[x+1], row[x+2])
			default:
				out = append(out, row[x], row[x+1], row[x+2], row[x+3])
			}
		}
	}
	return out, format, nil
}

func actualFormat(hint texture.Format) texture.Format {
	switch hint {
	case texture.FormatAlpha8, texture.FormatRGB24, texture.FormatRGBA32:
		return hint
	default:
		return texture.FormatRGBA32
	}
}
