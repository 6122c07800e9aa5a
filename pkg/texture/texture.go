// Package texture provides a typed view over Texture2D property trees.
//
// A texture either carries its pixel payload inline ("image data") or points
// into a shared resource stream through m_StreamData{offset, size, path}.
// The metadata fields below must agree with whichever payload is live.
package texture

import (
	"fmt"

	"github.com/heisthecat31/assetpatch/pkg/container"
)

// Format is the engine's texture format enum.
type Format int

// Texture format values as stored in m_TextureFormat.
const (
	FormatUnknown  Format = 0
	FormatAlpha8   Format = 1
	FormatARGB4444 Format = 2
	FormatRGB24    Format = 3
	FormatRGBA32   Format = 4
	FormatARGB32   Format = 5
	FormatRGB565   Format = 7
	FormatDXT1     Format = 10
	FormatDXT5     Format = 12
	FormatBC6H     Format = 24
	FormatBC7      Format = 25
	FormatBC4      Format = 26
	FormatBC5      Format = 27
)

// Property keys of a Texture2D tree.
const (
	KeyWidth             = "m_Width"
	KeyHeight            = "m_Height"
	KeyFormat            = "m_TextureFormat"
	KeyCompleteImageSize = "m_CompleteImageSize"
	KeyImageData         = "image data"
	KeyStreamData        = "m_StreamData"
	KeyStreamOffset      = "offset"
	KeyStreamSize        = "size"
	KeyStreamPath        = "path"
)

// String returns a human-readable name for the format.
func (f Format) String() string {
	switch f {
	case FormatAlpha8:
		return "Alpha8"
	case FormatARGB4444:
		return "ARGB4444"
	case FormatRGB24:
		return "RGB24"
	case FormatRGBA32:
		return "RGBA32"
	case FormatARGB32:
		return "ARGB32"
	case FormatRGB565:
		return "RGB565"
	case FormatDXT1:
		return "DXT1"
	case FormatDXT5:
		return "DXT5"
	case FormatBC6H:
		return "BC6H"
	case FormatBC7:
		return "BC7"
	case FormatBC4:
		return "BC4"
	case FormatBC5:
		return "BC5"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(f))
	}
}

// BlockCompressed reports whether the format stores 4x4 blocks.
func (f Format) BlockCompressed() bool {
	switch f {
	case FormatDXT1, FormatDXT5, FormatBC4, FormatBC5, FormatBC6H, FormatBC7:
		return true
	}
	return false
}

// ImageSize returns the payload size of a single mip level.
// It returns 0 for formats whose layout is unknown.
func ImageSize(width, height int, f Format) int {
	if width <= 0 || height <= 0 {
		return 0
	}
	if f.BlockCompressed() {
		blockSize := 16
		// DXT1 and BC4 use 8 bytes per block
		if f == FormatDXT1 || f == FormatBC4 {
			blockSize = 8
		}
		blocksWide := (width + 3) / 4
		blocksHigh := (height + 3) / 4
		return blocksWide * blocksHigh * blockSize
	}
	switch f {
	case FormatAlpha8:
		return width * height
	case FormatARGB4444, FormatRGB565:
		return width * height * 2
	case FormatRGB24:
		return width * height * 3
	case FormatRGBA32, FormatARGB32:
		return width * height * 4
	}
	return 0
}

// StreamData locates a texture payload inside a resource stream.
type StreamData struct {
	Offset int64
	Size   int64
	Path   string
}

// End returns the first byte past the payload.
func (s StreamData) End() int64 {
	return s.Offset + s.Size
}

// Texture is the metadata of one Texture2D object.
type Texture struct {
	Name              string
	Width             int
	Height            int
	Format            Format
	CompleteImageSize int64
	ImageData         []byte
	Stream            *StreamData // nil when the payload is inline
}

// FromTree reads the texture fields out of a property tree.
func FromTree(tree container.Tree) (*Texture, error) {
	t := &Texture{}
	t.Name, _ = container.GetString(tree, container.KeyName)

	w, okW := container.GetInt(tree, KeyWidth)
	h, okH := container.GetInt(tree, KeyHeight)
	if !okW || !okH {
		return nil, fmt.Errorf("texture %q: missing dimensions", t.Name)
	}
	t.Width, t.Height = int(w), int(h)

	if f, ok := container.GetInt(tree, KeyFormat); ok {
		t.Format = Format(f)
	}
	t.CompleteImageSize, _ = container.GetInt(tree, KeyCompleteImageSize)
	t.ImageData, _ = container.GetBytes(tree, KeyImageData)

	if sd, ok := container.GetMap(tree, KeyStreamData); ok {
		path, _ := container.GetString(sd, KeyStreamPath)
		if path != "" {
			off, okO := container.GetInt(sd, KeyStreamOffset)
			size, okS := container.GetInt(sd, KeyStreamSize)
			if !okO || !okS || off < 0 || size < 0 {
				return nil, fmt.Errorf("texture %q: invalid stream reference", t.Name)
			}
			t.Stream = &StreamData{Offset: off, Size: size, Path: path}
		}
	}
	return t, nil
}

// Streamed reports whether the payload lives in a shared resource stream.
func (t *Texture) Streamed() bool {
	return t.Stream != nil
}

// Apply writes the texture fields into tree, leaving every other key untouched.
func (t *Texture) Apply(tree container.Tree) {
	tree[KeyWidth] = int64(t.Width)
	tree[KeyHeight] = int64(t.Height)
	tree[KeyFormat] = int64(t.Format)
	tree[KeyCompleteImageSize] = t.CompleteImageSize
	if _, ok := tree[KeyImageData]; ok || len(t.ImageData) > 0 {
		data := t.ImageData
		if data == nil {
			data = []byte{}
		}
		tree[KeyImageData] = data
	}
	if t.Stream != nil {
		sd, ok := container.GetMap(tree, KeyStreamData)
		if !ok {
			sd = container.Tree{}
			tree[KeyStreamData] = sd
		}
		sd[KeyStreamOffset] = t.Stream.Offset
		sd[KeyStreamSize] = t.Stream.Size
		sd[KeyStreamPath] = t.Stream.Path
	}
}

// String returns a human-readable representation.
func (t *Texture) String() string {
	where := "inline"
	if t.Stream != nil {
		where = fmt.Sprintf("stream %s@%d+%d", t.Stream.Path, t.Stream.Offset, t.Stream.Size)
	}
	return fmt.Sprintf("Texture %q: %dx%d, format=%s, size=%d, %s",
		t.Name, t.Width, t.Height, t.Format, t.CompleteImageSize, where)
}
