package patch

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"testing/fstest"

	"github.com/heisthecat31/assetpatch/pkg/catalogue"
	"github.com/heisthecat31/assetpatch/pkg/container"
	"github.com/heisthecat31/assetpatch/pkg/pixel"
	"github.com/heisthecat31/assetpatch/pkg/texture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testCatalogue(t *testing.T) *catalogue.Catalogue {
	t.Helper()
	return catalogue.New(fstest.MapFS{
		"Font/chinese_body_bold.json": {Data: []byte(`{"m_fontInfo":{"Name":"SimSun","PointSize":42},"m_glyphInfoList":[{"m_ID":1}]}`)},
		"Font/chinese_body.json":      {Data: []byte(`{"m_fontInfo":{"Name":"Body"}}`)},
		"Png/chinese_body_Atlas.png":  {Data: pngBytes(t, 2, 3)},
		"Png/logo.png":                {Data: pngBytes(t, 4, 2)},
		"Png/broken.png":              {Data: []byte("not a png")},
		"Text/ZH_UI.txt":              {Data: []byte("介面")},
		"Text/ZH_Lore.txt":            {Data: []byte{'a', 0xff, 'b'}},
	})
}

func testImages(t *testing.T) *ImageSource {
	return NewImageSource(testCatalogue(t), pixel.NewRawCodec(), 0)
}

// attach places objects in a serialized node so the codec can resolve streams.
func attach(objects ...*container.Object) {
	container.NewSerializedNode("CAB-test", objects...)
}

func readTree(t *testing.T, obj *container.Object) container.Tree {
	t.Helper()
	tree, err := container.NewPackCodec().ReadTree(obj)
	require.NoError(t, err)
	return tree
}

func TestFontPatcher(t *testing.T) {
	codec := container.NewPackCodec()
	p := NewFontPatcher(codec, testCatalogue(t))

	t.Run("BothKeys", func(t *testing.T) {
		obj := container.NewObject(1, "MonoBehaviour", container.Tree{
			"m_Name":          "do_not_use_chinese_body_bold",
			"m_fontInfo":      map[string]any{"Name": "Old"},
			"m_glyphInfoList": []any{},
			"m_Material":      "keep",
		})
		attach(obj)

		require.NoError(t, p.Patch(obj))
		tree := readTree(t, obj)
		assert.Equal(t, map[string]any{"Name": "SimSun", "PointSize": 42.0}, tree["m_fontInfo"])
		assert.Equal(t, []any{map[string]any{"m_ID": 1.0}}, tree["m_glyphInfoList"])
		assert.Equal(t, "keep", tree["m_Material"])
	})

	t.Run("OnlyKeysInDocument", func(t *testing.T) {
		obj := container.NewObject(2, "MonoBehaviour", container.Tree{
			"m_Name":          "chinese_body",
			"m_glyphInfoList": []any{"old"},
		})
		attach(obj)

		require.NoError(t, p.Patch(obj))
		tree := readTree(t, obj)
		assert.Equal(t, map[string]any{"Name": "Body"}, tree["m_fontInfo"])
		assert.Equal(t, []any{"old"}, tree["m_glyphInfoList"])
	})

	t.Run("Miss", func(t *testing.T) {
		obj := container.NewObject(3, "MonoBehaviour", container.Tree{"m_Name": "english_body"})
		attach(obj)
		assert.ErrorIs(t, p.Patch(obj), ErrNotFound)
	})
}

func TestMaterialPatcher(t *testing.T) {
	codec := container.NewPackCodec()

	t.Run("RewritesInPlace", func(t *testing.T) {
		obj := container.NewObject(1, "Material", container.Tree{
			"m_Name": "simsun_tmpro Material",
			"m_SavedProperties": map[string]any{
				"m_Floats": []any{
					[]any{"_TextureHeight", 2048.0},
					[]any{"_TextureWidth", 2048.0},
					[]any{"_Other", 1.0},
				},
				"m_Colors": []any{},
			},
		})
		attach(obj)

		require.NoError(t, NewMaterialPatcher(codec, 0).Patch(obj))
		props := readTree(t, obj)["m_SavedProperties"].(map[string]any)
		assert.Equal(t, []any{
			[]any{"_TextureHeight", 4096.0},
			[]any{"_TextureWidth", 4096.0},
			[]any{"_Other", 1.0},
		}, props["m_Floats"])
		assert.Equal(t, []any{}, props["m_Colors"])
	})

	t.Run("AppendsMissing", func(t *testing.T) {
		obj := container.NewObject(2, "Material", container.Tree{
			"m_Name": "chinese_body_bold Material",
			"m_SavedProperties": map[string]any{
				"m_Floats": []any{
					[]any{"_TextureWidth", 512.0},
					[]any{"_Other", 1.0},
				},
			},
		})
		attach(obj)

		require.NoError(t, NewMaterialPatcher(codec, 1024).Patch(obj))
		props := readTree(t, obj)["m_SavedProperties"].(map[string]any)
		assert.Equal(t, []any{
			[]any{"_TextureWidth", 1024.0},
			[]any{"_Other", 1.0},
			[]any{"_TextureHeight", 1024.0},
		}, props["m_Floats"])
	})

	t.Run("MissingFloats", func(t *testing.T) {
		original := container.Tree{
			"m_Name":            "simsun_tmpro Material",
			"m_SavedProperties": map[string]any{"m_TexEnvs": []any{}},
		}
		obj := container.NewObject(3, "Material", container.Clone(original))
		attach(obj)

		err := NewMaterialPatcher(codec, 0).Patch(obj)
		assert.ErrorIs(t, err, ErrStructuralMismatch)
		assert.Equal(t, original, readTree(t, obj))
	})
}

func TestSetFloats(t *testing.T) {
	floats := []any{[]any{"a", 1.0}, "garbage", []any{"b"}}
	out := SetFloats(floats, 2, "a", "c")
	assert.Equal(t, []any{[]any{"a", 2.0}, "garbage", []any{"b"}, []any{"c", 2.0}}, out)
	// input untouched
	assert.Equal(t, []any{"a", 1.0}, floats[0])
}

func TestTexturePatcher(t *testing.T) {
	codec := container.NewPackCodec()
	p := NewTexturePatcher(codec, testImages(t))

	t.Run("Inline", func(t *testing.T) {
		obj := container.NewObject(1, "Texture2D", container.Tree{
			"m_Name":              "chinese_body Atlas",
			"m_Width":             16.0,
			"m_Height":            16.0,
			"m_TextureFormat":     float64(texture.FormatBC7),
			"m_CompleteImageSize": 256.0,
			"image data":          []byte{1, 2, 3},
			"m_StreamData":        map[string]any{"offset": 0.0, "size": 0.0, "path": ""},
		})
		attach(obj)

		require.NoError(t, p.Patch(obj))
		tex, err := texture.FromTree(readTree(t, obj))
		require.NoError(t, err)
		assert.Equal(t, 2, tex.Width)
		assert.Equal(t, 3, tex.Height)
		assert.Equal(t, texture.FormatRGBA32, tex.Format)
		assert.Equal(t, int64(2*3*4), tex.CompleteImageSize)
		assert.Len(t, tex.ImageData, 2*3*4)
		assert.False(t, tex.Streamed())
	})

	t.Run("StreamBacked", func(t *testing.T) {
		obj := container.NewObject(2, "Texture2D", container.Tree{
			"m_Name":       "chinese_body Atlas",
			"m_Width":      16.0,
			"m_Height":     16.0,
			"m_StreamData": map[string]any{"offset": 0.0, "size": 4.0, "path": "CAB-test.resS"},
		})
		attach(obj)
		assert.ErrorIs(t, p.Patch(obj), ErrUnsupported)
	})

	t.Run("Miss", func(t *testing.T) {
		obj := container.NewObject(3, "Texture2D", container.Tree{
			"m_Name": "chinese_body_bold Atlas", "m_Width": 1.0, "m_Height": 1.0,
		})
		attach(obj)
		assert.ErrorIs(t, p.Patch(obj), ErrNotFound)
	})

	t.Run("BrokenImage", func(t *testing.T) {
		obj := container.NewObject(4, "Texture2D", container.Tree{
			"m_Name": "broken", "m_Width": 1.0, "m_Height": 1.0, "image data": []byte{7},
		})
		attach(obj)
		assert.ErrorIs(t, p.Patch(obj), ErrEncode)
		assert.Equal(t, []byte{7}, readTree(t, obj)["image data"])
	})
}

func TestTextPatcher(t *testing.T) {
	codec := container.NewPackCodec()
	p := NewTextPatcher(codec, testCatalogue(t))

	t.Run("ValidUTF8", func(t *testing.T) {
		obj := container.NewObject(1, "TextAsset", container.Tree{"m_Name": "ZH_UI", "m_Script": "old"})
		attach(obj)
		require.NoError(t, p.Patch(obj))
		assert.Equal(t, "介面", readTree(t, obj)["m_Script"])
	})

	t.Run("InvalidBytesPreserved", func(t *testing.T) {
		obj := container.NewObject(2, "TextAsset", container.Tree{"m_Name": "ZH_Lore", "m_Script": "old"})
		attach(obj)
		require.NoError(t, p.Patch(obj))
		assert.Equal(t, []byte{'a', 0xff, 'b'}, readTree(t, obj)["m_Script"])
	})

	t.Run("NotTarget", func(t *testing.T) {
		obj := container.NewObject(3, "TextAsset", container.Tree{"m_Name": "EN_UI"})
		attach(obj)
		assert.ErrorIs(t, p.Patch(obj), ErrNotTarget)
	})

	t.Run("Miss", func(t *testing.T) {
		obj := container.NewObject(4, "TextAsset", container.Tree{"m_Name": "ZH_Wilds", "m_Script": "old"})
		attach(obj)
		assert.ErrorIs(t, p.Patch(obj), ErrNotFound)
		assert.Equal(t, "old", readTree(t, obj)["m_Script"])
	})

	t.Run("CustomList", func(t *testing.T) {
		custom := NewTextPatcher(codec, testCatalogue(t), "EN_UI")
		obj := container.NewObject(5, "TextAsset", container.Tree{"m_Name": "ZH_UI"})
		attach(obj)
		assert.ErrorIs(t, custom.Patch(obj), ErrNotTarget)
	})
}

func titleHandle(extra ...*container.Object) (*container.Handle, *container.Object, *container.Node) {
	logo := container.NewObject(1, "Texture2D", container.Tree{
		"m_Name":              TitleTexture,
		"m_Width":             1024.0,
		"m_Height":            1024.0,
		"m_TextureFormat":     float64(texture.FormatBC7),
		"m_CompleteImageSize": 8.0,
		"image data":          []byte{},
		"m_StreamData": map[string]any{
			"offset": 0.0,
			"size":   8.0,
			"path":   "archive:/CAB-title/CAB-title.resS",
		},
	})
	stream := container.NewStreamNode("CAB-title.resS", []byte{1, 2, 3, 4, 5, 6, 7, 8})
	objects := append([]*container.Object{logo}, extra...)
	root := container.NewBundleNode("title.bundle",
		container.NewSerializedNode("CAB-title", objects...),
		stream,
	)
	return container.NewHandle("title.bundle", root), logo, stream
}

func TestTitlePatcher(t *testing.T) {
	codec := container.NewPackCodec()

	t.Run("SoleReferent", func(t *testing.T) {
		h, logo, stream := titleHandle()
		require.NoError(t, NewTitlePatcher(codec, testImages(t)).Patch(h))

		tex, err := texture.FromTree(readTree(t, logo))
		require.NoError(t, err)
		assert.Equal(t, 4, tex.Width)
		assert.Equal(t, 2, tex.Height)
		assert.Equal(t, texture.FormatRGBA32, tex.Format)
		require.True(t, tex.Streamed())
		assert.Equal(t, int64(0), tex.Stream.Offset)
		assert.Equal(t, int64(len(stream.Data)), tex.Stream.Size)
		assert.Equal(t, int64(4*2*4), tex.CompleteImageSize)
		assert.Empty(t, tex.ImageData)
	})

	t.Run("SharedStream", func(t *testing.T) {
		other := container.NewObject(2, "Texture2D", container.Tree{
			"m_Name": "other", "m_Width": 1.0, "m_Height": 1.0,
			"m_StreamData": map[string]any{"offset": 8.0, "size": 0.0, "path": "CAB-title.resS"},
		})
		h, _, stream := titleHandle(other)

		err := NewTitlePatcher(codec, testImages(t)).Patch(h)
		assert.ErrorIs(t, err, ErrUnsupported)
		assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, stream.Data)
	})

	t.Run("Inline", func(t *testing.T) {
		logo := container.NewObject(1, "Texture2D", container.Tree{
			"m_Name": TitleTexture, "m_Width": 1.0, "m_Height": 1.0, "image data": []byte{0},
		})
		h := container.NewHandle("title.bundle", container.NewBundleNode("title.bundle",
			container.NewSerializedNode("CAB-title", logo)))

		require.NoError(t, NewTitlePatcher(codec, testImages(t)).Patch(h))
		assert.Len(t, readTree(t, logo)["image data"], 4*2*4)
	})

	t.Run("MissingImage", func(t *testing.T) {
		h, _, stream := titleHandle()
		empty := NewImageSource(catalogue.New(fstest.MapFS{}), pixel.NewRawCodec(), 0)

		assert.ErrorIs(t, NewTitlePatcher(codec, empty).Patch(h), ErrNotFound)
		assert.Len(t, stream.Data, 8)
	})

	t.Run("MissingTexture", func(t *testing.T) {
		h := container.NewHandle("title.bundle", container.NewBundleNode("title.bundle"))
		assert.ErrorIs(t, NewTitlePatcher(codec, testImages(t)).Patch(h), ErrNotFound)
	})
}
