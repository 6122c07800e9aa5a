package catalogue

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFS() fstest.MapFS {
	return fstest.MapFS{
		"Font/chinese_body_bold.json": {Data: []byte(`{"m_fontInfo":{"Name":"SimSun","PointSize":42},"m_glyphInfoList":[{"id":1}],"extra":true}`)},
		"Font/broken.json":            {Data: []byte(`{"m_fontInfo":`)},
		"Png/chinese_body_Atlas.png":  {Data: []byte{0x89, 'P', 'N', 'G'}},
		"Text/ZH_Credits List.txt":    {Data: []byte("credits")},
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"chinese_body Atlas", "chinese_body_Atlas"},
		{"a/b\\c:d", "abcd"},
		{"name (1).v-2", "name_(1).v-2"},
		{"字体 图集", "字体_图集"},
		{"icon² Ⅻ", "icon²_Ⅻ"},
		{"½ size", "½_size"},
		{"***", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Sanitize(tt.in)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, got, Sanitize(got))
		})
	}
}

func TestResolve(t *testing.T) {
	c := New(sampleFS(), WithAliases(map[string]string{"simsun_tmpro": "chinese_body"}))

	assert.Equal(t, "chinese_body_bold", c.Resolve("do_not_use_chinese_body_bold"))
	assert.Equal(t, "chinese_body_bold", c.Resolve("chinese_body_bold"))
	assert.Equal(t, "chinese_body", c.Resolve("simsun_tmpro"))
	assert.Equal(t, DeprecatedPrefix, c.Resolve(DeprecatedPrefix))
}

func TestLookup(t *testing.T) {
	c := New(sampleFS())

	t.Run("FontViaPrefixAlias", func(t *testing.T) {
		e, err := c.Lookup(KindFont, "do_not_use_chinese_body_bold")
		require.NoError(t, err)
		assert.Equal(t, "chinese_body_bold", e.Name)
		assert.Equal(t, "Font/chinese_body_bold.json", e.Path)

		info, ok := e.Subtree(KeyFontInfo)
		require.True(t, ok)
		assert.Equal(t, "SimSun", info.Get("Name").String())

		glyphs, ok := e.Subtree(KeyGlyphInfoList)
		require.True(t, ok)
		assert.True(t, glyphs.IsArray())

		_, ok = e.Subtree("m_missing")
		assert.False(t, ok)
	})

	t.Run("ImageSanitized", func(t *testing.T) {
		e, err := c.Lookup(KindImage, "chinese_body Atlas")
		require.NoError(t, err)
		assert.Equal(t, KindImage, e.Kind)
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, e.Data)
	})

	t.Run("TextExactName", func(t *testing.T) {
		e, err := c.Lookup(KindText, "ZH_Credits List")
		require.NoError(t, err)
		assert.Equal(t, "credits", string(e.Data))

		_, err = c.Lookup(KindText, "ZH_Credits_List")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Miss", func(t *testing.T) {
		_, err := c.Lookup(KindImage, "chinese_body_bold Atlas")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("EmptyKey", func(t *testing.T) {
		_, err := c.Lookup(KindImage, "???")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("InvalidFontDocument", func(t *testing.T) {
		_, err := c.Lookup(KindFont, "broken")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}

func TestLayout(t *testing.T) {
	fsys := fstest.MapFS{"images/logo.PNG": {Data: []byte("x")}}
	layout := DefaultLayout
	layout.ImageDir, layout.ImageExt = "images", ".PNG"

	c := New(fsys, WithLayout(layout))
	e, err := c.Lookup(KindImage, "logo")
	require.NoError(t, err)
	assert.Equal(t, "images/logo.PNG", e.Path)
}
