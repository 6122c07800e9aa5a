// Package catalogue looks up replacement payloads by asset name.
//
// The catalogue is a read-only directory tree with one subfolder per kind:
//
//	Font/<name>.json       font metric documents
//	Png/<sanitized>.png    replacement images
//	Text/<name>.txt        localized text blobs
//
// Font and image names are alias-resolved and sanitized before lookup; text
// blob names are already canonical and are used verbatim.
package catalogue

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"
)

// ErrNotFound reports a catalogue miss. It is not fatal: callers skip the asset.
var ErrNotFound = errors.New("catalogue entry not found")

// Kind selects a catalogue subfolder.
type Kind int

const (
	KindFont Kind = iota
	KindImage
	KindText
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindFont:
		return "font"
	case KindImage:
		return "image"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Font document keys copied into font assets.
const (
	KeyFontInfo      = "m_fontInfo"
	KeyGlyphInfoList = "m_glyphInfoList"
)

// DeprecatedPrefix marks placeholder assets that share a catalogue entry with
// their un-prefixed counterpart.
const DeprecatedPrefix = "do_not_use_"

// Layout describes where each kind lives inside the catalogue root.
type Layout struct {
	FontDir  string
	ImageDir string
	TextDir  string
	FontExt  string
	ImageExt string
	TextExt  string
}

// DefaultLayout is the folder layout shipped with the localization pack.
var DefaultLayout = Layout{
	FontDir:  "Font",
	ImageDir: "Png",
	TextDir:  "Text",
	FontExt:  ".json",
	ImageExt: ".png",
	TextExt:  ".txt",
}

// Entry is one immutable catalogue payload.
type Entry struct {
	Kind Kind
	Name string // lookup key after alias resolution and sanitization
	Path string // path inside the catalogue
	Data []byte
}

// Subtree returns the raw JSON of a top-level key of a font document.
func (e *Entry) Subtree(key string) (gjson.Result, bool) {
	r := gjson.GetBytes(e.Data, gjson.Escape(key))
	return r, r.Exists()
}

// Catalogue resolves asset names to payloads.
type Catalogue struct {
	fsys    fs.FS
	layout  Layout
	aliases map[string]string
}

// Option configures a Catalogue.
type Option func(*Catalogue)

// WithLayout overrides the folder layout.
func WithLayout(l Layout) Option {
	return func(c *Catalogue) {
		c.layout = l
	}
}

// WithAliases adds explicit alias entries, applied before the prefix rule.
func WithAliases(aliases map[string]string) Option {
	return func(c *Catalogue) {
		for k, v := range aliases {
			c.aliases[k] = v
		}
	}
}

// New creates a catalogue backed by fsys.
func New(fsys fs.FS, opts ...Option) *Catalogue {
	c := &Catalogue{
		fsys:    fsys,
		layout:  DefaultLayout,
		aliases: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve applies the alias rules to an asset name.
func (c *Catalogue) Resolve(name string) string {
	if target, ok := c.aliases[name]; ok {
		return target
	}
	if strings.HasPrefix(name, DeprecatedPrefix) && len(name) > len(DeprecatedPrefix) {
		return strings.TrimPrefix(name, DeprecatedPrefix)
	}
	return name
}

// Key returns the lookup key for an asset name of the given kind.
func (c *Catalogue) Key(kind Kind, name string) string {
	if kind == KindText {
		return name
	}
	return Sanitize(c.Resolve(name))
}

// Lookup loads the payload for an asset. A miss returns ErrNotFound.
func (c *Catalogue) Lookup(kind Kind, rawName string) (*Entry, error) {
	key := c.Key(kind, rawName)
	if key == "" {
		return nil, fmt.Errorf("%w: %s %q has no usable name", ErrNotFound, kind, rawName)
	}

	var dir, ext string
	switch kind {
	case KindFont:
		dir, ext = c.layout.FontDir, c.layout.FontExt
	case KindImage:
		dir, ext = c.layout.ImageDir, c.layout.ImageExt
	case KindText:
		dir, ext = c.layout.TextDir, c.layout.TextExt
	default:
		return nil, fmt.Errorf("unknown catalogue kind %d", kind)
	}

	p := path.Join(dir, key+ext)
	if !fs.ValidPath(p) {
		return nil, fmt.Errorf("%w: %s %q maps to invalid path %q", ErrNotFound, kind, rawName, p)
	}
	data, err := fs.ReadFile(c.fsys, p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	if kind == KindFont && !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("font document %s is not valid JSON", p)
	}

	return &Entry{Kind: kind, Name: key, Path: p, Data: data}, nil
}

// Lookup is satisfied by *Catalogue; patchers depend on this narrower view.
type Lookup interface {
	Lookup(kind Kind, rawName string) (*Entry, error)
}

// Sanitize keeps letters, numbers (including ² or Ⅻ), spaces and ". - _ ( )", drops everything else,
// then turns spaces into underscores.
func Sanitize(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			sb.WriteRune(r)
		case r == ' ':
			sb.WriteByte('_')
		case strings.ContainsRune(".-_()", r):
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
