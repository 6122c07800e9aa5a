package patch

import (
	"errors"
	"fmt"

	"github.com/heisthecat31/assetpatch/pkg/catalogue"
	"github.com/heisthecat31/assetpatch/pkg/container"
)

// FontPatcher copies font metrics from catalogue documents into font assets.
type FontPatcher struct {
	store TreeStore
	fonts catalogue.Lookup
}

// NewFontPatcher creates a FontPatcher.
func NewFontPatcher(store TreeStore, fonts catalogue.Lookup) *FontPatcher {
	return &FontPatcher{store: store, fonts: fonts}
}

// Patch overwrites m_fontInfo and m_glyphInfoList with the document's values.
// Keys absent from the document are left as they are.
func (p *FontPatcher) Patch(obj *container.Object) error {
	entry, err := p.fonts.Lookup(catalogue.KindFont, obj.Name)
	if errors.Is(err, catalogue.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if err != nil {
		return err
	}

	tree, err := p.store.ReadTree(obj)
	if err != nil {
		return fmt.Errorf("read font %q: %w", obj.Name, err)
	}

	for _, key := range []string{catalogue.KeyFontInfo, catalogue.KeyGlyphInfoList} {
		if sub, ok := entry.Subtree(key); ok {
			tree[key] = sub.Value()
		}
	}

	if err := p.store.WriteTree(obj, tree); err != nil {
		return fmt.Errorf("write font %q: %w", obj.Name, err)
	}
	return nil
}
