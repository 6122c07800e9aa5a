package patch

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/heisthecat31/assetpatch/pkg/catalogue"
	"github.com/heisthecat31/assetpatch/pkg/container"
)

// KeyScript holds the body of a text blob.
const KeyScript = "m_Script"

// DefaultTextAssets lists the localized text blobs shipped by the catalogue.
var DefaultTextAssets = []string{
	"ZH_Achievements", "ZH_AutoSaveNames", "ZH_Belltown", "ZH_Bonebottom",
	"ZH_Caravan", "ZH_City", "ZH_Coral", "ZH_Crawl", "ZH_Credits List",
	"ZH_Deprecated", "ZH_Dust", "ZH_Enclave", "ZH_Error", "ZH_Fast Travel",
	"ZH_Forge", "ZH_General", "ZH_Greymoor", "ZH_Inspect", "ZH_Journal",
	"ZH_Lore", "ZH_MainMenu", "ZH_Map Zones", "ZH_Peak", "ZH_Pilgrims",
	"ZH_Prompts", "ZH_Quests", "ZH_Shellwood", "ZH_Shop", "ZH_Song",
	"ZH_Titles", "ZH_Tools", "ZH_UI", "ZH_Under", "ZH_Wanderers", "ZH_Weave",
	"ZH_Wilds",
}

// TextPatcher replaces allow-listed text blobs.
type TextPatcher struct {
	store TreeStore
	texts catalogue.Lookup
	allow map[string]bool
}

// NewTextPatcher creates a TextPatcher for the given names. No names selects
// DefaultTextAssets.
func NewTextPatcher(store TreeStore, texts catalogue.Lookup, names ...string) *TextPatcher {
	if len(names) == 0 {
		names = DefaultTextAssets
	}
	allow := make(map[string]bool, len(names))
	for _, n := range names {
		allow[n] = true
	}
	return &TextPatcher{store: store, texts: texts, allow: allow}
}

// Patch stores the catalogue text in m_Script. Objects outside the allow-list
// return ErrNotTarget.
func (p *TextPatcher) Patch(obj *container.Object) error {
	if !p.allow[obj.Name] {
		return ErrNotTarget
	}

	entry, err := p.texts.Lookup(catalogue.KindText, obj.Name)
	if errors.Is(err, catalogue.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if err != nil {
		return err
	}

	tree, err := p.store.ReadTree(obj)
	if err != nil {
		return fmt.Errorf("read text %q: %w", obj.Name, err)
	}
	tree[KeyScript] = ScriptValue(entry.Data)

	if err := p.store.WriteTree(obj, tree); err != nil {
		return fmt.Errorf("write text %q: %w", obj.Name, err)
	}
	return nil
}

// ScriptValue returns data as a string when it is valid UTF-8. Invalid input is
// kept as raw bytes so every byte survives re-serialization.
func ScriptValue(data []byte) any {
	if utf8.Valid(data) {
		return string(data)
	}
	return append([]byte(nil), data...)
}
