package patch

import (
	"fmt"

	"github.com/heisthecat31/assetpatch/pkg/container"
)

// DefaultDimension is the atlas size the localized fonts are rendered at.
const DefaultDimension = 4096.0

// Material property keys.
const (
	KeySavedProperties = "m_SavedProperties"
	KeyFloats          = "m_Floats"
	KeyTextureHeight   = "_TextureHeight"
	KeyTextureWidth    = "_TextureWidth"
)

// MaterialPatcher points font materials at the enlarged atlas.
type MaterialPatcher struct {
	store     TreeStore
	dimension float64
}

// NewMaterialPatcher creates a MaterialPatcher. A non-positive dimension
// selects DefaultDimension.
func NewMaterialPatcher(store TreeStore, dimension float64) *MaterialPatcher {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &MaterialPatcher{store: store, dimension: dimension}
}

// Patch sets _TextureHeight and _TextureWidth in m_SavedProperties.m_Floats,
// appending them (height first) when missing. Other entries keep their order.
func (p *MaterialPatcher) Patch(obj *container.Object) error {
	tree, err := p.store.ReadTree(obj)
	if err != nil {
		return fmt.Errorf("read material %q: %w", obj.Name, err)
	}

	props, ok := container.GetMap(tree, KeySavedProperties)
	if !ok {
		return fmt.Errorf("%w: material %q has no %s", ErrStructuralMismatch, obj.Name, KeySavedProperties)
	}
	floats, ok := container.GetArray(props, KeyFloats)
	if !ok {
		return fmt.Errorf("%w: material %q has no %s.%s", ErrStructuralMismatch, obj.Name, KeySavedProperties, KeyFloats)
	}

	props[KeyFloats] = SetFloats(floats, p.dimension, KeyTextureHeight, KeyTextureWidth)

	if err := p.store.WriteTree(obj, tree); err != nil {
		return fmt.Errorf("write material %q: %w", obj.Name, err)
	}
	return nil
}

// SetFloats returns a copy of a [name, value] pair list with every named entry
// set to value. Names not present are appended in argument order.
func SetFloats(floats []any, value float64, names ...string) []any {
	out := make([]any, 0, len(floats)+len(names))
	seen := make(map[string]bool, len(names))
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	for _, entry := range floats {
		name, ok := pairName(entry)
		if ok && want[name] {
			seen[name] = true
			out = append(out, []any{name, value})
			continue
		}
		out = append(out, entry)
	}
	for _, n := range names {
		if !seen[n] {
			out = append(out, []any{n, value})
		}
	}
	return out
}

func pairName(entry any) (string, bool) {
	pair, ok := entry.([]any)
	if !ok || len(pair) != 2 {
		return "", false
	}
	name, ok := pair[0].(string)
	return name, ok
}
