// Package platform locates the game's data files for each supported OS.
package platform

import (
	"errors"
	"fmt"
	"path/filepath"
)

var ErrUnsupported = errors.New("unsupported platform")

// Build target ids passed to the pixel codec.
const (
	TargetOSX          = 2
	TargetWindows64    = 19
	TargetLinux64      = 24
	fontBundleName     = "fonts_assets_chinese.bundle"
	textAssetsName     = "resources.assets"
	streamingAssetsDir = "StreamingAssets"
)

var titleBundle = []string{"atlases_assets_assets", "sprites", "_atlases", "title.spriteatlas.bundle"}

// Paths are the absolute locations of the managed files for one install.
type Paths struct {
	Name        string
	Target      int
	DataDir     string
	PlatformDir string
	FontBundle  string
	TextAssets  string
	TitleBundle string
}

// Files returns the managed files in processing order.
func (p Paths) Files() []string {
	return []string{p.FontBundle, p.TextAssets, p.TitleBundle}
}

type layout struct {
	name     string
	target   int
	dataDir  []string
	platform string
}

var layouts = map[string]layout{
	"windows": {
		name:     "Windows",
		target:   TargetWindows64,
		dataDir:  []string{"Hollow Knight Silksong_Data"},
		platform: "StandaloneWindows64",
	},
	"darwin": {
		name:     "macOS",
		target:   TargetOSX,
		dataDir:  []string{"Hollow Knight Silksong.app", "Contents", "Resources", "Data"},
		platform: "StandaloneOSX",
	},
	"linux": {
		name:     "Linux",
		target:   TargetLinux64,
		dataDir:  []string{"Hollow Knight Silksong_Data"},
		platform: "StandaloneLinux64",
	},
}

// Detect returns the data file layout for goos below the game root.
func Detect(goos, root string) (Paths, error) {
	l, ok := layouts[goos]
	if !ok {
		return Paths{}, fmt.Errorf("%w: %s", ErrUnsupported, goos)
	}

	data := filepath.Join(append([]string{root}, l.dataDir...)...)
	plat := filepath.Join(data, streamingAssetsDir, "aa", l.platform)
	return Paths{
		Name:        l.name,
		Target:      l.target,
		DataDir:     data,
		PlatformDir: plat,
		FontBundle:  filepath.Join(plat, fontBundleName),
		TextAssets:  filepath.Join(data, textAssetsName),
		TitleBundle: filepath.Join(append([]string{plat}, titleBundle...)...),
	}, nil
}
