// Package pipeline runs a full patch of the game's data files.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/heisthecat31/assetpatch/internal/config"
	"github.com/heisthecat31/assetpatch/internal/txn"
	"github.com/heisthecat31/assetpatch/pkg/catalogue"
	"github.com/heisthecat31/assetpatch/pkg/classify"
	"github.com/heisthecat31/assetpatch/pkg/container"
	"github.com/heisthecat31/assetpatch/pkg/patch"
	"github.com/heisthecat31/assetpatch/pkg/pixel"
	"github.com/heisthecat31/assetpatch/pkg/repack"
)

var (
	// ErrIncomplete is returned by Patch when some assets failed; live files are untouched.
	ErrIncomplete = errors.New("patching incomplete, game files left unchanged")
	// ErrNotLoaded is returned by Serialize before Run has loaded every container.
	ErrNotLoaded = errors.New("container not loaded")
)

// Pipeline patches the font bundle, the text assets and the title bundle.
type Pipeline struct {
	settings  config.Settings
	codec     container.Codec
	pixels    pixel.Codec
	catalogue catalogue.Lookup
	lists     classify.AllowLists
	texts     []string
	repackOps []repack.Option
	out       io.Writer

	handles map[string]*container.Handle
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithAllowLists overrides the font, material and texture allow-lists.
func WithAllowLists(l classify.AllowLists) Option {
	return func(p *Pipeline) {
		p.lists = l
	}
}

// WithTextAssets overrides the text blob allow-list.
func WithTextAssets(names ...string) Option {
	return func(p *Pipeline) {
		p.texts = names
	}
}

// WithStrictGroups fails stream groups where only some textures have a replacement.
func WithStrictGroups() Option {
	return func(p *Pipeline) {
		p.repackOps = append(p.repackOps, repack.WithRejectPartial())
	}
}

// WithOutput sets where progress messages are printed.
func WithOutput(w io.Writer) Option {
	return func(p *Pipeline) {
		p.out = w
	}
}

// New creates a Pipeline.
func New(s config.Settings, codec container.Codec, pixels pixel.Codec, cat catalogue.Lookup, opts ...Option) *Pipeline {
	p := &Pipeline{
		settings:  s,
		codec:     codec,
		pixels:    pixels,
		catalogue: cat,
		lists:     classify.DefaultAllowLists(),
		out:       os.Stdout,
		handles:   make(map[string]*container.Handle),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) files() []string {
	return p.settings.Platform.Files()
}

func (p *Pipeline) newManager() *txn.Manager {
	return txn.New(p.settings.GameRoot, p.settings.BackupDir, p.settings.WorkspaceDir, p.files())
}

// Run loads the three containers and patches them in memory. Asset failures are
// recorded in the report; only a container that cannot be loaded or a
// cancelled context stops the run.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	r := &Report{}
	images := patch.NewImageSource(p.catalogue, p.pixels, p.settings.Platform.Target)

	steps := []struct {
		path string
		fn   func(name string, h *container.Handle, images *patch.ImageSource, r *Report)
	}{
		{p.settings.Platform.FontBundle, p.patchFontBundle},
		{p.settings.Platform.TextAssets, p.patchTextAssets},
		{p.settings.Platform.TitleBundle, p.patchTitleBundle},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return r, err
		}
		name := filepath.Base(step.path)
		fmt.Fprintf(p.out, "Loading %s...\n", name)
		h, err := p.codec.Load(step.path)
		if err != nil {
			r.fail(name, name, StageLoad, err)
			return r, fmt.Errorf("load %s: %w", step.path, err)
		}
		p.handles[step.path] = h
		step.fn(name, h, images, r)
	}

	fmt.Fprintf(p.out, "Patched %d assets, skipped %d, failed %d\n", r.Patched(), r.Skipped(), len(r.Failures()))
	return r, nil
}

func (p *Pipeline) patchFontBundle(name string, h *container.Handle, images *patch.ImageSource, r *Report) {
	b := classify.Classify(p.codec, p.codec.Objects(h), p.lists)
	slog.Info("classified font bundle", "container", name, "patchable", b.Count(), "fonts", len(b.Fonts),
		"materials", len(b.Materials), "groups", len(b.TextureGroups), "standalone", len(b.Standalone))

	repacker := repack.New(p.codec, images, p.repackOps...)
	for _, g := range b.TextureGroups {
		res, err := repacker.Repack(g)
		if err != nil {
			r.fail(name, g.StreamID, StageTextureGroup, err)
			continue
		}
		if !res.Changed() {
			slog.Info("stream left untouched", "container", name, "stream", g.StreamID)
		}
		for _, asset := range res.Replaced {
			r.patched(name, asset, StageTextureGroup)
		}
		for _, asset := range res.Misses {
			r.skip(name, asset, StageTextureGroup, patch.ErrNotFound)
		}
		for _, err := range res.Failures {
			r.fail(name, g.StreamID, StageTextureGroup, err)
		}
	}

	p.apply(name, StageTexture, patch.NewTexturePatcher(p.codec, images), b.Standalone, true, r)
	p.apply(name, StageFont, patch.NewFontPatcher(p.codec, p.catalogue), b.Fonts, true, r)
	p.apply(name, StageMaterial, patch.NewMaterialPatcher(p.codec, p.settings.TextureDimension), b.Materials, true, r)
}

func (p *Pipeline) patchTextAssets(name string, h *container.Handle, _ *patch.ImageSource, r *Report) {
	b := classify.Classify(p.codec, p.codec.Objects(h), classify.AllowLists{})
	p.apply(name, StageText, patch.NewTextPatcher(p.codec, p.catalogue, p.texts...), b.TextBlobs, false, r)
}

func (p *Pipeline) patchTitleBundle(name string, h *container.Handle, images *patch.ImageSource, r *Report) {
	err := patch.NewTitlePatcher(p.codec, images).Patch(h)
	switch {
	case err == nil:
		r.patched(name, patch.TitleTexture, StageTitle)
	case errors.Is(err, patch.ErrNotFound), errors.Is(err, patch.ErrUnsupported):
		r.skip(name, patch.TitleTexture, StageTitle, err)
	default:
		r.fail(name, patch.TitleTexture, StageTitle, err)
	}
}

// apply runs patcher over objects. Catalogue misses fail the run when missFails is set.
func (p *Pipeline) apply(name string, stage Stage, patcher patch.Patcher, objects []*container.Object, missFails bool, r *Report) {
	for _, obj := range objects {
		err := patcher.Patch(obj)
		switch {
		case err == nil:
			r.patched(name, obj.Name, stage)
		case errors.Is(err, patch.ErrNotTarget):
		case errors.Is(err, patch.ErrNotFound) && !missFails:
			r.skip(name, obj.Name, stage, err)
		default:
			r.fail(name, obj.Name, stage, err)
		}
	}
}

// Serialize encodes every loaded container. Any failure discards the whole set.
func (p *Pipeline) Serialize() (txn.StagingSet, error) {
	set := txn.StagingSet{}
	for _, path := range p.files() {
		h, ok := p.handles[path]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotLoaded, path)
		}
		data, err := p.codec.Serialize(h)
		if err != nil {
			return nil, fmt.Errorf("serialize %s: %w", path, err)
		}
		set[path] = data
	}
	return set, nil
}

// Patch backs up, patches, stages and commits the game files while holding the
// run lock. Live files are only replaced when every asset succeeded.
func (p *Pipeline) Patch(ctx context.Context) (*Report, error) {
	unlock, err := txn.Lock(ctx, p.settings.LockFile)
	if err != nil {
		return nil, err
	}
	defer unlock()

	m := p.newManager()
	fmt.Fprintln(p.out, "[1/4] Backing up game files...")
	if err := m.Backup(); err != nil {
		return nil, fmt.Errorf("backup: %w", err)
	}

	fmt.Fprintln(p.out, "[2/4] Applying replacements...")
	r, err := p.Run(ctx)
	if err != nil {
		return r, err
	}
	if !r.Success() {
		return r, ErrIncomplete
	}

	fmt.Fprintln(p.out, "[3/4] Repacking containers...")
	set, err := p.Serialize()
	if err != nil {
		return r, err
	}
	if err := m.Stage(set); err != nil {
		return r, err
	}

	fmt.Fprintln(p.out, "[4/4] Replacing game files...")
	if err := m.Commit(); err != nil {
		return r, err
	}
	return r, nil
}

// Restore copies the backups over the game files.
func Restore(ctx context.Context, s config.Settings) error {
	unlock, err := txn.Lock(ctx, s.LockFile)
	if err != nil {
		return err
	}
	defer unlock()

	return txn.New(s.GameRoot, s.BackupDir, s.WorkspaceDir, s.Platform.Files()).Restore()
}

// Verify checks that a complete backup exists.
func Verify(s config.Settings) error {
	return txn.New(s.GameRoot, s.BackupDir, s.WorkspaceDir, s.Platform.Files()).Validate()
}
