package packager

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	derrors "git.home.luguber.info/inful/deckbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/deckbuilder/internal/logfields"
	"git.home.luguber.info/inful/deckbuilder/internal/render"
)

// pluginDir is where reveal plugins live inside the static mirror.
const pluginDir = "plugin"

// stagePruneInlined drops files whose content is already inside index.html.
func (p *Packager) stagePruneInlined(_ context.Context, bs *BuildState) error {
	keep := map[string]bool{}
	for _, rel := range requiredAssets(bs.Deck) {
		keep[bs.staticPath(rel)] = true
	}
	for _, rel := range inlinedAssets(bs.Deck) {
		target := bs.staticPath(rel)
		if keep[target] {
			continue
		}
		if err := p.remove(bs, target, rel); err != nil {
			return err
		}
	}
	return nil
}

// stagePrunePlugins drops plugin directories for disabled plugins and the
// editor assets, which only the live server uses.
func (p *Packager) stagePrunePlugins(_ context.Context, bs *BuildState) error {
	enabled := render.EnabledPlugins(bs.Deck.Plugin)
	for _, name := range render.PluginNames {
		if enabled[name] {
			continue
		}
		rel := filepath.Join(pluginDir, name)
		if err := p.remove(bs, filepath.Join(bs.DestStatic(), rel), rel); err != nil {
			return err
		}
	}
	return p.remove(bs, filepath.Join(bs.DestStatic(), EditorDir), EditorDir)
}

func (p *Packager) remove(bs *BuildState, target, rel string) error {
	ok, err := afero.Exists(p.fs, target)
	if err != nil || !ok {
		return nil
	}
	if err := p.fs.RemoveAll(target); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "prune bundle file").
			WithContext("path", target).Build()
	}
	bs.Report.Pruned = append(bs.Report.Pruned, filepath.ToSlash(rel))
	slog.Debug("Pruned bundle path", logfields.Path(target))
	return nil
}
