package packager

import (
	"bytes"
	"context"
	"encoding/hex"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/zeebo/blake3"

	"git.home.luguber.info/inful/deckbuilder/internal/assets"
	derrors "git.home.luguber.info/inful/deckbuilder/internal/foundation/errors"
)

func (p *Packager) stageRender(_ context.Context, bs *BuildState) error {
	res := assets.New(p.fs, bs.DestStatic(), bs.Deck.CDN, assets.ModeBundle, assets.WithHTTPClient(p.client))
	var buf bytes.Buffer
	t0 := time.Now()
	if err := p.renderer.Render(&buf, bs.Deck, res); err != nil {
		return derrors.WrapError(err, derrors.CategoryRender, "render bundle page").Build()
	}
	p.recorder.ObserveRenderDuration(assets.ModeBundle.String(), time.Since(t0))

	index := bs.indexPath()
	if err := afero.WriteFile(p.fs, index, buf.Bytes(), 0o644); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "write index page").
			WithContext("path", index).Build()
	}
	sum := blake3.Sum256(buf.Bytes())
	bs.Report.Digest = hex.EncodeToString(sum[:])
	return nil
}

func (bs *BuildState) indexPath() string { return filepath.Join(bs.Dest, IndexFile) }

// Digest returns the hex BLAKE3-256 of the file at path.
func Digest(fsys afero.Fs, path string) (string, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return "", derrors.WrapError(err, derrors.CategoryFileSystem, "read file for digest").
			WithContext("path", path).Build()
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
