package packager

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/deckbuilder/internal/assets"
	derrors "git.home.luguber.info/inful/deckbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/deckbuilder/internal/logfields"
	"git.home.luguber.info/inful/deckbuilder/internal/metrics"
	"git.home.luguber.info/inful/deckbuilder/internal/normalize"
	"git.home.luguber.info/inful/deckbuilder/internal/slides"
)

// stageFetchAssets downloads assets missing from the bundle, from the deck's
// CDN or, for reveal.js files, the distribution. Required assets fail the
// build; inlined files only warn, since the renderer treats a missing
// include as empty. Assets with no source are left to the verify stage.
func (p *Packager) stageFetchAssets(ctx context.Context, bs *BuildState) error {
	for _, rel := range requiredAssets(bs.Deck) {
		if err := p.fetchMissing(ctx, bs, rel); err != nil {
			return err
		}
	}
	for _, rel := range inlinedAssets(bs.Deck) {
		if err := p.fetchMissing(ctx, bs, rel); err != nil {
			bs.warn("Inlined asset unavailable", logfields.Asset(rel), logfields.Error(err))
		}
	}
	return nil
}

// sourceURL picks where rel is downloaded from, if anywhere.
func (p *Packager) sourceURL(deck *slides.Config, rel string) (string, bool) {
	rel = strings.TrimLeft(rel, "/")
	if deck.CDN != "" {
		return normalize.JoinURL(deck.CDN, rel), true
	}
	return assets.DistributionURL(p.dist, rel)
}

func (p *Packager) fetchMissing(ctx context.Context, bs *BuildState, rel string) error {
	dest := bs.staticPath(rel)
	if ok, _ := afero.Exists(p.fs, dest); ok {
		return nil
	}
	url, ok := p.sourceURL(bs.Deck, rel)
	if !ok {
		return nil
	}
	err := p.policy.Do(ctx, func() error {
		return p.download(ctx, url, dest)
	}, func(attempt int, err error) {
		p.recorder.IncFetchRetry()
		slog.Debug("Retrying asset download", logfields.URL(url), slog.Int("attempt", attempt), logfields.Error(err))
	})
	if err != nil {
		p.recorder.IncAssetFetch(metrics.ResultFatal)
		return &AssetFetchError{URL: url, Destination: dest, Err: err}
	}
	p.recorder.IncAssetFetch(metrics.ResultSuccess)
	bs.Report.Fetched = append(bs.Report.Fetched, rel)
	slog.Info("Fetched asset", logfields.URL(url), logfields.Dest(dest))
	return nil
}

// download writes url to dest. Transport failures and 5xx/429 responses are
// retryable; any other non-200 status is not.
func (p *Packager) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryNetwork, "build request").Build()
	}
	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return derrors.WrapError(err, derrors.CategoryNetwork, "download canceled").Build()
		}
		return derrors.WrapError(err, derrors.CategoryNetwork, "download failed").Retryable().Build()
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		b := derrors.NetworkError(fmt.Sprintf("unexpected status %d", resp.StatusCode)).
			WithContext("status", resp.StatusCode)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			b = b.Retryable()
		}
		return b.Build()
	}
	if err := p.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "create asset directory").Build()
	}
	// Partial bodies stay under .part; only complete files count as present.
	tmp := dest + ".part"
	f, err := p.fs.Create(tmp)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "create asset file").Build()
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = p.fs.Remove(tmp)
		return derrors.WrapError(err, derrors.CategoryNetwork, "read response body").Retryable().Build()
	}
	if err := f.Close(); err != nil {
		_ = p.fs.Remove(tmp)
		return derrors.WrapError(err, derrors.CategoryFileSystem, "close asset file").Build()
	}
	if err := p.fs.Rename(tmp, dest); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "move asset into place").Build()
	}
	return nil
}
