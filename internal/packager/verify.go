package packager

import (
	"context"
	"net/url"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/net/html"

	"git.home.luguber.info/inful/deckbuilder/internal/assets"
	derrors "git.home.luguber.info/inful/deckbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/deckbuilder/internal/logfields"
)

// stageVerify checks that every bundle-relative reference in index.html
// points at a file that made it into the bundle. Dangling references warn.
func (p *Packager) stageVerify(_ context.Context, bs *BuildState) error {
	f, err := p.fs.Open(bs.indexPath())
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "open index page").Build()
	}
	defer func() { _ = f.Close() }()
	doc, err := html.Parse(f)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryRender, "parse index page").Build()
	}
	for _, ref := range BundleRefs(doc) {
		rel := strings.TrimPrefix(ref, assets.BundleStatic)
		if ok, _ := afero.Exists(p.fs, bs.staticPath(rel)); !ok {
			bs.warn("Bundle references a missing file", logfields.Asset(ref))
		}
	}
	return nil
}

// BundleRefs returns the distinct static/ references found in src and href
// attributes, in document order.
func BundleRefs(doc *html.Node) []string {
	var refs []string
	seen := map[string]bool{}
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key != "src" && a.Key != "href" && a.Key != "data-src" {
					continue
				}
				ref := a.Val
				if u, err := url.Parse(ref); err == nil {
					ref = u.Path
				}
				if !strings.HasPrefix(ref, assets.BundleStatic) || seen[ref] {
					continue
				}
				seen[ref] = true
				refs = append(refs, ref)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)
	return refs
}
