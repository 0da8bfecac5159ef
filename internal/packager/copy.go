package packager

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	derrors "git.home.luguber.info/inful/deckbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/deckbuilder/internal/logfields"
)

func (p *Packager) stageCopyStatic(ctx context.Context, bs *BuildState) error {
	src, dst := bs.SrcStatic(), bs.DestStatic()
	if err := p.fs.MkdirAll(dst, 0o755); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "create bundle static directory").
			WithContext("path", dst).Build()
	}
	ok, err := afero.DirExists(p.fs, src)
	if err != nil || !ok {
		bs.warn("Project has no static directory", logfields.Path(src))
		return nil
	}
	err = afero.Walk(p.fs, src, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return p.fs.MkdirAll(target, 0o755)
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if err := copyFile(p.fs, path, target, info.Mode().Perm()); err != nil {
			return err
		}
		bs.Report.Copied++
		return nil
	})
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "copy static directory").
			WithContext("src", src).
			WithContext("dest", dst).
			Build()
	}
	return nil
}

func copyFile(fsys afero.Fs, src, dst string, perm os.FileMode) error {
	in, err := fsys.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()
	out, err := fsys.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
