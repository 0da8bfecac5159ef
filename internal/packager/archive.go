package packager

import (
	"archive/tar"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"

	derrors "git.home.luguber.info/inful/deckbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/deckbuilder/internal/logfields"
)

func (p *Packager) stageArchive(ctx context.Context, bs *BuildState) error {
	target := filepath.Clean(bs.Dest) + ArchiveExt
	out, err := p.fs.Create(target)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "create archive").
			WithContext("path", target).Build()
	}
	if err := WriteArchive(ctx, p.fs, bs.Dest, out); err != nil {
		_ = out.Close()
		_ = p.fs.Remove(target)
		return err
	}
	if err := out.Close(); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "close archive").Build()
	}
	bs.Report.Archive = target
	return nil
}

// WriteArchive streams dir as a zstd-compressed tarball. Entries are in
// lexical order with zeroed owners and timestamps, so identical trees yield
// identical archives.
func WriteArchive(ctx context.Context, fsys afero.Fs, dir string, w io.Writer) error {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderConcurrency(1))
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryInternal, "create zstd encoder").Build()
	}
	tw := tar.NewWriter(zw)
	walkErr := afero.Walk(fsys, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil || rel == "." {
			return err
		}
		hdr := &tar.Header{
			Name:    filepath.ToSlash(rel),
			ModTime: time.Unix(0, 0).UTC(),
			Format:  tar.FormatPAX,
		}
		switch {
		case info.IsDir():
			hdr.Typeflag = tar.TypeDir
			hdr.Name += "/"
			hdr.Mode = 0o755
			return tw.WriteHeader(hdr)
		case info.Mode().IsRegular():
			hdr.Typeflag = tar.TypeReg
			hdr.Mode = 0o644
			hdr.Size = info.Size()
			if err := tw.WriteHeader(hdr); err != nil {
				return err
			}
			return copyInto(fsys, path, tw)
		default:
			slog.Debug("Skipping non-regular file in archive", logfields.Path(path))
			return nil
		}
	})
	if walkErr != nil {
		_ = tw.Close()
		_ = zw.Close()
		return derrors.WrapError(walkErr, derrors.CategoryFileSystem, "write archive").
			WithContext("dir", dir).Build()
	}
	if err := tw.Close(); err != nil {
		_ = zw.Close()
		return derrors.WrapError(err, derrors.CategoryFileSystem, "finish tar stream").Build()
	}
	if err := zw.Close(); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "finish zstd stream").Build()
	}
	return nil
}

func copyInto(fsys afero.Fs, path string, w io.Writer) error {
	f, err := fsys.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = io.Copy(w, f)
	return err
}
