package session

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"discvault/internal/fileutil"
	"discvault/internal/logging"
)

// placeFiles copies every workspace file into the output directory. Each
// destination is overwrite-checked; disc images get a digest-verified copy,
// the text artifacts a plain one.
func (c *Controller) placeFiles(ws *Workspace) ([]string, error) {
	names, err := ws.Files()
	if err != nil {
		return nil, err
	}
	placed := make([]string, 0, len(names))
	for _, name := range names {
		dst := filepath.Join(c.opts.OutputDir, name)
		if err := c.ensureWritable(dst); err != nil {
			return nil, err
		}
		if err := copyArtifact(ws.Path(name), dst); err != nil {
			return nil, fmt.Errorf("place %s: %w", name, err)
		}
		c.logger.Info("artifact placed", logging.String("path", dst))
		placed = append(placed, dst)
	}
	return placed, nil
}

// copyArtifact places one workspace file. Disc images are digest-verified on
// both sides of the copy; text artifacts are copied plain.
func copyArtifact(src, dst string) error {
	if filepath.Ext(src) == ".iso" {
		return fileutil.CopyFileVerified(src, dst)
	}
	return fileutil.CopyFile(src, dst)
}

// placeBundle writes the whole workspace into a single tar archive in the
// output directory, gzip-compressed when requested.
func (c *Controller) placeBundle(ws *Workspace, label string) ([]string, error) {
	name := label + ".tar"
	if c.opts.Compress {
		name += ".gz"
	}
	dst := filepath.Join(c.opts.OutputDir, name)
	if err := c.ensureWritable(dst); err != nil {
		return nil, err
	}
	if err := writeArchive(dst, ws, c.opts.Compress); err != nil {
		return nil, fmt.Errorf("bundle workspace: %w", err)
	}
	c.logger.Info("bundle placed", logging.String("path", dst))
	return []string{dst}, nil
}

// writeArchive streams every workspace file into a tar archive at dst. A
// failed write removes the partial archive.
func writeArchive(dst string, ws *Workspace, compress bool) (err error) {
	names, err := ws.Files()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer func() {
		if err != nil {
			out.Close()
			os.Remove(dst)
		}
	}()

	var tw *tar.Writer
	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(out)
		tw = tar.NewWriter(gz)
	} else {
		tw = tar.NewWriter(out)
	}

	for _, name := range names {
		if err = appendToArchive(tw, ws.Path(name), name); err != nil {
			return err
		}
	}

	if err = tw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	if gz != nil {
		if err = gz.Close(); err != nil {
			return fmt.Errorf("finalize compression: %w", err)
		}
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	return nil
}

func appendToArchive(tw *tar.Writer, path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}
	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("archive header for %s: %w", name, err)
	}
	header.Name = name

	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("write header for %s: %w", name, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()
	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	return nil
}
