// Package capture streams optical media into image files and verifies the
// results. Reads are bounded by the volume geometry so a capture is exactly
// the bytes the primary volume descriptor declares, never trailing padding
// from the drive.
package capture

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"discvault/internal/config"
	"discvault/internal/isovol"
	"discvault/internal/logging"
)

// Capturer copies disc contents into image files.
type Capturer struct {
	logger       *slog.Logger
	bufferSize   int
	progressOut  io.Writer
	showProgress bool
}

// New builds a Capturer from configuration. Progress rendering is off until
// EnableProgress is called.
func New(cfg *config.Config, logger *slog.Logger) *Capturer {
	buffer := 64 * 1024
	if cfg != nil && cfg.Capture.BufferKiB > 0 {
		buffer = cfg.Capture.BufferKiB * 1024
	}
	return &Capturer{
		logger:      logging.NewComponentLogger(logger, "capture"),
		bufferSize:  buffer,
		progressOut: io.Discard,
	}
}

// EnableProgress renders a live byte-count bar to w while capturing and
// verifying.
func (c *Capturer) EnableProgress(w io.Writer) {
	c.progressOut = w
	c.showProgress = true
}

// Result describes a finished capture.
type Result struct {
	ImagePath string
	Bytes     int64
	Digest    string
	Duration  time.Duration
}

// Capture reads exactly the geometry's worth of bytes from device into dst.
// A device that delivers fewer bytes than the descriptor declares fails the
// capture and removes the partial image.
func (c *Capturer) Capture(ctx context.Context, device, dst string, geom isovol.Geometry) (*Result, error) {
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	total := geom.TotalBytes()

	in, err := os.Open(device)
	if err != nil {
		return nil, fmt.Errorf("open device: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create image: %w", err)
	}

	c.logger.Info("capturing image",
		logging.String("device", device),
		logging.String("image", dst),
		logging.Int64("bytes", total))

	start := time.Now()
	hasher := sha256.New()
	bar := c.newBar(total, "capturing")
	src := &contextReader{ctx: ctx, r: io.LimitReader(in, total)}

	written, err := io.CopyBuffer(io.MultiWriter(out, hasher, bar), src, make([]byte, c.bufferSize))
	if err != nil {
		out.Close()
		os.Remove(dst)
		return nil, fmt.Errorf("read device: %w", err)
	}
	if written != total {
		out.Close()
		os.Remove(dst)
		return nil, fmt.Errorf("device %s delivered %d of %d bytes", device, written, total)
	}
	bar.Finish()

	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(dst)
		return nil, fmt.Errorf("sync image: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return nil, fmt.Errorf("close image: %w", err)
	}

	result := &Result{
		ImagePath: dst,
		Bytes:     written,
		Digest:    hex.EncodeToString(hasher.Sum(nil)),
		Duration:  time.Since(start),
	}
	c.logger.Info("capture complete",
		logging.String("image", dst),
		logging.Int64("bytes", result.Bytes),
		logging.Duration("elapsed", result.Duration))
	return result, nil
}

// VerifyOutcome reports an independent digest comparison between the device
// and a captured image.
type VerifyOutcome struct {
	SourceDigest string
	ImageDigest  string
	SourceBytes  int64
	ImageBytes   int64
	Duration     time.Duration
}

// Passed reports whether both reads produced identical digests.
func (o VerifyOutcome) Passed() bool {
	return o.SourceDigest != "" && o.SourceDigest == o.ImageDigest
}

// Verify re-reads the device and the image and compares their digests. Short
// reads surface as digest mismatches, not errors; the error return is for
// environmental failures such as an unopenable path.
func (c *Capturer) Verify(ctx context.Context, device, image string, geom isovol.Geometry) (*VerifyOutcome, error) {
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	total := geom.TotalBytes()

	c.logger.Info("verifying image",
		logging.String("device", device),
		logging.String("image", image),
		logging.Int64("bytes", total))

	start := time.Now()
	sourceDigest, sourceBytes, err := c.digestPath(ctx, device, total, "verifying disc")
	if err != nil {
		return nil, fmt.Errorf("read device: %w", err)
	}
	imageDigest, imageBytes, err := c.digestPath(ctx, image, total, "verifying image")
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	outcome := &VerifyOutcome{
		SourceDigest: sourceDigest,
		ImageDigest:  imageDigest,
		SourceBytes:  sourceBytes,
		ImageBytes:   imageBytes,
		Duration:     time.Since(start),
	}
	if outcome.Passed() {
		c.logger.Info("verification passed",
			logging.String("image", image),
			logging.String("digest", imageDigest),
			logging.Duration("elapsed", outcome.Duration))
	} else {
		c.logger.Warn("verification mismatch",
			logging.String("image", image),
			logging.String("source_digest", sourceDigest),
			logging.String("image_digest", imageDigest))
	}
	return outcome, nil
}

// digestPath hashes up to total bytes of the named path.
func (c *Capturer) digestPath(ctx context.Context, path string, total int64, description string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	hasher := sha256.New()
	bar := c.newBar(total, description)
	src := &contextReader{ctx: ctx, r: io.LimitReader(f, total)}
	n, err := io.CopyBuffer(io.MultiWriter(hasher, bar), src, make([]byte, c.bufferSize))
	if err != nil {
		return "", n, err
	}
	bar.Finish()
	return hex.EncodeToString(hasher.Sum(nil)), n, nil
}

func (c *Capturer) newBar(total int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(c.progressOut),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(24),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetVisibility(c.showProgress),
	)
}

// contextReader aborts a long copy as soon as its context is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *contextReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
