// Package session orchestrates a whole archiving run: drive resolution, media
// monitoring, metadata reads, capture, verification, and final placement of
// artifacts. All generated files live in a scoped temporary workspace that is
// removed on every exit path.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"discvault/internal/capture"
	"discvault/internal/config"
	"discvault/internal/drive"
	"discvault/internal/fileutil"
	"discvault/internal/isovol"
	"discvault/internal/logging"
	"discvault/internal/prompt"
)

// mediaPollWindow bounds how long a single media probe polls the drive before
// falling back to the retry-or-abort prompt.
const mediaPollWindow = 3 * time.Second

// Options carries the per-run settings assembled from the command line. The
// struct is immutable once the run starts.
type Options struct {
	Write       bool
	Bundle      bool
	Compress    bool
	Interactive bool
	Sidecar     bool
	Verify      bool
	Summarize   bool
	Label       string
	LicenseKey  string
	OutputDir   string
}

// Validate enforces flag combination rules before any side effects happen.
func (o Options) Validate() error {
	if o.Compress && !o.Bundle {
		return Wrap(ErrUsage, "session", "validate options", "compression (-z) requires bundling (-t)", nil)
	}
	if o.OutputDir == "" {
		return Wrap(ErrUsage, "session", "validate options", "output directory not set", nil)
	}
	if !fileutil.DirExists(o.OutputDir) {
		return Wrap(ErrUsage, "session", "validate options",
			fmt.Sprintf("output directory %s does not exist", o.OutputDir), nil)
	}
	return nil
}

// DryRun reports whether the run stops after printing the report. Summarize
// wins over write mode.
func (o Options) DryRun() bool {
	return o.Summarize || !o.Write
}

// DeviceResolver locates the optical drive device node.
type DeviceResolver interface {
	Resolve(ctx context.Context, configured string) (string, error)
}

// ImageCapturer captures disc images and verifies them against the medium.
type ImageCapturer interface {
	Capture(ctx context.Context, device, dst string, geom isovol.Geometry) (*capture.Result, error)
	Verify(ctx context.Context, device, image string, geom isovol.Geometry) (*capture.VerifyOutcome, error)
}

// Prompter asks the operator blocking questions on the controlling terminal.
type Prompter interface {
	RetryOrAbort(question string) (prompt.Decision, error)
	OverwriteOrAbort(question string) (prompt.Decision, error)
	YesOrNo(question string) (prompt.Decision, error)
}

// VerificationStatus describes the verification outcome for one disc image.
type VerificationStatus int

const (
	VerificationSkipped VerificationStatus = iota
	VerificationPassed
	VerificationFailed
)

func (s VerificationStatus) String() string {
	switch s {
	case VerificationSkipped:
		return "not_verified"
	case VerificationPassed:
		return "passed"
	case VerificationFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// discRecord captures the outcome of one disc within a run.
type discRecord struct {
	Index        int
	ImageName    string
	SidecarName  string
	Descriptor   *isovol.Descriptor
	DiscType     drive.DiscType
	Bytes        int64
	Digest       string
	Duration     time.Duration
	Verification VerificationStatus
}

// Controller drives one archiving session end to end.
type Controller struct {
	cfg    *config.Config
	opts   Options
	logger *slog.Logger
	runID  string

	resolver DeviceResolver
	capturer ImageCapturer
	prompter Prompter
	ejector  drive.Ejector
	out      io.Writer

	probeMedia     func(ctx context.Context, device string) (drive.Status, error)
	probeDiscType  func(device string) (drive.DiscType, error)
	readDescriptor func(path string) (*isovol.Descriptor, error)
	driveIdentity  func(device string) (string, string)
	lockDir        string
}

// Deps lets callers swap collaborators. Zero fields fall back to production
// defaults.
type Deps struct {
	Resolver DeviceResolver
	Capturer ImageCapturer
	Prompter Prompter
	Ejector  drive.Ejector
	Output   io.Writer
	Progress io.Writer
}

// New wires a Controller with its production collaborators.
func New(cfg *config.Config, opts Options, logger *slog.Logger) *Controller {
	return NewWithDeps(cfg, opts, logger, Deps{})
}

// NewWithDeps builds a Controller around injected collaborators.
func NewWithDeps(cfg *config.Config, opts Options, logger *slog.Logger, deps Deps) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	runID := uuid.NewString()
	logger = logger.With(logging.String("run_id", runID[:8]))

	capturer := deps.Capturer
	if capturer == nil {
		c := capture.New(cfg, logger)
		if deps.Progress != nil {
			c.EnableProgress(deps.Progress)
		}
		capturer = c
	}
	resolver := deps.Resolver
	if resolver == nil {
		resolver = drive.NewResolver(logger)
	}
	prompter := deps.Prompter
	if prompter == nil {
		prompter = prompt.NewTerminal()
	}
	ejector := deps.Ejector
	if ejector == nil {
		ejector = drive.NewEjector()
	}
	out := deps.Output
	if out == nil {
		out = os.Stdout
	}

	return &Controller{
		cfg:      cfg,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "session"),
		runID:    runID,
		resolver: resolver,
		capturer: capturer,
		prompter: prompter,
		ejector:  ejector,
		out:      out,
		probeMedia: func(ctx context.Context, device string) (drive.Status, error) {
			return drive.WaitForMedia(ctx, device, mediaPollWindow)
		},
		probeDiscType:  drive.CheckDiscType,
		readDescriptor: isovol.Open,
		driveIdentity:  drive.Identity,
		lockDir:        os.TempDir(),
	}
}

// Run executes the session and returns a marker-tagged error describing how
// it ended. ExitCode maps that to the process status.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.opts.Validate(); err != nil {
		return err
	}

	device, err := c.resolver.Resolve(ctx, c.cfg.Drive.Device)
	if err != nil {
		return Wrap(ErrNoDrive, "session", "resolve drive", "", err)
	}
	c.logger.Info("drive resolved", logging.String("device", device))

	unlock, err := c.acquireLock(device)
	if err != nil {
		return err
	}
	defer unlock()

	if err := c.awaitMedia(ctx, device); err != nil {
		return err
	}
	discType := c.classifyDisc(device)

	desc, geom, err := c.readMetadata(device)
	if err != nil {
		return err
	}

	label, source := isovol.DeriveLabel(c.opts.Label, desc, c.fallbackLabel())
	if source.Degraded() {
		c.logger.Warn("volume carries no usable title or publisher metadata",
			logging.String("label", label),
			logging.String("label_source", source.String()))
	} else {
		c.logger.Info("session label derived",
			logging.String("label", label),
			logging.String("label_source", source.String()))
	}

	if c.opts.DryRun() {
		return c.writeReport(device, desc, geom, discType, label, source)
	}

	ws, err := NewWorkspace(c.logger)
	if err != nil {
		return err
	}
	defer ws.Remove()

	discs, err := c.captureAll(ctx, device, ws, label, desc, geom, discType)
	if err != nil {
		return err
	}

	if c.opts.LicenseKey != "" {
		name := label + "_license_key.txt"
		if err := os.WriteFile(ws.Path(name), []byte(c.opts.LicenseKey+"\n"), 0o644); err != nil {
			return fmt.Errorf("write license key: %w", err)
		}
		c.logger.Info("license key recorded", logging.String("file", name))
	}

	var artifacts []string
	if c.opts.Bundle {
		artifacts, err = c.placeBundle(ws, label)
	} else {
		artifacts, err = c.placeFiles(ws)
	}
	if err != nil {
		return err
	}

	c.logger.Info("session complete",
		logging.Int("discs", len(discs)),
		logging.Int("artifacts", len(artifacts)))
	return c.writeSummary(discs, artifacts)
}

// captureAll runs the per-disc loop. Interactive mode keeps going until the
// operator declines another disc; single-disc mode captures exactly once.
func (c *Controller) captureAll(ctx context.Context, device string, ws *Workspace, label string, desc *isovol.Descriptor, geom isovol.Geometry, discType drive.DiscType) ([]discRecord, error) {
	var discs []discRecord
	for index := 1; ; index++ {
		if index > 1 {
			if err := c.awaitMedia(ctx, device); err != nil {
				return nil, err
			}
			discType = c.classifyDisc(device)
			var err error
			desc, geom, err = c.readMetadata(device)
			if err != nil {
				return nil, err
			}
		}

		rec, err := c.captureDisc(ctx, device, ws, label, index, desc, geom, discType)
		if err != nil {
			return nil, err
		}
		discs = append(discs, rec)

		if !c.opts.Interactive {
			return discs, nil
		}

		if c.cfg.Drive.EjectBetweenDiscs {
			if err := c.ejector.Eject(ctx, device); err != nil {
				c.logger.Warn("eject failed",
					logging.String("device", device),
					logging.Error(err))
			}
		}

		dec, err := c.prompter.YesOrNo("Archive another disc?")
		if err != nil {
			return nil, fmt.Errorf("read answer: %w", err)
		}
		if dec != prompt.Yes {
			return discs, nil
		}
		if index == 1 {
			if err := c.suffixFirstDisc(ws, label, &discs[0]); err != nil {
				return nil, err
			}
		}
	}
}

// captureDisc performs the full per-disc sequence: overwrite check, raw
// capture, optional sidecar, optional verification.
func (c *Controller) captureDisc(ctx context.Context, device string, ws *Workspace, label string, index int, desc *isovol.Descriptor, geom isovol.Geometry, discType drive.DiscType) (discRecord, error) {
	imageName := discImageName(label, index, index > 1)
	rec := discRecord{
		Index:      index,
		ImageName:  imageName,
		Descriptor: desc,
		DiscType:   discType,
	}

	imagePath := ws.Path(imageName)
	if err := c.ensureWritable(imagePath); err != nil {
		return rec, err
	}

	c.logger.Info("capturing disc",
		logging.Int("disc", index),
		logging.String("image", imageName),
		logging.Int64("bytes", geom.TotalBytes()))

	result, err := c.capturer.Capture(ctx, device, imagePath, geom)
	if err != nil {
		return rec, Wrap(nil, "session", "capture disc", device, err)
	}
	rec.Bytes = result.Bytes
	rec.Digest = result.Digest
	rec.Duration = result.Duration

	if c.opts.Sidecar {
		name := sidecarName(imageName)
		path := ws.Path(name)
		if err := c.ensureWritable(path); err != nil {
			return rec, err
		}
		if err := c.writeSidecar(path, device, desc); err != nil {
			return rec, err
		}
		rec.SidecarName = name
		c.logger.Info("sidecar written", logging.String("file", name))
	}

	if c.opts.Verify {
		outcome, err := c.capturer.Verify(ctx, device, imagePath, geom)
		if err != nil {
			return rec, Wrap(nil, "session", "verify disc", device, err)
		}
		if !outcome.Passed() {
			rec.Verification = VerificationFailed
			return rec, Wrap(ErrVerification, "session", "verify disc",
				fmt.Sprintf("device digest %s, image digest %s", outcome.SourceDigest, outcome.ImageDigest), nil)
		}
		rec.Verification = VerificationPassed
	}

	return rec, nil
}

// awaitMedia loops until media is present or the operator aborts.
func (c *Controller) awaitMedia(ctx context.Context, device string) error {
	for {
		status, err := c.probeMedia(ctx, device)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("media status unavailable",
				logging.String("device", device),
				logging.Error(err))
		}
		if status == drive.StatusDiscOK {
			return nil
		}
		c.logger.Info("no disc present",
			logging.String("device", device),
			logging.String("status", status.String()))

		dec, promptErr := c.prompter.RetryOrAbort(fmt.Sprintf("No disc detected in %s.", device))
		if promptErr != nil {
			return fmt.Errorf("read answer: %w", promptErr)
		}
		if dec == prompt.Abort {
			return Wrap(ErrNoMedia, "session", "await media", device, nil)
		}
	}
}

// classifyDisc queries the medium class for the report. Classification is
// best-effort; a device that refuses the ioctl reports as unknown.
func (c *Controller) classifyDisc(device string) drive.DiscType {
	discType, err := c.probeDiscType(device)
	if err != nil {
		c.logger.Debug("disc type unavailable",
			logging.String("device", device),
			logging.Error(err))
		return drive.DiscTypeNoInfo
	}
	c.logger.Debug("disc classified",
		logging.String("device", device),
		logging.String("disc_type", discType.String()))
	return discType
}

// readMetadata reads the primary volume descriptor and validates capture
// geometry. Failures are fatal, not retryable: the medium is present but
// unreadable.
func (c *Controller) readMetadata(device string) (*isovol.Descriptor, isovol.Geometry, error) {
	desc, err := c.readDescriptor(device)
	if err != nil {
		return nil, isovol.Geometry{}, Wrap(ErrMetadataRead, "session", "read volume descriptor", device, err)
	}
	geom := desc.Geometry()
	if err := geom.Validate(); err != nil {
		return nil, isovol.Geometry{}, Wrap(ErrMetadataRead, "session", "validate geometry", device, err)
	}
	c.logger.Info("volume metadata read",
		logging.String("volume_id", desc.VolumeID),
		logging.String("publisher", desc.PublisherID),
		logging.Int64("block_size", geom.BlockSize),
		logging.Int64("block_count", geom.BlockCount))
	return desc, geom, nil
}

// ensureWritable prompts when path already exists. Abort is a graceful
// operator stop, not an error status.
func (c *Controller) ensureWritable(path string) error {
	if !fileutil.Exists(path) {
		return nil
	}
	dec, err := c.prompter.OverwriteOrAbort(fmt.Sprintf("%s already exists.", path))
	if err != nil {
		return fmt.Errorf("read answer: %w", err)
	}
	if dec != prompt.Overwrite {
		return Wrap(ErrAborted, "session", "overwrite check", path, nil)
	}
	c.logger.Warn("overwriting existing file", logging.String("path", path))
	return nil
}

// writeSidecar records the drive identity and the full descriptor dump next
// to the image.
func (c *Controller) writeSidecar(path, device string, desc *isovol.Descriptor) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create sidecar: %w", err)
	}
	vendor, model := c.driveIdentity(device)
	if identity := strings.TrimSpace(vendor + " " + model); identity != "" {
		if _, err := fmt.Fprintf(f, "Drive: %s\n", identity); err != nil {
			f.Close()
			return fmt.Errorf("write sidecar: %w", err)
		}
	}
	if err := desc.WriteDump(f); err != nil {
		f.Close()
		return fmt.Errorf("write sidecar: %w", err)
	}
	return f.Close()
}

// acquireLock takes a per-drive advisory lock so two runs never contend for
// one device.
func (c *Controller) acquireLock(device string) (func(), error) {
	name := fmt.Sprintf("discvault-%s.lock", filepath.Base(device))
	lock := flock.New(filepath.Join(c.lockDir, name))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire drive lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("drive %s is in use by another discvault run", device)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			c.logger.Warn("release drive lock failed", logging.Error(err))
		}
	}, nil
}

// suffixFirstDisc renames the first disc's artifacts once the run turns
// multi-disc, so every image in an N>1 run carries a distinct index suffix.
func (c *Controller) suffixFirstDisc(ws *Workspace, label string, rec *discRecord) error {
	renamed := discImageName(label, 1, true)
	if err := ws.Rename(rec.ImageName, renamed); err != nil {
		return err
	}
	oldSidecar := rec.SidecarName
	rec.ImageName = renamed
	if oldSidecar != "" {
		newSidecar := sidecarName(renamed)
		if err := ws.Rename(oldSidecar, newSidecar); err != nil {
			return err
		}
		rec.SidecarName = newSidecar
	}
	c.logger.Debug("first disc renamed for multi-disc run",
		logging.String("image", rec.ImageName))
	return nil
}

func (c *Controller) fallbackLabel() string {
	return "disc_" + c.runID[:8]
}

// discImageName builds a disc's image file name. Suffixed names carry the
// disc index; a single-disc run stays bare.
func discImageName(label string, index int, suffixed bool) string {
	if suffixed {
		return fmt.Sprintf("%s_disc%d.iso", label, index)
	}
	return label + ".iso"
}

// sidecarName derives the metadata sidecar file name from an image name.
func sidecarName(imageName string) string {
	return imageName + "_info.txt"
}
