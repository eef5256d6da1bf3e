package drive

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"discvault/internal/logging"
)

// Executor abstracts command execution so discovery helpers can be tested
// without the underlying binaries.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

// commandExecutor executes commands using os/exec.
type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	return cmd.Output()
}

// Resolver turns a drive preference into a concrete device path.
type Resolver struct {
	logger *slog.Logger
	exec   Executor
	crawl  func(ctx context.Context) ([]string, error)
	glob   func(pattern string) ([]string, error)
}

// NewResolver constructs a Resolver that shells out for lsblk discovery.
func NewResolver(logger *slog.Logger) *Resolver {
	return NewResolverWithExecutor(logger, nil)
}

// NewResolverWithExecutor allows injecting a custom executor for testing.
func NewResolverWithExecutor(logger *slog.Logger, exec Executor) *Resolver {
	if exec == nil {
		exec = commandExecutor{}
	}
	return &Resolver{
		logger: logging.NewComponentLogger(logger, "drive"),
		exec:   exec,
		crawl:  crawlOpticalDevices,
		glob:   filepath.Glob,
	}
}

// Resolve returns the device path to use for this run. A configured device is
// validated and wins outright; otherwise discovery walks udev, lsblk, and a
// /dev glob in order and picks the lowest-numbered drive found.
func (r *Resolver) Resolve(ctx context.Context, configured string) (string, error) {
	configured = strings.TrimSpace(configured)
	if configured != "" {
		if err := validateDevice(configured); err != nil {
			return "", err
		}
		r.logger.Debug("using configured drive", logging.String("device", configured))
		return configured, nil
	}

	if devices, err := r.crawl(ctx); err != nil {
		r.logger.Debug("udev crawl failed", logging.Error(err))
	} else if len(devices) > 0 {
		device := firstDevice(devices)
		r.logger.Debug("drive found via udev", logging.String("device", device))
		return device, nil
	}

	if devices, err := r.lsblkROMDevices(ctx); err != nil {
		r.logger.Debug("lsblk discovery failed", logging.Error(err))
	} else if len(devices) > 0 {
		device := firstDevice(devices)
		r.logger.Debug("drive found via lsblk", logging.String("device", device))
		return device, nil
	}

	if matches, err := r.glob("/dev/sr[0-9]*"); err == nil && len(matches) > 0 {
		device := firstDevice(matches)
		r.logger.Debug("drive found via glob", logging.String("device", device))
		return device, nil
	}

	return "", fmt.Errorf("no optical drive detected")
}

func firstDevice(devices []string) string {
	sorted := append([]string{}, devices...)
	sort.Strings(sorted)
	return sorted[0]
}

func validateDevice(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("drive %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("drive %s: is a directory", path)
	}
	return nil
}
