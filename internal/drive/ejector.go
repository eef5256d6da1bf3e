package drive

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

// Ejector defines disc eject operations.
type Ejector interface {
	Eject(ctx context.Context, device string) error
}

type ioctlEjector struct {
	exec Executor
}

// NewEjector creates an ejector that issues the CDROMEJECT ioctl directly and
// falls back to the eject utility when the ioctl is refused.
func NewEjector() Ejector {
	return NewEjectorWithExecutor(nil)
}

// NewEjectorWithExecutor allows injecting a custom executor for testing the
// fallback path.
func NewEjectorWithExecutor(exec Executor) Ejector {
	if exec == nil {
		exec = commandExecutor{}
	}
	return &ioctlEjector{exec: exec}
}

func (e *ioctlEjector) Eject(ctx context.Context, device string) error {
	device = strings.TrimSpace(device)
	if device == "" {
		return fmt.Errorf("empty device path")
	}

	if err := ejectIoctl(device); err == nil {
		return nil
	}

	if _, err := e.exec.Run(ctx, "eject", []string{device}); err != nil {
		return fmt.Errorf("eject %s: %w", device, err)
	}
	return nil
}

func ejectIoctl(device string) error {
	fd, err := unix.Open(device, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", device, err)
	}
	defer unix.Close(fd) //nolint:errcheck

	if _, err := unix.IoctlRetInt(fd, ioctlEject); err != nil {
		return fmt.Errorf("ioctl CDROMEJECT on %s: %w", device, err)
	}
	return nil
}
