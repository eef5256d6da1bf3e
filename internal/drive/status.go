package drive

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// Linux ioctl numbers from the kernel's cdrom interface.
const (
	ioctlDriveStatus uint = 0x5326 // CDROM_DRIVE_STATUS
	ioctlDiscStatus  uint = 0x5327 // CDROM_DISC_STATUS
	ioctlEject       uint = 0x5309 // CDROMEJECT
)

// Status represents the result of a CDROM_DRIVE_STATUS ioctl call.
type Status int

const (
	StatusNoInfo   Status = 0
	StatusNoDisc   Status = 1
	StatusTrayOpen Status = 2
	StatusNotReady Status = 3
	StatusDiscOK   Status = 4
)

// String returns a human-readable label for the drive status.
func (s Status) String() string {
	switch s {
	case StatusNoInfo:
		return "no_info"
	case StatusNoDisc:
		return "no_disc"
	case StatusTrayOpen:
		return "tray_open"
	case StatusNotReady:
		return "not_ready"
	case StatusDiscOK:
		return "disc_ok"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// DiscType classifies the medium reported by CDROM_DISC_STATUS.
type DiscType int

const (
	DiscTypeNoInfo DiscType = 0
	DiscTypeAudio  DiscType = 100
	DiscTypeData1  DiscType = 101
	DiscTypeData2  DiscType = 102
	DiscTypeXA21   DiscType = 103
	DiscTypeXA22   DiscType = 104
	DiscTypeMixed  DiscType = 105
)

func (t DiscType) String() string {
	switch t {
	case DiscTypeNoInfo:
		return "unknown"
	case DiscTypeAudio:
		return "audio"
	case DiscTypeData1:
		return "data_mode1"
	case DiscTypeData2:
		return "data_mode2"
	case DiscTypeXA21:
		return "xa_form1"
	case DiscTypeXA22:
		return "xa_form2"
	case DiscTypeMixed:
		return "mixed"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// CheckStatus queries the drive state using the CDROM_DRIVE_STATUS ioctl.
// Returns an error if the device cannot be opened or the ioctl fails.
func CheckStatus(devicePath string) (Status, error) {
	value, err := ioctlQuery(devicePath, ioctlDriveStatus)
	if err != nil {
		return StatusNoInfo, err
	}
	return Status(value), nil
}

// CheckDiscType queries the medium class using the CDROM_DISC_STATUS ioctl.
func CheckDiscType(devicePath string) (DiscType, error) {
	value, err := ioctlQuery(devicePath, ioctlDiscStatus)
	if err != nil {
		return DiscTypeNoInfo, err
	}
	return DiscType(value), nil
}

func ioctlQuery(devicePath string, request uint) (int, error) {
	devicePath = strings.TrimSpace(devicePath)
	if devicePath == "" {
		return 0, fmt.Errorf("empty device path")
	}

	fd, err := unix.Open(devicePath, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", devicePath, err)
	}
	defer unix.Close(fd) //nolint:errcheck

	value, err := unix.IoctlRetInt(fd, request)
	if err != nil {
		return 0, fmt.Errorf("ioctl 0x%x on %s: %w", request, devicePath, err)
	}
	return value, nil
}

// WaitForMedia polls the drive at 1-second intervals until it reports
// StatusDiscOK or the window elapses. The last observed status is returned
// either way; a non-ready status after the window is the caller's decision to
// make, not an error. A regular file reports StatusDiscOK immediately.
func WaitForMedia(ctx context.Context, devicePath string, window time.Duration) (Status, error) {
	const pollInterval = 1 * time.Second

	// An image file standing in for a drive has no tray to poll; its medium
	// is always present.
	if info, err := os.Stat(devicePath); err == nil && info.Mode().IsRegular() {
		return StatusDiscOK, nil
	}

	deadline := time.Now().Add(window)
	var last Status
	for {
		status, err := CheckStatus(devicePath)
		if err != nil {
			return status, err
		}
		last = status
		if status == StatusDiscOK || !time.Now().Before(deadline) {
			return last, nil
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
