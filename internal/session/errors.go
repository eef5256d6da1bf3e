package session

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers classifying session failures. ExitCode maps error chains
// tagged with these markers onto the process exit statuses below.
var (
	ErrUsage        = errors.New("usage error")
	ErrNoDrive      = errors.New("no optical drive found")
	ErrNoMedia      = errors.New("no disc in drive")
	ErrMetadataRead = errors.New("volume metadata unreadable")
	ErrVerification = errors.New("image verification failed")
	ErrAborted      = errors.New("stopped by operator")
)

// Process exit statuses. Wrapper scripts depend on these exact values.
const (
	ExitOK           = 0
	ExitUsage        = 1
	ExitNoDrive      = 2
	ExitNoMedia      = 3
	ExitMetadataRead = 4
	ExitVerification = 5
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for exit-status classification. The marker
// should be one of the exported sentinel errors above; a nil marker produces
// an untagged error that maps to the generic failure status.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		if err != nil {
			return fmt.Errorf("%s: %w", detail, err)
		}
		return errors.New(detail)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ExitCode maps an error chain onto the process exit status. An operator
// abort at an overwrite prompt is a graceful stop, not a failure, so it maps
// to ExitOK; an abort at the media prompt keeps the historical no-disc status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrAborted):
		return ExitOK
	case errors.Is(err, ErrNoDrive):
		return ExitNoDrive
	case errors.Is(err, ErrNoMedia):
		return ExitNoMedia
	case errors.Is(err, ErrMetadataRead):
		return ExitMetadataRead
	case errors.Is(err, ErrVerification):
		return ExitVerification
	default:
		return ExitUsage
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "session failure"
	}
	return strings.Join(parts, ": ")
}
