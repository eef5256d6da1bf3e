package isovol

import (
	"fmt"

	"discvault/internal/textutil"
)

// LabelSource records which descriptor field (or fallback) produced the
// session label.
type LabelSource int

const (
	LabelFromOverride LabelSource = iota
	LabelFromVolumeID
	LabelFromPublisher
	LabelFromUUID
	LabelFromFallback
)

func (s LabelSource) String() string {
	switch s {
	case LabelFromOverride:
		return "override"
	case LabelFromVolumeID:
		return "volume_id"
	case LabelFromPublisher:
		return "publisher"
	case LabelFromUUID:
		return "volume_uuid"
	case LabelFromFallback:
		return "fallback"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// Degraded reports whether the label came from somewhere other than an
// operator override or the disc's title metadata, which warrants a warning.
func (s LabelSource) Degraded() bool {
	return s == LabelFromUUID || s == LabelFromFallback
}

// DeriveLabel picks the archive label for a disc. An explicit operator
// override always wins. Otherwise the volume identifier is preferred, then
// the publisher, then the volume UUID, then the supplied fallback. Every
// candidate is sanitized into a filename stem; candidates that sanitize to
// nothing are skipped.
func DeriveLabel(override string, d *Descriptor, fallback string) (string, LabelSource) {
	if label := textutil.SanitizeLabel(override); label != "" {
		return label, LabelFromOverride
	}
	if d != nil {
		if label := textutil.SanitizeLabel(d.VolumeID); label != "" {
			return label, LabelFromVolumeID
		}
		if label := textutil.SanitizeLabel(d.PublisherID); label != "" {
			return label, LabelFromPublisher
		}
		if label := textutil.SanitizeLabel(d.VolumeUUID()); label != "" {
			return label, LabelFromUUID
		}
	}
	return textutil.SanitizeLabel(fallback), LabelFromFallback
}
