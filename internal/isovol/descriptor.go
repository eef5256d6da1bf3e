package isovol

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// SectorSize is the ISO9660 logical sector size in bytes.
const SectorSize = 2048

// Volume descriptors start at sector 16. A conforming volume terminates the
// descriptor sequence well before this scan limit.
const (
	descriptorStart = 16
	descriptorLimit = 64
)

// Descriptor type codes from ECMA-119.
const (
	typeBootRecord    = 0
	typePrimary       = 1
	typeSupplementary = 2
	typePartition     = 3
	typeTerminator    = 255
)

var signature = []byte{'C', 'D', '0', '0', '1'}

// ErrNotISO9660 reports media whose sector 16 carries no volume descriptor
// signature at all.
var ErrNotISO9660 = errors.New("no ISO9660 signature found")

// Timestamp is a 17-byte volume descriptor date/time field: sixteen ASCII
// digits (yyyyMMddHHmmsscc) plus a GMT offset in 15-minute units.
type Timestamp struct {
	Raw    string
	Offset int
	Empty  bool
}

func parseTimestamp(data []byte) Timestamp {
	if len(data) < 17 {
		return Timestamp{Empty: true}
	}
	empty := true
	for _, b := range data[:16] {
		if b < '0' || b > '9' {
			return Timestamp{Empty: true}
		}
		if b != '0' {
			empty = false
		}
	}
	if empty {
		return Timestamp{Empty: true}
	}
	return Timestamp{
		Raw:    string(data[:16]),
		Offset: int(data[16]) - 48,
	}
}

// String renders the timestamp as "yyyy-MM-dd HH:mm:ss", or "" when unset.
func (t Timestamp) String() string {
	if t.Empty || len(t.Raw) != 16 {
		return ""
	}
	return fmt.Sprintf("%s-%s-%s %s:%s:%s",
		t.Raw[0:4], t.Raw[4:6], t.Raw[6:8], t.Raw[8:10], t.Raw[10:12], t.Raw[12:14])
}

// UUID renders the timestamp in the dashed form blkid reports as the ISO9660
// volume UUID, hundredths included.
func (t Timestamp) UUID() string {
	if t.Empty || len(t.Raw) != 16 {
		return ""
	}
	return fmt.Sprintf("%s-%s-%s-%s-%s-%s-%s",
		t.Raw[0:4], t.Raw[4:6], t.Raw[6:8], t.Raw[8:10], t.Raw[10:12], t.Raw[12:14], t.Raw[14:16])
}

// Geometry describes the block layout of a volume.
type Geometry struct {
	BlockSize  int64
	BlockCount int64
}

// TotalBytes is the exact byte length of the volume image.
func (g Geometry) TotalBytes() int64 {
	return g.BlockSize * g.BlockCount
}

// Validate rejects geometry unusable for capture. Both dimensions must be
// positive; anything else marks the medium unreadable rather than retryable.
func (g Geometry) Validate() error {
	if g.BlockSize <= 0 {
		return fmt.Errorf("logical block size %d is not positive", g.BlockSize)
	}
	if g.BlockCount <= 0 {
		return fmt.Errorf("volume block count %d is not positive", g.BlockCount)
	}
	return nil
}

// Descriptor holds the primary volume descriptor fields of an ISO9660 medium.
type Descriptor struct {
	Version              int
	SystemID             string
	VolumeID             string
	VolumeSetID          string
	PublisherID          string
	DataPreparerID       string
	ApplicationID        string
	CopyrightFileID      string
	AbstractFileID       string
	BibliographicFileID  string
	VolumeSetSize        int
	VolumeSequence       int
	BlockCount           int64
	BlockSize            int64
	Created              Timestamp
	Modified             Timestamp
	Expires              Timestamp
	Effective            Timestamp
	FileStructureVersion int
}

// Open reads the primary volume descriptor from the named device or image
// file.
func Open(path string) (*Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Read scans the volume descriptor sequence starting at sector 16 and returns
// the primary descriptor. Boot records and supplementary descriptors are
// skipped; a set terminator before any primary descriptor is an error.
func Read(r io.ReaderAt) (*Descriptor, error) {
	buf := make([]byte, SectorSize)
	for sector := descriptorStart; sector < descriptorLimit; sector++ {
		if _, err := r.ReadAt(buf, int64(sector)*SectorSize); err != nil {
			return nil, fmt.Errorf("read sector %d: %w", sector, err)
		}
		if !hasSignature(buf) {
			if sector == descriptorStart {
				return nil, ErrNotISO9660
			}
			return nil, fmt.Errorf("sector %d: descriptor signature missing", sector)
		}
		switch buf[0] {
		case typePrimary:
			return parsePrimary(buf), nil
		case typeBootRecord, typeSupplementary, typePartition:
			continue
		case typeTerminator:
			return nil, errors.New("descriptor set ended without a primary volume descriptor")
		default:
			return nil, fmt.Errorf("sector %d: unknown volume descriptor type %d", sector, buf[0])
		}
	}
	return nil, errors.New("no primary volume descriptor within scan window")
}

func hasSignature(sector []byte) bool {
	for i, b := range signature {
		if sector[1+i] != b {
			return false
		}
	}
	return true
}

func parsePrimary(data []byte) *Descriptor {
	return &Descriptor{
		Version:              int(data[6]),
		SystemID:             strField(data[8:40]),
		VolumeID:             strField(data[40:72]),
		BlockCount:           int64(bothEndian32(data[80:88])),
		VolumeSetSize:        int(bothEndian16(data[120:124])),
		VolumeSequence:       int(bothEndian16(data[124:128])),
		BlockSize:            int64(bothEndian16(data[128:132])),
		VolumeSetID:          strField(data[190:318]),
		PublisherID:          strField(data[318:446]),
		DataPreparerID:       strField(data[446:574]),
		ApplicationID:        strField(data[574:702]),
		CopyrightFileID:      strField(data[702:739]),
		AbstractFileID:       strField(data[739:776]),
		BibliographicFileID:  strField(data[776:813]),
		Created:              parseTimestamp(data[813:830]),
		Modified:             parseTimestamp(data[830:847]),
		Expires:              parseTimestamp(data[847:864]),
		Effective:            parseTimestamp(data[864:881]),
		FileStructureVersion: int(data[881]),
	}
}

// strField decodes a space-padded descriptor string field.
func strField(data []byte) string {
	return strings.TrimRight(string(data), " \x00")
}

// bothEndian16 decodes the little-endian half of an ISO9660 both-byte-order
// 16-bit field.
func bothEndian16(data []byte) uint16 {
	return uint16(data[0]) | uint16(data[1])<<8
}

// bothEndian32 decodes the little-endian half of an ISO9660 both-byte-order
// 32-bit field.
func bothEndian32(data []byte) uint32 {
	return uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
}

// Geometry returns the capture geometry recorded in the descriptor.
func (d *Descriptor) Geometry() Geometry {
	return Geometry{BlockSize: d.BlockSize, BlockCount: d.BlockCount}
}

// VolumeUUID returns the blkid-style volume UUID derived from the creation
// timestamp, or "" when the volume carries none.
func (d *Descriptor) VolumeUUID() string {
	return d.Created.UUID()
}
