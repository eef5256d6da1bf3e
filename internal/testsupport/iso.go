package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

const sectorSize = 2048

// VolumeSpec describes a synthetic ISO9660 volume image for tests.
type VolumeSpec struct {
	SystemID     string
	VolumeID     string
	VolumeSetID  string
	Publisher    string
	DataPreparer string
	Application  string
	// Created holds sixteen ASCII digits (yyyyMMddHHmmsscc). Empty leaves
	// the creation and modification timestamps unset.
	Created   string
	GMTOffset int
	// BlockCount is the total sector count of the image, minimum 18.
	BlockCount int
}

// BuildVolume renders a VolumeSpec into ISO9660 image bytes: a zeroed system
// area, a primary volume descriptor at sector 16, a set terminator at 17,
// and per-sector patterned data out to the declared block count.
func BuildVolume(t testing.TB, spec VolumeSpec) []byte {
	t.Helper()

	if spec.BlockCount == 0 {
		spec.BlockCount = 20
	}
	if spec.BlockCount < 18 {
		t.Fatalf("volume needs at least 18 sectors, got %d", spec.BlockCount)
	}
	if spec.Created != "" && len(spec.Created) != 16 {
		t.Fatalf("creation timestamp must be 16 digits, got %q", spec.Created)
	}

	image := make([]byte, spec.BlockCount*sectorSize)

	pvd := image[16*sectorSize : 17*sectorSize]
	pvd[0] = 1
	copy(pvd[1:6], "CD001")
	pvd[6] = 1
	putPaddedString(pvd[8:40], spec.SystemID)
	putPaddedString(pvd[40:72], spec.VolumeID)
	putBothEndian32(pvd[80:88], uint32(spec.BlockCount))
	putBothEndian16(pvd[120:124], 1)
	putBothEndian16(pvd[124:128], 1)
	putBothEndian16(pvd[128:132], sectorSize)
	putPaddedString(pvd[190:318], spec.VolumeSetID)
	putPaddedString(pvd[318:446], spec.Publisher)
	putPaddedString(pvd[446:574], spec.DataPreparer)
	putPaddedString(pvd[574:702], spec.Application)
	putPaddedString(pvd[702:739], "")
	putPaddedString(pvd[739:776], "")
	putPaddedString(pvd[776:813], "")
	putTimestamp(pvd[813:830], spec.Created, spec.GMTOffset)
	putTimestamp(pvd[830:847], spec.Created, spec.GMTOffset)
	putTimestamp(pvd[847:864], "", 0)
	putTimestamp(pvd[864:881], "", 0)
	pvd[881] = 1

	term := image[17*sectorSize : 18*sectorSize]
	term[0] = 255
	copy(term[1:6], "CD001")
	term[6] = 1

	for sector := 18; sector < spec.BlockCount; sector++ {
		data := image[sector*sectorSize : (sector+1)*sectorSize]
		for i := range data {
			data[i] = byte(sector)
		}
	}

	return image
}

// WriteVolume writes a synthetic volume image to path and returns its bytes.
func WriteVolume(t testing.TB, path string, spec VolumeSpec) []byte {
	t.Helper()

	image := BuildVolume(t, spec)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, image, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return image
}

func putPaddedString(dst []byte, value string) {
	for i := range dst {
		dst[i] = ' '
	}
	copy(dst, value)
}

func putBothEndian16(dst []byte, v uint16) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 8)
	dst[3] = byte(v)
}

func putBothEndian32(dst []byte, v uint32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
	dst[4] = byte(v >> 24)
	dst[5] = byte(v >> 16)
	dst[6] = byte(v >> 8)
	dst[7] = byte(v)
}

// putTimestamp writes a 17-byte descriptor timestamp. An empty value writes
// the all-zero unset form.
func putTimestamp(dst []byte, digits string, gmtOffset int) {
	if digits == "" {
		for i := 0; i < 16; i++ {
			dst[i] = '0'
		}
		dst[16] = 0
		return
	}
	copy(dst, digits)
	dst[16] = byte(gmtOffset + 48)
}
