package capture_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"discvault/internal/capture"
	"discvault/internal/isovol"
	"discvault/internal/logging"
	"discvault/internal/testsupport"
)

func newCapturer(t *testing.T) *capture.Capturer {
	t.Helper()
	return capture.New(testsupport.NewConfig(t), logging.NewNop())
}

func writeDevice(t *testing.T, dir string, sectors int, trailing int) (string, []byte) {
	t.Helper()
	volume := testsupport.BuildVolume(t, testsupport.VolumeSpec{
		VolumeID:   "CAPTURE_TEST",
		BlockCount: sectors,
	})
	content := volume
	if trailing > 0 {
		padding := bytes.Repeat([]byte{0xEE}, trailing*isovol.SectorSize)
		content = append(append([]byte{}, volume...), padding...)
	}
	path := filepath.Join(dir, "device")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write device: %v", err)
	}
	return path, volume
}

func TestCaptureCopiesExactGeometry(t *testing.T) {
	dir := t.TempDir()
	device, volume := writeDevice(t, dir, 20, 5)
	dst := filepath.Join(dir, "out.iso")
	geom := isovol.Geometry{BlockSize: isovol.SectorSize, BlockCount: 20}

	result, err := newCapturer(t).Capture(context.Background(), device, dst, geom)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}

	if result.Bytes != geom.TotalBytes() {
		t.Errorf("Bytes = %d, want %d", result.Bytes, geom.TotalBytes())
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read image: %v", err)
	}
	if !bytes.Equal(got, volume) {
		t.Error("image does not match the declared extent of the device")
	}

	sum := sha256.Sum256(volume)
	if want := hex.EncodeToString(sum[:]); result.Digest != want {
		t.Errorf("Digest = %s, want %s", result.Digest, want)
	}
}

func TestCaptureShortDeviceFails(t *testing.T) {
	dir := t.TempDir()
	device, _ := writeDevice(t, dir, 18, 0)
	dst := filepath.Join(dir, "out.iso")
	geom := isovol.Geometry{BlockSize: isovol.SectorSize, BlockCount: 40}

	_, err := newCapturer(t).Capture(context.Background(), device, dst, geom)
	if err == nil || !strings.Contains(err.Error(), "delivered") {
		t.Fatalf("err = %v, want short-delivery error", err)
	}
	if _, statErr := os.Stat(dst); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("partial image should be removed")
	}
}

func TestCaptureRejectsInvalidGeometry(t *testing.T) {
	dir := t.TempDir()
	device, _ := writeDevice(t, dir, 18, 0)

	_, err := newCapturer(t).Capture(context.Background(), device, filepath.Join(dir, "out.iso"), isovol.Geometry{})
	if err == nil {
		t.Fatal("expected geometry error")
	}
}

func TestCaptureHonorsContextCancel(t *testing.T) {
	dir := t.TempDir()
	device, _ := writeDevice(t, dir, 20, 0)
	dst := filepath.Join(dir, "out.iso")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newCapturer(t).Capture(ctx, device, dst, isovol.Geometry{BlockSize: isovol.SectorSize, BlockCount: 20})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if _, statErr := os.Stat(dst); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("partial image should be removed")
	}
}

func TestCaptureMissingDevice(t *testing.T) {
	dir := t.TempDir()
	_, err := newCapturer(t).Capture(context.Background(), filepath.Join(dir, "absent"), filepath.Join(dir, "out.iso"),
		isovol.Geometry{BlockSize: isovol.SectorSize, BlockCount: 20})
	if err == nil || !strings.Contains(err.Error(), "open device") {
		t.Fatalf("err = %v", err)
	}
}

func TestVerifyPasses(t *testing.T) {
	dir := t.TempDir()
	device, volume := writeDevice(t, dir, 20, 3)
	image := filepath.Join(dir, "copy.iso")
	if err := os.WriteFile(image, volume, 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	geom := isovol.Geometry{BlockSize: isovol.SectorSize, BlockCount: 20}

	outcome, err := newCapturer(t).Verify(context.Background(), device, image, geom)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !outcome.Passed() {
		t.Fatalf("verification failed: source=%s image=%s", outcome.SourceDigest, outcome.ImageDigest)
	}
	if outcome.SourceBytes != geom.TotalBytes() || outcome.ImageBytes != geom.TotalBytes() {
		t.Errorf("bytes = %d/%d, want %d", outcome.SourceBytes, outcome.ImageBytes, geom.TotalBytes())
	}
}

func TestVerifyDetectsCorruption(t *testing.T) {
	dir := t.TempDir()
	device, volume := writeDevice(t, dir, 20, 0)
	corrupted := append([]byte{}, volume...)
	corrupted[19*isovol.SectorSize+100] ^= 0xFF
	image := filepath.Join(dir, "copy.iso")
	if err := os.WriteFile(image, corrupted, 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}

	outcome, err := newCapturer(t).Verify(context.Background(), device, image,
		isovol.Geometry{BlockSize: isovol.SectorSize, BlockCount: 20})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if outcome.Passed() {
		t.Fatal("corrupted image should not verify")
	}
}

func TestVerifyDetectsTruncation(t *testing.T) {
	dir := t.TempDir()
	device, volume := writeDevice(t, dir, 20, 0)
	image := filepath.Join(dir, "copy.iso")
	if err := os.WriteFile(image, volume[:15*isovol.SectorSize], 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	geom := isovol.Geometry{BlockSize: isovol.SectorSize, BlockCount: 20}

	outcome, err := newCapturer(t).Verify(context.Background(), device, image, geom)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if outcome.Passed() {
		t.Fatal("truncated image should not verify")
	}
	if outcome.ImageBytes != 15*isovol.SectorSize {
		t.Errorf("ImageBytes = %d, want %d", outcome.ImageBytes, 15*isovol.SectorSize)
	}
}

func TestEnableProgressRendersToWriter(t *testing.T) {
	dir := t.TempDir()
	device, _ := writeDevice(t, dir, 20, 0)
	dst := filepath.Join(dir, "out.iso")

	capturer := newCapturer(t)
	var progress bytes.Buffer
	capturer.EnableProgress(&progress)

	if _, err := capturer.Capture(context.Background(), device, dst,
		isovol.Geometry{BlockSize: isovol.SectorSize, BlockCount: 20}); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if progress.Len() == 0 {
		t.Error("progress writer received no output")
	}
}
