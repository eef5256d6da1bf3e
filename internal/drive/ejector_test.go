package drive

import (
	"context"
	"errors"
	"testing"
)

type recordingExec struct {
	binary string
	args   []string
	err    error
}

func (r *recordingExec) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	r.binary = binary
	r.args = append([]string(nil), args...)
	return nil, r.err
}

func TestEjectEmptyDevice(t *testing.T) {
	e := NewEjectorWithExecutor(&recordingExec{})
	if err := e.Eject(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty device")
	}
}

func TestEjectFallsBackToCommand(t *testing.T) {
	// A nonexistent device fails the ioctl path, forcing the command fallback.
	rec := &recordingExec{}
	e := NewEjectorWithExecutor(rec)
	if err := e.Eject(context.Background(), "/dev/nonexistent_device_12345"); err != nil {
		t.Fatalf("Eject returned error: %v", err)
	}
	if rec.binary != "eject" {
		t.Fatalf("expected eject fallback, ran %q", rec.binary)
	}
	if len(rec.args) != 1 || rec.args[0] != "/dev/nonexistent_device_12345" {
		t.Fatalf("unexpected fallback args: %v", rec.args)
	}
}

func TestEjectReportsFallbackFailure(t *testing.T) {
	rec := &recordingExec{err: errors.New("no eject binary")}
	e := NewEjectorWithExecutor(rec)
	if err := e.Eject(context.Background(), "/dev/nonexistent_device_12345"); err == nil {
		t.Fatal("expected error when both eject paths fail")
	}
}
