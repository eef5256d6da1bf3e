package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"discvault/internal/config"
)

func TestLoadDefaultConfigAppliesDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if cfg.Drive.Device != "" {
		t.Fatalf("expected empty device default, got %q", cfg.Drive.Device)
	}
	if !cfg.Drive.EjectBetweenDiscs {
		t.Fatal("expected eject_between_discs enabled by default")
	}
	if !filepath.IsAbs(cfg.Output.Directory) {
		t.Fatalf("expected output directory to be absolute, got %q", cfg.Output.Directory)
	}
	if !cfg.Capture.Verify {
		t.Fatal("expected verification enabled by default")
	}
	if cfg.Capture.Sidecar {
		t.Fatal("expected sidecar disabled by default")
	}
	if cfg.Capture.BufferKiB != 64 {
		t.Fatalf("unexpected buffer size: %d", cfg.Capture.BufferKiB)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("unexpected log level: %q", cfg.Logging.Level)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "discvault.toml")

	type payload struct {
		Drive struct {
			Device            string `toml:"device"`
			EjectBetweenDiscs bool   `toml:"eject_between_discs"`
		} `toml:"drive"`
		Output struct {
			Directory string `toml:"directory"`
		} `toml:"output"`
		Capture struct {
			Verify    bool `toml:"verify"`
			BufferKiB int  `toml:"buffer_kib"`
		} `toml:"capture"`
	}
	custom := payload{}
	custom.Drive.Device = "/dev/sr1"
	custom.Drive.EjectBetweenDiscs = false
	custom.Output.Directory = tempDir
	custom.Capture.Verify = false
	custom.Capture.BufferKiB = 128

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Drive.Device != "/dev/sr1" {
		t.Fatalf("expected device from file, got %q", cfg.Drive.Device)
	}
	if cfg.Drive.EjectBetweenDiscs {
		t.Fatal("expected eject_between_discs disabled by file")
	}
	if cfg.Output.Directory != tempDir {
		t.Fatalf("expected output directory %q, got %q", tempDir, cfg.Output.Directory)
	}
	if cfg.Capture.Verify {
		t.Fatal("expected verification disabled by file")
	}
	if cfg.Capture.BufferKiB != 128 {
		t.Fatalf("expected buffer 128, got %d", cfg.Capture.BufferKiB)
	}
}

func TestLoadExpandsTildeInPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "discvault.toml")
	payload := "[output]\ndirectory = \"~/archive\"\n\n[logging]\nlog_dir = \"~/logs\"\n"
	if err := os.WriteFile(configPath, []byte(payload), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if want := filepath.Join(tempHome, "archive"); cfg.Output.Directory != want {
		t.Fatalf("expected output dir %q, got %q", want, cfg.Output.Directory)
	}
	if want := filepath.Join(tempHome, "logs"); cfg.Logging.LogDir != want {
		t.Fatalf("expected log dir %q, got %q", want, cfg.Logging.LogDir)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr string
	}{
		{
			name:    "relative device",
			payload: "[drive]\ndevice = \"sr0\"\n",
			wantErr: "drive.device",
		},
		{
			name:    "bad log format",
			payload: "[logging]\nformat = \"xml\"\n",
			wantErr: "logging.format",
		},
		{
			name:    "bad log level",
			payload: "[logging]\nlevel = \"verbose\"\n",
			wantErr: "logging.level",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "discvault.toml")
			if err := os.WriteFile(configPath, []byte(tc.payload), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(configPath)
			if err == nil {
				t.Fatal("expected Load to fail")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestNegativeBufferFallsBackToDefault(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "discvault.toml")
	if err := os.WriteFile(configPath, []byte("[capture]\nbuffer_kib = -4\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Capture.BufferKiB != 64 {
		t.Fatalf("expected default buffer, got %d", cfg.Capture.BufferKiB)
	}
}

func TestCreateSampleWritesParseableConfig(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("Load of sample failed: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.Capture.BufferKiB != 64 {
		t.Fatalf("sample should carry defaults, got buffer %d", cfg.Capture.BufferKiB)
	}
}
