package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gclens.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Threshold != 90 {
		t.Errorf("Threshold = %d, want 90", cfg.Threshold)
	}
	if cfg.RejectLimit != 1000 {
		t.Errorf("RejectLimit = %d, want 1000", cfg.RejectLimit)
	}
	if cfg.Preprocess {
		t.Error("Preprocess = true, want false")
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Threshold != 90 || cfg.RejectLimit != 1000 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, "threshold: 75\npreprocess: true\njvm_options: -Xmx2g\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Threshold != 75 {
		t.Errorf("Threshold = %d, want 75", cfg.Threshold)
	}
	if !cfg.Preprocess {
		t.Error("Preprocess = false, want true")
	}
	if cfg.JvmOptions != "-Xmx2g" {
		t.Errorf("JvmOptions = %q, want -Xmx2g", cfg.JvmOptions)
	}
	// Unset keys keep their defaults.
	if cfg.RejectLimit != 1000 {
		t.Errorf("RejectLimit = %d, want 1000", cfg.RejectLimit)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "threshold: [oops\n"},
		{"threshold too high", "threshold: 150\n"},
		{"threshold zero", "threshold: 0\n"},
		{"negative reject limit", "reject_limit: -5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("Load succeeded, want error")
			}
		})
	}
}
