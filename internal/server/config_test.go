package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fieldserve/marketing-targets/pkg/constants"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Address != constants.DefaultServerAddress {
		t.Errorf("address = %s, want %s", cfg.Address, constants.DefaultServerAddress)
	}
	if cfg.BodySizeBytes() != constants.DefaultMaxBodySizeBytes {
		t.Errorf("body size = %d, want %d", cfg.BodySizeBytes(), constants.DefaultMaxBodySizeBytes)
	}
	if cfg.Database.Path != constants.DefaultDatabasePath {
		t.Errorf("database path = %s, want default", cfg.Database.Path)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error for missing file = %v", err)
	}
	if cfg.Address != constants.DefaultServerAddress {
		t.Errorf("missing file should fall back to defaults, got address %s", cfg.Address)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	contents := `address: ":9090"
maxBodySize: 1M
logging:
  level: debug
database:
  path: /tmp/custom.db
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Address != ":9090" {
		t.Errorf("address = %s, want :9090", cfg.Address)
	}
	if cfg.BodySizeBytes() != 1024*1024 {
		t.Errorf("body size = %d, want 1M", cfg.BodySizeBytes())
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %s, want debug", cfg.Logging.Level)
	}
	if cfg.Database.Path != "/tmp/custom.db" {
		t.Errorf("database path = %s", cfg.Database.Path)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{input: "1024", want: 1024},
		{input: "256K", want: 256 * 1024},
		{input: "256KB", want: 256 * 1024},
		{input: "10M", want: 10 * 1024 * 1024},
		{input: "1G", want: 1024 * 1024 * 1024},
		{input: " 2 MB ", want: 2 * 1024 * 1024},
		{input: "", want: constants.DefaultMaxBodySizeBytes},
		{input: "abc", wantErr: true},
		{input: "10T", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseSize(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("ParseSize(%q) error = %v", tt.input, err)
				return
			}
			if got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}
