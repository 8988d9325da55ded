package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromFile_Merges(t *testing.T) {
	path := writeConfig(t, "fixed_fee: 12.5\nreport_dir: out\nlisten_addr: \"127.0.0.1:9000\"\n")

	c := Default()
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	want := Default()
	want.FixedFee = 12.5
	want.ReportDir = "out"
	want.ListenAddr = "127.0.0.1:9000"
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	c := Default()
	if err := c.LoadFromFile("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFromFile_BadYAML(t *testing.T) {
	path := writeConfig(t, "fixed_fee: [oops\n")
	c := Default()
	if err := c.LoadFromFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"json_format", func(c *Config) { c.LogFormat = "json" }, false},
		{"bad_format", func(c *Config) { c.LogFormat = "xml" }, true},
		{"negative_fee", func(c *Config) { c.FixedFee = -1 }, true},
		{"no_report_dir", func(c *Config) { c.ReportDir = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateWithDSN(t *testing.T) {
	t.Setenv(EnvDSN, "")
	c := Default()
	c.ApplyEnv()
	if err := c.ValidateWithDSN(); err == nil {
		t.Fatal("expected missing DSN error")
	}

	t.Setenv(EnvDSN, "postgres://localhost/owedbook")
	c.ApplyEnv()
	if err := c.ValidateWithDSN(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.DSN != "postgres://localhost/owedbook" {
		t.Errorf("expected DSN from env, got %q", c.DSN)
	}
}

func TestRefFile(t *testing.T) {
	c := Default()
	if got := c.RefFile("aac.xlsx"); got != filepath.Join("inclusion_lists", "aac.xlsx") {
		t.Errorf("unexpected relative resolution %q", got)
	}
	if got := c.RefFile("/data/aac.xlsx"); got != "/data/aac.xlsx" {
		t.Errorf("absolute path changed: %q", got)
	}
	if got := c.RefFile(""); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
