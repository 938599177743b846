package bootstrap

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"noteassist/internal/config"
	"noteassist/internal/logging"
)

func TestBuildEmptyVaultRootFails(t *testing.T) {
	cfg := config.Default()
	cfg.Vault.Root = ""
	_, err := Build(cfg, Options{})
	if err == nil {
		t.Fatal("Build with empty root should fail")
	}
	if !strings.Contains(err.Error(), "vault root") {
		t.Fatalf("expected vault root error: %v", err)
	}
}

func TestBuildMissingVaultFails(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.Default()
	cfg.Storage.BaseDir = filepath.Join(tmp, "data")
	_, err := Build(cfg, Options{VaultRoot: filepath.Join(tmp, "nope"), Console: &bytes.Buffer{}})
	if err == nil {
		t.Fatal("Build with missing vault should fail")
	}
}

func TestBuildSuccessWithTempDir(t *testing.T) {
	tmp := t.TempDir()
	vaultDir := filepath.Join(tmp, "vault")
	if err := os.MkdirAll(vaultDir, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Storage.BaseDir = filepath.Join(tmp, "data")
	cfg.Vault.Root = filepath.Join(tmp, "ignored")
	cfg.Locale = "zh-CN"

	res, err := Build(cfg, Options{VaultRoot: vaultDir, Console: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer res.Close()

	if res.Service == nil || res.Journal == nil || res.Provider == nil {
		t.Fatalf("incomplete result: %+v", res)
	}
	if !strings.Contains(res.Vault.Root(), "vault") {
		t.Fatalf("vault root=%q", res.Vault.Root())
	}
	if res.I18n.Locale() != "zh-CN" {
		t.Fatalf("locale=%q", res.I18n.Locale())
	}
	if _, err := os.Stat(filepath.Join(cfg.Storage.BaseDir, journalFile)); err != nil {
		t.Fatalf("journal not created: %v", err)
	}
	res.Logger.Info("hello")
	if err := res.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(logging.Path(filepath.Join(cfg.Storage.BaseDir, "logs"))); err != nil {
		t.Fatalf("log file not created: %v", err)
	}
}
