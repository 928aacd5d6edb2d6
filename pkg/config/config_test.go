package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Mode != "debug" {
		t.Errorf("Server.Mode = %s, want debug", cfg.Server.Mode)
	}
	if cfg.Import.BatchSize != 5000 {
		t.Errorf("Import.BatchSize = %d, want 5000", cfg.Import.BatchSize)
	}
	if cfg.Import.UploadDir != "data/imports" {
		t.Errorf("Import.UploadDir = %s, want data/imports", cfg.Import.UploadDir)
	}
	if cfg.Import.RescanSpec != "0 * * * * *" {
		t.Errorf("Import.RescanSpec = %q", cfg.Import.RescanSpec)
	}
	if cfg.Webhook.Timeout != 5*time.Second {
		t.Errorf("Webhook.Timeout = %v, want 5s", cfg.Webhook.Timeout)
	}
	if cfg.Webhook.Workers != 4 {
		t.Errorf("Webhook.Workers = %d, want 4", cfg.Webhook.Workers)
	}
	if cfg.Database.ConnMaxLifetime != time.Hour {
		t.Errorf("Database.ConnMaxLifetime = %v, want 1h", cfg.Database.ConnMaxLifetime)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: "9090"
  mode: release
import:
  batch_size: 200
  workers: 8
webhook:
  timeout: 10s
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("写配置文件失败: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if cfg.Server.Port != "9090" || cfg.Server.Mode != "release" {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Import.BatchSize != 200 || cfg.Import.Workers != 8 {
		t.Errorf("Import = %+v", cfg.Import)
	}
	if cfg.Webhook.Timeout != 10*time.Second {
		t.Errorf("Webhook.Timeout = %v, want 10s", cfg.Webhook.Timeout)
	}

	// 没覆盖的字段仍取默认值
	if cfg.Import.QueueSize != 64 {
		t.Errorf("Import.QueueSize = %d, want 64", cfg.Import.QueueSize)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [not: valid"), 0o644); err != nil {
		t.Fatalf("写配置文件失败: %v", err)
	}

	if _, err := Load(dir); err == nil {
		t.Error("损坏的配置文件应报错")
	}
}
