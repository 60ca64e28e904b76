package main

import (
	"reflect"
	"testing"

	"github.com/spf13/afero"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(envConfig, "")
	t.Setenv(envPak, "")
	t.Setenv(envDebug, "")
}

func TestLoadConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DIR", "/stores")

	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/etc/minicjs.yaml", []byte(`
pak: ${STORE_DIR}/app.pak
manifest: meta/app.json
paths:
  - lib
  - vendor
mounts:
  lib: ${STORE_DIR}/lib
platform: win32
debug: true
`), 0644)

	cfg, err := LoadConfig(fs, "/etc/minicjs.yaml")
	if err != nil {
		t.Fatal(err)
	}
	want := &Config{
		Pak:      "/stores/app.pak",
		Manifest: "meta/app.json",
		Paths:    []string{"lib", "vendor"},
		Mounts:   map[string]string{"lib": "/stores/lib"},
		Platform: "win32",
		Debug:    true,
	}
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("LoadConfig = %+v, want %+v", cfg, want)
	}

	t.Setenv(envConfig, "/etc/minicjs.yaml")
	t.Setenv(envPak, "/override.pak")
	t.Setenv(envDebug, "false")
	cfg, err = LoadConfig(fs, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Pak != "/override.pak" || cfg.Debug {
		t.Errorf("environment overrides not applied: %+v", cfg)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	fs := afero.NewMemMapFs()

	cfg, err := LoadConfig(fs, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Pak != defaultPak || cfg.Debug || len(cfg.Paths) != 0 {
		t.Errorf("unexpected defaults %+v", cfg)
	}

	if _, err := LoadConfig(fs, "/missing.yaml"); err == nil {
		t.Error("missing explicit config accepted")
	}
	t.Setenv(envConfig, "/missing.yaml")
	if _, err := LoadConfig(fs, ""); err == nil {
		t.Error("missing config named by the environment accepted")
	}

	afero.WriteFile(fs, "/broken.yaml", []byte("paths: [unterminated"), 0644)
	if _, err := LoadConfig(fs, "/broken.yaml"); err == nil {
		t.Error("malformed config accepted")
	}
}
