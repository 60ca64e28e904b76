package main

import (
	"os"
	"strconv"

	"github.com/go-errors/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigFile = "minicjs.yaml"
	defaultPak        = "minicjs.pak"

	envConfig = "MINICJS_CONFIG"
	envPak    = "MINICJS_PAK"
	envDebug  = "MINICJS_DEBUG"
)

// Config is the optional YAML configuration of the command.
type Config struct {
	// Pak is the zip image holding the module store.
	Pak string `yaml:"pak"`
	// Manifest overrides the manifest location inside the store.
	Manifest string `yaml:"manifest"`
	// Paths are appended to the search paths of the manifest.
	Paths []string `yaml:"paths"`
	// Mounts maps store paths to host directories whose files are served
	// as internal modules below that path.
	Mounts map[string]string `yaml:"mounts"`
	// Platform overrides the platform reported to scripts.
	Platform string `yaml:"platform"`
	Debug    bool   `yaml:"debug"`
}

// LoadConfig reads path, or the file named by MINICJS_CONFIG when path is
// empty. A missing default file is not an error. Environment variables
// override the file.
func LoadConfig(fs afero.Fs, path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv(envConfig)
		explicit = path != ""
	}
	if path == "" {
		path = defaultConfigFile
	}

	var cfg Config
	data, err := afero.ReadFile(fs, path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return nil, errors.Errorf("parse config %s: %s", path, err.Error())
		}
	case explicit || !os.IsNotExist(err):
		return nil, errors.Errorf("read config %s: %s", path, err.Error())
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(envPak); v != "" {
		cfg.Pak = v
	}
	if v := os.Getenv(envDebug); v != "" {
		if debug, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = debug
		}
	}
}

func setDefaults(cfg *Config) {
	if cfg.Pak == "" {
		cfg.Pak = defaultPak
	}
}
