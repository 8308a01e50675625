package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestFileName is the command manifest looked up inside a plugin directory.
const ManifestFileName = "plugins.yaml"

// ProcessConfig describes a plugin started from a command line instead of a
// standalone executable in the plugin directory (e.g. "python summarize.py").
type ProcessConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Dir         string            `yaml:"dir" json:"dir"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile represents the structure of plugins.yaml.
type ConfigFile struct {
	Plugins []ProcessConfig `yaml:"plugins" json:"plugins"`
}

// LoadManifest reads a manifest (YAML or JSON) and returns its entries in file
// order. A missing file means no command plugins are configured.
func LoadManifest(path string) ([]ProcessConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read plugin manifest: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	baseDir := filepath.Dir(path)
	entries := make([]ProcessConfig, 0, len(cfg.Plugins))
	for _, p := range cfg.Plugins {
		if p.Command == "" {
			continue
		}
		if p.Dir == "" {
			p.Dir = baseDir
		}
		entries = append(entries, p)
	}
	return entries, nil
}
