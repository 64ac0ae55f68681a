// Package config holds plural-port's runtime configuration. The config is
// constructed once at process start and passed to every component by
// reference — components never look up directories ambiently.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zhubert/plural-port/paths"
)

// DefaultSearchDepth bounds how deep the repository resolver recurses under
// each search root when looking for a directory matching a project name.
const DefaultSearchDepth = 3

// Config is the tool-wide configuration, loaded from config.yaml.
type Config struct {
	// StoreDir is the root of the record store being migrated.
	StoreDir string `yaml:"store_dir"`

	// ArchiveDir is where built session archives are written.
	ArchiveDir string `yaml:"archive_dir"`

	// SearchRoots are the directories scanned when resolving a repository
	// by name. Defaults to the home directory and common project folders.
	SearchRoots []string `yaml:"search_roots"`

	// SearchDepth bounds the resolver's recursion under each search root.
	SearchDepth int `yaml:"search_depth"`

	filePath string
}

// DefaultSearchRoots returns the conventional project-root directories under
// the given home directory. Only directories that exist are searched; the
// list itself does not check existence.
func DefaultSearchRoots(home string) []string {
	return []string{
		home,
		filepath.Join(home, "Projects"),
		filepath.Join(home, "projects"),
		filepath.Join(home, "src"),
		filepath.Join(home, "code"),
		filepath.Join(home, "dev"),
		filepath.Join(home, "workspace"),
		filepath.Join(home, "repos"),
		filepath.Join(home, "Documents"),
	}
}

// Default returns a config populated from the resolved path layout.
func Default() (*Config, error) {
	storeDir, err := paths.StorageDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage directory: %w", err)
	}
	archiveDir, err := paths.ArchivesDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve archives directory: %w", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}

	return &Config{
		StoreDir:    storeDir,
		ArchiveDir:  archiveDir,
		SearchRoots: DefaultSearchRoots(home),
		SearchDepth: DefaultSearchDepth,
	}, nil
}

// Load reads config.yaml from the config directory, filling unset fields with
// defaults. If the file does not exist, the default config is returned.
func Load() (*Config, error) {
	fp, err := paths.ConfigFilePath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	return LoadFrom(fp)
}

// LoadFrom reads a config file from an explicit path, filling unset fields
// with defaults. A missing file yields the default config with filePath set
// so a later Save writes to the expected location.
func LoadFrom(fp string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	cfg.filePath = fp

	data, err := os.ReadFile(fp)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if loaded.StoreDir != "" {
		cfg.StoreDir = loaded.StoreDir
	}
	if loaded.ArchiveDir != "" {
		cfg.ArchiveDir = loaded.ArchiveDir
	}
	if len(loaded.SearchRoots) > 0 {
		cfg.SearchRoots = loaded.SearchRoots
	}
	if loaded.SearchDepth > 0 {
		cfg.SearchDepth = loaded.SearchDepth
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config for values that would break the components.
func (c *Config) Validate() error {
	if c.StoreDir == "" {
		return fmt.Errorf("store_dir must not be empty")
	}
	if !filepath.IsAbs(c.StoreDir) {
		return fmt.Errorf("store_dir must be an absolute path, got %q", c.StoreDir)
	}
	if c.ArchiveDir == "" {
		return fmt.Errorf("archive_dir must not be empty")
	}
	if !filepath.IsAbs(c.ArchiveDir) {
		return fmt.Errorf("archive_dir must be an absolute path, got %q", c.ArchiveDir)
	}
	if c.SearchDepth < 1 {
		return fmt.Errorf("search_depth must be at least 1, got %d", c.SearchDepth)
	}
	if len(c.SearchRoots) == 0 {
		return fmt.Errorf("search_roots must not be empty")
	}
	return nil
}

// Save writes the config back to the file it was loaded from.
func (c *Config) Save() error {
	if c.filePath == "" {
		return fmt.Errorf("config has no file path")
	}

	if err := os.MkdirAll(filepath.Dir(c.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(c.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// FilePath returns the path the config was loaded from (or will be saved to).
func (c *Config) FilePath() string {
	return c.filePath
}
