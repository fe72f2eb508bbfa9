/*
Package config manages the TOML config for typeahead.

	[protocol]
	strict = true

	[index]
	compact_every = 0

	[server]
	max_limit = 64

	[cli]
	default_limit = 10
	show_scores = true
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/charmbracelet/log"
)

// AppDir is the directory name used under the user config dir.
const AppDir = "typeahead"

// Config holds the entire config structure
type Config struct {
	Protocol ProtocolConfig `toml:"protocol"`
	Index    IndexConfig    `toml:"index"`
	Server   ServerConfig   `toml:"server"`
	CLI      CliConfig      `toml:"cli"`
}

// ProtocolConfig controls command handling.
type ProtocolConfig struct {
	// Strict aborts the run on a malformed command; otherwise it is skipped.
	Strict bool `toml:"strict"`
}

// IndexConfig holds index options.
type IndexConfig struct {
	// CompactEvery prunes empty trie nodes after this many deletes. 0 disables.
	CompactEvery int `toml:"compact_every"`
}

// ServerConfig has IPC server options.
type ServerConfig struct {
	MaxLimit int `toml:"max_limit"`
}

// CliConfig holds interactive CLI options.
type CliConfig struct {
	DefaultLimit int  `toml:"default_limit"`
	ShowScores   bool `toml:"show_scores"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. $XDG_CONFIG_HOME/typeahead or ~/.config/typeahead
// 2. ~/Library/Application Support/typeahead (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", AppDir)
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		primaryPath = filepath.Join(xdg, AppDir)
	}
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", AppDir)
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from the -config flag
// 2. Default path: [UserConfigDir]/typeahead/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Protocol: ProtocolConfig{
			Strict: true,
		},
		Index: IndexConfig{
			CompactEvery: 0,
		},
		Server: ServerConfig{
			MaxLimit: 64,
		},
		CLI: CliConfig{
			DefaultLimit: 10,
			ShowScores:   true,
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file, salvaging valid sections when the file
// does not decode cleanly.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	config.Validate()
	return config, nil
}

// tryPartialParse reads whatever sections still parse on top of defaults.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "protocol"); ok {
		if val, ok := utils.ExtractBool(section, "strict"); ok {
			config.Protocol.Strict = val
		}
	}
	if section, ok := utils.ExtractSection(tempConfig, "index"); ok {
		if val, ok := utils.ExtractInt64(section, "compact_every"); ok {
			config.Index.CompactEvery = val
		}
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		if val, ok := utils.ExtractInt64(section, "max_limit"); ok {
			config.Server.MaxLimit = val
		}
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		if val, ok := utils.ExtractInt64(section, "default_limit"); ok {
			config.CLI.DefaultLimit = val
		}
		if val, ok := utils.ExtractBool(section, "show_scores"); ok {
			config.CLI.ShowScores = val
		}
	}
	config.Validate()
	return config, nil
}

// Validate resets out of range values to their defaults.
func (c *Config) Validate() {
	def := DefaultConfig()
	if c.Index.CompactEvery < 0 {
		log.Warnf("index.compact_every=%d is negative, disabling", c.Index.CompactEvery)
		c.Index.CompactEvery = 0
	}
	if c.Server.MaxLimit < 1 {
		log.Warnf("server.max_limit=%d is below 1, using %d", c.Server.MaxLimit, def.Server.MaxLimit)
		c.Server.MaxLimit = def.Server.MaxLimit
	}
	if c.CLI.DefaultLimit < 1 {
		log.Warnf("cli.default_limit=%d is below 1, using %d", c.CLI.DefaultLimit, def.CLI.DefaultLimit)
		c.CLI.DefaultLimit = def.CLI.DefaultLimit
	}
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// GetActiveConfigPath returns the absolute path of the loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		return "builtin defaults"
	}
	return utils.GetAbsolutePath(configPath)
}
