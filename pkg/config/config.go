// Package config loads e2ectl configuration from INI files with an embedded
// defaults fallback. merge order is embedded → global → local, local wins.
package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed defaults
var defaultsFS embed.FS

// Config holds the full e2ectl configuration.
type Config struct {
	BaseURL    string // backend base URL
	ScriptFile string // where generated scripts are written
	SampleFile string // where the sample spreadsheet is written
	RunCommand string // the literal command copied to the clipboard

	Capabilities Capabilities
	Colors       ColorConfig
	Notify       NotifyConfig
}

// Capabilities gates optional features of the generator workflow.
// the three original near-identical views collapse into one flow
// parameterized by this set. fields ending in Set track whether the value
// was explicitly configured, letting a local config disable a capability
// the defaults enable.
type Capabilities struct {
	Run       bool // container execution of generated scripts
	RunSet    bool // tracks if enable_run was explicitly set
	Sample    bool // sample spreadsheet download
	SampleSet bool // tracks if enable_sample was explicitly set
	Watch     bool // regenerate on spreadsheet changes
	WatchSet  bool // tracks if enable_watch was explicitly set
}

// NotifyConfig holds notification channel settings.
type NotifyConfig struct {
	Channels      []string
	OnError       bool
	OnErrorSet    bool // tracks if notify_on_error was explicitly set
	OnComplete    bool
	OnCompleteSet bool // tracks if notify_on_complete was explicitly set
	TimeoutMs     int
	TelegramToken string
	TelegramChat  string
	SlackToken    string
	SlackChannel  string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPStartTLS  bool
	EmailFrom     string
	EmailTo       []string
	WebhookURLs   []string
	CustomScript  string
}

// ColorConfig holds color names for terminal output, parsed by the progress
// package. empty fields fall back to built-in defaults.
type ColorConfig struct {
	Setup     string
	Generate  string
	Run       string
	Warn      string
	Error     string
	Info      string
	Timestamp string
}

// Load reads configuration using the default locations: the global file in
// the user config dir and a local .e2ectl file in the current directory.
// configDir overrides the global config directory when non-empty (tests).
func Load(configDir string) (*Config, error) {
	globalPath := ""
	if configDir == "" {
		if userDir, err := os.UserConfigDir(); err == nil {
			configDir = filepath.Join(userDir, "e2ectl")
		}
	}
	if configDir != "" {
		if err := installDefaults(configDir); err != nil {
			return nil, fmt.Errorf("install defaults: %w", err)
		}
		globalPath = filepath.Join(configDir, "config")
	}

	return load(localConfigName, globalPath)
}

// localConfigName is the per-project config file, looked up in the cwd.
const localConfigName = ".e2ectl"

// load merges embedded defaults, the global file, and the local file.
func load(localPath, globalPath string) (*Config, error) {
	cfg, err := parseFromEmbedded()
	if err != nil {
		return nil, fmt.Errorf("parse embedded defaults: %w", err)
	}

	global, err := parseFromFile(globalPath)
	if err != nil {
		return nil, fmt.Errorf("parse global config: %w", err)
	}
	cfg.mergeFrom(global)

	local, err := parseFromFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("parse local config: %w", err)
	}
	cfg.mergeFrom(local)

	return cfg, nil
}

// installDefaults creates the config directory and writes the default config
// file on first run. never overwrites an existing file.
func installDefaults(configDir string) error {
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	configPath := filepath.Join(configDir, "config")
	_, statErr := os.Stat(configPath)
	if statErr == nil {
		return nil
	}
	if !os.IsNotExist(statErr) {
		return fmt.Errorf("check config file: %w", statErr)
	}

	data, err := defaultsFS.ReadFile("defaults/config")
	if err != nil {
		return fmt.Errorf("read embedded config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
