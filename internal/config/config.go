package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Client contains settings for the memo processing client.
type Client struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// OpenAI contains connection settings for the transcription and structuring
// capabilities.
type OpenAI struct {
	APIKey             string `toml:"api_key"`
	BaseURL            string `toml:"base_url"`
	TranscriptionModel string `toml:"transcription_model"`
	StructuringModel   string `toml:"structuring_model"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
}

// Capture contains recording session settings.
type Capture struct {
	InputDevice              string `toml:"input_device"`
	MaxRecordingSeconds      int    `toml:"max_recording_seconds"`
	ProcessingTimeoutSeconds int    `toml:"processing_timeout_seconds"`
}

// Storage selects the durable collaborator backing the memory store.
type Storage struct {
	Backend string `toml:"backend"` // "file" or "sqlite"
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for murmur.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - Client: processing endpoint used by the capture commands
//   - OpenAI: credentials and model overrides for transcription/structuring
//   - Capture: recording ceilings and input device selection
//   - Storage: durable memory collection backend
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Client  Client  `toml:"client"`
	OpenAI  OpenAI  `toml:"openai"`
	Capture Capture `toml:"capture"`
	Storage Storage `toml:"storage"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/murmur/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and environment overrides applied.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// Environment variable names honored as overrides. Credentials and model
// candidates are deployment concerns, so env wins over the file.
const (
	EnvAPIKey             = "OPENAI_API_KEY"
	EnvAPIKeyAlt          = "MURMUR_OPENAI_API_KEY"
	EnvTranscriptionModel = "MEMORY_TRANSCRIPTION_MODEL"
	EnvStructuringModel   = "MEMORY_STRUCTURING_MODEL"
	EnvClientBaseURL      = "MURMUR_API_BASE_URL"
)

func (c *Config) applyEnvOverrides() {
	if value := strings.TrimSpace(os.Getenv(EnvAPIKeyAlt)); value != "" {
		c.OpenAI.APIKey = value
	} else if value := strings.TrimSpace(os.Getenv(EnvAPIKey)); value != "" && c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = value
	}
	if value := strings.TrimSpace(os.Getenv(EnvTranscriptionModel)); value != "" {
		c.OpenAI.TranscriptionModel = value
	}
	if value := strings.TrimSpace(os.Getenv(EnvStructuringModel)); value != "" {
		c.OpenAI.StructuringModel = value
	}
	if value := strings.TrimSpace(os.Getenv(EnvClientBaseURL)); value != "" {
		c.Client.BaseURL = value
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("murmur.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for audio normalization
// and capture.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
