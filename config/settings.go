package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the application configuration of the CLI
type Settings struct {
	LogLevel    string       `yaml:"log_level"`
	TemplateDir string       `yaml:"template_dir"`
	OutputDir   string       `yaml:"output_dir"`
	Text        TextBackend  `yaml:"text"`
	Video       VideoBackend `yaml:"video"`
}

// TextBackend selects and configures the text generation backend
type TextBackend struct {
	Provider    string  `yaml:"provider"` // groq, openai or gemini
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	Endpoint    string  `yaml:"endpoint"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Timeout     string  `yaml:"timeout"`
}

// VideoBackend selects and configures the text-to-video backend
type VideoBackend struct {
	Provider     string `yaml:"provider"` // veo
	Model        string `yaml:"model"`
	APIKeyEnv    string `yaml:"api_key_env"`
	PollInterval string `yaml:"poll_interval"`
	Timeout      string `yaml:"timeout"`
}

// Text providers
const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderVeo    = "veo"
)

// DefaultAPIKeyEnv returns the environment variable holding the key of a provider
func DefaultAPIKeyEnv(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGemini, ProviderVeo:
		return "GEMINI_API_KEY"
	default:
		return "GROQ_API_KEY"
	}
}

// APIKey returns the credential of the text backend
func (t TextBackend) APIKey() string {
	env := t.APIKeyEnv
	if env == "" {
		env = DefaultAPIKeyEnv(t.Provider)
	}
	return os.Getenv(env)
}

// TimeoutDuration parses Timeout. Zero means no timeout.
func (t TextBackend) TimeoutDuration() (time.Duration, error) {
	return parseDuration("text.timeout", t.Timeout)
}

// APIKey returns the credential of the video backend
func (v VideoBackend) APIKey() string {
	env := v.APIKeyEnv
	if env == "" {
		env = DefaultAPIKeyEnv(v.Provider)
	}
	return os.Getenv(env)
}

// PollIntervalDuration parses PollInterval
func (v VideoBackend) PollIntervalDuration() (time.Duration, error) {
	return parseDuration("video.poll_interval", v.PollInterval)
}

// TimeoutDuration parses Timeout. Zero means no timeout.
func (v VideoBackend) TimeoutDuration() (time.Duration, error) {
	return parseDuration("video.timeout", v.Timeout)
}

func parseDuration(key, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

// Validate checks that the settings can build backends
func (s *Settings) Validate() error {
	switch s.Text.Provider {
	case ProviderGroq, ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unknown text.provider %q", s.Text.Provider)
	}
	if s.Text.Model == "" {
		return fmt.Errorf("text.model is required")
	}
	if s.Text.Temperature < 0 || s.Text.Temperature > 2 {
		return fmt.Errorf("text.temperature must be between 0 and 2, got %v", s.Text.Temperature)
	}
	if s.Video.Provider != "" && s.Video.Provider != ProviderVeo {
		return fmt.Errorf("unknown video.provider %q", s.Video.Provider)
	}
	if _, err := s.Text.TimeoutDuration(); err != nil {
		return err
	}
	if _, err := s.Video.PollIntervalDuration(); err != nil {
		return err
	}
	if _, err := s.Video.TimeoutDuration(); err != nil {
		return err
	}
	return nil
}

// DefaultSettings returns the settings used when no file overrides them
func DefaultSettings() *Settings {
	return &Settings{
		LogLevel:  "warn",
		OutputDir: ".",
		Text: TextBackend{
			Provider:    ProviderGroq,
			Model:       "llama-3.3-70b-versatile",
			Temperature: 0.7,
			Timeout:     "120s",
		},
		Video: VideoBackend{
			Provider:     ProviderVeo,
			Model:        "veo-3.0-generate-001",
			PollInterval: "10s",
			Timeout:      "10m",
		},
	}
}

// SettingsPaths returns the settings files read by LoadSettings, lowest
// priority first
func SettingsPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".promptchain", "config.yaml"))
	}
	return append(paths, filepath.Join(".promptchain", "config.yaml"))
}

// LoadSettings resolves settings from defaults, then the user and project
// files, then explicit, which must exist when set.
func LoadSettings(explicit string) (*Settings, error) {
	s := DefaultSettings()
	for _, path := range SettingsPaths() {
		if err := mergeSettingsFile(s, path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading settings %s: %w", path, err)
		}
	}
	if explicit != "" {
		if err := mergeSettingsFile(s, explicit); err != nil {
			return nil, fmt.Errorf("loading settings %s: %w", explicit, err)
		}
	}
	return s, nil
}

func mergeSettingsFile(dst *Settings, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, dst)
}
