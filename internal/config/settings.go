package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings represents the nodevm.yaml configuration.
type Settings struct {
	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty"`

	// Strategy selects the call body used for every node: "interpreted" or "codegen".
	Strategy string `yaml:"strategy,omitempty"`

	// Workers bounds how many sites are evaluated in parallel by `nodevm run`.
	Workers int `yaml:"workers,omitempty"`

	// Sites is the default number of evaluation sites for `nodevm run`.
	Sites int `yaml:"sites,omitempty"`

	// Cache is an optional path to the sqlite program cache.
	// Relative paths are resolved against the directory holding the settings file.
	Cache string `yaml:"cache,omitempty"`
}

var logLevels = []string{"trace", "debug", "info", "warn", "error", "off"}

// DefaultSettings returns settings with every default applied.
func DefaultSettings() *Settings {
	s := &Settings{}
	s.setDefaults()
	return s
}

// LoadSettings reads and parses a nodevm.yaml file.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings %s: %w", path, err)
	}
	return ParseSettings(data, path)
}

// ParseSettings parses nodevm.yaml content from bytes.
// The path argument is used for error messages and to resolve a relative cache path.
func ParseSettings(data []byte, path string) (*Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := s.validate(path); err != nil {
		return nil, err
	}
	s.setDefaults()
	if s.Cache != "" && !filepath.IsAbs(s.Cache) && path != "" {
		s.Cache = filepath.Join(filepath.Dir(path), s.Cache)
	}
	return &s, nil
}

// FindSettings searches for nodevm.yaml starting from dir and walking up
// to parent directories.
// Returns the path to the settings file, or empty string and nil error if not found.
func FindSettings(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range SettingsFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (s *Settings) validate(path string) error {
	if s.LogLevel != "" {
		ok := false
		for _, l := range logLevels {
			if strings.EqualFold(s.LogLevel, l) {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("%s: log_level %q must be one of %s", path, s.LogLevel, strings.Join(logLevels, ", "))
		}
	}

	switch s.Strategy {
	case "", StrategyInterpreted, StrategyCodegen:
	default:
		return fmt.Errorf("%s: strategy %q must be %q or %q", path, s.Strategy, StrategyInterpreted, StrategyCodegen)
	}

	if s.Workers < 0 {
		return fmt.Errorf("%s: workers must be >= 1, got %d", path, s.Workers)
	}
	if s.Sites < 0 {
		return fmt.Errorf("%s: sites must be >= 1, got %d", path, s.Sites)
	}
	return nil
}

func (s *Settings) setDefaults() {
	if s.LogLevel == "" {
		s.LogLevel = DefaultLogLevel
	}
	s.LogLevel = strings.ToLower(s.LogLevel)
	if s.Strategy == "" {
		s.Strategy = StrategyInterpreted
	}
	if s.Workers == 0 {
		s.Workers = DefaultWorkers
	}
	if s.Sites == 0 {
		s.Sites = DefaultSites
	}
}
