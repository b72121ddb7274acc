// Package config defines the cognitive core's configuration surface and
// loads it from a YAML file, following the teacher's single-struct,
// single-source-of-truth approach.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ConversationMode selects how the voice loop delimits a user turn.
type ConversationMode string

const (
	ConversationNone    ConversationMode = "none"
	ConversationTimeout ConversationMode = "timeout"
	ConversationVAD     ConversationMode = "vad"
)

// Config holds every configuration option enumerated in spec §6.
type Config struct {
	// Name is the robot's label, used in templates and logs.
	Name string `yaml:"name"`

	// ReasonerModel identifies the remote reasoner's model.
	ReasonerModel string `yaml:"reasoner_model"`

	EnableVision     bool `yaml:"enable_vision"`
	EnableAutonomous bool `yaml:"enable_autonomous"`

	ConversationMode        ConversationMode `yaml:"conversation_mode"`
	ConversationTimeout     time.Duration    `yaml:"conversation_timeout"`
	VADSilenceThreshold     time.Duration    `yaml:"vad_silence_threshold"`

	MaintenanceEnabled       bool          `yaml:"maintenance_enabled"`
	MaintenanceInterval      time.Duration `yaml:"maintenance_interval"`
	MaintenanceModel         string        `yaml:"maintenance_model"`

	MaxCallsPerMinute int           `yaml:"max_calls_per_minute"`
	MinThinkInterval  time.Duration `yaml:"min_think_interval"`
	LocalOnly         bool          `yaml:"local_only"`

	DBPath string `yaml:"db_path"`

	APITimeout    time.Duration `yaml:"api_timeout"`
	APIMaxRetries int           `yaml:"api_max_retries"`

	// ReasonerAPIKey is never read from the YAML file; it is populated from
	// an environment variable so secrets never land in a config file on disk.
	ReasonerAPIKey string `yaml:"-"`

	// LogDir is read from the file but not consulted by the CLI; category
	// file logging (internal/logging) is enabled only by the --log-dir flag.
	LogDir string `yaml:"log_dir"`

	// PersonalityPath is the side-file personality traits are persisted to.
	PersonalityPath string `yaml:"personality_path"`
}

// Default returns the configuration used when no file is supplied, matching
// the §4.3/§4.8/§4.9 defaults. The default personality traits live in
// personality.Default, not here.
func Default() *Config {
	return &Config{
		Name:                "Rex",
		ReasonerModel:       "gemini-2.5-flash",
		EnableVision:        true,
		EnableAutonomous:    true,
		ConversationMode:    ConversationTimeout,
		ConversationTimeout: 30 * time.Second,
		VADSilenceThreshold: 2 * time.Second,
		MaintenanceEnabled:  true,
		MaintenanceInterval: 6 * time.Hour,
		MaintenanceModel:    "gemini-2.5-flash",
		MaxCallsPerMinute:   10,
		MinThinkInterval:    3 * time.Second,
		LocalOnly:           false,
		DBPath:              "pidog.db",
		APITimeout:          30 * time.Second,
		APIMaxRetries:       3,
		PersonalityPath:     "personality.yaml",
	}
}

// Load reads a YAML config file, applying Default() for any unset field by
// starting from the default and unmarshalling over it.
func Load(path string) (*Config, error) {
	cfg := Default()
	if key := os.Getenv("PIDOG_REASONER_API_KEY"); key != "" {
		cfg.ReasonerAPIKey = key
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
