package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kzg-ceremony/sequencer/pkg/ceremony"
)

// Config holds all configuration for the ceremony sequencer service.
type Config struct {
	// Server
	ListenAddr string

	// Persistent state
	DatabaseURL    string
	DatabaseMaxOpenConns int
	DatabaseMaxIdleConns int
	TranscriptPath string
	CeremonySpecPath string

	// Ceremony timing knobs (§5 "durations, not instants")
	ComputeDeadline       time.Duration
	LobbyCheckinFrequency time.Duration
	LobbyCheckinTolerance time.Duration
	LobbyFlushInterval    time.Duration
	LobbyMaxSize          int

	// Ethereum identity / signing
	EthChainID          int64
	SequencerECDSAKeyHex string

	// Session / auth
	JWTSecret             string
	GitHubOAuthClientID   string
	GitHubOAuthClientSecret string
	EthOAuthDomain        string
}

// Load reads configuration from environment variables. Required secrets
// have no defaults; call Validate() after Load() to enforce that.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr: getEnv("LISTEN_ADDR", "0.0.0.0:8080"),

		DatabaseURL:          getEnv("DATABASE_URL", ""),
		DatabaseMaxOpenConns: getEnvInt("DATABASE_MAX_OPEN_CONNS", 25),
		DatabaseMaxIdleConns: getEnvInt("DATABASE_MAX_IDLE_CONNS", 5),
		TranscriptPath:       getEnv("TRANSCRIPT_PATH", "./data/transcript.json"),
		CeremonySpecPath:     getEnv("CEREMONY_SPEC_PATH", "./ceremony.yaml"),

		ComputeDeadline:       getEnvDuration("COMPUTE_DEADLINE_SECONDS", 180*time.Second),
		LobbyCheckinFrequency: getEnvDuration("LOBBY_CHECKIN_FREQUENCY_SECONDS", 30*time.Second),
		LobbyCheckinTolerance: getEnvDuration("LOBBY_CHECKIN_TOLERANCE_SECONDS", 10*time.Second),
		LobbyFlushInterval:    getEnvDuration("LOBBY_FLUSH_INTERVAL_SECONDS", 60*time.Second),
		LobbyMaxSize:          getEnvInt("LOBBY_MAX_SIZE", 1000),

		EthChainID:           getEnvInt64("ETH_CHAIN_ID", 1),
		SequencerECDSAKeyHex: getEnv("SEQUENCER_ECDSA_KEY_HEX", ""),

		JWTSecret:               getEnv("JWT_SECRET", ""),
		GitHubOAuthClientID:     getEnv("GITHUB_OAUTH_CLIENT_ID", ""),
		GitHubOAuthClientSecret: getEnv("GITHUB_OAUTH_CLIENT_SECRET", ""),
		EthOAuthDomain:          getEnv("ETH_OAUTH_DOMAIN", ""),
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and not an
// obviously weak placeholder value.
func (c *Config) Validate() error {
	var errs []string

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required but not set")
	}
	if c.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required but not set")
	} else if len(c.JWTSecret) < 32 {
		errs = append(errs, "JWT_SECRET must be at least 32 characters")
	}
	if c.SequencerECDSAKeyHex == "" {
		errs = append(errs, "SEQUENCER_ECDSA_KEY_HEX is required but not set")
	}
	if c.ComputeDeadline <= 0 {
		errs = append(errs, "COMPUTE_DEADLINE_SECONDS must be positive")
	}
	if c.LobbyCheckinFrequency <= c.LobbyCheckinTolerance {
		errs = append(errs, "LOBBY_CHECKIN_FREQUENCY_SECONDS must exceed LOBBY_CHECKIN_TOLERANCE_SECONDS")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultSeconds time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultSeconds
}

// ceremonySpec is the on-disk YAML shape for describing the batch of
// sub-ceremonies the sequencer advances together. A ceremony with more than
// one entry runs multiple (numG1, numG2)-sized sub-transcripts in lockstep,
// each participant contributing to all of them in a single submission.
type ceremonySpec struct {
	SubCeremonies []ceremonySize `yaml:"sub_ceremonies"`
}

type ceremonySize struct {
	NumG1Powers int `yaml:"num_g1_powers"`
	NumG2Powers int `yaml:"num_g2_powers"`
}

// DefaultCeremonySizes is the single-sub-ceremony shape used when no
// ceremony spec file is present on disk.
func DefaultCeremonySizes() []ceremony.Size {
	return []ceremony.Size{{NumG1: 4096, NumG2: 65}}
}

// LoadCeremonySizes reads the sub-ceremony sizes the sequencer should run
// from a YAML file at path. If the file does not exist, it returns
// DefaultCeremonySizes instead of an error, so a bare deployment can start
// without first hand-authoring a spec file.
func LoadCeremonySizes(path string) ([]ceremony.Size, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultCeremonySizes(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: failed to read ceremony spec %s: %w", path, err)
	}

	var spec ceremonySpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("config: failed to parse ceremony spec %s: %w", path, err)
	}
	if len(spec.SubCeremonies) == 0 {
		return nil, fmt.Errorf("config: ceremony spec %s lists no sub_ceremonies", path)
	}

	sizes := make([]ceremony.Size, len(spec.SubCeremonies))
	for i, s := range spec.SubCeremonies {
		sizes[i] = ceremony.Size{NumG1: s.NumG1Powers, NumG2: s.NumG2Powers}
	}
	return sizes, nil
}
