package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kzg-ceremony/sequencer/pkg/ceremony"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"LISTEN_ADDR", "DATABASE_URL", "JWT_SECRET", "SEQUENCER_ECDSA_KEY_HEX",
		"COMPUTE_DEADLINE_SECONDS", "LOBBY_CHECKIN_FREQUENCY_SECONDS", "LOBBY_CHECKIN_TOLERANCE_SECONDS",
	} {
		os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:8080", cfg.ListenAddr)
	require.Equal(t, 180*time.Second, cfg.ComputeDeadline)
	require.Equal(t, 30*time.Second, cfg.LobbyCheckinFrequency)
}

func TestValidateRejectsMissingRequiredFields(t *testing.T) {
	cfg := &Config{ComputeDeadline: time.Second, LobbyCheckinFrequency: 2, LobbyCheckinTolerance: 1}
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "DATABASE_URL")
	require.Contains(t, err.Error(), "JWT_SECRET")
	require.Contains(t, err.Error(), "SEQUENCER_ECDSA_KEY_HEX")
}

func TestValidateRejectsShortJWTSecret(t *testing.T) {
	cfg := &Config{
		DatabaseURL:          "postgres://localhost/db",
		JWTSecret:            "tooshort",
		SequencerECDSAKeyHex: "deadbeef",
		ComputeDeadline:      time.Second,
		LobbyCheckinFrequency: 2 * time.Second,
		LobbyCheckinTolerance: time.Second,
	}
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "at least 32 characters")
}

func TestValidatePassesWithCompleteConfig(t *testing.T) {
	cfg := &Config{
		DatabaseURL:           "postgres://localhost/db",
		JWTSecret:             "01234567890123456789012345678901",
		SequencerECDSAKeyHex:  "deadbeef",
		ComputeDeadline:       time.Minute,
		LobbyCheckinFrequency: 30 * time.Second,
		LobbyCheckinTolerance: 10 * time.Second,
	}
	require.NoError(t, cfg.Validate())
}

func TestLoadCeremonySizesMissingFileReturnsDefault(t *testing.T) {
	sizes, err := LoadCeremonySizes(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultCeremonySizes(), sizes)
}

func TestLoadCeremonySizesParsesMultipleSubCeremonies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ceremony.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sub_ceremonies:
  - num_g1_powers: 4096
    num_g2_powers: 65
  - num_g1_powers: 8192
    num_g2_powers: 65
`), 0o600))

	sizes, err := LoadCeremonySizes(path)
	require.NoError(t, err)
	require.Equal(t, []ceremony.Size{
		{NumG1: 4096, NumG2: 65},
		{NumG1: 8192, NumG2: 65},
	}, sizes)
}

func TestLoadCeremonySizesRejectsEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ceremony.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sub_ceremonies: []\n"), 0o600))

	_, err := LoadCeremonySizes(path)
	require.Error(t, err)
}
