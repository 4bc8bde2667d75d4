package apiserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionCodecRoundTrip(t *testing.T) {
	codec := NewSessionCodec("0123456789012345678901234567890123456789", time.Hour)

	tok, err := codec.Encode("session-1", "participant-1")
	require.NoError(t, err)

	claims, err := codec.Decode(tok)
	require.NoError(t, err)
	require.Equal(t, "session-1", claims.SessionID)
	require.Equal(t, "participant-1", claims.ParticipantID)
}

func TestSessionCodecRejectsExpiredToken(t *testing.T) {
	codec := NewSessionCodec("0123456789012345678901234567890123456789", -time.Hour)
	tok, err := codec.Encode("session-1", "participant-1")
	require.NoError(t, err)

	_, err = codec.Decode(tok)
	require.Error(t, err)
}

func TestSessionCodecRejectsForgedSecret(t *testing.T) {
	codec := NewSessionCodec("0123456789012345678901234567890123456789", time.Hour)
	tok, err := codec.Encode("session-1", "participant-1")
	require.NoError(t, err)

	other := NewSessionCodec("99999999999999999999999999999999999999", time.Hour)
	_, err = other.Decode(tok)
	require.Error(t, err)
}
