package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGitHubIdentityFormat(t *testing.T) {
	require.Equal(t, Identity("git|42|octocat"), GitHubIdentity(42, "octocat"))
}

func TestEthIdentityFormat(t *testing.T) {
	require.Equal(t, Identity("eth|0xabc"), EthIdentity("0xabc"))
}

func TestNewEthChallengeEmbedsNonceAndDomain(t *testing.T) {
	c := NewEthChallenge("sequencer.example", "nonce-123")
	require.Contains(t, c.Message, "sequencer.example")
	require.Contains(t, c.Message, "nonce-123")
	require.Equal(t, "nonce-123", c.Nonce)
}

func TestGitHubConfigUsesGitHubEndpoint(t *testing.T) {
	cfg := GitHubConfig("client-id", "client-secret", "https://example.com/callback")
	require.Equal(t, "client-id", cfg.ClientID)
	require.Equal(t, []string{"read:user"}, cfg.Scopes)
}
