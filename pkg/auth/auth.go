// Package auth describes the OAuth2/SIWE identity collaborators the
// coordinator consumes, per the out-of-scope note that these providers are
// external and described only by the interface pkg/coordinator uses. Kept
// deliberately thin: no callback handling or provider wiring lives here.
package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// Identity is the opaque participant identifier format from the external
// interface: "eth|0x<40 hex>" or "git|<numeric id>|<username>".
type Identity string

// GitHubIdentity formats a GitHub user into the participant-identifier
// convention.
func GitHubIdentity(userID int64, login string) Identity {
	return Identity(fmt.Sprintf("git|%d|%s", userID, login))
}

// EthIdentity formats an Ethereum address into the participant-identifier
// convention. addr is expected already lowercase-hex, 0x-prefixed.
func EthIdentity(addr string) Identity {
	return Identity(fmt.Sprintf("eth|%s", addr))
}

// GitHubConfig builds the oauth2.Config for the GitHub login flow.
func GitHubConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"read:user"},
		Endpoint:     github.Endpoint,
	}
}

// GitHubUser is the subset of GitHub's user API response this sequencer
// needs to build a participant identifier.
type GitHubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// ExchangeCode completes the OAuth2 authorization-code exchange, returning
// a token the caller uses to fetch GitHubUser from the GitHub API. The
// exchange itself is a network call to the provider's token endpoint;
// fetching the user profile is left to the HTTP collaborator that owns an
// http.Client and GitHub's REST endpoint.
func ExchangeCode(ctx context.Context, cfg *oauth2.Config, code string) (*oauth2.Token, error) {
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to exchange code: %w", err)
	}
	return tok, nil
}

// EthChallenge is a Sign-in-with-Ethereum style nonce challenge: the
// sequencer issues a nonce, the wallet signs a message embedding it, and
// the recovered address becomes the participant identity.
type EthChallenge struct {
	Nonce   string
	Message string
}

// NewEthChallenge builds the SIWE-style message a wallet is expected to
// sign, binding the nonce and the sequencer's domain to prevent replay
// across deployments.
func NewEthChallenge(domain, nonce string) EthChallenge {
	return EthChallenge{
		Nonce: nonce,
		Message: fmt.Sprintf(
			"%s wants you to sign in with your Ethereum account.\n\nNonce: %s",
			domain, nonce,
		),
	}
}
