// Package oauth implements the OpenRouter authorization-code login with PKCE
// (Proof Key for Code Exchange): verifier generation, the authorization URL,
// a one-shot local callback server and the code-for-key exchange.
package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"
)

// verifierBytes is the amount of entropy in a code verifier (256 bits).
const verifierBytes = 32

// ChallengeMethod is the only PKCE challenge method this client speaks.
const ChallengeMethod = "S256"

// PKCECodes holds one login attempt's verifier and its derived challenge.
type PKCECodes struct {
	CodeVerifier  string
	CodeChallenge string
}

// GeneratePKCE creates a fresh verifier and its S256 challenge.
// The verifier is 32 random bytes, base64url encoded without padding. The
// challenge is BASE64URL(SHA256(verifier)) computed over that encoded string,
// as RFC 7636 defines it.
func GeneratePKCE() (*PKCECodes, error) {
	raw := make([]byte, verifierBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}
	verifier := base64.RawURLEncoding.EncodeToString(raw)

	return &PKCECodes{
		CodeVerifier:  verifier,
		CodeChallenge: oauth2.S256ChallengeFromVerifier(verifier),
	}, nil
}
