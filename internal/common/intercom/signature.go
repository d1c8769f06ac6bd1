// Package intercom authenticates and decodes Intercom webhook deliveries.
package intercom

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"strings"

	apperrors "vip-relay/internal/common/errors"
)

// SignatureHeader carries the hex HMAC-SHA1 of the raw body, optionally
// prefixed with "sha1=".
const SignatureHeader = "X-Hub-Signature"

type Verifier struct {
	secret []byte
}

func NewVerifier(clientSecret string) *Verifier {
	return &Verifier{secret: []byte(clientSecret)}
}

// Verify reports whether signature is the HMAC-SHA1 of body under the client
// secret. An empty secret, malformed hex or a mismatch all return false.
func (v *Verifier) Verify(body []byte, signature string) bool {
	if len(v.secret) == 0 {
		return false
	}

	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha1=")
	if signature == "" {
		return false
	}
	received, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha1.New, v.secret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), received)
}

// Authenticate classifies a delivery. present is false when the request had no
// signature header at all, which Intercom does for test deliveries; that yields
// UNSIGNED_TEST_EVENT rather than an authentication failure.
func (v *Verifier) Authenticate(body []byte, signature string, present bool) error {
	if !present {
		return apperrors.NewUnsignedTestEventError()
	}
	if !v.Verify(body, signature) {
		return apperrors.NewAuthenticationError("signature mismatch")
	}
	return nil
}

// Sign returns the header value Intercom would send for body. Used by tests and
// local tooling.
func (v *Verifier) Sign(body []byte) string {
	mac := hmac.New(sha1.New, v.secret)
	mac.Write(body)
	return "sha1=" + hex.EncodeToString(mac.Sum(nil))
}
