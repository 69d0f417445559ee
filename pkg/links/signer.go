package links

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Signer produces a verification token for a value.
type Signer interface {
	Sign(value string) string
}

// HMACSigner signs values with HMAC-SHA256 and hex encodes the digest.
type HMACSigner struct {
	secret []byte
}

// NewHMACSigner returns nil when secret is blank so callers can treat a nil
// signer as "signing disabled".
func NewHMACSigner(secret string) *HMACSigner {
	if strings.TrimSpace(secret) == "" {
		return nil
	}
	return &HMACSigner{secret: []byte(secret)}
}

// Sign returns hex(HMAC-SHA256(secret, value)).
func (s *HMACSigner) Sign(value string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches value in constant time.
func (s *HMACSigner) Verify(value, signature string) bool {
	if s == nil {
		return false
	}
	expected, err := hex.DecodeString(s.Sign(value))
	if err != nil {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	return hmac.Equal(expected, got)
}
