package links

import (
	"net/url"
	"strings"
)

const (
	// DefaultIDParam names the forwarded respondent id on client URLs.
	DefaultIDParam = "rid"
	// DefaultSignatureParam names the signature parameter on client URLs.
	DefaultSignatureParam = "sig"
)

// ClientLink decorates client destination URLs with the respondent id and an
// optional signature.
type ClientLink struct {
	IDParam        string
	SignatureParam string
	Signer         Signer
}

// Build parses base and forwards identifier. Nothing is appended when
// identifier is empty; the signature is only added alongside an identifier.
func (c ClientLink) Build(base, identifier string) (*url.URL, error) {
	u, err := ParseAbsolute(base)
	if err != nil {
		return nil, err
	}
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return u, nil
	}
	idParam := firstNonEmpty(c.IDParam, DefaultIDParam)
	u.RawQuery = SetParam(u.RawQuery, idParam, identifier)
	if signer := c.signer(); signer != nil {
		u.RawQuery = SetParam(u.RawQuery, firstNonEmpty(c.SignatureParam, DefaultSignatureParam), signer.Sign(identifier))
	}
	u.ForceQuery = false
	return u, nil
}

func (c ClientLink) signer() Signer {
	if c.Signer == nil {
		return nil
	}
	if hs, ok := c.Signer.(*HMACSigner); ok && hs == nil {
		return nil
	}
	return c.Signer
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
