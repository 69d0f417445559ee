package secrets

import (
	"net/url"
	"strings"

	masker "github.com/goliatone/go-masker"
)

var defaultSecretFields = []string{
	"token", "access_token", "api_key", "apikey",
	"api_secret", "secret", "signing_secret", "sig",
	"measurement_id", "password",
}

func init() {
	for _, field := range defaultSecretFields {
		masker.Default.RegisterMaskField(field, "preserveEnds(2,2)")
	}
}

// IsSecretField reports whether a field or query parameter name holds a secret.
func IsSecretField(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, field := range defaultSecretFields {
		if name == field {
			return true
		}
	}
	return false
}

// Mask hides all but the ends of value for safe logging.
func Mask(value string) string {
	if value == "" {
		return ""
	}
	if masked, err := masker.Default.String("preserveEnds(2,2)", value); err == nil && masked != value {
		return masked
	}
	runes := []rune(value)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:2]) + strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-2:])
}

// MaskURL masks userinfo passwords and secret-looking query values in raw.
// Unparsable input is masked whole.
func MaskURL(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Mask(raw)
	}
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "****")
		}
	}
	if u.RawQuery != "" {
		q := u.Query()
		changed := false
		for key, values := range q {
			if !IsSecretField(key) {
				continue
			}
			for i, v := range values {
				values[i] = Mask(v)
			}
			changed = true
		}
		if changed {
			u.RawQuery = q.Encode()
		}
	}
	return u.String()
}
