package links

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNotAbsolute is returned when a URL lacks an http(s) scheme or a host.
var ErrNotAbsolute = errors.New("links: url is not absolute")

// Slots maps placeholder names (without braces) to raw values.
type Slots map[string]string

// Expand replaces {name} tokens in template. Tokens without a slot are left
// as-is. Values are escaped for the component they land in.
func Expand(template string, slots Slots) string {
	if len(slots) == 0 || !strings.Contains(template, "{") {
		return template
	}
	pathReplacer := replacerFor(slots, url.PathEscape)
	queryReplacer := replacerFor(slots, url.QueryEscape)

	rest, fragment, hasFragment := strings.Cut(template, "#")
	head, query, hasQuery := strings.Cut(rest, "?")

	var b strings.Builder
	b.WriteString(pathReplacer.Replace(head))
	if hasQuery {
		b.WriteByte('?')
		parts := strings.Split(query, "&")
		for i, part := range parts {
			if i > 0 {
				b.WriteByte('&')
			}
			key, value, hasValue := strings.Cut(part, "=")
			b.WriteString(key)
			if hasValue {
				b.WriteByte('=')
				b.WriteString(queryReplacer.Replace(value))
			}
		}
	}
	if hasFragment {
		b.WriteByte('#')
		b.WriteString(fragment)
	}
	return b.String()
}

func replacerFor(slots Slots, escape func(string) string) *strings.Replacer {
	pairs := make([]string, 0, len(slots)*2)
	for name, value := range slots {
		pairs = append(pairs, "{"+name+"}", escape(value))
	}
	return strings.NewReplacer(pairs...)
}

// ParseAbsolute parses raw and requires an http or https scheme plus a host.
func ParseAbsolute(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("links: parse %q: %w", raw, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrNotAbsolute, raw)
	}
	return u, nil
}

// SetParam sets key to value inside a raw query string. The first existing
// occurrence is replaced in place, later duplicates are dropped and a missing
// key is appended. Other parameters keep their order and encoding.
func SetParam(rawQuery, key, value string) string {
	encoded := url.QueryEscape(key) + "=" + url.QueryEscape(value)
	if rawQuery == "" {
		return encoded
	}
	parts := strings.Split(rawQuery, "&")
	out := make([]string, 0, len(parts)+1)
	replaced := false
	for _, part := range parts {
		if part == "" {
			continue
		}
		rawKey, _, _ := strings.Cut(part, "=")
		name, err := url.QueryUnescape(rawKey)
		if err != nil {
			name = rawKey
		}
		if name != key {
			out = append(out, part)
			continue
		}
		if !replaced {
			out = append(out, encoded)
			replaced = true
		}
	}
	if !replaced {
		out = append(out, encoded)
	}
	return strings.Join(out, "&")
}

// GetParam returns the first value of key in a raw query string.
func GetParam(rawQuery, key string) (string, bool) {
	for _, part := range strings.Split(rawQuery, "&") {
		rawKey, rawValue, _ := strings.Cut(part, "=")
		name, err := url.QueryUnescape(rawKey)
		if err != nil || name != key {
			continue
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return rawValue, true
		}
		return value, true
	}
	return "", false
}
