package vendors

import (
	"errors"
	"net/url"
	"sort"
	"strings"

	"github.com/goliatone/go-survey-relay/pkg/status"
)

// Mode decides what the relay does with a vendor URL at exit.
type Mode string

const (
	// ModeRedirect sends the respondent's browser to the vendor URL.
	ModeRedirect Mode = "redirect"
	// ModePostback sends the browser to the client URL and calls the vendor
	// URL server-to-server.
	ModePostback Mode = "postback"
)

// Valid reports whether the mode is recognised.
func (m Mode) Valid() bool {
	return m == ModeRedirect || m == ModePostback
}

var (
	// ErrUnsupportedStatus is returned when a vendor defines no URL for a status.
	ErrUnsupportedStatus = errors.New("vendors: status not supported by vendor")
	// ErrMalformedURL is returned when the built URL is not absolute.
	ErrMalformedURL = errors.New("vendors: malformed url")
)

// Vendor builds the per-status URL for a traffic source.
type Vendor interface {
	Key() string
	Mode() Mode
	ProjectID() string
	BuildURL(st status.Status, identifier string) (*url.URL, error)
}

// ProjectIDFunc computes a vendor project id.
type ProjectIDFunc func() string

// StaticProjectID returns a ProjectIDFunc yielding a constant.
func StaticProjectID(id string) ProjectIDFunc {
	id = strings.TrimSpace(id)
	return func() string { return id }
}

// Registry is a read-only index of vendors by lower-cased key.
type Registry struct {
	vendors map[string]Vendor
}

// NewRegistry indexes the given vendors. Later duplicates replace earlier ones.
func NewRegistry(list ...Vendor) *Registry {
	reg := &Registry{vendors: make(map[string]Vendor, len(list))}
	for _, v := range list {
		if v == nil {
			continue
		}
		if key := normalizeKey(v.Key()); key != "" {
			reg.vendors[key] = v
		}
	}
	return reg
}

// Lookup finds a vendor. Blank or unknown keys report false.
func (r *Registry) Lookup(key string) (Vendor, bool) {
	if r == nil {
		return nil, false
	}
	key = normalizeKey(key)
	if key == "" {
		return nil, false
	}
	v, ok := r.vendors[key]
	return v, ok
}

// Keys lists registered vendor keys in sorted order.
func (r *Registry) Keys() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.vendors))
	for key := range r.vendors {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
