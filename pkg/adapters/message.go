package adapters

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Channels a messenger can subscribe to.
const (
	ChannelEntry    = "entry"
	ChannelRedirect = "redirect"
	ChannelPostback = "postback"
	ChannelAlert    = "alert"
)

// Message kinds.
const (
	KindEntry = "entry"
	KindExit  = "exit"
	KindAlert = "alert"
)

// Metadata keys set by the relay service.
const (
	MetaVendor      = "vendor"
	MetaVendorMode  = "vendor_mode"
	MetaPostbackURL = "postback_url"
	MetaCode        = "code"
)

// Message describes one respondent event handed to side-effect channels.
type Message struct {
	ID        string
	Channel   string
	Kind      string
	Status    string
	RID       string
	Source    string
	Cell      string
	Project   string
	UserAgent string
	// TargetURL is the redirect destination, or the postback URL on the
	// postback channel.
	TargetURL  string
	Subject    string
	Body       string
	RequestID  string
	TraceID    string
	OccurredAt time.Time
	// Metadata carries routing details such as the vendor key, the postback
	// URL or the failure code of an alert.
	Metadata map[string]any
}

// Capability describes the channels supported by a messenger.
type Capability struct {
	Name     string
	Channels []string
}

// Messenger is implemented by side-effect adapters (webhook, analytics, etc).
type Messenger interface {
	Name() string
	Capabilities() Capability
	Send(ctx context.Context, msg Message) error
}

// Registry stores available messengers and matches channels to providers.
type Registry struct {
	mu        sync.RWMutex
	adapters  map[string]Messenger
	byChannel map[string][]Messenger
}

// NewRegistry builds a registry with the supplied messengers.
func NewRegistry(messengers ...Messenger) *Registry {
	reg := &Registry{
		adapters:  make(map[string]Messenger),
		byChannel: make(map[string][]Messenger),
	}
	for _, m := range messengers {
		reg.Register(m)
	}
	return reg
}

// Register adds a messenger, indexing by provider name and supported channels.
func (r *Registry) Register(m Messenger) {
	if r == nil || m == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	name := normalizeKey(m.Name())
	if name != "" {
		r.adapters[name] = m
	}
	for _, channel := range m.Capabilities().Channels {
		key := normalizeKey(channel)
		if key == "" {
			continue
		}
		r.byChannel[key] = append(r.byChannel[key], m)
	}
}

// List returns all messengers registered for a logical channel.
func (r *Registry) List(channel string) []Messenger {
	if r == nil {
		return nil
	}
	base, _ := ParseChannel(channel)
	r.mu.RLock()
	defer r.mu.RUnlock()
	candidates := r.byChannel[normalizeKey(channel)]
	if len(candidates) == 0 && base != normalizeKey(channel) {
		candidates = r.byChannel[normalizeKey(base)]
	}
	out := make([]Messenger, len(candidates))
	copy(out, candidates)
	return out
}

// ParseChannel splits "<channel>[:provider]" into components.
func ParseChannel(value string) (channel string, provider string) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return strings.ToLower(parts[0]), ""
	default:
		return strings.ToLower(parts[0]), normalizeKey(parts[1])
	}
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// Describe returns a sorted human-readable summary of the registry entries.
func (r *Registry) Describe() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.adapters))
	for name, adapter := range r.adapters {
		caps := adapter.Capabilities()
		out = append(out, fmt.Sprintf("%s (%s)", name, strings.Join(caps.Channels, ",")))
	}
	sort.Strings(out)
	return out
}

// StringValue reads a trimmed string from message metadata.
func StringValue(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	raw, ok := meta[key]
	if !ok || raw == nil {
		return ""
	}
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// FirstNonEmpty returns the first value that is not blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
