package routing

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-survey-relay/pkg/cells"
	"github.com/goliatone/go-survey-relay/pkg/identity"
	"github.com/goliatone/go-survey-relay/pkg/links"
	"github.com/goliatone/go-survey-relay/pkg/status"
	"github.com/goliatone/go-survey-relay/pkg/vendors"
)

// DefaultSource is forwarded at entry when no vendor key was supplied.
const DefaultSource = "unknown"

// Resolver maps statuses and cells to outbound URLs. It holds only
// read-only tables and is safe for concurrent use.
type Resolver struct {
	statuses   *status.Table
	clientURLs map[status.Status]string
	client     links.ClientLink
	vendors    *vendors.Registry
	cells      *cells.Table
	ids        *identity.Generator
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithStatusTable overrides the default alias table.
func WithStatusTable(table *status.Table) Option {
	return func(r *Resolver) {
		if table != nil {
			r.statuses = table
		}
	}
}

// WithClientURLs sets the client destination per status.
func WithClientURLs(urls map[status.Status]string) Option {
	return func(r *Resolver) {
		r.clientURLs = make(map[status.Status]string, len(urls))
		for st, raw := range urls {
			if raw = strings.TrimSpace(raw); raw != "" {
				r.clientURLs[st] = raw
			}
		}
	}
}

// WithClientLink sets the forwarded id parameter and signer for client URLs.
func WithClientLink(link links.ClientLink) Option {
	return func(r *Resolver) {
		r.client = link
	}
}

// WithVendors sets the vendor registry.
func WithVendors(reg *vendors.Registry) Option {
	return func(r *Resolver) {
		if reg != nil {
			r.vendors = reg
		}
	}
}

// WithCells sets the cell table used at entry.
func WithCells(table *cells.Table) Option {
	return func(r *Resolver) {
		if table != nil {
			r.cells = table
		}
	}
}

// WithGenerator sets the identifier generator used at entry.
func WithGenerator(gen *identity.Generator) Option {
	return func(r *Resolver) {
		if gen != nil {
			r.ids = gen
		}
	}
}

// New builds a Resolver. Missing tables default to empty ones.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		statuses:   status.NewTable(status.DefaultAliases(status.QualityDistinct)...),
		clientURLs: map[status.Status]string{},
		vendors:    vendors.NewRegistry(),
		cells:      cells.NewTable(),
		ids:        identity.NewGenerator(identity.ModeRandom),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Normalize maps a raw status token through the configured alias table.
func (r *Resolver) Normalize(raw string) status.Status {
	return r.statuses.Normalize(raw)
}

// Vendor looks up a vendor by key.
func (r *Resolver) Vendor(key string) (vendors.Vendor, bool) {
	return r.vendors.Lookup(key)
}

// Cell looks up a cell by key.
func (r *Resolver) Cell(key string) (cells.Cell, bool) {
	return r.cells.Lookup(key)
}

// CellKeys lists the configured cells in sorted order.
func (r *Resolver) CellKeys() []string {
	return r.cells.Keys()
}

// ResolveOutbound picks the exit destination. A recognised vendor key selects
// the vendor URL for st; any other key falls back to the client URL.
func (r *Resolver) ResolveOutbound(st status.Status, vendorKey, identifier string) (*url.URL, error) {
	if !st.Valid() {
		return nil, NewUnknownStatusError(st.String())
	}
	if v, ok := r.vendors.Lookup(vendorKey); ok {
		return r.ResolveVendor(v, st, identifier)
	}
	return r.ResolveClient(st, identifier)
}

// ExitRoute is the outcome of an exit resolution.
type ExitRoute struct {
	Vendor   string
	Mode     vendors.Mode
	Location *url.URL
	// Postback is the vendor URL called server to server, if any.
	Postback *url.URL
	// PostbackErr reports why a due postback could not be built. It never
	// blocks the redirect.
	PostbackErr error
}

// ResolveExit applies the vendor mode on top of ResolveOutbound. Redirect
// vendors send the browser to the vendor URL. Postback vendors send it to
// the client URL, and the vendor URL is returned as the postback when
// postbacks are on and identifier is set. Unknown keys use the client URL.
func (r *Resolver) ResolveExit(st status.Status, vendorKey, identifier string, postbacks bool) (ExitRoute, error) {
	var route ExitRoute
	v, known := r.vendors.Lookup(vendorKey)
	browserKey := ""
	if known {
		route.Vendor = v.Key()
		route.Mode = v.Mode()
		if route.Mode == vendors.ModeRedirect {
			browserKey = route.Vendor
		}
	}
	loc, err := r.ResolveOutbound(st, browserKey, identifier)
	if err != nil {
		return route, err
	}
	route.Location = loc
	if known && route.Mode == vendors.ModePostback && postbacks && strings.TrimSpace(identifier) != "" {
		route.Postback, route.PostbackErr = r.ResolveOutbound(st, route.Vendor, identifier)
	}
	return route, nil
}

// ResolveClient builds the client destination for st, forwarding and signing
// identifier when present.
func (r *Resolver) ResolveClient(st status.Status, identifier string) (*url.URL, error) {
	if !st.Valid() {
		return nil, NewUnknownStatusError(st.String())
	}
	base, ok := r.clientURLs[st]
	if !ok {
		return nil, newError(CodeUnconfiguredStatus, "Redirect destination is not configured",
			ErrUnconfiguredStatus, fmt.Errorf("status=%s", st))
	}
	u, err := r.client.Build(base, identifier)
	if err != nil {
		return nil, newError(CodeMalformedURL, "Redirect destination is invalid",
			ErrMalformedURL, fmt.Errorf("client %s: %w", st, err))
	}
	return u, nil
}

// ResolveVendor builds the vendor URL for st. Vendor URLs are never signed.
func (r *Resolver) ResolveVendor(v vendors.Vendor, st status.Status, identifier string) (*url.URL, error) {
	if v == nil {
		return nil, newError(CodeUnsupportedVendorStatus, "Vendor is not configured",
			ErrUnsupportedVendorStatus, nil)
	}
	if !st.Valid() {
		return nil, NewUnknownStatusError(st.String())
	}
	u, err := v.BuildURL(st, strings.TrimSpace(identifier))
	switch {
	case err == nil:
		return u, nil
	case errors.Is(err, vendors.ErrUnsupportedStatus):
		return nil, newError(CodeUnsupportedVendorStatus, "Vendor does not support this status",
			ErrUnsupportedVendorStatus, err)
	default:
		return nil, newError(CodeMalformedURL, "Vendor destination is invalid",
			ErrMalformedURL, err)
	}
}

// ResolveStart mints an identifier for a respondent entering cellKey and
// returns it with the client start URL. vendorKey is forwarded as the source.
func (r *Resolver) ResolveStart(cellKey, vendorKey string) (string, *url.URL, error) {
	cell, ok := r.cells.Lookup(cellKey)
	if !ok {
		return "", nil, NewUnknownCellError(cellKey, r.cells.Keys())
	}
	identifier, err := r.ids.New()
	if err != nil {
		return "", nil, fmt.Errorf("routing: mint identifier: %w", err)
	}
	source := strings.ToLower(strings.TrimSpace(vendorKey))
	if source == "" {
		source = DefaultSource
	}
	u, err := cell.BuildStartURL(identifier, source)
	if err != nil {
		return "", nil, newError(CodeMalformedURL, "Survey link is invalid", ErrMalformedURL, err)
	}
	return identifier, u, nil
}
