package cells

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/goliatone/go-survey-relay/pkg/links"
)

const (
	// DefaultIDParam is the query parameter carrying the placeholder.
	DefaultIDParam = "pid"
	// SourceParam carries the vendor key forward to the exit.
	SourceParam = "src"
)

// DefaultSecondaryParams are also set to the identifier because client
// platforms disagree on which parameter they echo back.
var DefaultSecondaryParams = []string{"uid"}

var (
	// ErrUnknownCell is returned for keys missing from the table.
	ErrUnknownCell = errors.New("cells: unknown cell")
	// ErrMalformedURL is returned when a cell start URL cannot be used.
	ErrMalformedURL = errors.New("cells: malformed start url")
)

// Cell is a client survey link variant.
type Cell struct {
	Key             string
	StartURL        string
	Project         string
	IDParam         string
	SecondaryParams []string
}

// Table is an immutable set of cells keyed by lower-cased key.
type Table struct {
	cells map[string]Cell
}

// NewTable indexes cells, filling parameter defaults.
func NewTable(list ...Cell) *Table {
	table := &Table{cells: make(map[string]Cell, len(list))}
	for _, c := range list {
		c.Key = strings.ToLower(strings.TrimSpace(c.Key))
		if c.Key == "" {
			continue
		}
		c.StartURL = strings.TrimSpace(c.StartURL)
		if strings.TrimSpace(c.IDParam) == "" {
			c.IDParam = DefaultIDParam
		}
		if c.SecondaryParams == nil {
			c.SecondaryParams = DefaultSecondaryParams
		}
		table.cells[c.Key] = c
	}
	return table
}

// Lookup finds a cell by case-insensitive key.
func (t *Table) Lookup(key string) (Cell, bool) {
	if t == nil {
		return Cell{}, false
	}
	c, ok := t.cells[strings.ToLower(strings.TrimSpace(key))]
	return c, ok
}

// Keys lists cell keys in sorted order.
func (t *Table) Keys() []string {
	if t == nil {
		return nil
	}
	keys := make([]string, 0, len(t.cells))
	for k := range t.cells {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// BuildStartURL embeds identifier into the cell's start URL and forwards source.
// The id parameter is overwritten whatever its placeholder looks like, so the
// operation is idempotent and never touches other parameters. A {rid} token
// elsewhere in the URL is expanded as well.
func (c Cell) BuildStartURL(identifier, source string) (*url.URL, error) {
	raw := links.Expand(c.StartURL, links.Slots{"rid": identifier})
	u, err := links.ParseAbsolute(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedURL, c.Key, err)
	}
	query := links.SetParam(u.RawQuery, c.IDParam, identifier)
	for _, name := range c.SecondaryParams {
		if name = strings.TrimSpace(name); name != "" && name != c.IDParam {
			query = links.SetParam(query, name, identifier)
		}
	}
	if source = strings.TrimSpace(source); source != "" {
		query = links.SetParam(query, SourceParam, source)
	}
	u.RawQuery = query
	return u, nil
}

// HasPlaceholder reports whether the cell URL carries a recognisable
// placeholder for its id parameter.
func (c Cell) HasPlaceholder() bool {
	if strings.Contains(c.StartURL, "{rid}") {
		return true
	}
	_, query, _ := strings.Cut(c.StartURL, "?")
	value, ok := links.GetParam(query, c.IDParam)
	return ok && IsPlaceholder(value)
}

// IsPlaceholder reports whether value is a respondent id placeholder: a run
// of X characters (XXX, XXXXX), {rid}, or empty.
func IsPlaceholder(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" || value == "{rid}" {
		return true
	}
	return strings.Trim(value, "Xx") == ""
}
