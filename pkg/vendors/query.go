package vendors

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/goliatone/go-survey-relay/pkg/links"
	"github.com/goliatone/go-survey-relay/pkg/status"
)

const (
	defaultStatusParam  = "status"
	defaultIDParam      = "arid"
	defaultProjectParam = "creference"
)

// QuerySpec describes a vendor whose return URL is assembled from query
// parameters, typically with numeric status codes.
type QuerySpec struct {
	BaseURL      string
	StatusParam  string
	StatusCodes  map[status.Status]string
	IDParam      string
	ProjectParam string
	// Params are static parameters set before the dynamic ones.
	Params map[string]string
}

// QueryVendor builds URLs by setting query parameters on a base URL.
type QueryVendor struct {
	key       string
	mode      Mode
	spec      QuerySpec
	projectID ProjectIDFunc
}

// NewQueryVendor builds a query-builder vendor, applying default parameter
// names (status, arid, creference) where QuerySpec leaves them blank.
func NewQueryVendor(key string, mode Mode, spec QuerySpec, projectID ProjectIDFunc) *QueryVendor {
	if !mode.Valid() {
		mode = ModeRedirect
	}
	if projectID == nil {
		projectID = StaticProjectID("")
	}
	spec.BaseURL = strings.TrimSpace(spec.BaseURL)
	spec.StatusParam = orDefault(spec.StatusParam, defaultStatusParam)
	spec.IDParam = orDefault(spec.IDParam, defaultIDParam)
	spec.ProjectParam = orDefault(spec.ProjectParam, defaultProjectParam)
	return &QueryVendor{
		key:       normalizeKey(key),
		mode:      mode,
		spec:      spec,
		projectID: projectID,
	}
}

func (v *QueryVendor) Key() string       { return v.key }
func (v *QueryVendor) Mode() Mode        { return v.mode }
func (v *QueryVendor) ProjectID() string { return v.projectID() }

// BuildURL maps st to its status code and sets the vendor parameters.
func (v *QueryVendor) BuildURL(st status.Status, identifier string) (*url.URL, error) {
	code, ok := v.spec.StatusCodes[st]
	if !ok || strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: %s has no code for %s", ErrUnsupportedStatus, v.key, st)
	}
	u, err := links.ParseAbsolute(v.spec.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %v", ErrMalformedURL, v.key, st, err)
	}

	query := u.RawQuery
	for _, name := range sortedKeys(v.spec.Params) {
		query = links.SetParam(query, name, v.spec.Params[name])
	}
	query = links.SetParam(query, v.spec.StatusParam, strings.TrimSpace(code))
	if pid := v.ProjectID(); pid != "" {
		query = links.SetParam(query, v.spec.ProjectParam, pid)
	}
	query = links.SetParam(query, v.spec.IDParam, identifier)
	u.RawQuery = query
	return u, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
