package vendors

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-survey-relay/pkg/links"
	"github.com/goliatone/go-survey-relay/pkg/status"
)

const (
	// SlotProjectID is the project id placeholder name, written {pid}.
	SlotProjectID = "pid"
	// SlotIdentifier is the respondent id placeholder name, written {uid}.
	SlotIdentifier = "uid"
)

// TemplateVendor fills flat per-status URL templates.
type TemplateVendor struct {
	key       string
	mode      Mode
	templates map[status.Status]string
	projectID ProjectIDFunc
}

// NewTemplateVendor builds a flat template vendor. A nil projectID yields an
// empty project id.
func NewTemplateVendor(key string, mode Mode, templates map[status.Status]string, projectID ProjectIDFunc) *TemplateVendor {
	if !mode.Valid() {
		mode = ModeRedirect
	}
	if projectID == nil {
		projectID = StaticProjectID("")
	}
	copied := make(map[status.Status]string, len(templates))
	for st, tmpl := range templates {
		if tmpl = strings.TrimSpace(tmpl); tmpl != "" {
			copied[st] = tmpl
		}
	}
	return &TemplateVendor{
		key:       normalizeKey(key),
		mode:      mode,
		templates: copied,
		projectID: projectID,
	}
}

func (v *TemplateVendor) Key() string       { return v.key }
func (v *TemplateVendor) Mode() Mode        { return v.mode }
func (v *TemplateVendor) ProjectID() string { return v.projectID() }

// BuildURL expands the template registered for st.
func (v *TemplateVendor) BuildURL(st status.Status, identifier string) (*url.URL, error) {
	tmpl, ok := v.templates[st]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no %s template", ErrUnsupportedStatus, v.key, st)
	}
	raw := links.Expand(tmpl, links.Slots{
		SlotProjectID:  v.ProjectID(),
		SlotIdentifier: identifier,
	})
	u, err := links.ParseAbsolute(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %v", ErrMalformedURL, v.key, st, err)
	}
	return u, nil
}
