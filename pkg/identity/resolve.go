package identity

import "strings"

// CandidateParams lists the parameter names that may carry a respondent id,
// highest priority first.
var CandidateParams = []string{"rid", "pid", "uid", "respondentid", "user_id", "ddid"}

// Candidate is a named value that might hold the respondent identifier.
type Candidate struct {
	Name  string
	Value string
}

// Resolve returns the first non-empty candidate value. An empty result is a
// valid outcome; callers log it and keep going.
func Resolve(candidates []Candidate) string {
	for _, c := range candidates {
		if v := strings.TrimSpace(c.Value); v != "" {
			return v
		}
	}
	return ""
}

// FromQuery builds the prioritized candidate list from a lookup function such
// as url.Values.Get or a framework query accessor.
func FromQuery(lookup func(string) string) []Candidate {
	out := make([]Candidate, 0, len(CandidateParams))
	if lookup == nil {
		return out
	}
	for _, name := range CandidateParams {
		out = append(out, Candidate{Name: name, Value: lookup(name)})
	}
	return out
}
