package status

import (
	"strings"
)

// Status is the canonical outcome reported for a respondent.
type Status string

const (
	Complete  Status = "complete"
	Terminate Status = "terminate"
	Quota     Status = "quota"
	Quality   Status = "quality"
	Unknown   Status = "unknown"
)

// Known lists the routable statuses in resolution order.
var Known = []Status{Complete, Terminate, Quota, Quality}

// String implements fmt.Stringer.
func (s Status) String() string { return string(s) }

// Valid reports whether s is one of the routable statuses.
func (s Status) Valid() bool {
	for _, known := range Known {
		if s == known {
			return true
		}
	}
	return false
}

// Parse converts a canonical status name (not an alias) into a Status.
func Parse(value string) Status {
	candidate := Status(strings.ToLower(strings.TrimSpace(value)))
	if candidate.Valid() {
		return candidate
	}
	return Unknown
}

// QualityMode controls how the quality alias set is treated.
type QualityMode string

const (
	// QualityDistinct maps bad/dq/fraud/quality to Quality.
	QualityDistinct QualityMode = "quality"
	// QualityAsTerminate folds the quality aliases into Terminate.
	QualityAsTerminate QualityMode = "terminate"
	// QualityOff leaves the quality aliases unmatched.
	QualityOff QualityMode = "off"
)

// Valid reports whether the mode is recognised.
func (m QualityMode) Valid() bool {
	switch m {
	case QualityDistinct, QualityAsTerminate, QualityOff:
		return true
	}
	return false
}

// Alias binds a set of raw tokens to a canonical status.
type Alias struct {
	Status Status
	Tokens []string
}

// Table is an ordered alias table. The first alias containing a token wins.
type Table struct {
	aliases []Alias
}

var (
	completeTokens  = []string{"c", "complete"}
	terminateTokens = []string{"t", "term", "terminate"}
	quotaTokens     = []string{"q", "qf", "quota", "quotafull", "overquota"}
	qualityTokens   = []string{"bad", "dq", "fraud", "quality"}
)

// DefaultAliases returns the built-in alias table for the given quality mode.
func DefaultAliases(mode QualityMode) []Alias {
	aliases := []Alias{
		{Status: Complete, Tokens: completeTokens},
		{Status: Terminate, Tokens: terminateTokens},
		{Status: Quota, Tokens: quotaTokens},
	}
	switch mode {
	case QualityAsTerminate:
		aliases = append(aliases, Alias{Status: Terminate, Tokens: qualityTokens})
	case QualityOff:
	default:
		aliases = append(aliases, Alias{Status: Quality, Tokens: qualityTokens})
	}
	return aliases
}

// NewTable builds a table from the given aliases. Tokens are lower-cased and
// trimmed; entries with an invalid status or no tokens are skipped.
func NewTable(aliases ...Alias) *Table {
	table := &Table{aliases: make([]Alias, 0, len(aliases))}
	for _, alias := range aliases {
		if !alias.Status.Valid() {
			continue
		}
		tokens := make([]string, 0, len(alias.Tokens))
		for _, token := range alias.Tokens {
			if token = strings.ToLower(strings.TrimSpace(token)); token != "" {
				tokens = append(tokens, token)
			}
		}
		if len(tokens) == 0 {
			continue
		}
		table.aliases = append(table.aliases, Alias{Status: alias.Status, Tokens: tokens})
	}
	return table
}

// NewConfiguredTable builds the default table for mode and appends operator
// supplied aliases keyed by canonical status name.
func NewConfiguredTable(mode QualityMode, extra map[string][]string) *Table {
	aliases := DefaultAliases(mode)
	for _, st := range Known {
		if tokens := extra[string(st)]; len(tokens) > 0 {
			aliases = append(aliases, Alias{Status: st, Tokens: tokens})
		}
	}
	return NewTable(aliases...)
}

var defaultTable = NewTable(DefaultAliases(QualityDistinct)...)

// Normalize maps a raw token using the default alias table.
func Normalize(raw string) Status {
	return defaultTable.Normalize(raw)
}

// Normalize maps raw to a canonical status. It never fails: anything outside
// the table, including the empty string, is Unknown.
func (t *Table) Normalize(raw string) Status {
	if t == nil {
		return Unknown
	}
	token := strings.ToLower(strings.TrimSpace(raw))
	if token == "" {
		return Unknown
	}
	for _, alias := range t.aliases {
		for _, candidate := range alias.Tokens {
			if candidate == token {
				return alias.Status
			}
		}
	}
	return Unknown
}
