// Package links builds outbound redirect URLs.
//
// Expand substitutes named {slot} placeholders in URL templates one component
// at a time (path segments are path-escaped, query values are query-escaped)
// in a single pass, so a substituted value is never rescanned. SetParam edits
// a raw query in place, keeping the order of unrelated parameters. ClientLink
// appends the forwarded respondent id and, when a Signer is configured, its
// signature.
package links
