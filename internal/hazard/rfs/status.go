package rfs

import (
	"html"
	"regexp"
	"strings"
)

// incidentFields are the inputs to status derivation.
type incidentFields struct {
	status     string
	statusText string
	kind       string
	size       string
}

// derive picks the published status, falling back to the incident type and
// size when no status is published.
func (f incidentFields) derive() string {
	if s := firstNonEmpty(f.status, f.statusText); s != "" {
		return s
	}
	if strings.Contains(strings.ToLower(f.kind), "burn") {
		return "Planned burn"
	}
	if size := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(f.size), "ha")); size != "" {
		return "Ongoing (" + size + " ha)"
	}
	return "No official status published"
}

var lineBreak = regexp.MustCompile(`(?i)<br\s*/?>`)

// parseDescription splits the RFS description block ("KEY: value<br />...")
// into lower-cased keys.
func parseDescription(desc string) map[string]string {
	out := make(map[string]string)
	if desc == "" {
		return out
	}
	for _, line := range lineBreak.Split(desc, -1) {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(html.UnescapeString(value))
		if key == "" || value == "" {
			continue
		}
		if _, seen := out[key]; !seen {
			out[key] = value
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
