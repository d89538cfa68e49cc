package risk

import (
	"strings"

	"github.com/outbackwarning/outbackwarning/internal/hazard"
)

var actions = map[hazard.RatingLevel][]string{
	hazard.RatingNone: {
		"Stay informed via NSW RFS / BOM.",
		"Use local conditions to guide decisions.",
	},
	hazard.RatingModerate: {
		"Review your bushfire survival plan.",
		"Check radios/alerts; know multiple exit routes.",
	},
	hazard.RatingHigh: {
		"Clear gutters and combustibles around the home.",
		"Pack a go-bag and monitor official alerts frequently.",
	},
	hazard.RatingExtreme: {
		"Leaving early is recommended for high-risk properties.",
		"Prepare your route and destination in advance.",
	},
	hazard.RatingCatastrophic: {
		"Do not wait. Leaving early is the safest option.",
		"Follow official instructions immediately and avoid bushland.",
	},
	hazard.RatingUnknown: {
		"AFDRS data not available; act on local conditions.",
		"Monitor NSW RFS and BOM for updates.",
	},
}

// ActionsFor returns plain-English actions for a rating level. Unrecognised
// levels get the Unknown guidance.
func ActionsFor(level hazard.RatingLevel) []string {
	lines, ok := actions[hazard.NormalizeLevel(string(level))]
	if !ok {
		lines = actions[hazard.RatingUnknown]
	}
	out := make([]string, len(lines))
	copy(out, lines)
	return out
}

// Explain summarises why a result scored as it did.
func Explain(r Result) string {
	if len(r.Tags) == 0 {
		return "No contributing factors detected yet."
	}
	return "Why this score: " + strings.Join(r.Tags, ", ")
}
