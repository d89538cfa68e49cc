// Package featureflags provides runtime toggles for degraded operation.
package featureflags

import (
	"sort"
	"time"
)

// Well-known feature flag keys.
const (
	// FlagLowBandwidthMode trims optional work from risk requests.
	// Hotspots are skipped while it is on.
	FlagLowBandwidthMode = "low_bandwidth_mode"

	// FlagDisableHotspots removes hotspots from scoring and map output.
	FlagDisableHotspots = "disable_hotspots"

	// FlagCachedOnlyFeeds serves whatever is cached and never refreshes
	// feeds on the request path.
	FlagCachedOnlyFeeds = "cached_only_feeds"
)

var descriptions = map[string]string{
	FlagLowBandwidthMode: "Skip hotspots and omit score breakdowns and rating actions",
	FlagDisableHotspots:  "Ignore satellite hotspots in scoring and the map",
	FlagCachedOnlyFeeds:  "Serve cached feeds only and never fetch upstream on a request",
}

// Flag is a toggle and its current value. Description is filled in from the
// known flag table and is not stored.
type Flag struct {
	Key         string      `json:"key"`
	Value       interface{} `json:"value"`
	Description string      `json:"description,omitempty"`
	UpdatedAt   time.Time   `json:"updatedAt"`

	// UpdatedBy is the operator who last changed the flag, if any.
	UpdatedBy string `json:"updatedBy,omitempty"`
}

// FlagList is the admin listing of flags.
type FlagList struct {
	Items []Flag `json:"items"`
}

// FlagUpdate sets one flag.
type FlagUpdate struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// FlagUpdateRequest is an operator's batch of flag changes.
type FlagUpdateRequest struct {
	Updates []FlagUpdate `json:"updates"`
	Reason  string       `json:"reason"`
}

// BoolValue returns the flag value as a boolean, or defaultValue when the
// flag is nil or holds something else.
func (f *Flag) BoolValue(defaultValue bool) bool {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case bool:
		return v
	case float64:
		// JSON unmarshals numbers as float64
		return v != 0
	default:
		return defaultValue
	}
}

// IsKnown reports whether key is one of the well-known flags.
func IsKnown(key string) bool {
	_, ok := descriptions[key]
	return ok
}

// Describe returns the operator-facing description of a known flag.
func Describe(key string) string {
	return descriptions[key]
}

// Keys returns the known flag keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(descriptions))
	for k := range descriptions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DefaultFlags returns the default feature flags. Every toggle starts off.
func DefaultFlags() map[string]*Flag {
	now := time.Now()
	flags := make(map[string]*Flag, len(descriptions))
	for key, desc := range descriptions {
		flags[key] = &Flag{Key: key, Value: false, Description: desc, UpdatedAt: now}
	}
	return flags
}
