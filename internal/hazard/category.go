package hazard

import "strings"

// Category narrows the feed list by keyword.
type Category string

const (
	CategoryAll           Category = "all"
	CategoryBushfire      Category = "bushfire"
	CategoryFlood         Category = "flood"
	CategorySevereWeather Category = "severe-weather"
)

var categoryKeywords = map[Category][]string{
	CategoryBushfire:      {"fire", "bushfire", "nsw rfs"},
	CategoryFlood:         {"flood"},
	CategorySevereWeather: {"storm", "severe", "wind", "weather"},
}

// ParseCategory maps a query value to a Category. Empty means all.
func ParseCategory(raw string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if c == "" || c == CategoryAll {
		return CategoryAll, true
	}
	_, ok := categoryKeywords[c]
	return c, ok
}

// Matches reports whether the item's title or summary mentions the category.
func (c Category) Matches(item FeedItem) bool {
	keywords, ok := categoryKeywords[c]
	if !ok {
		return true
	}
	text := strings.ToLower(item.Title + " " + item.Summary)
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// FilterFeedItems returns the items matching c, preserving order.
func FilterFeedItems(items []FeedItem, c Category) []FeedItem {
	out := make([]FeedItem, 0, len(items))
	for _, it := range items {
		if c.Matches(it) {
			out = append(out, it)
		}
	}
	return out
}
