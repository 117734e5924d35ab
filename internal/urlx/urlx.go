package urlx

import (
	"net/url"
	"regexp"
	"strings"
)

// Pattern matches URL-shaped substrings inside free-form message text.
var Pattern = regexp.MustCompile(`(?i)https?://[^\s<>()]+`)

// Normalize canonicalizes a raw URL into a deduplication key:
// scheme://host/path[?query], lower-cased in full, fragment dropped.
// Lower-casing the path and query is a deliberate simplification and
// can over-merge case-sensitive paths; it only affects the dedup key,
// never the URL used for fetching. Malformed input is returned
// unchanged.
func Normalize(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}

	normalized := u.Scheme + "://" + u.Host + u.Path
	if u.RawQuery != "" {
		normalized += "?" + u.RawQuery
	}
	return strings.ToLower(normalized)
}

// Extract returns all URL-shaped substrings found in text.
func Extract(text string) []string {
	return Pattern.FindAllString(text, -1)
}

// Target pairs the normalized dedup key with the first raw form the
// URL appeared in. The raw form is what gets fetched and displayed.
type Target struct {
	Raw        string
	Normalized string
}

// Set deduplicates URLs by their normalized form, keeping the first
// raw occurrence of each resource.
type Set struct {
	seen  map[string]struct{}
	order []Target
}

func NewSet() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// Add inserts raw into the set. It reports whether the URL was new.
func (s *Set) Add(raw string) bool {
	key := Normalize(raw)
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	s.order = append(s.order, Target{Raw: raw, Normalized: key})
	return true
}

func (s *Set) Len() int { return len(s.order) }

// Targets returns the deduplicated targets in insertion order.
func (s *Set) Targets() []Target {
	out := make([]Target, len(s.order))
	copy(out, s.order)
	return out
}
