package extract

import (
	"net/url"
	"strings"
)

// Variant selects the extraction strategy for a classified URL.
type Variant int

const (
	VariantGenericPage Variant = iota
	VariantVideoTranscript
	VariantDiscussionThread
	VariantSkipped
)

// Hosts that carry no extractable article text: pure social and media
// embeds.
var skipHosts = []string{
	"twitter.com",
	"x.com",
	"imgur.com",
	"giphy.com",
	"tenor.com",
}

var videoHosts = []string{
	"youtube.com",
	"youtu.be",
}

var discussionHosts = []string{
	"reddit.com",
}

// Classify inspects a URL and picks the extraction strategy. It never
// performs I/O and never fails; malformed URLs fall through to
// VariantGenericPage.
func Classify(rawURL string) Variant {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return VariantGenericPage
	}

	host := strings.ToLower(u.Host)
	switch {
	case hostMatches(host, skipHosts):
		return VariantSkipped
	case hostMatches(host, videoHosts):
		return VariantVideoTranscript
	case hostMatches(host, discussionHosts) && strings.Contains(strings.ToLower(u.Path), "/comments/"):
		return VariantDiscussionThread
	default:
		return VariantGenericPage
	}
}

func hostMatches(host string, domains []string) bool {
	for _, d := range domains {
		if strings.Contains(host, d) {
			return true
		}
	}
	return false
}
