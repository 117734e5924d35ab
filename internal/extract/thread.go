package extract

import (
	"context"
	"encoding/json"
	"strings"
)

// threadFallbackTitle is the generic placeholder used when the scraped
// thread carries no title of its own.
const threadFallbackTitle = "Discussion thread"

const maxThreadComments = 30

// ThreadStrategy extracts discussion threads (post plus top comments)
// through a discussion-platform scraper actor.
type ThreadStrategy struct {
	actorID string
}

func NewThreadStrategy(actorID string) *ThreadStrategy {
	return &ThreadStrategy{actorID: actorID}
}

func (s *ThreadStrategy) Kind() Kind      { return KindDiscussionThread }
func (s *ThreadStrategy) ActorID() string { return s.actorID }

func (s *ThreadStrategy) Input(pageURL string) any {
	return map[string]any{
		"startUrls":   []map[string]string{{"url": pageURL}},
		"maxItems":    maxThreadComments + 1,
		"maxComments": maxThreadComments,
	}
}

// threadItem covers both shapes the scraper emits: a post row carrying
// the title and self-text, and comment rows carrying just a body.
type threadItem struct {
	DataType string `json:"dataType"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

// Parse joins the post text with its comments in dataset order.
func (s *ThreadStrategy) Parse(items []json.RawMessage) (string, string, bool) {
	var (
		title string
		parts []string
	)

	for _, raw := range items {
		var item threadItem
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}

		if item.DataType == "post" && title == "" {
			title = strings.TrimSpace(item.Title)
		}
		if body := strings.TrimSpace(item.Body); body != "" {
			parts = append(parts, body)
		}
	}

	if len(parts) == 0 {
		return "", "", false
	}
	return title, strings.Join(parts, "\n\n"), true
}

func (s *ThreadStrategy) FallbackTitle(context.Context, string) string {
	return threadFallbackTitle
}
