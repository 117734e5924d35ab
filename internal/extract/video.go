package extract

import (
	"context"
	"encoding/json"
	"strings"
)

// VideoStrategy extracts video transcripts through a video-platform
// scraper actor. The fallback title is the video page's own <title>,
// fetched once up front.
type VideoStrategy struct {
	actorID string
	titles  *PageExtractor
}

func NewVideoStrategy(actorID string, titles *PageExtractor) *VideoStrategy {
	return &VideoStrategy{actorID: actorID, titles: titles}
}

func (s *VideoStrategy) Kind() Kind      { return KindVideoTranscript }
func (s *VideoStrategy) ActorID() string { return s.actorID }

func (s *VideoStrategy) Input(pageURL string) any {
	return map[string]any{
		"startUrls":  []map[string]string{{"url": pageURL}},
		"maxResults": 1,
		"subtitles":  true,
	}
}

type videoItem struct {
	Title     string `json:"title"`
	Text      string `json:"text"`
	Subtitles []struct {
		Language  string `json:"language"`
		Plaintext string `json:"plaintext"`
	} `json:"subtitles"`
}

// Parse reads the first scraped video and prefers its subtitle track
// over any plain text field.
func (s *VideoStrategy) Parse(items []json.RawMessage) (string, string, bool) {
	if len(items) == 0 {
		return "", "", false
	}

	var item videoItem
	if err := json.Unmarshal(items[0], &item); err != nil {
		return "", "", false
	}

	body := ""
	for _, sub := range item.Subtitles {
		if text := strings.TrimSpace(sub.Plaintext); text != "" {
			body = text
			break
		}
	}
	if body == "" {
		body = strings.TrimSpace(item.Text)
	}
	if body == "" {
		return "", "", false
	}
	return strings.TrimSpace(item.Title), body, true
}

func (s *VideoStrategy) FallbackTitle(ctx context.Context, pageURL string) string {
	return s.titles.Title(ctx, pageURL)
}
