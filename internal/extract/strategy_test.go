package extract

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawItems(t *testing.T, items ...any) []json.RawMessage {
	t.Helper()
	out := make([]json.RawMessage, len(items))
	for i, item := range items {
		data, err := json.Marshal(item)
		require.NoError(t, err)
		out[i] = data
	}
	return out
}

func TestVideoStrategyParsePrefersSubtitles(t *testing.T) {
	s := NewVideoStrategy("actor", NewPageExtractor(time.Second))
	title, body, ok := s.Parse(rawItems(t, map[string]any{
		"title": "Talk",
		"text":  "plain text fallback",
		"subtitles": []map[string]string{
			{"language": "en", "plaintext": "the transcript"},
		},
	}))
	require.True(t, ok)
	assert.Equal(t, "Talk", title)
	assert.Equal(t, "the transcript", body)
}

func TestVideoStrategyParseTextFallback(t *testing.T) {
	s := NewVideoStrategy("actor", NewPageExtractor(time.Second))
	_, body, ok := s.Parse(rawItems(t, map[string]any{"title": "Talk", "text": "described content"}))
	require.True(t, ok)
	assert.Equal(t, "described content", body)
}

func TestVideoStrategyParseUnusable(t *testing.T) {
	s := NewVideoStrategy("actor", NewPageExtractor(time.Second))

	_, _, ok := s.Parse(nil)
	assert.False(t, ok)

	_, _, ok = s.Parse(rawItems(t, map[string]any{"title": "Talk"}))
	assert.False(t, ok, "a title without any transcript text is unusable")
}

func TestThreadStrategyParseJoinsPostAndComments(t *testing.T) {
	s := NewThreadStrategy("actor")
	title, body, ok := s.Parse(rawItems(t,
		map[string]string{"dataType": "post", "title": "Thread title", "body": "Post."},
		map[string]string{"dataType": "comment", "body": "Comment one."},
		map[string]string{"dataType": "comment", "body": ""},
		map[string]string{"dataType": "comment", "body": "Comment two."},
	))
	require.True(t, ok)
	assert.Equal(t, "Thread title", title)
	assert.Equal(t, "Post.\n\nComment one.\n\nComment two.", body)
}

func TestThreadStrategyParseUnusable(t *testing.T) {
	s := NewThreadStrategy("actor")
	_, _, ok := s.Parse(rawItems(t, map[string]string{"dataType": "post", "title": "Only a title"}))
	assert.False(t, ok)
}

func TestThreadStrategyFallbackTitle(t *testing.T) {
	s := NewThreadStrategy("actor")
	assert.Equal(t, threadFallbackTitle, s.FallbackTitle(context.Background(), "https://reddit.com/r/a/comments/b/c"))
}
