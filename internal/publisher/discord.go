package publisher

import (
	"context"
	"fmt"

	"github.com/tshibata/link-digest/internal/retry"
	"github.com/tshibata/link-digest/internal/summarizer"
)

// Discord caps inline messages at 2000 characters; past this we attach
// the digest as a markdown file instead of splitting it.
const inlineMessageLimit = 1800

// ChatPoster is the slice of the chat client the publisher needs.
type ChatPoster interface {
	PostMessage(ctx context.Context, channelID, content string) (int, error)
	UploadFile(ctx context.Context, channelID, note, filename, content string) (int, error)
}

// DiscordPublisher posts the digest to a Discord channel through the
// bot API. Long digests go out as a markdown file attachment.
type DiscordPublisher struct {
	client      ChatPoster
	channelID   string
	retryConfig retry.Config
}

func NewDiscordPublisher(client ChatPoster, channelID string) *DiscordPublisher {
	return &DiscordPublisher{
		client:      client,
		channelID:   channelID,
		retryConfig: retry.DefaultConfig(),
	}
}

func (p *DiscordPublisher) Publish(ctx context.Context, digest *summarizer.Digest) error {
	err := retry.WithBackoff(ctx, p.retryConfig, func(ctx context.Context) error {
		var (
			status int
			err    error
		)
		if len(digest.Summary) > inlineMessageLimit {
			date := digest.Date.Format("2006-01-02")
			note := fmt.Sprintf("# Daily Link Digest — %s\n\n*Summary attached as file (too long for inline message)*", date)
			status, err = p.client.UploadFile(ctx, p.channelID, note, fmt.Sprintf("link-digest-%s.md", date), digest.Summary)
		} else {
			status, err = p.client.PostMessage(ctx, p.channelID, digest.Summary)
		}

		if err != nil && status != 0 && !retry.HTTPStatusRetryable(status) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("discord publisher: %w", err)
	}
	return nil
}
