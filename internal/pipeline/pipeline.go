package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tshibata/link-digest/internal/discord"
	"github.com/tshibata/link-digest/internal/extract"
	"github.com/tshibata/link-digest/internal/publisher"
	"github.com/tshibata/link-digest/internal/summarizer"
	"github.com/tshibata/link-digest/internal/urlx"
)

// Body caps applied while assembling the digest payload. Asynchronous
// extractions (transcripts, threads) get the larger budget.
const (
	pageBodyLimit = 500
	jobBodyLimit  = 2000
)

const noLinksNotice = "*No links found in the window.*"

// MessageSource fetches recent raw messages from one chat channel.
type MessageSource interface {
	Messages(ctx context.Context, channelID string, limit int) ([]discord.Message, error)
}

// ExtractService turns a deduplicated target set into results.
type ExtractService interface {
	ExtractAll(ctx context.Context, targets []urlx.Target) []extract.Result
}

// Runner orchestrates the collect -> extract -> summarize -> publish
// pipeline. It holds no state across runs.
type Runner struct {
	source       MessageSource
	channels     []string
	messageLimit int
	window       time.Duration
	extractor    ExtractService
	summarizer   summarizer.Summarizer
	publishers   []publisher.Publisher
	log          *zap.Logger
}

func New(
	source MessageSource,
	channels []string,
	messageLimit int,
	window time.Duration,
	extractor ExtractService,
	s summarizer.Summarizer,
	pubs []publisher.Publisher,
	log *zap.Logger,
) *Runner {
	return &Runner{
		source:       source,
		channels:     channels,
		messageLimit: messageLimit,
		window:       window,
		extractor:    extractor,
		summarizer:   s,
		publishers:   pubs,
		log:          log,
	}
}

// collectTargets pools messages from every channel, keeps those whose
// timestamp falls inside the trailing window, and scans content plus
// embed metadata for URLs. A fetch failure for one channel yields an
// empty list for that channel and never aborts the run.
func (r *Runner) collectTargets(ctx context.Context, windowStart time.Time) *urlx.Set {
	set := urlx.NewSet()

	for _, channelID := range r.channels {
		messages, err := r.source.Messages(ctx, channelID, r.messageLimit)
		if err != nil {
			r.log.Warn("channel fetch failed", zap.String("channel", channelID), zap.Error(err))
			continue
		}
		r.log.Debug("fetched messages", zap.String("channel", channelID), zap.Int("count", len(messages)))

		for _, msg := range messages {
			ts, err := msg.Time()
			if err != nil || ts.Before(windowStart) {
				continue
			}

			for _, raw := range urlx.Extract(msg.Content) {
				set.Add(raw)
			}
			for _, embed := range msg.Embeds {
				if embed.URL != "" {
					set.Add(embed.URL)
				}
			}
		}
	}

	return set
}

// BuildDigest runs collection and extraction and assembles the digest
// payload. With no links in the window it returns the explicit
// empty-digest payload without invoking extraction.
func (r *Runner) BuildDigest(ctx context.Context) *summarizer.Digest {
	now := time.Now()
	windowStart := now.Add(-r.window)

	set := r.collectTargets(ctx, windowStart)
	r.log.Info("collected links", zap.Int("unique", set.Len()), zap.Time("window_start", windowStart))

	digest := &summarizer.Digest{
		Date:       now,
		LinksFound: set.Len(),
	}

	if set.Len() == 0 {
		digest.Summary = fmt.Sprintf("# Daily Link Digest — %s\n\n%s", now.Format("2006-01-02"), noLinksNotice)
		return digest
	}

	results := r.extractor.ExtractAll(ctx, set.Targets())
	for i := range results {
		results[i].Body = capBody(results[i])
	}

	digest.Results = results
	digest.Extracted = len(results)
	return digest
}

func capBody(result extract.Result) string {
	limit := pageBodyLimit
	if result.Kind != extract.KindPage {
		limit = jobBodyLimit
	}
	if len(result.Body) > limit {
		return result.Body[:limit]
	}
	return result.Body
}

// Run executes the full pipeline once.
func (r *Runner) Run(ctx context.Context) error {
	runID := uuid.New().String()
	log := r.log.With(zap.String("run_id", runID))
	log.Info("starting pipeline", zap.Duration("window", r.window), zap.Int("channels", len(r.channels)))

	digest := r.BuildDigest(ctx)

	if digest.LinksFound > 0 {
		summary, err := r.summarizer.Summarize(ctx, digest)
		if err != nil {
			return fmt.Errorf("pipeline: summarize failed: %w", err)
		}
		digest.Summary = summary
	}

	// Deliver through every publisher; one failing does not stop the
	// others.
	var publishErrors []error
	for _, pub := range r.publishers {
		if err := pub.Publish(ctx, digest); err != nil {
			publishErrors = append(publishErrors, err)
			log.Warn("publish failed", zap.String("publisher", fmt.Sprintf("%T", pub)), zap.Error(err))
		}
	}
	if len(r.publishers) > 0 && len(publishErrors) == len(r.publishers) {
		return fmt.Errorf("pipeline: all publishers failed: %v", publishErrors)
	}

	log.Info("pipeline completed",
		zap.Int("links_found", digest.LinksFound),
		zap.Int("extracted", digest.Extracted),
		zap.Int("publish_failures", len(publishErrors)))
	return nil
}
