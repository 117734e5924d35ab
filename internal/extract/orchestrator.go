package extract

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/tshibata/link-digest/internal/urlx"
)

// Extractor turns one target URL into a Result. A nil Result with
// ErrDeclined means the target was never dispatched; any other error
// is a per-item soft failure.
type Extractor interface {
	Extract(ctx context.Context, pageURL string) (*Result, error)
}

// Service classifies targets and fans them out to the matching
// extractor over a bounded worker pool. Targets share no mutable
// state, so a slow extraction for one never delays the others beyond
// pool capacity.
type Service struct {
	pages   Extractor
	videos  Extractor
	threads Extractor
	workers int
	log     *zap.Logger
}

func NewService(pages, videos, threads Extractor, workers int, log *zap.Logger) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{
		pages:   pages,
		videos:  videos,
		threads: threads,
		workers: workers,
		log:     log,
	}
}

// ExtractAll extracts every target independently and collects the
// non-nil results. Declined and failed items are omitted; they never
// abort the batch. Output order is unspecified.
func (s *Service) ExtractAll(ctx context.Context, targets []urlx.Target) []Result {
	jobs := make(chan urlx.Target)
	out := make(chan Result, len(targets))

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for target := range jobs {
				if r := s.extractOne(ctx, target); r != nil {
					out <- *r
				}
			}
		}()
	}

	for _, target := range targets {
		jobs <- target
	}
	close(jobs)
	wg.Wait()
	close(out)

	results := make([]Result, 0, len(targets))
	for r := range out {
		results = append(results, r)
	}
	return results
}

func (s *Service) extractOne(ctx context.Context, target urlx.Target) *Result {
	variant := Classify(target.Raw)

	var extractor Extractor
	switch variant {
	case VariantSkipped:
		s.log.Debug("skipping embed-only host", zap.String("url", target.Raw))
		return nil
	case VariantVideoTranscript:
		extractor = s.videos
	case VariantDiscussionThread:
		extractor = s.threads
	default:
		extractor = s.pages
	}

	result, err := extractor.Extract(ctx, target.Raw)
	if err != nil {
		if errors.Is(err, ErrDeclined) {
			s.log.Debug("extractor declined", zap.String("url", target.Raw))
		} else {
			s.log.Warn("extraction dropped", zap.String("url", target.Raw), zap.Error(err))
		}
		return nil
	}
	return result
}
