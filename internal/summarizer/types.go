package summarizer

import (
	"context"
	"time"

	"github.com/tshibata/link-digest/internal/extract"
)

// Digest is the aggregated output of one pipeline run: every
// extraction result plus counts, and the prose summary once produced.
type Digest struct {
	Date       time.Time        `json:"date"`
	LinksFound int              `json:"links_found"`
	Extracted  int              `json:"extracted"`
	Results    []extract.Result `json:"results"`
	Summary    string           `json:"summary"`
}

// Summarizer turns a digest's extracted content into a prose brief.
type Summarizer interface {
	Summarize(ctx context.Context, digest *Digest) (string, error)
}
