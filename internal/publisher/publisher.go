package publisher

import (
	"context"

	"github.com/tshibata/link-digest/internal/summarizer"
)

// Publisher delivers a finished digest to some output destination.
type Publisher interface {
	Publish(ctx context.Context, digest *summarizer.Digest) error
}
