package publisher

import (
	"context"
	"fmt"
	"strings"

	"github.com/tshibata/link-digest/internal/summarizer"
)

// StdoutPublisher prints the digest to stdout.
type StdoutPublisher struct{}

func NewStdoutPublisher() *StdoutPublisher {
	return &StdoutPublisher{}
}

func (p *StdoutPublisher) Publish(_ context.Context, digest *summarizer.Digest) error {
	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("Daily Link Digest: %s\n", digest.Date.Format("2006-01-02 15:04"))
	fmt.Printf("Links found: %d, extracted: %d\n", digest.LinksFound, digest.Extracted)
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println()
	fmt.Println(digest.Summary)
	fmt.Println()
	fmt.Println(strings.Repeat("=", 72))
	return nil
}
