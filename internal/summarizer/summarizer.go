package summarizer

import (
	"fmt"

	"github.com/tshibata/link-digest/internal/config"
)

// New creates a new summarizer based on the configuration
func New(cfg config.SummarizerConfig) (Summarizer, error) {
	switch cfg.Type {
	case "anthropic":
		return NewAnthropicSummarizer(cfg.APIKey, cfg.Model, cfg.MaxTokens), nil
	default:
		return nil, ErrUnsupportedSummarizerType
	}
}

// ErrUnsupportedSummarizerType is returned when an unsupported summarizer type is specified
var ErrUnsupportedSummarizerType = fmt.Errorf("unsupported summarizer type")
