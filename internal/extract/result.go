package extract

import "errors"

// Kind tags the provenance of an extracted body so downstream
// rendering can distinguish a plain page from a transcript or a
// discussion thread without sniffing the text.
type Kind int

const (
	KindPage Kind = iota
	KindVideoTranscript
	KindDiscussionThread
)

// Label returns the human-readable provenance label used when the
// digest is rendered for summarization.
func (k Kind) Label() string {
	switch k {
	case KindVideoTranscript:
		return "video transcript"
	case KindDiscussionThread:
		return "discussion thread"
	default:
		return "article"
	}
}

// Sentinel bodies substituted when an asynchronous extraction reaches
// a terminal state without usable content. They are displayable
// records, not errors: the digest accounts for every discovered link.
const (
	BodyStartFailed = "extraction failed to start"
	BodyFailed      = "extraction failed"
	BodyTimedOut    = "extraction timed out"
	BodyNoContent   = "no content available"
)

// ErrDeclined signals that an extractor was never dispatched for this
// target (feature unavailable, e.g. no job API credential), distinct
// from "attempted and failed".
var ErrDeclined = errors.New("extract: extractor declined")

// Result is the output of one extractor for one target. URL is the
// original, unnormalized form for display. Body may be empty,
// truncated, or one of the sentinel strings.
type Result struct {
	URL   string
	Title string
	Body  string
	Kind  Kind
}
