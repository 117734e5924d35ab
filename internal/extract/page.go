package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const (
	defaultUserAgent = "link-digest/1.0"
	maxPageRead      = 1 << 20 // read at most 1MB of markup
)

// PageExtractor issues a single bounded GET and pulls a title and a
// short description from the markup.
type PageExtractor struct {
	client    *http.Client
	userAgent string
}

func NewPageExtractor(timeout time.Duration) *PageExtractor {
	return &PageExtractor{
		client:    &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
	}
}

// Extract fetches pageURL and returns a KindPage result. A network
// error or non-2xx status is a soft failure: the error describes the
// reason and the caller drops the item.
func (e *PageExtractor) Extract(ctx context.Context, pageURL string) (*Result, error) {
	body, err := e.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("page: parse %s: %w", pageURL, err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = hostOf(pageURL)
	}

	desc := metaContent(doc, `meta[name="description"]`)
	if desc == "" {
		desc = metaContent(doc, `meta[property="og:description"]`)
	}
	if desc == "" {
		desc = readableExcerpt(body, pageURL)
	}

	return &Result{
		URL:   pageURL,
		Title: title,
		Body:  desc,
		Kind:  KindPage,
	}, nil
}

// Title fetches pageURL and returns just its <title> text, or the host
// when the fetch or the tag comes up empty. Used as the up-front
// fallback title for video targets.
func (e *PageExtractor) Title(ctx context.Context, pageURL string) string {
	body, err := e.fetch(ctx, pageURL)
	if err != nil {
		return hostOf(pageURL)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return hostOf(pageURL)
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return hostOf(pageURL)
}

func (e *PageExtractor) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("page: create request for %s: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("page: fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("page: fetch %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageRead))
	if err != nil {
		return nil, fmt.Errorf("page: read %s: %w", pageURL, err)
	}
	return body, nil
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

// readableExcerpt runs readability over the fetched markup when the
// page carries no description tag. Best effort only.
func readableExcerpt(body []byte, pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.Excerpt)
}

func hostOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return pageURL
	}
	return u.Host
}
