package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// AnthropicSummarizer uses the Anthropic Messages API to turn the
// day's extracted links into a markdown brief.
type AnthropicSummarizer struct {
	apiKey    string
	model     string
	maxTokens int
	baseURL   string
	client    *http.Client
}

func NewAnthropicSummarizer(apiKey, model string, maxTokens int) *AnthropicSummarizer {
	return &AnthropicSummarizer{
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
		baseURL:   "https://api.anthropic.com/v1/messages",
		client:    &http.Client{Timeout: 120 * time.Second},
	}
}

// Anthropic API request/response types

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
	Error   *anthropicError    `json:"error,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (s *AnthropicSummarizer) Summarize(ctx context.Context, digest *Digest) (string, error) {
	if len(digest.Results) == 0 {
		return fmt.Sprintf("# Daily Link Digest — %s\n\n*No links found in the window.*",
			digest.Date.Format("2006-01-02")), nil
	}

	return s.callAPI(ctx, s.buildPrompt(digest))
}

func (s *AnthropicSummarizer) buildPrompt(digest *Digest) string {
	var sb strings.Builder
	sb.WriteString("You are an AI news curator. Generate a concise daily brief from the content shared in our chat channels.\n\nItems:\n\n")

	for i, r := range digest.Results {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, r.Title))
		sb.WriteString(fmt.Sprintf("URL: %s\n", r.URL))
		sb.WriteString(fmt.Sprintf("Content (%s): %s\n\n", r.Kind.Label(), r.Body))
	}

	sb.WriteString(fmt.Sprintf(`Create a Markdown summary with this exact structure:

# Daily Link Digest — %s

## TL;DR
(5-10 bullet points of the most important updates)

## Notable Launches & Updates
(Product releases, feature announcements)

## Research & Papers
(Academic papers, technical research)

## Funding & Policy
(Investments, regulations, policy changes)

## All Links
(For each item: - **[Title](URL)**: One-line summary)

Items whose content reads "extraction failed", "extraction timed out"
or "no content available" could not be fetched; list them under All
Links by title alone, without inventing details.

Use concrete facts, no hype. Be specific about numbers, companies, and
products. Respond with the Markdown only, no preamble.`,
		digest.Date.Format("2006-01-02")))

	return sb.String()
}

func (s *AnthropicSummarizer) callAPI(ctx context.Context, prompt string) (string, error) {
	reqBody := anthropicRequest{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("anthropic: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("anthropic: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("anthropic: failed to read response: %w", err)
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("anthropic: failed to parse response: %w", err)
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("anthropic: API error: %s - %s", apiResp.Error.Type, apiResp.Error.Message)
	}

	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("anthropic: empty response")
	}

	return strings.TrimSpace(apiResp.Content[0].Text), nil
}
