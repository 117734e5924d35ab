package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://discord.com/api/v10"

// Embed is the slice of a Discord embed the pipeline cares about: the
// link-preview URL, when present.
type Embed struct {
	URL string `json:"url"`
}

// Message is a raw channel message as returned by the Discord REST API.
type Message struct {
	Content   string  `json:"content"`
	Timestamp string  `json:"timestamp"`
	Embeds    []Embed `json:"embeds"`
}

// Time parses the message's ISO-8601 timestamp.
func (m Message) Time() (time.Time, error) {
	return time.Parse(time.RFC3339, m.Timestamp)
}

// Client is a thin wrapper over the Discord REST API: reading recent
// channel messages and posting digest output.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewClient(token string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) authorization() string {
	if strings.HasPrefix(c.token, "Bot ") {
		return c.token
	}
	return "Bot " + c.token
}

// Messages fetches up to limit recent messages from a channel, newest
// first.
func (c *Client) Messages(ctx context.Context, channelID string, limit int) ([]Message, error) {
	reqURL := fmt.Sprintf("%s/channels/%s/messages?limit=%d", c.baseURL, channelID, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("discord: create request: %w", err)
	}
	req.Header.Set("Authorization", c.authorization())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discord: fetch messages from %s: %w", channelID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discord: fetch messages from %s: unexpected status %d", channelID, resp.StatusCode)
	}

	var messages []Message
	if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		return nil, fmt.Errorf("discord: decode messages from %s: %w", channelID, err)
	}
	return messages, nil
}

// PostMessage posts plain content to a channel.
func (c *Client) PostMessage(ctx context.Context, channelID, content string) (int, error) {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return 0, fmt.Errorf("discord: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/channels/%s/messages", c.baseURL, channelID), bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("discord: create request: %w", err)
	}
	req.Header.Set("Authorization", c.authorization())
	req.Header.Set("Content-Type", "application/json")

	return c.send(req, channelID)
}

// UploadFile posts a file attachment with a short note, used when the
// digest is too long for an inline message.
func (c *Client) UploadFile(ctx context.Context, channelID, note, filename, content string) (int, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	payload, err := json.Marshal(map[string]string{"content": note})
	if err != nil {
		return 0, fmt.Errorf("discord: marshal payload: %w", err)
	}
	if err := w.WriteField("payload_json", string(payload)); err != nil {
		return 0, fmt.Errorf("discord: write payload field: %w", err)
	}

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return 0, fmt.Errorf("discord: create file part: %w", err)
	}
	if _, err := io.WriteString(part, content); err != nil {
		return 0, fmt.Errorf("discord: write file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("discord: finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/channels/%s/messages", c.baseURL, channelID), &buf)
	if err != nil {
		return 0, fmt.Errorf("discord: create request: %w", err)
	}
	req.Header.Set("Authorization", c.authorization())
	req.Header.Set("Content-Type", w.FormDataContentType())

	return c.send(req, channelID)
}

func (c *Client) send(req *http.Request, channelID string) (int, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("discord: post to %s: %w", channelID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("discord: post to %s: unexpected status %d", channelID, resp.StatusCode)
	}
	return resp.StatusCode, nil
}
