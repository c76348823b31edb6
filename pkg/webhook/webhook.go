// Package webhook posts embeds to Discord webhooks.
// It is used by the logger, the anti-crash handler and the web server.
package webhook

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// Footer is the footer used by every PancyMod webhook embed
const Footer = "💫 Developed by PancyStudio | PancyMod Go"

// Embed is the subset of a Discord embed the bot posts through webhooks
type Embed struct {
	Title       string        `json:"title,omitempty"`
	Description string        `json:"description,omitempty"`
	Color       int           `json:"color"`
	Timestamp   string        `json:"timestamp,omitempty"`
	Author      *EmbedAuthor  `json:"author,omitempty"`
	Footer      *EmbedFooter  `json:"footer,omitempty"`
	Fields      []*EmbedField `json:"fields,omitempty"`
}

// EmbedAuthor is the embed author block
type EmbedAuthor struct {
	Name string `json:"name"`
}

// EmbedFooter is the embed footer block
type EmbedFooter struct {
	Text string `json:"text"`
}

// EmbedField is a single embed field
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type payload struct {
	Embeds []*Embed `json:"embeds"`
}

// Client posts embeds to webhook URLs
type Client struct {
	http *http.Client
}

// New creates a webhook client with the given request timeout
func New(timeout time.Duration) *Client {
	return &Client{http: &http.Client{Timeout: timeout}}
}

// Send posts the embeds to url. An empty url is a no-op.
func (c *Client) Send(url string, embeds ...*Embed) (int, error) {
	if url == "" || len(embeds) == 0 {
		return 0, nil
	}

	for _, e := range embeds {
		if e.Timestamp == "" {
			e.Timestamp = time.Now().Format(time.RFC3339)
		}
	}

	body, err := json.Marshal(payload{Embeds: embeds})
	if err != nil {
		return 0, fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("webhook responded %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}
