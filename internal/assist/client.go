// Package assist calls the hosted generative-language service to draft
// a short review and quote for a book. Strictly best-effort: a missing
// credential, network failure, or malformed response disables the
// assist action and never blocks publishing.
package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"leaflog/internal/config"
)

// Suggestion is the structured assist output.
type Suggestion struct {
	Review string `json:"review"`
	Quote  string `json:"quote"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(cfg *config.AssistConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Available reports whether a credential is configured. Without one the
// assist action is disabled up front.
func (c *Client) Available() bool {
	return c.apiKey != ""
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Suggest asks the service for a review and quote for the given book.
func (c *Client) Suggest(ctx context.Context, bookTitle, bookAuthor string) (*Suggestion, error) {
	if !c.Available() {
		return nil, fmt.Errorf("assist credential not configured")
	}

	prompt := fmt.Sprintf(
		`Write about the book %q by %s. Respond with JSON only, shaped as {"review": "...", "quote": "..."}: a two-sentence reader review and one short memorable quote from the book.`,
		bookTitle, bookAuthor,
	)

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/gemini-1.5-flash:generateContent?key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("assist request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("assist request failed: status %d", resp.StatusCode)
	}

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return nil, fmt.Errorf("malformed assist response: %v", err)
	}
	if len(gen.Candidates) == 0 || len(gen.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty assist response")
	}

	return parseSuggestion(gen.Candidates[0].Content.Parts[0].Text)
}

// parseSuggestion extracts the JSON payload from the model's text,
// tolerating surrounding prose or code fences.
func parseSuggestion(text string) (*Suggestion, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("malformed assist response: no JSON object")
	}

	var s Suggestion
	if err := json.Unmarshal([]byte(text[start:end+1]), &s); err != nil {
		return nil, fmt.Errorf("malformed assist response: %v", err)
	}
	if s.Review == "" && s.Quote == "" {
		return nil, fmt.Errorf("empty assist suggestion")
	}
	return &s, nil
}
