package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Toxicity categories requested from the scoring service
const (
	CategoryToxicity       = "TOXICITY"
	CategorySevereToxicity = "SEVERE_TOXICITY"
	CategoryInsult         = "INSULT"
	CategoryProfanity      = "PROFANITY"
)

var requestedCategories = []string{
	CategoryToxicity,
	CategorySevereToxicity,
	CategoryInsult,
	CategoryProfanity,
}

type scoreRequest struct {
	Text       string   `json:"text"`
	Categories []string `json:"categories"`
}

type scoreResponse struct {
	Scores map[string]float64 `json:"scores"`
}

// ScoringClient talks to the external toxicity scoring service. Every call
// is bounded by the client timeout; a slow provider surfaces as an error
// and the gate's failure policy applies.
type ScoringClient struct {
	url    string
	apiKey string
	client *http.Client
}

func NewScoringClient(url, apiKey string, timeout time.Duration) *ScoringClient {
	return &ScoringClient{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

// Score requests per-category scores for text
func (c *ScoringClient) Score(ctx context.Context, text string) (map[string]float64, error) {
	body, err := json.Marshal(scoreRequest{
		Text:       text,
		Categories: requestedCategories,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode scoring request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build scoring request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scoring request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scoring service returned status %d", resp.StatusCode)
	}

	var decoded scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode scoring response: %w", err)
	}

	return decoded.Scores, nil
}
