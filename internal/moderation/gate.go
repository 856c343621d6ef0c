package moderation

import (
	"context"
	"log"
	"strings"
	"sync/atomic"
	"time"
)

// Toxicity thresholds per category. These are policy knobs, not contracts;
// a score above the threshold in any category rejects the text.
var thresholds = map[string]float64{
	CategoryToxicity:       0.8,
	CategorySevereToxicity: 0.5,
	CategoryInsult:         0.7,
	CategoryProfanity:      0.7,
}

// WordSource supplies the current blocklist, typically backed by the
// banned_words table.
type WordSource interface {
	Words() ([]string, error)
}

// Scorer scores a text per toxicity category, score in [0,1]
type Scorer interface {
	Score(ctx context.Context, text string) (map[string]float64, error)
}

// Gate decides whether user-submitted text is acceptable. It holds an
// immutable blocklist snapshot swapped atomically on refresh, so matching
// never takes a lock and never makes a network round-trip.
//
// When the external scorer fails the gate fails open: the text is treated
// as non-toxic and the failure is logged. The blocklist still applies.
type Gate struct {
	words     WordSource
	scorer    Scorer
	blocklist atomic.Value // []string, lowercased
}

// NewGate creates a gate with an empty blocklist snapshot. Call
// LoadBlocklist before serving traffic.
func NewGate(words WordSource, scorer Scorer) *Gate {
	g := &Gate{
		words:  words,
		scorer: scorer,
	}
	g.blocklist.Store([]string{})
	return g
}

// LoadBlocklist replaces the snapshot with the current contents of the
// word source
func (g *Gate) LoadBlocklist() error {
	words, err := g.words.Words()
	if err != nil {
		return err
	}

	lowered := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			lowered = append(lowered, w)
		}
	}

	g.blocklist.Store(lowered)
	return nil
}

// StartRefresh reloads the blocklist on a fixed interval until stop is
// closed. A failed reload keeps the previous snapshot.
func (g *Gate) StartRefresh(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := g.LoadBlocklist(); err != nil {
					log.Printf("Blocklist refresh failed: %v", err)
				}
			case <-stop:
				return
			}
		}
	}()
}

// Moderate reports whether text is acceptable. Empty text and blocklist
// hits are rejected without touching the external service.
func (g *Gate) Moderate(ctx context.Context, text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	lower := strings.ToLower(text)
	for _, word := range g.blocklist.Load().([]string) {
		if strings.Contains(lower, word) {
			return false
		}
	}

	if g.scorer == nil {
		return true
	}

	scores, err := g.scorer.Score(ctx, text)
	if err != nil {
		// Fail open: accept, but make the outage visible
		log.Printf("Toxicity scoring failed, accepting text (len=%d): %v", len(text), err)
		return true
	}

	for category, limit := range thresholds {
		if score, ok := scores[category]; ok && score > limit {
			return false
		}
	}

	return true
}
