package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// semanticFloor is the minimum verdict confidence accepted from the
// completion service. Anything below degrades to no-match.
const semanticFloor = 0.8

// SemanticMatcher is the optional completion-service fallback for fuzzy
// near-misses. It is treated as unreliable: any transport failure, malformed
// verdict or low confidence degrades to no-match, never to an error.
type SemanticMatcher struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
	logger   *slog.Logger
}

// NewSemanticMatcher builds the fallback matcher. Returns nil when no
// endpoint is configured, which disables the tier.
func NewSemanticMatcher(endpoint, apiKey, model string, logger *slog.Logger) *SemanticMatcher {
	if endpoint == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SemanticMatcher{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		client:   &http.Client{Timeout: 20 * time.Second},
		logger:   logger,
	}
}

type completionRequest struct {
	Model    string              `json:"model"`
	Messages []completionMessage `json:"messages"`
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message completionMessage `json:"message"`
	} `json:"choices"`
}

type verdict struct {
	Match      bool    `json:"match"`
	Index      int     `json:"index"`
	Confidence float64 `json:"confidence"`
}

// Judge asks the completion service whether any shortlisted listing is the
// same product. A nil return means no usable verdict.
func (s *SemanticMatcher) Judge(ctx context.Context, sourceName string, shortlist []Listing) *Match {
	if s == nil || len(shortlist) == 0 {
		return nil
	}

	v, err := s.ask(ctx, sourceName, shortlist)
	if err != nil {
		s.logger.Warn("semantic match degraded to no-match", slog.Any("error", err))
		return nil
	}
	if !v.Match || v.Confidence < semanticFloor || v.Index < 0 || v.Index >= len(shortlist) {
		return nil
	}
	return &Match{Listing: shortlist[v.Index], Tier: TierSemantic, Confidence: v.Confidence}
}

func (s *SemanticMatcher) ask(ctx context.Context, sourceName string, shortlist []Listing) (verdict, error) {
	var prompt strings.Builder
	prompt.WriteString("Decide if any candidate listing is the same physical product as the source.\n")
	prompt.WriteString("Answer with only JSON: {\"match\": bool, \"index\": int, \"confidence\": float}.\n")
	fmt.Fprintf(&prompt, "Source: %s\nCandidates:\n", sourceName)
	for i, l := range shortlist {
		fmt.Fprintf(&prompt, "%d: %s\n", i, l.Name)
	}

	body, err := json.Marshal(completionRequest{
		Model:    s.model,
		Messages: []completionMessage{{Role: "user", Content: prompt.String()}},
	})
	if err != nil {
		return verdict{}, fmt.Errorf("push: marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return verdict{}, fmt.Errorf("push: build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return verdict{}, fmt.Errorf("push: completion call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return verdict{}, fmt.Errorf("push: completion returned status %d", resp.StatusCode)
	}

	var completion completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return verdict{}, fmt.Errorf("push: decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return verdict{}, fmt.Errorf("push: completion returned no choices")
	}

	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	// Tolerate fenced output around the JSON.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var v verdict
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &v); err != nil {
		return verdict{}, fmt.Errorf("push: malformed verdict %q: %w", content, err)
	}
	return v, nil
}
