// Package commentary implements the generative-language boundary: it sends
// a summarized view of the trailing window to a remote service and parses
// the structured narrative it returns. Failures surface as "no analysis
// available" — logged, never retried.
package commentary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"marketviz/internal/model"
)

// Client calls the remote commentary endpoint.
type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewClient creates a commentary client for the given endpoint.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		client: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

type analyzeRequest struct {
	Symbol string `json:"symbol"`
	Prompt string `json:"prompt"`
}

type analyzeResponse struct {
	Trend      string  `json:"trend"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	Signal     string  `json:"signal"`
}

// Analyze requests narrative commentary for the trailing window.
func (c *Client) Analyze(ctx context.Context, symbol string, tf model.Timeframe, bars model.Series) (*model.Analysis, error) {
	body, err := json.Marshal(analyzeRequest{
		Symbol: symbol,
		Prompt: BuildPrompt(symbol, tf, bars),
	})
	if err != nil {
		return nil, fmt.Errorf("commentary: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("commentary: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("commentary: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("commentary: unexpected status %d", resp.StatusCode)
	}

	var ar analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, fmt.Errorf("commentary: decode response: %w", err)
	}
	return toAnalysis(symbol, ar)
}

// toAnalysis validates the service response against the enum contract and
// clamps confidence into [0,1].
func toAnalysis(symbol string, ar analyzeResponse) (*model.Analysis, error) {
	trend := model.Trend(ar.Trend)
	switch trend {
	case model.TrendBullish, model.TrendBearish, model.TrendNeutral:
	default:
		return nil, fmt.Errorf("commentary: invalid trend %q", ar.Trend)
	}

	action := model.Action(ar.Signal)
	switch action {
	case model.ActionBuy, model.ActionSell, model.ActionWait:
	default:
		return nil, fmt.Errorf("commentary: invalid signal %q", ar.Signal)
	}

	conf := ar.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}

	return &model.Analysis{
		Symbol:     symbol,
		Trend:      trend,
		Confidence: conf,
		Reasoning:  ar.Reasoning,
		Signal:     action,
		TS:         time.Now().UTC(),
	}, nil
}
