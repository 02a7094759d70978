// Package voice implements the speech-synthesis boundary: an HTTP client
// for a remote synthesizer, a PCM decoder for its payloads, and a
// single-slot speaker that guards against overlapping requests.
package voice

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SampleRate is the fixed output rate of the synthesis service.
const SampleRate = 24000

// Clip is a decoded audio payload: signed 16-bit PCM, single channel.
type Clip struct {
	SampleRate int
	Samples    []int16
}

// Duration returns the playback length of the clip.
func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// Synthesizer turns an utterance into an audio clip.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*Clip, error)
}

// HTTPSynthesizer calls a remote text-to-speech endpoint that responds with
// base64-encoded s16le mono PCM.
type HTTPSynthesizer struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPSynthesizer creates a synthesizer client for the given endpoint.
func NewHTTPSynthesizer(endpoint, apiKey string) *HTTPSynthesizer {
	return &HTTPSynthesizer{
		endpoint: endpoint,
		apiKey:   apiKey,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type synthRequest struct {
	Text string `json:"text"`
}

type synthResponse struct {
	Audio string `json:"audio"` // base64 s16le PCM
}

// Synthesize posts the utterance and decodes the audio payload.
func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text string) (*Clip, error) {
	body, err := json.Marshal(synthRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("voice: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("voice: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voice: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("voice: unexpected status %d", resp.StatusCode)
	}

	var sr synthResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("voice: decode response: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(sr.Audio)
	if err != nil {
		return nil, fmt.Errorf("voice: decode audio: %w", err)
	}

	return &Clip{
		SampleRate: SampleRate,
		Samples:    DecodePCM16(raw),
	}, nil
}

// DecodePCM16 interprets raw bytes as little-endian signed 16-bit samples.
// A trailing odd byte is dropped.
func DecodePCM16(raw []byte) []int16 {
	n := len(raw) / 2
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		samples[i] = int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
	}
	return samples
}
