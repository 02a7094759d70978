package voice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDecodePCM16(t *testing.T) {
	// Little-endian: 0x0201 = 513, 0xFFFF = -1.
	raw := []byte{0x01, 0x02, 0xFF, 0xFF}
	samples := DecodePCM16(raw)
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[0] != 513 {
		t.Errorf("sample 0: expected 513, got %d", samples[0])
	}
	if samples[1] != -1 {
		t.Errorf("sample 1: expected -1, got %d", samples[1])
	}
}

func TestDecodePCM16_OddTrailingByteDropped(t *testing.T) {
	samples := DecodePCM16([]byte{0x01, 0x00, 0x7F})
	if len(samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(samples))
	}
}

func TestClipDuration(t *testing.T) {
	c := &Clip{SampleRate: SampleRate, Samples: make([]int16, SampleRate*2)}
	if d := c.Duration(); d != 2*time.Second {
		t.Errorf("expected 2s, got %s", d)
	}
	empty := &Clip{}
	if d := empty.Duration(); d != 0 {
		t.Errorf("expected 0 for zero sample rate, got %s", d)
	}
}

func TestHTTPSynthesizer(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	var gotAuth, gotText string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req struct {
			Text string `json:"text"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		gotText = req.Text
		json.NewEncoder(w).Encode(map[string]string{
			"audio": base64.StdEncoding.EncodeToString(pcm),
		})
	}))
	defer srv.Close()

	s := NewHTTPSynthesizer(srv.URL, "secret")
	clip, err := s.Synthesize(context.Background(), "EUR/USD STRONG breakout to the upside at 1.09200")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotText == "" {
		t.Error("utterance not forwarded")
	}
	if len(clip.Samples) != 2 || clip.SampleRate != SampleRate {
		t.Errorf("unexpected clip: %d samples at %d Hz", len(clip.Samples), clip.SampleRate)
	}
}

func TestHTTPSynthesizer_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewHTTPSynthesizer(srv.URL, "")
	if _, err := s.Synthesize(context.Background(), "test"); err == nil {
		t.Fatal("expected error on 503")
	}
}

// blockingSynth parks in Synthesize until released.
type blockingSynth struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingSynth) Synthesize(ctx context.Context, text string) (*Clip, error) {
	close(b.started)
	<-b.release
	return &Clip{SampleRate: SampleRate}, nil
}

func TestSpeaker_SingleSlot(t *testing.T) {
	synth := &blockingSynth{started: make(chan struct{}), release: make(chan struct{})}
	sp := NewSpeaker(synth, nil)

	if !sp.Announce("first") {
		t.Fatal("first announcement should be accepted")
	}
	<-synth.started

	if sp.Announce("second") {
		t.Fatal("second announcement should be dropped while busy")
	}
	if !sp.Busy() {
		t.Fatal("speaker should report busy")
	}

	close(synth.release)

	deadline := time.After(2 * time.Second)
	for sp.Busy() {
		select {
		case <-deadline:
			t.Fatal("speaker never released the slot")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSpeaker_NilSynth(t *testing.T) {
	sp := NewSpeaker(nil, nil)
	if sp.Announce("test") {
		t.Fatal("expected rejection with no synthesizer")
	}
}
