package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"marketviz/internal/bus"
	"marketviz/internal/model"
)

func sampleSignal() model.Signal {
	return model.Signal{
		ID:       "sig-1",
		Symbol:   "EUR/USD",
		Kind:     model.BreakoutUp,
		Strength: model.StrengthModerate,
		Price:    1.0920,
		TS:       time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC),
		Detail:   "EUR/USD close 1.09200 broke above 1.09000 on 1.8x volume (1M)",
	}
}

func TestFromSignal(t *testing.T) {
	sig := sampleSignal()

	alert := FromSignal(sig, model.TF1M)
	if alert.Level != AlertInfo {
		t.Errorf("expected INFO for MODERATE, got %s", alert.Level)
	}
	if alert.Symbol != "EUR/USD" || alert.Kind != model.BreakoutUp || alert.Strength != model.StrengthModerate {
		t.Errorf("signal fields not carried: %+v", alert)
	}
	if alert.Price != 1.0920 || alert.TF != model.TF1M || alert.TS != sig.TS {
		t.Errorf("price/tf/ts not carried: %+v", alert)
	}
	if alert.Detail != sig.Detail {
		t.Errorf("detail not carried: %q", alert.Detail)
	}
	if alert.Arrow() != "▲" {
		t.Errorf("expected up arrow, got %q", alert.Arrow())
	}

	sig.Strength = model.StrengthStrong
	sig.Kind = model.BreakoutDown
	alert = FromSignal(sig, model.TF5M)
	if alert.Level != AlertWarning {
		t.Errorf("expected WARNING for STRONG, got %s", alert.Level)
	}
	if alert.Arrow() != "▼" {
		t.Errorf("expected down arrow, got %q", alert.Arrow())
	}
}

func TestFormatTelegram(t *testing.T) {
	alert := FromSignal(sampleSignal(), model.TF1M)
	alert.Level = AlertWarning
	text := formatTelegram(alert)

	for _, want := range []string{
		"⚠️",
		"▲ *EUR/USD*",
		`BREAKOUT\_UP`,            // underscore escaped for MarkdownV2
		`MODERATE breakout at 1\.09200 on the 1M chart`,
		`1\.8x volume`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered message missing %q:\n%s", want, text)
		}
	}
}

func TestWebhookNotifier_PostsTypedAlert(t *testing.T) {
	var got Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	alert := FromSignal(sampleSignal(), model.TF1M)
	if err := n.Send(context.Background(), alert); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if got.Symbol != "EUR/USD" || got.Kind != model.BreakoutUp || got.Strength != model.StrengthModerate {
		t.Errorf("typed fields not delivered: %+v", got)
	}
	if got.Price != 1.0920 || got.TF != model.TF1M || got.Level != AlertInfo {
		t.Errorf("price/tf/level not delivered: %+v", got)
	}
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rejected", http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	if err := n.Send(context.Background(), Alert{Symbol: "EUR/USD"}); err == nil {
		t.Fatal("expected error on 502")
	}
}

type captureNotifier struct {
	alerts chan Alert
}

func (c *captureNotifier) Send(ctx context.Context, alert Alert) error {
	c.alerts <- alert
	return nil
}

func TestForwarder_ForwardsOnlySignalEvents(t *testing.T) {
	capture := &captureNotifier{alerts: make(chan Alert, 4)}
	f := NewForwarder(capture)

	events := make(chan bus.Event, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.Run(ctx, events)

	sig := sampleSignal()
	sig.Strength = model.StrengthStrong
	events <- bus.Event{Type: bus.EventSeries, Symbol: "EUR/USD"}
	events <- bus.Event{Type: bus.EventSignal, Symbol: "EUR/USD", TF: model.TF1M, Signal: &sig}

	select {
	case alert := <-capture.alerts:
		if alert.Level != AlertWarning || alert.TF != model.TF1M {
			t.Errorf("unexpected alert: %+v", alert)
		}
	case <-time.After(time.Second):
		t.Fatal("signal event never forwarded")
	}

	select {
	case alert := <-capture.alerts:
		t.Fatalf("non-signal event forwarded: %+v", alert)
	case <-time.After(50 * time.Millisecond):
	}
}
