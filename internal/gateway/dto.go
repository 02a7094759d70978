package gateway

import (
	"encoding/json"
	"net/http"

	"marketviz/internal/bus"
)

// SelectRequest is the body for POST /api/v1/select. Either field may be
// omitted; present fields are applied.
type SelectRequest struct {
	Symbol    string `json:"symbol,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
}

// ChartRequest is the body for POST /api/v1/chart.
type ChartRequest struct {
	Type string `json:"type"`
}

// LevelRequest is the body for POST /api/v1/levels.
type LevelRequest struct {
	Price float64 `json:"price"`
	Label string  `json:"label,omitempty"`
}

// StateResponse is the GET /api/v1/state snapshot.
type StateResponse struct {
	Symbol    string      `json:"symbol"`
	Timeframe string      `json:"timeframe"`
	ChartType string      `json:"chart_type"`
	Levels    interface{} `json:"levels"`
}

// encodePayload serializes the event's payload field. Returns nil for
// events that carry nothing broadcastable.
func encodePayload(ev bus.Event) []byte {
	switch ev.Type {
	case bus.EventSeries:
		raw, _ := json.Marshal(ev.Series)
		return raw
	case bus.EventSignal:
		if ev.Signal == nil {
			return nil
		}
		return ev.Signal.JSON()
	case bus.EventTarget:
		if ev.Target == nil {
			return []byte("null")
		}
		raw, _ := json.Marshal(ev.Target)
		return raw
	case bus.EventAnalysis:
		if ev.Analysis == nil {
			return nil
		}
		raw, _ := json.Marshal(ev.Analysis)
		return raw
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
