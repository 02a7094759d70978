package gateway

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"marketviz/internal/model"
	"marketviz/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// NewRouter builds the REST + WebSocket router over the session.
func NewRouter(sess *session.Session, hub *Hub) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			log.Printf("[gateway] ws upgrade error: %v", err)
			return
		}
		hub.HandleWS(conn)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "marketviz"})
		})

		r.Get("/assets", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, sess.Catalog())
		})

		r.Get("/state", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, StateResponse{
				Symbol:    sess.Asset().Symbol,
				Timeframe: string(sess.Timeframe()),
				ChartType: string(sess.ChartType()),
				Levels:    sess.Levels(),
			})
		})

		r.Get("/series", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, sess.Series())
		})

		r.Get("/signals", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, sess.Signals())
		})

		r.Get("/target", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, sess.Target())
		})

		r.Get("/analysis", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, sess.Analysis())
		})

		r.Post("/select", func(w http.ResponseWriter, req *http.Request) {
			var sr SelectRequest
			if err := json.NewDecoder(req.Body).Decode(&sr); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON")
				return
			}
			if sr.Symbol != "" {
				if err := sess.SelectAsset(sr.Symbol); err != nil {
					writeError(w, http.StatusBadRequest, err.Error())
					return
				}
			}
			if sr.Timeframe != "" {
				if err := sess.SelectTimeframe(model.Timeframe(sr.Timeframe)); err != nil {
					writeError(w, http.StatusBadRequest, err.Error())
					return
				}
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/chart", func(w http.ResponseWriter, req *http.Request) {
			var cr ChartRequest
			if err := json.NewDecoder(req.Body).Decode(&cr); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON")
				return
			}
			if err := sess.SetChartType(model.ChartType(cr.Type)); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/levels", func(w http.ResponseWriter, req *http.Request) {
			var lr LevelRequest
			if err := json.NewDecoder(req.Body).Decode(&lr); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON")
				return
			}
			if err := sess.AddLevel(lr.Price, lr.Label); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Delete("/levels", func(w http.ResponseWriter, req *http.Request) {
			sess.ClearLevels()
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/analyze", func(w http.ResponseWriter, req *http.Request) {
			if err := sess.RequestAnalysis(); err != nil {
				writeError(w, http.StatusServiceUnavailable, err.Error())
				return
			}
			// Fire-and-forget: the result arrives over the WS stream.
			writeJSON(w, http.StatusAccepted, map[string]string{"status": "requested"})
		})
	})

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
