// cmd/marketviz — single-process market-visualization backend.
//
// A synthetic feed walks a small set of currency/crypto pairs, the session
// control loop recomputes indicators and breakout signals every tick, and
// the gateway streams the results to charting clients over WebSocket.
// Commentary and voice synthesis are remote boundaries; Redis mirroring,
// Telegram/webhook alerts and the auto-analysis cron are all optional.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"marketviz/config"
	"marketviz/internal/bus"
	"marketviz/internal/commentary"
	"marketviz/internal/emitter"
	"marketviz/internal/feed"
	"marketviz/internal/gateway"
	"marketviz/internal/metrics"
	"marketviz/internal/model"
	"marketviz/internal/notification"
	"marketviz/internal/session"
	redisstore "marketviz/internal/store/redis"
	"marketviz/internal/voice"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[marketviz] starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[marketviz] config: %v", err)
	}

	catalog, err := config.LoadCatalog(cfg.AssetsFile)
	if err != nil {
		log.Fatalf("[marketviz] catalog: %v", err)
	}
	log.Printf("[marketviz] catalog: %d assets", len(catalog))

	// ---- Metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Graceful shutdown context ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- Event fan-out ----
	events := make(chan bus.Event, 1024)
	fanout := bus.New(256)
	fanout.OnDrop = func(subscriberIdx int) {
		prom.BusDropsTotal.WithLabelValues(strconv.Itoa(subscriberIdx)).Inc()
	}

	hubCh := fanout.Subscribe()

	// ---- Optional Redis mirror ----
	var publisher *redisstore.Publisher
	if cfg.RedisAddr != "" {
		health.SetRedisEnabled(true)
		publisher, err = redisstore.NewPublisher(redisstore.PublisherConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Printf("[marketviz] WARNING: redis mirror disabled: %v", err)
		} else {
			defer publisher.Close()
			publisher.OnPublish = func(d time.Duration) {
				prom.RedisPublishDur.Observe(d.Seconds())
			}
			publisher.Breaker().OnStateChange = func(from, to redisstore.State) {
				log.Printf("[redis] circuit breaker %s -> %s", from, to)
				prom.RedisCircuitBreakerState.Set(float64(to))
				if to == redisstore.StateOpen {
					prom.RedisCircuitBreakerTrips.Inc()
				}
			}
			health.StartLivenessChecker(ctx, publisher.Client(), 10*time.Second)
			go publisher.Run(ctx, fanout.Subscribe())
		}
	}

	// ---- Alert channels ----
	notifiers := []notification.Notifier{notification.NewLogNotifier()}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		notifiers = append(notifiers, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
		log.Println("[marketviz] telegram alerts enabled")
	}
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, notification.NewWebhookNotifier(cfg.WebhookURL))
		log.Println("[marketviz] webhook alerts enabled")
	}
	forwarder := notification.NewForwarder(notifiers...)
	go forwarder.Run(ctx, fanout.Subscribe())

	go fanout.Run(ctx, events)

	// ---- Channel saturation reporter ----
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for i, s := range fanout.ChannelStats() {
					if s.Cap > 0 {
						pct := float64(s.Len) / float64(s.Cap) * 100
						prom.ChannelSaturationPct.WithLabelValues("fanout_" + strconv.Itoa(i)).Set(pct)
					}
				}
			}
		}
	}()

	// ---- Voice boundary ----
	var announcer emitter.Announcer
	if cfg.VoiceURL != "" {
		synth := voice.NewHTTPSynthesizer(cfg.VoiceURL, cfg.VoiceAPIKey)
		speaker := voice.NewSpeaker(synth, nil)
		announcer = &countingAnnouncer{speaker: speaker, prom: prom}
		log.Println("[marketviz] voice callouts enabled")
	}

	// ---- Commentary boundary ----
	var analyst session.Analyst
	if cfg.CommentaryURL != "" {
		analyst = &countingAnalyst{
			inner: commentary.NewClient(cfg.CommentaryURL, cfg.CommentaryAPIKey),
			prom:  prom,
		}
		log.Println("[marketviz] commentary service enabled")
	}

	// ---- Session ----
	em := emitter.New(announcer)
	sess, err := session.New(session.Config{
		Catalog:       catalog,
		DefaultSymbol: cfg.DefaultSymbol,
		DefaultTF:     model.Timeframe(cfg.DefaultTimeframe),
	}, feed.New(), em, analyst, events)
	if err != nil {
		log.Fatalf("[marketviz] session: %v", err)
	}
	sess.OnTick = func(d time.Duration) {
		prom.TicksTotal.Inc()
		prom.TickDur.Observe(d.Seconds())
		health.SetLastTickTime(time.Now())
	}
	sess.OnSignal = func(sig model.Signal) {
		prom.SignalsTotal.WithLabelValues(string(sig.Kind), string(sig.Strength)).Inc()
	}
	sess.OnAnalysisError = func() {
		prom.CommentaryFailures.Inc()
	}
	go sess.Run(ctx)

	// ---- Auto-analysis cron (optional) ----
	if cfg.AutoAnalysisCron != "" && analyst != nil {
		c := cron.New(cron.WithSeconds())
		if _, err := c.AddFunc(cfg.AutoAnalysisCron, func() {
			if err := sess.RequestAnalysis(); err != nil {
				log.Printf("[marketviz] scheduled analysis: %v", err)
			}
		}); err != nil {
			log.Fatalf("[marketviz] invalid AUTO_ANALYSIS_CRON: %v", err)
		}
		c.Start()
		defer c.Stop()
		log.Printf("[marketviz] auto-analysis scheduled: %s", cfg.AutoAnalysisCron)
	}

	// ---- Gateway ----
	hub := gateway.NewHub()
	hub.OnClientCount = func(n int) {
		prom.WSClients.Set(float64(n))
	}
	go hub.Run(ctx, hubCh)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: gateway.NewRouter(sess, hub),
	}
	go func() {
		log.Printf("[marketviz] ✅ listening on %s (WebSocket: ws://localhost%s/ws)", cfg.HTTPAddr, cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[marketviz] server error: %v", err)
		}
	}()

	// ---- Wait for shutdown ----
	<-sigCh
	log.Println("[marketviz] shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
	metricsSrv.Stop(shutdownCtx)
	log.Println("[marketviz] bye")
}

// countingAnnouncer wraps the speaker with forwarded/dropped counters.
type countingAnnouncer struct {
	speaker *voice.Speaker
	prom    *metrics.Metrics
}

func (a *countingAnnouncer) Announce(text string) bool {
	ok := a.speaker.Announce(text)
	if ok {
		a.prom.VoiceRequests.Inc()
	} else {
		a.prom.VoiceDropped.Inc()
	}
	return ok
}

// countingAnalyst wraps the commentary client with a request counter.
type countingAnalyst struct {
	inner session.Analyst
	prom  *metrics.Metrics
}

func (a *countingAnalyst) Analyze(ctx context.Context, symbol string, tf model.Timeframe, bars model.Series) (*model.Analysis, error) {
	a.prom.CommentaryRequests.Inc()
	return a.inner.Analyze(ctx, symbol, tf, bars)
}
