// Package session owns the in-memory application state: the active asset
// and timeframe, the sliding price window, manual levels, the latest
// projected target and commentary result. All state that the source held
// as ambient globals lives here behind explicit mutation entry points.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"marketviz/internal/bus"
	"marketviz/internal/emitter"
	"marketviz/internal/feed"
	"marketviz/internal/indicator"
	"marketviz/internal/model"
)

// Analyst is the commentary boundary consumed by RequestAnalysis.
type Analyst interface {
	Analyze(ctx context.Context, symbol string, tf model.Timeframe, bars model.Series) (*model.Analysis, error)
}

// Config holds session construction parameters.
type Config struct {
	Catalog       []model.Asset
	DefaultSymbol string
	DefaultTF     model.Timeframe
	HistoryBars   int // defaults to model.SeriesCapacity
}

// Session is the single owner of all mutable dashboard state. Mutation
// entry points are safe to call from HTTP handlers; the periodic Tick is
// driven exclusively by the control loop in Run.
type Session struct {
	mu        sync.Mutex
	catalog   []model.Asset
	asset     model.Asset
	tf        model.Timeframe
	chartType model.ChartType
	series    model.Series
	levels    []model.PriceLevel
	target    *indicator.Target
	analysis  *model.Analysis

	gen     *feed.Generator
	emitter *emitter.Emitter
	analyst Analyst
	events  chan<- bus.Event

	bars    int
	resetCh chan struct{}

	// Metrics hooks, wired by main.
	OnTick          func(d time.Duration)
	OnSignal        func(sig model.Signal)
	OnAnalysisError func()
}

// New creates a Session seeded with the default asset's series.
// events may be nil when no fan-out is attached (tests).
func New(cfg Config, gen *feed.Generator, em *emitter.Emitter, analyst Analyst, events chan<- bus.Event) (*Session, error) {
	if len(cfg.Catalog) == 0 {
		return nil, fmt.Errorf("session: empty asset catalog")
	}
	if cfg.HistoryBars <= 0 {
		cfg.HistoryBars = model.SeriesCapacity
	}
	tf := cfg.DefaultTF
	if !tf.Valid() {
		tf = model.TF1M
	}

	s := &Session{
		catalog:   cfg.Catalog,
		tf:        tf,
		chartType: model.ChartCandles,
		gen:       gen,
		emitter:   em,
		analyst:   analyst,
		events:    events,
		bars:      cfg.HistoryBars,
		resetCh:   make(chan struct{}, 1),
	}

	asset, ok := s.findAsset(cfg.DefaultSymbol)
	if !ok {
		asset = cfg.Catalog[0]
	}
	s.asset = asset
	s.series = gen.Initialize(asset.BasePrice, s.bars, tf)

	em.OnSignal = func(sig model.Signal) {
		s.publish(bus.Event{Type: bus.EventSignal, Symbol: sig.Symbol, TF: s.Timeframe(), Signal: &sig})
		if s.OnSignal != nil {
			s.OnSignal(sig)
		}
	}
	return s, nil
}

// Tick advances the simulation by one bar: mutate the window, recompute the
// projection, run signal detection, broadcast the update. Called only from
// the control loop — never concurrently with itself.
func (s *Session) Tick() {
	s.mu.Lock()
	if len(s.series) == 0 {
		s.mu.Unlock()
		return
	}
	s.series = s.gen.Tick(s.series, s.tf)
	s.target = indicator.ProjectTarget(s.series)

	symbol := s.asset.Symbol
	tf := s.tf
	snap := s.series.Clone()
	target := s.target
	s.mu.Unlock()

	s.emitter.Observe(symbol, tf, snap)

	s.publish(bus.Event{Type: bus.EventSeries, Symbol: symbol, TF: tf, Series: snap})
	s.publish(bus.Event{Type: bus.EventTarget, Symbol: symbol, TF: tf, Target: target})
}

// SelectAsset switches the active asset and regenerates the series from its
// reference price. The previous timer cycle is cancelled (no overlap).
func (s *Session) SelectAsset(symbol string) error {
	asset, ok := s.findAsset(symbol)
	if !ok {
		return fmt.Errorf("session: unknown asset %q", symbol)
	}

	s.mu.Lock()
	s.asset = asset
	s.series = s.gen.Initialize(asset.BasePrice, s.bars, s.tf)
	s.target = nil
	tf := s.tf
	snap := s.series.Clone()
	s.mu.Unlock()

	s.emitter.Reset()
	s.requestTimerReset()
	s.publish(bus.Event{Type: bus.EventSeries, Symbol: asset.Symbol, TF: tf, Series: snap})
	log.Printf("[session] selected asset %s (%s)", asset.Symbol, asset.Name)
	return nil
}

// SelectTimeframe switches the bar interval and regenerates the series at
// the new spacing.
func (s *Session) SelectTimeframe(tf model.Timeframe) error {
	if !tf.Valid() {
		return fmt.Errorf("session: invalid timeframe %q", tf)
	}

	s.mu.Lock()
	s.tf = tf
	s.series = s.gen.Initialize(s.asset.BasePrice, s.bars, tf)
	s.target = nil
	symbol := s.asset.Symbol
	snap := s.series.Clone()
	s.mu.Unlock()

	s.emitter.Reset()
	s.requestTimerReset()
	s.publish(bus.Event{Type: bus.EventSeries, Symbol: symbol, TF: tf, Series: snap})
	log.Printf("[session] selected timeframe %s (cadence %s)", tf, tf.TickCadence())
	return nil
}

// SetChartType records the requested chart rendering mode.
func (s *Session) SetChartType(ct model.ChartType) error {
	if ct != model.ChartCandles && ct != model.ChartLine {
		return fmt.Errorf("session: invalid chart type %q", ct)
	}
	s.mu.Lock()
	s.chartType = ct
	s.mu.Unlock()
	return nil
}

// AddLevel records a manual horizontal price level.
func (s *Session) AddLevel(price float64, label string) error {
	if price <= 0 {
		return fmt.Errorf("session: level price must be positive")
	}
	s.mu.Lock()
	s.levels = append(s.levels, model.PriceLevel{Price: price, Label: label})
	s.mu.Unlock()
	return nil
}

// ClearLevels removes all manual levels.
func (s *Session) ClearLevels() {
	s.mu.Lock()
	s.levels = nil
	s.mu.Unlock()
}

// RequestAnalysis fires an asynchronous commentary request over the current
// window. The result is applied against whatever context is current when it
// resolves — if the user switches asset or timeframe mid-flight, the stale
// result is still displayed (known limitation, preserved from the source;
// Analysis.Symbol lets consumers detect the mismatch). Ticks are never
// gated on the request.
func (s *Session) RequestAnalysis() error {
	if s.analyst == nil {
		return fmt.Errorf("session: no commentary service configured")
	}

	s.mu.Lock()
	symbol := s.asset.Symbol
	tf := s.tf
	snap := s.series.Clone()
	s.mu.Unlock()

	go func() {
		res, err := s.analyst.Analyze(context.Background(), symbol, tf, snap)
		if err != nil {
			log.Printf("[session] analysis unavailable: %v", err)
			if s.OnAnalysisError != nil {
				s.OnAnalysisError()
			}
			return
		}

		s.mu.Lock()
		s.analysis = res
		curSymbol := s.asset.Symbol
		curTF := s.tf
		s.mu.Unlock()

		if res.Symbol != curSymbol {
			log.Printf("[session] applying analysis for %s while %s is selected (stale result)", res.Symbol, curSymbol)
		}
		s.publish(bus.Event{Type: bus.EventAnalysis, Symbol: res.Symbol, TF: curTF, Analysis: res})
	}()
	return nil
}

// ── snapshot accessors (read-only views for the gateway) ──

// Catalog returns the static asset catalog.
func (s *Session) Catalog() []model.Asset {
	return s.catalog
}

// Asset returns the currently selected asset.
func (s *Session) Asset() model.Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.asset
}

// Timeframe returns the active timeframe.
func (s *Session) Timeframe() model.Timeframe {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tf
}

// ChartType returns the active chart rendering mode.
func (s *Session) ChartType() model.ChartType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chartType
}

// Series returns a snapshot copy of the current window.
func (s *Session) Series() model.Series {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.series.Clone()
}

// Target returns the latest projected price target (nil when unavailable).
func (s *Session) Target() *indicator.Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// Analysis returns the latest applied commentary result (nil before the
// first successful request).
func (s *Session) Analysis() *model.Analysis {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analysis
}

// Levels returns a copy of the manual price levels.
func (s *Session) Levels() []model.PriceLevel {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]model.PriceLevel, len(s.levels))
	copy(cp, s.levels)
	return cp
}

// Signals returns the recent signal list, most recent first.
func (s *Session) Signals() []model.Signal {
	return s.emitter.Recent()
}

func (s *Session) findAsset(symbol string) (model.Asset, bool) {
	for _, a := range s.catalog {
		if a.Symbol == symbol {
			return a, true
		}
	}
	return model.Asset{}, false
}

// requestTimerReset nudges the control loop to re-arm its timer at the
// current timeframe's cadence. Coalesces if a reset is already pending.
func (s *Session) requestTimerReset() {
	select {
	case s.resetCh <- struct{}{}:
	default:
	}
}

// publish sends an event to the fan-out input without ever blocking the
// caller. Drops (with a log line) if the bus input is saturated.
func (s *Session) publish(ev bus.Event) {
	if s.events == nil {
		return
	}
	select {
	case s.events <- ev:
	default:
		log.Printf("[session] event bus full, dropping %s event", ev.Type)
	}
}
