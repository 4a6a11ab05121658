// Package server provides the long-running HTTP API over loaded usage data.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/theirongolddev/copilotpulse/internal/logger"
	"github.com/theirongolddev/copilotpulse/internal/model"
	"github.com/theirongolddev/copilotpulse/internal/pipeline"
	"github.com/theirongolddev/copilotpulse/internal/state"
)

// LoadFunc loads every input and returns one source per file.
type LoadFunc func(ctx context.Context) ([]state.Source, error)

// Config controls the server runtime behavior.
type Config struct {
	Addr         string
	Inputs       []string // watched when Watch is set
	Load         LoadFunc
	Interval     time.Duration // 0 disables polling reloads
	Watch        bool
	EventsBuffer int
	Logger       *logger.Logger
}

// Snapshot is a compact dataset summary for status and event payloads.
type Snapshot struct {
	At             time.Time `json:"at"`
	Records        int       `json:"records"`
	Users          int       `json:"users"`
	Days           int       `json:"days"`
	Generations    int64     `json:"generations"`
	Acceptances    int64     `json:"acceptances"`
	AcceptanceRate float64   `json:"acceptance_rate"`
}

// Delta captures snapshot deltas between reloads.
type Delta struct {
	Records     int   `json:"records"`
	Users       int   `json:"users"`
	Generations int64 `json:"generations"`
	Acceptances int64 `json:"acceptances"`
}

func (d Delta) isZero() bool {
	return d.Records == 0 && d.Users == 0 && d.Generations == 0 && d.Acceptances == 0
}

// Event is emitted whenever a reload changes the dataset.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastReloadAt    time.Time `json:"last_reload_at"`
	ReloadCount     int64     `json:"reload_count"`
	Sources         int       `json:"sources"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service owns the state store and serves views of it.
type Service struct {
	cfg     Config
	log     *logger.Logger
	store   *state.Store
	metrics *Metrics

	reloadMu sync.Mutex // one reload at a time

	mu           sync.RWMutex
	startedAt    time.Time
	lastReloadAt time.Time
	reloadCount  int64
	lastError    string
	hasSnapshot  bool
	snapshot     Snapshot
	nextEventID  int64
	events       []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new service with the provided config.
func New(cfg Config) *Service {
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}

	return &Service{
		cfg:       cfg,
		log:       logger.OrNop(cfg.Logger),
		store:     state.NewStore(state.State{}),
		metrics:   NewMetrics(),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Store exposes the underlying state store.
func (s *Service) Store() *state.Store { return s.store }

// Run serves HTTP, and reloads on the poll interval or on file changes,
// until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed the dataset so views are useful immediately.
	_ = s.Reload(ctx)

	var tick <-chan time.Time
	if s.cfg.Interval > 0 {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var changed <-chan struct{}
	if s.cfg.Watch {
		w, err := NewWatcher(s.cfg.Inputs, s.log)
		if err != nil {
			s.log.Warn("file watching disabled", "error", err)
		} else {
			defer func() { _ = w.Close() }()
			changed = w.Changes(ctx)
		}
	}

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-tick:
			_ = s.Reload(ctx)
		case <-changed:
			s.log.Info("inputs changed, reloading")
			_ = s.Reload(ctx)
		case err := <-errCh:
			return fmt.Errorf("http server: %w", err)
		}
	}
}

// Reload re-reads every input and replaces the loaded sources.
func (s *Service) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()
	if s.cfg.Load == nil {
		return errors.New("server: no loader configured")
	}

	sources, err := s.cfg.Load(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastReloadAt = time.Now()
		s.reloadCount++
		s.mu.Unlock()
		s.metrics.observeReload(false, time.Since(start))
		s.log.Error("reload failed", "error", err)
		return err
	}

	st := s.store.Dispatch(state.Load{Sources: sources})
	now := time.Now()
	snap := snapshotFrom(st.Dataset, now)
	s.metrics.observeReload(true, time.Since(start))
	s.metrics.setDataset(snap)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastReloadAt = now
	s.reloadCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: "snapshot", Timestamp: now, Snapshot: snap}
		publish = true
	} else if delta := diffSnapshots(prev, snap); !delta.isZero() {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: "dataset_delta", Timestamp: now, Snapshot: snap, Delta: delta}
		publish = true
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
	s.log.Info("reloaded", "sources", len(sources), "records", snap.Records, "took", time.Since(start))
	return nil
}

func snapshotFrom(ds model.Dataset, at time.Time) Snapshot {
	sum := pipeline.Summarize(ds)
	stats := pipeline.Stats(ds)
	return Snapshot{
		At:             at,
		Records:        stats.TotalRecords,
		Users:          stats.UniqueUsers,
		Days:           stats.UniqueDates,
		Generations:    sum.Generations,
		Acceptances:    sum.Acceptances,
		AcceptanceRate: sum.AcceptanceRate,
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Records:     curr.Records - prev.Records,
		Users:       curr.Users - prev.Users,
		Generations: curr.Generations - prev.Generations,
		Acceptances: curr.Acceptances - prev.Acceptances,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	sources := len(s.store.Snapshot().Sources)

	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastReloadAt:    s.lastReloadAt,
		ReloadCount:     s.reloadCount,
		Sources:         sources,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
