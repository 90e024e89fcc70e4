package offline

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const (
	DefaultSyncInterval  = 30 * time.Second
	DefaultProbeInterval = 10 * time.Second
)

// Prober checks whether the server can be reached
type Prober interface {
	Probe(ctx context.Context) error
}

// Syncer runs a sync pass
type Syncer interface {
	Sync(ctx context.Context) (SyncReport, error)
}

// Monitor tracks reachability and decides when to sync: on reconnect, on
// every Kick, and on a fixed interval while the queue is not empty
type Monitor struct {
	prober        Prober
	syncer        Syncer
	pending       func(ctx context.Context) (int, error)
	syncInterval  time.Duration
	probeInterval time.Duration
	probeTimeout  time.Duration
	logger        *slog.Logger

	online atomic.Bool
	kick   chan struct{}
}

// MonitorConfig holds the monitor's timing
type MonitorConfig struct {
	SyncInterval  time.Duration
	ProbeInterval time.Duration
	ProbeTimeout  time.Duration
}

// NewMonitor creates a monitor. pending reports the queue length.
func NewMonitor(prober Prober, syncer Syncer, pending func(ctx context.Context) (int, error), cfg MonitorConfig, logger *slog.Logger) *Monitor {
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = DefaultSyncInterval
	}
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = DefaultProbeInterval
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	return &Monitor{
		prober:        prober,
		syncer:        syncer,
		pending:       pending,
		syncInterval:  cfg.SyncInterval,
		probeInterval: cfg.ProbeInterval,
		probeTimeout:  cfg.ProbeTimeout,
		logger:        logger.With(slog.String("component", "monitor")),
		kick:          make(chan struct{}, 1),
	}
}

// Online reports the last observed reachability
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// Kick asks for a sync as soon as possible. Kicks that arrive while one is
// already pending are merged.
func (m *Monitor) Kick() {
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

// Probe checks reachability now and records the result. It returns true
// when the server just became reachable.
func (m *Monitor) Probe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	err := m.prober.Probe(probeCtx)
	now := err == nil
	was := m.online.Swap(now)

	switch {
	case now && !was:
		m.logger.InfoContext(ctx, "server reachable")
		return true
	case !now && was:
		m.logger.WarnContext(ctx, "server unreachable", slog.String("error", err.Error()))
	case !now:
		m.logger.DebugContext(ctx, "server still unreachable", slog.String("error", err.Error()))
	}
	return false
}

// Run drives syncing until ctx is cancelled. Passes run on the calling
// goroutine, so at most one is in flight.
func (m *Monitor) Run(ctx context.Context) error {
	probeTicker := time.NewTicker(m.probeInterval)
	defer probeTicker.Stop()
	syncTicker := time.NewTicker(m.syncInterval)
	defer syncTicker.Stop()

	if m.Probe(ctx) {
		m.sync(ctx, "reconnected")
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-probeTicker.C:
			if m.Probe(ctx) {
				m.sync(ctx, "reconnected")
			}

		case <-syncTicker.C:
			if !m.Online() {
				continue
			}
			n, err := m.pending(ctx)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to read queue length", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				m.sync(ctx, "interval")
			}

		case <-m.kick:
			if m.Online() {
				m.sync(ctx, "enqueued")
			}
		}
	}
}

func (m *Monitor) sync(ctx context.Context, trigger string) {
	report, err := m.syncer.Sync(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "sync pass failed",
			slog.String("trigger", trigger),
			slog.String("error", err.Error()))
		return
	}
	if report.Skipped != SkipNone {
		m.logger.DebugContext(ctx, "sync pass skipped",
			slog.String("trigger", trigger),
			slog.String("reason", string(report.Skipped)))
		return
	}
	m.logger.InfoContext(ctx, "sync pass complete",
		slog.String("trigger", trigger),
		slog.String("summary", report.String()))
}
