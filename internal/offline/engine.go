package offline

import (
	"context"
	"log/slog"
)

// Engine wires the queue, executor and monitor of one device
type Engine struct {
	Queue    *Queue
	Executor *Executor
	Monitor  *Monitor
}

// NewEngine builds an engine over store that talks to the server through
// dispatcher and prober. Enqueue kicks the monitor so new operations sync
// right away when online.
func NewEngine(store Store, dispatcher Dispatcher, prober Prober, cfg Config, logger *slog.Logger) *Engine {
	queue := NewQueue(store, cfg.MaxRetries, logger)

	var monitor *Monitor
	online := ConnectivityFunc(func() bool { return monitor.Online() })
	executor := NewExecutor(queue, dispatcher, online, RetryPolicy{MaxRetries: cfg.MaxRetries}, cfg.OperationDelay, logger)

	monitor = NewMonitor(prober, executor, queue.Len, MonitorConfig{
		SyncInterval:  cfg.SyncInterval,
		ProbeInterval: cfg.ProbeInterval,
		ProbeTimeout:  cfg.ProbeTimeout,
	}, logger)
	queue.OnEnqueue(monitor.Kick)

	return &Engine{Queue: queue, Executor: executor, Monitor: monitor}
}

// Run keeps the device in sync until ctx is cancelled
func (e *Engine) Run(ctx context.Context) error {
	return e.Monitor.Run(ctx)
}

// SyncOnce probes the server and runs a single pass
func (e *Engine) SyncOnce(ctx context.Context) (SyncReport, error) {
	e.Monitor.Probe(ctx)
	return e.Executor.Sync(ctx)
}
