// Package bridge exposes one shared wallet-client session to a host through
// a narrow text interface: lifecycle calls publish a session into a store,
// the dispatcher routes commands to it and long-running commands are handed
// to a bounded background runner.
//
// Every operation returns a Result; only the host layer turns failures into
// "Error: ..." text.
package bridge

import (
	"context"

	"go.uber.org/zap"

	"github.com/mrz1836/litebridge/internal/metrics"
)

// Options configures a Bridge.
type Options struct {
	Backend Backend
	Runner  RunnerOptions
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Bridge wires the store, lifecycle manager, dispatcher and runner together.
type Bridge struct {
	store      *Store
	lifecycle  *Lifecycle
	dispatcher *Dispatcher
	runner     *Runner
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// New builds a bridge with an empty store.
func New(opts Options) *Bridge {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	runnerOpts := opts.Runner
	runnerOpts.Logger = logger.Named("runner")
	runnerOpts.Metrics = m

	store := NewStore()
	runner := NewRunner(runnerOpts)

	return &Bridge{
		store:      store,
		lifecycle:  NewLifecycle(opts.Backend, store, logger.Named("lifecycle"), m),
		dispatcher: NewDispatcher(store, runner, logger.Named("dispatcher"), m),
		runner:     runner,
		metrics:    m,
		logger:     logger,
	}
}

// WalletExists reports whether a wallet exists for chain.
func (b *Bridge) WalletExists(chain string) bool {
	return b.lifecycle.WalletExists(chain)
}

// InitializeNew creates a wallet and returns its seed phrase.
func (b *Bridge) InitializeNew(ctx context.Context, serverURI string) Result {
	return b.lifecycle.InitializeNew(ctx, serverURI)
}

// InitializeFromPhrase restores a wallet from a seed phrase.
func (b *Bridge) InitializeFromPhrase(ctx context.Context, serverURI, phrase string, birthday uint64, overwrite bool) Result {
	return b.lifecycle.InitializeFromPhrase(ctx, serverURI, phrase, birthday, overwrite)
}

// InitializeExisting loads the persisted wallet.
func (b *Bridge) InitializeExisting(ctx context.Context, serverURI string) Result {
	return b.lifecycle.InitializeExisting(ctx, serverURI)
}

// Deinitialize drops the live session.
func (b *Bridge) Deinitialize() Result {
	return b.lifecycle.Deinitialize()
}

// Execute runs a wallet command.
func (b *Bridge) Execute(cmd, args string) Result {
	return b.dispatcher.Execute(cmd, args)
}

// Initialized reports whether a session is live.
func (b *Bridge) Initialized() bool {
	return b.store.Active()
}

// Tasks lists background tasks.
func (b *Bridge) Tasks() []Task {
	return b.runner.Tasks()
}

// Task looks up one background task.
func (b *Bridge) Task(id uint64) (Task, bool) {
	return b.runner.Task(id)
}

// Stats is a snapshot of bridge activity.
type Stats struct {
	Initialized  bool             `json:"initialized"`
	PendingTasks int              `json:"pending_tasks"`
	Metrics      metrics.Snapshot `json:"metrics"`
}

// Stats returns current bridge statistics.
func (b *Bridge) Stats() Stats {
	return Stats{
		Initialized:  b.store.Active(),
		PendingTasks: b.runner.Pending(),
		Metrics:      b.metrics.Snapshot(),
	}
}

// Close drains the background runner, then releases the live session.
func (b *Bridge) Close(ctx context.Context) error {
	err := b.runner.Close(ctx)
	b.store.Clear()
	b.logger.Debug("bridge closed")
	return err
}
