package bridge

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/mrz1836/litebridge/internal/config"
	"github.com/mrz1836/litebridge/internal/metrics"
	bridgeerr "github.com/mrz1836/litebridge/pkg/errors"
)

// birthdayMargin is how far below the chain tip a fresh wallet starts
// scanning, so blocks mined during creation are not missed.
const birthdayMargin = 100

// Lifecycle builds, publishes and tears down wallet sessions.
type Lifecycle struct {
	backend Backend
	store   *Store
	logger  *zap.Logger
	metrics *metrics.Metrics
	nextID  atomic.Uint64
}

// NewLifecycle returns a lifecycle manager publishing into store.
func NewLifecycle(backend Backend, store *Store, logger *zap.Logger, m *metrics.Metrics) *Lifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Lifecycle{backend: backend, store: store, logger: logger, metrics: m}
}

// WalletExists reports whether persisted wallet state exists for chain. It
// does not touch the store. Sessions are always built for the configured
// chain, whatever chain is named here.
func (l *Lifecycle) WalletExists(chain string) bool {
	return l.backend.WalletExists(chain)
}

// InitializeNew creates a fresh wallet starting just below the current chain
// height and returns its seed phrase.
func (l *Lifecycle) InitializeNew(ctx context.Context, serverURI string) Result {
	cfg, height, err := l.loadConfig(ctx, serverURI)
	if err != nil {
		return l.failInit("initialize_new", err)
	}

	client, err := l.backend.NewClient(cfg, birthdayBelow(height))
	if err != nil {
		return l.failInit("initialize_new", bridgeerr.Classify(bridgeerr.ErrConstruction, err))
	}

	seed, err := client.SeedPhrase()
	if err != nil {
		_ = client.Close()
		return l.failInit("initialize_new", bridgeerr.Classify(bridgeerr.ErrCollaborator, err))
	}

	l.publish("initialize_new", client)
	return OK(seed)
}

// InitializeFromPhrase restores a wallet from phrase starting at birthday.
// Whether an existing wallet may be replaced is decided by the backend.
func (l *Lifecycle) InitializeFromPhrase(ctx context.Context, serverURI, phrase string, birthday uint64, overwrite bool) Result {
	cfg, _, err := l.loadConfig(ctx, serverURI)
	if err != nil {
		return l.failInit("initialize_new_from_phrase", err)
	}

	client, err := l.backend.NewClientFromPhrase(cfg, phrase, birthday, overwrite)
	if err != nil {
		return l.failInit("initialize_new_from_phrase", bridgeerr.Classify(bridgeerr.ErrConstruction, err))
	}

	l.publish("initialize_new_from_phrase", client)
	return OK(okValue)
}

// InitializeExisting loads the persisted wallet.
func (l *Lifecycle) InitializeExisting(ctx context.Context, serverURI string) Result {
	cfg, _, err := l.loadConfig(ctx, serverURI)
	if err != nil {
		return l.failInit("initialize_existing", err)
	}

	client, err := l.backend.ReadClient(cfg)
	if err != nil {
		return l.failInit("initialize_existing", bridgeerr.Classify(bridgeerr.ErrConstruction, err))
	}

	l.publish("initialize_existing", client)
	return OK(okValue)
}

// Deinitialize empties the store. It always succeeds.
func (l *Lifecycle) Deinitialize() Result {
	held := l.store.Clear()
	l.metrics.RecordDeinit()
	l.logger.Info("session deinitialized", zap.Bool("was_active", held))
	return OK(okValue)
}

func (l *Lifecycle) loadConfig(ctx context.Context, serverURI string) (Config, uint64, error) {
	uri := config.ConstructServerURI(serverURI)
	cfg, height, err := l.backend.LoadConfig(ctx, uri)
	if err != nil {
		return nil, 0, bridgeerr.Classify(bridgeerr.ErrConfiguration, err)
	}
	l.logger.Debug("configuration loaded", zap.String("server", uri), zap.Uint64("height", height))
	return cfg, height, nil
}

// publish starts the client's monitor and makes it the live session.
func (l *Lifecycle) publish(op string, client Client) {
	client.StartMempoolMonitor()

	id := l.nextID.Add(1)
	l.store.Set(newHandle(id, client, l.logger, l.metrics.RecordSessionClosed))
	l.metrics.RecordInit(nil)
	l.logger.Info("session published", zap.String("op", op), zap.Uint64("session", id))
}

func (l *Lifecycle) failInit(op string, err error) Result {
	l.metrics.RecordInit(err)
	l.logger.Warn("initialization failed",
		zap.String("op", op),
		zap.String("code", bridgeerr.Code(err)),
		zap.Error(err))
	return Fail(err)
}

// birthdayBelow returns height minus the safety margin, floored at zero.
func birthdayBelow(height uint64) uint64 {
	if height < birthdayMargin {
		return 0
	}
	return height - birthdayMargin
}
