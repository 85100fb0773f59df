package bridge

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mrz1836/litebridge/internal/metrics"
	bridgeerr "github.com/mrz1836/litebridge/pkg/errors"
)

// fireAndForget lists the commands that run in the background. Their result
// is only visible through the task runner and the collaborator's own status
// commands.
//
//nolint:gochecknoglobals // Fixed command set
var fireAndForget = map[string]bool{
	"sync":   true,
	"rescan": true,
	"import": true,
}

// IsFireAndForget reports whether cmd runs in the background.
func IsFireAndForget(cmd string) bool {
	return fireAndForget[cmd]
}

// Dispatcher routes host commands to the live session.
type Dispatcher struct {
	store   *Store
	runner  *Runner
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewDispatcher returns a dispatcher reading sessions from store and running
// background commands on runner.
func NewDispatcher(store *Store, runner *Runner, logger *zap.Logger, m *metrics.Metrics) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Dispatcher{store: store, runner: runner, logger: logger, metrics: m}
}

// Execute runs cmd against the live session. argsText is passed as a single
// argument, or as none when empty. Background commands return "OK" once
// queued; every other command returns the collaborator's text verbatim.
//
// Queueing never blocks the caller. When DefaultQueueSize tasks are already
// waiting, a background command returns "Error: background task queue is
// full" instead of "OK", and after shutdown it returns "Error: background
// task runner is closed".
func (d *Dispatcher) Execute(cmd, argsText string) Result {
	h, ok := d.store.Get()
	if !ok {
		d.metrics.RecordNotInitialized()
		return Fail(bridgeerr.ErrNotInitialized)
	}

	args := commandArgs(argsText)

	if IsFireAndForget(cmd) {
		return d.submit(h, cmd, args)
	}

	defer h.Release()
	start := time.Now()
	out := h.Client().Execute(cmd, args)
	d.metrics.RecordCommand(time.Since(start), strings.HasPrefix(out, ErrorPrefix))
	return OK(out)
}

// submit hands cmd to the runner. The task owns h until it finishes.
func (d *Dispatcher) submit(h *Handle, cmd string, args []string) Result {
	client := h.Client()
	_, err := d.runner.Submit(cmd, args, func() string {
		defer h.Release()
		return client.Execute(cmd, args)
	})
	if err != nil {
		h.Release()
		return Fail(err)
	}

	d.metrics.RecordFireAndForget()
	d.logger.Debug("background command queued", zap.String("command", cmd), zap.Uint64("session", h.ID()))
	return OK(okValue)
}

// commandArgs never splits argsText; it is one token or nothing.
func commandArgs(argsText string) []string {
	if argsText == "" {
		return nil
	}
	return []string{argsText}
}
