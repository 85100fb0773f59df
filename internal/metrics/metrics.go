// Package metrics collects bridge counters with atomics. A Metrics value is
// shared by the lifecycle manager, the dispatcher and the task runner and is
// reported through the host's stats method.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics holds bridge counters. The zero value is ready to use.
type Metrics struct {
	// Command metrics
	commandsTotal  atomic.Int64
	commandErrors  atomic.Int64
	commandLatency atomic.Int64
	notInitialized atomic.Int64
	fireAndForget  atomic.Int64

	// Lifecycle metrics
	initsTotal     atomic.Int64
	initErrors     atomic.Int64
	deinits        atomic.Int64
	sessionsClosed atomic.Int64

	// Background task metrics
	tasksSubmitted atomic.Int64
	tasksRejected  atomic.Int64
	tasksCompleted atomic.Int64
	tasksFailed    atomic.Int64
}

// New returns an empty Metrics.
func New() *Metrics {
	return &Metrics{}
}

// RecordCommand records a synchronous command with its duration.
func (m *Metrics) RecordCommand(duration time.Duration, failed bool) {
	m.commandsTotal.Add(1)
	m.commandLatency.Add(duration.Nanoseconds())
	if failed {
		m.commandErrors.Add(1)
	}
}

// RecordNotInitialized records a command that found no live session.
func (m *Metrics) RecordNotInitialized() {
	m.notInitialized.Add(1)
}

// RecordFireAndForget records a command handed to the task runner.
func (m *Metrics) RecordFireAndForget() {
	m.fireAndForget.Add(1)
}

// RecordInit records an initialize call.
func (m *Metrics) RecordInit(err error) {
	m.initsTotal.Add(1)
	if err != nil {
		m.initErrors.Add(1)
	}
}

// RecordDeinit records a deinitialize call.
func (m *Metrics) RecordDeinit() {
	m.deinits.Add(1)
}

// RecordSessionClosed records a client closed by its last handle release.
func (m *Metrics) RecordSessionClosed() {
	m.sessionsClosed.Add(1)
}

// RecordTaskSubmitted records a task accepted by the runner.
func (m *Metrics) RecordTaskSubmitted() {
	m.tasksSubmitted.Add(1)
}

// RecordTaskRejected records a task refused because the queue was full or
// the runner was closed.
func (m *Metrics) RecordTaskRejected() {
	m.tasksRejected.Add(1)
}

// RecordTaskFinished records a finished task.
func (m *Metrics) RecordTaskFinished(failed bool) {
	if failed {
		m.tasksFailed.Add(1)
		return
	}
	m.tasksCompleted.Add(1)
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	CommandsTotal       int64   `json:"commands_total"`
	CommandErrors       int64   `json:"command_errors"`
	CommandLatencyAvgMs float64 `json:"command_latency_avg_ms"`
	NotInitialized      int64   `json:"not_initialized"`
	FireAndForget       int64   `json:"fire_and_forget"`
	InitsTotal          int64   `json:"inits_total"`
	InitErrors          int64   `json:"init_errors"`
	Deinits             int64   `json:"deinits"`
	SessionsClosed      int64   `json:"sessions_closed"`
	TasksSubmitted      int64   `json:"tasks_submitted"`
	TasksRejected       int64   `json:"tasks_rejected"`
	TasksCompleted      int64   `json:"tasks_completed"`
	TasksFailed         int64   `json:"tasks_failed"`
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		CommandsTotal:       m.commandsTotal.Load(),
		CommandErrors:       m.commandErrors.Load(),
		CommandLatencyAvgMs: m.CommandLatencyAvgMs(),
		NotInitialized:      m.notInitialized.Load(),
		FireAndForget:       m.fireAndForget.Load(),
		InitsTotal:          m.initsTotal.Load(),
		InitErrors:          m.initErrors.Load(),
		Deinits:             m.deinits.Load(),
		SessionsClosed:      m.sessionsClosed.Load(),
		TasksSubmitted:      m.tasksSubmitted.Load(),
		TasksRejected:       m.tasksRejected.Load(),
		TasksCompleted:      m.tasksCompleted.Load(),
		TasksFailed:         m.tasksFailed.Load(),
	}
}

// CommandLatencyAvgMs returns the average synchronous command latency in
// milliseconds. Returns 0 if no commands have run.
func (m *Metrics) CommandLatencyAvgMs() float64 {
	calls := m.commandsTotal.Load()
	if calls == 0 {
		return 0
	}
	return float64(m.commandLatency.Load()) / float64(calls) / 1e6
}

// Reset resets all metrics to zero.
func (m *Metrics) Reset() {
	for _, c := range []*atomic.Int64{
		&m.commandsTotal, &m.commandErrors, &m.commandLatency, &m.notInitialized, &m.fireAndForget,
		&m.initsTotal, &m.initErrors, &m.deinits, &m.sessionsClosed,
		&m.tasksSubmitted, &m.tasksRejected, &m.tasksCompleted, &m.tasksFailed,
	} {
		c.Store(0)
	}
}
