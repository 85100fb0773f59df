package bridge

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mrz1836/litebridge/internal/metrics"
	bridgeerr "github.com/mrz1836/litebridge/pkg/errors"
)

// Runner defaults.
const (
	DefaultWorkers   = 4
	DefaultQueueSize = 1024
	DefaultHistory   = 100
)

// TaskState is the lifecycle stage of a background task.
type TaskState string

// Task states.
const (
	TaskQueued    TaskState = "queued"
	TaskRunning   TaskState = "running"
	TaskCompleted TaskState = "completed"
	TaskFailed    TaskState = "failed"
)

// Task describes a background command. Finished tasks keep their result.
type Task struct {
	ID        uint64    `json:"id"`
	Command   string    `json:"command"`
	Args      []string  `json:"args,omitempty"`
	State     TaskState `json:"state"`
	Result    string    `json:"result,omitempty"`
	Submitted time.Time `json:"submitted"`
	Started   time.Time `json:"started,omitzero"`
	Finished  time.Time `json:"finished,omitzero"`
}

// RunnerOptions configures a Runner. Zero values select defaults.
type RunnerOptions struct {
	Workers   int
	QueueSize int
	History   int
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
}

type job struct {
	task *Task
	run  func() string
}

// Runner executes background commands on a bounded worker pool and tracks
// them until they age out of the finished-task history.
type Runner struct {
	queue   chan job
	wg      sync.WaitGroup
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	closed   bool
	nextID   uint64
	active   map[uint64]*Task
	history  []Task
	capacity int
}

// NewRunner starts the worker pool.
func NewRunner(opts RunnerOptions) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.History <= 0 {
		opts.History = DefaultHistory
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	r := &Runner{
		queue:    make(chan job, opts.QueueSize),
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		active:   make(map[uint64]*Task),
		capacity: opts.History,
	}

	for i := 0; i < opts.Workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	return r
}

// Submit queues run under command's name without waiting for it. It fails
// with ErrQueueFull when every queue slot is taken and with ErrRunnerClosed
// after Close.
func (r *Runner) Submit(command string, args []string, run func() string) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		r.metrics.RecordTaskRejected()
		return 0, bridgeerr.ErrRunnerClosed
	}

	r.nextID++
	task := &Task{
		ID:        r.nextID,
		Command:   command,
		Args:      args,
		State:     TaskQueued,
		Submitted: time.Now(),
	}

	select {
	case r.queue <- job{task: task, run: run}:
	default:
		r.metrics.RecordTaskRejected()
		r.logger.Warn("background queue full", zap.String("command", command))
		return 0, bridgeerr.ErrQueueFull
	}

	r.active[task.ID] = task
	r.metrics.RecordTaskSubmitted()
	r.logger.Debug("task queued", zap.Uint64("task", task.ID), zap.String("command", command))
	return task.ID, nil
}

func (r *Runner) worker() {
	defer r.wg.Done()
	for j := range r.queue {
		r.execute(j)
	}
}

func (r *Runner) execute(j job) {
	r.mu.Lock()
	j.task.State = TaskRunning
	j.task.Started = time.Now()
	r.mu.Unlock()

	result := safeRun(j.run)
	failed := strings.HasPrefix(result, ErrorPrefix)

	r.mu.Lock()
	j.task.Result = result
	j.task.Finished = time.Now()
	j.task.State = TaskCompleted
	if failed {
		j.task.State = TaskFailed
	}
	delete(r.active, j.task.ID)
	r.history = append(r.history, *j.task)
	if len(r.history) > r.capacity {
		r.history = r.history[len(r.history)-r.capacity:]
	}
	r.mu.Unlock()

	r.metrics.RecordTaskFinished(failed)
	r.logger.Debug("task finished",
		zap.Uint64("task", j.task.ID),
		zap.String("command", j.task.Command),
		zap.Bool("failed", failed),
		zap.Duration("elapsed", j.task.Finished.Sub(j.task.Started)))
}

// safeRun keeps a panicking command from taking down a worker.
func safeRun(run func() string) (result string) {
	defer func() {
		if p := recover(); p != nil {
			result = fmt.Sprintf("%spanic: %v", ErrorPrefix, p)
		}
	}()
	return run()
}

// Task returns the task with id if it is active or still in history.
func (r *Runner) Task(id uint64) (Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.active[id]; ok {
		return *t, true
	}
	for i := len(r.history) - 1; i >= 0; i-- {
		if r.history[i].ID == id {
			return r.history[i], true
		}
	}
	return Task{}, false
}

// Tasks returns active and remembered tasks ordered by ID.
func (r *Runner) Tasks() []Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Task, 0, len(r.active)+len(r.history))
	out = append(out, r.history...)
	for _, t := range r.active {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Pending returns the number of queued and running tasks.
func (r *Runner) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// Close stops accepting tasks and waits for queued ones to finish or for ctx
// to end.
func (r *Runner) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for background tasks: %w", ctx.Err())
	}
}
