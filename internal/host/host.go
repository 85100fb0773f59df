// Package host serves the bridge over a line-delimited JSON protocol, one
// request per line on the input and one response per line on the output.
// Requests are handled strictly in order on the calling goroutine.
package host

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/mrz1836/litebridge/internal/bridge"
)

// maxLineSize bounds a single request line.
const maxLineSize = 1024 * 1024

// Protocol methods.
const (
	MethodWalletExists       = "wallet_exists"
	MethodInitializeNew      = "initialize_new"
	MethodInitializeFromSeed = "initialize_new_from_phrase"
	MethodInitializeExisting = "initialize_existing"
	MethodDeinitialize       = "deinitialize"
	MethodExecute            = "execute"
	MethodTasks              = "tasks"
	MethodStats              = "stats"
)

// Bridge is the surface the host drives.
type Bridge interface {
	WalletExists(chain string) bool
	InitializeNew(ctx context.Context, serverURI string) bridge.Result
	InitializeFromPhrase(ctx context.Context, serverURI, phrase string, birthday uint64, overwrite bool) bridge.Result
	InitializeExisting(ctx context.Context, serverURI string) bridge.Result
	Deinitialize() bridge.Result
	Execute(cmd, args string) bridge.Result
	Tasks() []bridge.Task
	Task(id uint64) (bridge.Task, bool)
	Stats() bridge.Stats
}

// Request is one host call.
type Request struct {
	ID     uint64 `json:"id"`
	Method string `json:"method"`
	Params Params `json:"params"`
}

// Params carries the arguments of every method; each method reads the
// fields it needs.
type Params struct {
	ServerURI string `json:"server_uri,omitempty"`
	Chain     string `json:"chain,omitempty"`
	Phrase    string `json:"phrase,omitempty"`
	Birthday  uint64 `json:"birthday,omitempty"`
	Overwrite bool   `json:"overwrite,omitempty"`
	Command   string `json:"command,omitempty"`
	Args      string `json:"args,omitempty"`
	TaskID    uint64 `json:"task_id,omitempty"`
}

// Response answers the request with the same ID. Result is a string for
// lifecycle and execute calls, a bool for wallet_exists and an object for
// tasks and stats.
type Response struct {
	ID     uint64 `json:"id"`
	Result any    `json:"result"`
}

// Server dispatches requests to a Bridge.
type Server struct {
	bridge Bridge
	logger *zap.Logger

	mu sync.Mutex // serializes writes

	stateMu  sync.Mutex
	closing  bool
	inflight sync.WaitGroup
}

// NewServer returns a server driving b.
func NewServer(b Bridge, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{bridge: b, logger: logger}
}

// Serve reads requests from r until EOF or ctx ends, writing each response
// to w before reading the next request.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	enc := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		var resp Response
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("malformed request", zap.Error(err))
			resp = Response{Result: bridge.ErrorPrefix + "invalid request: " + err.Error()}
		} else {
			resp = s.Handle(ctx, &req)
		}

		if err := s.write(enc, &resp); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading requests: %w", err)
	}
	return nil
}

func (s *Server) write(enc *json.Encoder, resp *Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("writing response %d: %w", resp.ID, err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for the ones already inside
// Handle to return, or for ctx to end. The bridge must not be closed while
// a request is still running against it.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stateMu.Lock()
	s.closing = true
	s.stateMu.Unlock()

	idle := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(idle)
	}()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for in-flight requests: %w", ctx.Err())
	}
}

func (s *Server) begin() bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.closing {
		return false
	}
	s.inflight.Add(1)
	return true
}

// Handle runs one request. After Shutdown it answers with an error
// without touching the bridge.
func (s *Server) Handle(ctx context.Context, req *Request) Response {
	s.logger.Debug("request", zap.Uint64("id", req.ID), zap.String("method", req.Method))

	resp := Response{ID: req.ID}
	if !s.begin() {
		resp.Result = bridge.ErrorPrefix + "host is shutting down"
		return resp
	}
	defer s.inflight.Done()
	p := req.Params

	switch req.Method {
	case MethodWalletExists:
		resp.Result = s.bridge.WalletExists(p.Chain)
	case MethodInitializeNew:
		resp.Result = s.bridge.InitializeNew(ctx, p.ServerURI).String()
	case MethodInitializeFromSeed:
		resp.Result = s.bridge.InitializeFromPhrase(ctx, p.ServerURI, p.Phrase, p.Birthday, p.Overwrite).String()
	case MethodInitializeExisting:
		resp.Result = s.bridge.InitializeExisting(ctx, p.ServerURI).String()
	case MethodDeinitialize:
		resp.Result = s.bridge.Deinitialize().String()
	case MethodExecute:
		resp.Result = s.bridge.Execute(p.Command, p.Args).String()
	case MethodTasks:
		resp.Result = s.tasks(p.TaskID)
	case MethodStats:
		resp.Result = s.bridge.Stats()
	default:
		resp.Result = fmt.Sprintf("%sunknown method '%s'", bridge.ErrorPrefix, req.Method)
	}
	return resp
}

func (s *Server) tasks(id uint64) any {
	if id == 0 {
		return s.bridge.Tasks()
	}
	task, ok := s.bridge.Task(id)
	if !ok {
		return fmt.Sprintf("%sunknown task %d", bridge.ErrorPrefix, id)
	}
	return task
}
