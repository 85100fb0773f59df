package host

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/litebridge/internal/bridge"
	bridgeerr "github.com/mrz1836/litebridge/pkg/errors"
)

type fakeBridge struct {
	calls []string
	live  bool
}

func (f *fakeBridge) WalletExists(chain string) bool {
	f.calls = append(f.calls, "exists:"+chain)
	return chain == "main"
}

func (f *fakeBridge) InitializeNew(_ context.Context, serverURI string) bridge.Result {
	f.calls = append(f.calls, "new:"+serverURI)
	f.live = true
	return bridge.OK("seed words")
}

func (f *fakeBridge) InitializeFromPhrase(_ context.Context, serverURI, phrase string, birthday uint64, overwrite bool) bridge.Result {
	f.calls = append(f.calls, "restore:"+serverURI+":"+phrase)
	if !overwrite {
		return bridge.Fail(bridgeerr.ErrWalletExists)
	}
	f.live = birthday > 0
	return bridge.OK("OK")
}

func (f *fakeBridge) InitializeExisting(_ context.Context, serverURI string) bridge.Result {
	f.calls = append(f.calls, "existing:"+serverURI)
	f.live = true
	return bridge.OK("OK")
}

func (f *fakeBridge) Deinitialize() bridge.Result {
	f.calls = append(f.calls, "deinit")
	f.live = false
	return bridge.OK("OK")
}

func (f *fakeBridge) Execute(cmd, args string) bridge.Result {
	f.calls = append(f.calls, "exec:"+cmd+":"+args)
	if !f.live {
		return bridge.Fail(bridgeerr.ErrNotInitialized)
	}
	return bridge.OK(`{"cmd":"` + cmd + `"}`)
}

func (f *fakeBridge) Tasks() []bridge.Task {
	return []bridge.Task{{ID: 1, Command: "sync", State: bridge.TaskCompleted}}
}

func (f *fakeBridge) Task(id uint64) (bridge.Task, bool) {
	if id != 1 {
		return bridge.Task{}, false
	}
	return bridge.Task{ID: 1, Command: "sync", State: bridge.TaskCompleted}, true
}

func (f *fakeBridge) Stats() bridge.Stats {
	return bridge.Stats{Initialized: f.live, PendingTasks: 2}
}

func serve(t *testing.T, b Bridge, input string) []map[string]any {
	t.Helper()
	var out strings.Builder
	require.NoError(t, NewServer(b, nil).Serve(context.Background(), strings.NewReader(input), &out))

	var responses []map[string]any
	scanner := bufio.NewScanner(strings.NewReader(out.String()))
	for scanner.Scan() {
		var resp map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp), scanner.Text())
		responses = append(responses, resp)
	}
	return responses
}

func TestServe_Session(t *testing.T) {
	t.Parallel()
	fb := &fakeBridge{}

	input := strings.Join([]string{
		`{"id":1,"method":"execute","params":{"command":"balance"}}`,
		`{"id":2,"method":"wallet_exists","params":{"chain":"main"}}`,
		`{"id":3,"method":"initialize_new","params":{"server_uri":"lwd:9067"}}`,
		``,
		`{"id":4,"method":"execute","params":{"command":"send","args":"t1abc 10"}}`,
		`{"id":5,"method":"initialize_new_from_phrase","params":{"server_uri":"lwd","phrase":"a b","birthday":7}}`,
		`{"id":6,"method":"deinitialize"}`,
		`{"id":7,"method":"initialize_existing","params":{"server_uri":"lwd"}}`,
	}, "\n")

	responses := serve(t, fb, input)
	require.Len(t, responses, 7)

	assert.Equal(t, "Error: Light Client is not initialized", responses[0]["result"])
	assert.Equal(t, true, responses[1]["result"])
	assert.Equal(t, "seed words", responses[2]["result"])
	assert.Equal(t, `{"cmd":"send"}`, responses[3]["result"])
	assert.Equal(t, "Error: wallet already exists", responses[4]["result"])
	assert.Equal(t, "OK", responses[5]["result"])
	assert.Equal(t, "OK", responses[6]["result"])

	for i, resp := range responses {
		assert.InDelta(t, float64(i+1), resp["id"], 0)
	}
	assert.Equal(t, []string{
		"exec:balance:",
		"exists:main",
		"new:lwd:9067",
		"exec:send:t1abc 10",
		"restore:lwd:a b",
		"deinit",
		"existing:lwd",
	}, fb.calls)
}

func TestServe_TasksAndStats(t *testing.T) {
	t.Parallel()
	responses := serve(t, &fakeBridge{}, strings.Join([]string{
		`{"id":1,"method":"tasks"}`,
		`{"id":2,"method":"tasks","params":{"task_id":1}}`,
		`{"id":3,"method":"tasks","params":{"task_id":9}}`,
		`{"id":4,"method":"stats"}`,
	}, "\n"))
	require.Len(t, responses, 4)

	list, ok := responses[0]["result"].([]any)
	require.True(t, ok)
	assert.Len(t, list, 1)

	task, ok := responses[1]["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "completed", task["state"])

	assert.Equal(t, "Error: unknown task 9", responses[2]["result"])

	stats, ok := responses[3]["result"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 2, stats["pending_tasks"], 0)
}

func TestServe_BadInput(t *testing.T) {
	t.Parallel()
	responses := serve(t, &fakeBridge{}, "not json\n"+`{"id":5,"method":"frobnicate"}`+"\n")
	require.Len(t, responses, 2)

	msg, ok := responses[0]["result"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(msg, "Error: invalid request"), msg)
	assert.Equal(t, "Error: unknown method 'frobnicate'", responses[1]["result"])
}

func TestServe_CanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out strings.Builder
	err := NewServer(&fakeBridge{}, nil).Serve(ctx, strings.NewReader(`{"id":1,"method":"stats"}`+"\n"), &out)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}

type blockingBridge struct {
	*fakeBridge
	entered chan struct{}
	release chan struct{}
}

func (b *blockingBridge) Execute(cmd, args string) bridge.Result {
	close(b.entered)
	<-b.release
	return b.fakeBridge.Execute(cmd, args)
}

func newBlockingBridge() *blockingBridge {
	return &blockingBridge{
		fakeBridge: &fakeBridge{live: true},
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
}

func TestShutdown_WaitsForInFlightRequest(t *testing.T) {
	t.Parallel()
	b := newBlockingBridge()
	s := NewServer(b, nil)

	handled := make(chan Response, 1)
	go func() {
		handled <- s.Handle(context.Background(), &Request{ID: 1, Method: MethodExecute, Params: Params{Command: "send"}})
	}()
	<-b.entered

	shut := make(chan error, 1)
	go func() { shut <- s.Shutdown(context.Background()) }()

	select {
	case <-shut:
		t.Fatal("shutdown returned while a request was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(b.release)
	require.NoError(t, <-shut)
	assert.Equal(t, `{"cmd":"send"}`, (<-handled).Result)

	resp := s.Handle(context.Background(), &Request{ID: 2, Method: MethodExecute, Params: Params{Command: "balance"}})
	assert.Equal(t, bridge.ErrorPrefix+"host is shutting down", resp.Result)
	assert.Equal(t, []string{"exec:send:"}, b.calls)
}

func TestShutdown_Deadline(t *testing.T) {
	t.Parallel()
	b := newBlockingBridge()
	s := NewServer(b, nil)

	go s.Handle(context.Background(), &Request{ID: 1, Method: MethodExecute, Params: Params{Command: "send"}})
	<-b.entered
	defer close(b.release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, s.Shutdown(ctx), context.DeadlineExceeded)
}

func TestShutdown_Idle(t *testing.T) {
	t.Parallel()
	s := NewServer(&fakeBridge{}, nil)
	require.NoError(t, s.Shutdown(context.Background()))
}
