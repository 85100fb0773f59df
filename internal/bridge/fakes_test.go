package bridge

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
)

var (
	errUnreachable = errors.New("connection refused")
	errCorrupt     = errors.New("wallet file is corrupt")
)

type fakeConfig struct {
	serverURI string
}

func (f *fakeConfig) WalletPath() string {
	return "/fake/" + f.serverURI
}

type fakeClient struct {
	seed    string
	seedErr error

	// gate, when set, holds every Execute until it is closed.
	gate chan struct{}

	mu       sync.Mutex
	commands []string
	args     [][]string

	monitorStarts atomic.Int32
	closes        atomic.Int32
	executing     atomic.Int32
}

func newFakeClient(seed string) *fakeClient {
	return &fakeClient{seed: seed}
}

func (f *fakeClient) Execute(cmd string, args []string) string {
	f.executing.Add(1)
	defer f.executing.Add(-1)

	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	f.args = append(f.args, args)
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if cmd == "fail" {
		return "Error: command failed"
	}
	return cmd + "(" + strings.Join(args, "|") + ")"
}

func (f *fakeClient) SeedPhrase() (string, error) {
	return f.seed, f.seedErr
}

func (f *fakeClient) StartMempoolMonitor() {
	f.monitorStarts.Add(1)
}

func (f *fakeClient) Close() error {
	f.closes.Add(1)
	return nil
}

func (f *fakeClient) closed() bool {
	return f.closes.Load() > 0
}

func (f *fakeClient) seen() ([]string, [][]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...), append([][]string(nil), f.args...)
}

type fakeBackend struct {
	mu sync.Mutex

	existing map[string]bool
	height   uint64
	loadErr  error
	buildErr error
	next     *fakeClient

	serverURIs []string
	birthdays  []uint64
	phrases    []string
	overwrites []bool
	reads      int
}

func newFakeBackend(height uint64) *fakeBackend {
	return &fakeBackend{existing: map[string]bool{}, height: height}
}

func (f *fakeBackend) WalletExists(chain string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.existing[chain]
}

func (f *fakeBackend) LoadConfig(_ context.Context, serverURI string) (Config, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.serverURIs = append(f.serverURIs, serverURI)
	if f.loadErr != nil {
		return nil, 0, f.loadErr
	}
	return &fakeConfig{serverURI: serverURI}, f.height, nil
}

func (f *fakeBackend) client() (Client, error) {
	if f.buildErr != nil {
		return nil, f.buildErr
	}
	c := f.next
	if c == nil {
		c = newFakeClient("word word word")
	}
	f.next = nil
	return c, nil
}

func (f *fakeBackend) NewClient(_ Config, birthday uint64) (Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.birthdays = append(f.birthdays, birthday)
	return f.client()
}

func (f *fakeBackend) NewClientFromPhrase(_ Config, phrase string, birthday uint64, overwrite bool) (Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.phrases = append(f.phrases, phrase)
	f.birthdays = append(f.birthdays, birthday)
	f.overwrites = append(f.overwrites, overwrite)
	return f.client()
}

func (f *fakeBackend) ReadClient(_ Config) (Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	return f.client()
}

func (f *fakeBackend) setNext(c *fakeClient) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next = c
}
