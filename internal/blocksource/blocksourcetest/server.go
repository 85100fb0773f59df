// Package blocksourcetest provides an in-memory block server for tests.
package blocksourcetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/mrz1836/litebridge/internal/blocksource"
)

// Server is an httptest-backed block server holding a mutable chain.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	tip       uint64
	blocks    map[uint64]blocksource.Block
	mempool   []blocksource.Transaction
	broadcast []blocksource.Transaction
	delay     time.Duration
	failures  map[string]int
	nextTxID  int
}

// NewServer starts a server whose chain tip is at height tip.
func NewServer(tip uint64) *Server {
	s := &Server{
		tip:      tip,
		blocks:   make(map[uint64]blocksource.Block),
		failures: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/info", s.handleInfo)
	mux.HandleFunc("/v1/latest", s.handleLatest)
	mux.HandleFunc("/v1/blocks", s.handleBlocks)
	mux.HandleFunc("/v1/mempool", s.handleMempool)
	mux.HandleFunc("/v1/transactions", s.handleBroadcast)
	s.Server = httptest.NewServer(mux)

	return s
}

// SetTip moves the chain tip.
func (s *Server) SetTip(height uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tip = height
}

// AddTransaction places tx in the block at height, extending the tip if needed.
func (s *Server) AddTransaction(height uint64, tx blocksource.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.blocks[height]
	b.Height = height
	b.Transactions = append(b.Transactions, tx)
	s.blocks[height] = b

	if height > s.tip {
		s.tip = height
	}
}

// SetMempool replaces the mempool contents.
func (s *Server) SetMempool(txs []blocksource.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mempool = txs
}

// SetBlockDelay slows down every block range response.
func (s *Server) SetBlockDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// FailNext makes the next n requests to path fail with status 503.
func (s *Server) FailNext(path string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = n
}

// Broadcasts returns every transaction submitted so far.
func (s *Server) Broadcasts() []blocksource.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]blocksource.Transaction, len(s.broadcast))
	copy(out, s.broadcast)
	return out
}

func (s *Server) shouldFail(w http.ResponseWriter, path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures[path] > 0 {
		s.failures[path]--
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return true
	}
	return false
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if s.shouldFail(w, r.URL.Path) {
		return
	}
	s.mu.Lock()
	info := blocksource.Info{ChainName: "main", Vendor: "blocksourcetest", Version: "v0.0.0", BlockHeight: s.tip}
	s.mu.Unlock()
	writeJSON(w, info)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if s.shouldFail(w, r.URL.Path) {
		return
	}
	s.mu.Lock()
	tip := s.tip
	s.mu.Unlock()
	writeJSON(w, map[string]uint64{"height": tip})
}

func (s *Server) handleBlocks(w http.ResponseWriter, r *http.Request) {
	if s.shouldFail(w, r.URL.Path) {
		return
	}
	start, err1 := strconv.ParseUint(r.URL.Query().Get("start"), 10, 64)
	end, err2 := strconv.ParseUint(r.URL.Query().Get("end"), 10, 64)
	if err1 != nil || err2 != nil || end < start {
		http.Error(w, "bad range", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	delay := s.delay
	blocks := make([]blocksource.Block, 0, end-start+1)
	for h := start; h <= end && h <= s.tip; h++ {
		b, ok := s.blocks[h]
		if !ok {
			b = blocksource.Block{Height: h}
		}
		b.Hash = fmt.Sprintf("%064x", h)
		blocks = append(blocks, b)
	}
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	writeJSON(w, blocks)
}

func (s *Server) handleMempool(w http.ResponseWriter, r *http.Request) {
	if s.shouldFail(w, r.URL.Path) {
		return
	}
	s.mu.Lock()
	txs := append([]blocksource.Transaction{}, s.mempool...)
	s.mu.Unlock()
	writeJSON(w, txs)
}

func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var tx blocksource.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		http.Error(w, "bad transaction", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.nextTxID++
	if tx.TxID == "" {
		tx.TxID = fmt.Sprintf("%064x", s.nextTxID)
	}
	s.broadcast = append(s.broadcast, tx)
	s.mu.Unlock()

	writeJSON(w, map[string]string{"txid": tx.TxID})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
