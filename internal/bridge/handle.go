package bridge

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// session is the state shared by every handle to one client.
type session struct {
	id      uint64
	client  Client
	refs    atomic.Int64
	closed  atomic.Bool
	logger  *zap.Logger
	onClose func()
}

// Handle is one counted reference to a live client. The client is closed when
// the last handle is released. A Handle must be released exactly once; extra
// releases are ignored.
type Handle struct {
	s        *session
	released atomic.Bool
}

func newHandle(id uint64, client Client, logger *zap.Logger, onClose func()) *Handle {
	s := &session{id: id, client: client, logger: logger, onClose: onClose}
	s.refs.Store(1)
	return &Handle{s: s}
}

// ID identifies the session the handle refers to.
func (h *Handle) ID() uint64 {
	return h.s.id
}

// Client returns the underlying client.
func (h *Handle) Client() Client {
	return h.s.client
}

// Clone returns a new reference to the same client. h must not have been
// released.
func (h *Handle) Clone() *Handle {
	h.s.refs.Add(1)
	return &Handle{s: h.s}
}

// Release drops this reference, closing the client if it was the last one.
func (h *Handle) Release() {
	if !h.released.CompareAndSwap(false, true) {
		return
	}
	if h.s.refs.Add(-1) > 0 {
		return
	}
	h.s.close()
}

// Closed reports whether the client has been closed.
func (h *Handle) Closed() bool {
	return h.s.closed.Load()
}

func (s *session) close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	if err := s.client.Close(); err != nil {
		s.logger.Warn("closing light client", zap.Uint64("session", s.id), zap.Error(err))
	} else {
		s.logger.Debug("light client closed", zap.Uint64("session", s.id))
	}
	if s.onClose != nil {
		s.onClose()
	}
}
