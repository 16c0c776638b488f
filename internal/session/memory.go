package session

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by a MemoryStore after Close.
var ErrClosed = errors.New("session store closed")

type memOp int

const (
	memCreate memOp = iota
	memGet
	memDelete
)

// memRequest is sent to the control goroutine, which owns the session map.
type memRequest struct {
	op      memOp
	id      string
	session *Session
	answer  chan<- memResponse
}

type memResponse struct {
	session *Session
	err     error
}

// MemoryStore holds sessions in process memory. A single control goroutine owns the
// map; expired sessions are dropped on read and on every purge tick.
type MemoryStore struct {
	requests chan memRequest
	done     chan struct{}
	now      func() time.Time
}

// NewMemoryStore starts a store that purges expired sessions every purgeInterval.
func NewMemoryStore(purgeInterval time.Duration) *MemoryStore {
	if purgeInterval <= 0 {
		purgeInterval = time.Minute
	}
	m := &MemoryStore{
		requests: make(chan memRequest),
		done:     make(chan struct{}),
		now:      time.Now,
	}
	go m.control(purgeInterval)
	return m
}

func (m *MemoryStore) control(purgeInterval time.Duration) {
	sessions := map[string]Session{}
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case req := <-m.requests:
			switch req.op {
			case memCreate:
				sessions[req.session.ID] = *req.session
				req.answer <- memResponse{}
			case memGet:
				s, ok := sessions[req.id]
				if !ok {
					req.answer <- memResponse{err: ErrNotFound}
					continue
				}
				if s.Expired(m.now()) {
					delete(sessions, req.id)
					req.answer <- memResponse{err: ErrNotFound}
					continue
				}
				req.answer <- memResponse{session: &s}
			case memDelete:
				delete(sessions, req.id)
				req.answer <- memResponse{}
			}
		case <-ticker.C:
			now := m.now()
			for id, s := range sessions {
				if s.Expired(now) {
					delete(sessions, id)
				}
			}
		}
	}
}

func (m *MemoryStore) send(ctx context.Context, req memRequest) memResponse {
	answer := make(chan memResponse, 1)
	req.answer = answer
	select {
	case m.requests <- req:
	case <-m.done:
		return memResponse{err: ErrClosed}
	case <-ctx.Done():
		return memResponse{err: ctx.Err()}
	}
	return <-answer
}

// Create implements Store.
func (m *MemoryStore) Create(ctx context.Context, s *Session) error {
	cp := *s
	return m.send(ctx, memRequest{op: memCreate, session: &cp}).err
}

// Get implements Store.
func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	resp := m.send(ctx, memRequest{op: memGet, id: id})
	return resp.session, resp.err
}

// Delete implements Store.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	return m.send(ctx, memRequest{op: memDelete, id: id}).err
}

// Close stops the control goroutine. It must be called at most once.
func (m *MemoryStore) Close() {
	close(m.done)
}
