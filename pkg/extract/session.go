package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"sync/atomic"
	"time"
)

// Session is a reusable store browsing session. It keeps its own cookie jar
// so stores that require a warm session see consistent state.
type Session struct {
	ID        int
	Client    *http.Client
	UserAgent string
}

// SessionPool bounds the number of concurrently open sessions for a store.
// Every Acquire must be paired with exactly one Release.
type SessionPool struct {
	sessions chan *Session
	size     int
	inUse    atomic.Int64
}

// NewSessionPool creates a pool of size sessions sharing the given timeout
// and user agent. Each session gets its own cookie jar.
func NewSessionPool(size int, timeout time.Duration, userAgent string) *SessionPool {
	if size < 1 {
		size = 1
	}
	p := &SessionPool{
		sessions: make(chan *Session, size),
		size:     size,
	}
	for i := range size {
		jar, _ := cookiejar.New(nil) // never errors with nil options
		p.sessions <- &Session{
			ID:        i,
			Client:    &http.Client{Timeout: timeout, Jar: jar},
			UserAgent: userAgent,
		}
	}
	return p
}

// Acquire blocks until a session is free or ctx is done.
func (p *SessionPool) Acquire(ctx context.Context) (*Session, error) {
	select {
	case s := <-p.sessions:
		p.inUse.Add(1)
		return s, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("acquiring session: %w", ctxErr(ctx))
	}
}

// Release returns a session to the pool.
func (p *SessionPool) Release(s *Session) {
	if s == nil {
		return
	}
	p.inUse.Add(-1)
	p.sessions <- s
}

// InUse returns the number of sessions currently checked out.
func (p *SessionPool) InUse() int {
	return int(p.inUse.Load())
}

// Size returns the pool capacity.
func (p *SessionPool) Size() int {
	return p.size
}
