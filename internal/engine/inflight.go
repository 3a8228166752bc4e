package engine

import (
	"context"
	"sync"
)

// inflight tracks one reservation per job fingerprint. A reservation is
// taken before a job is queued and dropped when the job completes, so a
// fingerprint is never admitted twice.
type inflight struct {
	mu   sync.Mutex
	jobs map[string]context.CancelFunc
}

func newInflight() *inflight {
	return &inflight{jobs: make(map[string]context.CancelFunc)}
}

// reserve claims fingerprint. It returns false if it is already held.
func (f *inflight) reserve(fingerprint string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.jobs[fingerprint]; ok {
		return false
	}
	f.jobs[fingerprint] = nil
	return true
}

// attach records the cancel function of the running job.
func (f *inflight) attach(fingerprint string, cancel context.CancelFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.jobs[fingerprint]; ok {
		f.jobs[fingerprint] = cancel
	}
}

func (f *inflight) release(fingerprint string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.jobs, fingerprint)
}

// cancel aborts the running job for fingerprint, if any. It reports whether
// a running job was found.
func (f *inflight) cancel(fingerprint string) bool {
	f.mu.Lock()
	cancel := f.jobs[fingerprint]
	f.mu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	return true
}

func (f *inflight) has(fingerprint string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.jobs[fingerprint]
	return ok
}

func (f *inflight) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}
