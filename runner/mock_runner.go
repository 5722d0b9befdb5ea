package runner

import (
	"context"
	"sync"
)

// MockResponse is one canned outcome for a MockRunner invocation.
type MockResponse struct {
	Result *Result
	Err    error
}

// MockRunner implements Runner for tests. Responses are consumed in
// order; when the queue is empty it returns a generic success. All
// invocations are recorded.
type MockRunner struct {
	mu    sync.Mutex
	calls []Request
	queue []MockResponse

	// Block, when non-nil, makes Invoke wait until the channel is
	// closed or the context is canceled. Used to hold a session busy.
	Block chan struct{}
}

// NewMockRunner creates an empty mock.
func NewMockRunner() *MockRunner {
	return &MockRunner{}
}

// Enqueue appends a canned response.
func (m *MockRunner) Enqueue(res *Result, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, MockResponse{Result: res, Err: err})
}

// Calls returns a copy of all requests seen so far.
func (m *MockRunner) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many invocations have been made.
func (m *MockRunner) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Invoke records the request and returns the next queued response.
func (m *MockRunner) Invoke(ctx context.Context, req Request) (*Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	block := m.Block
	var resp MockResponse
	hasResp := false
	if len(m.queue) > 0 {
		resp = m.queue[0]
		m.queue = m.queue[1:]
		hasResp = true
	}
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if hasResp {
		return resp.Result, resp.Err
	}
	return &Result{Text: "ok", SessionID: "mock-session"}, nil
}
