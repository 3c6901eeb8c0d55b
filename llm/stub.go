package llm

import (
	"context"
	"sync"
	"sync/atomic"

	"clausecheck-backend/models"
)

// StubResponse is either a text payload or a failure of the given kind
type StubResponse struct {
	Text string
	Fail models.ErrorKind
}

// Text returns a successful stub response
func Text(s string) StubResponse {
	return StubResponse{Text: s}
}

// Failure returns a failing stub response
func Failure(kind models.ErrorKind) StubResponse {
	return StubResponse{Fail: kind}
}

// StubService is a deterministic Service for tests and offline runs
type StubService struct {
	Handler func(req Request) StubResponse

	calls atomic.Int64
	mu    sync.Mutex
	tasks map[Task]int
}

// NewStub creates a StubService answering with handler
func NewStub(handler func(req Request) StubResponse) *StubService {
	return &StubService{Handler: handler}
}

// Generate implements Service
func (s *StubService) Generate(ctx context.Context, req Request) (string, error) {
	s.calls.Add(1)
	s.mu.Lock()
	if s.tasks == nil {
		s.tasks = make(map[Task]int)
	}
	s.tasks[req.Task]++
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", models.WrapError(models.KindServiceTimeout, err, "request cancelled")
	}
	if s.Handler == nil {
		return "", models.NewError(models.KindServiceUnavailable, "stub has no handler")
	}

	resp := s.Handler(req)
	if resp.Fail != "" {
		return "", models.NewError(resp.Fail, "stubbed %s failure", req.Task)
	}
	return resp.Text, nil
}

// Calls returns the total number of Generate calls
func (s *StubService) Calls() int {
	return int(s.calls.Load())
}

// TaskCalls returns the number of calls for one task
func (s *StubService) TaskCalls(task Task) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks[task]
}
