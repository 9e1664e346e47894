package ai

import (
	"context"
	"strings"
	"sync"
)

// StubClient is the offline mode used by tests and by deployments without a
// model credential. Responses are matched by prompt substring, in insertion
// order; unmatched prompts get Default.
type StubClient struct {
	mu        sync.Mutex
	rules     []stubRule
	Default   string
	Err       error
	CallCount int
	Models    []string
}

type stubRule struct {
	contains string
	response string
	err      error
}

// On registers a canned response for prompts containing the marker.
func (s *StubClient) On(contains, response string) *StubClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, stubRule{contains: contains, response: response})
	return s
}

// OnErr registers a canned failure for prompts containing the marker.
func (s *StubClient) OnErr(contains string, err error) *StubClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, stubRule{contains: contains, err: err})
	return s
}

func (s *StubClient) Generate(_ context.Context, req Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CallCount++
	s.Models = append(s.Models, req.Model)
	if s.Err != nil {
		return "", s.Err
	}
	for _, r := range s.rules {
		if strings.Contains(req.Prompt, r.contains) {
			return r.response, r.err
		}
	}
	return s.Default, nil
}
