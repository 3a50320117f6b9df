package ratelimit

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POSTWithHeaders(path string, body interface{}, headers map[string]string) error
	GET(path string, headers map[string]string) error
	GetLastResponseStatus() int
	GetLastResponseHeader(name string) string
}

// RegisterSteps registers rate-limiting step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &ratelimitSteps{tc: tc}

	ctx.Step(`^I make (\d+) GET requests to "([^"]*)" from IP "([^"]*)"$`, steps.makeNGetRequests)
	ctx.Step(`^I make (\d+) empty submissions from IP "([^"]*)"$`, steps.makeNSubmissions)
	ctx.Step(`^all (\d+) requests should return status (\d+)$`, steps.allNRequestsShouldReturn)
	ctx.Step(`^the last request should be rate limited$`, steps.lastRequestShouldBeRateLimited)
}

type ratelimitSteps struct {
	tc             TestContext
	requestResults []int
}

// makeNGetRequests sends n requests with a spoofed X-Forwarded-For. The
// gateway only honours it when the test runner is a trusted proxy.
func (s *ratelimitSteps) makeNGetRequests(ctx context.Context, n int, path, ip string) error {
	s.requestResults = s.requestResults[:0]
	for range n {
		if err := s.tc.GET(path, map[string]string{"X-Forwarded-For": ip}); err != nil {
			return err
		}
		s.requestResults = append(s.requestResults, s.tc.GetLastResponseStatus())
	}
	return nil
}

func (s *ratelimitSteps) makeNSubmissions(ctx context.Context, n int, ip string) error {
	s.requestResults = s.requestResults[:0]
	for range n {
		if err := s.tc.POSTWithHeaders("/api/send-devis", map[string]interface{}{}, map[string]string{"X-Forwarded-For": ip}); err != nil {
			return err
		}
		s.requestResults = append(s.requestResults, s.tc.GetLastResponseStatus())
	}
	return nil
}

func (s *ratelimitSteps) allNRequestsShouldReturn(ctx context.Context, n, status int) error {
	if len(s.requestResults) < n {
		return fmt.Errorf("only %d requests recorded", len(s.requestResults))
	}
	for i, got := range s.requestResults[:n] {
		if got != status {
			return fmt.Errorf("request %d: expected status %d but got %d", i+1, status, got)
		}
	}
	return nil
}

func (s *ratelimitSteps) lastRequestShouldBeRateLimited(ctx context.Context) error {
	if got := s.tc.GetLastResponseStatus(); got != 429 {
		return fmt.Errorf("expected status 429 but got %d", got)
	}
	if s.tc.GetLastResponseHeader("Retry-After") == "" {
		return fmt.Errorf("Retry-After header missing on 429")
	}
	return nil
}
