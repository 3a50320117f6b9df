package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cucumber/godog"

	adminmw "leadgate/pkg/platform/middleware/admin"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string, headers map[string]string) error
	GetLastResponseBody() []byte
	GetAdminSecret() string
	GetAdminToken() string
	SetAdminToken(token string)
}

// RegisterSteps registers admin API step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &adminSteps{tc: tc}

	ctx.Step(`^I hold an admin token$`, steps.holdAdminToken)
	ctx.Step(`^I GET "([^"]*)" as admin$`, steps.getAsAdmin)
	ctx.Step(`^I GET "([^"]*)" with admin token "([^"]*)"$`, steps.getWithToken)
	ctx.Step(`^the security events should include "([^"]*)"$`, steps.eventsShouldInclude)
}

type adminSteps struct {
	tc TestContext
}

func (s *adminSteps) holdAdminToken(ctx context.Context) error {
	secret := s.tc.GetAdminSecret()
	if secret == "" {
		return godog.ErrSkip
	}
	token, err := adminmw.IssueToken([]byte(secret), "e2e", 10*time.Minute, time.Now())
	if err != nil {
		return err
	}
	s.tc.SetAdminToken(token)
	return nil
}

func (s *adminSteps) getAsAdmin(ctx context.Context, path string) error {
	return s.getWithToken(ctx, path, s.tc.GetAdminToken())
}

func (s *adminSteps) getWithToken(ctx context.Context, path, token string) error {
	return s.tc.GET(path, map[string]string{"Authorization": "Bearer " + token})
}

func (s *adminSteps) eventsShouldInclude(ctx context.Context, eventType string) error {
	var body struct {
		Events []struct {
			Type string `json:"type"`
		} `json:"events"`
	}
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &body); err != nil {
		return fmt.Errorf("failed to parse events: %w", err)
	}
	for _, e := range body.Events {
		if e.Type == eventType {
			return nil
		}
	}
	return fmt.Errorf("no %s event in %d events", eventType, len(body.Events))
}
