package e2e

import (
	"github.com/cucumber/godog"

	"leadgate/e2e/steps/admin"
	"leadgate/e2e/steps/common"
	"leadgate/e2e/steps/lead"
	"leadgate/e2e/steps/ratelimit"
)

// RegisterSteps registers all step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	lead.RegisterSteps(ctx, tc)
	ratelimit.RegisterSteps(ctx, tc)
	admin.RegisterSteps(ctx, tc)
}
