package e2e

import (
	"context"

	"github.com/cucumber/godog"

	"cityscope/e2e/steps/districts"
)

// RegisterSteps wires every step package into the scenario.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	districts.RegisterSteps(ctx, tc)
}
