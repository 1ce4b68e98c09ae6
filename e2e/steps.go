package e2e

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"

	"custody/e2e/steps/ledger"
	"custody/e2e/steps/registry"
)

// RegisterSteps registers the shared steps and every domain's step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, tc.Start(ctx)
	})
	ctx.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		tc.Stop()
		return ctx, nil
	})

	ctx.Step(`^"([^"]*)" is enrolled as a (Manufacturer|Distributor|Retailer|Customer)$`, func(alias, role string) error {
		identity, err := tc.Identity(alias)
		if err != nil {
			return err
		}
		if err := tc.Do("admin", http.MethodPost, "/participants", map[string]string{
			"identity": identity.String(), "role": role, "name": alias,
		}); err != nil {
			return err
		}
		return tc.ExpectStatus(http.StatusCreated)
	})
	ctx.Step(`^the response status should be (\d+)$`, tc.ExpectStatus)
	ctx.Step(`^the error code should be "([^"]*)"$`, func(code string) error {
		got, err := tc.ResponseField("error")
		if err != nil {
			return err
		}
		if got != code {
			return fmt.Errorf("expected error %q, got %q", code, got)
		}
		return nil
	})
	ctx.Step(`^(\d+) notifications? should be published$`, func(ctx context.Context, want int) error {
		got, err := tc.PublishPending(ctx)
		if err != nil {
			return err
		}
		if got != want {
			return fmt.Errorf("expected %d notifications, published %d", want, got)
		}
		return nil
	})

	registry.RegisterSteps(ctx, tc)
	ledger.RegisterSteps(ctx, tc)
}
