package districts

import (
	"context"
	"fmt"
	"net/url"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the suite context these steps need.
type TestContext interface {
	GET(ctx context.Context, path string) error
	Status() int
	Field(path string) (any, error)
}

func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &districtSteps{tc: tc}

	ctx.Step(`^I resolve the district name "([^"]*)"$`, steps.resolveName)
	ctx.Step(`^I resolve the address "([^"]*)"$`, steps.resolveAddress)
	ctx.Step(`^I request "([^"]*)"$`, steps.request)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the field "([^"]*)" should equal "([^"]*)"$`, steps.fieldShouldEqual)
	ctx.Step(`^the field "([^"]*)" should be (\d+)$`, steps.fieldShouldBeNumber)
	ctx.Step(`^the error code should be "([^"]*)"$`, steps.errorCodeShouldBe)
}

type districtSteps struct {
	tc TestContext
}

func (s *districtSteps) resolveName(ctx context.Context, name string) error {
	return s.tc.GET(ctx, "/districts/resolve?name="+url.QueryEscape(name))
}

func (s *districtSteps) resolveAddress(ctx context.Context, address string) error {
	return s.tc.GET(ctx, "/districts/resolve-address?address="+url.QueryEscape(address))
}

func (s *districtSteps) request(ctx context.Context, path string) error {
	return s.tc.GET(ctx, path)
}

func (s *districtSteps) statusShouldBe(_ context.Context, want int) error {
	if got := s.tc.Status(); got != want {
		return fmt.Errorf("expected status %d, got %d", want, got)
	}
	return nil
}

func (s *districtSteps) fieldShouldEqual(_ context.Context, path, want string) error {
	v, err := s.tc.Field(path)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != want {
		return fmt.Errorf("expected %s=%q, got %q", path, want, got)
	}
	return nil
}

func (s *districtSteps) fieldShouldBeNumber(_ context.Context, path string, want int) error {
	v, err := s.tc.Field(path)
	if err != nil {
		return err
	}
	n, ok := v.(float64)
	if !ok || int(n) != want {
		return fmt.Errorf("expected %s=%d, got %v", path, want, v)
	}
	return nil
}

func (s *districtSteps) errorCodeShouldBe(ctx context.Context, code string) error {
	return s.fieldShouldEqual(ctx, "error", code)
}
