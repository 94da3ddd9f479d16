//go:build e2e

package e2e

import (
	"os"
	"testing"

	"github.com/cucumber/godog"
)

// Runs the feature files against CITYSCOPE_BASE_URL, default a local server.
func TestFeatures(t *testing.T) {
	baseURL := os.Getenv("CITYSCOPE_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	tags := os.Getenv("GODOG_TAGS")
	if tags == "" {
		// @geocoder scenarios call the live Nominatim upstream.
		tags = "~@geocoder"
	}
	tc := NewTestContext(baseURL)

	suite := godog.TestSuite{
		Name: "cityscope",
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			RegisterSteps(ctx, tc)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			Tags:     tags,
			TestingT: t,
			Strict:   true,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("feature scenarios failed")
	}
}
