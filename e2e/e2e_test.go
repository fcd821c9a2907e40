package e2e

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"

	"roster/e2e/steps/common"
	"roster/e2e/steps/employee"
)

var opts = godog.Options{
	Output: colors.Colored(os.Stdout),
	Format: "pretty",
	Paths:  []string{"features"},
	Strict: true,
}

func init() {
	godog.BindCommandLineFlags("godog.", &opts)
}

func TestFeatures(t *testing.T) {
	flag.Parse()
	opts.TestingT = t

	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options:             &opts,
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func InitializeScenario(sc *godog.ScenarioContext) {
	var tc *TestContext

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		tc = NewTestContext()
		return ctx, nil
	})

	sc.After(func(ctx context.Context, scenario *godog.Scenario, err error) (context.Context, error) {
		if err != nil && tc != nil {
			fmt.Printf("Scenario failed: %s\nLast Response: %s\n", scenario.Name, string(tc.LastResponseBody))
		}
		if tc != nil {
			tc.Close()
		}
		return ctx, nil
	})

	// Steps resolve the context lazily because Before replaces it per scenario.
	current := func() *TestContext { return tc }
	common.RegisterSteps(sc, func() common.TestContext { return current() })
	employee.RegisterSteps(sc, func() employee.TestContext { return current() })
}
