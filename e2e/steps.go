package e2e

import (
	"github.com/cucumber/godog"

	"clearledger/e2e/steps/auth"
	"clearledger/e2e/steps/common"
	"clearledger/e2e/steps/ledger"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	auth.RegisterSteps(ctx, tc)
	ledger.RegisterSteps(ctx, tc)
}
