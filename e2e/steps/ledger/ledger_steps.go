package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POSTWithHeaders(path string, body any, headers map[string]string) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	Username(name string) string
	GetToken(username string) string
	Save(key, value string)
	Saved(key string) string
}

// RegisterSteps registers ledger and transaction steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &ledgerSteps{tc: tc}

	ctx.Step(`^"([^"]*)" creates a ledger named "([^"]*)"$`, steps.createLedger)
	ctx.Step(`^"([^"]*)" shares the ledger with "([^"]*)"$`, steps.shareLedger)
	ctx.Step(`^"([^"]*)" views the ledger$`, steps.viewLedger)
	ctx.Step(`^"([^"]*)" records an? (income|expense) of (\d+) for "([^"]*)"$`, steps.recordTransaction)
	ctx.Step(`^"([^"]*)" lists transactions page (\d+) of size (\d+)$`, steps.listTransactions)
	ctx.Step(`^the ledger ID should start with "([^"]*)"$`, steps.ledgerIDPrefix)
	ctx.Step(`^the listing should hold (\d+) items? out of (\d+)$`, steps.listingCounts)
}

type ledgerSteps struct {
	tc TestContext
}

func (s *ledgerSteps) auth(name string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + s.tc.GetToken(name)}
}

func (s *ledgerSteps) ledgerPath(suffix string) string {
	return "/api/ledgers/" + s.tc.Saved("ledger") + suffix
}

func (s *ledgerSteps) createLedger(_ context.Context, name, ledgerName string) error {
	err := s.tc.POSTWithHeaders("/api/ledgers", map[string]any{"name": ledgerName}, s.auth(name))
	if err != nil {
		return err
	}
	if s.tc.GetLastResponseStatus() != 201 {
		return fmt.Errorf("create ledger: status %d: %s", s.tc.GetLastResponseStatus(), s.tc.GetLastResponseBody())
	}
	id, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s.tc.Save("ledger", id.(string))
	return nil
}

func (s *ledgerSteps) shareLedger(_ context.Context, owner, member string) error {
	return s.tc.POSTWithHeaders(s.ledgerPath("/members"),
		map[string]any{"username": s.tc.Username(member)}, s.auth(owner))
}

func (s *ledgerSteps) viewLedger(_ context.Context, name string) error {
	return s.tc.GET(s.ledgerPath(""), s.auth(name))
}

func (s *ledgerSteps) recordTransaction(_ context.Context, name, kind string, amount int, category string) error {
	return s.tc.POSTWithHeaders(s.ledgerPath("/transactions"), map[string]any{
		"type":     kind,
		"amount":   amount,
		"category": category,
	}, s.auth(name))
}

func (s *ledgerSteps) listTransactions(_ context.Context, name string, page, size int) error {
	return s.tc.GET(s.ledgerPath(fmt.Sprintf("/transactions?page=%d&size=%d", page, size)), s.auth(name))
}

func (s *ledgerSteps) ledgerIDPrefix(_ context.Context, prefix string) error {
	if id := s.tc.Saved("ledger"); !strings.HasPrefix(id, prefix) {
		return fmt.Errorf("ledger id %q does not start with %q", id, prefix)
	}
	return nil
}

func (s *ledgerSteps) listingCounts(_ context.Context, items, total int) error {
	gotItems, err := s.tc.GetResponseField("items")
	if err != nil {
		return err
	}
	list, ok := gotItems.([]any)
	if !ok || len(list) != items {
		return fmt.Errorf("expected %d items, got %v", items, gotItems)
	}
	gotTotal, err := s.tc.GetResponseField("total")
	if err != nil {
		return err
	}
	if n, _ := gotTotal.(float64); int(n) != total {
		return fmt.Errorf("expected total %d, got %v", total, gotTotal)
	}
	return nil
}
