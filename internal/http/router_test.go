package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"clearledger/internal/auth/authn"
	"clearledger/internal/auth/cache"
	authhandler "clearledger/internal/auth/handler"
	authmodels "clearledger/internal/auth/models"
	"clearledger/internal/auth/resolver"
	authservice "clearledger/internal/auth/service"
	userstore "clearledger/internal/auth/store/user"
	"clearledger/internal/idgen"
	jwttoken "clearledger/internal/jwt_token"
	ledgerhandler "clearledger/internal/ledger/handler"
	ledgermodels "clearledger/internal/ledger/models"
	ledgerservice "clearledger/internal/ledger/service"
	ledgerstore "clearledger/internal/ledger/store"
	"clearledger/internal/platform/metrics"
	"clearledger/internal/platform/middleware"
	"clearledger/internal/serial"
	"clearledger/pkg/domain"
	"clearledger/pkg/platform/audit/publisher"
	auditmemory "clearledger/pkg/platform/audit/store/memory"
	"clearledger/pkg/testutil"
)

// RouterSuite drives the assembled application over in-memory stores.
type RouterSuite struct {
	suite.Suite
	router http.Handler
	cache  *cache.InMemoryUserCache
	events *auditmemory.InMemoryStore
	day    string
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	users := userstore.New()
	s.cache = cache.NewMemory()
	s.events = auditmemory.NewInMemoryStore()
	auditor := publisher.NewPublisher(s.events)

	composer := idgen.New(serial.NewMemory(), idgen.WithMetrics(m))
	s.day = time.Now().Format("060102")
	userResolver := resolver.New(s.cache, users, 24*time.Hour, logger, resolver.WithMetrics(m))
	provider := authn.NewProvider(users, userResolver, logger)
	jwt := jwttoken.NewJWTService("router-test-key", "clearledger", time.Hour)

	auth := authservice.New(users, composer, provider, jwt, userResolver,
		authservice.WithLogger(logger),
		authservice.WithAuditPublisher(auditor),
		authservice.WithMetrics(m),
		authservice.WithBcryptCost(bcrypt.MinCost),
	)
	ledgers := ledgerservice.New(ledgerstore.NewInMemory(), composer, users,
		ledgerservice.WithLogger(logger),
		ledgerservice.WithAuditPublisher(auditor),
		ledgerservice.WithMetrics(m),
	)

	s.router = NewRouter(Deps{
		Logger:        logger,
		Metrics:       m,
		Gatherer:      reg,
		Verifier:      jwttoken.NewJWTServiceAdapter(jwt),
		Authenticator: provider,
		Handlers: []RouteRegistrar{
			authhandler.New(auth, logger, middleware.NewRateLimiter(100, logger).Middleware),
			ledgerhandler.New(ledgers, logger),
		},
		HealthChecks: map[string]HealthCheck{
			"redis": func(context.Context) error { return nil },
		},
	})
}

func (s *RouterSuite) register(username string) domain.BusinessUser {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/auth/register",
		map[string]string{"username": username, "email": username + "@example.com", "password": "secret"}))
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	return *testutil.UnmarshalResponse[domain.BusinessUser](s.T(), rr)
}

func (s *RouterSuite) login(username, password string) string {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/auth/login",
		map[string]string{"username": username, "password": password}))
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	return testutil.UnmarshalResponse[authmodels.LoginResult](s.T(), rr).Token
}

func (s *RouterSuite) authed(method, path, token string, body any) *http.Request {
	return testutil.WithBearer(testutil.NewJSONRequest(s.T(), method, path, body), token)
}

func (s *RouterSuite) TestRegisterLoginMe() {
	alice := s.register("alice")
	s.Equal(domain.UserID("US"+s.day+"0001"), alice.ID)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/auth/login",
		map[string]string{"username": "alice", "password": "wrong"}))
	testutil.AssertStatusAndMessage(s.T(), rr, http.StatusUnauthorized, "username/password mismatch.")
	s.Zero(s.cache.Len(), "failed login leaves the cache untouched")

	token := s.login("alice", "secret")
	s.Equal(1, s.cache.Len())

	rr = testutil.DoRequest(s.router, s.authed(http.MethodGet, "/api/users/me", token, nil))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	s.Equal(alice, *testutil.UnmarshalResponse[domain.BusinessUser](s.T(), rr))

	s.Equal([]string{"user_registered", "login_failed", "login_succeeded"}, s.events.Actions())
}

func (s *RouterSuite) TestAuthenticationFailures() {
	s.register("alice")

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/users/me", nil))
	testutil.AssertStatusAndMessage(s.T(), rr, http.StatusUnauthorized, "please log in first.")

	rr = testutil.DoRequest(s.router, s.authed(http.MethodGet, "/api/users/me", "garbage", nil))
	testutil.AssertStatusAndMessage(s.T(), rr, http.StatusUnauthorized, "please log in again.")

	expired, _, err := jwttoken.NewJWTService("router-test-key", "clearledger", -time.Minute).
		GenerateAccessToken(domain.BusinessUser{ID: "US2410160001", Username: "alice"})
	s.Require().NoError(err)
	rr = testutil.DoRequest(s.router, s.authed(http.MethodGet, "/api/users/me", expired, nil))
	testutil.AssertStatusAndMessage(s.T(), rr, http.StatusUnauthorized, "please log in again.")

	ghost, _, err := jwttoken.NewJWTService("router-test-key", "clearledger", time.Hour).
		GenerateAccessToken(domain.BusinessUser{ID: "US2410160099", Username: "ghost"})
	s.Require().NoError(err)
	rr = testutil.DoRequest(s.router, s.authed(http.MethodGet, "/api/users/me", ghost, nil))
	testutil.AssertStatusAndMessage(s.T(), rr, http.StatusUnauthorized, authn.ErrUserNotFound.Message)

	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/auth/register",
		map[string]string{"username": "alice", "email": "other@example.com", "password": "secret"}))
	testutil.AssertStatusAndMessage(s.T(), rr, http.StatusConflict, "username already taken")
}

func (s *RouterSuite) TestSharedLedgerFlow() {
	s.register("alice")
	bob := s.register("bob")
	aliceToken := s.login("alice", "secret")
	bobToken := s.login("bob", "secret")

	rr := testutil.DoRequest(s.router, s.authed(http.MethodPost, "/api/ledgers", aliceToken,
		map[string]string{"name": "Household"}))
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	ledger := testutil.UnmarshalResponse[ledgermodels.Ledger](s.T(), rr)
	s.Equal(domain.LedgerID("LG"+s.day+"0001"), ledger.ID)
	base := "/api/ledgers/" + ledger.ID.String()

	rr = testutil.DoRequest(s.router, s.authed(http.MethodGet, base, bobToken, nil))
	testutil.AssertStatusAndMessage(s.T(), rr, http.StatusNotFound, "ledger not found")

	rr = testutil.DoRequest(s.router, s.authed(http.MethodPost, base+"/members", aliceToken,
		map[string]string{"username": "bob"}))
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	s.Equal(bob.ID, testutil.UnmarshalResponse[ledgermodels.Member](s.T(), rr).UserID)

	for i, amount := range []int64{1200, 800, 4500} {
		rr = testutil.DoRequest(s.router, s.authed(http.MethodPost, base+"/transactions", bobToken,
			map[string]any{"type": "expense", "amount": amount, "category": "food",
				"occurred_at": time.Now().Add(time.Duration(i) * time.Minute)}))
		s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	}

	rr = testutil.DoRequest(s.router, s.authed(http.MethodGet, base+"/transactions?page=1&size=2", aliceToken, nil))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	page := testutil.UnmarshalResponse[ledgermodels.Page[ledgermodels.Transaction]](s.T(), rr)
	s.Equal(3, page.Total)
	s.Require().Len(page.Items, 2)
	s.Equal(int64(4500), page.Items[0].Amount, "newest first")
	s.Equal(domain.TransactionID("TX"+s.day+"0003"), page.Items[0].ID)

	rr = testutil.DoRequest(s.router, s.authed(http.MethodGet, base+"/transactions?size=0&page=0", aliceToken, nil))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
}

func (s *RouterSuite) TestOperationalEndpoints() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/health", nil))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	testutil.AssertJSONContains(s.T(), rr, "status", "ok")

	s.register("alice")
	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/metrics", nil))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	body := rr.Body.String()
	s.True(strings.Contains(body, "clearledger_users_registered_total 1"), body)
	s.Contains(body, `clearledger_ids_issued_total{entity="user"} 1`)

	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/nope", nil))
	testutil.AssertStatusAndMessage(s.T(), rr, http.StatusNotFound, "resource not found")
}

func TestHealthDegraded(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(Deps{
		Logger: logger,
		HealthChecks: map[string]HealthCheck{
			"postgres": func(context.Context) error { return errors.New("connection refused") },
			"redis":    func(context.Context) error { return nil },
		},
	})

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/health", nil))

	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
	resp := testutil.UnmarshalResponse[healthResponse](t, rr)
	if resp.Checks["postgres"] != "down" || resp.Checks["redis"] != "up" || resp.Status != "degraded" {
		t.Fatalf("unexpected health response: %+v", resp)
	}
}
