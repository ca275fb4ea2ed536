package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"clearledger/internal/auth/authn"
	"clearledger/internal/auth/cache"
	"clearledger/internal/auth/models"
	"clearledger/internal/auth/resolver"
	"clearledger/internal/auth/service/mocks"
	userstore "clearledger/internal/auth/store/user"
	"clearledger/internal/idgen"
	jwttoken "clearledger/internal/jwt_token"
	"clearledger/internal/platform/metrics"
	"clearledger/internal/serial"
	"clearledger/pkg/domain"
	"clearledger/pkg/platform/audit/publisher"
	auditmemory "clearledger/pkg/platform/audit/store/memory"
	"clearledger/pkg/requestcontext"
)

// LoginSuite runs login against the real provider, resolver, cache and JWT
// service over in-memory stores.
type LoginSuite struct {
	suite.Suite
	logger   *slog.Logger
	users    *userstore.InMemoryUserStore
	cache    *cache.InMemoryUserCache
	resolver *resolver.Resolver
	provider *authn.Provider
	jwt      *jwttoken.JWTService
	events   *auditmemory.InMemoryStore
	metrics  *metrics.Metrics
	service  *Service
}

func TestLoginSuite(t *testing.T) {
	suite.Run(t, new(LoginSuite))
}

func (s *LoginSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.users = userstore.New()
	s.cache = cache.NewMemory()
	s.resolver = resolver.New(s.cache, s.users, 24*time.Hour, s.logger)
	s.provider = authn.NewProvider(s.users, s.resolver, s.logger)
	s.jwt = jwttoken.NewJWTService("test-signing-key", "clearledger-test", time.Hour)
	s.events = auditmemory.NewInMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = s.newService(s.resolver)

	day := time.Date(2024, 10, 16, 9, 0, 0, 0, time.Local)
	composer := idgen.New(serial.NewMemory(), idgen.WithClock(func() time.Time { return day }))
	registrar := New(s.users, composer, s.provider, s.jwt, s.resolver,
		WithLogger(s.logger),
		WithBcryptCost(bcrypt.MinCost),
	)
	_, err := registrar.Register(context.Background(), models.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret",
	})
	s.Require().NoError(err)
}

func (s *LoginSuite) newService(c UserCache) *Service {
	return New(s.users, nil, s.provider, s.jwt, c,
		WithLogger(s.logger),
		WithAuditPublisher(publisher.NewPublisher(s.events)),
		WithMetrics(s.metrics),
	)
}

func (s *LoginSuite) TestLoginIssuesTokenAndCachesUser() {
	s.Zero(s.cache.Len())

	result, err := s.service.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "secret"})
	s.Require().NoError(err)

	s.Equal("Bearer", result.TokenType)
	s.Equal(domain.UserID("US2410160001"), result.User.ID)
	s.Equal("alice", result.User.Username)

	claims, err := s.jwt.ValidateToken(result.Token)
	s.Require().NoError(err)
	s.Equal("alice", claims.Username())

	cached, err := s.cache.Get(context.Background(), "alice")
	s.Require().NoError(err)
	s.Equal(result.User, *cached)

	s.Equal([]string{"login_succeeded"}, s.events.Actions())
	s.Equal(1.0, promtest.ToFloat64(s.metrics.Logins.WithLabelValues("success")))
}

func (s *LoginSuite) TestWrongPasswordLeavesCacheUntouched() {
	_, err := s.service.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "wrong"})

	s.ErrorIs(err, authn.ErrInvalidCredentials)
	s.Zero(s.cache.Len())
	s.Equal([]string{"login_failed"}, s.events.Actions())
	s.Equal(1.0, promtest.ToFloat64(s.metrics.Logins.WithLabelValues("failure")))
}

func (s *LoginSuite) TestUnknownUser() {
	_, err := s.service.Login(context.Background(), models.LoginRequest{Username: "bob", Password: "secret"})

	s.ErrorIs(err, authn.ErrUserNotFound)
	s.Zero(s.cache.Len())
}

func (s *LoginSuite) TestMissingFields() {
	_, err := s.service.Login(context.Background(), models.LoginRequest{Username: "alice"})
	s.Error(err)
	s.Empty(s.events.Actions())
}

func (s *LoginSuite) TestCacheWriteFailureDoesNotFailLogin() {
	ctrl := gomock.NewController(s.T())
	failing := mocks.NewMockUserCache(ctrl)
	failing.EXPECT().Remember(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	result, err := s.newService(failing).Login(context.Background(), models.LoginRequest{Username: "alice", Password: "secret"})
	s.Require().NoError(err)
	s.NotEmpty(result.Token)
}

func (s *LoginSuite) TestTokenRoundTripsThroughBearerAuthentication() {
	result, err := s.service.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "secret"})
	s.Require().NoError(err)

	claims, err := s.jwt.ValidateToken(result.Token)
	s.Require().NoError(err)
	tok, err := s.provider.Authenticate(context.Background(), authn.NewBearerToken(claims.Username(), result.Token))
	s.Require().NoError(err)

	user, ok := tok.Details()
	s.Require().True(ok)
	s.Equal(result.User, user)
}

func (s *LoginSuite) TestMe() {
	_, err := s.service.Me(context.Background())
	s.ErrorIs(err, authn.ErrLoginRequired)

	alice := domain.BusinessUser{ID: "US2410160001", Username: "alice", Email: "alice@example.com"}
	user, err := s.service.Me(requestcontext.WithUser(context.Background(), alice))
	s.Require().NoError(err)
	s.Equal(alice, *user)
}
