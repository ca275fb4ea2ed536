package resolver

//go:generate mockgen -source=resolver.go -destination=mocks/mocks.go -package=mocks UserCache,UserStore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"clearledger/internal/auth/models"
	"clearledger/internal/auth/resolver/mocks"
	"clearledger/internal/platform/metrics"
	"clearledger/pkg/domain"
	"clearledger/pkg/platform/circuit"
	"clearledger/pkg/platform/sentinel"
)

const ttl = 24 * time.Hour

type ResolverSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	cache    *mocks.MockUserCache
	users    *mocks.MockUserStore
	metrics  *metrics.Metrics
	resolver *Resolver
	alice    domain.BusinessUser
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.cache = mocks.NewMockUserCache(s.ctrl)
	s.users = mocks.NewMockUserStore(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.resolver = New(s.cache, s.users, ttl, logger, WithMetrics(s.metrics))
	s.alice = domain.BusinessUser{ID: "US2410160001", Username: "alice", Email: "alice@example.com"}
}

func (s *ResolverSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ResolverSuite) storedAlice() *models.User {
	return &models.User{ID: s.alice.ID, Username: "alice", Email: s.alice.Email, PasswordHash: "hash"}
}

func (s *ResolverSuite) TestCacheHitSkipsStore() {
	user := s.alice
	s.cache.EXPECT().Get(gomock.Any(), "alice").Return(&user, nil)

	got, err := s.resolver.Resolve(context.Background(), "alice")
	s.Require().NoError(err)
	s.Equal(s.alice, *got)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.UserCacheLookups.WithLabelValues("hit")))
}

func (s *ResolverSuite) TestCacheMissLoadsAndWritesBack() {
	gomock.InOrder(
		s.cache.EXPECT().Get(gomock.Any(), "alice").Return(nil, sentinel.ErrNotFound),
		s.users.EXPECT().FindByUsername(gomock.Any(), "alice").Return(s.storedAlice(), nil),
		s.cache.EXPECT().Set(gomock.Any(), s.alice, ttl).Return(nil),
	)

	got, err := s.resolver.Resolve(context.Background(), "alice")
	s.Require().NoError(err)
	s.Equal(s.alice, *got)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.UserCacheLookups.WithLabelValues("miss")))
}

func (s *ResolverSuite) TestUnknownUser() {
	s.cache.EXPECT().Get(gomock.Any(), "ghost").Return(nil, sentinel.ErrNotFound)
	s.users.EXPECT().FindByUsername(gomock.Any(), "ghost").Return(nil, sentinel.ErrNotFound)

	_, err := s.resolver.Resolve(context.Background(), "ghost")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ResolverSuite) TestCacheFailuresDegradeToStore() {
	s.cache.EXPECT().Get(gomock.Any(), "alice").Return(nil, errors.New("redis down"))
	s.users.EXPECT().FindByUsername(gomock.Any(), "alice").Return(s.storedAlice(), nil)
	s.cache.EXPECT().Set(gomock.Any(), s.alice, ttl).Return(errors.New("redis down"))

	got, err := s.resolver.Resolve(context.Background(), "alice")
	s.Require().NoError(err)
	s.Equal("alice", got.Username)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.UserCacheLookups.WithLabelValues("error")))
}

func (s *ResolverSuite) TestStoreFailurePropagates() {
	storeErr := errors.New("connection refused")
	s.cache.EXPECT().Get(gomock.Any(), "alice").Return(nil, sentinel.ErrNotFound)
	s.users.EXPECT().FindByUsername(gomock.Any(), "alice").Return(nil, storeErr)

	_, err := s.resolver.Resolve(context.Background(), "alice")
	s.ErrorIs(err, storeErr)
}

func (s *ResolverSuite) TestRemember() {
	s.cache.EXPECT().Set(gomock.Any(), s.alice, ttl).Return(nil)
	s.NoError(s.resolver.Remember(context.Background(), s.alice))
}

func (s *ResolverSuite) TestOpenBreakerBypassesCache() {
	now := time.Date(2024, 10, 16, 9, 0, 0, 0, time.Local)
	breaker := circuit.New("user-cache",
		circuit.WithFailureThreshold(1),
		circuit.WithSuccessThreshold(1),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return now }),
	)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := New(s.cache, s.users, ttl, logger, WithMetrics(s.metrics), WithBreaker(breaker))

	s.cache.EXPECT().Get(gomock.Any(), "alice").Return(nil, errors.New("redis down"))
	s.users.EXPECT().FindByUsername(gomock.Any(), "alice").Return(s.storedAlice(), nil).Times(2)

	_, err := r.Resolve(context.Background(), "alice")
	s.Require().NoError(err)
	s.True(breaker.IsOpen())

	// Open: neither Get nor Set reach the cache.
	got, err := r.Resolve(context.Background(), "alice")
	s.Require().NoError(err)
	s.Equal(s.alice, *got)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.UserCacheLookups.WithLabelValues("bypass")))
	s.NoError(r.Remember(context.Background(), s.alice))

	now = now.Add(time.Minute)
	user := s.alice
	s.cache.EXPECT().Get(gomock.Any(), "alice").Return(&user, nil)
	_, err = r.Resolve(context.Background(), "alice")
	s.Require().NoError(err)
	s.False(breaker.IsOpen(), "successful trial call closes the breaker")
}
