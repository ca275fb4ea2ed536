package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"clearledger/internal/auth/authn"
	"clearledger/internal/auth/handler/mocks"
	"clearledger/internal/auth/models"
	"clearledger/internal/platform/middleware"
	"clearledger/pkg/domain"
	"clearledger/pkg/testutil"
)

var alice = domain.BusinessUser{ID: "US2410160001", Username: "alice", Email: "alice@example.com"}

type AuthHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerSuite))
}

func (s *AuthHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	limiter := middleware.NewRateLimiter(3, logger)

	s.router = chi.NewRouter()
	New(s.service, logger, limiter.Middleware).Register(s.router)
}

func (s *AuthHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *AuthHandlerSuite) TestRegister() {
	s.Run("created", func() {
		s.service.EXPECT().Register(gomock.Any(), models.RegisterRequest{
			Username: "alice", Email: "alice@example.com", Password: "secret",
		}).Return(&alice, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/auth/register", map[string]string{
			"username": "alice", "email": "alice@example.com", "password": "secret",
		})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		got := testutil.UnmarshalResponse[domain.BusinessUser](s.T(), rr)
		s.Equal(alice, *got)
	})

	s.Run("username taken", func() {
		s.service.EXPECT().Register(gomock.Any(), gomock.Any()).Return(nil, authn.ErrUsernameTaken)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/auth/register", map[string]string{"username": "alice"})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndMessage(s.T(), rr, http.StatusConflict, "username already taken")
	})

	s.Run("malformed body", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/api/auth/register", "{")
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndMessage(s.T(), rr, http.StatusBadRequest, "invalid request body")
	})

	s.Run("unexpected failure is hidden", func() {
		s.service.EXPECT().Register(gomock.Any(), gomock.Any()).Return(nil, errors.New("pq: connection refused"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/auth/register", map[string]string{"username": "alice"})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndMessage(s.T(), rr, http.StatusInternalServerError, "internal server error")
	})
}

func (s *AuthHandlerSuite) TestLogin() {
	s.Run("success", func() {
		expires := time.Date(2024, 10, 23, 9, 0, 0, 0, time.UTC)
		s.service.EXPECT().Login(gomock.Any(), models.LoginRequest{Username: "alice", Password: "secret"}).
			Return(&models.LoginResult{Token: "jwt", TokenType: "Bearer", ExpiresAt: expires, User: alice}, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/auth/login", map[string]string{"username": "alice", "password": "secret"})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		got := testutil.UnmarshalResponse[models.LoginResult](s.T(), rr)
		s.Equal("jwt", got.Token)
		s.Equal(alice, got.User)
		s.True(expires.Equal(got.ExpiresAt))
	})

	s.Run("wrong password", func() {
		s.service.EXPECT().Login(gomock.Any(), gomock.Any()).Return(nil, authn.ErrInvalidCredentials)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/auth/login", map[string]string{"username": "alice", "password": "nope"})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndMessage(s.T(), rr, http.StatusUnauthorized, "username/password mismatch.")
	})
}

func (s *AuthHandlerSuite) TestLoginIsRateLimited() {
	s.service.EXPECT().Login(gomock.Any(), gomock.Any()).Return(nil, authn.ErrInvalidCredentials).Times(3)

	var last int
	for range 4 {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/auth/login", map[string]string{"username": "alice", "password": "x"})
		req.RemoteAddr = "198.51.100.7:4000"
		last = testutil.DoRequest(s.router, req).Code
	}
	s.Equal(http.StatusTooManyRequests, last)
}

func (s *AuthHandlerSuite) TestMe() {
	s.Run("anonymous", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/users/me", nil))
		testutil.AssertStatusAndMessage(s.T(), rr, http.StatusUnauthorized, "please log in first.")
	})

	s.Run("authenticated", func() {
		s.service.EXPECT().Me(gomock.Any()).Return(&alice, nil)

		req := testutil.WithUser(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/users/me", nil), alice)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		s.Equal(alice, *testutil.UnmarshalResponse[domain.BusinessUser](s.T(), rr))
	})
}
