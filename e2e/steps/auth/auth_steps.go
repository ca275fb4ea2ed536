package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	Username(name string) string
	SetToken(username, token string)
	GetToken(username string) string
}

// RegisterSteps registers registration, login and current-user steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &authSteps{tc: tc}

	// Registration and login
	ctx.Step(`^a registered user "([^"]*)" with password "([^"]*)"$`, steps.registeredUser)
	ctx.Step(`^I register "([^"]*)" with password "([^"]*)"$`, steps.register)
	ctx.Step(`^"([^"]*)" logs in with password "([^"]*)"$`, steps.login)
	ctx.Step(`^"([^"]*)" is logged in$`, steps.loggedIn)

	// Current user
	ctx.Step(`^"([^"]*)" requests the current user$`, steps.requestCurrentUser)
	ctx.Step(`^"([^"]*)" requests the current user with authorization "([^"]*)"$`, steps.requestCurrentUserWithHeader)
	ctx.Step(`^I request the current user without credentials$`, steps.requestAnonymously)
	ctx.Step(`^I request the current user with token "([^"]*)"$`, steps.requestWithToken)
	ctx.Step(`^the response should describe user "([^"]*)"$`, steps.responseDescribesUser)
}

type authSteps struct {
	tc TestContext
}

func (s *authSteps) register(_ context.Context, name, password string) error {
	username := s.tc.Username(name)
	return s.tc.POST("/api/auth/register", map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": password,
	})
}

func (s *authSteps) registeredUser(ctx context.Context, name, password string) error {
	if err := s.register(ctx, name, password); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != 201 {
		return fmt.Errorf("register %s: status %d: %s", name, status, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *authSteps) login(_ context.Context, name, password string) error {
	err := s.tc.POST("/api/auth/login", map[string]any{
		"username": s.tc.Username(name),
		"password": password,
	})
	if err != nil || s.tc.GetLastResponseStatus() != 200 {
		return err
	}
	token, err := s.tc.GetResponseField("token")
	if err != nil {
		return err
	}
	s.tc.SetToken(name, token.(string))
	return nil
}

func (s *authSteps) loggedIn(ctx context.Context, name string) error {
	if err := s.login(ctx, name, "secret"); err != nil {
		return err
	}
	if s.tc.GetToken(name) == "" {
		return fmt.Errorf("login %s: status %d: %s", name, s.tc.GetLastResponseStatus(), s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *authSteps) requestCurrentUser(_ context.Context, name string) error {
	return s.tc.GET("/api/users/me", map[string]string{
		"Authorization": "Bearer " + s.tc.GetToken(name),
	})
}

// requestCurrentUserWithHeader substitutes {token} in header with the user's
// token.
func (s *authSteps) requestCurrentUserWithHeader(_ context.Context, name, header string) error {
	return s.tc.GET("/api/users/me", map[string]string{
		"Authorization": strings.ReplaceAll(header, "{token}", s.tc.GetToken(name)),
	})
}

func (s *authSteps) requestAnonymously(_ context.Context) error {
	return s.tc.GET("/api/users/me", nil)
}

func (s *authSteps) requestWithToken(_ context.Context, token string) error {
	return s.tc.GET("/api/users/me", map[string]string{
		"Authorization": "Bearer " + token,
	})
}

func (s *authSteps) responseDescribesUser(_ context.Context, name string) error {
	got, err := s.tc.GetResponseField("username")
	if err != nil {
		return err
	}
	if want := s.tc.Username(name); got != want {
		return fmt.Errorf("expected username %q, got %v", want, got)
	}
	id, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	if raw, _ := id.(string); !strings.HasPrefix(raw, "US") {
		return fmt.Errorf("user id %v does not carry the US type code", id)
	}
	return nil
}
