package user

import (
	"context"
	"strings"
	"sync"

	"clearledger/internal/auth/models"
	"clearledger/pkg/domain"
	"clearledger/pkg/platform/sentinel"
)

// InMemoryUserStore keeps users in maps indexed the way the Postgres store's
// unique constraints are.
type InMemoryUserStore struct {
	mu         sync.RWMutex
	byID       map[domain.UserID]*models.User
	byUsername map[string]domain.UserID
	byEmail    map[string]domain.UserID
}

// New constructs an empty store.
func New() *InMemoryUserStore {
	return &InMemoryUserStore{
		byID:       make(map[domain.UserID]*models.User),
		byUsername: make(map[string]domain.UserID),
		byEmail:    make(map[string]domain.UserID),
	}
}

// Create inserts user, rejecting duplicate usernames or emails.
func (s *InMemoryUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUsername[user.Username]; ok {
		return ErrUsernameConflict
	}
	email := strings.ToLower(user.Email)
	if _, ok := s.byEmail[email]; ok {
		return ErrEmailConflict
	}
	stored := *user
	s.byID[user.ID] = &stored
	s.byUsername[user.Username] = user.ID
	s.byEmail[email] = user.ID
	return nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, id domain.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyOf(id)
}

func (s *InMemoryUserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[username]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.copyOf(id)
}

func (s *InMemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.copyOf(id)
}

func (s *InMemoryUserStore) copyOf(id domain.UserID) (*models.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *u
	return &out, nil
}
