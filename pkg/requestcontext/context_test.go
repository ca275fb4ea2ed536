package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"clearledger/pkg/domain"
)

func TestUserHolder(t *testing.T) {
	base := context.Background()
	_, ok := User(base)
	assert.False(t, ok)
	assert.True(t, UserID(base).IsZero())

	alice := domain.BusinessUser{ID: "US2410160001", Username: "alice", Email: "alice@example.com"}
	ctx := WithUser(base, alice)

	got, ok := User(ctx)
	assert.True(t, ok)
	assert.Equal(t, alice, got)
	assert.Equal(t, alice.ID, UserID(ctx))

	_, ok = User(base)
	assert.False(t, ok, "parent context must not observe the derived user")
}

func TestNowFallsBack(t *testing.T) {
	fixed := time.Date(2024, 10, 16, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, fixed, Now(WithTime(context.Background(), fixed)))
	assert.WithinDuration(t, time.Now(), Now(context.Background()), time.Second)
}
