package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clearledger/pkg/domain"
	audit "clearledger/pkg/platform/audit"
	"clearledger/pkg/platform/audit/store/memory"
	"clearledger/pkg/requestcontext"
)

const alice = domain.UserID("US2410160001")

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	ctx := requestcontext.WithRequestID(context.Background(), "req-1")
	ctx = requestcontext.WithClientIP(ctx, "203.0.113.9")
	err := pub.Emit(ctx, audit.Event{UserID: alice, Action: string(audit.EventUserRegistered)})
	require.NoError(t, err)

	events, err := store.ListByUser(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventUserRegistered), events[0].Action)
	assert.NotEmpty(t, events[0].ID)
	assert.Equal(t, "req-1", events[0].RequestID)
	assert.Equal(t, "203.0.113.9", events[0].ClientIP)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	for range 10 {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{UserID: alice, Action: string(audit.EventLoginSucceeded)}))
	}

	pub.Close()
	pub.Close()

	events, err := store.ListByUser(context.Background(), alice)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

type blockingStore struct {
	release chan struct{}
	*memory.InMemoryStore
}

func (s *blockingStore) Append(ctx context.Context, e audit.Event) error {
	<-s.release
	return s.InMemoryStore.Append(ctx, e)
}

func TestPublisher_BufferFull_DropsEvent(t *testing.T) {
	store := &blockingStore{release: make(chan struct{}), InMemoryStore: memory.NewInMemoryStore()}
	pub := NewPublisher(store, WithAsyncBuffer(1))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var dropped int
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if errors.Is(pub.Emit(context.Background(), audit.Event{UserID: alice, Action: "x"}), ErrBufferFull) {
				mu.Lock()
				dropped++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	close(store.release)
	pub.Close()

	assert.Positive(t, dropped)
	all, err := store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, len(all)+dropped)
}

func TestPublisher_Timestamps(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	before := time.Now()
	require.NoError(t, pub.Emit(context.Background(), audit.Event{UserID: alice, Action: "a"}))
	after := time.Now()

	custom := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, pub.Emit(context.Background(), audit.Event{UserID: alice, Action: "b", Timestamp: custom}))

	events, err := store.ListByUser(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.False(t, events[0].Timestamp.Before(before))
	assert.False(t, events[0].Timestamp.After(after))
	assert.Equal(t, custom, events[1].Timestamp)
}

func TestPublisher_AsyncCancelledContext(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(1))
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, pub.Emit(ctx, audit.Event{Action: "a"}), context.Canceled)
}
