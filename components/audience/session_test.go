package audience

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSessionStore(t *testing.T) {
	store := NewCacheSessionStore(time.Minute, time.Minute)
	ctx := context.Background()
	session := NewSession("", NewBuilder(BuilderOptions{}), fixedNow)
	assert.True(t, strings.HasPrefix(session.ID, "session-"))

	require.NoError(t, store.Save(ctx, session))
	assert.Equal(t, 1, store.Len())

	got, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Same(t, session, got)

	require.NoError(t, store.Delete(ctx, session.ID))
	_, err = store.Get(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.ErrorIs(t, store.Save(ctx, &Session{}), ErrMissingSessionID)
}

func TestCacheSessionStoreCreateIsExclusive(t *testing.T) {
	store := NewCacheSessionStore(time.Minute, time.Minute)
	ctx := context.Background()

	const attempts = 32
	var wg sync.WaitGroup
	var created atomic.Int32
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Create(ctx, NewSession("shared", NewBuilder(BuilderOptions{}), fixedNow))
			if err == nil {
				created.Add(1)
				return
			}
			assert.ErrorIs(t, err, ErrSessionExists)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, 1, store.Len())
	assert.ErrorIs(t, store.Create(ctx, &Session{}), ErrMissingSessionID)
}

func TestCacheSessionStoreGetAfterDelete(t *testing.T) {
	store := NewCacheSessionStore(time.Minute, time.Minute)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, NewSession("gone", NewBuilder(BuilderOptions{}), fixedNow)))
	require.NoError(t, store.Delete(ctx, "gone"))
	_, err := store.Get(ctx, "gone")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Zero(t, store.Len())
}

func TestCacheSessionStoreExpiresIdleSessions(t *testing.T) {
	store := NewCacheSessionStore(20*time.Millisecond, time.Hour)
	ctx := context.Background()
	session := NewSession("short", NewBuilder(BuilderOptions{}), fixedNow)
	require.NoError(t, store.Save(ctx, session))

	time.Sleep(40 * time.Millisecond)
	_, err := store.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionDoPropagatesErrors(t *testing.T) {
	session := NewSession("s", NewBuilder(BuilderOptions{}), fixedNow)
	err := session.Do(func(b *Builder) error {
		return b.RemoveGroup(context.Background(), 0)
	})
	assert.ErrorIs(t, err, ErrGroupIndex)
}
