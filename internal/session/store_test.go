package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/okhomin/freightbot/internal/dialogue"
	"github.com/okhomin/freightbot/internal/model"
	"github.com/okhomin/freightbot/internal/session"
)

func newTestStore(t *testing.T) (*session.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return session.New(client, session.WithTTL(time.Hour)), mr
}

func TestStoreRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sess := &dialogue.Session{
		State: dialogue.StateFirstOrder,
		Step:  dialogue.StepToLocation,
		Data:  map[string]string{"from_location": "Warsaw"},
		Seq:   3,
	}
	require.NoError(t, store.Set(ctx, 42, sess))

	got, err := store.Get(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, sess.State, got.State)
	require.Equal(t, sess.Step, got.Step)
	require.Equal(t, sess.Data, got.Data)
	require.Equal(t, sess.Seq, got.Seq)
}

func TestStoreGetMissing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), 7)
	require.True(t, errors.Is(err, model.ErrNotFound))
}

func TestStoreTTLExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	sess := &dialogue.Session{State: dialogue.StateBasicInfo, Step: dialogue.StepFirstName}
	require.NoError(t, store.Set(ctx, 9, sess))

	mr.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, 9)
	require.True(t, errors.Is(err, model.ErrNotFound))
}

func TestStoreUpdateField(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sess := &dialogue.Session{State: dialogue.StateFirstOrder, Step: dialogue.StepDescription, Seq: 1}
	require.NoError(t, store.Set(ctx, 11, sess))
	require.NoError(t, store.UpdateField(ctx, 11, "description", "pallet of bricks"))

	got, err := store.Get(ctx, 11)
	require.NoError(t, err)
	require.Equal(t, "pallet of bricks", got.Data["description"])
	require.Equal(t, dialogue.StepDescription, got.Step)
}

func TestStoreDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sess := &dialogue.Session{State: dialogue.StateRoleSelection}
	require.NoError(t, store.Set(ctx, 5, sess))
	require.NoError(t, store.Delete(ctx, 5))

	_, err := store.Get(ctx, 5)
	require.True(t, errors.Is(err, model.ErrNotFound))

	// deleting a missing entry is not an error
	require.NoError(t, store.Delete(ctx, 5))
}
