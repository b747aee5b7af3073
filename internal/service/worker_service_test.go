package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCleanupWorker_RunOnce(t *testing.T) {
	f := newFixture(t)
	f.user(t, "meera", "warden", "")

	kept, err := f.auth.Login("meera", "secret123")
	require.NoError(t, err)
	revoked, err := f.auth.Login("meera", "secret123")
	require.NoError(t, err)
	require.NoError(t, f.auth.Logout(revoked.RefreshToken))

	worker := NewSessionCleanupWorker(f.userRepo, time.Hour)

	removed, err := worker.RunOnce(time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	_, err = f.auth.RefreshAccessToken(kept.RefreshToken)
	assert.NoError(t, err)

	// once the refresh expiry has passed the remaining token goes too
	removed, err = worker.RunOnce(time.Now().Add(2 * time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
	_, err = f.auth.RefreshAccessToken(kept.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSessionCleanupWorker_StopsOnCancel(t *testing.T) {
	f := newFixture(t)
	worker := NewSessionCleanupWorker(f.userRepo, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
