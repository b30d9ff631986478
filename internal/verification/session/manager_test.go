package session

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelproof/internal/identity/models"
	"travelproof/internal/platform/logger"
)

func newTestManager() *Manager {
	clk := clock.NewMock()
	return NewManager(Options{
		Clock:     clk,
		Fetcher:   &scriptedFetcher{clock: clk},
		Flags:     NewFlags(),
		Challenge: DefaultChallengeConfig("https://api.example.com/api/verify"),
		Logger:    logger.Discard(),
	})
}

func TestManagerConnectReplacesSession(t *testing.T) {
	m := newTestManager()
	defer m.Close()
	ctx := context.Background()

	first, err := m.Connect(ctx, testWallet)
	require.NoError(t, err)
	assert.Equal(t, WalletSessionID(testWallet), first.Snapshot().SessionID)
	assert.Equal(t, StatusAwaitingChallengeScan, first.Snapshot().Status)

	second, err := m.Connect(ctx, testWallet)
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	select {
	case <-first.Done():
	case <-time.After(time.Second):
		t.Fatal("replaced session was not disposed")
	}
	first.NotifySuccess()
	assert.Equal(t, StatusAwaitingChallengeScan, first.Snapshot().Status)

	got, ok := m.Get(testWallet)
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestManagerDisconnect(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	ctrl, err := m.Connect(ctx, testWallet)
	require.NoError(t, err)

	m.Disconnect(testWallet)
	_, ok := m.Get(testWallet)
	assert.False(t, ok)
	<-ctrl.Done()

	m.Disconnect(testWallet)
}

func TestManagerIsolatesWallets(t *testing.T) {
	m := newTestManager()
	defer m.Close()
	ctx := context.Background()

	a, err := m.Connect(ctx, "0x1111111111111111111111111111111111111111")
	require.NoError(t, err)
	b, err := m.Connect(ctx, "0x2222222222222222222222222222222222222222")
	require.NoError(t, err)
	assert.NotEqual(t, a.Snapshot().SessionID, b.Snapshot().SessionID)

	a.NotifySuccess()
	require.Eventually(t, func() bool {
		return a.Snapshot().Status == StatusDetecting
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, StatusAwaitingChallengeScan, b.Snapshot().Status)
}

func TestManagerConnectRejectsEmptyWallet(t *testing.T) {
	m := newTestManager()
	defer m.Close()

	_, err := m.Connect(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingIdentity)
	_, ok := m.Get("")
	assert.False(t, ok)
}

func TestManagerDisconnectFromCompletionCallback(t *testing.T) {
	clk := clock.NewMock()
	returned := make(chan struct{})
	var m *Manager
	m = NewManager(Options{
		Clock:     clk,
		Fetcher:   &scriptedFetcher{clock: clk},
		Challenge: DefaultChallengeConfig("https://api.example.com/api/verify"),
		Logger:    logger.Discard(),
		OnComplete: func(models.IdentityRecord) {
			m.Disconnect(testWallet)
			close(returned)
		},
	})
	defer m.Close()

	ctrl, err := m.Connect(context.Background(), testWallet)
	require.NoError(t, err)
	ctrl.NotifySuccess()
	require.Eventually(t, func() bool {
		return ctrl.Snapshot().Status == StatusDetecting
	}, time.Second, 5*time.Millisecond)
	clk.Add(3 * time.Second)

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("Disconnect inside OnComplete did not return")
	}
	<-ctrl.Done()
	_, ok := m.Get(testWallet)
	assert.False(t, ok)
}
