package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// Manager keeps at most one live session per wallet.
type Manager struct {
	opts     Options
	logger   *slog.Logger
	mu       sync.Mutex
	sessions map[string]*Controller
}

// NewManager creates sessions with opts as their shared wiring.
func NewManager(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{opts: opts, logger: logger, sessions: make(map[string]*Controller)}
}

// Connect starts a session for wallet, disposing any session already bound to it.
func (m *Manager) Connect(ctx context.Context, wallet string) (*Controller, error) {
	key := strings.ToLower(strings.TrimSpace(wallet))
	ctrl := NewController(WalletSessionID(key), wallet, m.opts)

	m.mu.Lock()
	prev := m.sessions[key]
	m.sessions[key] = ctrl
	m.mu.Unlock()

	if prev != nil {
		prev.Dispose()
		m.logger.InfoContext(ctx, "replaced verification session", "wallet_address", wallet)
	}
	if err := ctrl.Start(ctx); err != nil {
		m.mu.Lock()
		if m.sessions[key] == ctrl {
			delete(m.sessions, key)
		}
		m.mu.Unlock()
		return nil, err
	}
	return ctrl, nil
}

// Disconnect disposes the wallet's session, if any.
func (m *Manager) Disconnect(wallet string) {
	key := strings.ToLower(strings.TrimSpace(wallet))
	m.mu.Lock()
	ctrl := m.sessions[key]
	delete(m.sessions, key)
	m.mu.Unlock()
	if ctrl != nil {
		ctrl.Dispose()
	}
}

// Get returns the wallet's live session.
func (m *Manager) Get(wallet string) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctrl, ok := m.sessions[strings.ToLower(strings.TrimSpace(wallet))]
	return ctrl, ok
}

// Close disposes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Controller)
	m.mu.Unlock()
	for _, ctrl := range all {
		ctrl.Dispose()
	}
}
