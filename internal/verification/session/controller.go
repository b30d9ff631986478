// Package session runs the client-side verification detection state machine:
// it renders a challenge, waits for any completion signal, and pulls the
// finalized record from the backend with a bounded retry.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"

	"travelproof/internal/identity/models"
)

// Config holds the timing of one session. Zero values take the defaults.
type Config struct {
	SettleDelay  time.Duration
	PollInterval time.Duration
	RetryDelay   time.Duration
	MaxAttempts  int
}

// DefaultConfig is the production timing.
func DefaultConfig() Config {
	return Config{
		SettleDelay:  3 * time.Second,
		PollInterval: 5 * time.Second,
		RetryDelay:   2 * time.Second,
		MaxAttempts:  3,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SettleDelay <= 0 {
		c.SettleDelay = d.SettleDelay
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = d.RetryDelay
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	return c
}

// RecordSink is the caller-visible store a verified record is written to.
type RecordSink interface {
	Put(ctx context.Context, key string, record models.IdentityRecord) error
}

// Options wires a Controller to its collaborators. Fetcher is required.
type Options struct {
	Config     Config
	Clock      clock.Clock
	Fetcher    RecordFetcher
	Flags      FlagSource
	Sink       RecordSink
	Sources    []Source
	Challenge  ChallengeConfig
	Logger     *slog.Logger
	OnComplete func(models.IdentityRecord)
	OnFailure  func(Snapshot)
}

var (
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("session already started")
	// ErrDisposed is returned by Start after Dispose.
	ErrDisposed = errors.New("session disposed")
	// ErrMissingIdentity is returned by Start without a wallet or session id.
	ErrMissingIdentity = errors.New("session requires a wallet address and session id")
)

// Controller owns one verification session. All transitions happen on a
// single loop goroutine; signal methods are safe from any goroutine.
type Controller struct {
	sessionID  string
	cfg        Config
	clock      clock.Clock
	fetcher    RecordFetcher
	flags      FlagSource
	sink       RecordSink
	sources    []Source
	challenge  ChallengeConfig
	logger     *slog.Logger
	onComplete func(models.IdentityRecord)
	onFailure  func(Snapshot)

	mu      sync.RWMutex
	snap    Snapshot
	chal    Challenge
	started bool

	// detected flips once; only the signal that flips it reaches the loop.
	detected   atomic.Bool
	disposed   atomic.Bool
	detections chan string
	cancel     context.CancelFunc
	finished   chan struct{}
	wg         sync.WaitGroup
	once       sync.Once
	dispose    sync.Once
}

// NewController creates an Idle session.
func NewController(sessionID, wallet string, opts Options) *Controller {
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		sessionID:  sessionID,
		cfg:        opts.Config.withDefaults(),
		clock:      clk,
		fetcher:    opts.Fetcher,
		flags:      opts.Flags,
		sink:       opts.Sink,
		sources:    opts.Sources,
		challenge:  opts.Challenge,
		logger:     logger.With("session_id", sessionID, "wallet_address", wallet),
		onComplete: opts.OnComplete,
		onFailure:  opts.OnFailure,
		snap: Snapshot{
			SessionID:     sessionID,
			WalletAddress: wallet,
			Status:        StatusIdle,
		},
		detections: make(chan string, 1),
		finished:   make(chan struct{}),
	}
}

// Start builds the challenge, moves to AwaitingChallengeScan and begins
// listening. The loop lives until a terminal state, Dispose, or ctx ends.
func (c *Controller) Start(ctx context.Context) error {
	if c.disposed.Load() {
		return ErrDisposed
	}
	if c.sessionID == "" || c.Snapshot().WalletAddress == "" {
		return ErrMissingIdentity
	}
	if c.fetcher == nil {
		return errors.New("session requires a record fetcher")
	}
	chal, err := NewChallenge(c.challenge, c.sessionID)
	if err != nil {
		return err
	}

	// disposed and started are decided under mu so Dispose either sees the
	// goroutines registered on wg or makes this Start fail.
	c.mu.Lock()
	if c.disposed.Load() {
		c.mu.Unlock()
		return ErrDisposed
	}
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	loopCtx, cancel := context.WithCancel(ctx)
	c.started = true
	c.cancel = cancel
	c.chal = chal
	c.snap.Status = StatusAwaitingChallengeScan
	c.wg.Add(len(c.sources) + 1)
	c.mu.Unlock()
	c.logger.InfoContext(ctx, "verification session awaiting challenge scan")

	for _, src := range c.sources {
		go func(src Source) {
			defer c.wg.Done()
			if err := src.Listen(loopCtx, c.HandleMessage); err != nil {
				c.logger.WarnContext(loopCtx, "signal source stopped", "error", err)
			}
		}(src)
	}
	poll := c.clock.Ticker(c.cfg.PollInterval)
	go func() {
		notify := c.run(loopCtx, cancel, poll)
		c.wg.Done()
		if notify != nil {
			notify()
		}
		close(c.finished)
	}()
	return nil
}

// Challenge returns the rendered challenge; zero before Start.
func (c *Controller) Challenge() Challenge {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.chal
}

// Snapshot returns a copy of the observable state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Done is closed when the session reaches a terminal state or is disposed.
func (c *Controller) Done() <-chan struct{} {
	return c.finished
}

// NotifySuccess is the explicit success callback from the challenge widget.
func (c *Controller) NotifySuccess() {
	c.detect(SignalCallback)
}

// HandleMessage inspects a transport message for a completion marker.
func (c *Controller) HandleMessage(raw []byte) {
	if name, ok := MatchCompletion(raw); ok {
		c.detect(name)
	}
}

// detect lets exactly one signal through per session.
func (c *Controller) detect(source string) {
	if c.disposed.Load() || c.Snapshot().Status != StatusAwaitingChallengeScan {
		return
	}
	if !c.detected.CompareAndSwap(false, true) {
		return
	}
	c.detections <- source
}

// Dispose tears down timers and listeners. A disposed session never
// transitions again. Safe to call more than once, including from OnComplete
// and OnFailure: those run after the loop has released its goroutines.
func (c *Controller) Dispose() {
	c.dispose.Do(func() {
		c.mu.Lock()
		c.disposed.Store(true)
		cancel, started := c.cancel, c.started
		c.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		if !started {
			close(c.finished)
		}
	})
	c.wg.Wait()
}

// run drives the session until it ends and returns the terminal callback,
// if any, for the caller to invoke once the loop is off the wait group.
func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, poll *clock.Ticker) func() {
	defer cancel()
	defer poll.Stop()

	var settle, retry *clock.Timer
	var settleC, retryC <-chan time.Time
	defer func() {
		if settle != nil {
			settle.Stop()
		}
		if retry != nil {
			retry.Stop()
		}
	}()

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(c.cfg.RetryDelay), uint64(c.cfg.MaxAttempts-1))
	policy.Reset()
	arm := func(d time.Duration) {
		retry = c.clock.Timer(d)
		retryC = retry.C
	}
	attempts := 0
	pollC := poll.C
	if c.disposed.Load() {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-pollC:
			if c.flags != nil && c.flags.Completed(ctx, c.sessionID) {
				c.detect(SignalPoll)
			}

		case source := <-c.detections:
			poll.Stop()
			pollC = nil
			settle = c.clock.Timer(c.cfg.SettleDelay)
			settleC = settle.C
			c.update(func(s *Snapshot) {
				s.Status = StatusDetecting
				s.DetectedBy = source
			})
			c.logger.InfoContext(ctx, "verification completion detected", "signal", source)

		case <-settleC:
			settleC = nil
			c.update(func(s *Snapshot) { s.Status = StatusFetching })
			attempts++
			if done, notify := c.attempt(ctx, attempts, policy, arm); done {
				return notify
			}

		case <-retryC:
			retryC = nil
			attempts++
			if done, notify := c.attempt(ctx, attempts, policy, arm); done {
				return notify
			}
		}
	}
}

// attempt runs one fetch and reports whether the session is finished, along
// with the terminal callback to run. On a retryable failure the next timer is
// armed before the snapshot changes so observers of AttemptCount always see a
// pending retry.
func (c *Controller) attempt(ctx context.Context, n int, policy backoff.BackOff, arm func(time.Duration)) (bool, func()) {
	rec, err := c.fetch(ctx)
	if ctx.Err() != nil || c.disposed.Load() {
		return true, nil
	}
	if err == nil {
		return true, c.complete(ctx, n, *rec)
	}

	c.logger.WarnContext(ctx, "verification record fetch failed", "attempt", n, "error", err)
	next := policy.NextBackOff()
	if next == backoff.Stop {
		c.update(func(s *Snapshot) {
			s.Status = StatusFailed
			s.AttemptCount = n
			s.LastError = "verification could not be confirmed: " + err.Error()
		})
		c.logger.ErrorContext(ctx, "verification session failed", "attempts", n)
		if c.onFailure == nil {
			return true, nil
		}
		snap := c.Snapshot()
		return true, func() { c.onFailure(snap) }
	}
	arm(next)
	c.update(func(s *Snapshot) {
		s.AttemptCount = n
		s.LastError = err.Error()
	})
	return false, nil
}

func (c *Controller) fetch(ctx context.Context) (*models.IdentityRecord, error) {
	rec, err := c.fetcher.Fetch(ctx, c.sessionID)
	if err == nil && rec == nil {
		err = errors.New("empty verification record")
	}
	return rec, err
}

func (c *Controller) complete(ctx context.Context, n int, rec models.IdentityRecord) func() {
	if c.sink != nil {
		if err := c.sink.Put(ctx, c.sessionID, rec); err != nil {
			c.logger.WarnContext(ctx, "failed to persist verified record", "error", err)
		}
	}
	c.update(func(s *Snapshot) {
		s.Status = StatusVerified
		s.AttemptCount = n
		s.LastError = ""
	})
	c.logger.InfoContext(ctx, "verification session verified", "attempts", n, "subject_id", rec.SubjectID)
	return func() {
		c.once.Do(func() {
			if c.onComplete != nil {
				c.onComplete(rec)
			}
		})
	}
}

func (c *Controller) update(fn func(*Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.snap)
}
