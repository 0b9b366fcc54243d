// internal/redemption/session.go
package redemption

import (
	"context"
	"sync"
	"time"

	"hicompanion/internal/logger"
)

// DefaultInterval is how often a fresh redemption token is requested while
// the session is polling.
const DefaultInterval = 15 * time.Second

type State int

const (
	StateIdle State = iota
	StatePolling
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateStopped:
		return "stopped"
	default:
		return "invalid"
	}
}

// TokenGateway is the slice of the API client the session needs.
type TokenGateway interface {
	RedemptionQR(ctx context.Context) (string, error)
}

// Config carries the polling interval and the callback surface. Callbacks
// are invoked from the session's polling goroutine.
type Config struct {
	Interval time.Duration
	OnToken  func(token string)
	OnError  func(err error)
}

// Session requests a fresh redemption token on a fixed interval while the
// redemption screen is open. A failed fetch halts polling: failures here
// usually mean the cart went invalid between polls (item sold out, balance
// spent), so continuing would keep rendering a dead QR.
//
// Stop cancels both the pending scheduled poll and any in-flight request,
// so no gateway call survives teardown. Start and Stop are idempotent.
type Session struct {
	gw  TokenGateway
	cfg Config

	mu     sync.Mutex
	state  State
	gen    uint64 // bumped on every Start; suppresses callbacks from cancelled runs
	cancel context.CancelFunc
}

func NewSession(gw TokenGateway, cfg Config) *Session {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Session{gw: gw, cfg: cfg}
}

// Start begins polling. No-op when already polling. Starting again after a
// stop begins a fresh polling run.
func (s *Session) Start() {
	s.mu.Lock()
	if s.state == StatePolling {
		s.mu.Unlock()
		return
	}
	s.state = StatePolling
	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	logger.LogInfo("Redemption session polling every %v", s.cfg.Interval)
	go s.run(ctx, gen)
}

// Stop halts polling and cancels the pending poll. No-op when not polling.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePolling {
		return
	}
	s.state = StateStopped
	s.cancel()
	s.cancel = nil
	logger.LogInfo("Redemption session stopped")
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) run(ctx context.Context, gen uint64) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		token, err := s.gw.RedemptionQR(ctx)
		if ctx.Err() != nil {
			// Stopped while the request was in flight; drop the result.
			return
		}
		if err != nil {
			s.halt(gen)
			logger.LogWarn("Redemption token fetch failed, polling halted: %v", err)
			if s.cfg.OnError != nil {
				s.cfg.OnError(err)
			}
			return
		}

		if !s.current(gen) {
			return
		}
		if s.cfg.OnToken != nil {
			s.cfg.OnToken(token)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.Interval):
		}
	}
}

// halt transitions to Stopped after a failed poll, unless this run was
// already superseded by a newer Start.
func (s *Session) halt(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.state != StatePolling {
		return
	}
	s.state = StateStopped
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// current reports whether this run is still the live one.
func (s *Session) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen && s.state == StatePolling
}
