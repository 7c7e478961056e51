package stream

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"benchmark-server/src/helpers"
	"benchmark-server/src/interfaces"
	"benchmark-server/src/logger"
	"benchmark-server/src/models"
)

// -----------------------------------------------------------------------------

// StreamSupervisor owns the streaming connection lifecycle: connect,
// subscribe the full registry snapshot, dispatch inbound ticks into the
// quote store, and on any transport error back off a fixed delay and
// reconnect, forever. "connected" is published only after the first tick
// lands, to distinguish a connected socket from one actually receiving data.
type StreamSupervisor struct {
	Provider interfaces.IProviderClient
	Registry *SubscriptionRegistry
	Quotes   *QuoteStore
	Status   *StatusTracker
	Logger   *logger.Logger
	Backoff  BackoffPolicy

	// OnTick, when set, receives every tick after the quote store update
	// (used to feed the websocket push hub). Must not block.
	OnTick func(models.MTick)

	// Live connection handle: written by Run, read by the dynamic-subscribe
	// path. Guarded so a dynamic add sees either no connection or a stable
	// one, never a half-initialized handle.
	connMu sync.Mutex
	conn   interfaces.IStreamConnection

	running atomic.Bool
}

// -----------------------------------------------------------------------------

func NewStreamSupervisor(provider interfaces.IProviderClient, registry *SubscriptionRegistry,
	quotes *QuoteStore, backoff BackoffPolicy, log *logger.Logger) *StreamSupervisor {
	return &StreamSupervisor{
		Provider: provider,
		Registry: registry,
		Quotes:   quotes,
		Status:   NewStatusTracker(),
		Logger:   log,
		Backoff:  backoff,
	}
}

// -----------------------------------------------------------------------------

// Run drives the connect/subscribe/stream/reconnect loop until ctx is
// cancelled. Errors never stop the loop; each one publishes an error status
// and triggers the fixed backoff before the next attempt.
func (s *StreamSupervisor) Run(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.Logger.Warning("Supervisor already running")
		return
	}
	defer s.running.Store(false)

	for {
		if ctx.Err() != nil {
			return
		}

		err := s.runOnce(ctx)
		if err == nil {
			// A clean return is still an unexpected end-of-stream.
			err = helpers.NewConnectionError("stream closed", nil)
		}
		s.Logger.Error("Stream error: %v", err)
		s.Status.SetError(err.Error())

		s.setConn(nil)

		if ctx.Err() != nil {
			return
		}
		s.Backoff.Sleep(ctx)
	}
}

// -----------------------------------------------------------------------------

// runOnce performs one full connection cycle: connect, subscribe the current
// registry snapshot, then stream until the connection fails.
func (s *StreamSupervisor) runOnce(ctx context.Context) error {
	s.Status.Set(StatusConnecting)

	conn, err := s.Provider.ConnectStream()
	if err != nil {
		return err
	}
	defer conn.Close()

	// Subscription always uses the current snapshot, so symbols added while
	// disconnected are picked up on this cycle.
	symbols := s.Registry.Snapshot()
	if err := conn.Subscribe(symbols); err != nil {
		return err
	}
	s.Logger.Info("Subscribed to %d symbols", len(symbols))

	s.setConn(conn)

	firstTick := false
	return conn.Listen(func(tick models.MTick) {
		if !firstTick {
			firstTick = true
			s.Status.Set(StatusConnected)
		}
		s.Quotes.Update(tick)
		if s.OnTick != nil {
			s.OnTick(tick)
		}
	})
}

// -----------------------------------------------------------------------------

// EnsureSubscribed registers live interest in a symbol. Returns true when
// the symbol was newly added. For a new symbol with a live connection an
// incremental subscribe is attempted immediately; if that fails it is only
// logged — the symbol is still re-subscribed on the next reconnect cycle.
func (s *StreamSupervisor) EnsureSubscribed(symbol string) bool {
	symbol = strings.ToUpper(symbol)

	newly := s.Registry.Add(symbol)
	if !newly {
		return false
	}

	s.connMu.Lock()
	conn := s.conn
	if conn != nil {
		if err := conn.Subscribe([]string{symbol}); err != nil {
			s.Logger.Warning("Dynamic subscribe for %s failed (picked up on reconnect): %v", symbol, err)
		} else {
			s.Logger.Info("Dynamically subscribed to %s", symbol)
		}
	}
	s.connMu.Unlock()

	return true
}

// -----------------------------------------------------------------------------

func (s *StreamSupervisor) setConn(conn interfaces.IStreamConnection) {
	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()
}
