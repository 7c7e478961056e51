package stream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"benchmark-server/src/interfaces"
	"benchmark-server/src/logger"
	"benchmark-server/src/models"
)

// -----------------------------------------------------------------------------
// Fakes
// -----------------------------------------------------------------------------

type fakeConn struct {
	mu         sync.Mutex
	subscribed [][]string
	subErr     error

	ticks chan models.MTick
	errs  chan error
	done  chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		ticks: make(chan models.MTick, 16),
		errs:  make(chan error, 1),
		done:  make(chan struct{}),
	}
}

func (c *fakeConn) Subscribe(symbols []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subErr != nil {
		return c.subErr
	}
	c.subscribed = append(c.subscribed, append([]string(nil), symbols...))
	return nil
}

func (c *fakeConn) setSubErr(err error) {
	c.mu.Lock()
	c.subErr = err
	c.mu.Unlock()
}

func (c *fakeConn) calls() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]string, len(c.subscribed))
	copy(out, c.subscribed)
	return out
}

func (c *fakeConn) Listen(onTick func(models.MTick)) error {
	for {
		select {
		case tick := <-c.ticks:
			onTick(tick)
		case err := <-c.errs:
			return err
		case <-c.done:
			return errors.New("connection closed")
		}
	}
}

func (c *fakeConn) Close() error {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	return nil
}

type fakeProvider struct {
	conns chan *fakeConn
}

func (p *fakeProvider) ConnectStream() (interfaces.IStreamConnection, error) {
	conn, ok := <-p.conns
	if !ok {
		return nil, errors.New("no more connections")
	}
	return conn, nil
}

func (p *fakeProvider) FetchDailyBars(string, models.MRangeSpec) ([]models.MDailyBar, error) {
	return nil, errors.New("not implemented")
}

func (p *fakeProvider) FetchIntradayBars(string, string, string) ([]models.MIntradayBar, error) {
	return nil, errors.New("not implemented")
}

func (p *fakeProvider) FetchQuote(string) (*models.MQuoteSnapshot, error) {
	return nil, errors.New("not implemented")
}

// -----------------------------------------------------------------------------

func newTestSupervisor(provider *fakeProvider, initial []string) *StreamSupervisor {
	return NewStreamSupervisor(
		provider,
		NewSubscriptionRegistry(initial),
		NewQuoteStore(),
		FixedBackoff{Delay: 0},
		logger.NewLogger(nil, "test"),
	)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// -----------------------------------------------------------------------------
// Tests
// -----------------------------------------------------------------------------

func TestSupervisorConnectedOnlyAfterFirstTick(t *testing.T) {
	conn := newFakeConn()
	provider := &fakeProvider{conns: make(chan *fakeConn, 1)}
	provider.conns <- conn

	s := newTestSupervisor(provider, []string{"QQQ"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	// Subscribed but no tick yet: still connecting
	waitFor(t, "initial subscribe", func() bool { return len(conn.calls()) == 1 })
	if state, _ := s.Status.Get(); state != StatusConnecting {
		t.Errorf("status before first tick = %q, want %q", state, StatusConnecting)
	}

	conn.ticks <- models.MTick{Symbol: "QQQ", Price: 500.0}

	waitFor(t, "connected status", func() bool {
		state, _ := s.Status.Get()
		return state == StatusConnected
	})

	tick, ok := s.Quotes.Get("QQQ")
	if !ok || tick.Price != 500.0 {
		t.Errorf("quote store tick = %+v ok=%v, want price 500.0", tick, ok)
	}
}

func TestSupervisorReconnectsWithGrownSnapshot(t *testing.T) {
	conn1 := newFakeConn()
	conn2 := newFakeConn()
	provider := &fakeProvider{conns: make(chan *fakeConn, 2)}
	provider.conns <- conn1

	s := newTestSupervisor(provider, []string{"QQQ"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	waitFor(t, "first subscribe", func() bool { return len(conn1.calls()) == 1 })

	// Symbol added while the first connection is live, then the connection
	// dies. The reconnect must subscribe the grown snapshot.
	s.EnsureSubscribed("NVDA")
	conn1.errs <- errors.New("remote reset")
	provider.conns <- conn2

	waitFor(t, "second subscribe", func() bool { return len(conn2.calls()) >= 1 })

	got := conn2.calls()[0]
	want := []string{"NVDA", "QQQ"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("reconnect subscribed %v, want %v", got, want)
	}
}

// blockingBackoff parks the supervisor between attempts until released, so
// tests can observe the in-between state without racing the next cycle.
type blockingBackoff struct {
	release chan struct{}
}

func (b *blockingBackoff) Sleep(ctx context.Context) {
	select {
	case <-b.release:
	case <-ctx.Done():
	}
}

func TestSupervisorErrorStatusBetweenConnections(t *testing.T) {
	conn := newFakeConn()
	provider := &fakeProvider{conns: make(chan *fakeConn, 1)}
	provider.conns <- conn

	s := newTestSupervisor(provider, []string{"SPY"})
	s.Backoff = &blockingBackoff{release: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	waitFor(t, "subscribe", func() bool { return len(conn.calls()) == 1 })
	conn.errs <- errors.New("remote reset")

	// The supervisor parks in the backoff after publishing the error.
	waitFor(t, "error status", func() bool {
		state, _ := s.Status.Get()
		return state == StatusError
	})
	if _, detail := s.Status.Get(); detail != "remote reset" {
		t.Errorf("error detail = %q, want %q", detail, "remote reset")
	}
}

func TestEnsureSubscribedDynamic(t *testing.T) {
	conn := newFakeConn()
	provider := &fakeProvider{conns: make(chan *fakeConn, 1)}
	provider.conns <- conn

	s := newTestSupervisor(provider, []string{"QQQ"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	waitFor(t, "initial subscribe", func() bool { return len(conn.calls()) == 1 })

	if !s.EnsureSubscribed("nvda") {
		t.Error("EnsureSubscribed should report newly added")
	}
	waitFor(t, "dynamic subscribe", func() bool { return len(conn.calls()) == 2 })

	calls := conn.calls()
	if len(calls[1]) != 1 || calls[1][0] != "NVDA" {
		t.Errorf("dynamic subscribe sent %v, want [NVDA]", calls[1])
	}

	// Repeat add is a no-op
	if s.EnsureSubscribed("NVDA") {
		t.Error("repeat EnsureSubscribed should report false")
	}
	if got := len(conn.calls()); got != 2 {
		t.Errorf("repeat add should not resubscribe, got %d calls", got)
	}
}

func TestEnsureSubscribedFailureStillRegisters(t *testing.T) {
	conn := newFakeConn()
	provider := &fakeProvider{conns: make(chan *fakeConn, 1)}
	provider.conns <- conn

	s := newTestSupervisor(provider, []string{"QQQ"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	waitFor(t, "initial subscribe", func() bool { return len(conn.calls()) == 1 })
	conn.setSubErr(errors.New("write failed"))

	if !s.EnsureSubscribed("AMD") {
		t.Error("EnsureSubscribed should still report newly added on wire failure")
	}
	if !s.Registry.Contains("AMD") {
		t.Error("symbol must stay registered so the reconnect picks it up")
	}
}

func TestSupervisorStopsOnCancel(t *testing.T) {
	conn := newFakeConn()
	provider := &fakeProvider{conns: make(chan *fakeConn, 2)}
	provider.conns <- conn

	s := newTestSupervisor(provider, []string{"QQQ"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	waitFor(t, "subscribe", func() bool { return len(conn.calls()) == 1 })
	cancel()
	conn.errs <- errors.New("remote reset")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
