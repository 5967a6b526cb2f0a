package bingo

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"
)

// fakeConn is an in-memory Conn for engine tests: inbound messages come
// from a channel the test feeds, outbound messages are recorded and also
// mirrored to a channel for deadline-bounded waiting.
type fakeConn struct {
	in   chan Message
	out  chan Message
	done chan struct{}

	mu       sync.Mutex
	sent     []Message
	closed   bool
	failSend bool

	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:   make(chan Message, 16),
		out:  make(chan Message, 256),
		done: make(chan struct{}),
	}
}

func (c *fakeConn) Send(m Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.failSend {
		return errors.New("send failed")
	}
	c.sent = append(c.sent, m)
	select {
	case c.out <- m:
	default:
	}
	return nil
}

func (c *fakeConn) Receive() (Message, error) {
	select {
	case m, ok := <-c.in:
		if !ok {
			return Message{}, net.ErrClosed
		}
		return m, nil
	case <-c.done:
		return Message{}, net.ErrClosed
	}
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) countType(t MsgType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.sent {
		if m.Type == t {
			n++
		}
	}
	return n
}

func waitFor(t *testing.T, c *fakeConn, want MsgType) Message {
	t.Helper()
	deadline := time.NewTimer(2 * time.Second)
	defer deadline.Stop()
	for {
		select {
		case m := <-c.out:
			if m.Type == want {
				return m
			}
			// ignore other messages (player_joined, draw, etc.)
		case <-deadline.C:
			t.Fatalf("timeout waiting for %q", want)
		}
	}
}

func waitState(t *testing.T, m *Match, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.State() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("state %v, want %v", m.State(), want)
}

func alwaysWin([5][5]bool) bool { return true }

func neverWin([5][5]bool) bool { return false }
