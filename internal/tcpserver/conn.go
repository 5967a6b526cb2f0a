package tcpserver

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"bingohall/internal/bingo"
)

const outboundBuffer = 32

var errSlowClient = errors.New("outbound buffer full")

// lineConn adapts a net.Conn to the engine's Conn contract with
// newline-delimited text framing. Outbound messages go through a buffered
// channel drained by a single writer goroutine, so broadcasts never block
// on one slow socket; a full buffer surfaces as a send error and the match
// sweeps the player out like any other transport failure.
type lineConn struct {
	conn net.Conn
	r    *bufio.Reader
	out  chan string

	mu     sync.Mutex
	closed bool
}

func newLineConn(conn net.Conn) *lineConn {
	c := &lineConn{
		conn: conn,
		r:    bufio.NewReader(conn),
		out:  make(chan string, outboundBuffer),
	}
	go c.writeLoop()
	return c
}

func (c *lineConn) writeLoop() {
	w := bufio.NewWriter(c.conn)
	for msg := range c.out {
		// Best-effort. If the connection breaks, just stop the writer;
		// the next Receive fails and the player is removed there.
		if _, err := w.WriteString(msg + "\n"); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}

func (c *lineConn) Send(msg bingo.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return net.ErrClosed
	}
	select {
	case c.out <- msg.Encode():
		return nil
	default:
		return errSlowClient
	}
}

func (c *lineConn) Receive() (bingo.Message, error) {
	line, err := readLine(c.r)
	if err != nil {
		return bingo.Message{}, err
	}
	return bingo.ParseMessage(line), nil
}

func (c *lineConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.out)
	return c.conn.Close()
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err == nil {
		return strings.TrimRight(line, "\r\n"), nil
	}
	if err == io.EOF && line != "" {
		// last line without newline
		return strings.TrimRight(line, "\r\n"), nil
	}
	if err == io.EOF {
		return "", io.EOF
	}
	return "", fmt.Errorf("read: %w", err)
}
