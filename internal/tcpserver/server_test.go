package tcpserver

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"bingohall/internal/bingo"
)

// TestFullGameOverTCP drives a one-seat match end to end over a real
// socket: handshake, cards, draws, claim, winner broadcast, close.
func TestFullGameOverTCP(t *testing.T) {
	reg := bingo.NewRegistry(nil, nil)
	cfg := bingo.MatchConfig{
		MinPlayers: 1, MaxPlayers: 1,
		Countdown: time.Hour, DrawInterval: time.Millisecond,
		CardsPerPlayer: 1,
		WinRule:        func([5][5]bool) bool { return true },
	}
	srv := NewServer("127.0.0.1:0", bingo.NewDispatcher(reg, cfg, nil), nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Stop()

	conn, err := net.Dial("tcp", srv.Addr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	send := func(line string) {
		t.Helper()
		if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
			t.Fatalf("write %q: %v", line, err)
		}
	}

	send("join:alice")
	send("match:new:private")

	r := bufio.NewReader(conn)
	var sawJoined, sawCard, sawStarted, sawDraw, sawWinner bool
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			break
		}
		msg := bingo.ParseMessage(strings.TrimRight(line, "\n"))
		switch msg.Type {
		case bingo.MsgJoined:
			sawJoined = true
			send("ready")
		case bingo.MsgCard:
			sawCard = true
		case bingo.MsgStarted:
			sawStarted = true
		case bingo.MsgDraw:
			if !sawDraw {
				sawDraw = true
				send("bingo")
			}
		case bingo.MsgWinner:
			sawWinner = true
			if msg.Arg(0) != "alice" || msg.Arg(1) != bingo.WinByCard {
				t.Fatalf("unexpected winner message %q", line)
			}
		}
		if sawWinner {
			break
		}
	}

	for name, saw := range map[string]bool{
		"joined": sawJoined, "card": sawCard, "started": sawStarted,
		"draw": sawDraw, "winner": sawWinner,
	} {
		if !saw {
			t.Fatalf("never received %s message", name)
		}
	}
}
