package httpserver

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bingohall/internal/bingo"
)

func startTestServer(t *testing.T, cfg bingo.MatchConfig) (*Server, *bingo.Registry) {
	t.Helper()
	reg := bingo.NewRegistry(nil, nil)
	srv := NewServer("127.0.0.1:0", bingo.NewDispatcher(reg, cfg, nil), reg, nil)
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Stop)
	return srv, reg
}

func TestWebSocketSessionJoinsMatch(t *testing.T) {
	srv, reg := startTestServer(t, bingo.MatchConfig{
		MinPlayers: 2, MaxPlayers: 10,
		Countdown: time.Hour, DrawInterval: time.Hour,
		CardsPerPlayer: 1,
	})

	ws, resp, err := websocket.DefaultDialer.Dial("ws://"+srv.Addr()+"/ws", nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer ws.Close()
	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))

	write := func(m bingo.Message) {
		t.Helper()
		require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(m.Encode())))
	}
	read := func() bingo.Message {
		t.Helper()
		_, data, err := ws.ReadMessage()
		require.NoError(t, err)
		return bingo.ParseMessage(string(data))
	}

	write(bingo.NewMessage(bingo.MsgJoin, "webalice"))
	write(bingo.NewMessage(bingo.MsgMatch, bingo.CodeNew, "public"))

	joined := read()
	require.Equal(t, bingo.MsgJoined, joined.Type)
	code := joined.Arg(0)

	card := read()
	assert.Equal(t, bingo.MsgCard, card.Type)

	write(bingo.NewMessage(bingo.MsgReady))

	deadline := time.Now().Add(2 * time.Second)
	for {
		if m, ok := reg.Get(code); ok && m.PlayerCount() == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("player never attached to the match")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMatchesEndpointListsPublicMatches(t *testing.T) {
	srv, reg := startTestServer(t, bingo.MatchConfig{
		MinPlayers: 2, MaxPlayers: 10,
		Countdown: time.Hour, DrawInterval: time.Hour,
	})

	code, _ := reg.CreateOrGet(bingo.CodeNew, bingo.Public, bingo.MatchConfig{
		MinPlayers: 2, MaxPlayers: 10,
		Countdown: time.Hour, DrawInterval: time.Hour,
	})
	reg.CreateOrGet(bingo.CodeNew, bingo.Private, bingo.MatchConfig{
		MinPlayers: 2, MaxPlayers: 10,
		Countdown: time.Hour, DrawInterval: time.Hour,
	})

	resp, err := http.Get("http://" + srv.Addr() + "/matches")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Matches []string `json:"matches"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{code}, body.Matches)
}

func TestMetricsEndpointServes(t *testing.T) {
	srv, _ := startTestServer(t, bingo.MatchConfig{
		MinPlayers: 2, MaxPlayers: 10,
		Countdown: time.Hour, DrawInterval: time.Hour,
	})

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
