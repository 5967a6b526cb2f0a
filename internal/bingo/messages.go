package bingo

import (
	"strconv"
	"strings"
)

// MsgType enumerates every message that crosses the wire. The engine only
// ever compares tags; transports own the framing.
type MsgType string

const (
	// client -> server
	MsgJoin  MsgType = "join"
	MsgMatch MsgType = "match"
	MsgList  MsgType = "list"
	MsgReady MsgType = "ready"
	MsgBingo MsgType = "bingo"
	MsgLeave MsgType = "leave"

	// server -> client
	MsgJoined        MsgType = "joined"
	MsgReject        MsgType = "reject"
	MsgCard          MsgType = "card"
	MsgWaiting       MsgType = "waiting"
	MsgCountdown     MsgType = "countdown"
	MsgStarted       MsgType = "started"
	MsgDraw          MsgType = "draw"
	MsgPlayerJoined  MsgType = "player_joined"
	MsgPlayerLeft    MsgType = "player_left"
	MsgClaimRejected MsgType = "claim_rejected"
	MsgWinner        MsgType = "winner"
	MsgGameOver      MsgType = "game_over"
	MsgCancelled     MsgType = "cancelled"
	MsgMatches       MsgType = "matches"
	MsgInvalid       MsgType = "invalid"
)

// Reject reasons and terminal qualifiers.
const (
	RejectInProgress = "in_progress"
	RejectNameTaken  = "name_taken"
	RejectFull       = "full"
	RejectBadRequest = "bad_request"

	WinByCard    = "card"
	WinByForfeit = "forfeit"

	GameOverExhausted      = "exhausted"
	ReasonNotEnoughPlayers = "not_enough_players"
	ReasonEmpty            = "empty"
)

// Message is one tagged wire message: a type plus colon-separated arguments.
type Message struct {
	Type MsgType
	Args []string
}

func NewMessage(t MsgType, args ...string) Message {
	return Message{Type: t, Args: args}
}

// Arg returns the i-th argument or "" when absent.
func (m Message) Arg(i int) string {
	if i < 0 || i >= len(m.Args) {
		return ""
	}
	return m.Args[i]
}

// Encode renders the message in its text form, e.g. "draw:42".
func (m Message) Encode() string {
	if len(m.Args) == 0 {
		return string(m.Type)
	}
	return string(m.Type) + ":" + strings.Join(m.Args, ":")
}

// ParseMessage decodes one line. Unknown or empty input yields MsgInvalid,
// never an error; protocol handling stays total.
func ParseMessage(line string) Message {
	line = strings.TrimSpace(line)
	if line == "" {
		return Message{Type: MsgInvalid}
	}
	parts := strings.Split(line, ":")
	t := MsgType(parts[0])
	switch t {
	case MsgJoin, MsgMatch, MsgList, MsgReady, MsgBingo, MsgLeave,
		MsgJoined, MsgReject, MsgCard, MsgWaiting, MsgCountdown, MsgStarted,
		MsgDraw, MsgPlayerJoined, MsgPlayerLeft, MsgClaimRejected,
		MsgWinner, MsgGameOver, MsgCancelled, MsgMatches:
	default:
		return Message{Type: MsgInvalid, Args: parts[1:]}
	}
	return Message{Type: t, Args: parts[1:]}
}

// drawMessage formats a single drawn number.
func drawMessage(n int) Message {
	return NewMessage(MsgDraw, strconv.Itoa(n))
}

// cardMessage serializes one card row-major, the free center as 0.
func cardMessage(c *Card) Message {
	nums := c.Numbers()
	cells := make([]string, 0, cardSize*cardSize)
	for r := 0; r < cardSize; r++ {
		for col := 0; col < cardSize; col++ {
			cells = append(cells, strconv.Itoa(nums[r][col]))
		}
	}
	return NewMessage(MsgCard, strings.Join(cells, ","))
}
