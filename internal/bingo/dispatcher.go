package bingo

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

var validNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,16}$`)

// Dispatcher runs the per-connection protocol: the join handshake, match
// resolution through the registry, and the receive loop once attached.
// Transport bindings call Handle once per accepted connection, on that
// connection's own goroutine.
type Dispatcher struct {
	reg    *Registry
	cfg    MatchConfig
	logger *slog.Logger
}

func NewDispatcher(reg *Registry, cfg MatchConfig, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{reg: reg, cfg: cfg.withDefaults(), logger: logger}
}

// Handle owns conn from the moment it is called. Until a match admits the
// player the dispatcher closes the connection on exit; afterwards the match
// owns it. Errors here affect only this connection.
func (d *Dispatcher) Handle(conn Conn) {
	name, ok := d.readName(conn)
	if !ok {
		_ = conn.Close()
		return
	}

	for {
		msg, err := conn.Receive()
		if err != nil {
			_ = conn.Close()
			return
		}
		switch msg.Type {
		case MsgList:
			_ = conn.Send(NewMessage(MsgMatches, strings.Join(d.reg.ListPublic(), ",")))
		case MsgMatch:
			player, match, res := d.attach(conn, name, msg)
			switch res {
			case attachOK:
				d.receiveLoop(conn, match, player)
				return
			case attachRetry:
				continue
			default:
				// Fatal for this connection (in progress, or transport error).
				_ = conn.Close()
				return
			}
		case MsgLeave:
			_ = conn.Close()
			return
		default:
			_ = conn.Send(NewMessage(MsgReject, RejectBadRequest))
		}
	}
}

// readName runs the name handshake, retrying on invalid names the way the
// client would expect from a lobby prompt.
func (d *Dispatcher) readName(conn Conn) (string, bool) {
	for {
		msg, err := conn.Receive()
		if err != nil {
			return "", false
		}
		if msg.Type != MsgJoin || !validNameRe.MatchString(msg.Arg(0)) {
			JoinRejections.WithLabelValues(RejectBadRequest).Inc()
			if err := conn.Send(NewMessage(MsgReject, RejectBadRequest)); err != nil {
				return "", false
			}
			continue
		}
		return msg.Arg(0), true
	}
}

type attachResult int

const (
	attachOK attachResult = iota
	attachRetry
	attachClosed
)

// attach resolves the match request, deals the player's cards, waits for the
// ready acknowledgment, and admits the player. attachRetry means the client
// may pick another match; attachClosed means this connection is done.
func (d *Dispatcher) attach(conn Conn, name string, req Message) (*Player, *Match, attachResult) {
	reqCode := req.Arg(0)
	if reqCode == "" {
		_ = conn.Send(NewMessage(MsgReject, RejectBadRequest))
		return nil, nil, attachRetry
	}

	visibility := Public
	cardsArg := req.Arg(1)
	if reqCode == CodeNew {
		if req.Arg(1) == "private" {
			visibility = Private
		}
		cardsArg = req.Arg(2)
	}
	cards := d.cfg.CardsPerPlayer
	if n, err := strconv.Atoi(cardsArg); err == nil {
		cards = n
	}

	code, match := d.reg.CreateOrGet(reqCode, visibility, d.cfg)
	if !match.Joinable() {
		// Already started; a race at AddPlayer is caught again below.
		JoinRejections.WithLabelValues(RejectInProgress).Inc()
		_ = conn.Send(NewMessage(MsgReject, RejectInProgress))
		return nil, nil, attachClosed
	}
	player := NewPlayer(name, conn, NewCardSet(cards, match.Config().WinRule))

	if err := conn.Send(NewMessage(MsgJoined, code)); err != nil {
		return nil, nil, attachClosed
	}
	for _, c := range player.Cards().Cards() {
		if err := conn.Send(cardMessage(c)); err != nil {
			return nil, nil, attachClosed
		}
	}

	// Readiness gate: the client confirms it has its cards before it is
	// attached to the draw broadcast.
	for {
		msg, err := conn.Receive()
		if err != nil {
			return nil, nil, attachClosed
		}
		if msg.Type == MsgReady {
			break
		}
		if msg.Type == MsgLeave {
			return nil, nil, attachClosed
		}
		_ = conn.Send(NewMessage(MsgReject, RejectBadRequest))
	}

	switch err := match.AddPlayer(player); err {
	case nil:
		return player, match, attachOK
	case ErrMatchStarted:
		JoinRejections.WithLabelValues(RejectInProgress).Inc()
		_ = conn.Send(NewMessage(MsgReject, RejectInProgress))
		return nil, nil, attachClosed
	case ErrMatchFull:
		JoinRejections.WithLabelValues(RejectFull).Inc()
		_ = conn.Send(NewMessage(MsgReject, RejectFull))
		return nil, nil, attachRetry
	case ErrNameTaken:
		JoinRejections.WithLabelValues(RejectNameTaken).Inc()
		_ = conn.Send(NewMessage(MsgReject, RejectNameTaken))
		return nil, nil, attachRetry
	default:
		return nil, nil, attachClosed
	}
}

// receiveLoop watches one attached player's inbound stream until the player
// leaves, the transport fails, or the match closes the connection.
func (d *Dispatcher) receiveLoop(conn Conn, match *Match, player *Player) {
	for {
		msg, err := conn.Receive()
		if err != nil {
			match.RemovePlayer(player)
			return
		}
		switch msg.Type {
		case MsgBingo:
			match.ClaimWin(player)
		case MsgLeave:
			match.RemovePlayer(player)
			return
		default:
			_ = conn.Send(NewMessage(MsgReject, RejectBadRequest))
		}
	}
}
