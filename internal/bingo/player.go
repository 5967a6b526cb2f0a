package bingo

// Conn is one player's duplex message stream. Transport bindings supply the
// implementation; the match that a player joins owns the Conn for the rest
// of that match's lifetime. Send and Close must be safe to call from
// multiple goroutines; Receive is called from the connection's own
// goroutine only.
type Conn interface {
	Send(msg Message) error
	Receive() (Message, error)
	Close() error
}

// Player is one admitted participant of a match.
type Player struct {
	Name  string
	conn  Conn
	cards *CardSet
}

func NewPlayer(name string, conn Conn, cards *CardSet) *Player {
	return &Player{Name: name, conn: conn, cards: cards}
}

// Cards returns the player's card set.
func (p *Player) Cards() *CardSet {
	return p.cards
}
