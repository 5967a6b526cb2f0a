package bingo

import (
	"errors"
	"log/slog"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type State int

const (
	StateWaiting State = iota
	StateCountdown
	StateInProgress
	StateFinished
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateCountdown:
		return "countdown"
	case StateInProgress:
		return "in_progress"
	case StateFinished:
		return "finished"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

func (s State) terminal() bool {
	return s == StateFinished || s == StateCancelled
}

type Visibility int

const (
	Public Visibility = iota
	Private
)

var (
	ErrMatchStarted = errors.New("match already in progress")
	ErrMatchFull    = errors.New("match is full")
	ErrNameTaken    = errors.New("display name already taken")
)

// MatchConfig is fixed at match creation.
type MatchConfig struct {
	MinPlayers     int
	MaxPlayers     int
	Countdown      time.Duration
	DrawInterval   time.Duration
	CardsPerPlayer int
	WinRule        WinPredicate
}

func (c MatchConfig) withDefaults() MatchConfig {
	if c.MinPlayers <= 0 {
		c.MinPlayers = 2
	}
	if c.MaxPlayers < c.MinPlayers {
		c.MaxPlayers = c.MinPlayers
	}
	if c.Countdown <= 0 {
		c.Countdown = 30 * time.Second
	}
	if c.DrawInterval <= 0 {
		c.DrawInterval = 3 * time.Second
	}
	if c.CardsPerPlayer <= 0 {
		c.CardsPerPlayer = 1
	}
	if c.WinRule == nil {
		c.WinRule = FullCard
	}
	return c
}

// drawPollTick bounds how long the draw scheduler can oversleep a state
// change while waiting out the draw interval.
const drawPollTick = 100 * time.Millisecond

// Outcome labels for the match-outcome metric.
const (
	outcomeWin       = "win"
	outcomeForfeit   = "forfeit"
	outcomeExhausted = "exhausted"
	outcomeCancelled = "cancelled"
)

// Match owns one game's mutable state. Every field below mu is guarded by
// it; state only moves forward except the countdown -> waiting regression
// when the player count drops below the minimum before the draw starts.
type Match struct {
	code       string
	visibility Visibility
	cfg        MatchConfig
	clock      clockwork.Clock
	logger     *slog.Logger
	onFinished func(code string)

	mu           sync.Mutex
	state        State
	players      []*Player
	drawn        []int
	winner       *Player
	byForfeit    bool
	countdownGen int
}

func NewMatch(code string, visibility Visibility, cfg MatchConfig, clock clockwork.Clock, logger *slog.Logger, onFinished func(code string)) *Match {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Match{
		code:       code,
		visibility: visibility,
		cfg:        cfg.withDefaults(),
		clock:      clock,
		logger:     logger.With("match", code),
		onFinished: onFinished,
		state:      StateWaiting,
	}
}

func (m *Match) Code() string { return m.code }

func (m *Match) Visibility() Visibility { return m.visibility }

func (m *Match) Config() MatchConfig { return m.cfg }

func (m *Match) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Joinable reports whether the match still admits players.
func (m *Match) Joinable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateWaiting || m.state == StateCountdown
}

func (m *Match) PlayerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.players)
}

// DrawnNumbers returns a copy of the numbers drawn so far, in draw order.
func (m *Match) DrawnNumbers() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.drawn))
	copy(out, m.drawn)
	return out
}

// Winner returns the winning player's name and whether the win was by
// forfeit. ok is false while the match is live or when it ended without a
// winner.
func (m *Match) Winner() (name string, forfeit bool, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.winner == nil {
		return "", false, false
	}
	return m.winner.Name, m.byForfeit, true
}

// AddPlayer admits a player, starting the countdown or the game when the
// configured thresholds are reached. The countdown timer is started at most
// once per waiting period; a concurrent admission observes the countdown
// state and does not start a second one.
func (m *Match) AddPlayer(p *Player) error {
	m.mu.Lock()
	if m.state == StateInProgress || m.state.terminal() {
		m.mu.Unlock()
		return ErrMatchStarted
	}
	if len(m.players) >= m.cfg.MaxPlayers {
		m.mu.Unlock()
		return ErrMatchFull
	}
	for _, q := range m.players {
		if q.Name == p.Name {
			m.mu.Unlock()
			return ErrNameTaken
		}
	}
	m.players = append(m.players, p)
	ConnectedPlayers.Inc()

	others := make([]*Player, 0, len(m.players)-1)
	for _, q := range m.players {
		if q != p {
			others = append(others, q)
		}
	}
	count := len(m.players)

	var started, countdownStarted bool
	switch {
	case count >= m.cfg.MaxPlayers:
		started = m.startLocked()
	case count >= m.cfg.MinPlayers && m.state == StateWaiting:
		m.state = StateCountdown
		m.countdownGen++
		go m.runCountdown(m.countdownGen)
		countdownStarted = true
	}
	all := m.snapshotLocked()
	m.mu.Unlock()

	m.logger.Info("player joined", "player", p.Name, "players", count)
	m.send(others, NewMessage(MsgPlayerJoined, p.Name))
	if countdownStarted {
		secs := strconv.Itoa(int(m.cfg.Countdown / time.Second))
		m.send(all, NewMessage(MsgCountdown, secs))
	}
	if started {
		m.send(all, NewMessage(MsgStarted))
	}
	return nil
}

// runCountdown waits out the countdown and starts the game, unless the
// match has moved on. A stale timer (regressed to waiting, restarted
// countdown, already started) re-checks everything under the lock and
// no-ops.
func (m *Match) runCountdown(gen int) {
	timer := m.clock.NewTimer(m.cfg.Countdown)
	defer timer.Stop()
	<-timer.Chan()

	m.mu.Lock()
	if m.state != StateCountdown || gen != m.countdownGen || len(m.players) < m.cfg.MinPlayers {
		m.mu.Unlock()
		return
	}
	started := m.startLocked()
	all := m.snapshotLocked()
	m.mu.Unlock()

	if started {
		m.send(all, NewMessage(MsgStarted))
	}
}

// startLocked moves the match to in-progress and spawns the draw scheduler
// exactly once. Caller holds the lock.
func (m *Match) startLocked() bool {
	if m.state == StateInProgress || m.state.terminal() {
		return false
	}
	m.state = StateInProgress
	m.logger.Info("match started", "players", len(m.players))
	go m.drawLoop()
	return true
}

// drawLoop is the per-match draw scheduler: one shuffled permutation of
// 1..75, one number per interval, until a terminal state or exhaustion.
// It is the sole writer of drawn.
func (m *Match) drawLoop() {
	for _, i := range rand.Perm(highestDrawnNumber) {
		n := i + 1

		m.mu.Lock()
		if m.state != StateInProgress {
			m.mu.Unlock()
			return
		}
		m.drawn = append(m.drawn, n)
		for _, p := range m.players {
			p.cards.Mark(n)
		}
		targets := m.snapshotLocked()
		m.mu.Unlock()

		DrawsTotal.Inc()
		m.logger.Debug("number drawn", "number", n, "total", len(m.drawn))
		m.send(targets, drawMessage(n))

		if !m.sleepInterval() {
			return
		}
	}

	m.logger.Info("number pool exhausted")
	m.finish(StateFinished, nil, false, NewMessage(MsgGameOver, GameOverExhausted), outcomeExhausted)
}

// sleepInterval waits out the draw interval in short slices so that a win,
// cancellation, or forfeit from another goroutine stops the scheduler
// within one tick rather than a full interval.
func (m *Match) sleepInterval() bool {
	remaining := m.cfg.DrawInterval
	for remaining > 0 {
		tick := drawPollTick
		if remaining < tick {
			tick = remaining
		}
		<-m.clock.After(tick)
		remaining -= tick
		if m.State() != StateInProgress {
			return false
		}
	}
	return true
}

// RemovePlayer is the single exit path for every kind of departure:
// explicit leave, receive failure, and broadcast send failure.
func (m *Match) RemovePlayer(p *Player) {
	m.mu.Lock()
	idx := -1
	for i, q := range m.players {
		if q == p {
			idx = i
			break
		}
	}
	if idx < 0 {
		// Already removed, or the match finalized concurrently.
		m.mu.Unlock()
		return
	}
	m.players = append(m.players[:idx], m.players[idx+1:]...)
	ConnectedPlayers.Dec()
	_ = p.conn.Close()
	remaining := len(m.players)
	m.logger.Info("player left", "player", p.Name, "players", remaining)

	switch {
	case m.state == StateInProgress && remaining == 1 && remaining < m.cfg.MinPlayers:
		// Walkover: the sole remaining player wins by forfeit.
		survivor := m.players[0]
		targets := m.terminateLocked(StateFinished, survivor, true)
		m.mu.Unlock()
		m.deliverFinal(targets, NewMessage(MsgWinner, survivor.Name, WinByForfeit), outcomeForfeit)

	case m.state == StateInProgress && remaining < m.cfg.MinPlayers:
		targets := m.terminateLocked(StateCancelled, nil, false)
		m.mu.Unlock()
		m.deliverFinal(targets, NewMessage(MsgCancelled, ReasonNotEnoughPlayers), outcomeCancelled)

	case m.state == StateCountdown && remaining < m.cfg.MinPlayers && remaining > 0:
		// Fall back to waiting; the generation bump abandons the running
		// countdown timer.
		m.state = StateWaiting
		m.countdownGen++
		targets := m.snapshotLocked()
		m.mu.Unlock()
		m.logger.Info("countdown abandoned, back to waiting")
		m.send(targets, NewMessage(MsgPlayerLeft, p.Name))
		m.send(targets, NewMessage(MsgWaiting))

	case remaining == 0 && !m.state.terminal():
		targets := m.terminateLocked(StateCancelled, nil, false)
		m.mu.Unlock()
		m.deliverFinal(targets, NewMessage(MsgCancelled, ReasonEmpty), outcomeCancelled)

	default:
		targets := m.snapshotLocked()
		m.mu.Unlock()
		m.send(targets, NewMessage(MsgPlayerLeft, p.Name))
	}
}

// ClaimWin arbitrates a bingo claim. The whole check-and-finish sequence
// holds the match lock, so concurrent claims are serialized: the first
// valid claim wins, any later claim observes the finished state and is
// rejected even if its card was also complete.
func (m *Match) ClaimWin(p *Player) bool {
	m.mu.Lock()
	if m.state != StateInProgress {
		m.mu.Unlock()
		_ = p.conn.Send(NewMessage(MsgClaimRejected))
		return false
	}
	card, won := p.cards.Winner()
	if !won {
		m.mu.Unlock()
		m.logger.Info("claim rejected", "player", p.Name)
		_ = p.conn.Send(NewMessage(MsgClaimRejected))
		return false
	}
	draws := len(m.drawn)
	targets := m.terminateLocked(StateFinished, p, false)
	m.mu.Unlock()

	m.logger.Info("bingo", "player", p.Name, "card", card, "draws", draws)
	m.deliverFinal(targets, NewMessage(MsgWinner, p.Name, WinByCard), outcomeWin)
	return true
}

// terminateLocked flips the match into a terminal state and detaches every
// player. Caller holds the lock and has verified the state is not already
// terminal.
func (m *Match) terminateLocked(st State, winner *Player, forfeit bool) []*Player {
	m.state = st
	m.winner = winner
	m.byForfeit = forfeit
	targets := m.snapshotLocked()
	m.players = nil
	return targets
}

// finish runs a terminal transition unless another path won the race to
// declare one; re-entrant calls observe the terminal state and no-op.
func (m *Match) finish(st State, winner *Player, forfeit bool, final Message, outcome string) {
	m.mu.Lock()
	if m.state.terminal() {
		m.mu.Unlock()
		return
	}
	targets := m.terminateLocked(st, winner, forfeit)
	m.mu.Unlock()
	m.deliverFinal(targets, final, outcome)
}

// deliverFinal broadcasts the terminal message, closes every connection,
// and deregisters the match. Runs exactly once per match: only the goroutine
// that flipped the state reaches it.
func (m *Match) deliverFinal(targets []*Player, final Message, outcome string) {
	for _, p := range targets {
		_ = p.conn.Send(final)
		_ = p.conn.Close()
	}
	ConnectedPlayers.Sub(float64(len(targets)))
	MatchOutcomes.WithLabelValues(outcome).Inc()
	m.logger.Info("match over", "outcome", outcome, "message", final.Encode())
	if m.onFinished != nil {
		m.onFinished(m.code)
	}
}

// snapshotLocked copies the live player list so sends never iterate a
// collection that a removal could mutate. Caller holds the lock.
func (m *Match) snapshotLocked() []*Player {
	out := make([]*Player, len(m.players))
	copy(out, m.players)
	return out
}

// send delivers one message to each target outside the lock; players whose
// connection fails are swept through the same removal path as a voluntary
// disconnect.
func (m *Match) send(targets []*Player, msg Message) {
	var failed []*Player
	for _, p := range targets {
		if err := p.conn.Send(msg); err != nil {
			failed = append(failed, p)
		}
	}
	for _, p := range failed {
		m.RemovePlayer(p)
	}
}
