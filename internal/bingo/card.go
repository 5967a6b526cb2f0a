package bingo

import "math/rand"

const (
	cardSize           = 5
	freeCell           = 0
	MaxCardsPerPlayer  = 3
	highestDrawnNumber = 75
)

// columnRanges holds the inclusive number range for each of the B-I-N-G-O columns.
var columnRanges = [cardSize][2]int{
	{1, 15},
	{16, 30},
	{31, 45},
	{46, 60},
	{61, 75},
}

// WinPredicate decides whether a marking grid satisfies the win rule.
// The match engine is agnostic to which rule is in play.
type WinPredicate func(marked [cardSize][cardSize]bool) bool

// FullCard requires every cell to be marked (the free center starts marked).
func FullCard(marked [cardSize][cardSize]bool) bool {
	for r := 0; r < cardSize; r++ {
		for c := 0; c < cardSize; c++ {
			if !marked[r][c] {
				return false
			}
		}
	}
	return true
}

// AnyLine is satisfied by any fully marked row, column, or diagonal.
func AnyLine(marked [cardSize][cardSize]bool) bool {
	for i := 0; i < cardSize; i++ {
		row, col := true, true
		for j := 0; j < cardSize; j++ {
			row = row && marked[i][j]
			col = col && marked[j][i]
		}
		if row || col {
			return true
		}
	}
	diag, anti := true, true
	for i := 0; i < cardSize; i++ {
		diag = diag && marked[i][i]
		anti = anti && marked[i][cardSize-1-i]
	}
	return diag || anti
}

// Card is a 5x5 bingo grid. Numbers are fixed at creation; marking is the
// only mutation. The Match serializes all access, so Card itself is not
// safe for concurrent use.
type Card struct {
	numbers [cardSize][cardSize]int
	marked  [cardSize][cardSize]bool
}

// NewCard generates a card with five distinct numbers per column drawn from
// that column's range, and a free, pre-marked center cell.
func NewCard() *Card {
	c := &Card{}
	for col, rng := range columnRanges {
		span := rng[1] - rng[0] + 1
		picks := rand.Perm(span)[:cardSize]
		for row := 0; row < cardSize; row++ {
			c.numbers[row][col] = rng[0] + picks[row]
		}
	}
	c.numbers[2][2] = freeCell
	c.marked[2][2] = true
	return c
}

// Mark marks the given number if the card contains it.
func (c *Card) Mark(n int) bool {
	for r := 0; r < cardSize; r++ {
		for col := 0; col < cardSize; col++ {
			if c.numbers[r][col] == n {
				c.marked[r][col] = true
				return true
			}
		}
	}
	return false
}

// HasWon reports whether the card satisfies the given win rule.
func (c *Card) HasWon(pred WinPredicate) bool {
	return pred(c.marked)
}

// Numbers returns the card grid; the free center is zero.
func (c *Card) Numbers() [cardSize][cardSize]int {
	return c.numbers
}

// CardSet is the one-to-three cards a player holds in a match, checked
// against a single win rule.
type CardSet struct {
	cards []*Card
	pred  WinPredicate
}

// NewCardSet creates n fresh cards, clamped to [1, MaxCardsPerPlayer].
func NewCardSet(n int, pred WinPredicate) *CardSet {
	if n < 1 {
		n = 1
	}
	if n > MaxCardsPerPlayer {
		n = MaxCardsPerPlayer
	}
	if pred == nil {
		pred = FullCard
	}
	cs := &CardSet{pred: pred}
	for i := 0; i < n; i++ {
		cs.cards = append(cs.cards, NewCard())
	}
	return cs
}

// Mark marks the number on every card that contains it.
func (cs *CardSet) Mark(n int) bool {
	hit := false
	for _, c := range cs.cards {
		if c.Mark(n) {
			hit = true
		}
	}
	return hit
}

// Winner returns the index of the first winning card, if any.
func (cs *CardSet) Winner() (int, bool) {
	for i, c := range cs.cards {
		if c.HasWon(cs.pred) {
			return i, true
		}
	}
	return 0, false
}

// Cards exposes the underlying cards for serialization to the client.
func (cs *CardSet) Cards() []*Card {
	return cs.cards
}
