// Package match implements the pair-matching game: a shuffled grid of term
// and definition tiles, selection rules, and best-completion-time tracking.
package match

import (
	"math/rand"
	"time"

	"github.com/quizlify/quizlify/internal/deck"
)

// DefaultPairs is the fixed grid size of the source app: the first six deck
// cards become a 12-tile board.
const DefaultPairs = 6

// TileKind distinguishes the two halves of a pair.
type TileKind string

const (
	TermTile       TileKind = "term"
	DefinitionTile TileKind = "definition"
)

// Tile is one cell of the board. PairID is the source card id shared by the
// term tile and the definition tile. A matched tile is immutable for the
// rest of the round.
type Tile struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Kind       TileKind `json:"kind"`
	PairID     string   `json:"pair_id"`
	Matched    bool     `json:"matched"`
	Selected   bool     `json:"selected"`
	Mismatched bool     `json:"mismatched"`
}

// OutcomeKind classifies the result of a tile pick.
type OutcomeKind string

const (
	// Ignored means the pick was a no-op: the tile is matched, already
	// selected, or a mismatch is still pending.
	Ignored OutcomeKind = "ignored"
	// Selected means a first tile is now pending a partner.
	Selected OutcomeKind = "selected"
	// Matched means the two picked tiles form a pair.
	Matched OutcomeKind = "matched"
	// Mismatched means the two picked tiles differ; they stay flagged until
	// Settle clears them.
	Mismatched OutcomeKind = "mismatched"
)

// Outcome reports what a pick did and which tiles were involved.
type Outcome struct {
	Kind     OutcomeKind `json:"kind"`
	TileIDs  []string    `json:"tile_ids,omitempty"`
	Complete bool        `json:"complete"`
}

// Round is one play of the matching game. It is driven synchronously by
// tile picks; the UI owns the visual settle delay and calls Settle when it
// ends.
type Round struct {
	d     *deck.Deck
	pairs int
	rng   *rand.Rand

	tiles    []Tile
	selected []int
	pending  bool
	matched  int

	started     bool
	startedAt   time.Time
	completedAt time.Time
	best        time.Duration
	hasBest     bool
	now         func() time.Time
}

// RoundOption customizes a round at construction.
type RoundOption func(*Round)

// WithClock injects a time source for deterministic timing tests.
func WithClock(now func() time.Time) RoundOption {
	return func(r *Round) { r.now = now }
}

// NewRound deals a board from the first pairs cards of the deck and
// shuffles it with a uniform permutation. The deck must hold at least that
// many cards; a non-positive pairs falls back to the default.
func NewRound(d *deck.Deck, pairs int, rng *rand.Rand, opts ...RoundOption) (*Round, error) {
	if pairs <= 0 {
		pairs = DefaultPairs
	}
	if err := d.Require(pairs); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	r := &Round{d: d, pairs: pairs, rng: rng, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	r.deal()
	return r, nil
}

func (r *Round) deal() {
	tiles := make([]Tile, 0, r.pairs*2)
	for _, card := range r.d.Cards[:r.pairs] {
		tiles = append(tiles,
			Tile{ID: "term-" + card.ID, Text: card.Term, Kind: TermTile, PairID: card.ID},
			Tile{ID: "def-" + card.ID, Text: card.Definition, Kind: DefinitionTile, PairID: card.ID},
		)
	}
	r.rng.Shuffle(len(tiles), func(i, j int) { tiles[i], tiles[j] = tiles[j], tiles[i] })
	r.tiles = tiles
	r.selected = r.selected[:0]
	r.pending = false
	r.matched = 0
	r.started = false
	r.startedAt = time.Time{}
	r.completedAt = time.Time{}
}

// Pick selects a tile. The first pick of the round starts the clock. Picks
// on matched or already-selected tiles, or while a mismatch is pending, do
// nothing.
func (r *Round) Pick(tileID string) Outcome {
	idx := r.tileIndex(tileID)
	if idx < 0 || r.pending || r.tiles[idx].Matched || r.tiles[idx].Selected {
		return Outcome{Kind: Ignored, Complete: r.Complete()}
	}

	if !r.started {
		r.started = true
		r.startedAt = r.now()
	}

	r.tiles[idx].Selected = true
	r.selected = append(r.selected, idx)
	if len(r.selected) < 2 {
		return Outcome{Kind: Selected, TileIDs: []string{tileID}}
	}

	first, second := r.selected[0], r.selected[1]
	ids := []string{r.tiles[first].ID, r.tiles[second].ID}

	if r.tiles[first].PairID == r.tiles[second].PairID && r.tiles[first].Kind != r.tiles[second].Kind {
		// The pair is recorded immediately so completion time reflects the
		// final pick, not the settle animation.
		r.tiles[first].Matched, r.tiles[second].Matched = true, true
		r.tiles[first].Selected, r.tiles[second].Selected = false, false
		r.selected = r.selected[:0]
		r.matched++
		complete := r.matched == r.pairs
		if complete {
			r.completedAt = r.now()
			final := r.completedAt.Sub(r.startedAt)
			if !r.hasBest || final < r.best {
				r.best = final
				r.hasBest = true
			}
		}
		return Outcome{Kind: Matched, TileIDs: ids, Complete: complete}
	}

	r.tiles[first].Mismatched, r.tiles[second].Mismatched = true, true
	r.pending = true
	return Outcome{Kind: Mismatched, TileIDs: ids}
}

// Settle clears a pending mismatch after the UI's shake delay. It is a
// no-op when nothing is pending.
func (r *Round) Settle() {
	if !r.pending {
		return
	}
	for _, idx := range r.selected {
		r.tiles[idx].Selected = false
		r.tiles[idx].Mismatched = false
	}
	r.selected = r.selected[:0]
	r.pending = false
}

// Restart re-deals and re-shuffles the board for a replay. The best time
// survives across replays within the session.
func (r *Round) Restart() {
	r.deal()
}

// Tiles returns a copy of the board for rendering.
func (r *Round) Tiles() []Tile {
	out := make([]Tile, len(r.tiles))
	copy(out, r.tiles)
	return out
}

// MatchedPairs returns how many pairs have been matched so far.
func (r *Round) MatchedPairs() int {
	return r.matched
}

// Pairs returns the board size in pairs.
func (r *Round) Pairs() int {
	return r.pairs
}

// Complete reports whether every tile is matched.
func (r *Round) Complete() bool {
	return r.matched == r.pairs
}

// Started reports whether the first tile has been picked.
func (r *Round) Started() bool {
	return r.started
}

// Elapsed returns time since the first pick; zero before the round starts,
// frozen at completion.
func (r *Round) Elapsed() time.Duration {
	if !r.started {
		return 0
	}
	if r.Complete() {
		return r.completedAt.Sub(r.startedAt)
	}
	return r.now().Sub(r.startedAt)
}

// Best returns the lowest completion time across replays, if any round has
// been completed.
func (r *Round) Best() (time.Duration, bool) {
	return r.best, r.hasBest
}

func (r *Round) tileIndex(tileID string) int {
	for i := range r.tiles {
		if r.tiles[i].ID == tileID {
			return i
		}
	}
	return -1
}
