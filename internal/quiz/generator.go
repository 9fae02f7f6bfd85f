// Package quiz derives synthetic test questions from a card deck and runs
// the timed test session over them.
package quiz

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/quizlify/quizlify/internal/deck"
)

// Kind distinguishes the generated question types.
type Kind string

const (
	MultipleChoice Kind = "multiple-choice"
	TrueFalse      Kind = "true-false"
)

// Distractors is how many wrong options a multiple-choice question carries.
const Distractors = 3

// DefaultQuestionLimit caps how many questions a single test contains.
const DefaultQuestionLimit = 10

// MinDeckSize is the smallest deck a test can start from. Below two cards
// every question would be degenerate, so test mode refuses to start.
const MinDeckSize = 2

// ErrInsufficientDistractors is returned when a deck cannot supply three
// distinct wrong answers for a multiple-choice question.
var ErrInsufficientDistractors = errors.New("not enough cards for distractors")

// Question is one generated test item. Questions live only for the duration
// of a test session and are never persisted.
type Question struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"prompt"`
	CorrectAnswer string   `json:"correct_answer"`
	Options       []string `json:"options"`
	Kind          Kind     `json:"kind"`
}

// Generator produces questions from a deck. The random source is injected
// so tests can assert structural invariants deterministically.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator. A nil rng gets a time-seeded source.
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rng: rng}
}

// MultipleChoice builds one multiple-choice question for the card: the
// correct definition plus three distinct distractors sampled without
// replacement from the rest of the deck, with the options shuffled. The
// pool is deduplicated by definition text, and text identical to the
// correct definition never qualifies as a distractor, so decks with
// repeated definitions shrink the pool rather than repeat options.
func (g *Generator) MultipleChoice(d *deck.Deck, card deck.Card) (Question, error) {
	seen := map[string]bool{card.Definition: true}
	pool := make([]string, 0, d.Size()-1)
	for _, other := range d.Cards {
		if other.ID == card.ID || seen[other.Definition] {
			continue
		}
		seen[other.Definition] = true
		pool = append(pool, other.Definition)
	}
	if len(pool) < Distractors {
		return Question{}, fmt.Errorf("%w: have %d, need %d", ErrInsufficientDistractors, len(pool), Distractors)
	}

	g.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	options := append([]string{card.Definition}, pool[:Distractors]...)
	g.rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })

	return Question{
		ID:            "mc-" + card.ID,
		Prompt:        fmt.Sprintf("What is the definition of %q?", card.Term),
		CorrectAnswer: card.Definition,
		Options:       options,
		Kind:          MultipleChoice,
	}, nil
}

// TrueFalse builds one true/false question for the card. A fair coin
// decides whether the statement pairs the term with its own definition or
// with a randomly chosen other definition. If the borrowed definition turns
// out identical to the correct one the question resolves to True rather
// than contradicting itself.
func (g *Generator) TrueFalse(d *deck.Deck, card deck.Card) Question {
	shown := card.Definition
	answer := "True"

	if g.rng.Intn(2) == 0 {
		if wrong, ok := g.pickOtherDefinition(d, card); ok && wrong != card.Definition {
			shown = wrong
			answer = "False"
		}
	}

	return Question{
		ID:            "tf-" + card.ID,
		Prompt:        fmt.Sprintf("True or False: %q means %q", card.Term, shown),
		CorrectAnswer: answer,
		Options:       []string{"True", "False"},
		Kind:          TrueFalse,
	}
}

func (g *Generator) pickOtherDefinition(d *deck.Deck, card deck.Card) (string, bool) {
	others := make([]string, 0, d.Size()-1)
	for _, other := range d.Cards {
		if other.ID != card.ID {
			others = append(others, other.Definition)
		}
	}
	if len(others) == 0 {
		return "", false
	}
	return others[g.rng.Intn(len(others))], true
}

// Generate produces up to limit questions for a test over the deck: one
// multiple-choice and one true/false candidate per card, shuffled together
// and truncated. Multiple choice drops out entirely when the deck cannot
// supply three distractors; single-card coverage is not guaranteed.
func (g *Generator) Generate(d *deck.Deck, limit int) ([]Question, error) {
	if err := d.Require(MinDeckSize); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultQuestionLimit
	}

	candidates := make([]Question, 0, d.Size()*2)
	for _, card := range d.Cards {
		mc, err := g.MultipleChoice(d, card)
		if err == nil {
			candidates = append(candidates, mc)
		} else if !errors.Is(err, ErrInsufficientDistractors) {
			return nil, err
		}
		candidates = append(candidates, g.TrueFalse(d, card))
	}

	g.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}
