package game

import (
	"fmt"
	"math/rand"
)

// NewDeck returns a uniformly shuffled permutation of the catalog.
// If rng is nil the package-level source is used.
func NewDeck(rng *rand.Rand) []Card {
	cards := Catalog()

	// Fisher-Yates; rand.Shuffle is unbiased.
	swap := func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	}
	if rng != nil {
		rng.Shuffle(len(cards), swap)
	} else {
		rand.Shuffle(len(cards), swap)
	}
	return cards
}

// ValidateDeck checks deck integrity: 2*TotalPairs cards, unique ids,
// and every pair key in 1..TotalPairs appearing exactly twice.
func ValidateDeck(deck []Card) error {
	if len(deck) != 2*TotalPairs {
		return fmt.Errorf("deck has %d cards, expected %d", len(deck), 2*TotalPairs)
	}
	ids := make(map[int]struct{}, len(deck))
	pairCount := make(map[int]int, TotalPairs)
	for _, c := range deck {
		if _, dup := ids[c.ID]; dup {
			return fmt.Errorf("duplicate card id %d", c.ID)
		}
		ids[c.ID] = struct{}{}
		if c.PairKey < 1 || c.PairKey > TotalPairs {
			return fmt.Errorf("card %d has pair key %d out of range", c.ID, c.PairKey)
		}
		pairCount[c.PairKey]++
	}
	for key := 1; key <= TotalPairs; key++ {
		if pairCount[key] != 2 {
			return fmt.Errorf("pair key %d appears %d times, expected 2", key, pairCount[key])
		}
	}
	return nil
}

// findCard returns the card with the given id, or false when the deck does not contain it.
func findCard(deck []Card, id int) (Card, bool) {
	for _, c := range deck {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}
