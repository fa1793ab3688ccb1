package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"namaste-memory-server/game"
)

var flagSeed int64

var deckCmd = &cobra.Command{
	Use:   "deck",
	Short: "Print a shuffled deck",
	Long: `Shuffle the twelve-card deck, check that every pair appears exactly twice,
and print it in deal order.

Examples:
  namaste-memory deck
  namaste-memory deck --seed 42`,
	RunE: runDeck,
}

func init() {
	deckCmd.Flags().Int64Var(&flagSeed, "seed", 0, "RNG seed for a reproducible shuffle (0 = random)")
}

func runDeck(cmd *cobra.Command, _ []string) error {
	seed := flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	deck := game.NewDeck(rand.New(rand.NewSource(seed)))
	if err := game.ValidateDeck(deck); err != nil {
		return fmt.Errorf("deck integrity: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Deck (seed %d):\n\n", seed)
	fmt.Fprintf(out, "  %-4s  %-4s  %-10s  %s\n", "Pos", "ID", "Face", "Meaning")
	fmt.Fprintf(out, "  %-4s  %-4s  %-10s  %s\n", "---", "--", "----", "-------")
	for i, c := range deck {
		fmt.Fprintf(out, "  %-4d  %-4d  %-10s  %s\n", i+1, c.ID, c.FaceLabel, c.MeaningLabel)
	}
	return nil
}
