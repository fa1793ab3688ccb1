package game

// TotalPairs is the number of pair keys in the catalog. Each key appears on exactly two cards.
const TotalPairs = 6

// MaxErrors is the mismatch budget for a round; reaching it loses the round.
const MaxErrors = 3

// Card is a single card in the deck. Two cards share each PairKey.
type Card struct {
	ID           int    `json:"id"`
	FaceLabel    string `json:"faceLabel"`
	MeaningLabel string `json:"meaningLabel"`
	PairKey      int    `json:"pairKey"`
}

// catalog holds the fixed set of Sanskrit yoga terms and their meanings.
// Ids 1..6 and 7..12 carry the same pair keys in the same order.
var catalog = [2 * TotalPairs]Card{
	{ID: 1, FaceLabel: "ॐ", MeaningLabel: "Om", PairKey: 1},
	{ID: 2, FaceLabel: "शांति", MeaningLabel: "Shanti", PairKey: 2},
	{ID: 3, FaceLabel: "चक्र", MeaningLabel: "Chakra", PairKey: 3},
	{ID: 4, FaceLabel: "आसन", MeaningLabel: "Asana", PairKey: 4},
	{ID: 5, FaceLabel: "प्राणायाम", MeaningLabel: "Pranayama", PairKey: 5},
	{ID: 6, FaceLabel: "नमस्ते", MeaningLabel: "Namaste", PairKey: 6},
	{ID: 7, FaceLabel: "ॐ", MeaningLabel: "Om", PairKey: 1},
	{ID: 8, FaceLabel: "शांति", MeaningLabel: "Shanti", PairKey: 2},
	{ID: 9, FaceLabel: "चक्र", MeaningLabel: "Chakra", PairKey: 3},
	{ID: 10, FaceLabel: "आसन", MeaningLabel: "Asana", PairKey: 4},
	{ID: 11, FaceLabel: "प्राणायाम", MeaningLabel: "Pranayama", PairKey: 5},
	{ID: 12, FaceLabel: "नमस्ते", MeaningLabel: "Namaste", PairKey: 6},
}

// Catalog returns a copy of the fixed 12-card catalog in its canonical (unshuffled) order.
func Catalog() []Card {
	cards := make([]Card, len(catalog))
	copy(cards, catalog[:])
	return cards
}
