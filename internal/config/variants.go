package config

// Variant is a registered board size.
type Variant struct {
	ID    string
	Title string
	Size  int
}

var variants = []Variant{
	{ID: "2048", Title: "2048", Size: 4},
	{ID: "2048_3x3", Title: "2048 (3x3)", Size: 3},
	{ID: "2048_5x5", Title: "2048 (5x5)", Size: 5},
	{ID: "2048_6x6", Title: "2048 (6x6)", Size: 6},
}

// Variants returns the playable board variants, classic first.
func Variants() []Variant {
	out := make([]Variant, len(variants))
	copy(out, variants)
	return out
}

// LookupVariant finds a variant by ID.
func LookupVariant(id string) (Variant, bool) {
	for _, v := range variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// ApplyVariant sizes the board for v, keeping start tiles within the
// board's capacity.
func ApplyVariant(cfg *T2048Config, v Variant) {
	cfg.Board.Size = v.Size
	if limit := v.Size * v.Size; cfg.Board.StartTiles > limit {
		cfg.Board.StartTiles = limit
	}
}
