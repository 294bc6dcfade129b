package t2048

// Phase is the coarse state of a game as shown to the player.
type Phase string

const (
	PhasePlaying     Phase = "playing"
	PhaseWon         Phase = "won"
	PhaseContinuing  Phase = "continuing"
	PhaseGameOver    Phase = "game_over"
	PhasePaused      Phase = "paused"
	PhasePausedSmall Phase = "paused_small_window"
)

// Snapshot captures what the player sees, for determinism tests and replay
// comparison.
type Snapshot struct {
	Tick      uint64
	Variant   string
	Size      int
	Score     int
	BestScore int
	Values    [][]int // rows, 0 for empty
	MaxTile   int
	Phase     Phase
}

// Snapshot returns the current game snapshot.
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		Tick:    g.tick,
		Variant: g.variant.ID,
		Size:    g.cfg.Board.Size,
		Phase:   g.phase(),
	}
	if g.mgr != nil {
		s.Size = g.mgr.Grid().Size()
		s.Score = g.mgr.Score()
		s.BestScore = g.mgr.BestScore()
		s.Values = g.mgr.Grid().Values()
		s.MaxTile = g.mgr.Grid().MaxTile()
	}
	return s
}

func (g *Game) phase() Phase {
	switch {
	case g.tooSmall:
		return PhasePausedSmall
	case g.paused:
		return PhasePaused
	case g.mgr == nil:
		return PhasePlaying
	case g.mgr.Over():
		return PhaseGameOver
	case g.mgr.Won() && !g.mgr.Continuing():
		return PhaseWon
	case g.mgr.Won():
		return PhaseContinuing
	}
	return PhasePlaying
}
