package core

// RuntimeConfig contains configuration passed to games at initialization.
type RuntimeConfig struct {
	ScreenW  int   // Screen width in characters
	ScreenH  int   // Screen height in characters
	TickRate int   // Simulation ticks per second
	Seed     int64 // RNG seed, 0 means time-based
}

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW:  80,
		ScreenH:  24,
		TickRate: 30,
	}
}

// GameState is the status a game reports to the platform after each tick.
type GameState struct {
	Score     int
	BestScore int
	MaxTile   int
	GameOver  bool // No further input changes the board until restart
	Won       bool // The winning tile was reached and play has not continued
	Paused    bool
}

// StepResult is returned by Game.Step() after each simulation tick.
type StepResult struct {
	State GameState
	// Moved is true when the tick's input changed the board.
	Moved bool
}
