// Package config loads game rules from YAML and application settings from
// YAML plus environment variables.
package config

import "fmt"

// T2048Config contains all configuration for the 2048 game.
type T2048Config struct {
	Board BoardConfig `yaml:"board"`
	Rules RulesConfig `yaml:"rules"`
}

// BoardConfig defines the grid.
type BoardConfig struct {
	Size       int `yaml:"size"`
	StartTiles int `yaml:"start_tiles"`
}

// RulesConfig defines scoring and spawning.
type RulesConfig struct {
	WinValue   int     `yaml:"win_value"`
	Spawn4Prob float64 `yaml:"spawn4_prob"`
}

// Validate reports the first out-of-range setting.
func (c T2048Config) Validate() error {
	if c.Board.Size < 2 || c.Board.Size > 8 {
		return fmt.Errorf("board.size %d must be between 2 and 8", c.Board.Size)
	}
	if c.Board.StartTiles < 1 || c.Board.StartTiles > c.Board.Size*c.Board.Size {
		return fmt.Errorf("board.start_tiles %d must be between 1 and %d", c.Board.StartTiles, c.Board.Size*c.Board.Size)
	}
	if w := c.Rules.WinValue; w < 4 || w&(w-1) != 0 {
		return fmt.Errorf("rules.win_value %d must be a power of two >= 4", w)
	}
	if p := c.Rules.Spawn4Prob; p < 0 || p > 1 {
		return fmt.Errorf("rules.spawn4_prob %v must be between 0 and 1", p)
	}
	return nil
}
