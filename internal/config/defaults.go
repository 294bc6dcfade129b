package config

import (
	_ "embed"
)

//go:embed defaults/t2048.yaml
var defaultT2048YAML []byte

// DefaultT2048Config returns the built-in rules, used when the embedded
// YAML cannot be parsed.
func DefaultT2048Config() T2048Config {
	return T2048Config{
		Board: BoardConfig{
			Size:       4,
			StartTiles: 2,
		},
		Rules: RulesConfig{
			WinValue:   2048,
			Spawn4Prob: 0.1,
		},
	}
}

// GetDefaultYAML returns the embedded default YAML for a game.
func GetDefaultYAML(gameID string) []byte {
	switch gameID {
	case "2048", "t2048":
		return defaultT2048YAML
	default:
		return nil
	}
}
