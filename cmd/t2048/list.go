package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-2048/internal/config"
	"github.com/vovakirdan/tui-2048/internal/registry"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all board variants",
	Long:  `Shows every board variant that can be played.`,
	Run:   runList,
}

func runList(cmd *cobra.Command, args []string) {
	games := registry.List()

	if len(games) == 0 {
		fmt.Println("No boards available.")
		return
	}

	fmt.Println("Available boards:")
	fmt.Println()

	// Calculate column widths
	maxIDLen := 2 // "ID" header
	for _, g := range games {
		if len(g.ID) > maxIDLen {
			maxIDLen = len(g.ID)
		}
	}

	fmt.Printf("  %-*s  %-5s  %s\n", maxIDLen, "ID", "Size", "Title")
	fmt.Printf("  %-*s  %-5s  %s\n", maxIDLen, "--", "----", "-----")

	for _, g := range games {
		size := "?"
		if v, ok := config.LookupVariant(g.ID); ok {
			size = fmt.Sprintf("%dx%d", v.Size, v.Size)
		}
		fmt.Printf("  %-*s  %-5s  %s\n", maxIDLen, g.ID, size, g.Title)
	}

	fmt.Println()
	fmt.Printf("Goal: reach %d. Run 't2048 play <id>' to play a board.\n", app.rules.Rules.WinValue)
}
