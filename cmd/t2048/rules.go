package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/tui-2048/internal/config"
)

var flagRulesDefaults bool

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the game rules in effect",
	Long: `Print the rules that play, menu, serve and mcp would use, as YAML.
Use the output as a starting point for a --rules file.

Examples:
  t2048 rules
  t2048 rules --defaults > ~/.t2048/configs/t2048.yaml
  t2048 rules --rules ./my-rules.yaml`,
	Args: cobra.NoArgs,
	RunE: runRules,
}

func init() {
	rulesCmd.Flags().BoolVar(&flagRulesDefaults, "defaults", false, "Print the built-in defaults instead")
}

func runRules(_ *cobra.Command, _ []string) error {
	if flagRulesDefaults {
		_, err := os.Stdout.Write(config.GetDefaultYAML("2048"))
		return err
	}

	out, err := yaml.Marshal(app.rules)
	if err != nil {
		return fmt.Errorf("encoding rules: %w", err)
	}
	_, err = os.Stdout.Write(out)
	return err
}
