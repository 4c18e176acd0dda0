package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/spedgrowth-cli/internal/schoolname"
)

var normStrategy string

var normalizeCmd = &cobra.Command{
	Use:   "normalize <name>...",
	Short: "Print the join key for one or more school names",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strategy := normStrategy
		if strategy == "" {
			strategy = string(schoolname.Basic)
			if cfg != nil && cfg.Normalization != "" {
				strategy = cfg.Normalization
			}
		}
		s, err := schoolname.ParseStrategy(strategy)
		if err != nil {
			return err
		}
		n := schoolname.Normalizer{Strategy: s}
		failed := 0
		for _, name := range args {
			key, err := n.Key(name)
			if errors.Is(err, schoolname.ErrUnnormalizable) {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %v\n", err)
				failed++
				continue
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, key)
		}
		if failed == len(args) {
			return fmt.Errorf("no name could be normalized")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
	normalizeCmd.Flags().StringVarP(&normStrategy, "strategy", "s", "", "basic|loose (default from config)")
}
