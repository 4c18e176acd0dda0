package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/spedgrowth-cli/internal/analysis"
	"github.com/KaramelBytes/spedgrowth-cli/internal/table"
	"github.com/KaramelBytes/spedgrowth-cli/internal/utils"
)

var (
	inspSkipRows   int
	inspDelimiter  string
	inspSheetName  string
	inspSheetIndex int
	inspJSON       bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Profile a CSV/TSV/XLSX input: shape and per-column summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt := table.Options{SkipRows: inspSkipRows, SheetName: inspSheetName, SheetIndex: inspSheetIndex}
		switch inspDelimiter {
		case "":
		case ",":
			opt.Delimiter = ','
		case "\t", "tab":
			opt.Delimiter = '\t'
		case ";":
			opt.Delimiter = ';'
		default:
			return fmt.Errorf("unsupported --delimiter: %s", inspDelimiter)
		}
		t, err := table.Load(args[0], opt)
		if err != nil {
			return err
		}
		p := analysis.ProfileTable(t)
		if inspJSON {
			b, err := utils.PrettyJSON(p)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), p.Text())
		if len(t.Header) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "\nColumns: %s\n", strings.Join(t.Header, " | "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().IntVar(&inspSkipRows, "skip-rows", 0, "leading rows to drop before the header")
	inspectCmd.Flags().StringVar(&inspDelimiter, "delimiter", "", "CSV delimiter: ','|';'|'tab' (default by extension)")
	inspectCmd.Flags().StringVar(&inspSheetName, "sheet-name", "", "XLSX sheet name")
	inspectCmd.Flags().IntVar(&inspSheetIndex, "sheet-index", 0, "XLSX sheet index (1-based)")
	inspectCmd.Flags().BoolVar(&inspJSON, "json", false, "print the profile as JSON")
}
