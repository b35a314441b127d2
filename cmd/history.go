package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"aaswap/pkg/history"
)

var historyStepFilter string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past swaps",
	Long: `Show the swaps recorded by this machine, newest first.

Examples:
  aaswap history
  aaswap history --step SUCCESS`,
	Run: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyStepFilter, "step", "", "Filter by terminal step (SUCCESS, FAILED, CANCELLED)")
}

func runHistory(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := history.NewStorage("")
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	var entries []history.Entry
	if historyStepFilter != "" {
		entries = store.ListByStep(strings.ToUpper(historyStepFilter))
	} else {
		entries = store.List()
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(entries, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	if len(entries) == 0 {
		fmt.Println("\nNo swaps recorded yet.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                              SWAP HISTORY")
	fmt.Println(strings.Repeat("=", 90))
	fmt.Println()

	for _, e := range entries {
		step := e.Step
		switch step {
		case "SUCCESS":
			step = color.GreenString(step)
		case "CANCELLED":
			step = color.YellowString(step)
		default:
			step = color.RedString(step)
		}
		fmt.Printf("  %s  %-20s  %s %s -> %s %s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"),
			step,
			e.PayAmount, color.YellowString(e.PayToken),
			e.ReceiveAmount, color.YellowString(e.ReceiveToken))
		if e.TxHash != "" {
			fmt.Printf("      %s\n", color.HiBlackString(e.TxHash))
		}
		if e.Reason != "" {
			fmt.Printf("      %s\n", e.Reason)
		}
	}

	fmt.Printf("\nTotal: %d swaps (%s)\n\n", len(entries), store.GetFilePath())
}
