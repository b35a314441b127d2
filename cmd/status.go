package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"aaswap/config"
	"aaswap/pkg/chain"
	"aaswap/pkg/wallet"
)

var waitTimeout int

var statusCmd = &cobra.Command{
	Use:   "status <tx-hash>",
	Short: "Check the status of a swap transaction",
	Long: `Look up a swap transaction on chain and report whether it succeeded.
Blocks until the transaction is mined or the timeout expires. Failed
transactions are annotated with the revert reason when one can be
fetched.

Examples:
  aaswap status 0x1234...abcd
  aaswap status 0x1234...abcd --timeout 120`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().IntVar(&waitTimeout, "timeout", 60, "Seconds to wait for the transaction to be mined")
}

func runStatus(cmd *cobra.Command, args []string) {
	txHash := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	chainClient, err := chain.NewClient(cfg.RPCUrl)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer chainClient.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(waitTimeout)*time.Second)
	defer cancel()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Waiting for transaction..."
		s.Start()
	}

	receipt, err := chainClient.WaitForReceipt(ctx, txHash)

	var reason string
	if err == nil && !receipt.Succeeded() {
		diagnostics := chain.NewDiagnostics(cfg.DiagnosticsURL, cfg.ChainID)
		reason, _ = diagnostics.RevertReason(ctx, txHash)
		if reason == "" {
			reason = "transaction reverted"
		}
	}

	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		output := map[string]interface{}{
			"hash":         receipt.Hash,
			"block_number": receipt.BlockNumber,
			"gas_used":     receipt.GasUsed,
			"succeeded":    receipt.Succeeded(),
		}
		if reason != "" {
			output["revert_reason"] = reason
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayReceipt(receipt, reason)
}

func displayReceipt(receipt wallet.TransactionReceipt, reason string) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                     TRANSACTION STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Transaction:  %s\n", color.CyanString(receipt.Hash))
	fmt.Printf("  Block:        %d\n", receipt.BlockNumber)
	fmt.Printf("  Gas Used:     %d\n", receipt.GasUsed)
	if receipt.Succeeded() {
		fmt.Printf("  Status:       %s\n", color.GreenString("SUCCESS"))
	} else {
		fmt.Printf("  Status:       %s\n", color.RedString("FAILED"))
		fmt.Printf("  Reason:       %s\n", reason)
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}
