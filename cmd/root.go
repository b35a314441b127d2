package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "aaswap",
	Short: "A CLI for swapping tokens through Uniswap V3 with an external signing wallet",
	Long: `aaswap is a command-line front end for Uniswap V3 token swaps. Signing is
delegated to a separate wallet service over a websocket channel, so the
private key never touches this process.

Examples:
  aaswap swap 1 WETH to USDC
  aaswap swap DAI to 100 USDC
  aaswap list-tokens
  aaswap status <tx-hash>
  aaswap signer`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
