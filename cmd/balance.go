package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"aaswap/config"
	"aaswap/pkg/chain"
	"aaswap/pkg/swap"
	"aaswap/pkg/tokens"
)

var balanceCmd = &cobra.Command{
	Use:   "balance <symbol> <address>",
	Short: "Show a token balance",
	Long: `Read an address's balance of a token and its USD value.

Examples:
  aaswap balance ETH 0x1234...abcd
  aaswap balance USDC 0x1234...abcd`,
	Args: cobra.ExactArgs(2),
	Run:  runBalance,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func runBalance(cmd *cobra.Command, args []string) {
	symbol, owner := args[0], args[1]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	ctx := context.Background()
	token, err := tokens.NewCatalog(cfg.ChainID, cfg.TokenListURL).Find(ctx, symbol)
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

	raw, err := readBalance(ctx, chainClient, token, owner)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	readable, err := swap.FormatReadableAmount(raw, token.Decimals, 6)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	// Best effort
	fiat, _ := tokens.NewPriceClient(cfg.PriceAPIURL).FiatValue(ctx, token.Symbol, readable)

	if jsonOutput {
		output := map[string]interface{}{
			"symbol":  token.Symbol,
			"address": owner,
			"raw":     raw,
			"balance": readable,
		}
		if fiat != "" {
			output["usd_value"] = fiat
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Printf("\n  %s %s", readable, color.YellowString(token.Symbol))
	if fiat != "" {
		fmt.Printf(" (~$%s)", fiat)
	}
	fmt.Println()
	fmt.Println()
}

func readBalance(ctx context.Context, c *chain.Client, token *tokens.Token, owner string) (string, error) {
	if token.IsNative() {
		raw, err := c.NativeBalance(ctx, owner)
		if err != nil {
			return "", err
		}
		return raw.String(), nil
	}
	raw, err := c.Balance(ctx, token.Address, owner)
	if err != nil {
		return "", err
	}
	return raw.String(), nil
}
