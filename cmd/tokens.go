package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"aaswap/config"
	"aaswap/pkg/tokens"
)

var filterSymbol string

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens", "ls"},
	Short:   "List the swappable tokens",
	Long: `List the tokens available for swapping on the configured chain.

Tokens come from the configured token list when one is set, otherwise
from a built-in default list.

Examples:
  aaswap list-tokens
  aaswap list-tokens --symbol USDC`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter by token symbol")
}

func runListTokens(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	catalog := tokens.NewCatalog(cfg.ChainID, cfg.TokenListURL)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching tokens..."
		s.Start()
	}

	list, err := catalog.List(context.Background())
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if filterSymbol != "" {
		var temp []tokens.Token
		for _, token := range list {
			if strings.Contains(strings.ToUpper(token.Symbol), strings.ToUpper(filterSymbol)) {
				temp = append(temp, token)
			}
		}
		list = temp
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(list, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayTokens(list, cfg.ChainID)
	}
}

func displayTokens(list []tokens.Token, chainID int64) {
	if len(list) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Symbol < list[j].Symbol })

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                            AVAILABLE TOKENS (chain %d)", chainID)
	fmt.Println(strings.Repeat("=", 90))
	fmt.Println()

	for _, token := range list {
		address := token.Address
		if token.IsNative() {
			address = "native"
		}
		fmt.Printf("  %-10s  %2d decimals  %s  %s\n",
			color.YellowString(token.Symbol),
			token.Decimals,
			color.HiBlackString(address),
			token.Name)
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d tokens\n\n", len(list))
}
