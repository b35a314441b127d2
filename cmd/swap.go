package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"aaswap/pkg/history"
	"aaswap/pkg/parser"
	"aaswap/pkg/routeapi"
	"aaswap/pkg/swap"
	"aaswap/pkg/tokens"
	"aaswap/pkg/types"
	"aaswap/pkg/uniswap"
)

var (
	slippageBps  int64
	gasBufferBps int64
	maxSplits    int
	noConfirm    bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <pay-token> to <receive-token>",
	Short: "Swap tokens through Uniswap V3",
	Long: `Swap tokens through the Uniswap V3 router. The amount side is the fixed
side: put it before the pay token for an exact-input trade, or before the
receive token to receive an exact amount.

Signing happens in the external wallet service; start it with
'aaswap signer' or point AASWAP_SIGNING_SERVICE_URL at a running one.

Examples:
  # Pay exactly 1 WETH
  aaswap swap 1 WETH to USDC

  # Receive exactly 100 USDC
  aaswap swap DAI to 100 USDC

  # Pay with native ether, custom slippage (basis points)
  aaswap swap 0.5 ETH to UNI --slippage-bps 50

  # Skip the confirmation prompt
  aaswap swap 1 WETH to USDC --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	defaults := swap.DefaultConfigs()
	swapCmd.Flags().Int64Var(&slippageBps, "slippage-bps", defaults.SlippageBps, "Slippage tolerance in basis points")
	swapCmd.Flags().Int64Var(&gasBufferBps, "gas-buffer-bps", defaults.GasBufferBps, "Gas limit buffer in basis points")
	swapCmd.Flags().IntVar(&maxSplits, "max-splits", defaults.MaxSplits, "Maximum parallel route paths")
	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
}

func runSwap(cmd *cobra.Command, args []string) {
	commandStr := strings.Join(args, " ")
	swapReq, err := parser.ParseSwapCommand(commandStr)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if err := parser.ValidateSwapRequest(swapReq); err != nil {
		printError(err)
		os.Exit(1)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.Close()

	ctx := context.Background()

	configs := a.orchestrator.Configs()
	configs.SlippageBps = slippageBps
	configs.GasBufferBps = gasBufferBps
	configs.MaxSplits = maxSplits
	if err := a.orchestrator.SetConfigs(ctx, configs); err != nil {
		printError(err)
		os.Exit(1)
	}

	payToken, err := findToken(ctx, a.catalog, swapReq.PayToken)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	receiveToken, err := findToken(ctx, a.catalog, swapReq.ReceiveToken)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	// Fetch quote with spinner
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}

	fixedSide := swap.InputPay
	if swapReq.ExactOut {
		fixedSide = swap.InputReceive
	}
	err = a.orchestrator.SetToken(ctx, swap.InputPay, *payToken)
	if err == nil {
		err = a.orchestrator.SetToken(ctx, swap.InputReceive, *receiveToken)
	}
	if err == nil {
		err = a.orchestrator.SetInputValue(ctx, fixedSide, swapReq.Amount)
	}

	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if notice := a.orchestrator.Notice(); notice != "" {
		printError(fmt.Errorf("%s", notice))
		os.Exit(1)
	}

	trade, err := a.orchestrator.Trade()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	display := buildDisplay(trade, a.orchestrator)
	if jsonOutput {
		jsonData, _ := json.MarshalIndent(display, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayQuote(display)
	}
	if verbose {
		quoteJSON, _ := json.MarshalIndent(trade.Quote, "", "  ")
		fmt.Printf("\nQuote received:\n%s\n", string(quoteJSON))
	}

	if !noConfirm && !jsonOutput {
		if !confirmSwap() {
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}
	}

	// Connect the wallet. This opens the signing window once; the
	// service keeps answering on the same session afterwards.
	if _, ok := a.wallet.Address(); !ok {
		if !jsonOutput {
			s.Suffix = " Connecting wallet..."
			s.Start()
		}
		login := a.wallet.Login(ctx)
		if !jsonOutput {
			s.Stop()
		}
		if login.Failed() {
			printError(fmt.Errorf("wallet connection failed: %s", login.Message))
			os.Exit(1)
		}
		if !jsonOutput {
			color.Green("\n✓ Wallet connected: %s\n", login.Value)
		}
		a.executor.Reset()
	}

	if !jsonOutput {
		s.Suffix = " Executing swap..."
		s.Start()
	}
	step := a.executor.Execute(ctx, trade)
	if !jsonOutput {
		s.Stop()
	}

	outcome := types.SwapOutcome{
		Step:      string(step),
		TxHash:    a.executor.TxHash(),
		Reason:    a.executor.Reason(),
		Timestamp: time.Now().Format(time.RFC3339),
	}
	recordHistory(a, trade, outcome, verbose)

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(outcome, "", "  ")
		fmt.Println(string(jsonData))
		if step != swap.StepSuccess {
			os.Exit(1)
		}
		return
	}

	switch step {
	case swap.StepSuccess:
		printSuccess(color.GreenString("✓ Swap confirmed!"))
		fmt.Printf("  Transaction: %s\n", color.CyanString(outcome.TxHash))
		fmt.Println("\nYou can inspect the transaction using:")
		color.Cyan("  aaswap status %s\n", outcome.TxHash)
	case swap.StepCancelled:
		color.Yellow("\nSwap cancelled: %s\n", outcome.Reason)
	default:
		color.Red("\nSwap failed: %s\n", outcome.Reason)
		if outcome.TxHash != "" {
			fmt.Printf("  Transaction: %s\n", outcome.TxHash)
		}
		os.Exit(1)
	}
}

func buildDisplay(trade *swap.Trade, orchestrator *swap.Orchestrator) *types.QuoteDisplay {
	md := trade.Metadata
	display := &types.QuoteDisplay{
		PayAmount:       orchestrator.ReadableValue(swap.InputPay),
		PayToken:        trade.Pay.Symbol,
		ReceiveAmount:   orchestrator.ReadableValue(swap.InputReceive),
		ReceiveToken:    trade.Receive.Symbol,
		BestPrice:       md.BestPrice,
		MinimumReceived: md.MinimumReceived,
		MaximumSpent:    md.MaximumSpent,
		Fee:             md.FeeEstimate,
		UsdFee:          md.UsdFee,
		PriceImpact:     trade.Quote.PriceImpact,
		RouteSummary:    routeSummary(trade),
	}
	return display
}

func routeSummary(trade *swap.Trade) string {
	shares := routeapi.ParseRouteString(trade.Quote.RouteString)
	if len(shares) != len(trade.Quote.Route) {
		return trade.Quote.RouteString
	}
	parts := make([]string, 0, len(shares))
	for i, share := range shares {
		path := trade.Quote.Route[i]
		hops := make([]string, 0, len(path)+1)
		if len(path) > 0 {
			hops = append(hops, path[0].TokenIn.Symbol)
		}
		for _, hop := range path {
			hops = append(hops, fmt.Sprintf("%s (%s)", hop.TokenOut.Symbol, uniswap.FormatFee(hop.Fee)))
		}
		parts = append(parts, fmt.Sprintf("%.0f%% %s", share.Percentage, strings.Join(hops, " > ")))
	}
	return strings.Join(parts, " | ")
}

func displayQuote(display *types.QuoteDisplay) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     SWAP QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Pay:               %s %s\n", display.PayAmount, color.YellowString(display.PayToken))
	fmt.Printf("  Receive:           ~%s %s\n", display.ReceiveAmount, color.YellowString(display.ReceiveToken))
	fmt.Printf("  Best Price:        %s %s per %s\n", display.BestPrice, display.ReceiveToken, display.PayToken)

	if display.MinimumReceived != "" {
		fmt.Printf("  Minimum Received:  %s (raw %s units)\n", display.MinimumReceived, display.ReceiveToken)
	}
	if display.MaximumSpent != "" {
		fmt.Printf("  Maximum Spent:     %s (raw %s units)\n", display.MaximumSpent, display.PayToken)
	}
	fmt.Printf("  Network Fee:       %s ETH", display.Fee)
	if display.UsdFee != "" {
		fmt.Printf(" (~$%s)", display.UsdFee)
	}
	fmt.Println()
	if display.PriceImpact != "" {
		fmt.Printf("  Price Impact:      %s%%\n", display.PriceImpact)
	}
	if display.RouteSummary != "" {
		fmt.Printf("  Route:             %s\n", display.RouteSummary)
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
}

func confirmSwap() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed with swap? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func recordHistory(a *app, trade *swap.Trade, outcome types.SwapOutcome, verbose bool) {
	store, err := history.NewStorage("")
	if err != nil {
		a.log.Warn().Err(err).Msg("history storage unavailable")
		return
	}
	entry := history.Entry{
		PayToken:      trade.Pay.Symbol,
		PayAmount:     a.orchestrator.ReadableValue(swap.InputPay),
		ReceiveToken:  trade.Receive.Symbol,
		ReceiveAmount: a.orchestrator.ReadableValue(swap.InputReceive),
		TradeType:     trade.TradeType.String(),
		Step:          outcome.Step,
		TxHash:        outcome.TxHash,
		Reason:        outcome.Reason,
	}
	if err := store.Append(entry); err != nil {
		a.log.Warn().Err(err).Msg("failed to record swap history")
	} else if verbose {
		fmt.Printf("\nRecorded in %s\n", store.GetFilePath())
	}
}

func findToken(ctx context.Context, catalog *tokens.Catalog, symbol string) (*tokens.Token, error) {
	token, err := catalog.Find(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("token %s not found (try: aaswap list-tokens)", symbol)
	}
	return token, nil
}
