package cmd

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"aaswap/config"
	"aaswap/pkg/logger"
	"aaswap/pkg/signer"
	"aaswap/pkg/wallet"
)

var signerAutoApprove bool

var signerCmd = &cobra.Command{
	Use:   "signer",
	Short: "Run the wallet signing service",
	Long: `Run the signing service the swap command delegates to. The service holds
the private key, answers address requests and signs and broadcasts
transactions after an approval prompt.

The private key is read from AASWAP_SIGNER_PRIVATE_KEY or the config
file; it is never accepted as a flag.

Examples:
  aaswap signer
  aaswap signer --auto-approve`,
	Run: runSigner,
}

func init() {
	rootCmd.AddCommand(signerCmd)

	signerCmd.Flags().BoolVar(&signerAutoApprove, "auto-approve", false, "Sign every request without prompting")
}

func runSigner(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if cfg.SignerPrivateKey == "" {
		printError(fmt.Errorf("signer private key not configured. Set AASWAP_SIGNER_PRIVATE_KEY"))
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	backend, err := ethclient.Dial(cfg.RPCUrl)
	if err != nil {
		printError(fmt.Errorf("failed to connect to RPC endpoint: %w", err))
		os.Exit(1)
	}
	defer backend.Close()

	var approve signer.Approver
	if !signerAutoApprove && !cfg.SignerAutoApprove {
		approve = promptApproval
	}

	service, err := signer.New(cfg.ChainID, cfg.SignerPrivateKey, cfg.SigningServiceOrigin, cfg.SignerAllowedOrigins, backend, approve, log)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/transaction_signing", service)

	color.Green("\nSigning service listening on %s", cfg.SignerListenAddr)
	fmt.Printf("  Address:         %s\n", color.CyanString(service.Address()))
	fmt.Printf("  Allowed origins: %s\n\n", strings.Join(cfg.SignerAllowedOrigins, ", "))

	if err := http.ListenAndServe(cfg.SignerListenAddr, mux); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func promptApproval(req wallet.TransactionRequest) bool {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Yellow("               SIGNING REQUEST")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("\n  From:      %s\n", req.From)
	fmt.Printf("  To:        %s\n", req.To)
	fmt.Printf("  Value:     %s wei\n", req.Value)
	fmt.Printf("  Gas Limit: %s\n", req.GasLimit)
	if req.Data != "" {
		data := req.Data
		if len(data) > 74 {
			data = data[:74] + "..."
		}
		fmt.Printf("  Data:      %s\n", data)
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nApprove this transaction? (y/N): ")
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
