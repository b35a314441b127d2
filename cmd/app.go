package cmd

import (
	"fmt"

	"github.com/rs/zerolog"

	"aaswap/config"
	"aaswap/pkg/chain"
	"aaswap/pkg/logger"
	"aaswap/pkg/routeapi"
	"aaswap/pkg/swap"
	"aaswap/pkg/tokens"
	"aaswap/pkg/uniswap"
	"aaswap/pkg/wallet"
)

// app bundles the wired components every command works with.
type app struct {
	cfg          *config.Config
	log          zerolog.Logger
	chain        *chain.Client
	wallet       *wallet.Wallet
	catalog      *tokens.Catalog
	orchestrator *swap.Orchestrator
	executor     *swap.Executor
}

// newApp builds the full component graph from configuration.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.LogLevel)

	chainClient, err := chain.NewClient(cfg.RPCUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}

	network := wallet.Network(cfg.ChainID)
	channel := wallet.NewChannel(cfg.SigningServiceURL, cfg.SigningServiceOrigin, cfg.AppOrigin, network, log)
	session := wallet.NewSession(network)
	diagnostics := chain.NewDiagnostics(cfg.DiagnosticsURL, cfg.ChainID)
	w := wallet.New(channel, session, chainClient, diagnostics, log)

	quoter := routeapi.NewClient(cfg.RouteAPIURL)
	pricer := tokens.NewPriceClient(cfg.PriceAPIURL)
	orchestrator := swap.NewOrchestrator(cfg.ChainID, cfg.WETHAddress, quoter, chainClient, pricer, log)

	codec, err := uniswap.NewCodec()
	if err != nil {
		chainClient.Close()
		return nil, err
	}
	executor := swap.NewExecutor(w, chainClient, codec, cfg.RouterAddress, orchestrator.RefreshBalances, log)
	orchestrator.OnQuoteChange(executor.Reset)

	return &app{
		cfg:          cfg,
		log:          log,
		chain:        chainClient,
		wallet:       w,
		catalog:      tokens.NewCatalog(cfg.ChainID, cfg.TokenListURL),
		orchestrator: orchestrator,
		executor:     executor,
	}, nil
}

// Close releases the app's connections.
func (a *app) Close() {
	a.chain.Close()
}
