package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	// Wallet connector
	SigningServiceURL    string
	SigningServiceOrigin string
	AppOrigin            string

	// Chain
	ChainID       int64
	RPCUrl        string
	RouterAddress string
	WETHAddress   string

	// Collaborator endpoints
	RouteAPIURL    string
	DiagnosticsURL string
	PriceAPIURL    string
	TokenListURL   string

	// Signer service (only used by the signer process)
	SignerListenAddr     string
	SignerPrivateKey     string
	SignerAllowedOrigins []string
	SignerAutoApprove    bool

	LogLevel string
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".aaswap")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Set default values for a local dev setup
	viper.SetDefault("signing_service_url", "ws://localhost:3000/transaction_signing")
	viper.SetDefault("signing_service_origin", "http://localhost:3000")
	viper.SetDefault("app_origin", "http://localhost:3001")
	viper.SetDefault("chain_id", 11155111)
	viper.SetDefault("rpc_url", "http://localhost:8545")
	viper.SetDefault("router_address", "0x3bFA4769FB09eefC5a80d6E87c3B9C650f7Ae48E")
	viper.SetDefault("weth_address", "0xfFf9976782d46CC05630D1f6eBAb18b2324d6B14")
	viper.SetDefault("route_api_url", "https://api.uniswap.org/v1/quote")
	viper.SetDefault("diagnostics_url", "https://api.tenderly.co/api/v1/public-contract")
	viper.SetDefault("price_api_url", "https://api.coinbase.com/v2/prices")
	viper.SetDefault("signer_listen_addr", "localhost:3000")
	viper.SetDefault("signer_allowed_origins", []string{"http://localhost:3001"})
	viper.SetDefault("log_level", "info")

	// Read from environment variables
	viper.SetEnvPrefix("AASWAP")
	viper.AutomaticEnv()

	// Read config file (optional)
	_ = viper.ReadInConfig()

	// Create config struct
	cfg := &Config{
		SigningServiceURL:    viper.GetString("signing_service_url"),
		SigningServiceOrigin: viper.GetString("signing_service_origin"),
		AppOrigin:            viper.GetString("app_origin"),
		ChainID:              viper.GetInt64("chain_id"),
		RPCUrl:               viper.GetString("rpc_url"),
		RouterAddress:        viper.GetString("router_address"),
		WETHAddress:          viper.GetString("weth_address"),
		RouteAPIURL:          viper.GetString("route_api_url"),
		DiagnosticsURL:       viper.GetString("diagnostics_url"),
		PriceAPIURL:          viper.GetString("price_api_url"),
		TokenListURL:         viper.GetString("token_list_url"),
		SignerListenAddr:     viper.GetString("signer_listen_addr"),
		SignerPrivateKey:     viper.GetString("signer_private_key"),
		SignerAllowedOrigins: viper.GetStringSlice("signer_allowed_origins"),
		SignerAutoApprove:    viper.GetBool("signer_auto_approve"),
		LogLevel:             viper.GetString("log_level"),
	}

	if cfg.SigningServiceURL == "" {
		return nil, fmt.Errorf("signing service URL not configured. Please set AASWAP_SIGNING_SERVICE_URL or create a .aaswap.yaml config file")
	}

	globalConfig = cfg
	return cfg, nil
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
