package wallet

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
)

// Network identifies the chain a wallet session is scoped to. The values
// travel inside protocol messages, so they are stable chain identifiers
// rather than iota ordinals.
type Network int

const (
	NetworkEthereum Network = 1
	NetworkSepolia  Network = 11155111
	NetworkSolana   Network = 101
)

// Name returns a human-readable network name.
func (n Network) Name() string {
	switch n {
	case NetworkEthereum:
		return "Ethereum Mainnet"
	case NetworkSepolia:
		return "Ethereum Sepolia (Testnet)"
	case NetworkSolana:
		return "Solana Mainnet"
	default:
		return fmt.Sprintf("Unknown Network (%d)", int(n))
	}
}

// IsEVM returns true for networks whose transactions are Ethereum-shaped.
func (n Network) IsEVM() bool {
	return n == NetworkEthereum || n == NetworkSepolia
}

// ValidateAddress checks that an address is well-formed for the network.
func (n Network) ValidateAddress(address string) error {
	switch {
	case n.IsEVM():
		if !common.IsHexAddress(address) {
			return fmt.Errorf("invalid EVM address: %s", address)
		}
		return nil
	case n == NetworkSolana:
		if _, err := solana.PublicKeyFromBase58(address); err != nil {
			return fmt.Errorf("invalid Solana address %s: %w", address, err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported network: %d", int(n))
	}
}
