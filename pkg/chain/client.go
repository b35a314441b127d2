// Package chain provides the on-chain read collaborators: token
// balances, allowances and transaction receipts over an RPC endpoint.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"aaswap/pkg/wallet"
)

// ERC20 read functions used by the front end
const erc20ReadABI = `[{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"},{"constant":true,"inputs":[{"name":"_owner","type":"address"},{"name":"_spender","type":"address"}],"name":"allowance","outputs":[{"name":"remaining","type":"uint256"}],"type":"function"}]`

const receiptPollInterval = 2 * time.Second

// Client reads token and transaction state from an EVM chain.
type Client struct {
	eth   *ethclient.Client
	erc20 abi.ABI
}

// NewClient connects to the RPC endpoint.
func NewClient(rpcURL string) (*Client, error) {
	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(erc20ReadABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}

	return &Client{eth: eth, erc20: parsed}, nil
}

// Balance returns the ERC-20 balance of owner.
func (c *Client) Balance(ctx context.Context, token, owner string) (*big.Int, error) {
	return c.readUint(ctx, token, "balanceOf", common.HexToAddress(owner))
}

// NativeBalance returns the native-asset balance of owner.
func (c *Client) NativeBalance(ctx context.Context, owner string) (*big.Int, error) {
	balance, err := c.eth.BalanceAt(ctx, common.HexToAddress(owner), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// Allowance returns the amount owner has pre-authorized spender to move.
func (c *Client) Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error) {
	return c.readUint(ctx, token, "allowance", common.HexToAddress(owner), common.HexToAddress(spender))
}

// WaitForReceipt polls until the transaction is mined and returns its
// receipt. The caller bounds the wait through ctx.
func (c *Client) WaitForReceipt(ctx context.Context, hash string) (wallet.TransactionReceipt, error) {
	txHash := common.HexToHash(hash)

	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.eth.TransactionReceipt(ctx, txHash)
		if err == nil {
			return wallet.TransactionReceipt{
				Hash:        receipt.TxHash.Hex(),
				BlockNumber: receipt.BlockNumber.Uint64(),
				GasUsed:     receipt.GasUsed,
				Status:      receipt.Status,
			}, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return wallet.TransactionReceipt{}, fmt.Errorf("failed to get transaction receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return wallet.TransactionReceipt{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// readUint calls a view function returning a single uint256.
func (c *Client) readUint(ctx context.Context, contract, method string, args ...interface{}) (*big.Int, error) {
	data, err := c.erc20.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s data: %w", method, err)
	}

	to := common.HexToAddress(contract)
	result, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}

	value := new(big.Int)
	value.SetBytes(result)
	return value, nil
}

// Close closes the client connection.
func (c *Client) Close() {
	if c.eth != nil {
		c.eth.Close()
	}
}
