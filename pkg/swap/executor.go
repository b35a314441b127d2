package swap

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"

	"aaswap/pkg/uniswap"
	"aaswap/pkg/wallet"
)

// Step is the executor's position in the swap flow.
type Step string

const (
	StepGuest             Step = "GUEST"
	StepInput             Step = "INPUT"
	StepConfirmingApprove Step = "CONFIRMING_APPROVE"
	StepConfirmingSwap    Step = "CONFIRMING_SWAP"
	StepSwapping          Step = "SWAPPING"
	StepSuccess           Step = "SUCCESS"
	StepFailed            Step = "FAILED"
	StepCancelled         Step = "CANCELLED"
)

// Terminal reports whether the step ends a swap attempt.
func (s Step) Terminal() bool {
	return s == StepSuccess || s == StepFailed || s == StepCancelled
}

// WalletAPI is the slice of the wallet connector the executor needs.
type WalletAPI interface {
	Address() (string, bool)
	SendTransaction(ctx context.Context, payload wallet.TransactionRequest) <-chan wallet.Result[wallet.TransactionResponse]
	WaitTransaction(ctx context.Context, hash string) wallet.Result[wallet.TransactionReceipt]
}

// AllowanceReader reads an ERC-20 allowance.
type AllowanceReader interface {
	Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error)
}

// Executor drives a trade snapshot through approval and swap signing.
// Steps move strictly forward within one Execute call; Reset returns a
// terminal executor to the input step.
type Executor struct {
	wallet        WalletAPI
	allowances    AllowanceReader
	codec         *uniswap.Codec
	router        common.Address
	refreshFunds  func(ctx context.Context, owner string)
	log           zerolog.Logger

	mu     sync.Mutex
	step   Step
	reason string
	txHash string
}

// NewExecutor builds an executor starting at GUEST or INPUT depending
// on whether an address is connected. refreshFunds is called after
// every terminal step, best effort.
func NewExecutor(w WalletAPI, allowances AllowanceReader, codec *uniswap.Codec, router string, refreshFunds func(ctx context.Context, owner string), log zerolog.Logger) *Executor {
	e := &Executor{
		wallet:       w,
		allowances:   allowances,
		codec:        codec,
		router:       common.HexToAddress(router),
		refreshFunds: refreshFunds,
		log:          log.With().Str("component", "executor").Logger(),
	}
	e.Reset()
	return e
}

// Step returns the current step.
func (e *Executor) Step() Step {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.step
}

// Reason returns the failure or cancellation message for the current
// terminal step, empty otherwise.
func (e *Executor) Reason() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reason
}

// TxHash returns the swap transaction hash once one has been signed.
func (e *Executor) TxHash() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.txHash
}

// Reset returns to INPUT, or GUEST when no wallet is connected. It is
// also the quote-change hook: a trade that changed underfoot must be
// re-reviewed before signing.
func (e *Executor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.step == StepConfirmingApprove || e.step == StepConfirmingSwap || e.step == StepSwapping {
		// An in-flight attempt keeps its step; Execute owns it.
		return
	}
	e.reason = ""
	e.txHash = ""
	if _, ok := e.wallet.Address(); ok {
		e.step = StepInput
	} else {
		e.step = StepGuest
	}
}

func (e *Executor) transition(step Step, reason string) {
	e.mu.Lock()
	e.step = step
	e.reason = reason
	e.mu.Unlock()
	evt := e.log.Info().Str("step", string(step))
	if reason != "" {
		evt = evt.Str("reason", reason)
	}
	evt.Msg("step changed")
}

// Execute runs one swap attempt: allowance checks and approvals first,
// then the multicall swap, then receipt confirmation. It blocks until a
// terminal step and returns that step.
func (e *Executor) Execute(ctx context.Context, trade *Trade) Step {
	owner, ok := e.wallet.Address()
	if !ok {
		e.transition(StepGuest, "")
		return StepGuest
	}

	defer func() {
		if e.Step().Terminal() && e.refreshFunds != nil {
			e.refreshFunds(ctx, owner)
		}
	}()

	if !trade.Pay.IsNative() {
		step := e.runApprovals(ctx, trade, owner)
		if step.Terminal() {
			return step
		}
	}

	payload, err := e.buildSwapTransaction(trade, owner)
	if err != nil {
		e.transition(StepFailed, err.Error())
		return StepFailed
	}

	e.transition(StepConfirmingSwap, "")
	signed := <-e.wallet.SendTransaction(ctx, *payload)
	if signed.Failed() {
		e.transition(StepCancelled, signed.Message)
		return StepCancelled
	}

	e.mu.Lock()
	e.txHash = signed.Value.Hash
	e.mu.Unlock()
	e.transition(StepSwapping, "")

	mined := e.wallet.WaitTransaction(ctx, signed.Value.Hash)
	if mined.Failed() {
		e.transition(StepFailed, mined.Message)
		return StepFailed
	}
	e.transition(StepSuccess, "")
	return StepSuccess
}

// runApprovals grants the router an unlimited allowance for every route
// input token whose current allowance cannot cover the trade. Each
// approval is signed and mined before the next; any failure aborts the
// attempt before the swap is ever proposed.
func (e *Executor) runApprovals(ctx context.Context, trade *Trade, owner string) Step {
	required, err := requiredPayAmount(trade)
	if err != nil {
		e.transition(StepFailed, err.Error())
		return StepFailed
	}

	for _, token := range routeInputTokens(trade) {
		allowance, err := e.allowances.Allowance(ctx, token, owner, e.router.Hex())
		if err != nil {
			e.transition(StepFailed, fmt.Sprintf("allowance check failed: %v", err))
			return StepFailed
		}
		if allowance.Cmp(required) >= 0 {
			continue
		}

		data, err := e.codec.EncodeApprove(e.router, uniswap.MaxUint256)
		if err != nil {
			e.transition(StepFailed, err.Error())
			return StepFailed
		}
		e.transition(StepConfirmingApprove, "")
		signed := <-e.wallet.SendTransaction(ctx, wallet.TransactionRequest{
			From:     owner,
			To:       token,
			GasLimit: "60000",
			Value:    "0",
			Data:     hexutil.Encode(data),
		})
		if signed.Failed() {
			// A rejection at the approval stage aborts the whole attempt.
			// Only a rejection of the swap itself counts as a cancel.
			e.transition(StepFailed, signed.Message)
			return StepFailed
		}
		mined := e.wallet.WaitTransaction(ctx, signed.Value.Hash)
		if mined.Failed() {
			e.transition(StepFailed, fmt.Sprintf("approval failed: %s", mined.Message))
			return StepFailed
		}
	}
	return StepConfirmingSwap
}

// buildSwapTransaction packs every route path into a single router
// multicall. Intermediate output stays with the router when the receive
// token is native ether; an unwrap call then forwards it. Paying with
// native ether funds the call with msg.value and refunds any excess.
func (e *Executor) buildSwapTransaction(trade *Trade, owner string) (*wallet.TransactionRequest, error) {
	receiveNative := trade.Receive.IsNative()
	recipient := common.HexToAddress(owner)
	if receiveNative {
		recipient = uniswap.RecipientRouter
	}

	var calls [][]byte
	for i, path := range trade.Quote.Route {
		if len(path) == 0 {
			return nil, fmt.Errorf("route path %d is empty", i)
		}
		packed, err := uniswap.EncodePath(path, trade.TradeType)
		if err != nil {
			return nil, fmt.Errorf("route path %d: %w", i, err)
		}
		pathIn, err := parseRaw(path[0].AmountIn)
		if err != nil {
			return nil, fmt.Errorf("route path %d input: %w", i, err)
		}
		pathOut, err := parseRaw(path[len(path)-1].AmountOut)
		if err != nil {
			return nil, fmt.Errorf("route path %d output: %w", i, err)
		}

		var call []byte
		if trade.TradeType == uniswap.ExactInput {
			minOut := ApplyBpsDown(pathOut, trade.Configs.SlippageBps)
			call, err = e.codec.EncodeExactInput(packed, recipient, pathIn, minOut)
		} else {
			maxIn := ApplyBpsUp(pathIn, trade.Configs.SlippageBps)
			call, err = e.codec.EncodeExactOutput(packed, recipient, pathOut, maxIn)
		}
		if err != nil {
			return nil, fmt.Errorf("route path %d: %w", i, err)
		}
		calls = append(calls, call)
	}

	if receiveNative {
		minOut, err := totalMinimumOut(trade)
		if err != nil {
			return nil, err
		}
		unwrap, err := e.codec.EncodeUnwrapWETH9(minOut, common.HexToAddress(owner))
		if err != nil {
			return nil, err
		}
		calls = append(calls, unwrap)
	}

	value := "0"
	if trade.Pay.IsNative() {
		total, err := totalValueIn(trade)
		if err != nil {
			return nil, err
		}
		value = total.String()
		refund, err := e.codec.EncodeRefundETH()
		if err != nil {
			return nil, err
		}
		calls = append(calls, refund)
	}

	data, err := e.codec.EncodeMulticall(calls)
	if err != nil {
		return nil, err
	}

	return &wallet.TransactionRequest{
		From:     owner,
		To:       e.router.Hex(),
		GasLimit: trade.Metadata.GasToPay,
		Value:    value,
		Data:     hexutil.Encode(data),
	}, nil
}

// routeInputTokens collects the distinct tokens the route consumes,
// first-hop input tokens of every path, deduplicated case-insensitively
// and reported in route order.
func routeInputTokens(trade *Trade) []string {
	seen := make(map[string]bool)
	var out []string
	for _, path := range trade.Quote.Route {
		if len(path) == 0 {
			continue
		}
		addr := path[0].TokenIn.Address
		key := strings.ToLower(addr)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, addr)
	}
	return out
}

// requiredPayAmount is the allowance a route input token must cover:
// the quoted input for exact-input trades, the slippage-padded maximum
// for exact-output trades.
func requiredPayAmount(trade *Trade) (*big.Int, error) {
	if trade.TradeType == uniswap.ExactInput {
		return parseRaw(trade.Quote.Amount)
	}
	return parseRaw(trade.Metadata.MaximumSpent)
}

// totalValueIn is the native value to attach: the quoted input for
// exact-input trades, the padded maximum for exact-output trades.
func totalValueIn(trade *Trade) (*big.Int, error) {
	return requiredPayAmount(trade)
}

// totalMinimumOut is the least output the whole trade accepts, used as
// the unwrap floor.
func totalMinimumOut(trade *Trade) (*big.Int, error) {
	if trade.TradeType == uniswap.ExactInput {
		return parseRaw(trade.Metadata.MinimumReceived)
	}
	return parseRaw(trade.Quote.Amount)
}
