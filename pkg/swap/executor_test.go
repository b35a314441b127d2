package swap

import (
	"context"
	"encoding/hex"
	"math/big"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"aaswap/pkg/routeapi"
	"aaswap/pkg/uniswap"
	"aaswap/pkg/wallet"
)

const (
	testOwner  = "0x71C7656EC7ab88b098defB751B7401B5f6d8976F"
	testRouter = "0x3bFA4769FB09eefC5a80d6E87c3B9C650f7Ae48E"

	approveSelector = "095ea7b3"
)

type fakeWallet struct {
	mu       sync.Mutex
	address  string
	sent     []wallet.TransactionRequest
	signErrs []string // one per sent transaction, "" for success
	waitFail map[string]string
	waited   []string
}

func (f *fakeWallet) Address() (string, bool) {
	return f.address, f.address != ""
}

func (f *fakeWallet) SendTransaction(ctx context.Context, payload wallet.TransactionRequest) <-chan wallet.Result[wallet.TransactionResponse] {
	f.mu.Lock()
	n := len(f.sent)
	f.sent = append(f.sent, payload)
	var failure string
	if n < len(f.signErrs) {
		failure = f.signErrs[n]
	}
	f.mu.Unlock()

	out := make(chan wallet.Result[wallet.TransactionResponse], 1)
	if failure != "" {
		out <- wallet.Errf[wallet.TransactionResponse]("%s", failure)
	} else {
		out <- wallet.Ok(wallet.TransactionResponse{Hash: hashFor(n)})
	}
	close(out)
	return out
}

func (f *fakeWallet) WaitTransaction(ctx context.Context, hash string) wallet.Result[wallet.TransactionReceipt] {
	f.mu.Lock()
	f.waited = append(f.waited, hash)
	reason, fail := f.waitFail[hash]
	f.mu.Unlock()
	if fail {
		return wallet.Errf[wallet.TransactionReceipt]("%s", reason)
	}
	return wallet.Ok(wallet.TransactionReceipt{Hash: hash, Status: 1})
}

func hashFor(n int) string {
	return "0xtx" + string(rune('0'+n))
}

type fakeAllowances struct {
	mu     sync.Mutex
	grants map[string]*big.Int
	reads  int
}

func (f *fakeAllowances) Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if grant, ok := f.grants[strings.ToLower(token)]; ok {
		return grant, nil
	}
	return big.NewInt(0), nil
}

func newTestExecutor(t *testing.T, w *fakeWallet, allowances *fakeAllowances, refreshed *int) *Executor {
	t.Helper()
	codec, err := uniswap.NewCodec()
	if err != nil {
		t.Fatal(err)
	}
	refresh := func(ctx context.Context, owner string) {
		if refreshed != nil {
			*refreshed++
		}
	}
	return NewExecutor(w, allowances, codec, testRouter, refresh, zerolog.Nop())
}

func erc20Trade(tradeType uniswap.TradeType) *Trade {
	quote := singleHop("1000000000000000000", "3000000000")
	md, err := ComputeMetadata(quote, DefaultConfigs(), tradeType, 18, 6)
	if err != nil {
		panic(err)
	}
	return &Trade{
		Pay:       testWETH,
		Receive:   testUSDC,
		TradeType: tradeType,
		Quote:     quote,
		Configs:   DefaultConfigs(),
		Metadata:  md,
	}
}

func tupleField(t *testing.T, tuple interface{}, name string) interface{} {
	t.Helper()
	v := reflect.ValueOf(tuple).FieldByName(name)
	if !v.IsValid() {
		t.Fatalf("tuple has no field %s", name)
	}
	return v.Interface()
}

func TestExecuteWithoutWalletStopsAtGuest(t *testing.T) {
	w := &fakeWallet{}
	e := newTestExecutor(t, w, &fakeAllowances{}, nil)

	if step := e.Execute(context.Background(), erc20Trade(uniswap.ExactInput)); step != StepGuest {
		t.Fatalf("step = %s", step)
	}
	if len(w.sent) != 0 {
		t.Fatal("transactions sent without a wallet")
	}
}

func TestExecuteApprovesBeforeSwap(t *testing.T) {
	w := &fakeWallet{address: testOwner}
	allowances := &fakeAllowances{}
	refreshed := 0
	e := newTestExecutor(t, w, allowances, &refreshed)

	step := e.Execute(context.Background(), erc20Trade(uniswap.ExactInput))
	if step != StepSuccess {
		t.Fatalf("step = %s, reason %q", step, e.Reason())
	}

	if len(w.sent) != 2 {
		t.Fatalf("sent %d transactions, want approval + swap", len(w.sent))
	}

	approval := w.sent[0]
	if !strings.EqualFold(approval.To, wethAddress) {
		t.Fatalf("approval sent to %s", approval.To)
	}
	if !strings.HasPrefix(strings.TrimPrefix(approval.Data, "0x"), approveSelector) {
		t.Fatalf("first transaction is not an approval: %s", approval.Data[:10])
	}
	// Unlimited approval: calldata ends in 32 bytes of 0xff.
	if !strings.HasSuffix(approval.Data, strings.Repeat("f", 64)) {
		t.Fatal("approval is not for the maximum amount")
	}

	swapTx := w.sent[1]
	if !strings.EqualFold(swapTx.To, testRouter) {
		t.Fatalf("swap sent to %s", swapTx.To)
	}
	if swapTx.Value != "0" {
		t.Fatalf("ERC-20 pay attached value %s", swapTx.Value)
	}
	if swapTx.GasLimit != "300000" {
		t.Fatalf("swap gas limit %s", swapTx.GasLimit)
	}

	// The approval was mined before the swap was proposed.
	if len(w.waited) != 2 || w.waited[0] != hashFor(0) {
		t.Fatalf("wait order %v", w.waited)
	}
	if refreshed == 0 {
		t.Fatal("balances not refreshed after terminal step")
	}
}

func TestExecuteSkipsSufficientAllowance(t *testing.T) {
	w := &fakeWallet{address: testOwner}
	allowances := &fakeAllowances{grants: map[string]*big.Int{
		strings.ToLower(wethAddress): uniswap.MaxUint256,
	}}
	e := newTestExecutor(t, w, allowances, nil)

	step := e.Execute(context.Background(), erc20Trade(uniswap.ExactInput))
	if step != StepSuccess {
		t.Fatalf("step = %s, reason %q", step, e.Reason())
	}
	if len(w.sent) != 1 {
		t.Fatalf("sent %d transactions, want swap only", len(w.sent))
	}
	if allowances.reads != 1 {
		t.Fatalf("allowance read %d times", allowances.reads)
	}
}

func TestExecuteRejectedApprovalFails(t *testing.T) {
	w := &fakeWallet{address: testOwner, signErrs: []string{"User closed window"}}
	e := newTestExecutor(t, w, &fakeAllowances{}, nil)

	step := e.Execute(context.Background(), erc20Trade(uniswap.ExactInput))
	if step != StepFailed {
		t.Fatalf("step = %s", step)
	}
	if e.Reason() != "User closed window" {
		t.Fatalf("reason = %q", e.Reason())
	}
	if len(w.sent) != 1 {
		t.Fatalf("swap proposed after rejected approval: %d transactions", len(w.sent))
	}
}

func TestExecuteRejectedSwapCancels(t *testing.T) {
	w := &fakeWallet{address: testOwner, signErrs: []string{"User closed window"}}
	allowances := &fakeAllowances{grants: map[string]*big.Int{
		strings.ToLower(wethAddress): uniswap.MaxUint256,
	}}
	e := newTestExecutor(t, w, allowances, nil)

	step := e.Execute(context.Background(), erc20Trade(uniswap.ExactInput))
	if step != StepCancelled {
		t.Fatalf("step = %s", step)
	}
	if e.Reason() != "User closed window" {
		t.Fatalf("reason = %q", e.Reason())
	}
	if e.TxHash() != "" {
		t.Fatalf("hash recorded for a rejected swap: %s", e.TxHash())
	}
}

func TestExecuteFailedApprovalAborts(t *testing.T) {
	w := &fakeWallet{
		address:  testOwner,
		waitFail: map[string]string{hashFor(0): "execution reverted"},
	}
	refreshed := 0
	e := newTestExecutor(t, w, &fakeAllowances{}, &refreshed)

	step := e.Execute(context.Background(), erc20Trade(uniswap.ExactInput))
	if step != StepFailed {
		t.Fatalf("step = %s", step)
	}
	if !strings.Contains(e.Reason(), "approval failed") {
		t.Fatalf("reason = %q", e.Reason())
	}
	if len(w.sent) != 1 {
		t.Fatal("swap proposed after failed approval")
	}
	if refreshed == 0 {
		t.Fatal("balances not refreshed after failure")
	}
}

func TestExecuteRevertedSwapFails(t *testing.T) {
	w := &fakeWallet{
		address:  testOwner,
		waitFail: map[string]string{hashFor(1): "STF"},
	}
	e := newTestExecutor(t, w, &fakeAllowances{}, nil)

	step := e.Execute(context.Background(), erc20Trade(uniswap.ExactInput))
	if step != StepFailed {
		t.Fatalf("step = %s", step)
	}
	if e.Reason() != "STF" {
		t.Fatalf("reason = %q", e.Reason())
	}
	if e.TxHash() != hashFor(1) {
		t.Fatalf("tx hash = %q", e.TxHash())
	}
}

func TestNativePaySkipsApprovalsAndAttachesValue(t *testing.T) {
	quote := singleHop("1000000000000000000", "3000000000")
	md, err := ComputeMetadata(quote, DefaultConfigs(), uniswap.ExactInput, 18, 6)
	if err != nil {
		t.Fatal(err)
	}
	trade := &Trade{
		Pay:       testETH,
		Receive:   testUSDC,
		TradeType: uniswap.ExactInput,
		Quote:     quote,
		Configs:   DefaultConfigs(),
		Metadata:  md,
	}

	w := &fakeWallet{address: testOwner}
	allowances := &fakeAllowances{}
	e := newTestExecutor(t, w, allowances, nil)

	step := e.Execute(context.Background(), trade)
	if step != StepSuccess {
		t.Fatalf("step = %s, reason %q", step, e.Reason())
	}
	if allowances.reads != 0 {
		t.Fatal("allowance checked for a native pay token")
	}
	if len(w.sent) != 1 {
		t.Fatalf("sent %d transactions", len(w.sent))
	}
	if w.sent[0].Value != "1000000000000000000" {
		t.Fatalf("value = %s", w.sent[0].Value)
	}

	codec, _ := uniswap.NewCodec()
	name, args, err := codec.DecodeCall(mustHex(t, w.sent[0].Data))
	if err != nil {
		t.Fatal(err)
	}
	if name != "multicall" {
		t.Fatalf("outer call = %s", name)
	}
	calls := args[0].([][]byte)
	if len(calls) != 2 {
		t.Fatalf("multicall has %d calls, want swap + refund", len(calls))
	}
	last, _, err := codec.DecodeCall(calls[len(calls)-1])
	if err != nil {
		t.Fatal(err)
	}
	if last != "refundETH" {
		t.Fatalf("trailing call = %s", last)
	}
}

func TestMultiPathNativeReceiveRoutesThroughRouter(t *testing.T) {
	quote := &routeapi.QuoteResponse{
		Amount:            "2000000000", // pay 2000 USDC
		Quote:             "1000000000000000000",
		GasUseEstimate:    "250000",
		GasPriceWei:       "1000000000",
		GasUseEstimateUSD: "2.50",
		Route: []routeapi.Path{
			{{
				TokenIn:   routeapi.RouteToken{Address: usdcAddress, Symbol: "USDC", Decimals: "6"},
				TokenOut:  routeapi.RouteToken{Address: wethAddress, Symbol: "WETH", Decimals: "18"},
				Fee:       "3000",
				AmountIn:  "1200000000",
				AmountOut: "600000000000000000",
			}},
			{{
				TokenIn:   routeapi.RouteToken{Address: usdcAddress, Symbol: "USDC", Decimals: "6"},
				TokenOut:  routeapi.RouteToken{Address: daiAddress, Symbol: "DAI", Decimals: "18"},
				Fee:       "500",
				AmountIn:  "800000000",
				AmountOut: "800000000000000000",
			}, {
				TokenIn:   routeapi.RouteToken{Address: daiAddress, Symbol: "DAI", Decimals: "18"},
				TokenOut:  routeapi.RouteToken{Address: wethAddress, Symbol: "WETH", Decimals: "18"},
				Fee:       "3000",
				AmountIn:  "800000000000000000",
				AmountOut: "400000000000000000",
			}},
		},
	}
	md, err := ComputeMetadata(quote, DefaultConfigs(), uniswap.ExactInput, 6, 18)
	if err != nil {
		t.Fatal(err)
	}
	trade := &Trade{
		Pay:       testUSDC,
		Receive:   testETH,
		TradeType: uniswap.ExactInput,
		Quote:     quote,
		Configs:   DefaultConfigs(),
		Metadata:  md,
	}

	w := &fakeWallet{address: testOwner}
	allowances := &fakeAllowances{grants: map[string]*big.Int{
		strings.ToLower(usdcAddress): uniswap.MaxUint256,
	}}
	e := newTestExecutor(t, w, allowances, nil)

	step := e.Execute(context.Background(), trade)
	if step != StepSuccess {
		t.Fatalf("step = %s, reason %q", step, e.Reason())
	}
	// Both paths fan in through the same USDC input token, one check.
	if allowances.reads != 1 {
		t.Fatalf("allowance read %d times", allowances.reads)
	}

	codec, _ := uniswap.NewCodec()
	_, args, err := codec.DecodeCall(mustHex(t, w.sent[0].Data))
	if err != nil {
		t.Fatal(err)
	}
	calls := args[0].([][]byte)
	if len(calls) != 3 {
		t.Fatalf("multicall has %d calls, want 2 swaps + unwrap", len(calls))
	}

	for i := 0; i < 2; i++ {
		name, swapArgs, err := codec.DecodeCall(calls[i])
		if err != nil {
			t.Fatal(err)
		}
		if name != "exactInput" {
			t.Fatalf("call %d = %s", i, name)
		}
		recipient := tupleField(t, swapArgs[0], "Recipient").(common.Address)
		if recipient != uniswap.RecipientRouter {
			t.Fatalf("path %d pays out to %s, want the router sentinel", i, recipient.Hex())
		}
	}

	name, unwrapArgs, err := codec.DecodeCall(calls[2])
	if err != nil {
		t.Fatal(err)
	}
	if name != "unwrapWETH9" {
		t.Fatalf("trailing call = %s", name)
	}
	if recipient := unwrapArgs[1].(common.Address); recipient != common.HexToAddress(testOwner) {
		t.Fatalf("unwrap pays out to %s", recipient.Hex())
	}
	// Unwrap floor is the slippage-adjusted whole-trade minimum.
	minOut := unwrapArgs[0].(*big.Int)
	if minOut.String() != "900000000000000000" {
		t.Fatalf("unwrap minimum = %s", minOut)
	}
}

func TestErc20ReceiveGoesDirectlyToOwner(t *testing.T) {
	w := &fakeWallet{address: testOwner}
	allowances := &fakeAllowances{grants: map[string]*big.Int{
		strings.ToLower(wethAddress): uniswap.MaxUint256,
	}}
	e := newTestExecutor(t, w, allowances, nil)

	step := e.Execute(context.Background(), erc20Trade(uniswap.ExactInput))
	if step != StepSuccess {
		t.Fatalf("step = %s", step)
	}

	codec, _ := uniswap.NewCodec()
	_, args, err := codec.DecodeCall(mustHex(t, w.sent[0].Data))
	if err != nil {
		t.Fatal(err)
	}
	calls := args[0].([][]byte)
	if len(calls) != 1 {
		t.Fatalf("multicall has %d calls", len(calls))
	}
	_, swapArgs, err := codec.DecodeCall(calls[0])
	if err != nil {
		t.Fatal(err)
	}
	recipient := tupleField(t, swapArgs[0], "Recipient").(common.Address)
	if recipient != common.HexToAddress(testOwner) {
		t.Fatalf("output pays out to %s", recipient.Hex())
	}
}

func TestExactOutputSwapUsesMaximumSpent(t *testing.T) {
	w := &fakeWallet{address: testOwner}
	allowances := &fakeAllowances{grants: map[string]*big.Int{
		strings.ToLower(wethAddress): uniswap.MaxUint256,
	}}
	e := newTestExecutor(t, w, allowances, nil)

	trade := erc20Trade(uniswap.ExactOutput)
	step := e.Execute(context.Background(), trade)
	if step != StepSuccess {
		t.Fatalf("step = %s, reason %q", step, e.Reason())
	}

	codec, _ := uniswap.NewCodec()
	_, args, err := codec.DecodeCall(mustHex(t, w.sent[0].Data))
	if err != nil {
		t.Fatal(err)
	}
	calls := args[0].([][]byte)
	name, swapArgs, err := codec.DecodeCall(calls[0])
	if err != nil {
		t.Fatal(err)
	}
	if name != "exactOutput" {
		t.Fatalf("call = %s", name)
	}
	maxIn := tupleField(t, swapArgs[0], "AmountInMaximum").(*big.Int)
	// Path input padded up by the default 10% slippage tolerance.
	if maxIn.String() != "1100000000000000000" {
		t.Fatalf("amountInMaximum = %s", maxIn)
	}
}

func TestResetFollowsWalletPresence(t *testing.T) {
	w := &fakeWallet{}
	e := newTestExecutor(t, w, &fakeAllowances{}, nil)

	if e.Step() != StepGuest {
		t.Fatalf("initial step = %s", e.Step())
	}
	w.address = testOwner
	e.Reset()
	if e.Step() != StepInput {
		t.Fatalf("step after connect = %s", e.Step())
	}
}

func mustHex(t *testing.T, data string) []byte {
	t.Helper()
	decoded, err := hex.DecodeString(strings.TrimPrefix(data, "0x"))
	if err != nil {
		t.Fatalf("bad calldata %q: %v", data[:10], err)
	}
	return decoded
}
