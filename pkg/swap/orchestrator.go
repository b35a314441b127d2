package swap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"aaswap/pkg/routeapi"
	"aaswap/pkg/tokens"
	"aaswap/pkg/uniswap"
)

// Quoter fetches route quotes.
type Quoter interface {
	GetQuote(ctx context.Context, req *routeapi.QuoteRequest) (*routeapi.QuoteResponse, error)
}

// BalanceReader reads token and native balances for an owner.
type BalanceReader interface {
	Balance(ctx context.Context, token, owner string) (*big.Int, error)
	NativeBalance(ctx context.Context, owner string) (*big.Int, error)
}

// FiatPricer resolves a token symbol to its USD spot price.
type FiatPricer interface {
	SpotPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Orchestrator keeps the swap form state consistent: whenever the
// selected pair, the actively edited amount or a routing parameter
// changes it refetches a quote and rederives the opposite amount and
// all display metadata. All raw amounts it stores are smallest-unit
// decimal strings.
type Orchestrator struct {
	chainID     int64
	wethAddress string
	quoter      Quoter
	balances    BalanceReader
	pricer      FiatPricer
	log         zerolog.Logger

	mu          sync.Mutex
	selected    Pair[*tokens.Token]
	inputValues Pair[string] // raw units
	balanceOf   Pair[string] // raw units, "" when unknown
	fiatValues  Pair[string] // USD, "" when unknown
	active      *InputType   // side the user last typed into
	configs     Configs
	quoteSeq    uint64
	quote       *routeapi.QuoteResponse
	metadata    *Metadata
	notice      string

	onQuoteChange func()
}

// NewOrchestrator builds an orchestrator with default configs. The WETH
// address substitutes for the native placeholder in routing queries.
func NewOrchestrator(chainID int64, wethAddress string, quoter Quoter, balances BalanceReader, pricer FiatPricer, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		chainID:     chainID,
		wethAddress: wethAddress,
		quoter:      quoter,
		balances:    balances,
		pricer:      pricer,
		log:         log.With().Str("component", "orchestrator").Logger(),
		configs:     DefaultConfigs(),
	}
}

// OnQuoteChange registers a hook invoked after every successful quote
// replacement or reset. The execution layer uses it to fall back to the
// input step when the trade underneath it changes.
func (o *Orchestrator) OnQuoteChange(fn func()) {
	o.mu.Lock()
	o.onQuoteChange = fn
	o.mu.Unlock()
}

// SetToken selects a token for one side of the form. Selecting the
// token already on the opposite side flips the pair instead. A fresh
// quote is requested when the pair is complete and an amount has been
// typed.
func (o *Orchestrator) SetToken(ctx context.Context, input InputType, token tokens.Token) error {
	o.mu.Lock()
	opposite := o.selected.At(input.Opposite())
	if opposite != nil && strings.EqualFold(opposite.Address, token.Address) {
		o.mu.Unlock()
		return o.FlipOrder(ctx)
	}
	t := token
	o.selected.SetAt(input, &t)
	// The stored raw amount is denominated in the old token; a token
	// change invalidates it unless this side is the derived one.
	if o.active != nil && *o.active != input {
		o.inputValues.SetAt(input, "")
	}
	o.mu.Unlock()
	return o.refreshQuote(ctx)
}

// SetInputValue records a typed human-readable amount for one side,
// marks that side active and rederives the opposite side from a fresh
// quote. An empty amount clears both sides without a quote round trip.
func (o *Orchestrator) SetInputValue(ctx context.Context, input InputType, amount string) error {
	o.mu.Lock()
	token := o.selected.At(input)
	if token == nil {
		o.mu.Unlock()
		return fmt.Errorf("no %s token selected", strings.ToLower(input.String()))
	}
	if strings.TrimSpace(amount) == "" {
		o.inputValues = Pair[string]{}
		o.active = nil
		o.quote = nil
		o.metadata = nil
		o.notice = ""
		o.quoteSeq++
		hook := o.onQuoteChange
		o.mu.Unlock()
		if hook != nil {
			hook()
		}
		return nil
	}
	raw, err := ParseTokenValue(amount, token.Decimals)
	if err != nil {
		o.mu.Unlock()
		return fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	active := input
	o.active = &active
	o.inputValues.SetAt(input, raw)
	o.inputValues.SetAt(input.Opposite(), "")
	o.mu.Unlock()
	return o.refreshQuote(ctx)
}

// FlipOrder exchanges the two sides: tokens, amounts, balances and the
// active marker all swap, then a fresh quote rederives the now-derived
// side.
func (o *Orchestrator) FlipOrder(ctx context.Context) error {
	o.mu.Lock()
	o.selected = o.selected.Flipped()
	o.inputValues = o.inputValues.Flipped()
	o.balanceOf = o.balanceOf.Flipped()
	o.fiatValues = o.fiatValues.Flipped()
	if o.active != nil {
		flipped := o.active.Opposite()
		o.active = &flipped
	}
	o.mu.Unlock()
	return o.refreshQuote(ctx)
}

// SetConfigs replaces the swap parameters. A routing-parameter change
// needs a fresh quote; a slippage or gas-buffer change only rederives
// metadata from the quote already held.
func (o *Orchestrator) SetConfigs(ctx context.Context, configs Configs) error {
	if err := configs.Validate(); err != nil {
		return err
	}
	o.mu.Lock()
	routingChanged := !o.configs.RoutingEquals(configs)
	o.configs = configs
	if routingChanged {
		o.mu.Unlock()
		return o.refreshQuote(ctx)
	}
	err := o.recomputeMetadataLocked()
	o.mu.Unlock()
	return err
}

// Configs returns the current swap parameters.
func (o *Orchestrator) Configs() Configs {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.configs
}

// Selected returns the current token pair; either side may be nil.
func (o *Orchestrator) Selected() Pair[*tokens.Token] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.selected
}

// InputValues returns both raw amounts.
func (o *Orchestrator) InputValues() Pair[string] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inputValues
}

// ReadableValue formats one side's raw amount for display, truncated to
// six decimal places. Empty when that side holds no amount.
func (o *Orchestrator) ReadableValue(input InputType) string {
	o.mu.Lock()
	raw := o.inputValues.At(input)
	token := o.selected.At(input)
	o.mu.Unlock()
	if raw == "" || token == nil {
		return ""
	}
	readable, err := FormatReadableAmount(raw, token.Decimals, 6)
	if err != nil {
		return ""
	}
	return readable
}

// Metadata returns the display metadata for the current quote, nil when
// no valid quote is held.
func (o *Orchestrator) Metadata() *Metadata {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.metadata == nil {
		return nil
	}
	md := *o.metadata
	return &md
}

// Notice returns the current user-facing notice, such as a no-route
// message, or the empty string.
func (o *Orchestrator) Notice() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.notice
}

// Balances returns the formatted balances of both sides.
func (o *Orchestrator) Balances() Pair[string] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.balanceOf
}

// FiatValues returns the USD values of both sides' amounts.
func (o *Orchestrator) FiatValues() Pair[string] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fiatValues
}

// RefreshBalances reads the connected address's balance of both
// selected tokens. Failures leave the previous values in place.
func (o *Orchestrator) RefreshBalances(ctx context.Context, owner string) {
	o.mu.Lock()
	selected := o.selected
	o.mu.Unlock()

	for _, input := range []InputType{InputPay, InputReceive} {
		token := selected.At(input)
		if token == nil {
			continue
		}
		var (
			raw *big.Int
			err error
		)
		if token.IsNative() {
			raw, err = o.balances.NativeBalance(ctx, owner)
		} else {
			raw, err = o.balances.Balance(ctx, token.Address, owner)
		}
		if err != nil {
			o.log.Warn().Err(err).Str("token", token.Symbol).Msg("balance read failed")
			continue
		}
		readable, err := FormatReadableAmount(raw.String(), token.Decimals, 6)
		if err != nil {
			continue
		}
		o.mu.Lock()
		o.balanceOf.SetAt(input, readable)
		o.mu.Unlock()
	}
}

// RefreshFiatValues prices both sides' current amounts in USD. Failures
// clear the affected side rather than showing a stale figure.
func (o *Orchestrator) RefreshFiatValues(ctx context.Context) {
	o.mu.Lock()
	selected := o.selected
	values := o.inputValues
	o.mu.Unlock()

	for _, input := range []InputType{InputPay, InputReceive} {
		token := selected.At(input)
		raw := values.At(input)
		result := ""
		if token != nil && raw != "" {
			if fiat, err := o.fiatValue(ctx, token, raw); err == nil {
				result = fiat
			} else {
				o.log.Debug().Err(err).Str("token", token.Symbol).Msg("fiat pricing failed")
			}
		}
		o.mu.Lock()
		o.fiatValues.SetAt(input, result)
		o.mu.Unlock()
	}
}

func (o *Orchestrator) fiatValue(ctx context.Context, token *tokens.Token, raw string) (string, error) {
	readable, err := FormatReadableAmount(raw, token.Decimals, 18)
	if err != nil {
		return "", err
	}
	price, err := o.pricer.SpotPrice(ctx, token.Symbol)
	if err != nil {
		return "", err
	}
	amount, err := decimal.NewFromString(readable)
	if err != nil {
		return "", err
	}
	return amount.Mul(price).Truncate(2).String(), nil
}

// Trade is an immutable snapshot of the form handed to the execution
// layer. Building one fails unless a complete, quoted trade is held.
type Trade struct {
	Pay       tokens.Token
	Receive   tokens.Token
	TradeType uniswap.TradeType
	Quote     *routeapi.QuoteResponse
	Configs   Configs
	Metadata  Metadata
}

// Trade snapshots the current state for execution.
func (o *Orchestrator) Trade() (*Trade, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.selected.Pay == nil || o.selected.Receive == nil {
		return nil, errors.New("select both tokens before swapping")
	}
	if o.quote == nil || o.metadata == nil || o.active == nil {
		return nil, errors.New("no quote available for the current pair")
	}
	return &Trade{
		Pay:       *o.selected.Pay,
		Receive:   *o.selected.Receive,
		TradeType: tradeTypeFor(*o.active),
		Quote:     o.quote,
		Configs:   o.configs,
		Metadata:  *o.metadata,
	}, nil
}

func tradeTypeFor(active InputType) uniswap.TradeType {
	if active == InputPay {
		return uniswap.ExactInput
	}
	return uniswap.ExactOutput
}

// refreshQuote fetches a quote for the current pair and active amount
// and, if it is still the latest request when it lands, installs it and
// rederives the opposite amount and metadata. Stale responses are
// discarded wholesale.
func (o *Orchestrator) refreshQuote(ctx context.Context) error {
	o.mu.Lock()
	pay, receive := o.selected.Pay, o.selected.Receive
	if pay == nil || receive == nil || o.active == nil {
		o.mu.Unlock()
		return nil
	}
	active := *o.active
	amount := o.inputValues.At(active)
	if amount == "" {
		o.mu.Unlock()
		return nil
	}
	o.quoteSeq++
	seq := o.quoteSeq
	req := o.quoteRequest(active, amount)
	o.mu.Unlock()

	quote, err := o.quoter.GetQuote(ctx, req)

	o.mu.Lock()
	if seq != o.quoteSeq {
		o.mu.Unlock()
		return nil
	}
	hook := o.onQuoteChange
	if err != nil {
		o.quote = nil
		o.metadata = nil
		if errors.Is(err, routeapi.ErrNoRoute) {
			// No route wipes the whole input state, typed side included.
			o.inputValues = Pair[string]{}
			o.active = nil
			o.notice = "Insufficient liquidity for this trade."
			o.mu.Unlock()
			if hook != nil {
				hook()
			}
			return nil
		}
		o.inputValues.SetAt(active.Opposite(), "")
		o.mu.Unlock()
		if hook != nil {
			hook()
		}
		return fmt.Errorf("quote failed: %w", err)
	}

	o.notice = ""
	o.quote = quote
	o.inputValues.SetAt(active.Opposite(), quote.Quote)
	recomputeErr := o.recomputeMetadataLocked()
	o.mu.Unlock()
	if hook != nil {
		hook()
	}
	return recomputeErr
}

// quoteRequest builds the routing query. The native placeholder routes
// as wrapped ether; the router contract handles wrapping itself.
func (o *Orchestrator) quoteRequest(active InputType, amount string) *routeapi.QuoteRequest {
	routeAddress := func(t *tokens.Token) string {
		if t.IsNative() {
			return o.wethAddress
		}
		return t.Address
	}
	quoteType := "exactIn"
	if active == InputReceive {
		quoteType = "exactOut"
	}
	return &routeapi.QuoteRequest{
		Protocols:       "v3",
		TokenInAddress:  routeAddress(o.selected.Pay),
		TokenInChainID:  o.chainID,
		TokenOutAddress: routeAddress(o.selected.Receive),
		TokenOutChainID: o.chainID,
		Amount:          amount,
		Type:            quoteType,
		MinSplits:       o.configs.MinSplits,
		MaxSplits:       o.configs.MaxSplits,
	}
}

func (o *Orchestrator) recomputeMetadataLocked() error {
	if o.quote == nil || o.active == nil || o.selected.Pay == nil || o.selected.Receive == nil {
		o.metadata = nil
		return nil
	}
	md, err := ComputeMetadata(o.quote, o.configs, tradeTypeFor(*o.active), o.selected.Pay.Decimals, o.selected.Receive.Decimals)
	if err != nil {
		o.metadata = nil
		return fmt.Errorf("metadata derivation failed: %w", err)
	}
	o.metadata = &md
	return nil
}
