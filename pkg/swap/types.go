// Package swap owns the front end's core logic: token-pair and amount
// state kept in sync with route quotes, and the state machine that
// drives approval and multi-call swap execution.
package swap

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"aaswap/pkg/routeapi"
	"aaswap/pkg/uniswap"
)

// InputType names the two sides of the swap form.
type InputType int

const (
	InputPay InputType = iota
	InputReceive
)

// Opposite returns the other side.
func (i InputType) Opposite() InputType {
	if i == InputPay {
		return InputReceive
	}
	return InputPay
}

func (i InputType) String() string {
	if i == InputPay {
		return "Pay"
	}
	return "Receive"
}

// Pair holds one value per swap side.
type Pair[T any] struct {
	Pay     T
	Receive T
}

// At returns the value for a side.
func (p Pair[T]) At(input InputType) T {
	if input == InputPay {
		return p.Pay
	}
	return p.Receive
}

// SetAt stores a value for a side.
func (p *Pair[T]) SetAt(input InputType, value T) {
	if input == InputPay {
		p.Pay = value
	} else {
		p.Receive = value
	}
}

// Flipped returns the pair with sides exchanged.
func (p Pair[T]) Flipped() Pair[T] {
	return Pair[T]{Pay: p.Receive, Receive: p.Pay}
}

// Configs are the user-tunable swap parameters. Slippage and gas buffer
// are basis points applied to raw amounts; the split/hop fields are
// routing parameters and changing them requires a fresh quote.
type Configs struct {
	SlippageBps    int64
	GasBufferBps   int64
	MinSplits      int
	MaxSplits      int
	MaxHopsPerPath int
}

// DefaultConfigs returns the defaults the form starts with: 10%
// slippage tolerance and a 100% gas buffer.
func DefaultConfigs() Configs {
	return Configs{
		SlippageBps:    1_000,
		GasBufferBps:   10_000,
		MinSplits:      1,
		MaxSplits:      3,
		MaxHopsPerPath: 3,
	}
}

// Validate rejects configurations the router cannot honor.
func (c Configs) Validate() error {
	if c.SlippageBps < 0 || c.SlippageBps >= bpsDenominator {
		return fmt.Errorf("slippage must be between 0 and %d bps", bpsDenominator-1)
	}
	if c.GasBufferBps < 0 {
		return fmt.Errorf("gas buffer must not be negative")
	}
	if c.MinSplits < 1 || c.MaxSplits < c.MinSplits {
		return fmt.Errorf("invalid split bounds: min %d, max %d", c.MinSplits, c.MaxSplits)
	}
	if c.MaxHopsPerPath < 1 {
		return fmt.Errorf("max hops per path must be at least 1")
	}
	return nil
}

// RoutingEquals reports whether two configs would produce the same
// route request. Slippage and gas buffer are excluded: they only affect
// derived metadata.
func (c Configs) RoutingEquals(other Configs) bool {
	return c.MinSplits == other.MinSplits &&
		c.MaxSplits == other.MaxSplits &&
		c.MaxHopsPerPath == other.MaxHopsPerPath
}

// Metadata is display data derived from a quote. It is always a pure
// function of (quote, configs, selected pair); nothing mutates it
// independently. Raw fields are smallest-unit decimal strings, the rest
// are human-readable.
type Metadata struct {
	TradeType       uniswap.TradeType
	MinimumReceived string // raw receive units, exact-input trades
	MaximumSpent    string // raw pay units, exact-output trades
	GasToPay        string // gas units, buffered
	FeeEstimate     string // native units, human-readable
	UsdFee          string
	BestPrice       string // receive per pay, human units
}

// ComputeMetadata derives display metadata from a quote under the given
// configs. payDecimals/receiveDecimals describe the selected pair.
func ComputeMetadata(quote *routeapi.QuoteResponse, configs Configs, tradeType uniswap.TradeType, payDecimals, receiveDecimals int) (Metadata, error) {
	md := Metadata{TradeType: tradeType}

	// The API reports the fixed side as Amount, the derived side as
	// Quote.
	var rawIn, rawOut string
	if tradeType == uniswap.ExactInput {
		rawIn, rawOut = quote.Amount, quote.Quote
		min, err := ApplyBpsDownString(rawOut, configs.SlippageBps)
		if err != nil {
			return Metadata{}, fmt.Errorf("bad quote amount: %w", err)
		}
		md.MinimumReceived = min
	} else {
		rawIn, rawOut = quote.Quote, quote.Amount
		max, err := ApplyBpsUpString(rawIn, configs.SlippageBps)
		if err != nil {
			return Metadata{}, fmt.Errorf("bad quote amount: %w", err)
		}
		md.MaximumSpent = max
	}

	gasEstimate, err := parseRaw(quote.GasUseEstimate)
	if err != nil {
		return Metadata{}, fmt.Errorf("bad gas estimate: %w", err)
	}
	gasToPay := ApplyBpsUp(gasEstimate, configs.GasBufferBps)
	md.GasToPay = gasToPay.String()

	gasPrice, err := parseRaw(quote.GasPriceWei)
	if err != nil {
		return Metadata{}, fmt.Errorf("bad gas price: %w", err)
	}
	feeWei := new(big.Int).Mul(gasToPay, gasPrice)
	md.FeeEstimate, err = FormatReadableAmount(feeWei.String(), 18, 8)
	if err != nil {
		return Metadata{}, fmt.Errorf("bad fee estimate: %w", err)
	}

	if quote.GasUseEstimateUSD != "" {
		usd, err := decimal.NewFromString(quote.GasUseEstimateUSD)
		if err != nil {
			return Metadata{}, fmt.Errorf("bad USD gas estimate: %w", err)
		}
		buffer := decimal.NewFromInt(bpsDenominator + configs.GasBufferBps).
			Div(decimal.NewFromInt(bpsDenominator))
		md.UsdFee = usd.Mul(buffer).Truncate(6).String()
	}

	inReadable, err := FormatReadableAmount(rawIn, payDecimals, 18)
	if err != nil {
		return Metadata{}, fmt.Errorf("bad input amount: %w", err)
	}
	outReadable, err := FormatReadableAmount(rawOut, receiveDecimals, 18)
	if err != nil {
		return Metadata{}, fmt.Errorf("bad output amount: %w", err)
	}
	md.BestPrice, err = BestPrice(outReadable, inReadable)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to compute price: %w", err)
	}

	return md, nil
}
