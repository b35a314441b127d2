// Package uniswap encodes the calldata the swap router understands:
// packed hop paths, per-path exactInput/exactOutput calls, approvals and
// the multicall batching them.
package uniswap

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"aaswap/pkg/routeapi"
)

// TradeType selects which side of the trade is exact.
type TradeType int

const (
	ExactInput TradeType = iota
	ExactOutput
)

func (t TradeType) String() string {
	if t == ExactOutput {
		return "EXACT_OUTPUT"
	}
	return "EXACT_INPUT"
}

// EncodePath packs a hop sequence into the router's path format:
// address, uint24 fee, address, fee, ..., address. For exact-output
// trades the path is encoded from the receive token backwards.
func EncodePath(hops []routeapi.Hop, tradeType TradeType) ([]byte, error) {
	if len(hops) == 0 {
		return nil, fmt.Errorf("empty path")
	}

	packed := make([]byte, 0, 20+len(hops)*23)

	if tradeType == ExactInput {
		packed = append(packed, common.HexToAddress(hops[0].TokenIn.Address).Bytes()...)
		for _, hop := range hops {
			fee, err := packFee(hop.Fee)
			if err != nil {
				return nil, err
			}
			packed = append(packed, fee...)
			packed = append(packed, common.HexToAddress(hop.TokenOut.Address).Bytes()...)
		}
		return packed, nil
	}

	packed = append(packed, common.HexToAddress(hops[len(hops)-1].TokenOut.Address).Bytes()...)
	for i := len(hops) - 1; i >= 0; i-- {
		fee, err := packFee(hops[i].Fee)
		if err != nil {
			return nil, err
		}
		packed = append(packed, fee...)
		packed = append(packed, common.HexToAddress(hops[i].TokenIn.Address).Bytes()...)
	}
	return packed, nil
}

// packFee encodes a fee tier as a big-endian uint24.
func packFee(fee string) ([]byte, error) {
	value, err := strconv.ParseUint(fee, 10, 24)
	if err != nil {
		return nil, fmt.Errorf("invalid fee tier %q: %w", fee, err)
	}
	return big.NewInt(int64(value)).FillBytes(make([]byte, 3)), nil
}

// FormatFee renders a fee tier (hundredths of a bip) as a percentage,
// e.g. "3000" -> "0.30%".
func FormatFee(fee string) string {
	value, err := strconv.ParseUint(fee, 10, 32)
	if err != nil {
		return fee
	}
	return fmt.Sprintf("%.2f%%", float64(value)/10000)
}
