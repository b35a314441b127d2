package parser

import (
	"fmt"
	"regexp"
	"strings"

	"aaswap/pkg/types"
)

// Command patterns. The side carrying the amount is the fixed side:
// "1 WETH to USDC" fixes the pay amount, "WETH to 100 USDC" fixes the
// receive amount.
var (
	exactInPattern  = regexp.MustCompile(`^([\d.,]+)\s+([A-Z0-9]+)\s+TO\s+([A-Z0-9]+)$`)
	exactOutPattern = regexp.MustCompile(`^([A-Z0-9]+)\s+TO\s+([\d.,]+)\s+([A-Z0-9]+)$`)
)

// ParseSwapCommand parses a natural language swap command
// Examples:
//   - "swap 1 WETH to USDC"
//   - "0.5 ETH to UNI"
//   - "DAI to 100 USDC" (receive exactly 100 USDC)
func ParseSwapCommand(command string) (*types.SwapRequest, error) {
	command = strings.TrimSpace(strings.ToUpper(command))
	command = strings.TrimPrefix(command, "SWAP ")

	if matches := exactInPattern.FindStringSubmatch(command); matches != nil {
		return &types.SwapRequest{
			Amount:       matches[1],
			PayToken:     matches[2],
			ReceiveToken: matches[3],
		}, nil
	}
	if matches := exactOutPattern.FindStringSubmatch(command); matches != nil {
		return &types.SwapRequest{
			Amount:       matches[2],
			PayToken:     matches[1],
			ReceiveToken: matches[3],
			ExactOut:     true,
		}, nil
	}
	return nil, fmt.Errorf("invalid swap command format. Expected: 'swap <amount> <token> to <token>' or 'swap <token> to <amount> <token>'")
}

// ValidateSwapRequest validates that a swap request has all required fields
func ValidateSwapRequest(req *types.SwapRequest) error {
	if req.Amount == "" {
		return fmt.Errorf("amount is required")
	}
	if req.PayToken == "" {
		return fmt.Errorf("pay token is required")
	}
	if req.ReceiveToken == "" {
		return fmt.Errorf("receive token is required")
	}
	if strings.EqualFold(req.PayToken, req.ReceiveToken) {
		return fmt.Errorf("pay and receive tokens must differ")
	}
	return nil
}
