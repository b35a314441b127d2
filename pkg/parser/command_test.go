package parser

import (
	"testing"

	"aaswap/pkg/types"
)

func TestParseSwapCommandExactIn(t *testing.T) {
	tests := []string{
		"swap 1 WETH to USDC",
		"1 weth to usdc",
		"SWAP 1 WETH TO USDC",
	}
	for _, command := range tests {
		req, err := ParseSwapCommand(command)
		if err != nil {
			t.Fatalf("ParseSwapCommand(%q): %v", command, err)
		}
		if req.Amount != "1" || req.PayToken != "WETH" || req.ReceiveToken != "USDC" {
			t.Fatalf("ParseSwapCommand(%q) = %+v", command, req)
		}
		if req.ExactOut {
			t.Fatalf("ParseSwapCommand(%q) parsed as exact-out", command)
		}
	}
}

func TestParseSwapCommandExactOut(t *testing.T) {
	req, err := ParseSwapCommand("swap DAI to 100.5 USDC")
	if err != nil {
		t.Fatal(err)
	}
	if !req.ExactOut {
		t.Fatal("amount on the receive side should be exact-out")
	}
	if req.Amount != "100.5" || req.PayToken != "DAI" || req.ReceiveToken != "USDC" {
		t.Fatalf("parsed %+v", req)
	}
}

func TestParseSwapCommandRejectsGarbage(t *testing.T) {
	for _, command := range []string{"", "swap", "swap WETH USDC", "swap one WETH to USDC", "1 WETH USDC"} {
		if _, err := ParseSwapCommand(command); err == nil {
			t.Errorf("ParseSwapCommand(%q) accepted", command)
		}
	}
}

func TestValidateSwapRequest(t *testing.T) {
	valid := &types.SwapRequest{Amount: "1", PayToken: "WETH", ReceiveToken: "USDC"}
	if err := ValidateSwapRequest(valid); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	samePair := &types.SwapRequest{Amount: "1", PayToken: "WETH", ReceiveToken: "WETH"}
	if err := ValidateSwapRequest(samePair); err == nil {
		t.Fatal("same-token swap accepted")
	}

	missing := &types.SwapRequest{PayToken: "WETH", ReceiveToken: "USDC"}
	if err := ValidateSwapRequest(missing); err == nil {
		t.Fatal("missing amount accepted")
	}
}
