package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// PriceClient fetches fiat spot prices for display.
type PriceClient struct {
	baseURL string
	http    *http.Client
}

// NewPriceClient creates a price client against a Coinbase-style spot
// price API.
func NewPriceClient(baseURL string) *PriceClient {
	return &PriceClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// FiatValue returns the USD value of readableAmount units of symbol,
// truncated to 6 decimal places.
func (p *PriceClient) FiatValue(ctx context.Context, symbol, readableAmount string) (string, error) {
	spot, err := p.SpotPrice(ctx, symbol)
	if err != nil {
		return "", err
	}

	amount, err := decimal.NewFromString(readableAmount)
	if err != nil {
		return "", fmt.Errorf("invalid amount %q: %w", readableAmount, err)
	}

	return amount.Mul(spot).Truncate(6).String(), nil
}

// SpotPrice returns the USD spot price of symbol.
func (p *PriceClient) SpotPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/%s-USD/spot", p.baseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build price request: %w", err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch price: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read price response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("price API returned status code %d", resp.StatusCode)
	}

	var payload struct {
		Data struct {
			Amount string `json:"amount"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode price response: %w", err)
	}

	spot, err := decimal.NewFromString(payload.Data.Amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid spot price %q: %w", payload.Data.Amount, err)
	}
	return spot, nil
}
