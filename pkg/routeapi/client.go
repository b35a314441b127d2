// Package routeapi talks to the third-party swap-routing service. The
// service is a black box: it receives a token pair and an amount and
// answers with a route graph and cost estimates.
package routeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrNoRoute is returned when the routing service finds no path between
// the requested tokens.
var ErrNoRoute = errors.New("no route found for the selected pair")

// Client wraps the routing HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a routing client for the given quote endpoint.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// GetQuote fetches a route for the request.
func (c *Client) GetQuote(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error) {
	query := url.Values{}
	query.Set("protocols", req.Protocols)
	query.Set("tokenInAddress", req.TokenInAddress)
	query.Set("tokenInChainId", strconv.FormatInt(req.TokenInChainID, 10))
	query.Set("tokenOutAddress", req.TokenOutAddress)
	query.Set("tokenOutChainId", strconv.FormatInt(req.TokenOutChainID, 10))
	query.Set("amount", req.Amount)
	query.Set("type", req.Type)
	if req.MinSplits > 0 {
		query.Set("minSplits", strconv.Itoa(req.MinSplits))
	}
	if req.MaxSplits > 0 {
		query.Set("maxSplits", strconv.Itoa(req.MaxSplits))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote from API: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read quote response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, c.parseError(httpResp.StatusCode, body)
	}

	var quote QuoteResponse
	if err := json.Unmarshal(body, &quote); err != nil {
		return nil, fmt.Errorf("failed to decode quote response: %w", err)
	}
	if len(quote.Route) == 0 {
		return nil, ErrNoRoute
	}

	return &quote, nil
}

// parseError extracts the actual error message from an API error body.
func (c *Client) parseError(status int, body []byte) error {
	if len(body) > 0 {
		var apiErr apiError
		if jsonErr := json.Unmarshal(body, &apiErr); jsonErr == nil && apiErr.ErrorCode != "" {
			if apiErr.ErrorCode == "NO_ROUTE" {
				return ErrNoRoute
			}
			return fmt.Errorf("API error (status %d): %s: %s", status, apiErr.ErrorCode, apiErr.Detail)
		}
		// If we can't parse it, show the raw body
		return fmt.Errorf("API error (status %d): %s", status, string(body))
	}
	return fmt.Errorf("API returned status code %d", status)
}
