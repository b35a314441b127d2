// Package tokens holds the token catalog and the fiat price
// collaborator used for display.
package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// NativeAddress is the placeholder address the catalog uses for the
// chain's native asset, which has no contract of its own.
const NativeAddress = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"

// Token is catalog metadata for a tradeable asset.
type Token struct {
	ChainID  int64  `json:"chainId"`
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	LogoURI  string `json:"logoURI,omitempty"`
}

// IsNative reports whether the token is the chain's native asset.
func (t Token) IsNative() bool {
	return strings.EqualFold(t.Address, NativeAddress)
}

// defaultList is the built-in Sepolia catalog used when no remote list
// is configured.
var defaultList = []Token{
	{ChainID: 11155111, Address: NativeAddress, Name: "Ether", Symbol: "ETH", Decimals: 18},
	{ChainID: 11155111, Address: "0xfFf9976782d46CC05630D1f6eBAb18b2324d6B14", Name: "Wrapped Ether", Symbol: "WETH", Decimals: 18},
	{ChainID: 11155111, Address: "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238", Name: "USD Coin", Symbol: "USDC", Decimals: 6},
	{ChainID: 11155111, Address: "0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984", Name: "Uniswap", Symbol: "UNI", Decimals: 18},
	{ChainID: 11155111, Address: "0x68194a729C2450ad26072b3D33ADaCbcef39D574", Name: "Dai Stablecoin", Symbol: "DAI", Decimals: 18},
	{ChainID: 11155111, Address: "0x7b79995e5f793A07Bc00c21412e50Ecae098E7f9", Name: "Wrapped Ether (alt)", Symbol: "WETH9", Decimals: 18},
}

// Catalog serves token metadata for one chain.
type Catalog struct {
	chainID int64
	listURL string
	http    *http.Client
}

// NewCatalog creates a catalog for chainID. listURL is optional; when
// empty the built-in list is used.
func NewCatalog(chainID int64, listURL string) *Catalog {
	return &Catalog{
		chainID: chainID,
		listURL: listURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// List returns the catalog filtered to the catalog's chain.
func (c *Catalog) List(ctx context.Context) ([]Token, error) {
	source := defaultList
	if c.listURL != "" {
		remote, err := c.fetchRemote(ctx)
		if err != nil {
			return nil, err
		}
		source = remote
	}

	filtered := make([]Token, 0, len(source))
	for _, token := range source {
		if token.ChainID == c.chainID {
			filtered = append(filtered, token)
		}
	}
	return filtered, nil
}

// Find looks a token up by symbol, case-insensitively.
func (c *Catalog) Find(ctx context.Context, symbol string) (*Token, error) {
	list, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	for i := range list {
		if strings.EqualFold(list[i].Symbol, symbol) {
			return &list[i], nil
		}
	}
	// Try partial match
	upper := strings.ToUpper(symbol)
	for i := range list {
		if strings.Contains(strings.ToUpper(list[i].Symbol), upper) {
			return &list[i], nil
		}
	}

	return nil, fmt.Errorf("token '%s' not found", symbol)
}

// fetchRemote downloads a token-list JSON document of the standard
// {"tokens": [...]} shape.
func (c *Catalog) fetchRemote(ctx context.Context) ([]Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.listURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build token list request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token list API returned status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token list: %w", err)
	}

	var doc struct {
		Tokens []Token `json:"tokens"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode token list: %w", err)
	}

	return doc.Tokens, nil
}

// CertifiedLogoURI rewrites ipfs:// logo URIs to a public gateway.
func CertifiedLogoURI(uri string) string {
	if strings.HasPrefix(uri, "ipfs://") {
		return "https://ipfs.io/ipfs/" + uri[len("ipfs://"):]
	}
	return uri
}
