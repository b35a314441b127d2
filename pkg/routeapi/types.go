package routeapi

// QuoteRequest is the routing API query. It is encoded as query-string
// parameters on a GET request.
type QuoteRequest struct {
	Protocols       string `json:"protocols"`
	TokenInAddress  string `json:"tokenInAddress"`
	TokenInChainID  int64  `json:"tokenInChainId"`
	TokenOutAddress string `json:"tokenOutAddress"`
	TokenOutChainID int64  `json:"tokenOutChainId"`
	Amount          string `json:"amount"`
	Type            string `json:"type"` // "exactIn" | "exactOut"
	MinSplits       int    `json:"minSplits"`
	MaxSplits       int    `json:"maxSplits"`
}

// RouteToken identifies a token inside a route hop. Decimals arrive as a
// string, faithfully to the API.
type RouteToken struct {
	ChainID  int64  `json:"chainId"`
	Address  string `json:"address"`
	Decimals string `json:"decimals"`
	Symbol   string `json:"symbol"`
}

// Hop is one pool traversal within a path.
type Hop struct {
	Type         string     `json:"type"`
	Address      string     `json:"address"`
	TokenIn      RouteToken `json:"tokenIn"`
	TokenOut     RouteToken `json:"tokenOut"`
	Fee          string     `json:"fee"`
	Liquidity    string     `json:"liquidity"`
	SqrtRatioX96 string     `json:"sqrtRatioX96"`
	TickCurrent  string     `json:"tickCurrent"`
	AmountIn     string     `json:"amountIn"`
	AmountOut    string     `json:"amountOut"`
}

// Path is an ordered hop sequence from the pay token to the receive
// token. A route may split the trade over several parallel paths.
type Path []Hop

// QuoteResponse is the route graph plus cost estimates returned by the
// routing API. All amounts are raw smallest-unit decimal strings unless
// the field name says otherwise.
type QuoteResponse struct {
	BlockNumber        string `json:"blockNumber"`
	Amount             string `json:"amount"`
	AmountDecimals     string `json:"amountDecimals"`
	Quote              string `json:"quote"`
	QuoteDecimals      string `json:"quoteDecimals"`
	QuoteGasAdjusted   string `json:"quoteGasAdjusted"`
	GasUseEstimate     string `json:"gasUseEstimate"`
	GasUseEstimateUSD  string `json:"gasUseEstimateUSD"`
	GasPriceWei        string `json:"gasPriceWei"`
	SimulationError    bool   `json:"simulationError"`
	Route              []Path `json:"route"`
	RouteString        string `json:"routeString"`
	QuoteID            string `json:"quoteId"`
	PriceImpact        string `json:"priceImpact"`
	HitsCachedRoutes   bool   `json:"hitsCachedRoutes"`
	SimulationStatus   string `json:"simulationStatus"`
}

// apiError is the routing API's error body.
type apiError struct {
	ErrorCode string `json:"errorCode"`
	Detail    string `json:"detail"`
}

// SplitShare describes one parallel path's share of the trade, parsed
// from the human route description string.
type SplitShare struct {
	Percentage float64
	Pools      []string
}
