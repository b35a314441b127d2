package types

// SwapRequest represents a user's swap command
type SwapRequest struct {
	Amount       string
	PayToken     string
	ReceiveToken string
	// ExactOut fixes the receive amount instead of the pay amount.
	ExactOut bool
}

// QuoteDisplay holds formatted quote information for display
type QuoteDisplay struct {
	PayAmount       string
	PayToken        string
	ReceiveAmount   string
	ReceiveToken    string
	BestPrice       string
	MinimumReceived string
	MaximumSpent    string
	Fee             string
	UsdFee          string
	PriceImpact     string
	RouteSummary    string
}

// SwapOutcome records the result of one executed swap for display and
// history.
type SwapOutcome struct {
	Step      string
	TxHash    string
	Reason    string
	Timestamp string
}
