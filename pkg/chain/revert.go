package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Diagnostics fetches human-readable revert reasons for failed
// transactions from a public transaction-inspection API.
type Diagnostics struct {
	baseURL string
	chainID int64
	http    *http.Client
}

// NewDiagnostics creates a revert-reason lookup for chainID.
func NewDiagnostics(baseURL string, chainID int64) *Diagnostics {
	return &Diagnostics{
		baseURL: baseURL,
		chainID: chainID,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// RevertReason returns the failure message recorded for a transaction.
// Best effort: an empty reason with nil error means the API had nothing.
func (d *Diagnostics) RevertReason(ctx context.Context, txHash string) (string, error) {
	url := fmt.Sprintf("%s/%d/tx/%s", d.baseURL, d.chainID, txHash)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build diagnostics request: %w", err)
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to query diagnostics API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read diagnostics response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("diagnostics API returned status code %d", resp.StatusCode)
	}

	var payload struct {
		ErrorMessage string `json:"error_message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to decode diagnostics response: %w", err)
	}

	return payload.ErrorMessage, nil
}
