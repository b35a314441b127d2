// Package wallet implements the external-wallet connector SDK: a typed
// request/response protocol against a separate signing-service window
// and the queueing discipline that serializes signing exchanges.
package wallet

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
)

// ReceiptProvider waits for a transaction to be mined. Implemented by
// pkg/chain against an RPC endpoint.
type ReceiptProvider interface {
	WaitForReceipt(ctx context.Context, hash string) (TransactionReceipt, error)
}

// RevertReasoner looks up a human-readable failure reason for a reverted
// transaction, best effort.
type RevertReasoner interface {
	RevertReason(ctx context.Context, hash string) (string, error)
}

// SignRequest is the SIGN_TRANSACTION request payload: the transaction
// to sign plus the session context the service signs on behalf of.
type SignRequest struct {
	Transaction TransactionRequest `json:"transaction"`
	Address     string             `json:"address"`
	Network     Network            `json:"network"`
}

// Wallet is the public connector API: session management plus queued
// transaction signing through the signing-service channel.
type Wallet struct {
	session     *Session
	queue       *Queue
	channel     *Channel
	provider    ReceiptProvider
	diagnostics RevertReasoner
	log         zerolog.Logger
}

// New composes a connector from its parts. provider and diagnostics may
// be nil when WaitTransaction is not used.
func New(channel *Channel, session *Session, provider ReceiptProvider, diagnostics RevertReasoner, log zerolog.Logger) *Wallet {
	return &Wallet{
		session:     session,
		queue:       NewQueue(),
		channel:     channel,
		provider:    provider,
		diagnostics: diagnostics,
		log:         log,
	}
}

// Session exposes the underlying session.
func (w *Wallet) Session() *Session {
	return w.session
}

// Address returns the connected address, with ok false when logged out.
func (w *Wallet) Address() (string, bool) {
	return w.session.Address()
}

// Login opens a signing window, performs the CONNECT_WALLET exchange and
// records the derived address on success. It runs through the same queue
// as transaction signing so two signing windows can never be open at
// once.
func (w *Wallet) Login(ctx context.Context) Result[string] {
	future := w.queue.Enqueue(func() Result[json.RawMessage] {
		return w.exchange(ctx, MessageConnectWallet, nil)
	})

	raw := <-future
	if raw.Failed() {
		return Errf[string]("%s", raw.Message)
	}

	var result Result[string]
	if err := json.Unmarshal(raw.Value, &result); err != nil {
		return Errf[string]("malformed connect response: %v", err)
	}
	if result.Failed() {
		return result
	}

	if err := w.session.Network().ValidateAddress(result.Value); err != nil {
		return Errf[string]("signing service returned a bad address: %v", err)
	}

	w.session.SetAddress(result.Value)
	w.log.Info().Str("address", result.Value).Str("network", w.session.Network().Name()).Msg("wallet connected")
	return result
}

// Logout clears the session synchronously. Requests already queued keep
// their captured address and proceed on their own terms.
func (w *Wallet) Logout() {
	w.session.Clear()
	w.log.Info().Msg("wallet disconnected")
}

// SendTransaction queues a signing exchange for payload and returns its
// future. It fails fast when no address is connected; the address guard
// runs here, at enqueue time, never at dequeue time.
func (w *Wallet) SendTransaction(ctx context.Context, payload TransactionRequest) <-chan Result[TransactionResponse] {
	out := make(chan Result[TransactionResponse], 1)

	address, ok := w.session.Address()
	if !ok {
		out <- Errf[TransactionResponse]("wallet not found")
		close(out)
		return out
	}

	req := SignRequest{
		Transaction: payload,
		Address:     address,
		Network:     w.session.Network(),
	}
	future := w.queue.Enqueue(func() Result[json.RawMessage] {
		return w.exchange(ctx, MessageSignTransaction, req)
	})

	go func() {
		defer close(out)
		raw := <-future
		if raw.Failed() {
			out <- Errf[TransactionResponse]("%s", raw.Message)
			return
		}
		var result Result[TransactionResponse]
		if err := json.Unmarshal(raw.Value, &result); err != nil {
			out <- Errf[TransactionResponse]("malformed signing response: %v", err)
			return
		}
		out <- result
	}()

	return out
}

// WaitTransaction blocks until the transaction is mined and reports the
// receipt, translating an on-chain revert into an error result with the
// best reason available. It never touches the queue: receipt waiting is
// read-only and needs no signing window.
func (w *Wallet) WaitTransaction(ctx context.Context, hash string) Result[TransactionReceipt] {
	receipt, err := w.provider.WaitForReceipt(ctx, hash)
	if err != nil {
		return Errf[TransactionReceipt]("failed to wait for transaction %s: %v", hash, err)
	}

	if !receipt.Succeeded() {
		reason := "transaction reverted"
		if w.diagnostics != nil {
			if r, err := w.diagnostics.RevertReason(ctx, hash); err == nil && r != "" {
				reason = r
			} else if err != nil {
				w.log.Warn().Err(err).Str("hash", hash).Msg("revert reason lookup failed")
			}
		}
		return Errf[TransactionReceipt]("%s", reason)
	}

	return Ok(receipt)
}

// exchange opens a fresh window and runs a single protocol exchange over
// it. Window open failure resolves as an error result so queued requests
// behind it still proceed.
func (w *Wallet) exchange(ctx context.Context, msgType MessageType, payload interface{}) Result[json.RawMessage] {
	win, err := w.channel.Open(ctx)
	if err != nil {
		return Errf[json.RawMessage]("%v", err)
	}
	return w.channel.Exchange(ctx, win, msgType, payload)
}
