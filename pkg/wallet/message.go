package wallet

import (
	"encoding/json"
	"fmt"
)

// MessageType tags a protocol message exchanged with the signing service.
type MessageType string

const (
	// MessageReady is sent by the signing service once its window is able
	// to receive a request. It carries no payload.
	MessageReady MessageType = "READY"
	// MessageConnectWallet requests address derivation. The response
	// payload is a Result[string] holding the derived address.
	MessageConnectWallet MessageType = "CONNECT_WALLET"
	// MessageSignTransaction requests signing and broadcast of a single
	// transaction. The response payload is a Result[TransactionResponse].
	MessageSignTransaction MessageType = "SIGN_TRANSACTION"
)

// Envelope is the wire shape of every message crossing the channel.
// Origin names the sender's origin and Target the intended recipient's;
// both sides drop messages whose counterpart origin does not match their
// expectation.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Network Network         `json:"network,omitempty"`
	Origin  string          `json:"origin,omitempty"`
	Target  string          `json:"target,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// TransactionRequest is an opaque chain transaction description carried
// in a SIGN_TRANSACTION request. Amounts are decimal strings in the
// chain's smallest unit.
type TransactionRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	GasLimit string `json:"gasLimit"`
	Value    string `json:"value"`
	Data     string `json:"data,omitempty"`
}

// TransactionResponse is the signing service's answer to a successful
// SIGN_TRANSACTION exchange.
type TransactionResponse struct {
	Hash string `json:"hash"`
}

// TransactionReceipt is the mined outcome of a transaction, produced by
// WaitTransaction rather than the signing service.
type TransactionReceipt struct {
	Hash        string `json:"hash"`
	BlockNumber uint64 `json:"blockNumber"`
	GasUsed     uint64 `json:"gasUsed"`
	Status      uint64 `json:"status"`
}

// Succeeded reports whether the transaction executed without reverting.
func (r TransactionReceipt) Succeeded() bool {
	return r.Status == 1
}

// NewEnvelope builds an envelope with a JSON-encoded payload.
func NewEnvelope(msgType MessageType, network Network, origin, target string, payload interface{}) (Envelope, error) {
	env := Envelope{Type: msgType, Network: network, Origin: origin, Target: target}
	if payload == nil {
		return env, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to encode %s payload: %w", msgType, err)
	}
	env.Payload = raw
	return env, nil
}

// DecodePayload unpacks an envelope payload into out.
func DecodePayload(env Envelope, out interface{}) error {
	if len(env.Payload) == 0 {
		return fmt.Errorf("%s message has no payload", env.Type)
	}
	if err := json.Unmarshal(env.Payload, out); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", env.Type, err)
	}
	return nil
}

// ResponseTypeFor maps a request type to its expected response type. The
// protocol reuses the request tag for responses, so this is the identity
// for recognized request types.
func ResponseTypeFor(reqType MessageType) (MessageType, error) {
	switch reqType {
	case MessageConnectWallet, MessageSignTransaction:
		return reqType, nil
	default:
		return "", fmt.Errorf("message type %q has no response", reqType)
	}
}
