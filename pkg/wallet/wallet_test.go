package wallet

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const testAddress = "0x71C7656EC7ab88b098defB751B7401B5f6d8976F"

func TestSendTransactionWithoutAddressFailsFast(t *testing.T) {
	channel := NewChannel("ws://127.0.0.1:1/transaction_signing", testServiceOrigin, testAppOrigin, NetworkSepolia, zerolog.Nop())
	w := New(channel, NewSession(NetworkSepolia), nil, nil, zerolog.Nop())

	result := <-w.SendTransaction(context.Background(), TransactionRequest{To: testAddress})
	if !result.Failed() {
		t.Fatal("expected a failure result")
	}
	if result.Message != "wallet not found" {
		t.Fatalf("unexpected message %q", result.Message)
	}
}

func TestLoginRecordsAddress(t *testing.T) {
	channel := signerStub(t, func(conn *websocket.Conn, env Envelope) {
		payload, _ := json.Marshal(Ok(testAddress))
		_ = conn.WriteJSON(Envelope{
			Type:    MessageConnectWallet,
			Origin:  testServiceOrigin,
			Target:  testAppOrigin,
			Payload: payload,
		})
	})
	w := New(channel, NewSession(NetworkSepolia), nil, nil, zerolog.Nop())

	result := w.Login(context.Background())
	if result.Failed() {
		t.Fatalf("login failed: %s", result.Message)
	}
	address, ok := w.Address()
	if !ok || address != testAddress {
		t.Fatalf("address not recorded, got %q ok=%v", address, ok)
	}

	w.Logout()
	if _, ok := w.Address(); ok {
		t.Fatal("address survived logout")
	}
}

func TestLoginRejectsBadAddress(t *testing.T) {
	channel := signerStub(t, func(conn *websocket.Conn, env Envelope) {
		payload, _ := json.Marshal(Ok("not-an-address"))
		_ = conn.WriteJSON(Envelope{
			Type:    MessageConnectWallet,
			Origin:  testServiceOrigin,
			Target:  testAppOrigin,
			Payload: payload,
		})
	})
	w := New(channel, NewSession(NetworkSepolia), nil, nil, zerolog.Nop())

	result := w.Login(context.Background())
	if !result.Failed() {
		t.Fatal("expected login to fail")
	}
	if _, ok := w.Address(); ok {
		t.Fatal("bad address was recorded")
	}
}

func TestSignRequestCarriesSessionContext(t *testing.T) {
	var got SignRequest
	channel := signerStub(t, func(conn *websocket.Conn, env Envelope) {
		if env.Type != MessageSignTransaction {
			t.Errorf("unexpected type %s", env.Type)
		}
		if err := DecodePayload(env, &got); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		payload, _ := json.Marshal(Ok(TransactionResponse{Hash: "0xhash"}))
		_ = conn.WriteJSON(Envelope{
			Type:    MessageSignTransaction,
			Origin:  testServiceOrigin,
			Target:  testAppOrigin,
			Payload: payload,
		})
	})
	session := NewSession(NetworkSepolia)
	session.SetAddress(testAddress)
	w := New(channel, session, nil, nil, zerolog.Nop())

	result := <-w.SendTransaction(context.Background(), TransactionRequest{To: testAddress, Value: "1"})
	if result.Failed() {
		t.Fatalf("send failed: %s", result.Message)
	}
	if result.Value.Hash != "0xhash" {
		t.Fatalf("unexpected hash %q", result.Value.Hash)
	}
	if got.Address != testAddress {
		t.Fatalf("request carried address %q", got.Address)
	}
	if got.Network != NetworkSepolia {
		t.Fatalf("request carried network %d", got.Network)
	}
}
