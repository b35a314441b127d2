package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	testServiceOrigin = "http://signer.test"
	testAppOrigin     = "http://app.test"
)

// signerStub runs a fake signing service. handler receives each request
// envelope after READY has been sent and may write replies on the
// connection.
func signerStub(t *testing.T, handler func(conn *websocket.Conn, env Envelope)) *Channel {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		if err := conn.WriteJSON(Envelope{Type: MessageReady, Origin: testServiceOrigin, Target: testAppOrigin}); err != nil {
			return
		}
		for {
			var env Envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			handler(conn, env)
		}
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	return NewChannel(wsURL, testServiceOrigin, testAppOrigin, NetworkSepolia, zerolog.Nop())
}

func TestExchangeRoundTrip(t *testing.T) {
	channel := signerStub(t, func(conn *websocket.Conn, env Envelope) {
		if env.Type != MessageConnectWallet {
			t.Errorf("unexpected request type %s", env.Type)
		}
		if env.Origin != testAppOrigin || env.Target != testServiceOrigin {
			t.Errorf("request not addressed correctly: origin=%s target=%s", env.Origin, env.Target)
		}
		payload, _ := json.Marshal(Ok("0x0000000000000000000000000000000000000001"))
		_ = conn.WriteJSON(Envelope{
			Type:    MessageConnectWallet,
			Origin:  testServiceOrigin,
			Target:  testAppOrigin,
			Payload: payload,
		})
	})

	win, err := channel.Open(context.Background())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	result := channel.Exchange(context.Background(), win, MessageConnectWallet, nil)
	if result.Failed() {
		t.Fatalf("exchange failed: %s", result.Message)
	}

	var inner Result[string]
	if err := json.Unmarshal(result.Value, &inner); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if inner.Value != "0x0000000000000000000000000000000000000001" {
		t.Fatalf("unexpected address %q", inner.Value)
	}
}

func TestExchangeIgnoresForeignOrigin(t *testing.T) {
	channel := signerStub(t, func(conn *websocket.Conn, env Envelope) {
		// A spoofed response from the wrong origin arrives first; the
		// genuine one follows.
		payload, _ := json.Marshal(Ok("0xbad"))
		_ = conn.WriteJSON(Envelope{
			Type:    MessageConnectWallet,
			Origin:  "http://evil.test",
			Target:  testAppOrigin,
			Payload: payload,
		})
		good, _ := json.Marshal(Ok("0xgood"))
		_ = conn.WriteJSON(Envelope{
			Type:    MessageConnectWallet,
			Origin:  testServiceOrigin,
			Target:  testAppOrigin,
			Payload: good,
		})
	})

	win, err := channel.Open(context.Background())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	result := channel.Exchange(context.Background(), win, MessageConnectWallet, nil)
	if result.Failed() {
		t.Fatalf("exchange failed: %s", result.Message)
	}

	var inner Result[string]
	if err := json.Unmarshal(result.Value, &inner); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if inner.Value != "0xgood" {
		t.Fatalf("spoofed response was accepted: %q", inner.Value)
	}
}

func TestExchangeDetectsClosedWindow(t *testing.T) {
	channel := signerStub(t, func(conn *websocket.Conn, env Envelope) {
		// The user closes the window instead of answering.
		conn.Close()
	})

	win, err := channel.Open(context.Background())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	start := time.Now()
	result := channel.Exchange(context.Background(), win, MessageConnectWallet, nil)
	if !result.Failed() {
		t.Fatal("expected a failure result")
	}
	if result.Message != "User closed window" {
		t.Fatalf("unexpected message %q", result.Message)
	}
	// Detection happens on the close poll, not some longer timeout.
	if elapsed := time.Since(start); elapsed > 3*closePollInterval {
		t.Fatalf("close detected after %v", elapsed)
	}
}

func TestOpenBlockedWindow(t *testing.T) {
	channel := NewChannel("ws://127.0.0.1:1/transaction_signing", testServiceOrigin, testAppOrigin, NetworkSepolia, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := channel.Open(ctx)
	if err == nil {
		t.Fatal("expected open to fail")
	}
	if !errors.Is(err, ErrWindowBlocked) {
		t.Fatalf("unexpected error: %v", err)
	}
}
