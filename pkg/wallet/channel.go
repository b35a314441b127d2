package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ErrWindowBlocked is returned when the signing window could not be
// opened at all (service unreachable, connection refused).
var ErrWindowBlocked = errors.New("signing window blocked")

const (
	// closePollInterval is how often an in-flight exchange checks whether
	// the user closed the signing window.
	closePollInterval = 500 * time.Millisecond

	handshakeTimeout = 10 * time.Second

	// inboundBuffer bounds messages queued between the reader and an
	// exchange. The protocol is strictly request/response so anything
	// beyond a couple of messages is already misbehavior.
	inboundBuffer = 8
)

// Channel opens signing windows against a fixed signing-service origin
// and runs one request/response exchange per window. Inbound messages
// from any other origin are ignored; outbound messages are targeted at
// the service origin explicitly.
type Channel struct {
	serviceURL    string
	serviceOrigin string
	appOrigin     string
	network       Network
	log           zerolog.Logger
}

// NewChannel creates a channel bound to the signing service at
// serviceURL. serviceOrigin is the origin expected on every inbound
// message; appOrigin is stamped on outbound requests.
func NewChannel(serviceURL, serviceOrigin, appOrigin string, network Network, log zerolog.Logger) *Channel {
	return &Channel{
		serviceURL:    serviceURL,
		serviceOrigin: serviceOrigin,
		appOrigin:     appOrigin,
		network:       network,
		log:           log,
	}
}

// Window is one open signing window. It is owned by a single exchange
// from Open until the exchange resolves.
type Window struct {
	conn      *websocket.Conn
	inbound   chan Envelope
	closed    chan struct{}
	closeOnce sync.Once
}

// Open connects to the signing service and starts the message reader.
// The reader is running before any request is sent, so a READY emitted
// immediately after the handshake cannot be missed.
func (c *Channel) Open(ctx context.Context) (*Window, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	header := http.Header{}
	if c.appOrigin != "" {
		header.Set("Origin", c.appOrigin)
	}

	conn, _, err := dialer.DialContext(ctx, c.serviceURL, header)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWindowBlocked, err)
	}

	win := &Window{
		conn:    conn,
		inbound: make(chan Envelope, inboundBuffer),
		closed:  make(chan struct{}),
	}
	go win.readLoop(c.log)

	return win, nil
}

// readLoop pumps inbound envelopes until the window goes away. A read
// error means the window was closed, by us or by the user.
func (w *Window) readLoop(log zerolog.Logger) {
	defer close(w.closed)
	for {
		var env Envelope
		if err := w.conn.ReadJSON(&env); err != nil {
			return
		}
		select {
		case w.inbound <- env:
		default:
			log.Warn().Str("type", string(env.Type)).Msg("dropping message, exchange not keeping up")
		}
	}
}

// Close releases the window. Safe to call more than once.
func (w *Window) Close() {
	w.closeOnce.Do(func() {
		_ = w.conn.Close()
	})
}

// UserClosed reports whether the window is gone without a response.
func (w *Window) UserClosed() bool {
	select {
	case <-w.closed:
		return true
	default:
		return false
	}
}

// Exchange performs exactly one request/response pair over the window:
// await READY, send the request targeted at the service origin, await
// the typed response. It resolves exactly once and closes the window on
// every exit path. A closed window is detected within one poll interval
// and resolves an error result rather than hanging.
func (c *Channel) Exchange(ctx context.Context, win *Window, reqType MessageType, payload interface{}) Result[json.RawMessage] {
	defer win.Close()

	respType, err := ResponseTypeFor(reqType)
	if err != nil {
		return Errf[json.RawMessage]("invalid request: %v", err)
	}

	req, err := NewEnvelope(reqType, c.network, c.appOrigin, c.serviceOrigin, payload)
	if err != nil {
		return Errf[json.RawMessage]("failed to build request: %v", err)
	}

	ticker := time.NewTicker(closePollInterval)
	defer ticker.Stop()

	sent := false
	for {
		select {
		case env := <-win.inbound:
			if env.Origin != c.serviceOrigin {
				c.log.Warn().Str("origin", env.Origin).Str("type", string(env.Type)).Msg("ignoring message from unexpected origin")
				continue
			}
			switch env.Type {
			case MessageReady:
				if sent {
					continue
				}
				if err := win.conn.WriteJSON(req); err != nil {
					return Errf[json.RawMessage]("failed to send %s request: %v", reqType, err)
				}
				sent = true
			case respType:
				return Ok(env.Payload)
			default:
				c.log.Debug().Str("type", string(env.Type)).Msg("ignoring unexpected message type")
			}
		case <-ticker.C:
			if win.UserClosed() {
				return Errf[json.RawMessage]("User closed window")
			}
		case <-ctx.Done():
			return Errf[json.RawMessage]("signing window abandoned: %v", ctx.Err())
		}
	}
}
