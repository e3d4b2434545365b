package lume

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lumemarkets/lumebot/internal/crypto"
	"github.com/lumemarkets/lumebot/internal/domain"
)

// graphql-transport-ws message types.
const (
	gqlConnectionInit = "connection_init"
	gqlConnectionAck  = "connection_ack"
	gqlPing           = "ping"
	gqlPong           = "pong"
	gqlSubscribe      = "subscribe"
	gqlNext           = "next"
	gqlError          = "error"
	gqlComplete       = "complete"
)

const (
	// wsWriteWait is the time allowed to write a message to the peer.
	wsWriteWait = 10 * time.Second

	// wsReadWait is the maximum silence tolerated on the connection. Pings
	// go out often enough that a healthy server always answers in time.
	wsReadWait = 90 * time.Second

	// wsPingPeriod is the protocol-level ping interval.
	wsPingPeriod = 30 * time.Second

	// wsConnectTimeout bounds the handshake and the connection_ack wait.
	wsConnectTimeout = 30 * time.Second
)

// gqlMessage is the graphql-transport-ws frame envelope.
type gqlMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WSClient is a graphql-transport-ws subscription client authenticated with
// an EIP-712 wallet signature.
//
// The client covers exactly one connection: Connect dials and
// authenticates, and any read failure afterwards closes every subscription
// channel and poisons the client. Reconnect policy lives in the caller
// (internal/feed), which builds a fresh WSClient per attempt so baselines
// can be reseeded between connections.
type WSClient struct {
	wsURL  string
	api    *Client
	signer *crypto.Signer
	log    *slog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	subs   map[string]chan json.RawMessage
	closed bool
	done   chan struct{}

	// writeMu serializes data-frame writes. gorilla/websocket supports at
	// most one concurrent writer, and frames go out from Connect,
	// Subscribe, the pong branch of readLoop, and pingLoop.
	writeMu sync.Mutex
}

// NewWSClient creates a WebSocket client. api is used to fetch the wallet
// auth challenge over HTTP before dialing.
func NewWSClient(wsURL string, api *Client, signer *crypto.Signer, logger *slog.Logger) *WSClient {
	return &WSClient{
		wsURL:  wsURL,
		api:    api,
		signer: signer,
		log:    logger.With("component", "lume_ws"),
		subs:   make(map[string]chan json.RawMessage),
		done:   make(chan struct{}),
	}
}

// Connect dials the WebSocket endpoint, authenticates with a signed wallet
// challenge, and waits for connection_ack.
func (w *WSClient) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("lume/ws: client is closed: %w", domain.ErrWSDisconnect)
	}
	if w.conn != nil {
		return nil
	}

	challenge, err := w.api.RequestWalletAuthChallenge(ctx, w.signer.Address().Hex())
	if err != nil {
		return fmt.Errorf("lume/ws: %w", err)
	}

	timestamp := time.Now().Unix()
	signature, err := w.signer.SignAuthMessage(
		challenge.Domain.Name,
		challenge.Domain.Version,
		challenge.Nonce,
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("lume/ws: sign challenge: %w", err)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: wsConnectTimeout,
		Subprotocols:     []string{"graphql-transport-ws"},
	}
	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("lume/ws: connect: %w: %s", domain.ErrTransport, err)
	}

	initPayload, err := json.Marshal(map[string]any{
		"walletAuth": map[string]any{
			"walletAddress": w.signer.Address().Hex(),
			"nonce":         challenge.Nonce,
			"timestamp":     timestamp,
			"signature":     signature,
		},
	})
	if err != nil {
		conn.Close()
		return fmt.Errorf("lume/ws: marshal init payload: %w", err)
	}

	if err := w.writeJSON(conn, gqlMessage{Type: gqlConnectionInit, Payload: initPayload}); err != nil {
		conn.Close()
		return fmt.Errorf("lume/ws: send connection_init: %w: %s", domain.ErrTransport, err)
	}

	conn.SetReadDeadline(time.Now().Add(wsConnectTimeout))
	var ack gqlMessage
	if err := conn.ReadJSON(&ack); err != nil {
		conn.Close()
		return fmt.Errorf("lume/ws: wait connection_ack: %w: %s", domain.ErrTransport, err)
	}
	if ack.Type != gqlConnectionAck {
		conn.Close()
		return fmt.Errorf("lume/ws: expected connection_ack, got %q: %w", ack.Type, domain.ErrTransport)
	}

	w.conn = conn
	go w.readLoop(conn)
	go w.pingLoop(conn)

	w.log.Info("websocket connected", "url", w.wsURL)
	return nil
}

// Subscribe starts a GraphQL subscription and returns a channel of raw
// "next" payloads. The channel closes when the subscription completes, the
// server reports a subscription error, or the connection drops.
func (w *WSClient) Subscribe(query string, variables map[string]any) (<-chan json.RawMessage, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil || w.closed {
		return nil, fmt.Errorf("lume/ws: not connected: %w", domain.ErrWSDisconnect)
	}

	payload, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return nil, fmt.Errorf("lume/ws: marshal subscribe payload: %w", err)
	}

	subID := uuid.NewString()
	ch := make(chan json.RawMessage, 64)
	w.subs[subID] = ch

	if err := w.writeJSON(w.conn, gqlMessage{ID: subID, Type: gqlSubscribe, Payload: payload}); err != nil {
		delete(w.subs, subID)
		return nil, fmt.Errorf("lume/ws: send subscribe: %w: %s", domain.ErrTransport, err)
	}

	return ch, nil
}

// Close shuts down the connection. Subscription channels are closed by the
// read loop once it observes the dead connection, so consumers always see
// an orderly end of stream.
func (w *WSClient) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)

	if w.conn != nil {
		_ = w.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return w.conn.Close()
	}
	return nil
}

// --------------------------------------------------------------------------
// Internal loops
// --------------------------------------------------------------------------

// readLoop reads frames until the connection fails, dispatching "next"
// payloads to their subscription channels in receipt order. It is the only
// goroutine that closes subscription channels, so a send never races a
// close.
func (w *WSClient) readLoop(conn *websocket.Conn) {
	defer func() {
		w.Close()
		w.mu.Lock()
		for id, ch := range w.subs {
			close(ch)
			delete(w.subs, id)
		}
		w.mu.Unlock()
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(wsReadWait))
		var msg gqlMessage
		if err := conn.ReadJSON(&msg); err != nil {
			select {
			case <-w.done:
			default:
				w.log.Warn("websocket read failed", "error", err)
			}
			return
		}

		switch msg.Type {
		case gqlNext:
			w.dispatch(msg.ID, msg.Payload)

		case gqlError:
			w.log.Warn("subscription error", "sub_id", msg.ID, "payload", string(msg.Payload))
			w.endSubscription(msg.ID)

		case gqlComplete:
			w.endSubscription(msg.ID)

		case gqlPing:
			_ = w.writeJSON(conn, gqlMessage{Type: gqlPong})

		case gqlPong:
			// Deadline already extended by the read itself.
		}
	}
}

// pingLoop sends protocol-level pings so the server's pong traffic keeps
// the read deadline alive during quiet periods.
func (w *WSClient) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			if err := w.writeJSON(conn, gqlMessage{Type: gqlPing}); err != nil {
				return
			}
		}
	}
}

// writeJSON sends one data frame under the write mutex with a fresh write
// deadline.
func (w *WSClient) writeJSON(conn *websocket.Conn, msg gqlMessage) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(msg)
}

// dispatch forwards a payload to its subscription channel, preserving
// receipt order. It blocks when the consumer lags rather than reordering or
// dropping events.
func (w *WSClient) dispatch(subID string, payload json.RawMessage) {
	w.mu.Lock()
	ch, ok := w.subs[subID]
	w.mu.Unlock()
	if !ok {
		return
	}

	select {
	case ch <- payload:
	case <-w.done:
	}
}

func (w *WSClient) endSubscription(subID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if ch, ok := w.subs[subID]; ok {
		close(ch)
		delete(w.subs, subID)
	}
}
