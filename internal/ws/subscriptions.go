// Package ws serves GraphQL subscriptions over the graphql-transport-ws
// protocol. The session arrives in the connection_init payload rather than a
// cookie; both paths produce the same session shape before resolvers run.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	graphql "github.com/graph-gophers/graphql-go"
	"go.opentelemetry.io/otel"

	"chat-api/internal/auth"
	"chat-api/internal/observability"
)

const (
	msgConnectionInit = "connection_init"
	msgConnectionAck  = "connection_ack"
	msgPing           = "ping"
	msgPong           = "pong"
	msgSubscribe      = "subscribe"
	msgNext           = "next"
	msgError          = "error"
	msgComplete       = "complete"
)

type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type subscribePayload struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

type initPayload struct {
	SessionToken string `json:"sessionToken"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin:  func(r *http.Request) bool { return true },
	Subprotocols: []string{"graphql-transport-ws"},
}

// Handler upgrades connections and runs subscription operations against the
// schema.
type Handler struct {
	schema   *graphql.Schema
	sessions *auth.Resolver
}

// NewHandler constructs a Handler.
func NewHandler(schema *graphql.Schema, sessions *auth.Resolver) *Handler {
	return &Handler{schema: schema, sessions: sessions}
}

// Handle upgrades the connection, performs the connection_init handshake and
// serves subscribe/complete frames until the client goes away.
func (h *Handler) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	defer func() {
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
	}()

	client := &client{conn: conn}

	ctx, err := h.handshake(c, client, conn)
	if err != nil {
		observability.IncWSEvent("ws_error")
		return
	}

	ops := newOperationSet()
	defer ops.cancelAll()

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
			}
			return
		}

		switch msg.Type {
		case msgPing:
			if err := client.write(wsMessage{Type: msgPong}); err != nil {
				return
			}
		case msgSubscribe:
			h.startOperation(ctx, client, ops, msg)
		case msgComplete:
			ops.cancel(msg.ID)
		}
	}
}

// handshake reads the connection_init frame, resolves the session and writes
// the connection_ack. The span covers exactly this exchange, not the
// connection lifetime. The session token comes from the init payload; a token
// query parameter is accepted as a fallback for clients that cannot set the
// payload.
func (h *Handler) handshake(c *gin.Context, client *client, conn *websocket.Conn) (context.Context, error) {
	ctx, span := otel.Tracer("chat-api/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()

	var init wsMessage
	if err := conn.ReadJSON(&init); err != nil {
		return nil, err
	}
	if init.Type != msgConnectionInit {
		return nil, fmt.Errorf("expected %s frame, got %q", msgConnectionInit, init.Type)
	}

	token := c.Query("token")
	if len(init.Payload) > 0 {
		var payload initPayload
		if err := json.Unmarshal(init.Payload, &payload); err == nil && payload.SessionToken != "" {
			token = payload.SessionToken
		}
	}

	session, err := h.sessions.ResolveToken(ctx, token)
	if err != nil {
		log.Printf("ws session resolve failed: %v", err)
	}
	if session != nil {
		ctx = auth.WithSession(ctx, session)
	}

	if err := client.write(wsMessage{Type: msgConnectionAck}); err != nil {
		return nil, err
	}
	return ctx, nil
}

func (h *Handler) startOperation(ctx context.Context, client *client, ops *operationSet, msg wsMessage) {
	var payload subscribePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		client.writeError(msg.ID, "malformed subscribe payload")
		return
	}

	opCtx, cancel := context.WithCancel(ctx)
	responses, err := h.schema.Subscribe(opCtx, payload.Query, payload.OperationName, payload.Variables)
	if err != nil {
		cancel()
		client.writeError(msg.ID, err.Error())
		return
	}
	ops.add(msg.ID, cancel)
	observability.IncWSEvent("subscribe")

	go func() {
		defer ops.cancel(msg.ID)
		for raw := range responses {
			body, err := json.Marshal(raw)
			if err != nil {
				log.Printf("ws marshal response failed: %v", err)
				continue
			}
			if err := client.write(wsMessage{ID: msg.ID, Type: msgNext, Payload: body}); err != nil {
				return
			}
		}
		_ = client.write(wsMessage{ID: msg.ID, Type: msgComplete})
	}()
}

// client serializes writes; subscription goroutines and the read loop share
// the connection.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(msg wsMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(msg)
}

func (c *client) writeError(id, message string) {
	payload, _ := json.Marshal([]map[string]string{{"message": message}})
	if err := c.write(wsMessage{ID: id, Type: msgError, Payload: payload}); err != nil {
		log.Printf("websocket write error: %v", err)
	}
}

type operationSet struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func newOperationSet() *operationSet {
	return &operationSet{cancels: make(map[string]context.CancelFunc)}
}

func (s *operationSet) add(id string, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.cancels[id]; ok {
		existing()
	}
	s.cancels[id] = cancel
}

func (s *operationSet) cancel(id string) {
	s.mu.Lock()
	cancel, ok := s.cancels[id]
	delete(s.cancels, id)
	s.mu.Unlock()
	if ok {
		cancel()
	}
}

func (s *operationSet) cancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cancel := range s.cancels {
		cancel()
		delete(s.cancels, id)
	}
}
