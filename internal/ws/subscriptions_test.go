package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"chat-api/internal/auth"
	"chat-api/internal/graph"
	"chat-api/internal/mocks"
	"chat-api/internal/models"
	"chat-api/internal/pubsub"
)

type staticSessionStore struct {
	sessions map[string]*auth.Session
}

func (s *staticSessionStore) GetByToken(ctx context.Context, token string) (*auth.Session, error) {
	return s.sessions[token], nil
}

func newTestServer(t *testing.T, bus *pubsub.Bus, store auth.SessionStore) *httptest.Server {
	t.Helper()
	resolver := graph.NewResolver(
		&mocks.UserRepositoryMock{},
		&mocks.ConversationRepositoryMock{},
		&mocks.MessageRepositoryMock{},
		bus, nil)
	schema := graph.NewSchema(resolver)
	sessions := auth.NewResolver(store, "secret", "chat_session")

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/graphql/ws", NewHandler(schema, sessions).Handle)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/graphql/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{
		"Sec-WebSocket-Protocol": []string{"graphql-transport-ws"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHandshakeAckEndsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	srv := newTestServer(t, pubsub.NewBus(), &staticSessionStore{})
	conn := dialWS(t, srv)

	require.NoError(t, conn.WriteJSON(wsMessage{Type: msgConnectionInit}))
	ack := readFrame(t, conn)
	assert.Equal(t, msgConnectionAck, ack.Type)

	// The handshake span closes once the ack is written, while the
	// connection stays open.
	assert.Eventually(t, func() bool {
		for _, span := range recorder.Ended() {
			if span.Name() == "ws.handshake" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(wsMessage{Type: msgPing}))
	assert.Equal(t, msgPong, readFrame(t, conn).Type)
}

func TestHandshakeRejectsOtherFirstFrame(t *testing.T) {
	srv := newTestServer(t, pubsub.NewBus(), &staticSessionStore{})
	conn := dialWS(t, srv)

	require.NoError(t, conn.WriteJSON(wsMessage{Type: msgPing}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg wsMessage
	assert.Error(t, conn.ReadJSON(&msg), "connection should close without an ack")
}

func TestSubscribeDeliversEvents(t *testing.T) {
	session := &auth.Session{Token: "tok"}
	session.User.ID = "bob"
	store := &staticSessionStore{sessions: map[string]*auth.Session{"tok": session}}

	bus := pubsub.NewBus()
	srv := newTestServer(t, bus, store)
	conn := dialWS(t, srv)

	require.NoError(t, conn.WriteJSON(wsMessage{
		Type:    msgConnectionInit,
		Payload: json.RawMessage(`{"sessionToken":"tok"}`),
	}))
	require.Equal(t, msgConnectionAck, readFrame(t, conn).Type)

	sub, err := json.Marshal(subscribePayload{Query: `subscription { conversationCreated { id } }`})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(wsMessage{ID: "1", Type: msgSubscribe, Payload: sub}))

	// Publish until the frame arrives; the subscription registers
	// asynchronously relative to the subscribe frame.
	event := models.ConversationCreatedEvent{Conversation: models.ConversationDetail{
		ID:           "conv-1",
		Participants: []models.ParticipantDetail{{ID: "p-bob", UserID: "bob"}},
	}}
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				bus.Publish(models.TopicConversationCreated, event)
			case <-done:
				return
			}
		}
	}()

	next := readFrame(t, conn)
	assert.Equal(t, msgNext, next.Type)
	assert.Equal(t, "1", next.ID)
	assert.Contains(t, string(next.Payload), "conv-1")

	require.NoError(t, conn.WriteJSON(wsMessage{ID: "1", Type: msgComplete}))
}

func TestSubscribeMalformedPayload(t *testing.T) {
	srv := newTestServer(t, pubsub.NewBus(), &staticSessionStore{})
	conn := dialWS(t, srv)

	require.NoError(t, conn.WriteJSON(wsMessage{Type: msgConnectionInit}))
	require.Equal(t, msgConnectionAck, readFrame(t, conn).Type)

	require.NoError(t, conn.WriteJSON(wsMessage{ID: "1", Type: msgSubscribe, Payload: json.RawMessage(`"not an object"`)}))
	frame := readFrame(t, conn)
	assert.Equal(t, msgError, frame.Type)
	assert.Equal(t, "1", frame.ID)
}
