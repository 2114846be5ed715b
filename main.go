package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"chat-api/internal/auth"
	"chat-api/internal/config"
	"chat-api/internal/db"
	"chat-api/internal/graph"
	"chat-api/internal/observability"
	"chat-api/internal/pubsub"
	"chat-api/internal/repositories"
	"chat-api/internal/ws"
)

func main() {
	cfg := config.Load()

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	if cfg.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(context.Background(), cfg.OTLPEndpoint, cfg.Environment)
		if err != nil {
			log.Fatalf("failed to init tracer: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
	}

	userRepo := repositories.NewUserRepo(database)
	sessionRepo := repositories.NewSessionRepo(database)
	conversationRepo := repositories.NewConversationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	bus := pubsub.NewBus()
	mirror := observability.NewEventMirror(cfg.AMQPURL, cfg.AMQPExchange, cfg.Environment)
	defer mirror.Close()
	log.Printf("event mirror mode=%s", observability.MirrorMode(mirror))

	resolver := graph.NewResolver(userRepo, conversationRepo, messageRepo, bus, mirror)
	schema := graph.NewSchema(resolver)

	sessions := auth.NewResolver(sessionRepo, cfg.SessionSecret, cfg.SessionCookie)
	wsHandler := ws.NewHandler(schema, sessions)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("chat-api"))
	router.Use(observability.HTTPMetricsMiddleware())

	router.POST("/graphql", sessions.Middleware(), gin.WrapH(&relay.Handler{Schema: schema}))
	router.GET("/graphql/ws", wsHandler.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	registerDebugRoutes(router, database, cfg)

	if err := router.Run(cfg.Addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// registerDebugRoutes wires local-development helpers: seeding a user plus a
// signed session cookie without a real identity provider.
func registerDebugRoutes(router *gin.Engine, database *sqlx.DB, cfg config.Config) {
	if !cfg.Debug {
		return
	}

	router.POST("/debug/seed-user", func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
			Email    string `json:"email"`
			Image    string `json:"image"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		userID := uuid.NewString()
		token := uuid.NewString()
		ctx := c.Request.Context()
		if _, err := database.ExecContext(ctx,
			`INSERT INTO users (id, username, email, image) VALUES ($1, $2, $3, $4)`,
			userID, req.Username, req.Email, req.Image); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not seed user"})
			return
		}
		if _, err := database.ExecContext(ctx,
			`INSERT INTO sessions (token, user_id, expires_at) VALUES ($1, $2, $3)`,
			token, userID, time.Now().Add(30*24*time.Hour)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not seed session"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"user_id":       userID,
			"session_token": token,
			"cookie":        auth.SignToken(token, cfg.SessionSecret),
		})
	})
}
