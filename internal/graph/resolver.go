package graph

import (
	"context"
	"log"
	"strings"

	graphql "github.com/graph-gophers/graphql-go"

	"chat-api/internal/apperr"
	"chat-api/internal/observability"
	"chat-api/internal/pubsub"
	"chat-api/internal/repositories"
)

// Resolver is the GraphQL root. Mutations run their transaction through the
// repositories, then publish the outcome on the injected bus; subscriptions
// consume the bus through the visibility predicates in filter.go.
type Resolver struct {
	users         repositories.UserRepository
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	bus           pubsub.Broker
	mirror        observability.EventMirror
}

// NewResolver wires the root resolver. mirror may be nil.
func NewResolver(
	users repositories.UserRepository,
	conversations repositories.ConversationRepository,
	messages repositories.MessageRepository,
	bus pubsub.Broker,
	mirror observability.EventMirror,
) *Resolver {
	return &Resolver{
		users:         users,
		conversations: conversations,
		messages:      messages,
		bus:           bus,
		mirror:        mirror,
	}
}

// NewSchema parses the schema against the root resolver.
func NewSchema(r *Resolver) *graphql.Schema {
	return graphql.MustParseSchema(Schema, r)
}

// publish hands the committed outcome to live subscribers and mirrors it for
// external consumers. Called only after the transaction has committed.
func (r *Resolver) publish(ctx context.Context, topic string, event pubsub.Event) {
	r.bus.Publish(topic, event)
	observability.IncBusEvent(topic)
	if r.mirror != nil {
		_ = r.mirror.Mirror(ctx, topic, event)
	}
}

// fail maps an operation failure to the client-facing taxonomy. Taxonomy
// errors pass through; anything else is logged and re-raised as a generic
// transaction failure so storage internals never leak.
func (r *Resolver) fail(op string, err error, msg string) error {
	if code := apperr.CodeOf(err); code != "" {
		observability.IncGraphQLOperation(op, strings.ToLower(string(code)))
		return err
	}
	log.Printf("%s error: %v", op, err)
	observability.IncGraphQLOperation(op, strings.ToLower(string(apperr.CodeTransactionFailed)))
	return apperr.TransactionFailed(msg)
}

func (r *Resolver) ok(op string) {
	observability.IncGraphQLOperation(op, "ok")
}
