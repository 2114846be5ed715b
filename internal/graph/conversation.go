package graph

import (
	"context"

	"chat-api/internal/apperr"
	"chat-api/internal/auth"
	"chat-api/internal/models"
	"chat-api/internal/observability"
)

// Conversations returns the caller's conversations, most recently updated
// first.
func (r *Resolver) Conversations(ctx context.Context) ([]*conversationResolver, error) {
	defer observability.TimeGraphQLOperation("conversations")()
	session, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, r.fail("conversations", err, "")
	}

	details, err := r.conversations.ListForUser(ctx, session.User.ID)
	if err != nil {
		return nil, r.fail("conversations", err, "failed to load conversations")
	}

	resolvers := make([]*conversationResolver, 0, len(details))
	for _, detail := range details {
		resolvers = append(resolvers, &conversationResolver{c: detail})
	}
	r.ok("conversations")
	return resolvers, nil
}

// CreateConversation atomically creates a conversation with its participants
// and welcome message, then announces it.
func (r *Resolver) CreateConversation(ctx context.Context, args struct {
	ParticipantsIds []string
}) (*createConversationResponseResolver, error) {
	defer observability.TimeGraphQLOperation("createConversation")()
	session, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, r.fail("createConversation", err, "")
	}
	if len(args.ParticipantsIds) == 0 {
		return nil, r.fail("createConversation",
			apperr.ValidationFailed("participantsIds must not be empty"), "")
	}

	detail, err := r.conversations.CreateWithFirstMessage(ctx, session.User.ID, args.ParticipantsIds)
	if err != nil {
		return nil, r.fail("createConversation", err, "error in creating conversation")
	}

	r.publish(ctx, models.TopicConversationCreated, models.ConversationCreatedEvent{Conversation: detail})
	r.ok("createConversation")
	return &createConversationResponseResolver{conversationID: detail.ID}, nil
}

// MarkConversationAsRead flips the seen flag for the given user. Local state
// only; no event is published, and repeating the call is a no-op.
func (r *Resolver) MarkConversationAsRead(ctx context.Context, args struct {
	UserID         string
	ConversationID string
}) (bool, error) {
	defer observability.TimeGraphQLOperation("markConversationAsRead")()
	if _, err := auth.RequireUser(ctx); err != nil {
		return false, r.fail("markConversationAsRead", err, "")
	}

	if err := r.conversations.MarkRead(ctx, args.ConversationID, args.UserID); err != nil {
		return false, r.fail("markConversationAsRead", err, "failed to mark conversation as read")
	}
	r.ok("markConversationAsRead")
	return true, nil
}

// DeleteConversation atomically removes the conversation and everything it
// owns, then announces the deletion with the pre-deletion participant
// snapshot.
func (r *Resolver) DeleteConversation(ctx context.Context, args struct {
	ConversationID string
}) (bool, error) {
	defer observability.TimeGraphQLOperation("deleteConversation")()
	if _, err := auth.RequireUser(ctx); err != nil {
		return false, r.fail("deleteConversation", err, "")
	}

	participantIDs, err := r.conversations.Delete(ctx, args.ConversationID)
	if err != nil {
		return false, r.fail("deleteConversation", err, "failed to delete conversation")
	}

	r.publish(ctx, models.TopicConversationDeleted, models.ConversationDeletedEvent{
		ConversationID:     args.ConversationID,
		ParticipantUserIDs: participantIDs,
	})
	r.ok("deleteConversation")
	return true, nil
}

// UpdateParticipants diffs the participant list against the desired set and
// applies the additions and removals atomically. Only current participants
// may reshape the conversation.
func (r *Resolver) UpdateParticipants(ctx context.Context, args struct {
	ConversationID string
	ParticipantIds []string
}) (bool, error) {
	defer observability.TimeGraphQLOperation("updateParticipants")()
	session, err := auth.RequireUser(ctx)
	if err != nil {
		return false, r.fail("updateParticipants", err, "")
	}

	detail, err := r.conversations.GetDetail(ctx, args.ConversationID)
	if err != nil {
		return false, r.fail("updateParticipants", err, "failed to update participants")
	}
	if !auth.IsParticipant(detail.Participants, session.User.ID) {
		return false, r.fail("updateParticipants",
			apperr.Forbidden("not a conversation participant"), "")
	}

	updated, added, removed, err := r.conversations.UpdateParticipants(ctx, args.ConversationID, args.ParticipantIds)
	if err != nil {
		return false, r.fail("updateParticipants", err, "failed to update participants")
	}

	r.publish(ctx, models.TopicConversationUpdated, models.ConversationUpdatedEvent{
		Conversation:   updated,
		AddedUserIDs:   added,
		RemovedUserIDs: removed,
	})
	r.ok("updateParticipants")
	return true, nil
}

// ConversationCreated streams new conversations visible to the subscriber.
// Anonymous subscribers receive nothing rather than an error.
func (r *Resolver) ConversationCreated(ctx context.Context) (<-chan *conversationResolver, error) {
	session := auth.SessionFromContext(ctx)

	events := r.bus.Subscribe(ctx, models.TopicConversationCreated)
	out := make(chan *conversationResolver)
	go func() {
		defer close(out)
		observability.IncSubscriptionActive(models.TopicConversationCreated)
		defer observability.DecSubscriptionActive(models.TopicConversationCreated)

		for raw := range events {
			ev, ok := raw.(models.ConversationCreatedEvent)
			if !ok || !ConversationCreatedVisible(ev, session) {
				continue
			}
			select {
			case out <- &conversationResolver{c: ev.Conversation}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// ConversationUpdated streams participant-list changes, including the one
// final update a removed user receives.
func (r *Resolver) ConversationUpdated(ctx context.Context) (<-chan *conversationUpdatedResolver, error) {
	session, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	events := r.bus.Subscribe(ctx, models.TopicConversationUpdated)
	out := make(chan *conversationUpdatedResolver)
	go func() {
		defer close(out)
		observability.IncSubscriptionActive(models.TopicConversationUpdated)
		defer observability.DecSubscriptionActive(models.TopicConversationUpdated)

		for raw := range events {
			ev, ok := raw.(models.ConversationUpdatedEvent)
			if !ok {
				continue
			}
			visible, err := ConversationUpdatedVisible(ev, session)
			if err != nil || !visible {
				continue
			}
			select {
			case out <- &conversationUpdatedResolver{ev: ev}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// ConversationDeleted streams deletions to the conversations' former
// participants.
func (r *Resolver) ConversationDeleted(ctx context.Context) (<-chan *conversationDeletedResolver, error) {
	session, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	events := r.bus.Subscribe(ctx, models.TopicConversationDeleted)
	out := make(chan *conversationDeletedResolver)
	go func() {
		defer close(out)
		observability.IncSubscriptionActive(models.TopicConversationDeleted)
		defer observability.DecSubscriptionActive(models.TopicConversationDeleted)

		for raw := range events {
			ev, ok := raw.(models.ConversationDeletedEvent)
			if !ok {
				continue
			}
			visible, err := ConversationDeletedVisible(ev, session)
			if err != nil || !visible {
				continue
			}
			select {
			case out <- &conversationDeletedResolver{ev: ev}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
