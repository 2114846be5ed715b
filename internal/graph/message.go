package graph

import (
	"context"

	"chat-api/internal/apperr"
	"chat-api/internal/auth"
	"chat-api/internal/models"
	"chat-api/internal/observability"
)

// Messages returns the conversation's messages, newest first. The caller
// must be a participant.
func (r *Resolver) Messages(ctx context.Context, args struct {
	ConversationID string
}) ([]*messageResolver, error) {
	defer observability.TimeGraphQLOperation("messages")()
	session, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, r.fail("messages", err, "")
	}

	detail, err := r.conversations.GetDetail(ctx, args.ConversationID)
	if err != nil {
		return nil, r.fail("messages", err, "failed to load conversation")
	}
	if !auth.IsParticipant(detail.Participants, session.User.ID) {
		return nil, r.fail("messages", apperr.Forbidden("not authorized to view"), "")
	}

	messages, err := r.messages.ListByConversation(ctx, args.ConversationID)
	if err != nil {
		return nil, r.fail("messages", err, "failed to load messages")
	}

	resolvers := make([]*messageResolver, 0, len(messages))
	for _, m := range messages {
		resolvers = append(resolvers, &messageResolver{m: m})
	}
	r.ok("messages")
	return resolvers, nil
}

// SendMessage stores the message under the caller-supplied id, moves the
// latest-message pointer and flips the seen flags atomically, then announces
// the message. Sending on behalf of another user is forbidden.
func (r *Resolver) SendMessage(ctx context.Context, args struct {
	ID             string
	ConversationID string
	SenderID       string
	Body           string
}) (bool, error) {
	defer observability.TimeGraphQLOperation("sendMessage")()
	session, err := auth.RequireUser(ctx)
	if err != nil {
		return false, r.fail("sendMessage", err, "")
	}
	if session.User.ID != args.SenderID {
		return false, r.fail("sendMessage", apperr.Forbidden("cannot send as another user"), "")
	}

	detail, err := r.messages.Send(ctx, args.ID, args.ConversationID, args.SenderID, args.Body)
	if err != nil {
		return false, r.fail("sendMessage", err, "failed to send message")
	}

	r.publish(ctx, models.TopicMessageSent, models.MessageSentEvent{Message: detail})
	r.ok("sendMessage")
	return true, nil
}

// MessageSend streams messages for one conversation. Membership is verified
// here, when the subscription is established; the per-event predicate then
// only matches on the conversation id.
func (r *Resolver) MessageSend(ctx context.Context, args struct {
	ConversationID string
}) (<-chan *messageResolver, error) {
	session, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	detail, err := r.conversations.GetDetail(ctx, args.ConversationID)
	if err != nil {
		return nil, err
	}
	if !auth.IsParticipant(detail.Participants, session.User.ID) {
		return nil, apperr.Forbidden("not a conversation participant")
	}

	conversationID := args.ConversationID
	userID := session.User.ID
	events := r.bus.Subscribe(ctx, models.TopicMessageSent)
	// Membership can be revoked while the stream is open; watch for our own
	// removal and end the stream instead of leaking further messages.
	updates := r.bus.Subscribe(ctx, models.TopicConversationUpdated)
	out := make(chan *messageResolver)
	go func() {
		defer close(out)
		observability.IncSubscriptionActive(models.TopicMessageSent)
		defer observability.DecSubscriptionActive(models.TopicMessageSent)

		for {
			select {
			case raw, ok := <-events:
				if !ok {
					return
				}
				ev, ok := raw.(models.MessageSentEvent)
				if !ok || !MessageSentVisible(ev, conversationID) {
					continue
				}
				select {
				case out <- &messageResolver{m: ev.Message}:
				case <-ctx.Done():
					return
				}
			case raw, ok := <-updates:
				if !ok {
					return
				}
				ev, ok := raw.(models.ConversationUpdatedEvent)
				if !ok || ev.Conversation.ID != conversationID {
					continue
				}
				if containsID(ev.RemovedUserIDs, userID) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
