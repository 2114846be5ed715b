package graph

import (
	graphql "github.com/graph-gophers/graphql-go"

	"chat-api/internal/models"
)

// Thin read-only wrappers exposing the typed projections to the schema.

type userResolver struct {
	u models.UserSummary
}

func (r *userResolver) ID() string       { return r.u.ID }
func (r *userResolver) Username() string { return r.u.Username }
func (r *userResolver) Image() string    { return r.u.Image }

type participantResolver struct {
	p models.ParticipantDetail
}

func (r *participantResolver) ID() string                 { return r.p.ID }
func (r *participantResolver) User() *userResolver        { return &userResolver{u: r.p.User} }
func (r *participantResolver) HasSeenLatestMessage() bool { return r.p.HasSeenLatestMessage }

type messageResolver struct {
	m models.MessageDetail
}

func (r *messageResolver) ID() string             { return r.m.ID }
func (r *messageResolver) ConversationID() string { return r.m.ConversationID }
func (r *messageResolver) SenderID() string       { return r.m.SenderID }
func (r *messageResolver) Sender() *userResolver  { return &userResolver{u: r.m.Sender} }
func (r *messageResolver) Body() string           { return r.m.Body }
func (r *messageResolver) CreatedAt() graphql.Time {
	return graphql.Time{Time: r.m.CreatedAt}
}

type conversationResolver struct {
	c models.ConversationDetail
}

func (r *conversationResolver) ID() string { return r.c.ID }

func (r *conversationResolver) Participants() []*participantResolver {
	participants := make([]*participantResolver, 0, len(r.c.Participants))
	for _, p := range r.c.Participants {
		participants = append(participants, &participantResolver{p: p})
	}
	return participants
}

func (r *conversationResolver) LatestMessage() *messageResolver {
	if r.c.LatestMessage == nil {
		return nil
	}
	return &messageResolver{m: *r.c.LatestMessage}
}

func (r *conversationResolver) CreatedAt() graphql.Time { return graphql.Time{Time: r.c.CreatedAt} }
func (r *conversationResolver) UpdatedAt() graphql.Time { return graphql.Time{Time: r.c.UpdatedAt} }

type createConversationResponseResolver struct {
	conversationID string
}

func (r *createConversationResponseResolver) ConversationID() string { return r.conversationID }

type createUsernameResponseResolver struct {
	result models.CreateUsernameResult
}

func (r *createUsernameResponseResolver) Success() bool { return r.result.Success }

func (r *createUsernameResponseResolver) Error() *string {
	if r.result.Error == "" {
		return nil
	}
	err := r.result.Error
	return &err
}

type conversationUpdatedResolver struct {
	ev models.ConversationUpdatedEvent
}

func (r *conversationUpdatedResolver) Conversation() *conversationResolver {
	return &conversationResolver{c: r.ev.Conversation}
}

func (r *conversationUpdatedResolver) AddedUserIDs() []string {
	return emptyIfNil(r.ev.AddedUserIDs)
}

func (r *conversationUpdatedResolver) RemovedUserIDs() []string {
	return emptyIfNil(r.ev.RemovedUserIDs)
}

type conversationDeletedResolver struct {
	ev models.ConversationDeletedEvent
}

func (r *conversationDeletedResolver) ID() string { return r.ev.ConversationID }

func emptyIfNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
