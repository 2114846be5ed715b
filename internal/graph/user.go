package graph

import (
	"context"
	"log"
	"strings"

	"chat-api/internal/auth"
	"chat-api/internal/observability"
)

// SearchUsers finds users by case-insensitive username substring, excluding
// the caller. Empty input, or input that is only dots, short-circuits to an
// empty result without touching the store.
func (r *Resolver) SearchUsers(ctx context.Context, args struct {
	Username string
}) ([]*userResolver, error) {
	defer observability.TimeGraphQLOperation("searchUsers")()
	session, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, r.fail("searchUsers", err, "")
	}

	if strings.Trim(args.Username, ".") == "" {
		r.ok("searchUsers")
		return []*userResolver{}, nil
	}

	users, err := r.users.Search(ctx, args.Username, session.Username())
	if err != nil {
		return nil, r.fail("searchUsers", err, "failed to search users")
	}

	resolvers := make([]*userResolver, 0, len(users))
	for _, u := range users {
		resolvers = append(resolvers, &userResolver{u: u})
	}
	r.ok("searchUsers")
	return resolvers, nil
}

// CreateUsername claims a username for the caller. A taken username comes
// back as a structured rejection; unexpected failures are also folded into
// the result rather than raised, so the client can always read one shape.
func (r *Resolver) CreateUsername(ctx context.Context, args struct {
	Username string
}) (*createUsernameResponseResolver, error) {
	defer observability.TimeGraphQLOperation("createUsername")()
	session, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, r.fail("createUsername", err, "")
	}

	result, err := r.users.ClaimUsername(ctx, session.User.ID, args.Username)
	if err != nil {
		log.Printf("createUsername error: %v", err)
		result.Success = false
		result.Error = "failed to create username"
	}
	r.ok("createUsername")
	return &createUsernameResponseResolver{result: result}, nil
}
