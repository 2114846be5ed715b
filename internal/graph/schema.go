package graph

// Schema is the GraphQL operation surface.
const Schema = `
	scalar Time

	schema {
		query: Query
		mutation: Mutation
		subscription: Subscription
	}

	type Query {
		conversations: [Conversation!]!
		messages(conversationId: String!): [Message!]!
		searchUsers(username: String!): [SearchedUser!]!
	}

	type Mutation {
		createConversation(participantsIds: [String!]!): CreateConversationResponse!
		markConversationAsRead(userId: String!, conversationId: String!): Boolean!
		deleteConversation(conversationId: String!): Boolean!
		updateParticipants(conversationId: String!, participantIds: [String!]!): Boolean!
		sendMessage(id: String!, conversationId: String!, senderId: String!, body: String!): Boolean!
		createUsername(username: String!): CreateUsernameResponse!
	}

	type Subscription {
		conversationCreated: Conversation!
		conversationUpdated: ConversationUpdatedPayload!
		conversationDeleted: ConversationDeletedPayload!
		messageSend(conversationId: String!): Message!
	}

	type User {
		id: String!
		username: String!
		image: String!
	}

	type SearchedUser {
		id: String!
		username: String!
		image: String!
	}

	type Participant {
		id: String!
		user: User!
		hasSeenLatestMessage: Boolean!
	}

	type Conversation {
		id: String!
		participants: [Participant!]!
		latestMessage: Message
		createdAt: Time!
		updatedAt: Time!
	}

	type Message {
		id: String!
		conversationId: String!
		senderId: String!
		sender: User!
		body: String!
		createdAt: Time!
	}

	type CreateConversationResponse {
		conversationId: String!
	}

	type CreateUsernameResponse {
		success: Boolean!
		error: String
	}

	type ConversationUpdatedPayload {
		conversation: Conversation!
		addedUserIds: [String!]!
		removedUserIds: [String!]!
	}

	type ConversationDeletedPayload {
		id: String!
	}
`
