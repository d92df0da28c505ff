package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/real-rm/livechat/internal/constants"
)

// Stats is an operator dashboard snapshot of chat activity.
type Stats struct {
	TotalChats     int64 `json:"totalChats"`
	ActiveChats    int64 `json:"activeChats"`
	ChatsToday     int64 `json:"chatsToday"`
	TotalMessages  int64 `json:"totalMessages"`
	MessagesToday  int64 `json:"messagesToday"`
	AIEnabledChats int64 `json:"aiEnabledChats"`
}

// GetStats computes dashboard counters. "Today" is the current UTC calendar
// day; "active" means activity within the active-chat window.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	activeSince := now.Add(-constants.ActiveChatWindow)

	stats := &Stats{}

	counts := []struct {
		name       string
		collection string
		filter     bson.M
		target     *int64
	}{
		{"total chats", constants.CollectionVisitors, bson.M{}, &stats.TotalChats},
		{"active chats", constants.CollectionVisitors,
			bson.M{constants.MongoFieldLastSeenAt: bson.M{"$gte": activeSince}}, &stats.ActiveChats},
		{"chats today", constants.CollectionVisitors,
			bson.M{constants.MongoFieldCreatedAt: bson.M{"$gte": startOfDay}}, &stats.ChatsToday},
		{"AI-enabled chats", constants.CollectionVisitors,
			bson.M{constants.MongoFieldAIEnabled: true}, &stats.AIEnabledChats},
		{"total messages", constants.CollectionMessages, bson.M{}, &stats.TotalMessages},
		{"messages today", constants.CollectionMessages,
			bson.M{constants.MongoFieldCreatedAt: bson.M{"$gte": startOfDay}}, &stats.MessagesToday},
	}

	for _, c := range counts {
		coll := s.visitors
		if c.collection == constants.CollectionMessages {
			coll = s.messages
		}

		n, err := coll.CountDocuments(ctx, c.filter)
		// No else needed: early return pattern (guard clause)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.name, err)
		}
		*c.target = n
	}

	return stats, nil
}
