//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SessionDocument mirrors the visitor session schema with its expected
// camelCase field names
type SessionDocument struct {
	ID               string    `bson:"_id"`
	Token            string    `bson:"token"`
	NetworkOrigin    string    `bson:"networkOrigin"`
	ClientDescriptor string    `bson:"clientDescriptor,omitempty"`
	AIEnabled        bool      `bson:"aiEnabled"`
	OperatorID       *string   `bson:"operatorId,omitempty"`
	LastSeenAt       time.Time `bson:"lastSeenAt"`
	CreatedAt        time.Time `bson:"createdAt"`
}

// MessageDocument mirrors the stored message schema
type MessageDocument struct {
	ID        string    `bson:"_id"`
	VisitorID string    `bson:"visitorId"`
	Body      string    `bson:"body"`
	Sender    string    `bson:"sender"`
	FromAI    bool      `bson:"fromAi"`
	CreatedAt time.Time `bson:"createdAt"`
}

func main() {
	fmt.Println("=== MongoDB Field Naming Verification ===")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI("mongodb://localhost:27017"))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	db := client.Database("livechat")

	// Write one document of each kind through the typed schema and read the
	// raw bson back to confirm the field names on the wire.
	sessions := db.Collection("visitors")
	sessionID := fmt.Sprintf("verify-%d", time.Now().UnixNano())
	_, err = sessions.InsertOne(ctx, SessionDocument{
		ID:            sessionID,
		Token:         "verify-token",
		NetworkOrigin: "203.0.113.9",
		AIEnabled:     true,
		LastSeenAt:    time.Now().UTC(),
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		log.Fatalf("Failed to insert session: %v", err)
	}
	defer sessions.DeleteOne(context.Background(), bson.M{"_id": sessionID})

	var rawSession bson.M
	if err := sessions.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&rawSession); err != nil {
		log.Fatalf("Failed to read session back: %v", err)
	}

	expectSessionFields := []string{"_id", "token", "networkOrigin", "aiEnabled", "lastSeenAt", "createdAt"}
	for _, field := range expectSessionFields {
		if _, ok := rawSession[field]; !ok {
			log.Fatalf("Session document missing expected field %q; got %v", field, rawSession)
		}
	}
	fmt.Println("visitors: field names OK")

	messages := db.Collection("messages")
	messageID := fmt.Sprintf("verify-%d", time.Now().UnixNano())
	_, err = messages.InsertOne(ctx, MessageDocument{
		ID:        messageID,
		VisitorID: sessionID,
		Body:      "verification message",
		Sender:    "system",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Fatalf("Failed to insert message: %v", err)
	}
	defer messages.DeleteOne(context.Background(), bson.M{"_id": messageID})

	var rawMessage bson.M
	if err := messages.FindOne(ctx, bson.M{"_id": messageID}).Decode(&rawMessage); err != nil {
		log.Fatalf("Failed to read message back: %v", err)
	}

	expectMessageFields := []string{"_id", "visitorId", "body", "sender", "fromAi", "createdAt"}
	for _, field := range expectMessageFields {
		if _, ok := rawMessage[field]; !ok {
			log.Fatalf("Message document missing expected field %q; got %v", field, rawMessage)
		}
	}
	fmt.Println("messages: field names OK")

	fmt.Println("All field naming checks passed")
}
