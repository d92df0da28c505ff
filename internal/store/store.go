// Package store provides MongoDB persistence for visitor sessions,
// messages, and operator accounts.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/real-rm/livechat/internal/constants"
	"github.com/real-rm/livechat/internal/logging"
)

var (
	// ErrSessionNotFound is returned when a visitor session does not exist
	ErrSessionNotFound = errors.New("visitor session not found")
	// ErrOperatorNotFound is returned when an operator account does not exist
	ErrOperatorNotFound = errors.New("operator not found")
	// ErrDuplicateOperator is returned when an operator username is taken
	ErrDuplicateOperator = errors.New("operator username already exists")
	// ErrInvalidDocument is returned on nil or incomplete documents
	ErrInvalidDocument = errors.New("invalid document")
)

// VisitorSession is the durable identity of one anonymous chat participant.
// The token is supplied by the client and unique; the ID is server-generated
// and immutable.
type VisitorSession struct {
	ID               string    `bson:"_id"`
	Token            string    `bson:"token"`
	NetworkOrigin    string    `bson:"networkOrigin"`
	ClientDescriptor string    `bson:"clientDescriptor"`
	AIEnabled        bool      `bson:"aiEnabled"`
	OperatorID       *string   `bson:"operatorId,omitempty"`
	LastSeenAt       time.Time `bson:"lastSeenAt"`
	CreatedAt        time.Time `bson:"createdAt"`
}

// StoredMessage is one persisted unit of conversation. Append-only.
type StoredMessage struct {
	ID        string    `bson:"_id"`
	VisitorID string    `bson:"visitorId"`
	Body      string    `bson:"body"`
	Sender    string    `bson:"sender"`
	FromAI    bool      `bson:"fromAi"`
	CreatedAt time.Time `bson:"createdAt"`
}

// Operator is a human agent account
type Operator struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	DisplayName  string    `bson:"displayName"`
	PasswordHash string    `bson:"passwordHash"`
	Roles        []string  `bson:"roles"`
	CreatedAt    time.Time `bson:"createdAt"`
}

// retryConfig controls retry behavior for transient MongoDB errors
type retryConfig struct {
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
}

var defaultRetryConfig = retryConfig{
	maxAttempts:  constants.MaxRetryAttempts,
	initialDelay: constants.InitialRetryDelay,
	maxDelay:     constants.MaxRetryDelay,
	multiplier:   constants.RetryMultiplier,
}

// Store wraps the MongoDB collections behind the persistence operations
// the rest of the service needs.
type Store struct {
	client    *mongo.Client
	visitors  *mongo.Collection
	messages  *mongo.Collection
	operators *mongo.Collection
	logger    *logging.Logger
	retry     retryConfig
}

// New creates a Store bound to the given database.
func New(client *mongo.Client, dbName string, logger *logging.Logger) *Store {
	db := client.Database(dbName)
	return &Store{
		client:    client,
		visitors:  db.Collection(constants.CollectionVisitors),
		messages:  db.Collection(constants.CollectionMessages),
		operators: db.Collection(constants.CollectionOperators),
		logger:    logger.Sub("store"),
		retry:     defaultRetryConfig,
	}
}

// EnsureIndexes creates the indexes the queries depend on. The unique token
// index is load-bearing: it is what makes concurrent first-contact upserts
// resolve to a single session.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	tokenIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: constants.MongoFieldToken, Value: 1}},
		Options: options.Index().SetName(constants.IndexVisitorToken).SetUnique(true),
	}

	lastSeenIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: constants.MongoFieldLastSeenAt, Value: -1}}, // Descending for most recent first
		Options: options.Index().SetName(constants.IndexVisitorLastSeen),
	}

	_, err := s.visitors.Indexes().CreateMany(ctx, []mongo.IndexModel{tokenIndex, lastSeenIndex})
	// No else needed: early return pattern (guard clause)
	if err != nil {
		return fmt.Errorf("failed to create visitor indexes: %w", err)
	}

	messageIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: constants.MongoFieldVisitorID, Value: 1},
			{Key: constants.MongoFieldCreatedAt, Value: 1}, // Ascending for history retrieval order
		},
		Options: options.Index().SetName(constants.IndexMessageVisitorTs),
	}

	_, err = s.messages.Indexes().CreateMany(ctx, []mongo.IndexModel{messageIndex})
	// No else needed: early return pattern (guard clause)
	if err != nil {
		return fmt.Errorf("failed to create message indexes: %w", err)
	}

	usernameIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: constants.MongoFieldUsername, Value: 1}},
		Options: options.Index().SetName(constants.IndexOperatorUsername).SetUnique(true),
	}

	_, err = s.operators.Indexes().CreateMany(ctx, []mongo.IndexModel{usernameIndex})
	// No else needed: early return pattern (guard clause)
	if err != nil {
		return fmt.Errorf("failed to create operator indexes: %w", err)
	}

	s.logger.Info("MongoDB indexes created successfully",
		"indexes", []string{
			constants.IndexVisitorToken,
			constants.IndexVisitorLastSeen,
			constants.IndexMessageVisitorTs,
			constants.IndexOperatorUsername,
		},
	)

	return nil
}

// UpsertVisitorSession atomically creates or refreshes the session for a
// token. A single UpdateOne with upsert against the unique token index
// closes the check-then-create race: when two connections present the same
// unseen token, exactly one insert wins and the other becomes an update.
// Returns the resulting session and whether it was created by this call.
func (s *Store) UpsertVisitorSession(ctx context.Context, token, networkOrigin, clientDescriptor string) (*VisitorSession, bool, error) {
	// No else needed: early return pattern (guard clause)
	if token == "" {
		return nil, false, fmt.Errorf("%w: token is required", ErrInvalidDocument)
	}

	now := time.Now().UTC()
	filter := bson.M{constants.MongoFieldToken: token}
	update := bson.M{
		"$set": bson.M{
			"networkOrigin":              networkOrigin,
			"clientDescriptor":           clientDescriptor,
			constants.MongoFieldLastSeenAt: now,
		},
		"$setOnInsert": bson.M{
			constants.MongoFieldID:        uuid.NewString(),
			constants.MongoFieldAIEnabled: true,
			constants.MongoFieldCreatedAt: now,
		},
	}

	var created bool
	err := s.retryOperation(ctx, "UpsertVisitorSession", func() error {
		res, err := s.visitors.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
		// No else needed: early return pattern (guard clause)
		if err != nil {
			return err
		}
		created = res.UpsertedCount > 0
		return nil
	})
	// No else needed: early return pattern (guard clause)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert visitor session: %w", err)
	}

	session, err := s.GetSessionByToken(ctx, token)
	if err != nil {
		return nil, false, err
	}
	return session, created, nil
}

// GetSession fetches a visitor session by its server-generated ID.
func (s *Store) GetSession(ctx context.Context, id string) (*VisitorSession, error) {
	var session VisitorSession
	err := s.visitors.FindOne(ctx, bson.M{constants.MongoFieldID: id}).Decode(&session)
	// No else needed: early return pattern (guard clause)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get visitor session: %w", err)
	}
	return &session, nil
}

// GetSessionByToken fetches a visitor session by its client-supplied token.
func (s *Store) GetSessionByToken(ctx context.Context, token string) (*VisitorSession, error) {
	var session VisitorSession
	err := s.visitors.FindOne(ctx, bson.M{constants.MongoFieldToken: token}).Decode(&session)
	// No else needed: early return pattern (guard clause)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get visitor session by token: %w", err)
	}
	return &session, nil
}

// ResolveSessionRef fetches a session addressed by either its ID or its
// token. Operator clients address sessions both ways.
func (s *Store) ResolveSessionRef(ctx context.Context, ref string) (*VisitorSession, error) {
	session, err := s.GetSession(ctx, ref)
	// No else needed: fall through to token lookup on miss
	if !errors.Is(err, ErrSessionNotFound) {
		return session, err
	}
	return s.GetSessionByToken(ctx, ref)
}

// ListSessions returns sessions ordered by last activity, most recent first.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]VisitorSession, error) {
	if limit <= 0 {
		limit = constants.DefaultChatListLimit
	}
	if limit > constants.MaxChatListLimit {
		limit = constants.MaxChatListLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: constants.MongoFieldLastSeenAt, Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.visitors.Find(ctx, bson.M{}, opts)
	// No else needed: early return pattern (guard clause)
	if err != nil {
		return nil, fmt.Errorf("failed to list visitor sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var sessions []VisitorSession
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode visitor sessions: %w", err)
	}
	return sessions, nil
}

// SetAIEnabled flips the AI-assist flag on a session.
func (s *Store) SetAIEnabled(ctx context.Context, sessionID string, enabled bool) error {
	res, err := s.visitors.UpdateOne(ctx,
		bson.M{constants.MongoFieldID: sessionID},
		bson.M{"$set": bson.M{constants.MongoFieldAIEnabled: enabled}})
	// No else needed: early return pattern (guard clause)
	if err != nil {
		return fmt.Errorf("failed to update AI flag: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// AssignOperator sets the assigned-operator reference on a session.
func (s *Store) AssignOperator(ctx context.Context, sessionID, operatorID string) error {
	res, err := s.visitors.UpdateOne(ctx,
		bson.M{constants.MongoFieldID: sessionID},
		bson.M{"$set": bson.M{constants.MongoFieldOperatorID: operatorID}})
	// No else needed: early return pattern (guard clause)
	if err != nil {
		return fmt.Errorf("failed to assign operator: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// InsertMessage persists one message. Messages are immutable once written.
func (s *Store) InsertMessage(ctx context.Context, msg *StoredMessage) error {
	// No else needed: early return pattern (guard clause)
	if msg == nil {
		return ErrInvalidDocument
	}
	if msg.VisitorID == "" {
		return fmt.Errorf("%w: visitorId is required", ErrInvalidDocument)
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	err := s.retryOperation(ctx, "InsertMessage", func() error {
		_, err := s.messages.InsertOne(ctx, msg)
		return err
	})
	// No else needed: early return pattern (guard clause)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ListMessages returns a session's messages in ascending timestamp order,
// with insertion order as the tiebreak for equal timestamps.
func (s *Store) ListMessages(ctx context.Context, visitorID string) ([]StoredMessage, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: constants.MongoFieldCreatedAt, Value: 1},
		{Key: constants.MongoFieldID, Value: 1},
	})

	cursor, err := s.messages.Find(ctx, bson.M{constants.MongoFieldVisitorID: visitorID}, opts)
	// No else needed: early return pattern (guard clause)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []StoredMessage
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, nil
}

// Ping verifies database connectivity for readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// retryOperation runs fn with exponential backoff on transient errors.
func (s *Store) retryOperation(ctx context.Context, operation string, fn func() error) error {
	var lastErr error
	delay := s.retry.initialDelay

	for attempt := 1; attempt <= s.retry.maxAttempts; attempt++ {
		err := fn()
		// No else needed: early return pattern (guard clause - success case)
		if err == nil {
			return nil
		}

		// Check if error is retryable
		// No else needed: early return pattern (guard clause - non-retryable error)
		if !isRetryableError(err) {
			return err
		}

		lastErr = err

		// No else needed: optional operation (only retry if attempts remain)
		if attempt < s.retry.maxAttempts {
			s.logger.Warn("MongoDB operation failed, retrying",
				"operation", operation,
				"attempt", attempt,
				"max_attempts", s.retry.maxAttempts,
				"delay", delay,
				"error", err)

			// Sleep with context awareness
			select {
			case <-time.After(delay):
				// Continue to next attempt
			case <-ctx.Done():
				return fmt.Errorf("operation cancelled during retry: %w", ctx.Err())
			}

			// Exponential backoff
			delay = time.Duration(float64(delay) * s.retry.multiplier)
			// No else needed: optional operation (only cap if exceeds max)
			if delay > s.retry.maxDelay {
				delay = s.retry.maxDelay
			}
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w",
		s.retry.maxAttempts, lastErr)
}

// isRetryableError checks if an error is retryable (transient)
// Returns true for network errors and transient MongoDB errors
func isRetryableError(err error) bool {
	// No else needed: early return pattern (guard clause)
	if err == nil {
		return false
	}

	// Concurrent upserts on an unseen token can both take the insert path;
	// the loser hits the unique token index with E11000. Retrying the
	// UpdateOne then matches the winner's document instead of inserting.
	if mongo.IsDuplicateKeyError(err) {
		return true
	}

	errStr := err.Error()

	// Network errors
	if containsAny(errStr, []string{
		"connection refused",
		"connection reset",
		"timeout",
		"temporary failure",
		"i/o timeout",
		"EOF",
	}) {
		return true
	}

	// MongoDB specific transient errors
	if containsAny(errStr, []string{
		"server selection timeout",
		"no reachable servers",
		"connection pool",
		"socket",
	}) {
		return true
	}

	return false
}

// containsAny checks if a string contains any of the given substrings
func containsAny(s string, substrings []string) bool {
	for _, substr := range substrings {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
