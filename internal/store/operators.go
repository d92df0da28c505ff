package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/real-rm/livechat/internal/constants"
)

// CreateOperator inserts a new operator account. The password must already
// be hashed by the caller.
func (s *Store) CreateOperator(ctx context.Context, op *Operator) error {
	// No else needed: early return pattern (guard clause)
	if op == nil {
		return ErrInvalidDocument
	}
	if op.Username == "" || op.PasswordHash == "" {
		return fmt.Errorf("%w: username and password hash are required", ErrInvalidDocument)
	}

	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	if op.DisplayName == "" {
		op.DisplayName = op.Username
	}
	if len(op.Roles) == 0 {
		op.Roles = []string{constants.RoleOperator}
	}
	if op.CreatedAt.IsZero() {
		op.CreatedAt = time.Now().UTC()
	}

	_, err := s.operators.InsertOne(ctx, op)
	// No else needed: early return pattern (guard clause)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateOperator
	}
	if err != nil {
		return fmt.Errorf("failed to create operator: %w", err)
	}
	return nil
}

// GetOperatorByUsername fetches an operator for credential checks.
func (s *Store) GetOperatorByUsername(ctx context.Context, username string) (*Operator, error) {
	var op Operator
	err := s.operators.FindOne(ctx, bson.M{constants.MongoFieldUsername: username}).Decode(&op)
	// No else needed: early return pattern (guard clause)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrOperatorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get operator: %w", err)
	}
	return &op, nil
}

// GetOperator fetches an operator by ID.
func (s *Store) GetOperator(ctx context.Context, id string) (*Operator, error) {
	var op Operator
	err := s.operators.FindOne(ctx, bson.M{constants.MongoFieldID: id}).Decode(&op)
	// No else needed: early return pattern (guard clause)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrOperatorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get operator: %w", err)
	}
	return &op, nil
}
