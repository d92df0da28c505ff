// Command addoperator creates an operator account so a human can sign in to
// the chat dashboard. Intended for initial seeding and ad-hoc provisioning.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/real-rm/livechat/internal/auth"
	"github.com/real-rm/livechat/internal/config"
	"github.com/real-rm/livechat/internal/constants"
	"github.com/real-rm/livechat/internal/logging"
	"github.com/real-rm/livechat/internal/store"
)

func main() {
	configFile := flag.String("config", "", "path to config file (optional)")
	username := flag.String("username", "", "operator login name (required)")
	password := flag.String("password", "", "operator password (required)")
	displayName := flag.String("name", "", "display name shown to visitors (defaults to username)")
	roles := flag.String("roles", constants.RoleOperator, "comma-separated roles")
	flag.Parse()

	if err := run(*configFile, *username, *password, *displayName, *roles); err != nil {
		log.Fatalf("Failed to create operator: %v", err)
	}
}

func run(configFile, username, password, displayName, rolesStr string) error {
	// No else needed: early return pattern (guard clause)
	if strings.TrimSpace(username) == "" || password == "" {
		return fmt.Errorf("both -username and -password are required")
	}
	if len(password) < constants.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", constants.MinPasswordLength)
	}

	_ = godotenv.Load()

	cfg, err := config.Load(configFile)
	// No else needed: early return pattern (guard clause)
	if err != nil {
		return err
	}

	logger := logging.NewConsole(os.Stdout, cfg.Log.Level)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Database.URI))
	// No else needed: early return pattern (guard clause)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	hash, err := auth.HashPassword(password)
	// No else needed: early return pattern (guard clause)
	if err != nil {
		return err
	}

	st := store.New(client, cfg.Database.Database, logger)

	indexCtx, indexCancel := context.WithTimeout(context.Background(), constants.MongoIndexTimeout)
	defer indexCancel()
	// No else needed: optional operation (index may already exist)
	if err := st.EnsureIndexes(indexCtx); err != nil {
		logger.Warn("Failed to create indexes", "error", err)
	}

	operator := &store.Operator{
		Username:     strings.TrimSpace(username),
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: hash,
		Roles:        parseRoles(rolesStr),
	}

	opCtx, opCancel := context.WithTimeout(context.Background(), constants.DefaultContextTimeout)
	defer opCancel()
	// No else needed: early return pattern (guard clause)
	if err := st.CreateOperator(opCtx, operator); err != nil {
		return err
	}

	fmt.Printf("Operator %q created (id: %s)\n", operator.Username, operator.ID)
	return nil
}

func parseRoles(rolesStr string) []string {
	var roles []string
	for _, role := range strings.Split(rolesStr, ",") {
		// No else needed: optional operation (skip empty entries)
		if trimmed := strings.TrimSpace(role); trimmed != "" {
			roles = append(roles, trimmed)
		}
	}
	return roles
}
