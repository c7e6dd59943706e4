package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/Apurer/go-gin-workorders/internal/app/api"
	platformdynamo "github.com/Apurer/go-gin-workorders/internal/platform/dynamo"
	"github.com/Apurer/go-gin-workorders/internal/platform/migrations"
	platformpostgres "github.com/Apurer/go-gin-workorders/internal/platform/postgres"
)

// migrate prepares the schema for the configured STORE_BACKEND.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	switch cfg.StoreBackend {
	case api.BackendPostgres:
		db, cleanup := platformpostgres.ConnectFromEnv(ctx, cfg.PostgresDSN, logger)
		defer cleanup()
		if db == nil {
			log.Fatal("POSTGRES_DSN not set or connection failed; cannot migrate")
		}
		if err := migrations.Run(db); err != nil {
			log.Fatalf("failed to migrate postgres: %v", err)
		}
		log.Printf("postgres schema migrated")
	case api.BackendDynamoDB:
		client, err := platformdynamo.Connect(ctx, platformdynamo.Settings{
			Region:          cfg.AWSRegion,
			Endpoint:        cfg.DynamoDBEndpoint,
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		})
		if err != nil {
			log.Fatalf("failed to connect to dynamodb: %v", err)
		}
		if err := platformdynamo.EnsureTable(ctx, client, cfg.WorkOrdersTable, logger); err != nil {
			log.Fatalf("failed to ensure dynamodb table: %v", err)
		}
		log.Printf("dynamodb table %s ready", cfg.WorkOrdersTable)
	default:
		log.Printf("store backend %s needs no migration", cfg.StoreBackend)
	}
}
