package api

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"go.temporal.io/sdk/client"

	wodynamo "github.com/Apurer/go-gin-workorders/internal/domains/workorders/adapters/persistence/dynamodb"
	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/domain"
)

// Store backends selectable through STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
)

// Config carries environment-driven settings for the API and worker processes.
type Config struct {
	Port              string
	StoreBackend      string
	PostgresDSN       string
	DynamoDBEndpoint  string
	WorkOrdersTable   string
	AWSRegion         string
	TaxRate           decimal.Decimal
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
	NotifyWebhookURL  string
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:              envDefault("PORT", "8080"),
		StoreBackend:      strings.ToLower(strings.TrimSpace(os.Getenv("STORE_BACKEND"))),
		PostgresDSN:       strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		DynamoDBEndpoint:  strings.TrimSpace(os.Getenv("DYNAMODB_ENDPOINT")),
		WorkOrdersTable:   envDefault("WORK_ORDERS_TABLE", wodynamo.DefaultTableName),
		AWSRegion:         envDefault("AWS_REGION", "us-east-1"),
		TaxRate:           domain.DefaultTaxRate,
		TemporalAddress:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		NotifyWebhookURL:  strings.TrimSpace(os.Getenv("NOTIFY_WEBHOOK_URL")),
	}
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = BackendMemory
		if cfg.PostgresDSN != "" {
			cfg.StoreBackend = BackendPostgres
		}
	}
	switch cfg.StoreBackend {
	case BackendMemory, BackendDynamoDB:
	case BackendPostgres:
		if cfg.PostgresDSN == "" {
			return Config{}, fmt.Errorf("STORE_BACKEND=postgres requires POSTGRES_DSN")
		}
	default:
		return Config{}, fmt.Errorf("STORE_BACKEND must be memory, postgres or dynamodb, got %q", cfg.StoreBackend)
	}
	if raw := strings.TrimSpace(os.Getenv("TAX_RATE")); raw != "" {
		rate, err := decimal.NewFromString(raw)
		if err != nil || rate.IsNegative() {
			return Config{}, fmt.Errorf("TAX_RATE must be a non-negative decimal fraction such as 0.12")
		}
		cfg.TaxRate = rate
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
