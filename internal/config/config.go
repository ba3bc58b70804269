package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	BackendWebflow  = "webflow"
	BackendAirtable = "airtable"
	BackendPostgres = "postgres"
)

type App struct {
	Config
	WebflowConfig
	AirtableConfig
}

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
}

type ServerConfig struct {
	Port                 int  `env:"SERVER_PORT,default=3000"`
	CORSAllowCredentials bool `env:"CORS_ALLOW_CREDENTIALS,default=false"`
}

// StoreConfig selects the Record Store backend. Timeout bounds every outbound call.
type StoreConfig struct {
	Backend string        `env:"STORE_BACKEND,default=webflow"`
	Timeout time.Duration `env:"STORE_TIMEOUT,default=10s"`
}

type WebflowConfig struct {
	WebflowAPIBase string `env:"WEBFLOW_API_BASE,default=https://api.webflow.com/v2"`
	WebflowToken   string `env:"WEBFLOW_TOKEN"`
	CollectionID   string `env:"COLLECTION_ID"`
}

type AirtableConfig struct {
	AirtableAPIBase string `env:"AIRTABLE_API_BASE,default=https://api.airtable.com/v0"`
	AirtableToken   string `env:"AIRTABLE_TOKEN"`
	AirtableBaseID  string `env:"AIRTABLE_BASE_ID"`
	AirtableTable   string `env:"AIRTABLE_TABLE,default=Submissions"`
}

type DatabaseConfig struct {
	Host     string `env:"DB_HOST"`
	Port     int    `env:"DB_PORT,default=5432"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME"`
}

// RedisConfig enables the in-flight email claim when Addr is set.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,default=0"`
	ClaimTTL time.Duration `env:"EMAIL_CLAIM_TTL,default=30s"`
}

// ReadEnvironment loads an optional .env file and then the process environment.
func ReadEnvironment(ctx context.Context) (*App, error) {
	_ = godotenv.Load()
	return process(ctx, envconfig.OsLookuper())
}

func process(ctx context.Context, lookuper envconfig.Lookuper) (*App, error) {
	var app App
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &app,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("error processing environment variables: %w", err)
	}

	if err := app.Validate(); err != nil {
		return nil, err
	}
	return &app, nil
}

// Validate checks the values the selected backend cannot run without.
func (a *App) Validate() error {
	switch a.Store.Backend {
	case BackendWebflow:
		if a.WebflowToken == "" || a.CollectionID == "" {
			return fmt.Errorf("webflow backend requires WEBFLOW_TOKEN and COLLECTION_ID")
		}
	case BackendAirtable:
		if a.AirtableToken == "" || a.AirtableBaseID == "" {
			return fmt.Errorf("airtable backend requires AIRTABLE_TOKEN and AIRTABLE_BASE_ID")
		}
	case BackendPostgres:
		if a.Database.Host == "" || a.Database.User == "" || a.Database.Name == "" {
			return fmt.Errorf("postgres backend requires DB_HOST, DB_USER and DB_NAME")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", a.Store.Backend)
	}

	if a.Server.Port <= 0 {
		return fmt.Errorf("invalid SERVER_PORT %d", a.Server.Port)
	}
	return nil
}

// RedisEnabled reports whether the email claim should be backed by Redis.
func (a *App) RedisEnabled() bool {
	return a.Redis.Addr != ""
}
