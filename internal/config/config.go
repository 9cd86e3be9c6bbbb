package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	// LedgerRPC talks to a Solana cluster over JSON-RPC.
	LedgerRPC = "rpc"
	// LedgerMemory runs against the in-process ledger, for offline use.
	LedgerMemory = "memory"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string        `envconfig:"APP_NAME" default:"MemoChat"`
	AppEnv         string        `envconfig:"APP_ENV" default:"development"`
	Port           string        `envconfig:"PORT" default:"8080"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat      string        `envconfig:"LOG_FORMAT" default:"json"`
	DatabaseURL    string        `envconfig:"DATABASE_URL"`
	RedisURL       string        `envconfig:"REDIS_URL"`
	ShutdownPeriod time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
	SendRateLimit  int           `envconfig:"SEND_RATE_LIMIT" default:"20"`

	LedgerBackend   string `envconfig:"LEDGER_BACKEND" default:"rpc"`
	SolanaRPCURL    string `envconfig:"SOLANA_RPC_URL" default:"https://api.devnet.solana.com"`
	SolanaCluster   string `envconfig:"SOLANA_CLUSTER" default:"devnet"`
	RPCRateLimit    int    `envconfig:"SOLANA_RPC_RATE_LIMIT" default:"5"`
	ExplorerBaseURL string `envconfig:"EXPLORER_BASE_URL" default:"https://explorer.solana.com"`

	// Either SenderSecretKey or IdentityName (with IdentityPassphrase) selects the sender.
	SenderSecretKey    string `envconfig:"SENDER_SECRET_KEY"`
	IdentityName       string `envconfig:"IDENTITY_NAME"`
	IdentityPassphrase string `envconfig:"IDENTITY_PASSPHRASE"`
	RecipientAddress   string `envconfig:"RECIPIENT_ADDRESS"`

	FundingPolicy    string `envconfig:"FUNDING_POLICY" default:"startup"`
	FundingThreshold uint64 `envconfig:"FUNDING_THRESHOLD_LAMPORTS" default:"10000000"`
	FundingTopUp     uint64 `envconfig:"FUNDING_TOP_UP_LAMPORTS" default:"1000000000"`
}

// Load reads an optional .env file, then the environment, and validates the result.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LedgerBackend = strings.ToLower(cfg.LedgerBackend)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []error

	if c.SenderSecretKey == "" && c.IdentityName == "" {
		errs = append(errs, errors.New("SENDER_SECRET_KEY or IDENTITY_NAME must be set"))
	}
	if c.SenderSecretKey != "" && c.IdentityName != "" {
		errs = append(errs, errors.New("SENDER_SECRET_KEY and IDENTITY_NAME are mutually exclusive"))
	}
	if c.IdentityName != "" {
		if c.IdentityPassphrase == "" {
			errs = append(errs, errors.New("IDENTITY_PASSPHRASE must be set with IDENTITY_NAME"))
		}
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL must be set with IDENTITY_NAME"))
		}
	}
	if c.RecipientAddress == "" {
		errs = append(errs, errors.New("RECIPIENT_ADDRESS must be set"))
	}

	switch c.LedgerBackend {
	case LedgerRPC, LedgerMemory:
	default:
		errs = append(errs, fmt.Errorf("invalid LEDGER_BACKEND %q", c.LedgerBackend))
	}
	switch c.FundingPolicy {
	case "startup", "before_send":
	default:
		errs = append(errs, fmt.Errorf("invalid FUNDING_POLICY %q", c.FundingPolicy))
	}
	if c.FundingTopUp == 0 {
		errs = append(errs, errors.New("FUNDING_TOP_UP_LAMPORTS must be positive"))
	}

	if c.IsProduction() {
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL must be set in production"))
		}
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL must be set in production"))
		}
		if c.LedgerBackend == LedgerMemory {
			errs = append(errs, errors.New("LEDGER_BACKEND=memory is not allowed in production"))
		}
	}

	return errors.Join(errs...)
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c Config) IsProduction() bool {
	switch strings.ToLower(c.AppEnv) {
	case "prod", "production":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}
