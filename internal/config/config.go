// Package config defines the top-level configuration for the lume market
// maker and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by LUMEBOT_* environment
// variables. Core components never read the environment themselves; the
// loaded Config is passed down explicitly.
type Config struct {
	Wallet   WalletConfig   `toml:"wallet"`
	Lume     LumeConfig     `toml:"lume"`
	Chain    ChainConfig    `toml:"chain"`
	Maker    MakerConfig    `toml:"maker"`
	Hedge    HedgeConfig    `toml:"hedge"`
	Merge    MergeConfig    `toml:"merge"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// WalletConfig holds Ethereum wallet credentials.
type WalletConfig struct {
	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`

	// ProxyWallet is the maker address orders are placed for. When empty it
	// is fetched from the API at startup.
	ProxyWallet string `toml:"proxy_wallet"`
}

// LumeConfig holds Lume GraphQL API endpoints and exchange parameters.
type LumeConfig struct {
	APIURL                 string `toml:"api_url"`
	WSURL                  string `toml:"ws_url"`
	ChainID                int    `toml:"chain_id"`
	CTFExchangeAddress     string `toml:"ctf_exchange_address"`
	NegRiskExchangeAddress string `toml:"negrisk_exchange_address"`
	FeeRateBps             int    `toml:"fee_rate_bps"`
	SignatureType          int    `toml:"signature_type"`
}

// ChainConfig holds on-chain contract addresses for collateral merging.
type ChainConfig struct {
	RPCURL          string `toml:"rpc_url"`
	CTFAddress      string `toml:"ctf_address"`
	NegRiskAdapter  string `toml:"negrisk_adapter"`
	CollateralToken string `toml:"collateral_token"`
	GasLimit        uint64 `toml:"gas_limit"`
}

// MakerConfig holds ladder market-making parameters.
type MakerConfig struct {
	// Markets lists the market IDs to quote. Empty means every ACTIVE market.
	Markets []string `toml:"markets"`

	MidPrice     float64  `toml:"mid_price"`
	SpreadBps    int      `toml:"spread_bps"`
	NumLevels    int      `toml:"num_levels"`
	CapitalYes   float64  `toml:"capital_yes"`
	CapitalNo    float64  `toml:"capital_no"`
	MinOrderSize float64  `toml:"min_order_size"`
	PollInterval duration `toml:"poll_interval"`
}

// HedgeConfig holds fill-triggered hedging parameters.
type HedgeConfig struct {
	Enabled    bool    `toml:"enabled"`
	Spread     float64 `toml:"spread"`      // margin below breakeven for the opposing leg
	DefaultMid float64 `toml:"default_mid"` // fallback when the opposing book is empty
	MinSize    float64 `toml:"min_size"`    // minimum hedge order size in shares
}

// MergeConfig holds collateral-merge parameters.
type MergeConfig struct {
	Enabled       bool     `toml:"enabled"`
	CheckInterval duration `toml:"check_interval"`
	MinShares     float64  `toml:"min_shares"` // minimum mergeable pair size in shares
}

// PostgresConfig holds PostgreSQL connection parameters for the order and
// fill journals.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// ConnString assembles the pgx connection string. An explicit dsn wins
// over the individual fields.
func (p PostgresConfig) ConnString() string {
	if strings.TrimSpace(p.DSN) != "" {
		return p.DSN
	}

	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	port := p.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, port, p.Database, sslMode)
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for the fill
// archive.
type S3Config struct {
	Enabled        bool     `toml:"enabled"`
	Endpoint       string   `toml:"endpoint"`
	Region         string   `toml:"region"`
	Bucket         string   `toml:"bucket"`
	AccessKey      string   `toml:"access_key"`
	SecretKey      string   `toml:"secret_key"`
	UseSSL         bool     `toml:"use_ssl"`
	ForcePathStyle bool     `toml:"force_path_style"`
	FlushInterval  duration `toml:"flush_interval"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Lume: LumeConfig{
			APIURL:                 "https://server-graphql-dev.up.railway.app/query",
			WSURL:                  "wss://server-graphql-dev.up.railway.app/query",
			ChainID:                10143,
			CTFExchangeAddress:     "0x4fEa4E2B6B90f8940ff9A5C7dd75c1299584522D",
			NegRiskExchangeAddress: "0x2cCE4F55DAcab307b48D4d8C1139F1425cCF6759",
			FeeRateBps:             0,
			SignatureType:          2,
		},
		Chain: ChainConfig{
			GasLimit: 500_000,
		},
		Maker: MakerConfig{
			MidPrice:     0.50,
			SpreadBps:    200,
			NumLevels:    5,
			CapitalYes:   500.0,
			CapitalNo:    500.0,
			MinOrderSize: 5.0,
			PollInterval: duration{30 * time.Second},
		},
		Hedge: HedgeConfig{
			Enabled:    true,
			Spread:     0.02,
			DefaultMid: 0.50,
			MinSize:    5.0,
		},
		Merge: MergeConfig{
			Enabled:       false,
			CheckInterval: duration{5 * time.Minute},
			MinShares:     10.0,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "lumebot",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "lumebot-fills",
			ForcePathStyle: true,
			FlushInterval:  duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"hedge_placed", "merge_executed", "order_failed", "feed_down"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"populate": true,
	"hedge":    true,
	"merge":    true,
	"full":     true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and
// returns a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: populate, hedge, merge, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Wallet.PrivateKey == "" && c.Wallet.EncryptedKeyPath == "" {
		errs = append(errs, "wallet: either private_key or encrypted_key_path must be set")
	}
	if c.Wallet.EncryptedKeyPath != "" && c.Wallet.KeyPassword == "" {
		errs = append(errs, "wallet: key_password is required when encrypted_key_path is set")
	}

	if c.Lume.APIURL == "" {
		errs = append(errs, "lume: api_url must not be empty")
	}
	if c.Lume.ChainID <= 0 {
		errs = append(errs, "lume: chain_id must be positive")
	}
	if c.Lume.CTFExchangeAddress == "" {
		errs = append(errs, "lume: ctf_exchange_address must not be empty")
	}
	if c.Lume.SignatureType < 0 || c.Lume.SignatureType > 2 {
		errs = append(errs, fmt.Sprintf("lume: signature_type must be 0 (EOA), 1 (proxy), or 2 (Safe), got %d", c.Lume.SignatureType))
	}
	if c.Lume.FeeRateBps < 0 {
		errs = append(errs, "lume: fee_rate_bps must not be negative")
	}

	if c.Maker.MidPrice < 0.01 || c.Maker.MidPrice > 0.99 {
		errs = append(errs, fmt.Sprintf("maker: mid_price must be within [0.01, 0.99], got %v", c.Maker.MidPrice))
	}
	if c.Maker.SpreadBps <= 0 {
		errs = append(errs, "maker: spread_bps must be > 0")
	}
	if c.Maker.NumLevels < 1 {
		errs = append(errs, "maker: num_levels must be >= 1")
	}
	if c.Maker.CapitalYes < 0 || c.Maker.CapitalNo < 0 {
		errs = append(errs, "maker: capital must not be negative")
	}
	if c.Maker.MinOrderSize <= 0 {
		errs = append(errs, "maker: min_order_size must be > 0")
	}

	if c.Hedge.Enabled {
		if c.Hedge.Spread < 0 || c.Hedge.Spread >= 1 {
			errs = append(errs, fmt.Sprintf("hedge: spread must be within [0, 1), got %v", c.Hedge.Spread))
		}
		if c.Hedge.DefaultMid < 0.01 || c.Hedge.DefaultMid > 0.99 {
			errs = append(errs, fmt.Sprintf("hedge: default_mid must be within [0.01, 0.99], got %v", c.Hedge.DefaultMid))
		}
		if c.Hedge.MinSize <= 0 {
			errs = append(errs, "hedge: min_size must be > 0")
		}
	}

	if c.Merge.Enabled {
		if c.Chain.RPCURL == "" {
			errs = append(errs, "chain: rpc_url is required when merge is enabled")
		}
		if c.Chain.CTFAddress == "" {
			errs = append(errs, "chain: ctf_address is required when merge is enabled")
		}
		if c.Chain.CollateralToken == "" {
			errs = append(errs, "chain: collateral_token is required when merge is enabled")
		}
		if c.Merge.MinShares <= 0 {
			errs = append(errs, "merge: min_shares must be > 0")
		}
	}

	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 || c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must be within [0, pool_max_conns]")
		}
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
