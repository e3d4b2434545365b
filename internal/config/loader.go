package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies LUMEBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known LUMEBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Wallet.PrivateKey, "LUMEBOT_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.PrivateKey, "PRIVATE_KEY") // compatibility alias
	setStr(&cfg.Wallet.EncryptedKeyPath, "LUMEBOT_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "LUMEBOT_WALLET_KEY_PASSWORD")
	setStr(&cfg.Wallet.ProxyWallet, "LUMEBOT_WALLET_PROXY_WALLET")

	setStr(&cfg.Lume.APIURL, "LUMEBOT_LUME_API_URL")
	setStr(&cfg.Lume.WSURL, "LUMEBOT_LUME_WS_URL")
	setInt(&cfg.Lume.ChainID, "LUMEBOT_LUME_CHAIN_ID")
	setStr(&cfg.Lume.CTFExchangeAddress, "LUMEBOT_LUME_CTF_EXCHANGE_ADDRESS")
	setStr(&cfg.Lume.NegRiskExchangeAddress, "LUMEBOT_LUME_NEGRISK_EXCHANGE_ADDRESS")
	setInt(&cfg.Lume.FeeRateBps, "LUMEBOT_LUME_FEE_RATE_BPS")
	setInt(&cfg.Lume.SignatureType, "LUMEBOT_LUME_SIGNATURE_TYPE")

	setStr(&cfg.Chain.RPCURL, "LUMEBOT_CHAIN_RPC_URL")
	setStr(&cfg.Chain.CTFAddress, "LUMEBOT_CHAIN_CTF_ADDRESS")
	setStr(&cfg.Chain.NegRiskAdapter, "LUMEBOT_CHAIN_NEGRISK_ADAPTER")
	setStr(&cfg.Chain.CollateralToken, "LUMEBOT_CHAIN_COLLATERAL_TOKEN")

	setFloat(&cfg.Maker.MidPrice, "LUMEBOT_MAKER_MID_PRICE")
	setInt(&cfg.Maker.SpreadBps, "LUMEBOT_MAKER_SPREAD_BPS")
	setInt(&cfg.Maker.NumLevels, "LUMEBOT_MAKER_NUM_LEVELS")
	setFloat(&cfg.Maker.CapitalYes, "LUMEBOT_MAKER_CAPITAL_YES")
	setFloat(&cfg.Maker.CapitalNo, "LUMEBOT_MAKER_CAPITAL_NO")
	setFloat(&cfg.Maker.MinOrderSize, "LUMEBOT_MAKER_MIN_ORDER_SIZE")
	if v := os.Getenv("LUMEBOT_MAKER_MARKETS"); v != "" {
		cfg.Maker.Markets = splitCSV(v)
	}

	setBool(&cfg.Hedge.Enabled, "LUMEBOT_HEDGE_ENABLED")
	setFloat(&cfg.Hedge.Spread, "LUMEBOT_HEDGE_SPREAD")
	setFloat(&cfg.Hedge.DefaultMid, "LUMEBOT_HEDGE_DEFAULT_MID")
	setFloat(&cfg.Hedge.MinSize, "LUMEBOT_HEDGE_MIN_SIZE")

	setBool(&cfg.Merge.Enabled, "LUMEBOT_MERGE_ENABLED")
	setFloat(&cfg.Merge.MinShares, "LUMEBOT_MERGE_MIN_SHARES")

	setBool(&cfg.Postgres.Enabled, "LUMEBOT_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "LUMEBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "LUMEBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "LUMEBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "LUMEBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "LUMEBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "LUMEBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "LUMEBOT_POSTGRES_SSLMODE")
	setBool(&cfg.Postgres.RunMigrations, "LUMEBOT_POSTGRES_RUN_MIGRATIONS")

	setBool(&cfg.Redis.Enabled, "LUMEBOT_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "LUMEBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "LUMEBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "LUMEBOT_REDIS_DB")
	setBool(&cfg.Redis.TLSEnabled, "LUMEBOT_REDIS_TLS_ENABLED")

	setBool(&cfg.S3.Enabled, "LUMEBOT_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "LUMEBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "LUMEBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "LUMEBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "LUMEBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "LUMEBOT_S3_SECRET_KEY")

	setStr(&cfg.Notify.TelegramToken, "LUMEBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "LUMEBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "LUMEBOT_NOTIFY_DISCORD_WEBHOOK_URL")

	setStr(&cfg.Mode, "LUMEBOT_MODE")
	setStr(&cfg.LogLevel, "LUMEBOT_LOG_LEVEL")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
