package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/lumemarkets/lumebot/internal/blob/s3"
	"github.com/lumemarkets/lumebot/internal/bot"
	"github.com/lumemarkets/lumebot/internal/cache/redis"
	"github.com/lumemarkets/lumebot/internal/chain"
	"github.com/lumemarkets/lumebot/internal/config"
	"github.com/lumemarkets/lumebot/internal/crypto"
	"github.com/lumemarkets/lumebot/internal/domain"
	"github.com/lumemarkets/lumebot/internal/notify"
	"github.com/lumemarkets/lumebot/internal/order"
	"github.com/lumemarkets/lumebot/internal/platform/lume"
	"github.com/lumemarkets/lumebot/internal/store/postgres"
)

// Dependencies bundles everything the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	API    *lume.Client
	Signer *crypto.Signer
	Trader *bot.Trader
	Mids   *bot.BookMids

	// ProxyWallet is the resolved funding wallet address.
	ProxyWallet string

	// Optional, nil when the backing service is disabled.
	OrderStore  domain.OrderStore
	FillStore   domain.FillStore
	MidCache    domain.MidCache
	LockManager domain.LockManager
	Archiver    *s3blob.FillArchiver
	ChainExec   *chain.Executor
	Notifier    *notify.Notifier
}

// needsChain reports whether the mode submits on-chain transactions.
func needsChain(mode string, cfg *config.Config) bool {
	if !cfg.Merge.Enabled {
		return false
	}
	return mode == "merge" || mode == "full"
}

// Wire constructs the concrete dependency implementations from the given
// configuration and returns them with a cleanup function for shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// -- Signer --
	key, err := crypto.LoadKey(crypto.KeyConfig{
		RawPrivateKey:    cfg.Wallet.PrivateKey,
		EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
		KeyPassword:      cfg.Wallet.KeyPassword,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("wire: load key: %w", err)
	}
	signer, err := crypto.NewSigner(key, cfg.Lume.ChainID)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: signer: %w", err)
	}
	deps.Signer = signer

	// -- Exchange API --
	deps.API = lume.NewClient(cfg.Lume.APIURL, logger)

	proxy := cfg.Wallet.ProxyWallet
	if proxy == "" {
		proxy, err = deps.API.FetchProxyWallet(ctx, signer.Address().Hex())
		if err != nil {
			return nil, nil, fmt.Errorf("wire: resolve proxy wallet: %w", err)
		}
	}
	deps.ProxyWallet = proxy

	// -- PostgreSQL journals --
	if cfg.Postgres.Enabled {
		pool, err := postgres.Connect(ctx, cfg.Postgres.ConnString(),
			cfg.Postgres.PoolMaxConns, cfg.Postgres.PoolMinConns)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pool.Close)

		if cfg.Postgres.RunMigrations {
			if err := postgres.Migrate(ctx, pool); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.OrderStore = postgres.NewOrderStore(pool)
		deps.FillStore = postgres.NewFillStore(pool)
	}

	// -- Redis --
	if cfg.Redis.Enabled {
		rdb, err := redis.Connect(ctx, redis.Config{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = rdb.Close() })

		deps.MidCache = redis.NewMidCache(rdb)
		deps.LockManager = redis.NewLockManager(rdb)
	}

	// -- S3 fill archive --
	if cfg.S3.Enabled && deps.FillStore != nil {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Archiver = s3blob.NewFillArchiver(
			s3Client, deps.FillStore, cfg.S3.FlushInterval.Duration, "fills", logger)
	}

	// -- Notifications --
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) > 0 {
		deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)
	}

	// -- Chain executor --
	if needsChain(cfg.Mode, cfg) {
		exec, err := chain.NewExecutor(chain.Config{
			RPCURL:          cfg.Chain.RPCURL,
			CTFAddress:      cfg.Chain.CTFAddress,
			NegRiskAdapter:  cfg.Chain.NegRiskAdapter,
			CollateralToken: cfg.Chain.CollateralToken,
			GasLimit:        cfg.Chain.GasLimit,
		}, signer, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: chain executor: %w", err)
		}
		closers = append(closers, exec.Close)
		deps.ChainExec = exec
	}

	// -- Trading --
	builder := order.NewBuilder(signer, cfg.Lume.FeeRateBps, cfg.Lume.SignatureType)
	deps.Trader = bot.NewTrader(deps.API, builder,
		bot.Wallets{Proxy: proxy, EOA: signer.Address().Hex()},
		bot.Exchanges{CTF: cfg.Lume.CTFExchangeAddress, NegRisk: cfg.Lume.NegRiskExchangeAddress},
		deps.OrderStore, deps.Notifier, logger)
	deps.Mids = bot.NewBookMids(deps.API, deps.MidCache, logger)

	return deps, cleanup, nil
}
