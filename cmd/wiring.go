package cmd

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/termdex/internal/catalog"
	"github.com/JakeFAU/termdex/internal/clock"
	"github.com/JakeFAU/termdex/internal/config"
	collyfetcher "github.com/JakeFAU/termdex/internal/fetcher/colly"
	"github.com/JakeFAU/termdex/internal/id/uuid"
	"github.com/JakeFAU/termdex/internal/ingest"
	"github.com/JakeFAU/termdex/internal/policy/ratelimit"
	memorypublisher "github.com/JakeFAU/termdex/internal/publisher/memory"
	pubsubpublisher "github.com/JakeFAU/termdex/internal/publisher/pubsub"
	"github.com/JakeFAU/termdex/internal/sprites"
	gcssprites "github.com/JakeFAU/termdex/internal/sprites/gcs"
	localsprites "github.com/JakeFAU/termdex/internal/sprites/local"
	"github.com/JakeFAU/termdex/internal/storage/postgres"
	memoryvisited "github.com/JakeFAU/termdex/internal/visited/memory"
	redisvisited "github.com/JakeFAU/termdex/internal/visited/redis"
	"github.com/JakeFAU/termdex/internal/worker"
)

// closers releases whatever the builders opened, last opened first.
type closers []func()

func (c *closers) add(fn func()) { *c = append(*c, fn) }

func (c closers) closeAll() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (*postgres.Store, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	store, err := postgres.NewStore(ctx, postgres.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store, nil
}

func buildSpriteReader(ctx context.Context, cfg config.SpritesConfig, cl *closers) (sprites.Reader, error) {
	switch cfg.Backend {
	case config.BackendLocal:
		store, err := localsprites.New(localsprites.Config{BaseDir: cfg.Dir})
		if err != nil {
			return nil, fmt.Errorf("init local sprites: %w", err)
		}
		return store, nil
	case config.BackendGCS:
		store, err := newGCSSprites(ctx, cfg, cl)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown sprites backend %q", cfg.Backend)
	}
}

func newGCSSprites(ctx context.Context, cfg config.SpritesConfig, cl *closers) (*gcssprites.Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	cl.add(func() { _ = client.Close() })
	store, err := gcssprites.New(client, gcssprites.Config{Bucket: cfg.Bucket, Prefix: cfg.Prefix})
	if err != nil {
		return nil, fmt.Errorf("init gcs sprites: %w", err)
	}
	return store, nil
}

func buildVisited(ctx context.Context, cfg config.VisitedConfig, logger *zap.Logger, cl *closers) (catalog.VisitedSet, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memoryvisited.New(), nil
	case config.BackendRedis:
		set, err := redisvisited.New(redisvisited.Config{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			Namespace: cfg.Namespace,
			TTL:       cfg.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("init redis visited set: %w", err)
		}
		cl.add(func() {
			if err := set.Close(); err != nil {
				logger.Warn("close redis visited set failed", zap.Error(err))
			}
		})
		if err := set.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return set, nil
	default:
		return nil, fmt.Errorf("unknown visited backend %q", cfg.Backend)
	}
}

func buildPublisher(ctx context.Context, cfg config.PublisherConfig, logger *zap.Logger, cl *closers) (catalog.Publisher, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memorypublisher.New(logger), nil
	case config.BackendPubSub:
		pub, err := pubsubpublisher.NewFromProject(ctx, cfg.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("init pubsub publisher: %w", err)
		}
		cl.add(func() {
			if err := pub.Close(); err != nil {
				logger.Warn("close pubsub publisher failed", zap.Error(err))
			}
		})
		return pub, nil
	default:
		return nil, fmt.Errorf("unknown publisher backend %q", cfg.Backend)
	}
}

// buildPipeline assembles an ingest pipeline around writer.
func buildPipeline(
	ctx context.Context,
	cfg config.Config,
	writer catalog.Writer,
	logger *zap.Logger,
	cl *closers,
) (*ingest.Pipeline, error) {
	if writer == nil {
		return nil, errors.New("writer is required")
	}
	reader, err := buildSpriteReader(ctx, cfg.Sprites, cl)
	if err != nil {
		return nil, err
	}
	visited, err := buildVisited(ctx, cfg.Visited, logger, cl)
	if err != nil {
		return nil, err
	}
	publisher, err := buildPublisher(ctx, cfg.Publisher, logger, cl)
	if err != nil {
		return nil, err
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.HTTP.Timeout,
		Tries:     cfg.HTTP.MaxTries,
	}, logger)

	pipeline, err := ingest.New(ingest.Config{
		FirstID:     cfg.Ingest.FirstID,
		LastID:      cfg.Ingest.LastID,
		URLTemplate: cfg.Ingest.URLTemplate,
		Workers:     cfg.Ingest.Workers,
		Worker: worker.Config{
			BaseDelay:    cfg.Ingest.BaseDelay,
			Jitter:       cfg.Ingest.Jitter,
			PollInterval: cfg.Ingest.PollInterval,
			IdlePolls:    cfg.Ingest.IdlePolls,
		},
		Policy:     catalog.Policy{StrictSprites: cfg.Ingest.StrictSprites},
		Topic:      cfg.Publisher.Topic,
		RunTimeout: cfg.Ingest.RunTimeout,
	}, ingest.Deps{
		Fetcher:   fetcher,
		Sprites:   sprites.NewSource(reader),
		Writer:    writer,
		Publisher: publisher,
		Visited:   visited,
		Limiter:   ratelimit.New(ratelimit.Config{RPS: cfg.RateLimit.RPS, Burst: cfg.RateLimit.Burst}),
		Clock:     clock.System{},
		IDs:       uuid.New(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init pipeline: %w", err)
	}
	return pipeline, nil
}
