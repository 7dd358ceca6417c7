// Package container wires the application graph with samber/do.
package container

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jaevor/go-nanoid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/linkrelay/linkrelay/internal/analytics"
	analyticsstore "github.com/linkrelay/linkrelay/internal/analytics/store"
	"github.com/linkrelay/linkrelay/internal/bot"
	"github.com/linkrelay/linkrelay/internal/credentials"
	"github.com/linkrelay/linkrelay/internal/handlers"
	"github.com/linkrelay/linkrelay/internal/messaging"
	"github.com/linkrelay/linkrelay/internal/metrics"
	"github.com/linkrelay/linkrelay/internal/ratelimit"
	"github.com/linkrelay/linkrelay/internal/rewrite"
	"github.com/linkrelay/linkrelay/internal/shorten"
	"github.com/linkrelay/linkrelay/internal/store"
	"github.com/linkrelay/linkrelay/internal/telegram"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
)

const analyticsConsumerGroup = "linkrelay-analytics"

type Options struct {
	Port            int    `default:"8888" help:"Port for the webhook and metrics server" short:"p"`
	Mode            string `default:"polling" help:"Update delivery mode: polling or webhook" short:"m"`
	TelegramToken   string `help:"Telegram bot token"`
	TelegramBaseURL string `default:"https://api.telegram.org" help:"Telegram Bot API base URL"`
	WebhookSecret   string `help:"Secret token required on webhook requests"`
	APIBaseURL      string `default:"https://gplinks.com" help:"Shortening service base URL"`
	ShortDomain     string `help:"Domain marking links as already shortened (defaults to the service host)"`
	RequestTimeout  int    `default:"10000" help:"Shortening request timeout in milliseconds"`
	MaxRetries      int    `default:"3" help:"Retries per URL after the first attempt"`
	AliasLength     int    `default:"8" help:"Length of generated aliases"`
	StoreBackend    string `default:"redis" help:"Credential store backend: redis, postgres or memory"`
	RedisAddr       string `default:"localhost:6379" help:"Redis server address" short:"r"`
	PostgresDSN     string `help:"Postgres connection string (store-backend postgres)"`
	LogFormat       string `default:"console" help:"Log format: console or json"`
}

// SkipDomain returns the configured marker for already-shortened links,
// falling back to the host of the shortening service base URL.
func (o *Options) SkipDomain() string {
	if o.ShortDomain != "" {
		return strings.ToLower(o.ShortDomain)
	}

	if u, err := url.Parse(o.APIBaseURL); err == nil && u.Host != "" {
		return strings.ToLower(u.Host)
	}

	return ""
}

// LoggerPackage provides the zap logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		options := do.MustInvoke[*Options](i)

		if options.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the shared Redis client.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*redis.Client, error) {
		options := do.MustInvoke[*Options](i)

		return redis.NewClient(&redis.Options{Addr: options.RedisAddr}), nil
	})
}

// PostgresPackage provides the pgx connection pool. Only invoked when the
// credential store backend is postgres.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*pgxpool.Pool, error) {
		options := do.MustInvoke[*Options](i)

		pool, err := pgxpool.New(context.Background(), options.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		return pool, nil
	})
}

// StorePackage provides the credential store selected by StoreBackend.
func StorePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (credentials.Store, error) {
		options := do.MustInvoke[*Options](i)

		switch options.StoreBackend {
		case "redis":
			return store.NewRedisStore(do.MustInvoke[*redis.Client](i)), nil
		case "postgres":
			return store.NewPostgresStore(do.MustInvoke[*pgxpool.Pool](i)), nil
		case "memory":
			return store.NewMemoryStore(), nil
		default:
			return nil, fmt.Errorf("unknown store backend %q", options.StoreBackend)
		}
	})
}

// MetricsPackage provides the Prometheus registry wrapper.
func MetricsPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*metrics.Metrics, error) {
		return metrics.New(), nil
	})
}

// RateLimitPackage provides the per-user limiter backed by the in-memory
// sliding window store.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (ratelimit.Limiter, error) {
		return ratelimit.NewPolicyLimiter(store.NewRateLimitMemoryStore(), ratelimit.DefaultPolicy()), nil
	})
}

// PublisherGroupPackage provides the Redis-stream event publisher.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		redisClient := do.MustInvoke[*redis.Client](i)

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			return nil, fmt.Errorf("create publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
}

// ShortenerPackage provides the remote client, the retrier and the rewriter.
func ShortenerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*shorten.Client, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		timeout := time.Duration(options.RequestTimeout) * time.Millisecond

		return shorten.NewClient(options.APIBaseURL, nil, timeout, logger), nil
	})

	do.Provide(injector, func(i *do.Injector) (*bot.InstrumentedShortener, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		client := do.MustInvoke[*shorten.Client](i)
		group := do.MustInvoke[*messaging.PublisherGroup](i)
		m := do.MustInvoke[*metrics.Metrics](i)

		retrier := shorten.NewRetrier(client, options.MaxRetries, shorten.DefaultRetryDelay, logger).
			WithFailureObserver(func(cause shorten.Cause) {
				m.RemoteFailuresTotal.WithLabelValues(string(cause)).Inc()
			})
		publish := messaging.NewPublishFunc[analytics.LinkShortenedEvent](group.Publisher(), analytics.TopicLinkShortened)

		return bot.NewInstrumentedShortener(retrier, publish, m, logger), nil
	})

	do.Provide(injector, func(i *do.Injector) (*rewrite.Rewriter, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		shortener := do.MustInvoke[*bot.InstrumentedShortener](i)

		return rewrite.NewRewriter(shortener, options.SkipDomain(), logger), nil
	})
}

// BotPackage provides the event handler behind both transports.
func BotPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*bot.Handler, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		creds := do.MustInvoke[credentials.Store](i)
		rewriter := do.MustInvoke[*rewrite.Rewriter](i)
		shortener := do.MustInvoke[*bot.InstrumentedShortener](i)
		client := do.MustInvoke[*shorten.Client](i)
		limiter := do.MustInvoke[ratelimit.Limiter](i)
		group := do.MustInvoke[*messaging.PublisherGroup](i)
		m := do.MustInvoke[*metrics.Metrics](i)

		generateAlias, err := nanoid.Standard(options.AliasLength)
		if err != nil {
			return nil, fmt.Errorf("create alias generator: %w", err)
		}

		publishRewritten := messaging.NewPublishFunc[analytics.MessageRewrittenEvent](group.Publisher(), analytics.TopicMessageRewritten)

		return bot.NewHandler(creds, rewriter, shortener, client, limiter, generateAlias, publishRewritten, m, logger), nil
	})
}

// TelegramPackage provides the Bot API client and the long-poll consumer.
func TelegramPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*telegram.Client, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		return telegram.NewClient(options.TelegramToken, options.TelegramBaseURL, nil, logger), nil
	})

	do.Provide(injector, func(i *do.Injector) (*telegram.Poller, error) {
		client := do.MustInvoke[*telegram.Client](i)
		handler := do.MustInvoke[*bot.Handler](i)
		logger := do.MustInvoke[*zap.Logger](i)

		return telegram.NewPoller(client, handler, logger), nil
	})
}

// HTTPPackage provides the chi router and the huma API with the webhook and
// metrics endpoints mounted.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)
		handler := do.MustInvoke[*bot.Handler](i)
		client := do.MustInvoke[*telegram.Client](i)
		m := do.MustInvoke[*metrics.Metrics](i)

		api := humachi.New(router, huma.DefaultConfig("LinkRelay", "1.0.0"))

		webhook := handlers.NewWebhookHandler(handler, client, options.WebhookSecret, logger)
		handlers.RegisterRoutes(api, webhook)

		router.Handle("/metrics", m.Handler())

		return api, nil
	})
}

// ConsumerGroupPackage provides the analytics consumer group for the
// consumer binary.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		redisClient := do.MustInvoke[*redis.Client](i)

		subscriber, err := redisstream.NewSubscriber(
			redisstream.SubscriberConfig{
				Client:        redisClient,
				ConsumerGroup: analyticsConsumerGroup,
			},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			return nil, fmt.Errorf("create subscriber: %w", err)
		}

		var statsStore analytics.Store = store.NewStatsRedisStore(redisClient)
		if options.StoreBackend == "memory" {
			statsStore = analyticsstore.NewNoopStore()
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(analytics.NewConsumer(subscriber, statsStore, logger))

		return group, nil
	})
}
