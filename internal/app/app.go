package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/internal/ai"
	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/internal/bus"
	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/internal/cache"
	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/internal/config"
	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/internal/market"
	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/internal/rest"
	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/internal/ws"
	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"
)

// App centralizes dependency wiring for the trading platform backend.
type App struct {
	cfg    config.Config
	logger *log.Logger

	cache       *cache.Cache
	provisioner *bus.Provisioner
	publisher   *bus.Publisher
	consumers   *bus.ConsumerRegistry
	ai          *ai.Service
	streamer    *market.Streamer
	hub         *ws.Hub

	httpServer *http.Server
}

// New builds an App with all required dependencies.
func New(cfg config.Config, logger *log.Logger) (*App, error) {
	store, err := cache.New(cfg.RedisURL, logger)
	if err != nil {
		return nil, fmt.Errorf("build cache: %w", err)
	}

	publisher := bus.NewPublisher(cfg.KafkaBrokers, cfg.KafkaClientID, logger)
	aiSvc := ai.New(cfg.OpenAIAPIKey, logger)
	streamer := market.NewStreamer(store, publisher, logger)
	hub := ws.NewHub(store, logger)

	return &App{
		cfg:         cfg,
		logger:      logger,
		cache:       store,
		provisioner: bus.NewProvisioner(cfg.KafkaBrokers),
		publisher:   publisher,
		ai:          aiSvc,
		streamer:    streamer,
		hub:         hub,
	}, nil
}

// Run starts background services and blocks until ctx cancellation or
// fatal error. Topics are provisioned before the publisher accepts
// traffic.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.cleanup()

	if err := a.cache.Open(ctx); err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	if err := a.provisioner.EnsureTopics(ctx); err != nil {
		return fmt.Errorf("ensure topics: %w", err)
	}
	a.publisher.Open()

	a.consumers = bus.NewConsumerRegistry(ctx, a.cfg.KafkaBrokers, a.logger)
	if err := a.subscribeSentimentIndexer(); err != nil {
		return fmt.Errorf("subscribe sentiment indexer: %w", err)
	}

	if err := a.hub.Start(ctx); err != nil {
		return fmt.Errorf("start streaming hub: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.streamer.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("price streamer: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.runHTTPServer(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return ctx.Err()
}

// subscribeSentimentIndexer keeps the per-symbol sentiment cache fresh
// from the news-sentiment topic.
func (a *App) subscribeSentimentIndexer() error {
	return a.consumers.Subscribe("sentiment-indexer", []string{bus.TopicNewsSentiment}, a.indexSentiment)
}

func (a *App) indexSentiment(ctx context.Context, topic string, msg kafka.Message) error {
	evt := bus.ParseMessage[bus.SentimentEvent](msg)
	if evt == nil || evt.Symbol == "" {
		return nil
	}

	analysis := ai.SentimentAnalysis{
		Score:      evt.Score,
		Confidence: evt.Confidence,
		Summary:    evt.Title,
	}
	return a.cache.Set(ctx, cache.KeySentiment+evt.Symbol, analysis, cache.Options{TTL: 5 * time.Minute})
}

func (a *App) runHTTPServer(ctx context.Context) error {
	r, srv := rest.NewServer(a.cfg, time.Now())
	a.httpServer = srv

	r.Use(rest.RequestLogger(a.logger))

	limiter := a.cache.Limiter()
	api := r.Group("/api", rest.RateLimit(limiter, a.cfg.RateLimitMax, a.cfg.RateLimitWindow))

	rest.NewAuthController(a.cache).RegisterRoutes(api.Group("/auth"))
	rest.NewCryptoController(a.cache, a.ai, a.publisher, market.Symbols(), a.logger).RegisterRoutes(api.Group("/crypto"))
	rest.NewPortfolioController(a.cache, a.publisher).RegisterRoutes(api.Group("/portfolio"))
	rest.NewAlertController(a.publisher).RegisterRoutes(api.Group("/alerts"))
	rest.NewSentimentController(a.ai, a.cache).RegisterRoutes(api.Group("/sentiment"))
	rest.NewNewsController(a.ai, a.cache).RegisterRoutes(api.Group("/news"))

	r.GET("/ws", func(c *gin.Context) {
		a.hub.Serve(uuid.NewString(), c.Writer, c.Request)
	})

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Printf("HTTP server started at %s", srv.Addr)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	// App context shutdown:
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		err := <-serverErr
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	// HTTP server error:
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// cleanup tears services down in dependency order: consumer groups first,
// then the publisher, then the cache connections.
func (a *App) cleanup() {
	if a.consumers != nil {
		if err := a.consumers.Close(); err != nil {
			a.logger.Printf("error closing consumer groups: %v", err)
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Printf("error closing Kafka publisher: %v", err)
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Printf("error closing Redis cache: %v", err)
		}
	}
}
