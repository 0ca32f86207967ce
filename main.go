package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/HSouheill/catalog_backend/config"
	"github.com/HSouheill/catalog_backend/logger"
	"github.com/HSouheill/catalog_backend/middleware"
	"github.com/HSouheill/catalog_backend/repositories"
	"github.com/HSouheill/catalog_backend/routes"
	"github.com/HSouheill/catalog_backend/services"
	"github.com/HSouheill/catalog_backend/utils"
	"github.com/HSouheill/catalog_backend/websocket"
)

type stores struct {
	categories repositories.CategoryRepository
	attributes repositories.AttributeRepository
	optionSets repositories.OptionSetRepository
	tx         repositories.Transactor
	mongo      *mongo.Client
}

func main() {
	// Load .env file
	envErr := godotenv.Load()

	cfg := config.LoadEnv()
	log := logger.New(cfg.Log)
	if envErr != nil {
		log.Debug(".env file not found, using process environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open the catalog store")
	}
	if st.mongo != nil {
		defer func() {
			if err := st.mongo.Disconnect(context.Background()); err != nil {
				log.WithError(err).Warn("mongo disconnect failed")
			}
		}()
	}

	redisClient := config.ConnectRedis(ctx, cfg.Redis, log)
	var payloadCache services.PayloadCache = services.NoPayloadCache{}
	if redisClient != nil {
		defer redisClient.Close()
		payloadCache = services.NewRedisPayloadCache(redisClient, cfg.Render.CacheTTL, log)
	}

	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	runner := services.NewMutationRunner(st.tx, services.RetryPolicy{
		MaxAttempts:     cfg.Mutation.MaxAttempts,
		InitialInterval: cfg.Mutation.InitialInterval,
		MaxElapsed:      cfg.Mutation.MaxElapsed,
	}, log)
	optionSets := services.NewOptionSetService(st.optionSets, log)
	attributes := services.NewAttributeService(st.attributes, optionSets, st.categories, runner, log)
	tree := services.NewCategoryTree(st.categories, attributes, runner, hub, log)
	render := services.NewRenderService(tree, attributes, services.NewSchemaComposer(cfg.Media), payloadCache, log)

	e := echo.New()
	e.HideBanner = true
	e.Validator = utils.NewValidator()

	rateLimiter := middleware.NewRateLimiter()
	go rateLimiter.Cleanup(ctx, time.Minute)

	// Middleware
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestIDWithConfig(echoMiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.CORSWithConfig(middleware.NewCORSConfig(cfg.CORS)))
	e.Use(middleware.SecurityHeaders(middleware.SecurityConfig{
		AllowedDomains: cfg.CORS,
		HSTS:           cfg.Env == "production",
	}))
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.RequireJSON())

	routes.SetupRoutes(e, routes.Dependencies{
		Tree:       tree,
		OptionSets: optionSets,
		Render:     render,
		Hub:        hub,
		Upgrader:   websocket.NewUpgrader(cfg.CORS),
		Mongo:      st.mongo,
		Redis:      redisClient,
		Log:        log,
	})

	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "store": cfg.Store}).Info("Server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

// openStores connects the repositories selected by STORE.
func openStores(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*stores, error) {
	if cfg.Store == "memory" {
		log.Warn("Using the in-memory store, data is lost on restart")
		return &stores{
			categories: repositories.NewMemoryCategoryRepository(),
			attributes: repositories.NewMemoryAttributeRepository(),
			optionSets: repositories.NewMemoryOptionSetRepository(),
			tx:         repositories.NoTransactions{},
		}, nil
	}

	client, err := config.ConnectDB(ctx, cfg.Mongo, log)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.Mongo.DBName)
	config.SetupCollections(ctx, db, log)

	tx := repositories.NewMongoTransactor(ctx, client)
	log.WithField("transactions", tx.SupportsTransactions()).Info("Mongo store ready")
	return &stores{
		categories: repositories.NewCategoryRepository(db),
		attributes: repositories.NewAttributeRepository(db),
		optionSets: repositories.NewOptionSetRepository(db),
		tx:         tx,
		mongo:      client,
	}, nil
}
