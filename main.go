package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"formgateway/internal/config"
	"formgateway/internal/handler"
	"formgateway/internal/mpostgres"
	"formgateway/internal/pkg/gpostgresql"
	"formgateway/internal/recordstore"
	"formgateway/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/useinsider/go-pkg/inslogger"
)

// @title Form Gateway API
// @version 1.0
// @description Accepts form submissions and forwards them to the configured record store

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:3000
// @BasePath /
func main() {
	ctx := context.Background()

	app, err := config.ReadEnvironment(ctx)
	if err != nil {
		log.Fatalf("Error reading configuration: %v", err)
	}

	logger := inslogger.NewLogger(inslogger.Debug)

	store, closeStore, err := newRecordStore(ctx, app, logger)
	if err != nil {
		log.Fatalf("Error initializing record store: %v", err)
	}
	defer closeStore()

	emailLock := service.NoopEmailLock()
	if app.RedisEnabled() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     app.Redis.Addr,
			Password: app.Redis.Password,
			DB:       app.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("Redis at %s is unreachable, email claims will fail open: %v", app.Redis.Addr, err)
		}
		emailLock = service.NewRedisEmailLock(redisClient, app.Redis.ClaimTTL)
	}

	intakeService := service.NewIntakeService(store, emailLock, logger)
	submissionHandler := handler.NewSubmissionHandler(intakeService, logger)

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(submissionHandler, logger, handler.RouterOptions{
		CORSAllowCredentials: app.Server.CORSAllowCredentials,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Logf("Form gateway listening on %s with %s backend", srv.Addr, app.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(err)
	}
}

func newRecordStore(ctx context.Context, app *config.App, logger inslogger.Interface) (recordstore.Store, func(), error) {
	switch app.Store.Backend {
	case config.BackendPostgres:
		pool, err := gpostgresql.NewDBConnection(ctx, &app.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := mpostgres.EnsureSchema(ctx, pool); err != nil {
			gpostgresql.Close(pool, logger)
			return nil, nil, err
		}
		return mpostgres.NewSubmissionStore(pool), func() { gpostgresql.Close(pool, logger) }, nil
	case config.BackendAirtable:
		return recordstore.NewAirtableStore(recordstore.AirtableOptions{
			BaseURL: app.AirtableAPIBase,
			Token:   app.AirtableToken,
			BaseID:  app.AirtableBaseID,
			Table:   app.AirtableTable,
			Timeout: app.Store.Timeout,
		}), func() {}, nil
	default:
		return recordstore.NewWebflowStore(recordstore.WebflowOptions{
			BaseURL:      app.WebflowAPIBase,
			Token:        app.WebflowToken,
			CollectionID: app.CollectionID,
			Timeout:      app.Store.Timeout,
		}), func() {}, nil
	}
}
