package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/pizzafoundry/pizza-service/internal/auth"
	"github.com/pizzafoundry/pizza-service/internal/order"
	"github.com/pizzafoundry/pizza-service/internal/router"
	"github.com/pizzafoundry/pizza-service/internal/schema"
	"github.com/pizzafoundry/pizza-service/pkg/database"
	"github.com/pizzafoundry/pizza-service/pkg/utilities"
)

func main() {
	// load .env if present; real environments set variables directly
	_ = godotenv.Load()

	logger, err := utilities.InitLogger(utilities.LoggerConfigFromEnv())
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	tokenCfg := auth.TokenConfigFromEnv()
	if tokenCfg.Secret == "" {
		sugar.Fatal("JWT_SECRET is required")
	}

	sqlDB, err := database.Connect(database.ConfigFromEnv())
	if err != nil {
		sugar.Fatalw("unable to connect to database", "err", err)
	}
	db := sqlx.NewDb(sqlDB, "postgres")
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := schema.Ensure(ctx, db, schema.ConfigFromEnv(), sugar); err != nil {
		sugar.Fatalw("unable to bootstrap schema", "err", err)
	}

	handler := router.RegisterRoutes(sugar, db, router.Config{
		Tokens:      tokenCfg,
		Factory:     order.FactoryConfigFromEnv(),
		ListPerPage: utilities.DefaultListPerPage,
	})

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":3000"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server failed", "err", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Warnw("forced shutdown", "err", err)
	}
	sugar.Info("server stopped")
}
