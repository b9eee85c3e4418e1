package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devmatch/backend/internal/api/handler"
	"devmatch/backend/internal/auth"
	"devmatch/backend/internal/chathub"
	"devmatch/backend/internal/config"
	"devmatch/backend/internal/localization"
	"devmatch/backend/internal/logging"
	"devmatch/backend/internal/match"
	"devmatch/backend/internal/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "devmatch-api",
		Short: "DevMatch matching and chat backend",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
		SilenceUsage: true,
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-driver", defaults.GetString("database.driver"), "Database driver (sqlite, postgres)")
	cmd.PersistentFlags().String("database-dsn", defaults.GetString("database.dsn"), "Database DSN or SQLite path")
	cmd.PersistentFlags().String("redis-addr", defaults.GetString("redis.addr"), "Redis address for cross-instance chat fan-out")
	cmd.PersistentFlags().Bool("require-match", defaults.GetBool("chat.require_match"), "Only mutual matches may chat")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("signing-secret", "", "JWT signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.driver", "database-driver")
	bindFlag(cmd, "database.dsn", "database-dsn")
	bindFlag(cmd, "redis.addr", "redis-addr")
	bindFlag(cmd, "chat.require_match", "require-match")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	if cfgFile == "" {
		return nil
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", cfgFile, err)
	}
	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := storage.OpenDatabase(appConfig.DatabaseDriver, appConfig.DatabaseDSN, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus, err := newBus(signalCtx, appConfig, logger)
	if err != nil {
		return err
	}
	defer bus.Close()

	tokenManager, err := auth.NewTokenManager(auth.TokenManagerConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		Issuer:        appConfig.TokenIssuer,
		TokenTTL:      appConfig.TokenTTL,
	})
	if err != nil {
		return err
	}

	localizer, err := localization.NewEmbeddedLocalizer()
	if err != nil {
		return err
	}

	store := storage.NewStorageService(db, logger)
	engine := match.NewEngine(store, store, logger)
	hub := chathub.NewManagerService(logger)
	relay := chathub.NewRelay(chathub.RelayConfig{
		Hub:          hub,
		Bus:          bus,
		Transcripts:  store,
		Profiles:     store,
		Matches:      engine,
		RequireMatch: appConfig.RequireMatch,
		Logger:       logger,
	})

	h, err := handler.NewHandler(handler.Dependencies{
		Engine:         engine,
		Relay:          relay,
		Hub:            hub,
		Tokens:         tokenManager,
		Localizer:      localizer,
		AllowedOrigins: appConfig.AllowedOrigins,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              appConfig.HTTPAddress,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	g, gctx := errgroup.WithContext(signalCtx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	if err := bus.StartForwarder(gctx, relay.Forward); err != nil {
		stop()
		_ = g.Wait()
		return err
	}

	g.Go(func() error {
		logger.Info("starting http server", zap.String("address", appConfig.HTTPAddress))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down http server")
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	return nil
}

func newBus(ctx context.Context, appConfig config.AppConfig, logger *zap.Logger) (chathub.Bus, error) {
	if appConfig.RedisAddr == "" {
		logger.Info("redis not configured, chat fan-out stays in process")
		return chathub.NewLocalBus(), nil
	}

	rdb, err := storage.NewRedisClient(ctx, appConfig.RedisAddr)
	if err != nil {
		return nil, err
	}
	logger.Info("chat fan-out through redis",
		zap.String("addr", appConfig.RedisAddr),
		zap.String("channel", appConfig.RedisChannel))
	return chathub.NewRedisBus(rdb, appConfig.RedisChannel, logger)
}
