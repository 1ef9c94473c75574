package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ArowuTest/leaderboard-draw-backend/api/routes"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/config"
	cronrunner "github.com/ArowuTest/leaderboard-draw-backend/internal/cron"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/handlers"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/repositories"
	mongorepo "github.com/ArowuTest/leaderboard-draw-backend/internal/repositories/mongodb"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/services"
	"github.com/ArowuTest/leaderboard-draw-backend/pkg/alert"
	"github.com/ArowuTest/leaderboard-draw-backend/pkg/jwt"
	mongodb "github.com/ArowuTest/leaderboard-draw-backend/pkg/mongodb"
	"github.com/ArowuTest/leaderboard-draw-backend/pkg/payoutrail"
	"github.com/ArowuTest/leaderboard-draw-backend/pkg/rewards"
	"github.com/ArowuTest/leaderboard-draw-backend/pkg/slotlock"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
)

func main() {
	// A missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	setupLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Fail fast on a bad weight table before anything is scheduled
	var src services.RandomSource
	if cfg.Draw.RandomSeed != 0 {
		src = services.NewSeededSource(cfg.Draw.RandomSeed)
	} else {
		src, err = services.NewCryptoSeededSource()
		if err != nil {
			log.Fatalf("Failed to seed random source: %v", err)
		}
	}
	selector, err := services.NewWeightedSelector(services.DefaultWinWeights, src)
	if err != nil {
		log.Fatalf("Invalid draw configuration: %v", err)
	}

	// Connect to MongoDB using the pkg helper
	mongoClient, err := mongodb.NewClient(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			slog.Error("Error disconnecting from MongoDB", "error", err)
		}
	}()
	db := mongoClient.Database(cfg.MongoDB.Database)

	// Initialize Repositories
	var drawRepo repositories.DrawRepository = mongorepo.NewDrawRepository(db)
	var standingRepo repositories.StandingRepository = mongorepo.NewStandingRepository(db)
	var settingsRepo repositories.SystemSettingsRepository = mongorepo.NewSystemSettingsRepository(db, cfg.Draw.Enabled)

	indexCtx, cancel := context.WithTimeout(ctx, cfg.MongoDB.Timeout)
	err = drawRepo.EnsureIndexes(indexCtx)
	cancel()
	if err != nil {
		log.Fatalf("Failed to create draw indexes: %v", err)
	}

	// Slot lock, shared across instances when Redis is configured
	var locker slotlock.Locker = slotlock.LocalLocker{}
	if cfg.Redis.Addr != "" {
		redisLocker := slotlock.NewRedisLocker(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, "draw-slot:")
		if err := redisLocker.Ping(ctx); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisLocker.Close()
		locker = redisLocker
	} else {
		slog.Warn("Redis not configured; only one scheduler instance may run against this database")
	}

	// External clients
	rail := payoutrail.NewClient(cfg.Payout.BaseURL, cfg.Payout.APIKey, cfg.Payout.MockAPI)
	oracle := rewards.NewClient(cfg.Rewards.RPCEndpoint, cfg.Rewards.PoolWallet, cfg.Rewards.MockAPI, decimal.NewFromFloat(cfg.Rewards.MockPoolSOL))
	alerts := alert.NewGateway(cfg.Alert.WebhookURL)
	tokens := jwt.NewOperatorTokenService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiresIn)*time.Second, cfg.JWT.Issuer)

	// Initialize Services
	rankingService := services.NewRankingService(standingRepo, cfg.Draw.RankingTimeout)
	payoutService := services.NewPayoutService(rail, cfg.Draw.PrizeFraction, cfg.Draw.PayoutTimeout, cfg.Draw.ExplorerTxBase)
	drawService := services.NewDrawService(drawRepo, rankingService, selector, oracle, payoutService, locker, alerts, services.DrawServiceConfig{
		OracleTimeout: cfg.Draw.OracleTimeout,
		LedgerTimeout: cfg.Draw.LedgerTimeout,
		LockTTL:       cfg.Draw.LockTTL,
	})
	settingsService := services.NewSystemSettingsService(settingsRepo)
	authService := services.NewAuthService(cfg.Auth.OperatorKeyHash, tokens)

	// Scheduler
	runner := cronrunner.New(ctx, nil)
	drawTask := cronrunner.NewDrawTask(drawService, settingsService)
	if _, err := runner.Add(cfg.Draw.Schedule, drawTask.Run); err != nil {
		log.Fatalf("Invalid draw schedule %q: %v", cfg.Draw.Schedule, err)
	}

	// Initialize Handlers
	if strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := routes.SetupRouter(cfg, routes.HandlerDependencies{
		AuthHandler:           handlers.NewAuthHandler(authService),
		DrawHandler:           handlers.NewDrawHandler(drawService, nil),
		SystemSettingsHandler: handlers.NewSystemSettingsHandler(settingsService),
		Tokens:                tokens,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return runner.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server exiting")
}

func setupLogger(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if l, ok := a.Value.Any().(slog.Level); ok && l >= services.LevelCritical {
					a.Value = slog.StringValue("CRITICAL")
				}
			}
			return a
		},
	})
	slog.SetDefault(slog.New(handler))
}
