package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gridspell/gridspell-server/internal/auth"
	"github.com/gridspell/gridspell-server/internal/cards"
	"github.com/gridspell/gridspell-server/internal/config"
	"github.com/gridspell/gridspell-server/internal/game"
	"github.com/gridspell/gridspell-server/internal/repository"
	"github.com/gridspell/gridspell-server/internal/room"
	"github.com/gridspell/gridspell-server/internal/server"
	"github.com/gridspell/gridspell-server/internal/user"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting gridspell server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	db, err := repository.NewDB(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	presence, err := repository.NewPresenceStore(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, room listings are local only", zap.Error(err))
		presence = nil
	}
	defer presence.Close()

	provider, cataDeck, err := buildCardProvider(ctx, cfg.Cards, db)
	if err != nil {
		logger.Fatal("failed to initialize card catalog", zap.Error(err))
	}
	logger.Info("card catalog initialized", zap.Int("catastrophe_cards", len(cataDeck)))

	userRepo := repository.NewUserRepository(db)
	deckRepo := repository.NewDeckRepository(db)

	userMgr := user.NewManager(userRepo, logger)
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	gameCfg := gameConfig(cfg.Game)
	roomMgr := room.NewManager(provider, presence, gameCfg, cataDeck, logger)
	if cfg.Game.ReplayDir != "" {
		roomMgr.EnableReplays(cfg.Game.ReplayDir)
		logger.Info("match recording enabled", zap.String("dir", cfg.Game.ReplayDir))
	}
	logger.Info("room manager initialized",
		zap.Int("board_width", gameCfg.BoardWidth),
		zap.Int("board_height", gameCfg.BoardHeight),
	)

	srv := server.New(tokens, userMgr, deckRepo, roomMgr, cfg.Server.AllowedOrigins, logger)

	httpServer := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: srv.Handler(),
	}

	go func() {
		logger.Info("starting HTTP server", zap.String("address", cfg.Server.Address))
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			logger.Error("HTTP server error", zap.Error(serveErr))
		}
	}()

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}
	cancel()

	logger.Info("gridspell server stopped")
}

// buildCardProvider chooses the card source. A configured catalog file wins
// over the database; both return the shared catastrophe deck composition,
// two copies of every catastrophe card.
func buildCardProvider(ctx context.Context, cfg config.CardsConfig, db *repository.DB) (cards.Provider, game.DeckList, error) {
	if cfg.CatalogFile != "" {
		list, err := cards.LoadCatalogFile(cfg.CatalogFile)
		if err != nil {
			return nil, nil, err
		}
		var cata game.DeckList
		for _, c := range list {
			if c.Type == cards.TypeCatastrophe {
				cata = append(cata, game.DeckEntry{CardID: c.ID, Count: 2})
			}
		}
		return cards.NewStaticProvider(list), cata, nil
	}

	repo := repository.NewCardRepository(db)
	ids, err := repo.ListIDsByType(ctx, cards.TypeCatastrophe)
	if err != nil {
		return nil, nil, err
	}
	var cata game.DeckList
	for _, id := range ids {
		cata = append(cata, game.DeckEntry{CardID: id, Count: 2})
	}
	return cards.NewCachingProvider(repo), cata, nil
}

func gameConfig(cfg config.GameConfig) game.Config {
	out := game.DefaultConfig()
	if cfg.BoardWidth > 0 {
		out.BoardWidth = cfg.BoardWidth
	}
	if cfg.BoardHeight > 0 {
		out.BoardHeight = cfg.BoardHeight
	}
	if cfg.StartingHP > 0 {
		out.StartingHP = cfg.StartingHP
	}
	if cfg.ManaCap > 0 {
		out.ManaCap = cfg.ManaCap
	}
	if cfg.ManaPerTurn > 0 {
		out.ManaPerTurn = cfg.ManaPerTurn
	}
	if cfg.OpeningHand > 0 {
		out.OpeningHand = cfg.OpeningHand
	}
	if cfg.HandLimit > 0 {
		out.HandLimit = cfg.HandLimit
	}
	if cfg.LogWindow > 0 {
		out.LogWindow = cfg.LogWindow
	}
	return out
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
