package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"commgraph/internal/bot"
	"commgraph/internal/community"
	"commgraph/internal/relationships"
	"commgraph/internal/storage/jsonrepo"
	"commgraph/internal/storage/neo4jrepo"
	"commgraph/internal/storage/sqliterepo"
	"commgraph/pkg/config"
	"commgraph/pkg/logger"

	"github.com/bwmarrin/discordgo"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	if err := logger.Init(os.Getenv("ENV")); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting community graph bot...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	if cfg.DiscordBotToken == "" {
		log.Fatal("DISCORD_BOT_TOKEN is required")
	}

	ctx := context.Background()

	// Entity storage (JSON file repositories)
	if err := os.MkdirAll(cfg.StorageDir, 0o755); err != nil {
		log.Fatal("Failed to create storage directory", zap.Error(err))
	}
	manager, err := community.NewManager(ctx,
		jsonrepo.NewUserRepository(cfg.StorageDir),
		jsonrepo.NewServerRepository(cfg.StorageDir),
		jsonrepo.NewCommunityRepository(cfg.StorageDir),
	)
	if err != nil {
		log.Fatal("Failed to load entity stores", zap.Error(err))
	}

	// Relationship index backend
	var relService *relationships.Service
	switch cfg.RelationshipBackend {
	case config.BackendSQLite:
		db, err := sqliterepo.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatal("Failed to open SQLite database", zap.Error(err))
		}
		if err := sqliterepo.RunMigrations(ctx, db); err != nil {
			log.Fatal("Failed to run migrations", zap.Error(err))
		}
		relService = relationships.NewService(
			sqliterepo.NewRelationshipRepository(db),
			sqliterepo.NewServerRepository(db),
			sqliterepo.NewCommunityRepository(db),
		)
		log.Info("Relationship index ready", zap.String("backend", "sqlite"), zap.String("path", cfg.SQLitePath))

	case config.BackendNeo4j:
		driver, err := neo4j.NewDriverWithContext(
			cfg.Neo4jURI,
			neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
		)
		if err != nil {
			log.Fatal("Failed to create Neo4j driver", zap.Error(err))
		}
		defer driver.Close(context.Background())

		if err := driver.VerifyConnectivity(ctx); err != nil {
			log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
		}
		relService = relationships.NewService(neo4jrepo.NewRelationshipRepository(driver), nil, nil)
		log.Info("Relationship index ready", zap.String("backend", "neo4j"), zap.String("uri", cfg.Neo4jURI))
	}

	// Create Discord session
	dg, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		log.Fatal("Failed to create Discord session", zap.Error(err))
	}

	handler := bot.NewHandler(manager, relService, cfg.CommandPrefix, log)
	handler.Register(dg)

	// Required intents:
	// - IntentsGuilds: guild create/update events
	// - IntentsGuildMembers: member add/remove events and member listing
	// - IntentsGuildMessages + MessageContent: prefixed commands
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	// Open connection
	if err := dg.Open(); err != nil {
		log.Fatal("Failed to open Discord connection", zap.Error(err))
	}
	defer dg.Close()

	log.Info("Bot is running. Press CTRL-C to exit.")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-quit

	log.Info("Shutting down bot...")
}
