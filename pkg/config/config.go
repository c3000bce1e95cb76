package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Relationship index backends.
const (
	BackendSQLite = "sqlite"
	BackendNeo4j  = "neo4j"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// Discord
	DiscordBotToken string
	CommandPrefix   string

	// Entity storage (JSON file repository)
	StorageDir string

	// Relationship index
	RelationshipBackend string
	SQLitePath          string

	// Neo4j (only used when RelationshipBackend is "neo4j")
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Env:                 getEnv("ENV", "development"),
		DiscordBotToken:     getEnv("DISCORD_BOT_TOKEN", ""),
		CommandPrefix:       getEnv("COMMAND_PREFIX", "."),
		StorageDir:          getEnv("STORAGE_DIR", "data/community"),
		RelationshipBackend: getEnv("RELATIONSHIP_BACKEND", BackendSQLite),
		SQLitePath:          getEnv("SQLITE_PATH", "data/commgraph.db"),
		Neo4jURI:            getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:           getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:       getEnv("NEO4J_PASSWORD", "password"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.StorageDir == "" {
		return fmt.Errorf("STORAGE_DIR is required")
	}
	switch c.RelationshipBackend {
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when RELATIONSHIP_BACKEND is sqlite")
		}
	case BackendNeo4j:
		if c.Neo4jURI == "" {
			return fmt.Errorf("NEO4J_URI is required when RELATIONSHIP_BACKEND is neo4j")
		}
		if c.Neo4jUser == "" {
			return fmt.Errorf("NEO4J_USER is required when RELATIONSHIP_BACKEND is neo4j")
		}
		if c.Neo4jPassword == "" {
			return fmt.Errorf("NEO4J_PASSWORD is required when RELATIONSHIP_BACKEND is neo4j")
		}
	default:
		return fmt.Errorf("unknown RELATIONSHIP_BACKEND: %s", c.RelationshipBackend)
	}
	// Discord token is optional for development (the HTTP API runs without it)
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
