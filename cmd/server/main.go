package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"commgraph/internal/community"
	"commgraph/internal/relationships"
	"commgraph/internal/storage/jsonrepo"
	"commgraph/internal/storage/neo4jrepo"
	"commgraph/internal/storage/sqliterepo"
	"commgraph/pkg/config"
	"commgraph/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
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
	log.Info("Starting HTTP API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
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
	}

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(requestID())
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API routes
	api := router.Group("/api")
	{
		// Community summary
		api.GET("/communities/:id", func(c *gin.Context) {
			id, ok := paramID(c)
			if !ok {
				return
			}
			cm, found, err := manager.GetCommunity(c.Request.Context(), id)
			if err != nil {
				internalError(c, log, "Failed to fetch community", err)
				return
			}
			if !found {
				c.JSON(http.StatusNotFound, gin.H{"error": "Community not found"})
				return
			}
			c.JSON(http.StatusOK, cm)
		})

		// Servers attached to a community
		api.GET("/communities/:id/servers", func(c *gin.Context) {
			id, ok := paramID(c)
			if !ok {
				return
			}
			cm, found, err := manager.GetCommunity(c.Request.Context(), id)
			if err != nil {
				internalError(c, log, "Failed to fetch community", err)
				return
			}
			if !found {
				c.JSON(http.StatusNotFound, gin.H{"error": "Community not found"})
				return
			}
			servers, err := manager.ServersOf(c.Request.Context(), cm)
			if err != nil {
				internalError(c, log, "Failed to resolve servers", err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"community_id": id, "servers": servers})
		})

		// Users belonging to a community
		api.GET("/communities/:id/users", func(c *gin.Context) {
			id, ok := paramID(c)
			if !ok {
				return
			}
			cm, found, err := manager.GetCommunity(c.Request.Context(), id)
			if err != nil {
				internalError(c, log, "Failed to fetch community", err)
				return
			}
			if !found {
				c.JSON(http.StatusNotFound, gin.H{"error": "Community not found"})
				return
			}
			users, err := manager.UsersOfCommunity(c.Request.Context(), cm)
			if err != nil {
				internalError(c, log, "Failed to resolve users", err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"community_id": id, "users": users})
		})

		// Communities a user belongs to
		api.GET("/users/:id/communities", func(c *gin.Context) {
			id, ok := paramID(c)
			if !ok {
				return
			}
			u, found, err := manager.GetUser(c.Request.Context(), id)
			if err != nil {
				internalError(c, log, "Failed to fetch user", err)
				return
			}
			if !found {
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
				return
			}
			communities, err := manager.CommunitiesOf(c.Request.Context(), u)
			if err != nil {
				internalError(c, log, "Failed to resolve communities", err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"user_id": id, "communities": communities})
		})

		// Users in a server
		api.GET("/servers/:id/users", func(c *gin.Context) {
			id, ok := paramID(c)
			if !ok {
				return
			}
			srv, found, err := manager.GetServer(c.Request.Context(), id)
			if err != nil {
				internalError(c, log, "Failed to fetch server", err)
				return
			}
			if !found {
				c.JSON(http.StatusNotFound, gin.H{"error": "Server not found"})
				return
			}
			users, err := manager.UsersOfServer(c.Request.Context(), srv)
			if err != nil {
				internalError(c, log, "Failed to resolve users", err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"server_id": id, "users": users})
		})

		// Reconcile the membership index against an authoritative member list
		api.POST("/servers/:id/sync", func(c *gin.Context) {
			if relService == nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No relationship backend configured"})
				return
			}
			id, ok := paramID(c)
			if !ok {
				return
			}

			var req struct {
				MemberIDs []int64 `json:"member_ids" binding:"required"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			added, removed, err := relService.SyncServerMembers(c.Request.Context(), id, req.MemberIDs)
			if err != nil {
				internalError(c, log, "Failed to sync members", err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"server_id": id, "added": added, "removed": removed})
		})
	}

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return id, true
}

func internalError(c *gin.Context, log *zap.Logger, msg string, err error) {
	log.Error(msg, zap.Error(err), zap.String("request_id", c.GetString("request_id")))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// requestID tags every request with a uuid, echoed in the response header.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", c.GetString("request_id")),
		)
	}
}
