package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arslanaka/GDPR-Explainer/internal/config"
	"github.com/arslanaka/GDPR-Explainer/internal/handlers"
	"github.com/arslanaka/GDPR-Explainer/internal/pkg/logger"
	"github.com/arslanaka/GDPR-Explainer/internal/services"
)

func main() {
	cfg := config.Load()

	appLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	cacheService := services.NewCacheService(cfg.Redis, cfg.Cache, appLogger)
	defer cacheService.Close()

	graphService, err := services.NewGraphService(cfg.Neo4j, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize graph service", "error", err)
	}
	defer graphService.Close(context.Background())

	llmService, err := services.NewLLMService(cfg.LLM, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize LLM service", "error", err)
	}

	searchService := services.NewSearchService(cfg.Qdrant, llmService, appLogger)
	explainerService := services.NewExplainerService(graphService, cacheService, appLogger)
	chatService := services.NewChatService(llmService, searchService, explainerService, cacheService, appLogger)

	router := setupRouter(cfg, appLogger, cacheService, graphService, searchService, llmService, explainerService, chatService)

	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		appLogger.Info("GDPR Explainer API starting", "port", cfg.HTTP.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server shutdown failed", "error", err)
	}

	appLogger.Info("Server stopped")
}

func setupRouter(
	cfg *config.Config,
	appLogger *logger.Logger,
	cacheService *services.CacheService,
	graphService *services.GraphService,
	searchService *services.SearchService,
	llmService *services.LLMService,
	explainerService *services.ExplainerService,
	chatService *services.ChatService,
) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), handlers.RequestID(), handlers.RequestLogger(appLogger), handlers.CORS())

	searchHandler := handlers.NewSearchHandler(searchService, cacheService, appLogger)
	articleHandler := handlers.NewArticleHandler(graphService, cacheService, appLogger)
	explainHandler := handlers.NewExplainHandler(explainerService, llmService, appLogger)
	topicHandler := handlers.NewTopicHandler(graphService, appLogger)
	chatHandler := handlers.NewChatHandler(chatService, appLogger)
	cacheHandler := handlers.NewCacheHandler(cacheService, appLogger)
	healthHandler := handlers.NewHealthHandler(map[string]handlers.HealthChecker{
		"cache":  cacheService,
		"graph":  graphService,
		"search": searchService,
		"llm":    llmService,
	}, appLogger)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "GDPR Explainer API is running"})
	})
	router.GET("/health", healthHandler.Health)

	api := router.Group("/api")
	{
		api.GET("/search", searchHandler.Search)
		api.GET("/articles/:article_id", articleHandler.GetArticle)
		api.GET("/explain/:article_id", explainHandler.ExplainArticle)
		api.GET("/topics", topicHandler.GetTopics)
		api.GET("/topics/:topic", topicHandler.GetArticlesByTopic)
		api.POST("/chat", chatHandler.Chat)

		api.GET("/cache/stats", cacheHandler.GetStats)
		api.POST("/cache/invalidate/:pattern", cacheHandler.InvalidatePattern)
		api.DELETE("/cache/clear", cacheHandler.Clear)
	}

	return router
}
