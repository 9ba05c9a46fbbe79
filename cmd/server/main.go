package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"model-promotion-service/internal/adapters/primary/http/handlers"
	"model-promotion-service/internal/adapters/primary/http/middleware"
	"model-promotion-service/internal/app"
	"model-promotion-service/internal/config"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load(os.Getenv("MLPROMOTE_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	app.InitLogger(cfg.Logger)

	// ============================================================================
	// Hexagonal Architecture Wiring
	// ============================================================================

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer a.Close()

	// Primary Adapter (HTTP Handlers)
	h := handlers.New(a.Validation, a.Promotion, a.History)

	// Setup router
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logging(), gin.Recovery())

	api := router.Group("/api/v1/model-promotion")
	h.RegisterRoutes(api)

	// Health check, pings the history database when one is configured
	router.GET("/healthz", func(c *gin.Context) {
		if a.Pool != nil {
			if err := a.Pool.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	// Promotions wait for the registry to settle, allow them to finish.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Promotion.SettleDelay+10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("server forced shutdown: %v", err)
	}

	log.Info("server stopped")
}
