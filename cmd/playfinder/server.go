package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bcnelson/playfinder/internal/api"
	"github.com/bcnelson/playfinder/internal/logging"
)

func handleServeCommand(args []string) {
	if wantsHelp(args) {
		fmt.Printf(`Start the Playfinder API Server

USAGE:
    playfinder serve [OPTIONS]

DESCRIPTION:
    Starts the HTTP API that lists venues and events near a family,
    filtered by age, price, indoor/outdoor, category, date and distance.

OPTIONS:
    --port <port>       Server port (default: from config, usually 8080)
    --host <host>       Server host (default: from config, usually 127.0.0.1)
    --dev               Development mode (gin debug mode, access log)
    --reindex           Rebuild the Redis geo index before serving
    --help, -h          Show this help

EXAMPLES:
    playfinder serve
    playfinder serve --port 3000
    playfinder serve --host 0.0.0.0 --port 8080 --reindex

ENDPOINTS:
    GET  /health                         Health check
    GET  /metrics                        Prometheus metrics
    GET  /api/v1/venues                  Filtered venues
    GET  /api/v1/events                  Filtered events
    GET  /api/v1/activities/:id          Activity details
    POST /api/v1/auth/login              Sign in
    GET  /api/v1/favorites               Saved activities
    GET  /api/v1/schedule                Planned visits
`)
		return
	}

	executeServe(args)
}

func executeServe(args []string) {
	a := mustOpenApp(appOptions{metrics: true})
	defer a.Close()

	port := a.config.Server.Port
	host := a.config.Server.Host
	devMode := false
	reindex := false

	for i, arg := range args {
		switch arg {
		case "--port":
			if i+1 < len(args) {
				if p, err := strconv.Atoi(args[i+1]); err == nil {
					port = p
				}
			}
		case "--host":
			if i+1 < len(args) {
				host = args[i+1]
			}
		case "--dev":
			devMode = true
		case "--reindex":
			reindex = true
		}
	}

	if a.config.Auth.JWTSecret == "" {
		fail("auth.jwt_secret is not set in %s; run 'playfinder init'", getConfigPath())
	}

	if devMode {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	if reindex && a.index != nil {
		n, err := a.discovery.Reindex(ctx)
		if err != nil {
			a.logger.Error(ctx, "geo index rebuild failed", logging.Err(err))
		} else {
			a.logger.Info(ctx, "geo index rebuilt", logging.Int("activities", n))
		}
	}

	router := api.NewRouter(api.Dependencies{
		Discovery:  a.discovery,
		Auth:       a.authService(),
		Categories: a.categories,
		Health:     a.db,
		Metrics:    a.metrics,
		Logger:     a.logger,
		Version:    Version,
		AccessLog:  devMode || globalConfig.Verbose,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		a.logger.Info(ctx, "server starting", logging.String("addr", server.Addr), logging.String("version", Version))
		fmt.Printf("🚀 Server starting on %s:%d\n", host, port)
		if devMode {
			fmt.Printf("🏥 Health Check: http://%s:%d/health\n", host, port)
		}

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error(ctx, "server failed", logging.Err(err))
			fmt.Fprintf(os.Stderr, "Server failed to start: %v\n", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\n🛑 Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error(ctx, "forced shutdown", logging.Err(err))
		fmt.Printf("Server forced to shutdown: %v\n", err)
		return
	}

	a.logger.Info(ctx, "server stopped")
	fmt.Println("✅ Server shutdown complete")
}
