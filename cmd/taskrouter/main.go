package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	"github.com/hotelops/taskrouter/internal/config"
	"github.com/hotelops/taskrouter/internal/database"
	"github.com/hotelops/taskrouter/internal/engine"
	"github.com/hotelops/taskrouter/internal/handler"
	"github.com/hotelops/taskrouter/internal/logger"
	"github.com/hotelops/taskrouter/internal/notifier"
	"github.com/hotelops/taskrouter/internal/repository"
)

func main() {
	app := &cli.App{
		Name:  "taskrouter",
		Usage: "Staff task assignment and workflow engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:     "database-url",
				Aliases:  []string{"d"},
				Value:    config.DefaultDatabaseURL,
				Usage:    "PostgreSQL database URL",
				EnvVars:  []string{"DATABASE_URL"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Value:   config.DefaultRedisURL,
				Usage:   "Redis URL for the notification outbox (optional)",
				EnvVars: []string{"REDIS_URL"},
			},
			&cli.Float64Flag{
				Name:    "skill-weight",
				Value:   config.DefaultSkillWeight,
				Usage:   "Weight of the skill-match term in allocation scoring",
				EnvVars: []string{"SKILL_WEIGHT"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.Setup(logger.ParseLevel(c.String("log-level")))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the web server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Value:   config.DefaultPort,
						Usage:   "HTTP server port",
						EnvVars: []string{"PORT"},
					},
				},
				Action: runServe,
			},
			{
				Name:   "sweep-escalations",
				Usage:  "Escalate all overdue in-flight tasks",
				Action: runSweepEscalations,
			},
		},
		Action: runServe,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

// buildEngine wires the engine against Postgres and, when configured,
// the Redis notification outbox.
func buildEngine(c *cli.Context, db *database.DB) (*engine.Engine, *repository.PostgresDirectory, error) {
	store := repository.NewPostgresTaskStore(db.Pool())
	directory := repository.NewPostgresDirectory(db.Pool())

	var gateway engine.Notifier = notifier.LogNotifier{}
	if redisURL := c.String("redis-url"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis URL: %w", err)
		}
		gateway = notifier.NewRedisNotifier(redis.NewClient(opts))
		slog.Info("notification outbox enabled")
	}

	eng := engine.New(store, directory, gateway,
		engine.WithSkillWeight(c.Float64("skill-weight")))
	return eng, directory, nil
}

func runServe(c *cli.Context) error {
	ctx := c.Context

	port := c.String("port")
	if port == "" {
		port = config.DefaultPort
	}

	db, err := database.New(ctx, c.String("database-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db.Pool()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	eng, directory, err := buildEngine(c, db)
	if err != nil {
		return err
	}

	h := handler.New(eng, directory, db.Pool().Ping)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "server_addr", "http://localhost:"+port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-done:
		slog.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func runSweepEscalations(c *cli.Context) error {
	ctx := c.Context

	db, err := database.New(ctx, c.String("database-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db.Pool()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	eng, _, err := buildEngine(c, db)
	if err != nil {
		return err
	}

	count, err := eng.SweepEscalations(ctx)
	if err != nil {
		return err
	}
	slog.Info("escalation sweep complete", "escalated", count)
	return nil
}
