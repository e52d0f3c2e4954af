// Package main is the zvonok backend entry point.
//
// The serve command is the dependency wire-up:
//
//  1. Config
//  2. Database
//  3. Upload directory
//  4. Repositories
//  5. WebSocket hub
//  6. Services
//  7. Handlers
//  8. Router
//  9. CORS
//  10. HTTP server
//  11. Graceful shutdown
//
// No globals: everything is built here and passed down.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/rossosss/zvonok/config"
	"github.com/rossosss/zvonok/database"
	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/services"
	"github.com/rossosss/zvonok/ws"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := newRootCommand().Execute(); err != nil {
		log.Fatalf("[main] %v", err)
	}
}

type rootOptions struct {
	ConfigFile string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	serve := newServeCommand(opts)

	cmd := &cobra.Command{
		Use:           "zvonok",
		Short:         "Chat backend: servers, channels, direct messages",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "path to a YAML config file (default: $CONFIG_FILE)")

	cmd.AddCommand(serve)
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newTokenCommand(opts))

	return cmd
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(opts)
		},
	}
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := database.New(cfg.Database.Driver, cfg.Database.DSN, database.Migrations())
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			return db.Close()
		},
	}
}

// newTokenCommand mints a bearer token signed with JWT_SECRET, standing in
// for the identity provider during local development.
func newTokenCommand(opts *rootOptions) *cobra.Command {
	var (
		identity models.Identity
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development bearer token",
		Example: `  zvonok token --user-id user_123 --name Alice --email alice@example.com
  curl -H "Authorization: Bearer $(zvonok token --user-id user_123)" localhost:9090/api/profile`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			authService := services.NewAuthService(nil, cfg.JWT.Secret, cfg.JWT.Issuer)
			token, err := authService.IssueToken(identity, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&identity.UserID, "user-id", "", "external user id (token subject)")
	cmd.Flags().StringVar(&identity.Name, "name", "", "display name")
	cmd.Flags().StringVar(&identity.Email, "email", "", "e-mail address")
	cmd.Flags().StringVar(&identity.ImageURL, "image-url", "", "avatar url")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user-id")

	return cmd
}

func runServer(opts *rootOptions) error {
	log.Println("[main] zvonok server starting...")

	// ─── 1. Config ───
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log.Printf("[main] config loaded (port=%d, driver=%s)", cfg.Server.Port, cfg.Database.Driver)

	// ─── 2. Database ───
	db, err := database.New(cfg.Database.Driver, cfg.Database.DSN, database.Migrations())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// ─── 3. Upload Directory ───
	if err := os.MkdirAll(cfg.Upload.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	// ─── 4. Repositories ───
	repos := initRepositories(db.Conn)

	// ─── 5. WebSocket Hub ───
	hub := ws.NewHub()
	go hub.Run()

	// ─── 6. Services ───
	svcs, limiters, profileCache := initServices(db.Conn, repos, hub, cfg)
	defer limiters.Stop()
	defer profileCache.Close()

	// ─── 7. Handlers ───
	h := initHandlers(svcs, limiters, hub, cfg)

	// ─── 8. Router ───
	mux := http.NewServeMux()
	initRoutes(mux, h, svcs.Auth, svcs.Member, cfg.Upload.Dir)

	// ─── 9. CORS ───
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
	})

	// ─── 10. HTTP Server ───
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      corsHandler.Handler(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ─── 11. Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("[main] server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case <-done:
	case err := <-serveErr:
		hub.Shutdown()
		return fmt.Errorf("server error: %w", err)
	}
	log.Println("[main] shutting down...")

	// WebSocket clients first, then in-flight HTTP requests.
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Println("[main] server stopped gracefully")
	return nil
}
