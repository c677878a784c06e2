// SPDX-FileCopyrightText: Copyright 2026 Seatwise, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/seatwise/seatwise/pkg/auth"
	"github.com/seatwise/seatwise/pkg/authserver"
	"github.com/seatwise/seatwise/pkg/authserver/session"
	"github.com/seatwise/seatwise/pkg/engine"
	"github.com/seatwise/seatwise/pkg/telemetry"
	"github.com/seatwise/seatwise/pkg/tickets"
)

const (
	serverReadHeaderTimeout = 10 * time.Second
	defaultGracefulTimeout  = 30 * time.Second
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Seatwise server",
		Long: `Start the authorization server and the protected ticket reservation
endpoint on a single listener. Requires a reachable decision engine.`,
		RunE: runServe,
	}

	cmd.Flags().String("address", ":8080", "Address to listen on")
	cmd.Flags().String("issuer", "", "Public base URL of this server, without trailing slash")
	cmd.Flags().String("engine-url", "", "Base URL of the decision engine API")
	cmd.Flags().String("engine-token", "", "Service access token for the decision engine")
	cmd.Flags().Duration("engine-timeout", 10*time.Second, "Timeout for decision engine calls")
	cmd.Flags().String("session-backend", "memory", "Session store backend (memory or redis)")
	cmd.Flags().String("redis-addr", "", "Redis address for the redis session backend")
	cmd.Flags().String("redis-password", "", "Redis password")
	cmd.Flags().Int("redis-db", 0, "Redis database number")
	cmd.Flags().String("redis-prefix", "", "Key prefix for Redis session entries")
	cmd.Flags().Duration("session-ttl", session.DefaultTTL, "Lifetime of browser sessions")
	cmd.Flags().Bool("secure-cookies", true, "Mark session cookies as HTTPS-only")
	cmd.Flags().Bool("require-https", false, "Reject plain-HTTP requests on the protected endpoint")
	cmd.Flags().String("resource", "", "Canonical resource identifier (defaults to issuer + /mcp)")
	cmd.Flags().StringArray("user", nil, "Development user as username:password (repeatable)")

	for _, flag := range []string{
		"address", "issuer", "engine-url", "engine-token", "engine-timeout",
		"session-backend", "redis-addr", "redis-password", "redis-db", "redis-prefix",
		"session-ttl", "secure-cookies", "require-https", "resource", "user",
	} {
		if err := viper.BindPFlag(flag, cmd.Flags().Lookup(flag)); err != nil {
			fmt.Fprintf(os.Stderr, "failed to bind %s flag: %v\n", flag, err)
		}
	}

	return cmd
}

type serveConfig struct {
	Address        string
	Issuer         string
	Resource       string
	EngineURL      string
	EngineToken    string
	EngineTimeout  time.Duration
	SessionBackend string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisPrefix    string
	SessionTTL     time.Duration
	SecureCookies  bool
	RequireHTTPS   bool
	Users          map[string]string
}

func serveConfigFromViper() (*serveConfig, error) {
	cfg := &serveConfig{
		Address:        viper.GetString("address"),
		Issuer:         strings.TrimSuffix(viper.GetString("issuer"), "/"),
		Resource:       viper.GetString("resource"),
		EngineURL:      viper.GetString("engine-url"),
		EngineToken:    viper.GetString("engine-token"),
		EngineTimeout:  viper.GetDuration("engine-timeout"),
		SessionBackend: viper.GetString("session-backend"),
		RedisAddr:      viper.GetString("redis-addr"),
		RedisPassword:  viper.GetString("redis-password"),
		RedisDB:        viper.GetInt("redis-db"),
		RedisPrefix:    viper.GetString("redis-prefix"),
		SessionTTL:     viper.GetDuration("session-ttl"),
		SecureCookies:  viper.GetBool("secure-cookies"),
		RequireHTTPS:   viper.GetBool("require-https"),
		Users:          map[string]string{},
	}

	if cfg.Issuer == "" {
		return nil, fmt.Errorf("issuer is required")
	}
	if cfg.EngineURL == "" {
		return nil, fmt.Errorf("engine-url is required")
	}
	if cfg.EngineToken == "" {
		return nil, fmt.Errorf("engine-token is required")
	}
	if cfg.Resource == "" {
		cfg.Resource = cfg.Issuer + "/mcp"
	}

	for _, entry := range viper.GetStringSlice("user") {
		name, password, ok := strings.Cut(entry, ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid user entry %q, expected username:password", entry)
		}
		cfg.Users[name] = password
	}

	return cfg, nil
}

func newSessionStore(ctx context.Context, cfg *serveConfig) (session.Store, func() error, error) {
	switch cfg.SessionBackend {
	case "memory":
		store := session.NewMemoryStore(cfg.SessionTTL)
		return store, store.Close, nil
	case "redis":
		store, err := session.NewRedisStore(ctx, session.RedisConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisPrefix,
			TTL:       cfg.SessionTTL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect session store: %w", err)
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()

	cfg, err := serveConfigFromViper()
	if err != nil {
		return err
	}

	metrics := telemetry.New()
	eng := telemetry.InstrumentEngine(
		engine.New(cfg.EngineURL, cfg.EngineToken,
			engine.WithTimeout(cfg.EngineTimeout),
			engine.WithLogger(logger),
		),
		metrics,
	)

	sessions, closeSessions, err := newSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSessions(); err != nil {
			logger.Error("failed to close session store", "error", err)
		}
	}()

	authz := authserver.NewRouter(eng, sessions,
		authserver.NewStaticAuthenticator(cfg.Users),
		authserver.Config{
			Issuer:          cfg.Issuer,
			ScopesSupported: tickets.Scopes(),
		},
		authserver.WithLogger(logger),
	)

	mcpServer := server.NewMCPServer(
		"seatwise-tickets",
		getVersion(),
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)
	tickets.NewToolServer(
		tickets.NewMemoryStore(tickets.DemoEvents()),
		tickets.WithLogger(logger),
	).RegisterTools(mcpServer)

	// The streamable transport runs tool handlers on its own context; carry
	// the claims the token middleware attached to the HTTP request over.
	streamable := server.NewStreamableHTTPServer(
		mcpServer,
		server.WithEndpointPath("/mcp"),
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
				return auth.WithClaims(ctx, claims)
			}
			return ctx
		}),
	)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID, chimiddleware.RealIP, chimiddleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Group(func(r chi.Router) {
		r.Use(session.Middleware(sessions, session.CookieConfig{
			Secure: cfg.SecureCookies,
			MaxAge: cfg.SessionTTL,
		}, logger))
		authz.Routes(r)
	})

	resourceMetadata := auth.NewResourceMetadataHandler(cfg.Resource, cfg.Issuer, tickets.Scopes(), nil)
	r.Handle("/.well-known/oauth-protected-resource", resourceMetadata)
	// Path-suffixed variant for resources with a path component (RFC 9728).
	if path := strings.TrimPrefix(cfg.Resource, cfg.Issuer); path != "" && path != cfg.Resource {
		r.Handle("/.well-known/oauth-protected-resource"+path, resourceMetadata)
	}
	r.Handle("/metrics", telemetry.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.TokenMiddleware(eng, auth.MiddlewareConfig{
			Realm:                  cfg.Issuer,
			Resource:               cfg.Resource,
			ResourceMetadataURL:    cfg.Issuer + "/.well-known/oauth-protected-resource",
			RequireSecureTransport: cfg.RequireHTTPS,
		}, logger))
		r.Handle("/mcp", streamable)
	})

	httpServer := &http.Server{
		Addr:              cfg.Address,
		Handler:           r,
		ReadHeaderTimeout: serverReadHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening",
			slog.String("address", cfg.Address),
			slog.String("issuer", cfg.Issuer),
			slog.String("resource", cfg.Resource),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
