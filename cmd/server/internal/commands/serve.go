package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/orgservice/internal/auth"
	"github.com/wolfeidau/orgservice/internal/logger"
	"github.com/wolfeidau/orgservice/internal/password"
	"github.com/wolfeidau/orgservice/internal/server"
	"github.com/wolfeidau/orgservice/internal/service"
	"github.com/wolfeidau/orgservice/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

type ServeCmd struct {
	// Server configuration
	Listen      string   `help:"HTTP server listen address" default:"0.0.0.0:8000" env:"ORGSERVICE_LISTEN"`
	CORSOrigins []string `help:"allowed CORS origins" default:"*" env:"ORGSERVICE_CORS_ORIGINS"`
	TrustProxy  bool     `help:"trust X-Forwarded-For and X-Real-IP for client addresses" default:"false" env:"ORGSERVICE_TRUST_PROXY"`
	NoBanner    bool     `help:"skip the startup banner" default:"false" env:"ORGSERVICE_NO_BANNER"`

	// Telemetry
	Tracing     bool    `help:"enable tracing and OTLP metric export" default:"false" env:"ORGSERVICE_TRACING"`
	SampleRatio float64 `help:"fraction of traces to sample, 0 samples everything" default:"0" env:"ORGSERVICE_TRACE_SAMPLE_RATIO"`

	// Store configuration
	StoreType      string             `help:"store type (memory, mongodb, or postgres)" default:"memory" env:"ORGSERVICE_STORE_TYPE" enum:"memory,mongodb,postgres"`
	ConnectTimeout time.Duration      `help:"how long to keep retrying the initial store connection" default:"1m" env:"ORGSERVICE_STORE_CONNECT_TIMEOUT"`
	MongoStore     MongoStoreFlags    `embed:"" prefix:"mongodb-"`
	PostgresStore  PostgresStoreFlags `embed:"" prefix:"postgres-"`

	// Authentication
	JWT        JWTFlags `embed:"" prefix:"jwt-"`
	BcryptCost int      `help:"bcrypt cost for admin passwords" default:"10" env:"ORGSERVICE_BCRYPT_COST"`
}

type JWTFlags struct {
	SecretKey   string `help:"secret used to sign access tokens" env:"SECRET_KEY"`
	Algorithm   string `help:"HMAC signing algorithm" default:"HS256" enum:"HS256,HS384,HS512" env:"ALGORITHM"`
	ExpireHours int    `help:"access token lifetime in hours" default:"24" env:"ACCESS_TOKEN_EXPIRE_HOURS"`
}

func (f *JWTFlags) Validate() error {
	if f.SecretKey == "" {
		return errors.New("JWT secret key is required (--jwt-secret-key or SECRET_KEY)")
	}
	if f.ExpireHours <= 0 {
		return errors.New("token lifetime must be positive (--jwt-expire-hours or ACCESS_TOKEN_EXPIRE_HOURS)")
	}
	return nil
}

func (f *JWTFlags) TTL() time.Duration {
	return time.Duration(f.ExpireHours) * time.Hour
}

func (c *ServeCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.WithContext(ctx)

	if !c.NoBanner {
		figure.NewFigure("orgservice", "cybermedium", true).Print()
	}

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	if err := c.JWT.Validate(); err != nil {
		return fmt.Errorf("failed to validate jwt flags: %w", err)
	}

	if c.Tracing {
		log.Info().Float64("sample_ratio", c.SampleRatio).Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, telemetry.Config{
			ServiceName: "orgservice",
			Version:     globals.Version,
			SampleRatio: c.SampleRatio,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without it")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("Failed to close store")
		}
	}()

	hasher, err := password.NewHasher(c.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to configure password hasher: %w", err)
	}

	tokens, err := auth.NewTokens(c.JWT.SecretKey, c.JWT.Algorithm)
	if err != nil {
		return fmt.Errorf("failed to configure tokens: %w", err)
	}

	authService, err := service.NewAuthService(st, hasher, tokens, c.JWT.TTL())
	if err != nil {
		return fmt.Errorf("failed to configure auth service: %w", err)
	}

	srv := server.NewServer(
		server.Config{
			Version:     globals.Version,
			CORSOrigins: c.CORSOrigins,
			TrustProxy:  c.TrustProxy,
			Tracing:     c.Tracing,
		},
		st,
		service.NewOrganizationService(st, hasher),
		authService,
		tokens,
	)

	httpServer := configureHTTPServer(c.Listen, srv.Handler(log))
	httpServer.BaseContext = func(net.Listener) context.Context { return ctx }

	return serve(ctx, log, httpServer)
}

// serve runs the HTTP server until ctx is cancelled and then drains in-flight requests.
func serve(ctx context.Context, log zerolog.Logger, httpServer *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("Starting HTTP server")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown http server: %w", err)
	}

	return nil
}
