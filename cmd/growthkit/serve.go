package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/gin-gonic/gin"
	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"

	"github.com/nexgen-studio/growthkit/config"
	"github.com/nexgen-studio/growthkit/contact"
	"github.com/nexgen-studio/growthkit/observability"
	"github.com/nexgen-studio/growthkit/ratelimit"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the contact form endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Sources: cli.EnvVars("GROWTHKIT_ADDR"),
				Usage:   "listen address (defaults to server.addr)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, logger, sync, err := setup(cmd)
			if err != nil {
				return err
			}
			defer sync()
			if addr := cmd.String("addr"); addr != "" {
				cfg.Server.Addr = addr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			store, closeStore, err := newStore(ctx, cfg.RateLimit, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			forwarder, err := newForwarder(ctx, cfg.Contact)
			if err != nil {
				return err
			}
			if forwarder == nil {
				logger.Warn("no contact destination configured; submissions will fail")
			}

			limiter := &ratelimit.Limiter{Window: cfg.RateLimit.Window, Max: cfg.RateLimit.Max, Store: store}
			if !cfg.Log.Development {
				gin.SetMode(gin.ReleaseMode)
			}
			router, err := contact.NewRouter(contact.NewHandler(limiter, forwarder, logger), cfg.Server.TrustedProxies)
			if err != nil {
				return err
			}
			return listenAndServe(ctx, cfg.Server, router, logger)
		},
	}
}

// newStore picks Redis when a URL is configured. The in-memory store is
// pruned once per window so idle clients do not accumulate.
func newStore(ctx context.Context, rl config.RateLimitConfig, logger observability.Logger) (ratelimit.Store, func(), error) {
	if rl.RedisURL != "" {
		opts, err := redis.ParseURL(rl.RedisURL)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "invalid redis url")
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, goerr.Wrap(err, "redis unreachable", goerr.V("addr", opts.Addr))
		}
		logger.Info("rate limit store", observability.String("backend", "redis"), observability.String("addr", opts.Addr))
		return ratelimit.NewRedisStore(client), func() { _ = client.Close() }, nil
	}

	store := ratelimit.NewMemoryStore()
	pruneCtx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(rl.Window)
		defer ticker.Stop()
		for {
			select {
			case <-pruneCtx.Done():
				return
			case now := <-ticker.C:
				store.Prune(now.Add(-rl.Window))
			}
		}
	}()
	logger.Info("rate limit store", observability.String("backend", "memory"))
	return store, cancel, nil
}

func newForwarder(ctx context.Context, cc config.ContactConfig) (contact.Forwarder, error) {
	switch cc.Mode {
	case config.ModeSES:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cc.Region))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load AWS config")
		}
		return contact.NewSESForwarder(awsCfg, cc.SESFrom, cc.SESTo...), nil
	default:
		if cc.WebhookURL == "" {
			return nil, nil
		}
		return contact.NewWebhookForwarder(cc.WebhookURL, cc.WebhookSecret), nil
	}
}

// shutdownTimeout bounds how long in-flight requests may run after the
// context is cancelled.
var shutdownTimeout = 5 * time.Second

func listenAndServe(ctx context.Context, sc config.ServerConfig, h http.Handler, logger observability.Logger) error {
	listener, err := net.Listen("tcp", sc.Addr)
	if err != nil {
		return goerr.Wrap(err, "failed to listen", goerr.V("addr", sc.Addr))
	}
	return serve(ctx, listener, sc, h, logger)
}

// serve runs until ctx is done, then returns only after in-flight requests
// have drained or shutdownTimeout has passed.
func serve(ctx context.Context, listener net.Listener, sc config.ServerConfig, h http.Handler, logger observability.Logger) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: sc.ReadTimeout,
		ReadTimeout:       sc.ReadTimeout,
		WriteTimeout:      sc.WriteTimeout,
	}
	logger.Info("serving contact endpoint", observability.String("addr", listener.Addr().String()))

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return goerr.Wrap(err, "server error")
	}
	// Serve returns as soon as Shutdown starts; wait for the drain.
	if err := <-shutdownErr; err != nil {
		return goerr.Wrap(err, "graceful shutdown incomplete", goerr.V("timeout", shutdownTimeout))
	}
	logger.Info("contact endpoint stopped")
	return nil
}
