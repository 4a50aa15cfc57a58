package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"propdesk/config"
	"propdesk/config/database"
	"propdesk/internal/campaign/metrics"
	"propdesk/internal/media"
	"propdesk/middleware"
	"propdesk/pkg/docstore"
	"propdesk/pkg/logger"
	"propdesk/router"
	"propdesk/socket"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

type ServeOptions struct {
	*RootOptions
	Migrate bool
}

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Start the HTTP and WebSocket server",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Migrate, "migrate", true, "apply the schema before serving")

	return cmd
}

func serve(parent context.Context, opts *ServeOptions) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	defer logger.Sync()
	if err := cfg.Validate(); err != nil {
		return err
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	if opts.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	docs := docstore.NewStore(db, docstore.NewCodec(cfg.TaggedArrays))

	known := map[string]bool{}
	for _, c := range router.Collections() {
		known[c] = true
	}
	hub := socket.NewHub(socket.DocstoreLoader{Docs: docs, Collections: known}, nil)
	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()

	source, err := metricsClient(cfg)
	if err != nil {
		return err
	}

	storage, err := media.NewLocalStorage(cfg.Media.Dir, cfg.Media.BaseURL)
	if err != nil {
		return err
	}

	handler := router.Setup(router.Deps{
		DB:            db,
		Docs:          docs,
		Hub:           hub,
		Metrics:       middleware.NewMetrics(),
		MetricsSource: source,
		Storage:       storage,
		MediaDir:      storage.Root,
		JWTSecret:     cfg.Auth.JWTSecret,
		CORS:          middleware.CORS(cfg.CORS),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Sugar.Infof("propdesk listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		stop()
		<-hubDone
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Sugar.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar.Errorf("Graceful shutdown failed: %v", err)
	}
	<-hubDone
	return nil
}

// metricsClient builds the upstream metrics client, cached in Redis when an
// address is configured.
func metricsClient(cfg config.Config) (*metrics.Client, error) {
	var cache metrics.Cache
	if cfg.Redis.Addr != "" {
		rdb, err := metrics.NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, err
		}
		cache = metrics.RedisCache{Client: rdb}
	} else {
		logger.Sugar.Warn("REDIS_ADDR not set, campaign metrics will not be cached")
	}
	return metrics.NewClient(cfg.Metrics.Endpoint, cfg.Metrics.Timeout, cache, cfg.Metrics.CacheTTL), nil
}
