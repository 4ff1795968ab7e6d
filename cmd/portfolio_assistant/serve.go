package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/chat"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/config"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/logging"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/observability"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/portfolio"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/proxy"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/server"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/server/ratelimit"
)

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the assistant HTTP server",
	Long: `Start an HTTP server that exposes the model asset proxy, the model status,
the knowledge passage and the chat session API. The model starts loading in the
background as soon as the server is listening.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config, e.g. :8080)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", true, "Reload the facts file when it changes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(os.Getenv, func(cfg *config.Config) {
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}
	})
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	facts, err := loadFacts(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to load facts: %w", err)
	}
	store := portfolio.NewStore(facts)

	if serveWatch && cfg.FactsFile != "" {
		watcher := portfolio.NewWatcher(cfg.FactsFile, store, logger)
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("failed to watch facts file: %w", err)
		}
		defer func() { _ = watcher.Stop() }()
	}

	jwtConfig, err := sessionTokenConfig(logger)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	gateway := proxy.NewGateway(proxyConfig(cfg), nil, logger.Named("proxy"))

	// Listen before loading so rerouted asset requests reach the gateway.
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
	}

	ld, release := newLoader(cfg, cfg.GatewayBase(ln.Addr().String()), metrics, logger.Named("loader"))
	defer release()

	sessions := chat.NewManager(server.NewSessionFactory(server.SessionDeps{
		Facts:   store,
		Finder:  ld,
		Ready:   func() bool { return ld.Status().Ready() },
		Metrics: metrics,
		Logger:  logger.Named("chat"),
	}), time.Duration(cfg.SessionIdleMinutes)*time.Minute, logger.Named("chat"))
	defer sessions.Close()
	go sessions.Run(ctx, time.Minute)

	srv := server.New(server.Config{
		Addr:          cfg.Addr,
		AllowedOrigin: cfg.AllowedOrigin,
	}, server.Deps{
		Gateway:  gateway,
		Loader:   ld,
		Sessions: sessions,
		Facts:    store,
		Tokens:   server.NewTokenService(jwtConfig),
		Metrics:  metrics,
		Limiter:  ratelimit.NewLimiter(ratelimit.LoadConfig(os.Getenv, cfg.ChatRatePerMinute)),
		Logger:   logger,
	})

	ld.Start(ctx)
	go logLoadOutcome(ctx, ld.Done(), func() {
		st := ld.Status()
		if st.Err != nil {
			logger.Error("model load failed", zap.Error(st.Err))
			return
		}
		logger.Info("model ready", zap.String("backend", st.Backend), zap.Duration("took", st.Duration()))
	})

	return srv.Serve(ctx, ln)
}

func logLoadOutcome(ctx context.Context, done <-chan struct{}, report func()) {
	select {
	case <-done:
		report()
	case <-ctx.Done():
	}
}

// sessionTokenConfig reads the JWT settings, falling back to a per-process
// secret when JWT_SECRET is unset.
func sessionTokenConfig(logger *zap.Logger) (*config.JWTConfig, error) {
	if os.Getenv("JWT_SECRET") == "" {
		logger.Warn("JWT_SECRET not set; session tokens will not survive a restart")
		return config.EphemeralJWTConfig()
	}
	cfg, err := config.NewJWTConfig(os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}
	return cfg, nil
}
