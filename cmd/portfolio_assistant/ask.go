package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/assistant"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/knowledge"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/logging"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/observability"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/proxy"
)

var (
	askDirect bool
	askStats  bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one question from the command line",
	Long: `Load the model, compile the knowledge passage and answer a single question.
Model assets are fetched through an in-process asset proxy unless --direct is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askDirect, "direct", false, "Fetch model assets straight from the providers")
	askCmd.Flags().BoolVar(&askStats, "stats", false, "Print model load and answer metrics")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(os.Getenv)
	if err != nil {
		return err
	}
	logger, err := logging.NewCLI(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	facts, err := loadFacts(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to load facts: %w", err)
	}

	gatewayBase := ""
	if !askDirect {
		base, stop, err := startLocalGateway(proxy.NewGateway(proxyConfig(cfg), nil, logger), logger)
		if err != nil {
			return err
		}
		defer stop()
		gatewayBase = base
	}

	metrics := observability.NewMetrics()
	ld, release := newLoader(cfg, gatewayBase, metrics, logger)
	defer release()

	printer := observability.NewPrinter(cmd.OutOrStdout())
	loadErr := ld.Load(ctx)
	st := ld.Status()
	printer.PrintLoadStatus(string(st.State), st.Backend, st.Duration().Round(time.Millisecond).String(), loadErr)
	if loadErr != nil {
		return fmt.Errorf("model load failed: %w", loadErr)
	}

	question := strings.Join(args, " ")
	pipeline := assistant.NewPipeline(
		assistant.NewEngine(ld, knowledge.NewCache(facts)),
		assistant.NewRouter(facts),
	)
	if err := answer(ctx, cmd.OutOrStdout(), pipeline, metrics, question); err != nil {
		logger.Warn("answer failed", zap.Error(err))
	}

	if askStats {
		printer.PrintMetrics(metrics.Snapshot())
	}
	return nil
}

// answer runs one question through the pipeline and prints the reply. A
// failed turn prints the apology and returns the cause.
func answer(ctx context.Context, out io.Writer, responder *assistant.Pipeline, metrics *observability.Metrics, question string) error {
	printer := observability.NewPrinter(out)
	if strings.TrimSpace(question) == "" {
		metrics.RecordRejected()
		return errors.New("question is empty")
	}

	reply, err := responder.Respond(ctx, question)
	if err != nil {
		metrics.RecordInferenceError()
		printer.PrintAnswer(question, assistant.ApologyReply, "error", nil)
		return err
	}
	metrics.RecordAnswer(string(reply.Source))
	printer.PrintAnswer(question, reply.Text, string(reply.Source), reply.Answer)
	return nil
}

// startLocalGateway serves the asset proxy on an ephemeral loopback port and
// returns its origin.
func startLocalGateway(gateway http.Handler, logger *zap.Logger) (string, func(), error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to start local asset proxy: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(proxy.RoutePrefix+"{path...}", gateway)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("local asset proxy stopped", zap.Error(err))
		}
	}()

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return "http://" + ln.Addr().String(), stop, nil
}
