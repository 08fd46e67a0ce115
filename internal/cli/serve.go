package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mrz1836/skillmint/internal/notify"
	"github.com/mrz1836/skillmint/internal/server"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var (
	serveListen    string
	serveNoConnect bool
)

// serveCmd runs the browser storefront.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the storefront to a browser",
	Long: `Serve the storefront page, a JSON API, live notifications over a
websocket and Prometheus metrics.

Routes:
  GET  /                     storefront page
  GET  /api/state            current storefront model
  POST /api/connect          connect the wallet
  POST /api/refresh          reload prices and ownership
  POST /api/purchase/:id     start a purchase
  POST /api/wallet/select    switch account ({"index": n})
  POST /api/wallet/lock      lock the wallet
  GET  /ws                   notification stream
  GET  /metrics              Prometheus metrics
  GET  /health               liveness

POST routes require Content-Type: application/json and refuse requests
sent from another origin.

Signing requests are confirmed in the terminal running serve unless
--yes is given.`,
	Example: `  skillmint serve --yes
  skillmint serve --listen 0.0.0.0:8080 --no-connect`,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default from server.listen)")
	serveCmd.Flags().BoolVar(&serveNoConnect, "no-connect", false, "wait for the browser to connect the wallet")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveListen != "" {
		cfg.Server.Listen = serveListen
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := newStore(ctx)
	if err != nil {
		return err
	}
	defer env.close()

	ch, unsubscribe := env.client.Notifications(notify.DefaultBuffer)
	go logNotifications(ch)
	defer unsubscribe()

	if !serveNoConnect {
		if err := env.client.Connect(ctx); err != nil {
			logger.Warn("wallet not connected", zap.Error(err))
		}
	}

	if !cfg.Output.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	srv, err := server.New(env.client, env.metrics, logger)
	if err != nil {
		return err
	}

	out(cmd.ErrOrStderr(), "Storefront running at http://%s\n", cfg.Server.Listen)
	return srv.Run(ctx, cfg.Server.Listen)
}

// logNotifications records storefront notifications until ch closes.
func logNotifications(ch <-chan notify.Notification) {
	for n := range ch {
		fields := []zap.Field{zap.String("kind", string(n.Kind))}
		if n.Item != 0 {
			fields = append(fields, zap.Uint64("course", n.Item))
		}
		if n.TxHash != "" {
			fields = append(fields, zap.String("tx", n.TxHash))
		}
		if n.Kind.IsError() {
			logger.Warn(n.Message, fields...)
			continue
		}
		logger.Info(n.Message, fields...)
	}
}
