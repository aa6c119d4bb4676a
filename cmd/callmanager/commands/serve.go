package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rafq345/callmanager/pkg/cli"
	"github.com/rafq345/callmanager/pkg/relay"
)

var serveFlags struct {
	addr        string
	upstreamURL string
	callsURL    string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the glue proxy server",
	Long: `Run the HTTP server that browser and CLI clients use instead of talking
to the realtime API directly.

Routes:
  POST /realtime/calls   JSON {sdp, model, voice, instructions} -> answer SDP
  GET  /ws-proxy         websocket byte relay ({type:"connect"} handshake)
  GET  /healthz          liveness
  GET  /metrics          Prometheus metrics

Clients pass their key as "Authorization: Bearer" (calls) or in the
connect frame (relay). $OPENAI_API_KEY, when set, is used for clients that
send none.

Environment:
  CALLMANAGER_ADDR   listen address (default :8080)
  OPENAI_API_KEY     fallback API key`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveFlags.addr
		if addr == "" {
			addr = envOr("CALLMANAGER_ADDR", ":8080")
		}
		srv := &http.Server{
			Addr: addr,
			Handler: relay.NewServer(relay.ServerConfig{
				UpstreamURL: serveFlags.upstreamURL,
				CallsURL:    serveFlags.callsURL,
				APIKey:      os.Getenv(cli.EnvAPIKey),
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errc := make(chan error, 1)
		go func() {
			slog.Info("glue server listening", "addr", addr)
			errc <- srv.ListenAndServe()
		}()

		select {
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", "", "listen address (default $CALLMANAGER_ADDR or :8080)")
	serveCmd.Flags().StringVar(&serveFlags.upstreamURL, "upstream", "", "realtime websocket URL")
	serveCmd.Flags().StringVar(&serveFlags.callsURL, "calls-url", "", "SDP exchange URL")
	rootCmd.AddCommand(serveCmd)
}
