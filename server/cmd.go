package server

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var CMD = &cobra.Command{
	Use:   "server",
	Short: "start the video library api server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(cmd.Flags())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return Run(ctx, cfg)
	},
}

func init() {
	d := DefaultConfig()
	f := CMD.Flags()
	f.String("config", "", "Path to a YAML or JSON config file")
	f.String("addr", d.Addr, "Address to listen on")
	f.String("data", d.Data, "Path to the videos JSON file")
	f.String("store", d.Store, "Store backend: file or pebble")
	f.String("pebble-dir", d.PebbleDir, "Directory of the pebble store")
	f.String("env", d.Env, "Environment name, development includes error stacks in responses")
	f.String("frontend-url", d.FrontendURL, "Origin allowed by CORS")
	f.String("metrics-addr", d.MetricsAddr, "Address of the /metrics and /healthz server, empty disables it")
	f.String("otel-endpoint", "", "OTLP gRPC endpoint, empty disables trace export")
	f.String("bus", d.Bus, "Event bus: solo, embedded or a nats:// url")
	f.String("webhook", "", "URL that receives every video event as a POST")
	f.Bool("date-filter", false, "Filter listings by dateFrom/dateTo, otherwise both are ignored")
	f.Int("rate-limit", 0, "Requests per minute per client ip, 0 disables limiting")
	f.String("log-level", d.LogLevel, "debug, info, warn or error")
	f.String("ca-cert", "", "Path to CA certificate file for client verification (enables mTLS)")
	f.String("server-cert", "", "Path to server certificate file")
	f.String("server-key", "", "Path to server private key file")
}
