package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/loanmesh/server"
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API.

Routes:
  POST   /v1/sessions                          create a session
  GET    /v1/sessions/{id}                     fetch the application record
  DELETE /v1/sessions/{id}                     discard a session
  POST   /v1/sessions/{id}/messages            process one inbound message
  POST   /v1/sessions/{id}/documents           upload a document (multipart)
  PUT    /v1/sessions/{id}/otp-phone           override the code phone number
  GET    /v1/sessions/{id}/artifacts/{name}    download a letter or upload
  GET    /metrics                              Prometheus metrics
  GET    /health                               liveness

Examples:
  # Serve with defaults on :8080
  loanmesh serve

  # Durable sessions
  LOANMESH_STORE_DRIVER=sqlite loanmesh serve --addr :9000`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := server.New(a.mesh, func(o *server.Options) {
		o.Artifacts = a.mesh.Artifacts()
		o.Gatherer = a.registry
		o.MaxUploadBytes = a.cfg.Server.MaxUploadBytes
		o.Logger = a.logger
	})

	return srv.ListenAndServe(ctx, &http.Server{
		Addr:         addr,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}, a.cfg.Server.ShutdownTimeout)
}
