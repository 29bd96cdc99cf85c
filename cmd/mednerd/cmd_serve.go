package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"mednerd/internal/logging"
	"mednerd/internal/server"
	coresys "mednerd/internal/system"
)

var serveAddr string

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API over HTTP",
	Long: `Starts the HTTP API:

  POST /analyze-symptoms?symptoms=...
  POST /analyze-report   (multipart field "file")
  POST /analyze-image    (multipart field "file")
  GET  /knowledge, /health, /metrics`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	cortex, err := coresys.BootCortex(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to boot cortex: %w", err)
	}
	defer func() {
		if err := cortex.Close(context.WithoutCancel(ctx)); err != nil {
			logging.Get(logging.CategoryAPI).Error("Failed to close cortex: %v", err)
		}
	}()

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.NewRouter(server.NewHandlers(cortex, cfg.Server.MaxUploadSize), verbose)

	logging.API("Starting mednerd API on %s with %d conditions", addr, cortex.Store.Len())
	return server.Serve(ctx, addr, router)
}
