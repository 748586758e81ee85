package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/KaramelBytes/reviewloom-cli/internal/ai"
	"github.com/KaramelBytes/reviewloom-cli/internal/pipeline"
	"github.com/KaramelBytes/reviewloom-cli/internal/server"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var (
	srvAddr      string
	srvUploadDir string
	srvProvider  string
	srvModel     string
	srvDebug     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis pipeline over HTTP (POST /analyze, GET /healthz)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, addr, err := newServer()
		if err != nil {
			return err
		}
		if !srvDebug {
			gin.SetMode(gin.ReleaseMode)
		}
		httpServer := &http.Server{
			Addr:              addr,
			Handler:           srv.Router(),
			ReadHeaderTimeout: 15 * time.Second,
			WriteTimeout:      5 * time.Minute,
			IdleTimeout:       120 * time.Second,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			log.Printf("Starting HTTP server on %s (uploads in %s)", addr, srv.UploadDir)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err, ok := <-errCh:
			if ok {
				return fmt.Errorf("listen on %s: %w", addr, err)
			}
			return nil
		case <-ctx.Done():
		}
		log.Printf("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		log.Printf("✓ HTTP server stopped")
		return nil
	},
}

// newServer assembles the HTTP server from config and flags.
func newServer() (*server.Server, string, error) {
	opt, err := pipelineOptions(cfg)
	if err != nil {
		return nil, "", err
	}
	opt.Logf = func(format string, args ...any) { log.Printf(format, args...) }
	if quiet {
		opt.Logf = nil
	}

	addr := srvAddr
	if addr == "" && cfg != nil {
		addr = cfg.ServeAddr
	}
	if addr == "" {
		addr = ":8080"
	}
	dir := srvUploadDir
	if dir == "" && cfg != nil {
		dir = cfg.UploadDir
	}
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "reviewloom-uploads")
	}

	srv := &server.Server{Pipeline: opt, UploadDir: dir}
	if provider := selectProvider(cfg, srvProvider); provider != ai.ProviderNone {
		if _, err := buildRuntime(cfg, provider); err != nil {
			return nil, "", err
		}
		model := srvModel
		srv.Summarize = func(ctx context.Context, res *pipeline.Result) ([]string, error) {
			return summarize(ctx, cfg, provider, model, res, opt.Logf)
		}
	}
	return srv, addr, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (default from config: serve_addr)")
	serveCmd.Flags().StringVar(&srvUploadDir, "upload-dir", "", "directory for temporary uploads (default from config: upload_dir)")
	serveCmd.Flags().StringVar(&srvProvider, "provider", "", "summary provider for ?summarize=true (overrides config)")
	serveCmd.Flags().StringVar(&srvModel, "model", "", "summary model (overrides config)")
	serveCmd.Flags().BoolVar(&srvDebug, "debug", false, "run gin in debug mode")
}
