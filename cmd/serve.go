package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the status API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
			articles, err := env.Store.CountArticles(req.Context())
			if err != nil {
				zap.L().Error("status: article count failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store unavailable"})
				return
			}
			depth, err := env.Queue.Depth(req.Context())
			if err != nil {
				zap.L().Error("status: queue depth failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "queue unavailable"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]int{
				"articles":    articles,
				"queue_depth": depth,
			})
		})

		// One triggered run at a time; the feed client paces a shared
		// upstream budget.
		var ingestRunning atomic.Bool

		r.Post("/ingest", func(w http.ResponseWriter, req *http.Request) {
			if !ingestRunning.CompareAndSwap(false, true) {
				writeJSON(w, http.StatusConflict, map[string]string{"status": "ingestion already running"})
				return
			}

			to := time.Now().UTC()
			from := to.Add(-time.Duration(cfg.Feed.WindowHours) * time.Hour)

			// Run asynchronously; the caller gets an acceptance, not a result.
			go func() {
				defer ingestRunning.Store(false)
				result, err := env.Ingest.Run(ctx, cfg.Feed.Query, from, to, cfg.Feed.MaxPages)
				if err != nil {
					zap.L().Error("triggered ingestion failed", zap.Error(err))
					return
				}
				zap.L().Info("triggered ingestion finished",
					zap.Int("new", result.New),
					zap.Int("duplicates", result.Duplicates),
				)
			}()

			writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
