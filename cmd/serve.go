package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/enviducate/enviducate/internal/model"
	"github.com/enviducate/enviducate/internal/pipeline"
	"github.com/enviducate/enviducate/internal/store"
)

var servePort int

// shutdownTimeout bounds how long in-flight requests may drain on SIGINT/SIGTERM.
const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env),
		}

		// Graceful shutdown
		go shutdownOnDone(ctx, srv)

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// shutdownOnDone blocks until ctx is canceled, then drains the server. The
// signal context is already canceled at that point, so the drain window gets
// its own context; in-flight requests finish instead of being cut off.
func shutdownOnDone(ctx context.Context, srv *http.Server) {
	<-ctx.Done()
	zap.L().Info("shutting down server")
	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		zap.L().Warn("server shutdown", zap.Error(err))
	}
}

func newRouter(env *env) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/query", handleQuery(env))
		r.Post("/ingest", handleIngest(env))
		r.Get("/results/{id}", handleGetResult(env))
		r.Get("/cache/stats", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, env.Cache.Stats())
		})
	})

	return r
}

func handleQuery(env *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pipeline.QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "invalid request body")
			return
		}

		result, err := env.Pipeline.Query(r.Context(), req)
		if err != nil {
			writePipelineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// ingestRequest uploads a GeoJSON collection for visualization. The body is
// the raw feature collection; name/query/category ride in query parameters.
func handleIngest(env *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := readBody(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "unreadable request body")
			return
		}

		req := pipeline.ProcessRequest{
			Name:     r.URL.Query().Get("name"),
			Query:    r.URL.Query().Get("query"),
			Category: model.Category(r.URL.Query().Get("category")),
			Data:     data,
		}
		if req.Name == "" {
			req.Name = "upload"
		}

		result, err := env.Pipeline.ProcessCollection(r.Context(), req)
		if err != nil {
			writePipelineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func handleGetResult(env *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if env.Store == nil {
			writeError(w, http.StatusNotFound, "not_found", "result storage is not configured")
			return
		}

		id := chi.URLParam(r, "id")
		result, err := env.Store.GetResult(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			// Share tokens are served from the same endpoint.
			result, err = env.Store.GetResultByShareToken(r.Context(), id)
		}
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "not_found", "no result for id")
				return
			}
			zap.L().Error("get result", zap.String("id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal_error", "storage failure")
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// writePipelineError maps the pipeline error taxonomy onto HTTP statuses via
// each error's stable code.
func writePipelineError(w http.ResponseWriter, err error) {
	code := model.ErrorCode(err)
	status := http.StatusInternalServerError
	switch code {
	case "validation_error", "invalid_budget", "unsupported_geometry":
		status = http.StatusBadRequest
	case "incomplete_result", "internal_error":
		status = http.StatusInternalServerError
	}
	if status >= 500 {
		zap.L().Error("pipeline request failed", zap.String("code", code), zap.Error(err))
	}
	writeError(w, status, code, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, map[string]string{"error": code, "detail": detail})
}

// readBody reads the request body with a size cap; uploads beyond 32 MiB are
// rejected rather than buffered.
func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(http.MaxBytesReader(nil, r.Body, 32<<20))
}
