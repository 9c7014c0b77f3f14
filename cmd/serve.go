package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/model"
	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the workflow HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initWorkflow(ctx, "serve")
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
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

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

func newRouter(env *workflowEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/workflows", func(r chi.Router) {
		r.Post("/", handleStartWorkflow(env))
		r.Get("/", handleListWorkflows(env))
		r.Get("/{id}", handleGetWorkflow(env))
		r.Get("/{id}/results", handleGetResults(env))
		r.Get("/{id}/snapshots", handleListSnapshots(env))
		r.Get("/{id}/snapshots/{stage}", handleGetSnapshot(env))
		r.Get("/{id}/events", handleEvents(env))
	})

	return r
}

func handleStartWorkflow(env *workflowEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QADocRef    string `json:"qa_document_ref"`
			SupplierRef string `json:"supplier_bom_ref"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.QADocRef == "" || req.SupplierRef == "" {
			writeError(w, http.StatusBadRequest, "qa_document_ref and supplier_bom_ref are required")
			return
		}

		run, err := env.Store.CreateRun(r.Context(), req.QADocRef, req.SupplierRef)
		if err != nil {
			zap.L().Error("api: create run failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to create workflow")
			return
		}

		// The request context dies with the response; the run gets its own.
		go func() {
			if _, err := env.Pipeline.Run(context.Background(), run); err != nil {
				zap.L().Error("api: workflow failed",
					zap.String("run_id", run.ID),
					zap.Error(err),
				)
			}
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{
			"workflow_id": run.ID,
			"status":      string(run.Status),
		})
	}
}

func handleListWorkflows(env *workflowEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}

		runs, err := env.Store.ListRuns(r.Context(), store.RunFilter{
			Status: model.RunStatus(r.URL.Query().Get("status")),
			Limit:  limit,
		})
		if err != nil {
			zap.L().Error("api: list runs failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to list workflows")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"workflows": runs})
	}
}

func handleGetWorkflow(env *workflowEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := env.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "workflow not found")
			return
		}
		writeJSON(w, http.StatusOK, run)
	}
}

func handleGetResults(env *workflowEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := env.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "workflow not found")
			return
		}
		if run.Result == nil {
			writeError(w, http.StatusConflict, "workflow has no results yet")
			return
		}
		writeJSON(w, http.StatusOK, run.Result)
	}
}

func handleListSnapshots(env *workflowEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := env.Store.GetRun(r.Context(), id); err != nil {
			writeError(w, http.StatusNotFound, "workflow not found")
			return
		}

		stages, err := env.Store.ListSnapshotStages(r.Context(), id)
		if err != nil {
			zap.L().Error("api: list snapshots failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to list snapshots")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"stages": stages})
	}
}

func handleGetSnapshot(env *workflowEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		stage := model.Stage(chi.URLParam(r, "stage"))

		data, err := env.Store.GetSnapshot(r.Context(), id, stage)
		if err != nil {
			zap.L().Error("api: get snapshot failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to load snapshot")
			return
		}
		if data == nil {
			writeError(w, http.StatusNotFound, "snapshot not found")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

// handleEvents streams run progress as server-sent events until the run
// reaches a terminal status or the client disconnects.
func handleEvents(env *workflowEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}

		id := chi.URLParam(r, "id")
		if _, err := env.Store.GetRun(r.Context(), id); err != nil {
			writeError(w, http.StatusNotFound, "workflow not found")
			return
		}

		updates, cancel := env.Broker.Subscribe(id)
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case u, open := <-updates:
				if !open {
					return
				}
				payload, err := json.Marshal(u)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "data: %s\n\n", payload)
				flusher.Flush()
				if model.RunStatus(u.Status).Terminal() {
					return
				}
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
