package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/apexperf/roster-cli/internal/importer"
	"github.com/apexperf/roster-cli/internal/model"
	"github.com/apexperf/roster-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
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
			AllowedOrigins: cfg.Server.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/api/import", handleImport(env))
		r.Post("/api/ocr", handleOCR(env))
		r.Get("/api/review", handleReviewList(env))
		r.Post("/api/review/{id}/approve", handleReviewDecision(env, model.ReviewActionApprove))
		r.Post("/api/review/{id}/reject", handleReviewDecision(env, model.ReviewActionReject))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// handleImport runs a batch of rows through the import pipeline. The
// batch completes even when individual rows fail; per-row errors come
// back in the result body.
func handleImport(env *pipelineEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Rows           []model.RowInput `json:"rows"`
			ActingUserID   string           `json:"acting_user_id"`
			OrganizationID string           `json:"organization_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.ActingUserID == "" {
			writeError(w, http.StatusBadRequest, "acting_user_id is required")
			return
		}
		if len(req.Rows) == 0 {
			writeError(w, http.StatusBadRequest, "rows must not be empty")
			return
		}

		result, err := env.Importer.ImportRows(r.Context(), req.Rows, importer.Context{
			ActingUserID:          req.ActingUserID,
			DefaultOrganizationID: req.OrganizationID,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"summary": result.Summary(),
			"result":  result,
		})
	}
}

// handleOCR extracts candidate rows from one uploaded image without
// importing them; the caller reviews the extraction first.
func handleOCR(env *pipelineEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("image")
		if err != nil {
			writeError(w, http.StatusBadRequest, "image file is required")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read image")
			return
		}

		result := env.OCR.ExtractFromImage(r.Context(), data)
		if result.Error != "" {
			writeJSON(w, http.StatusUnprocessableEntity, result)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func handleReviewList(env *pipelineEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := env.Queue.ListPending(r.Context(), r.URL.Query().Get("org"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleReviewDecision(env *pipelineEnv, action model.ReviewAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ReviewerID string `json:"reviewer_id"`
			Notes      string `json:"notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.ReviewerID == "" {
			writeError(w, http.StatusBadRequest, "reviewer_id is required")
			return
		}

		item, err := env.Queue.Decide(r.Context(), chi.URLParam(r, "id"), action, req.ReviewerID, req.Notes)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, item)
		case eris.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "review item not found")
		case eris.Is(err, store.ErrAlreadyDecided):
			writeError(w, http.StatusConflict, "review item already decided")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
