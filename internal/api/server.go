// Package api serves stored runs and their reconciliation results over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/contact-cli/internal/model"
	"github.com/sells-group/contact-cli/internal/store"
)

// Handler exposes read-only run endpoints backed by a store.
type Handler struct {
	store store.Store
}

// NewRouter builds the HTTP router for st.
func NewRouter(st store.Store, allowedOrigins []string) http.Handler {
	h := &Handler{store: st}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.health)
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", h.listRuns)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getRun)
			r.Get("/contacts", h.listContacts)
			r.Get("/matches", h.listMatches)
		})
	})
	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.RunFilter{
		Status: model.RunStatus(q.Get("status")),
		Kind:   q.Get("kind"),
	}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	runs, err := h.store.ListRuns(r.Context(), filter)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *Handler) listContacts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.GetRun(r.Context(), id); err != nil {
		h.storeError(w, r, err)
		return
	}
	contacts, err := h.store.ListContacts(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if contacts == nil {
		contacts = []model.ContactRecord{}
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (h *Handler) listMatches(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.GetRun(r.Context(), id); err != nil {
		h.storeError(w, r, err)
		return
	}
	records, err := h.store.ListMatches(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if status := r.URL.Query().Get("status"); status != "" {
		records = filterStatus(records, model.MatchStatus(status))
	}
	if records == nil {
		records = []model.ReconciledRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	zap.L().Error("api: store query failed", zap.String("path", r.URL.Path), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func filterStatus(records []model.ReconciledRecord, status model.MatchStatus) []model.ReconciledRecord {
	var out []model.ReconciledRecord
	for _, rec := range records {
		if rec.Match.Status == status {
			out = append(out, rec)
		}
	}
	return out
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid integer")
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
