package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/oserdar/punchr/internal/session"
	"github.com/oserdar/punchr/internal/store"
)

// Handler exposes the attendance engine over HTTP.
type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// NewRouter assembles the full router with standard middleware.
func NewRouter(engine *Engine) chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	NewHandler(engine).RegisterRoutes(r)
	return r
}

// RegisterRoutes registers the attendance routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.Get("/status", h.GetStatus)
		r.Post("/clock-in", h.ClockIn)
		r.Post("/clock-out", h.ClockOut)
		r.Post("/start-break", h.StartBreak)
		r.Post("/end-break", h.EndBreak)
		r.Get("/history", h.History)
	})
	r.Post("/backend/update-report", h.UpdateReport)
}

// userID resolves the acting user. There is no auth layer here; identity
// rides on a header the way a gateway in front of this service would set it.
func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-Id"); id != "" {
		return id
	}
	return "local"
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.Status(userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, snap)
}

func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.ClockIn(userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	slog.Info("clock in", "user_id", userID(r))
	JSON(w, http.StatusOK, snap)
}

type clockOutRequest struct {
	DailyReport string `json:"daily_report"`
}

func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	var req clockOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	snap, err := h.engine.ClockOut(userID(r), req.DailyReport)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	slog.Info("clock out", "user_id", userID(r))
	JSON(w, http.StatusOK, snap)
}

func (h *Handler) StartBreak(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.StartBreak(userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, snap)
}

func (h *Handler) EndBreak(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.EndBreak(userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, snap)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := store.HistoryFilter{UserID: userID(r)}
	if id := q.Get("user_id"); id != "" {
		f.UserID = id
	}
	if v := q.Get("start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			Error(w, http.StatusBadRequest, "invalid start_date")
			return
		}
		f.From = &t
	}
	if v := q.Get("end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			Error(w, http.StatusBadRequest, "invalid end_date")
			return
		}
		f.To = &t
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.Limit = n
		}
	}

	logs, err := h.engine.History(f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{
		"logs":  logs,
		"total": len(logs),
	})
}

type updateReportRequest struct {
	DailyReport string `json:"daily_report"`
}

func (h *Handler) UpdateReport(w http.ResponseWriter, r *http.Request) {
	var req updateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.engine.UpdateTodayReport(userID(r), req.DailyReport); err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"ok": true})
}

// fail maps engine errors to HTTP. Transition conflicts are 409 so a
// client can tell "state changed under you" from malformed input; the
// verbatim message always travels to the client.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrAlreadyClockedIn),
		errors.Is(err, ErrNotClockedIn),
		errors.Is(err, ErrOnBreak),
		errors.Is(err, ErrNotOnBreak),
		errors.Is(err, ErrBreakOpen):
		Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrNoSessionToday), errors.Is(err, ErrReportLocked):
		Error(w, http.StatusUnprocessableEntity, err.Error())
	default:
		if isValidation(err) {
			Error(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("attendance request failed", "path", r.URL.Path, "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

// isValidation marks report-policy failures, which carry user-facing text.
func isValidation(err error) bool {
	var ve *session.ReportTooShortError
	return errors.As(err, &ve)
}

// JSON writes v as a JSON response.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// Error writes a JSON error payload with the given message.
func Error(w http.ResponseWriter, code int, msg string) {
	JSON(w, code, map[string]string{"error": msg})
}
