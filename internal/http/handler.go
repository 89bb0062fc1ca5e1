package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/davidbz/promptician/internal/domain"
	"github.com/davidbz/promptician/internal/observability"
)

const maxBodyBytes = 1 << 20

// Handler handles HTTP requests for the playground.
type Handler struct {
	session  *domain.SessionService
	history  *domain.HistoryService
	registry domain.ProviderRegistry
	events   *observability.EventBus
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(
	session *domain.SessionService,
	history *domain.HistoryService,
	registry domain.ProviderRegistry,
	events *observability.EventBus,
) *Handler {
	return &Handler{
		session:  session,
		history:  history,
		registry: registry,
		events:   events,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type loadRequest struct {
	ID       string `json:"id"`
	Editable bool   `json:"editable"`
}

type ratingRequest struct {
	Rating string `json:"rating"`
}

type evaluationRequest struct {
	Rating *string `json:"rating"`
	Star   bool    `json:"star"`
}

type recordResponse struct {
	domain.Record
	Summary string `json:"summary"`
}

type submitResponse struct {
	Result   *domain.CompletionResult `json:"result,omitempty"`
	Snapshot domain.Snapshot          `json:"snapshot"`
}

// HandleSession returns the current session snapshot.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, h.session.Snapshot())
}

// HandleFields replaces the editable fields.
func (h *Handler) HandleFields(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var fields domain.Fields
	if !decodeBody(w, r, &fields) {
		return
	}

	h.session.SetFields(ctx, fields)
	writeJSON(ctx, w, http.StatusOK, h.session.Snapshot())
}

// HandleSubmit requests a completion for the current fields. The call blocks
// until the completion arrives or fails. A client disconnect does not cancel
// it; only the session request timeout does.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := observability.WithSessionID(context.WithoutCancel(r.Context()), h.session.ID())
	logger := observability.FromContext(ctx)

	result, err := h.session.Submit(ctx)
	if err != nil {
		status := submitErrorStatus(err)
		logger.Warn("submit failed", zap.Int("status", status), zap.Error(err))
		writeError(ctx, w, status, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, submitResponse{
		Result:   result,
		Snapshot: h.session.Snapshot(),
	})
}

// HandleReset restores the default fields and clears the pending result.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	h.session.Reset(ctx)
	writeJSON(ctx, w, http.StatusOK, h.session.Snapshot())
}

// HandleSave persists the pending result with the current prompt and evaluation.
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.session.Save(ctx); err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, h.session.Snapshot())
}

// HandleToggleRating selects a rating, or clears it when already selected.
func (h *Handler) HandleToggleRating(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ratingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rating, err := domain.ParseRating(req.Rating)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	h.evaluate(w, r, func(ctx context.Context) error {
		return h.session.ToggleRating(ctx, rating)
	})
}

// HandleToggleStar flips the star flag.
func (h *Handler) HandleToggleStar(w http.ResponseWriter, r *http.Request) {
	h.evaluate(w, r, h.session.ToggleStar)
}

// HandleEvaluation replaces both rating and star.
func (h *Handler) HandleEvaluation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req evaluationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var rating *domain.Rating
	if req.Rating != nil {
		parsed, err := domain.ParseRating(*req.Rating)
		if err != nil {
			writeError(ctx, w, http.StatusBadRequest, err)
			return
		}
		rating = &parsed
	}

	h.evaluate(w, r, func(ctx context.Context) error {
		return h.session.SetEvaluation(ctx, rating, req.Star)
	})
}

func (h *Handler) evaluate(w http.ResponseWriter, r *http.Request, apply func(context.Context) error) {
	ctx := r.Context()

	if err := apply(ctx); err != nil {
		if errors.Is(err, domain.ErrEvaluationDisabled) {
			writeError(ctx, w, http.StatusConflict, err)
			return
		}
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, h.session.Snapshot())
}

// HandleLoad opens a stored record for editing or as a clone.
func (h *Handler) HandleLoad(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loadRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if _, err := h.history.Open(ctx, req.ID, req.Editable); err != nil {
		writeError(ctx, w, recordErrorStatus(err), err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, h.session.Snapshot())
}

// HandleRecords lists stored records matching the keywords query parameter.
func (h *Handler) HandleRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records := h.history.Search(ctx, r.URL.Query().Get("keywords"))

	response := make([]recordResponse, 0, len(records))
	for _, record := range records {
		response = append(response, recordResponse{Record: record, Summary: domain.Summary(record)})
	}
	writeJSON(ctx, w, http.StatusOK, response)
}

// HandleRecord returns a single stored record.
func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	record, err := h.history.Find(ctx, r.PathValue("id"))
	if err != nil {
		writeError(ctx, w, recordErrorStatus(err), err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, recordResponse{Record: record, Summary: domain.Summary(record)})
}

// HandleModels lists the models each registered provider serves directly.
func (h *Handler) HandleModels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeJSON(ctx, w, http.StatusOK, h.registry.Models(ctx))
}

// HandleEvents streams session snapshots as server-sent events, starting with
// the current one.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)

	events, unsubscribe := h.events.Subscribe()
	defer unsubscribe()

	rc := http.NewResponseController(w)
	// The stream outlives the server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, rc, h.session.Snapshot()); err != nil {
		logger.Debug("event stream closed", zap.Error(err))
		return
	}

	logger.Info("event stream started")
	for {
		select {
		case <-ctx.Done():
			logger.Info("event stream ended")
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Type != domain.EventStateChanged {
				continue
			}
			if err := writeEvent(w, rc, event.Data["snapshot"]); err != nil {
				logger.Debug("event stream closed", zap.Error(err))
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, snapshot any) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: state\ndata: %s\n\n", data); err != nil {
		return err
	}
	return rc.Flush()
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"session": string(h.session.Snapshot().State),
	})
}

func submitErrorStatus(err error) int {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRequestInFlight), errors.Is(err, domain.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, domain.ErrModelNotSupported):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrMissingCredential):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func recordErrorStatus(err error) int {
	if errors.Is(err, domain.ErrRecordNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	writeJSON(ctx, w, status, errorResponse{Error: err.Error()})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Already written status, can't change it, just log.
		observability.FromContext(ctx).Error("failed to encode response", zap.Error(err))
	}
}
