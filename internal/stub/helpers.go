package stub

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/exotrack/exotrack-console/internal/domain"

	"go.uber.org/zap"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// errorBody is the stub's error envelope. Message is string-typed for single
// errors and an array for validation errors, matching the production API's
// loose shape.
type errorBody struct {
	Message any `json:"message"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Message: msg})
}

// writeValidationError emits the message-array form.
func writeValidationError(w http.ResponseWriter, msgs []string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Message: msgs})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// pageEnvelope is the list response shape: {data, total, limit, offset}.
type pageEnvelope struct {
	Data   any `json:"data"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// parsePageQuery reads limit/offset with defaults and caps.
func parsePageQuery(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	offset = 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxPageSize {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return
}

// handleStoreError maps store errors to HTTP responses.
func handleStoreError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var unauthorized *domain.ErrUnauthorized
	var validation *domain.ErrValidation
	var conflict *domain.ErrConflict
	var forbidden *domain.ErrForbidden

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeValidationError(w, []string{err.Error()})
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &forbidden):
		logger.Warn("forbidden", zap.String("error", err.Error()))
		writeError(w, http.StatusForbidden, err.Error())
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// lineItemView serializes amounts as decimal strings, the loosest shape the
// production API is known to emit. Clients must coerce.
type lineItemView struct {
	ID            string    `json:"id"`
	DeclarationID string    `json:"declarationId"`
	Concept       string    `json:"concept"`
	Amount        string    `json:"amount"`
	Source        string    `json:"source"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toItemView(i domain.LineItem) lineItemView {
	return lineItemView{
		ID:            i.ID,
		DeclarationID: i.DeclarationID,
		Concept:       i.Concept,
		Amount:        strconv.FormatFloat(i.Amount.Float64(), 'f', 2, 64),
		Source:        string(i.Source),
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
}

func toItemViews(items []domain.LineItem) []lineItemView {
	views := make([]lineItemView, 0, len(items))
	for _, i := range items {
		views = append(views, toItemView(i))
	}
	return views
}
