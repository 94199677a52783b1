package ingest

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"libraryapi/internal/httpx"
)

type HTTPHandler struct {
	svc    *Service
	secret string
}

func NewHTTPHandler(svc *Service, secret string) *HTTPHandler {
	return &HTTPHandler{svc: svc, secret: secret}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /internal/jobs/ingest", h.Ingest)
}

type ingestRequest struct {
	ISBNs []string `json:"isbns" validate:"required,min=1,dive,max=32"`
}

// Ingest handles POST /internal/jobs/ingest
// @Summary Import a batch of books from Open Library
// @Tags internal
// @Accept json
// @Produce json
// @Param X-Internal-Secret header string true "Internal secret for authentication"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /internal/jobs/ingest [post]
func (h *HTTPHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	secret := r.Header.Get("X-Internal-Secret")
	if h.secret != "" && subtle.ConstantTimeCompare([]byte(secret), []byte(h.secret)) != 1 {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid internal secret", nil)
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Malformed JSON body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", details)
		return
	}

	run, err := h.svc.Run(r.Context(), req.ISBNs)
	if errors.Is(err, ErrTooManyISBNs) {
		httpx.JSONError(w, r, http.StatusBadRequest, "TOO_MANY_ISBNS", err.Error(), nil)
		return
	}
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INGEST_FAILED", run.Error, nil)
		return
	}

	httpx.JSONSuccess(w, r, run, nil)
}
