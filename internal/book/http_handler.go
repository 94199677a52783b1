package book

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"libraryapi/internal/httpx"

	"github.com/rs/zerolog"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// Register mounts the book routes on mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/books", h.Create)
	mux.HandleFunc("GET /api/books", h.Find)
	mux.HandleFunc("POST /api/books/import", h.Import)
	mux.HandleFunc("GET /api/books/{id}", h.Get)
	mux.HandleFunc("PUT /api/books/{id}", h.Update)
	mux.HandleFunc("DELETE /api/books/{id}", h.Delete)
}

type createBookRequest struct {
	Title  string `json:"title" validate:"required,max=255"`
	Author string `json:"author" validate:"required,max=255"`
	ISBN   string `json:"isbn" validate:"required,max=32"`
}

type updateBookRequest struct {
	Title  string `json:"title" validate:"required,max=255"`
	Author string `json:"author" validate:"required,max=255"`
}

type importBookRequest struct {
	ISBN string `json:"isbn" validate:"required,max=32"`
}

// Create handles POST /api/books
// @Summary Register a book
// @Tags books
// @Accept json
// @Produce json
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /api/books [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	saved, err := h.service.Save(r.Context(), Book{
		Title:  req.Title,
		Author: req.Author,
		ISBN:   req.ISBN,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.JSONSuccessCreated(w, r, saved)
}

// Get handles GET /api/books/{id}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, found, err := h.service.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !found {
		writeNotFound(w, r)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

// Update handles PUT /api/books/{id}. Only title and author can change.
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateBookRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	b, found, err := h.service.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !found {
		writeNotFound(w, r)
		return
	}

	b.Title = req.Title
	b.Author = req.Author
	updated, err := h.service.Update(r.Context(), b)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, updated, nil)
}

// Delete handles DELETE /api/books/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	b, found, err := h.service.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !found {
		writeNotFound(w, r)
		return
	}

	if err := h.service.Delete(r.Context(), b); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.JSONSuccessNoContent(w)
}

// Find handles GET /api/books
// @Summary Search books
// @Description Case-insensitive "contains" match on every given field; page is zero-based
// @Tags books
// @Produce json
// @Param title query string false "Title fragment"
// @Param author query string false "Author fragment"
// @Param isbn query string false "ISBN fragment"
// @Param page query int false "Page index" default(0)
// @Param size query int false "Items per page" default(20)
// @Param sort query string false "title, author, isbn or created_at"
// @Param desc query bool false "Descending order"
// @Param page_token query string false "Token from a previous response"
// @Success 200 {object} httpx.SuccessResponse
// @Router /api/books [get]
func (h *HTTPHandler) Find(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var (
		filter Filter
		page   PageRequest
	)
	if token := query.Get("page_token"); token != "" {
		decoded, err := DecodePageToken(token)
		if err != nil {
			httpx.JSONErrorMessages(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid page_token")
			return
		}
		filter, page = decoded.Filter, decoded.Page
	} else {
		filter = Filter{
			Title:  query.Get("title"),
			Author: query.Get("author"),
			ISBN:   query.Get("isbn"),
		}
		page.Page, _ = strconv.Atoi(query.Get("page"))
		page.Size, _ = strconv.Atoi(query.Get("size"))
		page.Sort = query.Get("sort")
		page.Desc = query.Get("desc") == "true"
	}

	result, err := h.service.Find(r.Context(), filter, page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	meta := map[string]any{
		"page":           result.Request.Page,
		"size":           result.Request.Size,
		"total_elements": result.TotalElements,
		"total_pages":    result.TotalPages(),
	}
	if next := NextPageToken(filter, result); next != "" {
		meta["next_page_token"] = next
	}
	httpx.JSONSuccess(w, r, result.Content, meta)
}

// Import handles POST /api/books/import
// @Summary Register a book from Open Library metadata
// @Tags books
// @Accept json
// @Produce json
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/books/import [post]
func (h *HTTPHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req importBookRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	saved, err := h.service.Import(r.Context(), req.ISBN)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONErrorMessages(w, r, http.StatusNotFound, "NOT_FOUND", "ISBN not found in Open Library")
			return
		}
		writeServiceError(w, r, err)
		return
	}
	httpx.JSONSuccessCreated(w, r, saved)
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httpx.JSONErrorMessages(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
			return false
		}
		httpx.JSONErrorMessages(w, r, http.StatusBadRequest, "BAD_REQUEST", "Malformed JSON body")
		return false
	}
	trimStrings(dst)
	if details := httpx.ValidateStruct(dst); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", details)
		return false
	}
	return true
}

func trimStrings(dst any) {
	switch v := dst.(type) {
	case *createBookRequest:
		v.Title = strings.TrimSpace(v.Title)
		v.Author = strings.TrimSpace(v.Author)
		v.ISBN = strings.TrimSpace(v.ISBN)
	case *updateBookRequest:
		v.Title = strings.TrimSpace(v.Title)
		v.Author = strings.TrimSpace(v.Author)
	case *importBookRequest:
		v.ISBN = strings.TrimSpace(v.ISBN)
	}
}

func writeNotFound(w http.ResponseWriter, r *http.Request) {
	httpx.JSONErrorMessages(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found")
}

// writeServiceError maps classified errors to 400 and everything else to 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var bookErr *Error
	if errors.As(err, &bookErr) {
		httpx.JSONErrorMessages(w, r, http.StatusBadRequest, bookErr.Kind.String(), bookErr.Message)
		return
	}
	zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
}
