package book

import (
	"net/http"

	"librarydesk/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// Register mounts the book routes on mux behind auth.
func (h *HTTPHandler) Register(mux *http.ServeMux, auth httpx.Middleware) {
	mux.Handle("GET /v1/books", auth(http.HandlerFunc(h.List)))
	mux.Handle("GET /v1/books/{id}", auth(http.HandlerFunc(h.Get)))
	mux.Handle("DELETE /v1/books/{id}", auth(http.HandlerFunc(h.Delete)))
}

// List handles GET /v1/books?state=
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	state, err := ParseState(r.URL.Query().Get("state"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	books, err := h.service.List(r.Context(), Filter{State: state})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, books, map[string]any{"total": len(books)})
}

// Get handles GET /v1/books/{id}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

// Delete handles DELETE /v1/books/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONNoContent(w)
}
