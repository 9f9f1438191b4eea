package loan

import (
	"net/http"
	"strconv"

	"librarydesk/internal/httpx"
	"librarydesk/internal/platform/apperr"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// Register mounts the loan routes on mux behind auth.
func (h *HTTPHandler) Register(mux *http.ServeMux, auth httpx.Middleware) {
	mux.Handle("GET /v1/loans", auth(http.HandlerFunc(h.List)))
	mux.Handle("GET /v1/loans/{id}", auth(http.HandlerFunc(h.Get)))
	mux.Handle("POST /v1/loans", auth(http.HandlerFunc(h.Create)))
	mux.Handle("POST /v1/loans/{id}/return", auth(http.HandlerFunc(h.Return)))
	mux.Handle("DELETE /v1/loans/{id}", auth(http.HandlerFunc(h.Delete)))
}

type createRequest struct {
	MemberID int64   `json:"member_id" validate:"required,gt=0"`
	BookIDs  []int64 `json:"book_ids" validate:"dive,gt=0"`
}

type createResponse struct {
	ID int64 `json:"id"`
}

// List handles GET /v1/loans?status=&member_id=
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status, err := ParseStatus(q.Get("status"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	f := Filter{Status: status}
	if raw := q.Get("member_id"); raw != "" {
		f.MemberID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || f.MemberID <= 0 {
			httpx.WriteError(w, r, apperr.Validation("member_id must be a positive integer, got %q", raw))
			return
		}
	}

	loans, err := h.service.List(r.Context(), f)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, loans, map[string]any{"total": len(loans)})
}

// Get handles GET /v1/loans/{id}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	d, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, d, nil)
}

// Create handles POST /v1/loans
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if details := httpx.ValidateStruct(req); details != nil {
		httpx.WriteValidation(w, r, details)
		return
	}

	id, err := h.service.CreateLoan(r.Context(), req.MemberID, req.BookIDs)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONCreated(w, r, createResponse{ID: id})
}

// Return handles POST /v1/loans/{id}/return
func (h *HTTPHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.service.ReturnLoan(r.Context(), id); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	d, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, d, nil)
}

// Delete handles DELETE /v1/loans/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.service.DeleteLoan(r.Context(), id); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONNoContent(w)
}
