package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarydesk/internal/platform/apperr"
)

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"validation", apperr.Validation("must select at least one book"), http.StatusBadRequest, CodeValidation, "must select at least one book"},
		{"not found", apperr.NotFound("loan 3 not found"), http.StatusNotFound, CodeNotFound, "loan 3 not found"},
		{"conflict wrapped", fmt.Errorf("delete: %w", apperr.Conflict("cannot delete an active loan")), http.StatusConflict, CodeConflict, "cannot delete an active loan"},
		{"integrity", apperr.Integrity(errors.New("0 rows"), "book 9 vanished"), http.StatusInternalServerError, CodeIntegrity, "operator"},
		{"infrastructure", errors.New("dial tcp: connection refused"), http.StatusInternalServerError, CodeInternal, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Contains(t, body.Error.Message, tt.wantMsg)
		})
	}
}

func TestWriteError_NeverLeaksInfrastructureText(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, httptest.NewRequest(http.MethodGet, "/", nil), errors.New(`ERROR: relation "loans" does not exist`))
	assert.NotContains(t, w.Body.String(), "relation")
}

func TestPathID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/loans/12", nil)
	req.SetPathValue("id", "12")
	id, err := PathID(req, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	for _, raw := range []string{"", "abc", "0", "-4"} {
		req.SetPathValue("id", raw)
		_, err := PathID(req, "id")
		assert.ErrorIs(t, err, apperr.ErrValidation, raw)
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		MemberID int64 `json:"member_id"`
	}

	var p payload
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"member_id": 7}`))
	require.NoError(t, DecodeJSON(req, &p))
	assert.Equal(t, int64(7), p.MemberID)

	for _, body := range []string{``, `{"member_id": "x"}`, `{"member": 7}`, `{} {}`} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		assert.ErrorIs(t, DecodeJSON(req, &payload{}), apperr.ErrValidation, body)
	}
}

func TestValidateStruct(t *testing.T) {
	type req struct {
		MemberID int64   `json:"member_id" validate:"required,gt=0"`
		BookIDs  []int64 `json:"book_ids" validate:"dive,gt=0"`
	}

	assert.Nil(t, ValidateStruct(req{MemberID: 1, BookIDs: []int64{1, 2}}))

	details := ValidateStruct(req{BookIDs: []int64{0}})
	require.Len(t, details, 2)
	assert.Equal(t, "member_id", details[0].Field)
	assert.Equal(t, "member_id is required", details[0].Message)
	assert.Equal(t, "book_ids[0]", details[1].Field)
}
