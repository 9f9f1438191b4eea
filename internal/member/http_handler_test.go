package member

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
)

func TestHTTPHandler_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := NewMockRepository(ctrl)
	handler := NewHTTPHandler(NewService(mockRepo))

	mockRepo.EXPECT().List(gomock.Any()).Return([]Member{{ID: 7, FullName: "Grace Hopper", Email: "grace@example.com"}}, nil)

	w := httptest.NewRecorder()
	handler.List(w, httptest.NewRequest(http.MethodGet, "/v1/members", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"full_name":"Grace Hopper"`)
	assert.Contains(t, w.Body.String(), `"total":1`)
}

func TestHTTPHandler_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := NewMockRepository(ctrl)
	handler := NewHTTPHandler(NewService(mockRepo))

	t.Run("not found", func(t *testing.T) {
		mockRepo.EXPECT().GetByID(gomock.Any(), int64(7)).Return(Member{}, ErrNotFound)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/members/7", nil)
		r.SetPathValue("id", "7")
		handler.Get(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "member 7 not found")
	})

	t.Run("store failure hides details", func(t *testing.T) {
		mockRepo.EXPECT().GetByID(gomock.Any(), int64(8)).Return(Member{}, errors.New("disk I/O error"))

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/members/8", nil)
		r.SetPathValue("id", "8")
		handler.Get(w, r)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "disk")
	})
}
