package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondBadRequest(t *testing.T) {
	rec := httptest.NewRecorder()

	RespondBadRequest(rec, "плохой запрос")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"плохой запрос"}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		ID int `json:"id"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"id": 7}`))
	require.NoError(t, DecodeJSON(req, &v))
	assert.Equal(t, 7, v.ID)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.ErrorIs(t, DecodeJSON(req, &v), ErrEmptyBody)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	assert.Error(t, DecodeJSON(req, &v))
}
