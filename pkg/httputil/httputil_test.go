package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflow-io/caseflow/pkg/authz"
)

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantClient bool
	}{
		{"not found", authz.ErrNotFound, http.StatusNotFound, true},
		{"wrapped not found", fmt.Errorf("loading client: %w", authz.ErrNotFound), http.StatusNotFound, true},
		{"forbidden", authz.ErrForbidden, http.StatusForbidden, true},
		{"bad request", fmt.Errorf("%w: unknown officer", ErrBadRequest), http.StatusBadRequest, true},
		{"storage failure", errors.New("connection reset"), http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			got := WriteServiceError(rec, tt.err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantClient, got)
		})
	}
}

// Denial and internal-error bodies must stay generic regardless of
// the underlying cause.
func TestErrorBodiesAreGeneric(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteServiceError(rec, fmt.Errorf("wrong office 7 for principal 42: %w", authz.ErrForbidden))
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "access denied", body["error"])

	rec = httptest.NewRecorder()
	WriteServiceError(rec, errors.New("pq: password authentication failed"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal error", body["error"])
}

func TestParsePathInt64(t *testing.T) {
	r := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/clients/10", nil),
		map[string]string{"id": "10"})
	val, err := ParsePathInt64(r, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(10), val)

	r = mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/clients/x", nil),
		map[string]string{"id": "x"})
	_, err = ParsePathInt64(r, "id")
	assert.Error(t, err)

	_, err = ParsePathInt64(httptest.NewRequest(http.MethodGet, "/clients", nil), "id")
	assert.Error(t, err)
}

func TestParseJSONOrError(t *testing.T) {
	var dest struct {
		Name string `json:"name"`
	}

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	require.True(t, ParseJSONOrError(rec, r, &dest))
	assert.Equal(t, "x", dest.Name)

	rec = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.False(t, ParseJSONOrError(rec, r, &dest))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParsePagination(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=25&offset=10", nil)
	p, err := ParsePagination(r)
	require.NoError(t, err)
	assert.Equal(t, 25, p.Limit)
	assert.Equal(t, 10, p.Offset)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	p, err = ParsePagination(r)
	require.NoError(t, err)
	assert.Equal(t, 50, p.Limit)
	assert.Equal(t, 0, p.Offset)

	r = httptest.NewRequest(http.MethodGet, "/?limit=9999&offset=-3", nil)
	p, err = ParsePagination(r)
	require.NoError(t, err)
	assert.Equal(t, 200, p.Limit)
	assert.Equal(t, 0, p.Offset)

	r = httptest.NewRequest(http.MethodGet, "/?limit=abc", nil)
	_, err = ParsePagination(r)
	assert.Error(t, err)
}

func TestParseQueryInt64Optional(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?local_office_id=7", nil)
	v, err := ParseQueryInt64(r, "local_office_id")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, int64(7), *v)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	v, err = ParseQueryInt64(r, "local_office_id")
	require.NoError(t, err)
	assert.Nil(t, v)
}
