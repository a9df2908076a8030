package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflow-io/caseflow/pkg/auth"
)

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenManager([]byte("test-secret"), time.Hour)
	mw := NewAuthMiddleware(tokens)

	var captured *auth.Principal
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetPrincipal(r)
		w.WriteHeader(http.StatusOK)
	}))

	officeID := int64(7)
	token, err := tokens.Issue(auth.Principal{ID: 42, Role: auth.RoleOfficer, LocalOfficeID: &officeID})
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/staff/clients", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, captured)
		assert.Equal(t, int64(42), captured.ID)
		assert.Equal(t, auth.RoleOfficer, captured.Role)
	})

	t.Run("missing header", func(t *testing.T) {
		captured = nil
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, captured)
	})

	t.Run("malformed header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGetPrincipalWithoutAuth(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, GetPrincipal(r))
}
