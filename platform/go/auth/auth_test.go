package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/auth/devtoken"
)

func TestDefaultCredentialExtractor(t *testing.T) {
	creds, err := DefaultCredentialExtractor(map[string]interface{}{
		"uid":            "user-123",
		"email":          "user@example.com",
		"isAdmin":        true,
		"email_verified": true,
	})
	require.NoError(t, err)
	require.Equal(t, "user-123", creds.ID)
	require.Equal(t, "user@example.com", creds.Email)
	require.True(t, creds.IsAdmin)
	require.True(t, creds.EmailVerified)
}

func TestDefaultCredentialExtractorFallbacks(t *testing.T) {
	creds, err := DefaultCredentialExtractor(map[string]interface{}{
		"sub": "subject-1",
	})
	require.NoError(t, err)
	require.Equal(t, "subject-1", creds.ID)
	require.False(t, creds.IsAdmin)

	_, err = DefaultCredentialExtractor(nil)
	require.Error(t, err)
}

func TestExtractJWTToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, found := ExtractJWTToken(r)
	require.False(t, found)

	r.Header.Set("Authorization", "Bearer abc.def")
	token, found := ExtractJWTToken(r)
	require.True(t, found)
	require.Equal(t, "abc.def", token)

	r.Header.Set("Authorization", "bearer abc.def")
	token, found = ExtractJWTToken(r)
	require.True(t, found)
	require.Equal(t, "abc.def", token)

	r.Header.Set("Authorization", "Basic abc")
	_, found = ExtractJWTToken(r)
	require.False(t, found)
}

func TestJWTMiddlewareWithUnsignedVerifier(t *testing.T) {
	token, err := devtoken.BuildUnsignedToken(devtoken.Params{
		ProjectID: "control-plane-dev",
		UserID:    "user-9",
		Email:     "ops@example.com",
		IsAdmin:   true,
	}, time.Now())
	require.NoError(t, err)

	var got *UserCredentials
	handler := JWT(UnsignedTokenVerifier(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, got)
	require.Equal(t, "user-9", got.ID)
	require.True(t, got.IsAdmin)
}

func TestJWTMiddlewarePassesThroughWithoutToken(t *testing.T) {
	handler := JWT(UnsignedTokenVerifier(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := UserFromContext(r.Context())
		require.False(t, ok)
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestJWTMiddlewareRejectsBadToken(t *testing.T) {
	verify := func(ctx context.Context, token string) (map[string]interface{}, error) {
		return nil, context.DeadlineExceeded
	}
	handler := JWT(verify, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer whatever")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r := httptest.NewRequest(http.MethodPost, "/admin", nil)
	w := httptest.NewRecorder()
	RequireAdmin(next).ServeHTTP(w, r)
	require.Equal(t, http.StatusForbidden, w.Code)

	ctx := context.WithValue(r.Context(), ctxUserCredentials, &UserCredentials{ID: "u", IsAdmin: false})
	w = httptest.NewRecorder()
	RequireAdmin(next).ServeHTTP(w, r.WithContext(ctx))
	require.Equal(t, http.StatusForbidden, w.Code)

	ctx = context.WithValue(r.Context(), ctxUserCredentials, &UserCredentials{ID: "u", IsAdmin: true})
	w = httptest.NewRecorder()
	RequireAdmin(next).ServeHTTP(w, r.WithContext(ctx))
	require.Equal(t, http.StatusNoContent, w.Code)
}
