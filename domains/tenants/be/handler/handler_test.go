package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nimbusdesk/nimbusdesk-saas/domains/tenants/be/handler"
	"github.com/nimbusdesk/nimbusdesk-saas/domains/tenants/be/repo"
	"github.com/nimbusdesk/nimbusdesk-saas/domains/tenants/be/service"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/auth"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/auth/devtoken"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/tenant"
)

func newHandler(t *testing.T) (*handler.Handler, *repo.MemoryRepository) {
	t.Helper()

	memory := repo.NewMemoryRepository()
	memory.AddTenant(tenant.Info{
		ID:     uuid.New(),
		Slug:   "acme",
		Name:   "Acme Corp",
		Status: tenant.StatusActive,
	})
	memory.AddTenant(tenant.Info{
		ID:     uuid.New(),
		Slug:   "frozen",
		Name:   "Frozen LLC",
		Status: tenant.StatusSuspended,
	})

	cache := tenant.NewCache(tenant.DefaultCacheTTL, clock.NewMock())
	svc := service.New(memory, cache, zaptest.NewLogger(t))
	return handler.New(svc, zaptest.NewLogger(t)), memory
}

func doResolve(t *testing.T, h *handler.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, r)
	return w
}

func TestResolveTenantContext(t *testing.T) {
	t.Parallel()
	h, _ := newHandler(t)

	w := doResolve(t, h, "http://acme.nimbusdesk.com/resolve")
	require.Equal(t, http.StatusOK, w.Code)

	var resp handler.ResolveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "tenant", resp.Context)
	require.NotNil(t, resp.Tenant)
	require.Equal(t, "acme", resp.Tenant.Slug)
	require.Equal(t, "active", resp.Tenant.Status)
}

func TestResolvePlatformAdminContext(t *testing.T) {
	t.Parallel()
	h, _ := newHandler(t)

	w := doResolve(t, h, "http://admin.nimbusdesk.com/resolve")
	require.Equal(t, http.StatusOK, w.Code)

	var resp handler.ResolveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "platform_admin", resp.Context)
	require.Nil(t, resp.Tenant)
}

func TestResolvePublicContext(t *testing.T) {
	t.Parallel()
	h, _ := newHandler(t)

	for _, url := range []string{
		"http://nimbusdesk.com/resolve",
		"http://www.nimbusdesk.com/resolve",
	} {
		w := doResolve(t, h, url)
		require.Equal(t, http.StatusOK, w.Code, url)

		var resp handler.ResolveResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Equal(t, "public", resp.Context, url)
	}
}

func TestResolveUnknownTenant(t *testing.T) {
	t.Parallel()
	h, _ := newHandler(t)

	w := doResolve(t, h, "http://ghost.nimbusdesk.com/resolve")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "application/problem+json")
	require.Contains(t, w.Body.String(), "not_found")
}

func TestResolveSuspendedTenant(t *testing.T) {
	t.Parallel()
	h, _ := newHandler(t)

	w := doResolve(t, h, "http://frozen.nimbusdesk.com/resolve")
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Contains(t, w.Body.String(), "inactive")
}

func TestResolveInvalidSubdomain(t *testing.T) {
	t.Parallel()
	h, _ := newHandler(t)

	w := doResolve(t, h, "http://a.nimbusdesk.com/resolve")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "invalid_subdomain")
}

func TestResolveLoopbackTenantParam(t *testing.T) {
	t.Parallel()
	h, _ := newHandler(t)

	w := doResolve(t, h, "http://localhost:3000/resolve?tenant=acme")
	require.Equal(t, http.StatusOK, w.Code)

	var resp handler.ResolveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "tenant", resp.Context)
}

func TestResolveCustomDomain(t *testing.T) {
	t.Parallel()
	h, memory := newHandler(t)
	memory.AddDomainMapping("portal.acme-corp.com", "acme", true)

	w := doResolve(t, h, "http://portal.acme-corp.com/resolve")
	require.Equal(t, http.StatusOK, w.Code)

	var resp handler.ResolveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "tenant", resp.Context)
	require.Equal(t, "acme", resp.Tenant.Slug)
}

func TestSlugAvailability(t *testing.T) {
	t.Parallel()
	h, _ := newHandler(t)

	cases := []struct {
		name      string
		slug      string
		available bool
	}{
		{"free slug", "fresh-startup", true},
		{"taken slug", "acme", false},
		{"reserved slug", "admin", false},
		{"bad format", "my--co", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doResolve(t, h, "http://nimbusdesk.com/slug-availability?slug="+tc.slug)
			require.Equal(t, http.StatusOK, w.Code)

			var resp handler.SlugAvailabilityResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.Equal(t, tc.available, resp.Available)
			if !tc.available {
				require.NotNil(t, resp.Reason)
			}
		})
	}
}

func TestSlugAvailabilityMissingParam(t *testing.T) {
	t.Parallel()
	h, _ := newHandler(t)

	w := doResolve(t, h, "http://nimbusdesk.com/slug-availability")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResolveReflectsStatusChangeAfterCacheClear(t *testing.T) {
	t.Parallel()
	h, memory := newHandler(t)

	w := doResolve(t, h, "http://acme.nimbusdesk.com/resolve")
	require.Equal(t, http.StatusOK, w.Code)

	// A suspension is invisible while the cached resolution is fresh.
	memory.SetStatus("acme", tenant.StatusSuspended)
	w = doResolve(t, h, "http://acme.nimbusdesk.com/resolve")
	require.Equal(t, http.StatusOK, w.Code)

	token, err := devtoken.BuildUnsignedToken(devtoken.Params{
		ProjectID: "control-plane-dev",
		UserID:    "operator-1",
		Email:     "ops@nimbusdesk.com",
		IsAdmin:   true,
	}, time.Now())
	require.NoError(t, err)

	routes := auth.JWT(auth.UnsignedTokenVerifier(), nil)(h.AdminRoutes())
	r := httptest.NewRequest(http.MethodPost, "http://nimbusdesk.com/resolver-cache/clear", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, r)
	require.Equal(t, http.StatusNoContent, rec.Code)

	w = doResolve(t, h, "http://acme.nimbusdesk.com/resolve")
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Contains(t, w.Body.String(), "inactive")
}

func TestClearCacheRequiresAdmin(t *testing.T) {
	t.Parallel()
	h, _ := newHandler(t)

	routes := auth.JWT(auth.UnsignedTokenVerifier(), nil)(h.AdminRoutes())

	r := httptest.NewRequest(http.MethodPost, "http://nimbusdesk.com/resolver-cache/clear", nil)
	w := httptest.NewRecorder()
	routes.ServeHTTP(w, r)
	require.Equal(t, http.StatusForbidden, w.Code)

	token, err := devtoken.BuildUnsignedToken(devtoken.Params{
		ProjectID: "control-plane-dev",
		UserID:    "operator-1",
		Email:     "ops@nimbusdesk.com",
		IsAdmin:   true,
	}, time.Now())
	require.NoError(t, err)

	r = httptest.NewRequest(http.MethodPost, "http://nimbusdesk.com/resolver-cache/clear", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	routes.ServeHTTP(w, r)
	require.Equal(t, http.StatusNoContent, w.Code)
}
