package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/tenant"
)

func TestTenantContextStoresResolution(t *testing.T) {
	t.Parallel()

	want := tenant.Resolution{Tenant: &tenant.Info{ID: uuid.New(), Slug: "acme", Status: tenant.StatusActive}}
	mw := TenantContext(func(r *http.Request) tenant.Resolution { return want })

	var got tenant.Resolution
	var ok bool
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = tenant.ResolutionFromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, ok)
	require.Equal(t, want.Tenant.Slug, got.Tenant.Slug)
}

func TestRequireActiveTenant(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	cases := []struct {
		name   string
		res    *tenant.Resolution
		status int
	}{
		{"active tenant", &tenant.Resolution{Tenant: &tenant.Info{Slug: "acme", Status: tenant.StatusActive}}, http.StatusNoContent},
		{"no resolution", nil, http.StatusNotFound},
		{"public context", &tenant.Resolution{}, http.StatusNotFound},
		{"not found", &tenant.Resolution{Reason: tenant.ReasonNotFound}, http.StatusNotFound},
		{"inactive", &tenant.Resolution{Reason: tenant.ReasonInactive}, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.res != nil {
				r = r.WithContext(tenant.WithResolution(r.Context(), *tc.res))
			}
			w := httptest.NewRecorder()
			RequireActiveTenant(next).ServeHTTP(w, r)
			require.Equal(t, tc.status, w.Code)
		})
	}
}
