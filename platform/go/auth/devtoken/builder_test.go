package devtoken

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildUnsignedToken(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	token, err := BuildUnsignedToken(Params{
		ProjectID: "control-plane-dev",
		UserID:    "user-1",
		Email:     "ops@example.com",
		IsAdmin:   true,
	}, now)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 2)

	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	var claims map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &claims))

	require.Equal(t, "user-1", claims["user_id"])
	require.Equal(t, "user-1", claims["sub"])
	require.Equal(t, "ops@example.com", claims["email"])
	require.Equal(t, true, claims["isAdmin"])
	require.Equal(t, "control-plane-dev", claims["aud"])
	require.Equal(t, "https://securetoken.google.com/control-plane-dev", claims["iss"])
	require.EqualValues(t, now.Add(time.Hour).Unix(), claims["exp"])
}

func TestBuildUnsignedTokenValidation(t *testing.T) {
	_, err := BuildUnsignedToken(Params{UserID: "u", Email: "e@example.com"}, time.Time{})
	require.Error(t, err)

	_, err = BuildUnsignedToken(Params{ProjectID: "p", Email: "e@example.com"}, time.Time{})
	require.Error(t, err)

	_, err = BuildUnsignedToken(Params{ProjectID: "p", UserID: "u"}, time.Time{})
	require.Error(t, err)
}
