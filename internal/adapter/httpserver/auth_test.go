package httpserver_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpserver "github.com/fairyhunter13/ai-interview-coach/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-interview-coach/internal/adapter/repo/memory"
)

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	otherKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": ana.ID, "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("another-secret"))
	require.NoError(t, err)
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": ana.ID,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		cookie  string
		status  int
		code    string
		message string
	}{
		{name: "missing token", status: http.StatusUnauthorized, code: "UNAUTHORIZED", message: "authentication required"},
		{name: "garbage", header: "Bearer not-a-jwt", status: http.StatusUnauthorized, code: "UNAUTHORIZED", message: "invalid token"},
		{name: "wrong key", header: "Bearer " + otherKey, status: http.StatusUnauthorized, code: "UNAUTHORIZED", message: "invalid token"},
		{name: "no exp", header: "Bearer " + noExp, status: http.StatusUnauthorized, code: "UNAUTHORIZED", message: "invalid token"},
		{
			name:    "expired",
			header:  "Bearer " + signToken(t, ana.ID, time.Now().Add(-time.Minute)),
			status:  http.StatusUnauthorized,
			code:    "UNAUTHORIZED",
			message: "token has expired",
		},
		{
			name:    "unknown user",
			header:  "Bearer " + signToken(t, "u-ghost", time.Now().Add(time.Hour)),
			status:  http.StatusNotFound,
			code:    "NOT_FOUND",
			message: "user not found",
		},
		{name: "bearer", header: "Bearer " + signToken(t, ana.ID, time.Now().Add(time.Hour)), status: http.StatusOK},
		{name: "cookie", cookie: signToken(t, ana.ID, time.Now().Add(time.Hour)), status: http.StatusOK},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/v1/interview/stats", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "jwt", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			h.handler.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.code != "" {
				env := decodeEnvelope(t, rec)
				assert.Equal(t, tt.code, env.Error.Code)
				assert.Equal(t, tt.message, env.Error.Message)
			}
		})
	}
}

func TestAuthenticator_Verify(t *testing.T) {
	t.Parallel()
	users := memory.NewUsers(ana)

	uid, err := httpserver.NewAuthenticator(testSecret, "", users).Verify(signToken(t, ana.ID, time.Now().Add(time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, ana.ID, uid)

	_, err = httpserver.NewAuthenticator("", "", users).Verify(signToken(t, ana.ID, time.Now().Add(time.Minute)))
	require.Error(t, err)
	assert.Equal(t, "authentication is not configured", err.Error())

	blank, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": "  ", "exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = httpserver.NewAuthenticator(testSecret, "", users).Verify(blank)
	assert.Error(t, err)
}

func TestAuthMiddleware_StoresUser(t *testing.T) {
	t.Parallel()
	auth := httpserver.NewAuthenticator(testSecret, "session", memory.NewUsers(ana))
	var seen string
	h := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := httpserver.UserFrom(r.Context())
		require.True(t, ok)
		seen = u.Name
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: signToken(t, ana.ID, time.Now().Add(time.Hour))})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "Ana", seen)
}
