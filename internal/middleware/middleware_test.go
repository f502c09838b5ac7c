package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ride_dispatch/internal/apperr"
	"ride_dispatch/internal/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func identityRouter(secret []byte) *gin.Engine {
	r := gin.New()
	r.Use(Identity("X-User-Email", secret))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, IdentityClaim(c))
	})
	return r
}

func get(r http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdentityReadsHeader(t *testing.T) {
	w := get(identityRouter(nil), "/whoami", map[string]string{"X-User-Email": "admin@example.com"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin@example.com", w.Body.String())

	w = get(identityRouter(nil), "/whoami", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestIdentityBearerToken(t *testing.T) {
	secret := []byte("s3cret")
	token, err := GenerateToken("admin@example.com", secret, time.Hour)
	require.NoError(t, err)

	w := get(identityRouter(secret), "/whoami", map[string]string{
		"Authorization": "Bearer " + token,
		"X-User-Email":  "someone-else@example.com",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin@example.com", w.Body.String())
}

func TestIdentityRejectsBadTokens(t *testing.T) {
	secret := []byte("s3cret")
	expired, err := GenerateToken("admin@example.com", secret, -time.Minute)
	require.NoError(t, err)
	forged, err := GenerateToken("admin@example.com", []byte("other"), time.Hour)
	require.NoError(t, err)

	for name, token := range map[string]string{"expired": expired, "forged": forged, "garbage": "abc.def"} {
		w := get(identityRouter(secret), "/whoami", map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusUnauthorized, w.Code, name)

		var body struct {
			Error struct {
				Kind    string `json:"kind"`
				Message string `json:"message"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "unauthenticated", body.Error.Kind, name)
	}
}

func TestGenerateTokenNeedsSecret(t *testing.T) {
	_, err := GenerateToken("admin@example.com", nil, time.Hour)
	assert.Error(t, err)
}

func TestAbortHidesInternalErrors(t *testing.T) {
	r := gin.New()
	r.GET("/boom", func(c *gin.Context) { Abort(c, errors.New("pq: password authentication failed")) })
	r.GET("/missing", func(c *gin.Context) { Abort(c, apperr.NotFound("ride not found")) })

	w := get(r, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.JSONEq(t, `{"error":{"kind":"internal","message":"internal server error"}}`, w.Body.String())

	w = get(r, "/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":{"kind":"not_found","message":"ride not found"}}`, w.Body.String())
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, logger.RequestID(c.Request.Context()))
	})

	w := get(r, "/", map[string]string{RequestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", w.Body.String())

	w = get(r, "/", nil)
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())
}

func TestEnableCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	h := EnableCORS(next, "X-User-Email")

	req := httptest.NewRequest(http.MethodOptions, "/api/rides/", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://ops.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-User-Email")

	w = get(h, "/api/rides/", nil)
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
