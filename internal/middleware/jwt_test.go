package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/bookbot/internal/pkg/authz"
	"github.com/xxxsen/bookbot/internal/pkg/errcode"
	"github.com/xxxsen/bookbot/internal/pkg/jwt"
)

var testSecret = []byte("test-secret")

func newAuthEngine(az authz.Authorizer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", JWTAuth(testSecret), AdminOnly(az), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextActorIDKey))
	})
	return r
}

func callAdmin(t *testing.T, r *gin.Engine, header string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func responseCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var body struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func TestJWTAuthAndAdminOnly(t *testing.T) {
	r := newAuthEngine(authz.NewAllowList([]string{"1001"}))

	w := callAdmin(t, r, "")
	require.Equal(t, errcode.ErrUnauthorized, responseCode(t, w))

	w = callAdmin(t, r, "Token abc")
	require.Equal(t, errcode.ErrUnauthorized, responseCode(t, w))

	w = callAdmin(t, r, "Bearer not-a-jwt")
	require.Equal(t, errcode.ErrUnauthorized, responseCode(t, w))

	stranger, err := jwt.GenerateToken("2002", testSecret, time.Hour)
	require.NoError(t, err)
	w = callAdmin(t, r, "Bearer "+stranger)
	require.Equal(t, errcode.ErrForbidden, responseCode(t, w))

	admin, err := jwt.GenerateToken("1001", testSecret, time.Hour)
	require.NoError(t, err)
	w = callAdmin(t, r, "bearer "+admin)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "1001", w.Body.String())
}

func TestAdminOnlyNilAuthorizer(t *testing.T) {
	r := newAuthEngine(nil)
	token, err := jwt.GenerateToken("1001", testSecret, time.Hour)
	require.NoError(t, err)
	w := callAdmin(t, r, "Bearer "+token)
	require.Equal(t, errcode.ErrForbidden, responseCode(t, w))
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"https://console.example.com"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://console.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "https://console.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
