package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docuvault/models"
	"docuvault/utils"
)

const testSecret = "test-secret"

func mintToken(t *testing.T, claims *utils.Claims, secret string, ttl time.Duration) string {
	t.Helper()
	token, err := utils.GenerateJWTToken(claims, secret, "docuvault", ttl)
	require.NoError(t, err)
	return token
}

func newAuthRouter(extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers := append([]gin.HandlerFunc{AuthMiddleware(testSecret)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		subject, _ := SubjectFrom(c)
		c.JSON(http.StatusOK, gin.H{
			"actor":   Actor(c),
			"subject": subject,
		})
	})
	router.GET("/protected", handlers...)
	return router
}

func doRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	router := newAuthRouter()

	token := mintToken(t, &utils.Claims{
		UserID: "alice",
		Name:   "Alice",
		Roles:  []string{"editor"},
		Groups: []string{"hr"},
	}, testSecret, time.Hour)

	w := doRequest(router, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"actor":"alice"`)
	assert.Contains(t, w.Body.String(), `"roles":["editor"]`)
	assert.Contains(t, w.Body.String(), `"groups":["hr"]`)
}

func TestAuthMiddlewareRejectsBadCredentials(t *testing.T) {
	router := newAuthRouter()

	// No Authorization header.
	w := doRequest(router, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Wrong scheme.
	w = doRequest(router, "Basic abc123")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Signed with a different secret.
	forged := mintToken(t, &utils.Claims{UserID: "mallory"}, "other-secret", time.Hour)
	w = doRequest(router, "Bearer "+forged)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Expired.
	expired := mintToken(t, &utils.Claims{UserID: "alice"}, testSecret, -time.Minute)
	w = doRequest(router, "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Valid signature but no user id.
	anonymous := mintToken(t, &utils.Claims{Name: "Nobody"}, testSecret, time.Hour)
	w = doRequest(router, "Bearer "+anonymous)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	router := newAuthRouter(RequireRole("admin"))

	admin := mintToken(t, &utils.Claims{
		UserID: "root",
		Roles:  []string{"admin", "editor"},
	}, testSecret, time.Hour)
	w := doRequest(router, "Bearer "+admin)
	assert.Equal(t, http.StatusOK, w.Code)

	plain := mintToken(t, &utils.Claims{
		UserID: "bob",
		Roles:  []string{"viewer"},
	}, testSecret, time.Hour)
	w = doRequest(router, "Bearer "+plain)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSubjectFromWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := SubjectFrom(c)
	assert.False(t, ok)
	assert.Empty(t, Actor(c))

	c.Set(ContextSubject, models.Subject{ID: "carol"})
	subject, ok := SubjectFrom(c)
	require.True(t, ok)
	assert.Equal(t, "carol", subject.ID)
}
