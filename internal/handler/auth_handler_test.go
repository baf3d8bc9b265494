package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/tutoring-api/internal/middleware"
	"github.com/noah-isme/tutoring-api/internal/models"
)

func newTestContext(t *testing.T, method, path, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, rec
}

func TestLoginRejectsMalformedBody(t *testing.T) {
	h := NewAuthHandler(nil)
	c, rec := newTestContext(t, http.MethodPost, "/auth/login", "{not json")

	h.Login(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid login payload")
}

func TestRegisterRejectsMalformedBody(t *testing.T) {
	h := NewAuthHandler(nil)
	c, rec := newTestContext(t, http.MethodPost, "/auth/register", "[]")

	h.Register(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMeReturnsClaims(t *testing.T) {
	h := NewAuthHandler(nil)
	c, rec := newTestContext(t, http.MethodGet, "/auth/me", "")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{
		UserID:   "user-1",
		Username: "sam",
		Role:     models.RoleTutor,
	})

	h.Me(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"sam"`)
	assert.Contains(t, rec.Body.String(), `"role":"tutor"`)
}
