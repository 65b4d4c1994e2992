package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"party_games_backend/internal/model"
	"party_games_backend/internal/util"

	"github.com/gin-gonic/gin"
)

const secret = "middleware-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func tokenFor(t *testing.T, role model.UserRole) string {
	t.Helper()
	token, err := util.GenerateJWT(&model.User{BaseModel: model.BaseModel{ID: 3}, Role: role}, secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	return token
}

func serve(r *gin.Engine, token string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w.Code
}

func TestAuthAndRole(t *testing.T) {
	r := gin.New()
	r.GET("/x", AuthMiddleware(secret), RoleMiddleware(model.RoleOrganizer), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"garbage token", "not-a-jwt", http.StatusUnauthorized},
		{"guest", tokenFor(t, model.RoleGuest), http.StatusForbidden},
		{"organizer", tokenFor(t, model.RoleOrganizer), http.StatusOK},
		{"admin", tokenFor(t, model.RoleAdmin), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := serve(r, tt.token); got != tt.status {
				t.Errorf("status = %d, want %d", got, tt.status)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	var seen uint
	r := gin.New()
	r.GET("/x", OptionalAuth(secret), func(c *gin.Context) {
		seen = 0
		if u := util.GetUserFromContext(c); u != nil {
			seen = u.UserID
		}
		c.Status(http.StatusOK)
	})

	if code := serve(r, "bad"); code != http.StatusOK || seen != 0 {
		t.Errorf("bad token: code=%d user=%d", code, seen)
	}
	if code := serve(r, tokenFor(t, model.RoleGuest)); code != http.StatusOK || seen != 3 {
		t.Errorf("valid token: code=%d user=%d", code, seen)
	}
}
