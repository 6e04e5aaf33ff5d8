package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name   string
		admins []string
		uid    string
		want   int
	}{
		{"listed admin", []string{"ops-1", " ops-2 "}, "ops-2", http.StatusOK},
		{"regular user", []string{"ops-1"}, "buyer-1", http.StatusForbidden},
		{"no admins configured", nil, "ops-1", http.StatusForbidden},
		{"missing uid", []string{"ops-1"}, "", http.StatusForbidden},
	}
	e := echo.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/admin/sweep", nil), rec)
			if tt.uid != "" {
				c.Set(UIDKey, tt.uid)
			}
			h := RequireAdmin(tt.admins)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})
			if err := h(c); err != nil {
				t.Fatalf("handler: %v", err)
			}
			if rec.Code != tt.want {
				t.Fatalf("code=%d want %d", rec.Code, tt.want)
			}
		})
	}
}
