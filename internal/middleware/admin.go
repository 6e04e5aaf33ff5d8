package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequireAdmin lets through only the listed user ids. It must run after an
// auth middleware has set the uid. An empty list locks the group.
func RequireAdmin(uids []string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(uids))
	for _, u := range uids {
		if u = strings.TrimSpace(u); u != "" {
			allowed[u] = struct{}{}
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, _ := c.Get(UIDKey).(string)
			if _, ok := allowed[uid]; !ok || uid == "" {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
