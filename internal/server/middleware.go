package server

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

const sessionCookieName = "kgd_session"

// SessionMiddleware resolves the GIS session from the request cookie,
// creating a fresh one when the cookie is missing or expired.
func SessionMiddleware(sessions *SessionStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var sess *Session
			if cookie, err := c.Cookie(sessionCookieName); err == nil {
				if existing, ok := sessions.Get(cookie.Value); ok {
					sess = existing
				}
			}
			if sess == nil {
				created, err := sessions.Create()
				if err != nil {
					return fmt.Errorf("session middleware: %w", err)
				}
				sess = created
				c.SetCookie(&http.Cookie{
					Name:     sessionCookieName,
					Value:    sess.ID,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			c.Set("session", sess)
			return next(c)
		}
	}
}

func getSession(c echo.Context) *Session {
	return c.Get("session").(*Session)
}
