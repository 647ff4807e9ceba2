package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// ViewerSessionCookie identifies one browser behind the comment lists. It is
// issued to every visitor, signed in or not, and scopes edit state and
// notices to that browser.
const ViewerSessionCookie = "riff_viewer"

const viewerSessionKey contextKey = "viewer_session"

// ViewerSession makes sure every request carries a viewer session id,
// issuing the cookie when the browser doesn't have one yet.
func ViewerSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if cookie, err := r.Cookie(ViewerSessionCookie); err == nil {
			if _, err := uuid.Parse(cookie.Value); err == nil {
				id = cookie.Value
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     ViewerSessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), viewerSessionKey, id)))
	})
}

// GetViewerSessionFromContext returns the id set by ViewerSession.
func GetViewerSessionFromContext(ctx context.Context) string {
	id, _ := ctx.Value(viewerSessionKey).(string)
	return id
}
