package web

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	ProfileCookieName = "easyathlete_profile"
	profileCookieTTL  = 365 * 24 * time.Hour
)

type profileIDKey struct{}

// ProfileIDFromContext returns the profile id set by ProfileCookie.
func ProfileIDFromContext(ctx context.Context) string {
	profileID, _ := ctx.Value(profileIDKey{}).(string)
	return profileID
}

// ProfileCookie resolves the browser profile of the request from its cookie,
// issuing a new random profile id when the cookie is missing or malformed.
func ProfileCookie(secure bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profileID := ""
			if cookie, err := r.Cookie(ProfileCookieName); err == nil {
				if _, err := uuid.Parse(cookie.Value); err == nil {
					profileID = cookie.Value
				} else {
					log.Debugf("malformed profile cookie [%s], issuing a new one", cookie.Value)
				}
			}

			if profileID == "" {
				profileID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     ProfileCookieName,
					Value:    profileID,
					Path:     "/",
					MaxAge:   int(profileCookieTTL.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), profileIDKey{}, profileID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
