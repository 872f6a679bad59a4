package middleware

import (
	"blogfront/core"
	"blogfront/identity"
	"blogfront/session"
	"context"
	"net/http"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	ClientIDContextKey = contextKey("client_id")
	SessionContextKey  = contextKey("session")
)

// SessionLoader reads the stored session of a client.
type SessionLoader interface {
	Load(ctx context.Context, clientID string) (core.Session, error)
}

// ClientIdentity makes sure every request carries a signed client id
// cookie and puts the id into the request context. Missing or invalid
// cookies are replaced by a fresh identity.
func ClientIdentity(issuer *identity.Issuer, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var clientID string
			if c, err := r.Cookie(identity.CookieName); err == nil {
				id, err := issuer.Parse(c.Value)
				if err != nil {
					logrus.WithError(err).Debug("Discarding invalid client cookie")
				} else {
					clientID = id
				}
			}

			if clientID == "" {
				clientID = identity.NewClientID()
				token, err := issuer.Issue(clientID)
				if err != nil {
					logrus.WithError(err).Error("Failed to sign client cookie")
					render.Status(r, http.StatusInternalServerError)
					render.JSON(w, r, map[string]string{"error": "Failed to create client identity"})
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     identity.CookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(issuer.Lifetime().Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), ClientIDContextKey, clientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoadSession reads the session of the current client into the context.
// It must run after ClientIdentity.
func LoadSession(loader SessionLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := ClientID(r.Context())
			sess, err := loader.Load(r.Context(), clientID)
			if err != nil {
				logrus.WithField("client_id", clientID).WithError(err).Error("Failed to load session")
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, map[string]string{"error": "Failed to load session"})
				return
			}
			ctx := context.WithValue(r.Context(), SessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientID returns the client id set by ClientIdentity, or "".
func ClientID(ctx context.Context) string {
	id, _ := ctx.Value(ClientIDContextKey).(string)
	return id
}

// SessionFromContext returns the session set by LoadSession. A request
// without one is treated as logged out.
func SessionFromContext(ctx context.Context) core.Session {
	sess, _ := ctx.Value(SessionContextKey).(core.Session)
	return sess
}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess core.Session) context.Context {
	return context.WithValue(ctx, SessionContextKey, sess)
}

// RequireAuth renders next only for clients holding a token.
func RequireAuth(next http.Handler) http.Handler {
	return guard(session.IsAuthenticated, next)
}

// RequireAdmin renders next only for clients holding a token and the admin
// role.
func RequireAdmin(next http.Handler) http.Handler {
	return guard(session.IsAdminAuthenticated, next)
}

func guard(allowed func(core.Session) bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allowed(SessionFromContext(r.Context())) {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
