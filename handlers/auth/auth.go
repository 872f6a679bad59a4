// Package auth serves the combined login and registration view and the
// logout action.
package auth

import (
	"blogfront/backend"
	"blogfront/core"
	"blogfront/middleware"
	"blogfront/notify"
	"blogfront/ui"
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	ModeLogin    = "login"
	ModeRegister = "register"
)

const (
	msgLoginOK    = "Login successful!"
	msgRegisterOK = "Registration successful! Please login."
	msgNoToken    = "Token not received from server"
	msgNotOK      = "Something went wrong"
	msgTransport  = "Error occurred"
)

type (
	// Backend is the part of the backend client the auth view needs.
	Backend interface {
		Login(ctx context.Context, creds backend.Credentials) (*backend.AuthResult, error)
		Register(ctx context.Context, reg backend.Registration) (*backend.AuthResult, error)
	}

	// Sessions persists and clears the session of a client.
	Sessions interface {
		Save(ctx context.Context, clientID string, sess core.Session) error
		Clear(ctx context.Context, clientID string) error
	}

	// Form is the submitted auth form. Name is only used when registering.
	Form struct {
		Mode     string
		Name     string
		Email    string
		Password string
	}

	// View is the data of the auth page. The password is never echoed.
	View struct {
		Mode     string `json:"mode"`
		Register bool   `json:"register"`
		Name     string `json:"name"`
		Email    string `json:"email"`
	}
)

// ParseMode maps a form or query value to a mode, defaulting to login.
func ParseMode(s string) string {
	if strings.EqualFold(s, ModeRegister) {
		return ModeRegister
	}
	return ModeLogin
}

func newView(mode, name, email string) View {
	return View{Mode: mode, Register: mode == ModeRegister, Name: name, Email: email}
}

// Submit posts f to the backend and persists the returned session. It
// reports success; the outcome is also announced through n.
func Submit(ctx context.Context, be Backend, sessions Sessions, clientID string, f Form, n notify.Notifier) (bool, error) {
	var (
		res *backend.AuthResult
		err error
	)
	if f.Mode == ModeRegister {
		res, err = be.Register(ctx, backend.Registration{Name: f.Name, Email: f.Email, Password: f.Password})
	} else {
		res, err = be.Login(ctx, backend.Credentials{Email: f.Email, Password: f.Password})
	}
	if err != nil {
		if _, ok := backend.AsAPIError(err); ok {
			n.Error(backend.MessageOr(err, msgNotOK))
		} else {
			logrus.WithField("mode", f.Mode).WithError(err).Warn("Auth request failed")
			n.Error(msgTransport)
		}
		return false, nil
	}
	if res.Token == "" {
		n.Error(msgNoToken)
		return false, nil
	}

	sess := core.Session{Token: res.Token, Role: res.User.Role, User: res.User}
	if err := sessions.Save(ctx, clientID, sess); err != nil {
		return false, err
	}

	if f.Mode == ModeRegister {
		n.Success(msgRegisterOK)
	} else {
		n.Success(msgLoginOK)
	}
	return true, nil
}

// HandleLoginPage renders the auth view. ?mode=register opens the
// registration form.
func HandleLoginPage(rd *ui.Renderer, center *notify.Center) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID := middleware.ClientID(r.Context())
		rd.Render(w, r, http.StatusOK, ui.PageLogin, ui.Page{
			Title:  "Login",
			Toasts: center.Drain(clientID),
			Data:   newView(ParseMode(r.URL.Query().Get("mode")), "", ""),
		})
	}
}

// HandleSubmit logs in or registers. Login success redirects to /blogs,
// registration success to the empty login form. Failures re-render the
// form with the entered name and email.
func HandleSubmit(rd *ui.Renderer, be Backend, sessions Sessions, center *notify.Center) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID := middleware.ClientID(r.Context())
		if err := r.ParseForm(); err != nil {
			rd.Error(w, r, http.StatusBadRequest, "Invalid form", ui.Nav{})
			return
		}
		f := Form{
			Mode:     ParseMode(r.PostForm.Get("mode")),
			Name:     strings.TrimSpace(r.PostForm.Get("name")),
			Email:    strings.TrimSpace(r.PostForm.Get("email")),
			Password: r.PostForm.Get("password"),
		}

		ok, err := Submit(r.Context(), be, sessions, clientID, f, center.For(clientID))
		if err != nil {
			logrus.WithField("client_id", clientID).WithError(err).Error("Failed to save session")
			rd.Error(w, r, http.StatusInternalServerError, "Failed to save session", ui.Nav{})
			return
		}

		switch {
		case ok && f.Mode == ModeLogin:
			http.Redirect(w, r, "/blogs", http.StatusSeeOther)
		case ok:
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		default:
			rd.Render(w, r, http.StatusOK, ui.PageLogin, ui.Page{
				Title:  "Login",
				Toasts: center.Drain(clientID),
				Data:   newView(f.Mode, f.Name, f.Email),
			})
		}
	}
}

// HandleLogout clears the session and any live page state of the client.
func HandleLogout(sessions Sessions, forget ...func(clientID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID := middleware.ClientID(r.Context())
		if err := sessions.Clear(r.Context(), clientID); err != nil {
			logrus.WithField("client_id", clientID).WithError(err).Error("Failed to clear session")
			http.Error(w, "Failed to log out", http.StatusInternalServerError)
			return
		}
		for _, f := range forget {
			f(clientID)
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}
