package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Venus2Mice/e-commerce-website/internal/auth"
	"github.com/Venus2Mice/e-commerce-website/internal/users"
)

type Accounts interface {
	Register(ctx context.Context, in users.RegisterInput) (users.User, error)
	Login(ctx context.Context, loginAcc, password string) (users.User, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id int64) (users.User, error)
	List(ctx context.Context) ([]users.User, error)
	Update(ctx context.Context, u users.Update) error
}

type UsersHandler struct {
	Accounts     Accounts
	Users        UserStore
	Tokens       *auth.Tokens
	CookieSecure bool
	Log          *zap.Logger
}

type loginReq struct {
	LoginAcc string `json:"loginAcc" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *UsersHandler) register(w http.ResponseWriter, r *http.Request) {
	var req users.RegisterInput
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if err := validate.Struct(req); err != nil {
		badRequest(w, "missing required parameters")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Accounts.Register(ctx, req)
	switch {
	case errors.Is(err, users.ErrAlreadyExists):
		fail(w, 1, err.Error())
	case err != nil:
		h.Log.Error("register user", zap.Error(err))
		serverError(w)
	default:
		ok(w, u.ID, "A user is created successfully!")
	}
}

func (h *UsersHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if err := validate.Struct(req); err != nil {
		badRequest(w, "missing required parameters")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Accounts.Login(ctx, req.LoginAcc, req.Password)
	if errors.Is(err, users.ErrBadCredentials) {
		fail(w, 1, err.Error())
		return
	}
	if err != nil {
		h.Log.Error("login", zap.Error(err))
		serverError(w)
		return
	}

	token, err := h.Tokens.Create(auth.Claims{UserID: u.ID, Email: u.Email, GroupID: u.GroupID, Name: u.Name()})
	if err != nil {
		h.Log.Error("sign token", zap.Error(err))
		serverError(w)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.Tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	ok(w, u, "Login succeed!")
}

func (h *UsersHandler) logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	ok(w, "", "Logout succeed!")
}

// account reports the session of the caller, if any.
func (h *UsersHandler) account(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(auth.CookieName)
	if err != nil {
		fail(w, -1, "Not authenticated the user")
		return
	}
	claims, err := h.Tokens.Verify(cookie.Value)
	if err != nil {
		fail(w, -1, "Not authenticated the user")
		return
	}
	ok(w, map[string]any{
		"id":      claims.UserID,
		"email":   claims.Email,
		"groupId": claims.GroupID,
		"name":    claims.Name,
	}, "ok")
}

func (h *UsersHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	switch r.URL.Query().Get("type") {
	case "ALL":
		list, err := h.Users.List(ctx)
		if err != nil {
			h.Log.Error("list users", zap.Error(err))
			serverError(w)
			return
		}
		ok(w, list, "Get all users")
	case "SINGLE":
		id, valid := queryID(r, "id")
		if !valid {
			badRequest(w, "missing id")
			return
		}
		u, err := h.Users.GetByID(ctx, id)
		if errors.Is(err, users.ErrNotFound) {
			fail(w, 1, err.Error())
			return
		}
		if err != nil {
			h.Log.Error("get user", zap.Int64("id", id), zap.Error(err))
			serverError(w)
			return
		}
		ok(w, u, "Get user")
	default:
		badRequest(w, "unknown type")
	}
}

func (h *UsersHandler) update(w http.ResponseWriter, r *http.Request) {
	var req users.Update
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if err := validate.Struct(req); err != nil {
		badRequest(w, "missing required parameters")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := h.Users.Update(ctx, req)
	switch {
	case errors.Is(err, users.ErrNotFound), errors.Is(err, users.ErrAlreadyExists):
		fail(w, 1, err.Error())
	case err != nil:
		h.Log.Error("update user", zap.Int64("id", req.ID), zap.Error(err))
		serverError(w)
	default:
		ok(w, req.ID, "Update user succeed!")
	}
}
