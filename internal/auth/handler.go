package auth

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"members/internal/session"
	"members/internal/validation"
	"members/internal/web"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// SessionKey is the cookie-session key holding the opaque session token.
const SessionKey = "sid"

// ImageResolver turns a member image name into a URL the browser can load.
type ImageResolver interface {
	URL(ctx context.Context, name string) (string, error)
}

// Handler handles authentication-related HTTP requests
type Handler struct {
	service Service
	images  ImageResolver
	logger  *slog.Logger
}

// NewHandler creates a new authentication handler
func NewHandler(service Service, images ImageResolver, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		images:  images,
		logger:  logger,
	}
}

// Home handles GET /
func (h *Handler) Home(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}

	view := web.HomeView{}
	if sess != nil {
		view.Name = sess.Name
	}
	h.html(c, http.StatusOK, func(w io.Writer) error { return web.RenderHome(w, view) })
}

// SignupForm handles GET /signup
func (h *Handler) SignupForm(c *gin.Context) {
	var missing []string
	for _, field := range []string{validation.FieldName, validation.FieldEmail, validation.FieldPassword} {
		if c.Query("missing"+field) != "" {
			missing = append(missing, field)
		}
	}
	h.html(c, http.StatusOK, func(w io.Writer) error {
		return web.RenderSignup(w, web.SignupView{Missing: missing})
	})
}

// Signup handles POST /signingup
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBind(&req); err != nil {
		c.String(http.StatusBadRequest, "bad request")
		return
	}

	result, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		var missing *MissingFieldsError
		switch {
		case errors.As(err, &missing):
			c.Redirect(http.StatusFound, signupRedirect(missing.Fields))
		case errors.Is(err, ErrInvalidInput):
			c.Redirect(http.StatusFound, "/signup")
		default:
			h.fail(c, "signup failed", err)
		}
		return
	}

	if !h.startSession(c, result.Token) {
		return
	}
	c.Redirect(http.StatusFound, "/members")
}

// LoginForm handles GET /login
func (h *Handler) LoginForm(c *gin.Context) {
	token, _ := sessions.Default(c).Get(SessionKey).(string)

	authenticated, err := h.service.IsAuthenticated(c.Request.Context(), token)
	if err != nil {
		h.fail(c, "check session", err)
		return
	}
	if authenticated {
		c.Redirect(http.StatusFound, "/")
		return
	}
	h.html(c, http.StatusOK, web.RenderLogin)
}

// Login handles POST /loggingin
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.String(http.StatusBadRequest, "bad request")
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidEmail):
			c.Redirect(http.StatusFound, "/login")
		case errors.Is(err, ErrInvalidCredentials):
			h.html(c, http.StatusOK, web.RenderLoginFailed)
		default:
			h.fail(c, "login failed", err)
		}
		return
	}

	if !h.startSession(c, result.Token) {
		return
	}
	c.Redirect(http.StatusFound, "/members")
}

// Members handles GET /members
func (h *Handler) Members(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}
	if sess == nil {
		c.Redirect(http.StatusFound, "/")
		return
	}

	imageURL, err := h.images.URL(c.Request.Context(), h.service.MemberImage())
	if err != nil {
		h.fail(c, "resolve member image", err)
		return
	}

	view := web.MembersView{Name: sess.Name, ImageURL: imageURL}
	h.html(c, http.StatusOK, func(w io.Writer) error { return web.RenderMembers(w, view) })
}

// Logout handles GET /logout
func (h *Handler) Logout(c *gin.Context) {
	cookie := sessions.Default(c)
	token, _ := cookie.Get(SessionKey).(string)

	if token != "" {
		if err := h.service.Logout(c.Request.Context(), token); err != nil {
			h.fail(c, "logout failed", err)
			return
		}
	}

	cookie.Clear()
	cookie.Options(sessions.Options{Path: "/", MaxAge: -1, HttpOnly: true})
	if err := cookie.Save(); err != nil {
		h.fail(c, "clear session cookie", err)
		return
	}

	h.html(c, http.StatusOK, web.RenderLogout)
}

// NotFound renders the fallback 404 page
func (h *Handler) NotFound(c *gin.Context) {
	h.html(c, http.StatusNotFound, web.RenderNotFound)
}

// currentSession resolves the cookie token to a live session. It returns
// ok=false after writing a 500 response when the session store fails.
func (h *Handler) currentSession(c *gin.Context) (*session.Session, bool) {
	token, _ := sessions.Default(c).Get(SessionKey).(string)

	sess, err := h.service.CurrentSession(c.Request.Context(), token)
	if err != nil {
		h.fail(c, "load session", err)
		return nil, false
	}
	return sess, true
}

func (h *Handler) startSession(c *gin.Context, token string) bool {
	cookie := sessions.Default(c)
	cookie.Set(SessionKey, token)
	if err := cookie.Save(); err != nil {
		h.fail(c, "save session cookie", err)
		return false
	}
	return true
}

func (h *Handler) html(c *gin.Context, status int, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		h.fail(c, "render page", err)
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	h.logger.ErrorContext(c.Request.Context(), msg, "error", err, "path", c.Request.URL.Path)
	_ = c.Error(err)

	var buf bytes.Buffer
	if web.RenderError(&buf) != nil {
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", buf.Bytes())
}

// signupRedirect builds /signup?missingname=1&missingemail=1... in field order.
func signupRedirect(fields []string) string {
	query := ""
	for i, field := range fields {
		if i > 0 {
			query += "&"
		}
		query += url.QueryEscape("missing"+field) + "=1"
	}
	return "/signup?" + query
}
