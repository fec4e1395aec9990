package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"members/internal/logger"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rootImages struct{}

func (rootImages) URL(_ context.Context, name string) (string, error) { return "/" + name, nil }

type brokenImages struct{}

func (brokenImages) URL(context.Context, string) (string, error) { return "", errors.New("presign failed") }

func newTestRouter(f *fixture, images ImageResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	store := cookie.NewStore([]byte("test-signing-secret"))
	store.Options(sessions.Options{Path: "/", MaxAge: 86400, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("members_session", store))

	h := NewHandler(f.svc, images, logger.Discard())
	r.GET("/", h.Home)
	r.GET("/signup", h.SignupForm)
	r.POST("/signingup", h.Signup)
	r.GET("/login", h.LoginForm)
	r.POST("/loggingin", h.Login)
	r.GET("/members", h.Members)
	r.GET("/logout", h.Logout)
	r.NoRoute(h.NotFound)
	return r
}

// browser replays cookies between requests.
type browser struct {
	handler http.Handler
	cookies map[string]*http.Cookie
}

func newBrowser(h http.Handler) *browser {
	return &browser{handler: h, cookies: make(map[string]*http.Cookie)}
}

func (b *browser) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	b.handler.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return w
}

func (b *browser) snapshot() map[string]*http.Cookie {
	out := make(map[string]*http.Cookie, len(b.cookies))
	for k, v := range b.cookies {
		out[k] = v
	}
	return out
}

func signupForm(name, email, pw string) url.Values {
	return url.Values{"name": {name}, "email": {email}, "password": {pw}}
}

func TestHomeAnonymous(t *testing.T) {
	b := newBrowser(newTestRouter(newFixture(t), rootImages{}))

	w := b.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `href="/signup"`)
	assert.Contains(t, w.Body.String(), `href="/login"`)
}

func TestSignupFlow(t *testing.T) {
	f := newFixture(t)
	b := newBrowser(newTestRouter(f, rootImages{}))

	w := b.do(http.MethodPost, "/signingup", signupForm("ada", "ada@example.com", "analytical"))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/members", w.Header().Get("Location"))

	set := w.Result().Cookies()
	require.Len(t, set, 1)
	assert.Equal(t, "members_session", set[0].Name)
	assert.True(t, set[0].HttpOnly)
	assert.Equal(t, 86400, set[0].MaxAge)
	assert.NotContains(t, set[0].Value, "ada@example.com")

	w = b.do(http.MethodGet, "/members", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<p>Hello ada</p>")
	assert.Regexp(t, `<img src="/ssm[123]\.jpg">`, w.Body.String())

	w = b.do(http.MethodGet, "/", nil)
	assert.Contains(t, w.Body.String(), "Hello, ada!")

	w = b.do(http.MethodGet, "/login", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestSignupMissingFieldsRedirect(t *testing.T) {
	tests := []struct {
		form url.Values
		want string
	}{
		{signupForm("", "ada@example.com", "pw"), "/signup?missingname=1"},
		{signupForm("ada", "", "pw"), "/signup?missingemail=1"},
		{signupForm("ada", "ada@example.com", ""), "/signup?missingpassword=1"},
		{signupForm("", "", "pw"), "/signup?missingname=1&missingemail=1"},
		{signupForm("", "ada@example.com", ""), "/signup?missingname=1&missingpassword=1"},
		{signupForm("ada", "", ""), "/signup?missingemail=1&missingpassword=1"},
		{url.Values{}, "/signup?missingname=1&missingemail=1&missingpassword=1"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			f := newFixture(t)
			b := newBrowser(newTestRouter(f, rootImages{}))

			w := b.do(http.MethodPost, "/signingup", tt.form)
			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, tt.want, w.Header().Get("Location"))
			assert.Equal(t, 0, f.repo.count())

			w = b.do(http.MethodGet, w.Header().Get("Location"), nil)
			for _, field := range []string{"name", "email", "password"} {
				flagged := strings.Contains(tt.want, "missing"+field)
				assert.Equal(t, flagged, strings.Contains(w.Body.String(), field+" is required"), field)
			}
		})
	}
}

func TestSignupInvalidRedirect(t *testing.T) {
	f := newFixture(t)
	b := newBrowser(newTestRouter(f, rootImages{}))

	w := b.do(http.MethodPost, "/signingup", signupForm(strings.Repeat("a", 21), "ada@example.com", "pw"))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/signup", w.Header().Get("Location"))
	assert.Equal(t, 0, f.repo.count())
	assert.Empty(t, b.cookies)
}

func TestSignupStoreFailureResponse(t *testing.T) {
	f := newFixture(t)
	f.repo.insertErr = errors.New("connection refused")
	b := newBrowser(newTestRouter(f, rootImages{}))

	w := b.do(http.MethodPost, "/signingup", signupForm("ada", "ada@example.com", "pw"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal Server Error")
}

func TestLoginFlow(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Signup(context.Background(), SignupRequest{Name: "ada", Email: "ada@example.com", Password: "analytical"})
	require.NoError(t, err)
	b := newBrowser(newTestRouter(f, rootImages{}))

	w := b.do(http.MethodGet, "/login", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/loggingin"`)

	w = b.do(http.MethodPost, "/loggingin", url.Values{"email": {"ada@example.com"}, "password": {"analytical"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/members", w.Header().Get("Location"))

	w = b.do(http.MethodGet, "/members", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Hello ada")
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Signup(context.Background(), SignupRequest{Name: "ada", Email: "ada@example.com", Password: "analytical"})
	require.NoError(t, err)
	router := newTestRouter(f, rootImages{})

	unknown := newBrowser(router)
	wu := unknown.do(http.MethodPost, "/loggingin", url.Values{"email": {"nobody@example.com"}, "password": {"analytical"}})
	wrong := newBrowser(router)
	ww := wrong.do(http.MethodPost, "/loggingin", url.Values{"email": {"ada@example.com"}, "password": {"wrong"}})

	assert.Equal(t, http.StatusOK, wu.Code)
	assert.Equal(t, wu.Code, ww.Code)
	assert.Equal(t, wu.Body.String(), ww.Body.String())
	assert.Contains(t, wu.Body.String(), "Invalid email/password combination")
	assert.Empty(t, unknown.cookies)
	assert.Empty(t, wrong.cookies)

	w := unknown.do(http.MethodGet, "/members", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = unknown.do(http.MethodPost, "/loggingin", url.Values{"email": {"ada"}, "password": {"x"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(f, rootImages{})
	b := newBrowser(router)

	w := b.do(http.MethodPost, "/signingup", signupForm("ada", "ada@example.com", "pw"))
	require.Equal(t, http.StatusFound, w.Code)
	stolen := b.snapshot()

	w = b.do(http.MethodGet, "/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "You are logged out.")
	assert.Empty(t, b.cookies)
	assert.Equal(t, 0, f.store.Len())

	w = b.do(http.MethodGet, "/members", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	replay := newBrowser(router)
	replay.cookies = stolen
	w = replay.do(http.MethodGet, "/members", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestLogoutAnonymous(t *testing.T) {
	b := newBrowser(newTestRouter(newFixture(t), rootImages{}))
	w := b.do(http.MethodGet, "/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "You are logged out.")
}

func TestMembersImageFailure(t *testing.T) {
	f := newFixture(t)
	b := newBrowser(newTestRouter(f, brokenImages{}))

	b.do(http.MethodPost, "/signingup", signupForm("ada", "ada@example.com", "pw"))
	w := b.do(http.MethodGet, "/members", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestNotFound(t *testing.T) {
	b := newBrowser(newTestRouter(newFixture(t), rootImages{}))
	w := b.do(http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Page not found - 404")
}
