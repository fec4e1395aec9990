package web

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHome(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHome(&buf, HomeView{}))
	assert.Contains(t, buf.String(), `href="/signup"`)
	assert.Contains(t, buf.String(), `href="/login"`)
	assert.NotContains(t, buf.String(), "Hello")

	buf.Reset()
	require.NoError(t, RenderHome(&buf, HomeView{Name: "ada"}))
	assert.Contains(t, buf.String(), "Hello, ada!")
	assert.Contains(t, buf.String(), `href="/members"`)
	assert.Contains(t, buf.String(), `href="/logout"`)
}

func TestRenderEscapesName(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHome(&buf, HomeView{Name: "<script>x</script>"}))
	assert.NotContains(t, buf.String(), "<script>")
	assert.Contains(t, buf.String(), "&lt;script&gt;")
}

func TestRenderSignup(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderSignup(&buf, SignupView{Missing: []string{"name", "password"}}))
	out := buf.String()
	assert.Contains(t, out, `action="/signingup"`)
	assert.Contains(t, out, "name is required")
	assert.Contains(t, out, "password is required")
	assert.NotContains(t, out, "email is required")
}

func TestRenderMembers(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderMembers(&buf, MembersView{Name: "ada", ImageURL: "/ssm2.jpg"}))
	assert.Contains(t, buf.String(), "<p>Hello ada</p>")
	assert.Contains(t, buf.String(), `<img src="/ssm2.jpg">`)
	assert.Contains(t, buf.String(), "Sign out")
}

func TestRenderStaticPages(t *testing.T) {
	tests := []struct {
		render func(*bytes.Buffer) error
		want   string
	}{
		{func(b *bytes.Buffer) error { return RenderLogin(b) }, `action="/loggingin"`},
		{func(b *bytes.Buffer) error { return RenderLoginFailed(b) }, "Invalid email/password combination"},
		{func(b *bytes.Buffer) error { return RenderLogout(b) }, "You are logged out."},
		{func(b *bytes.Buffer) error { return RenderNotFound(b) }, "Page not found - 404"},
		{func(b *bytes.Buffer) error { return RenderError(b) }, "Internal Server Error"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		require.NoError(t, tt.render(&buf))
		assert.Contains(t, buf.String(), tt.want)
	}
}
