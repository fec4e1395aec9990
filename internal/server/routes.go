package server

import (
	"context"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const healthTimeout = 3 * time.Second

func (s *Server) RegisterRoutes() http.Handler {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware(s.logger, s.metrics))
	if len(s.cfg.CORSAllowedOrigins) > 0 {
		r.Use(CORSMiddleware(s.cfg.CORSAllowedOrigins))
	}

	store := cookie.NewStore([]byte(s.cfg.Session.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.cfg.Session.MaxAge,
		Secure:   s.cfg.Production(),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	r.GET("/healthz", s.healthHandler)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	r.Static("/public", s.cfg.PublicDir)

	pages := r.Group("/")
	pages.Use(sessions.Sessions(s.cfg.Session.CookieName, store))
	{
		pages.GET("/", s.auth.Home)
		pages.GET("/signup", s.auth.SignupForm)
		pages.POST("/signingup", s.auth.Signup)
		pages.GET("/login", s.auth.LoginForm)
		pages.POST("/loggingin", s.auth.Login)
		pages.GET("/members", s.auth.Members)
		pages.GET("/logout", s.auth.Logout)
	}

	r.NoRoute(s.publicFileOrNotFound)

	return r
}

// publicFileOrNotFound serves files of the public directory from the site
// root, e.g. /ssm1.jpg, and renders the 404 page otherwise.
func (s *Server) publicFileOrNotFound(c *gin.Context) {
	if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
		name := path.Clean("/" + c.Request.URL.Path)
		fs := gin.Dir(s.cfg.PublicDir, false)
		if f, err := fs.Open(name); err == nil {
			info, statErr := f.Stat()
			_ = f.Close()
			if statErr == nil && info.Mode().IsRegular() {
				c.FileFromFS(name, fs)
				return
			}
		} else if !os.IsNotExist(err) {
			s.logger.WarnContext(c.Request.Context(), "open public file", "path", name, "error", err)
		}
	}
	s.auth.NotFound(c)
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := http.StatusOK
	response := gin.H{}
	for name, check := range s.health {
		result := check(ctx)
		if result["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		response[name] = result
	}

	if status == http.StatusOK {
		response["status"] = "up"
	} else {
		response["status"] = "down"
	}
	c.JSON(status, response)
}
