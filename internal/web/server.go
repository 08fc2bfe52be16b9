// Package web serves the login callback and the attachment upload endpoint.
package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sadopc/floe/internal/store"
)

// SessionCookie carries the auth session token.
const SessionCookie = "floe_session"

// Auth is the identity service the handlers use.
type Auth interface {
	SignIn(ctx context.Context, email string) (string, error)
	Exchange(ctx context.Context, code string) (*store.AuthSession, error)
	SignOut(ctx context.Context, token string) error
	Current(ctx context.Context, token string) (*store.User, error)
}

// Blobs is the upload storage the handlers use.
type Blobs interface {
	Put(name string, r io.Reader) (string, error)
	Get(key string) ([]byte, string, error)
	Delete(key string) error
	URL(key string) string
}

type Server struct {
	auth   Auth
	blobs  Blobs
	router *gin.Engine
}

func NewServer(auth Auth, blobs Blobs) *Server {
	router := gin.Default()
	router.MaxMultipartMemory = maxUploadMemory

	s := &Server{auth: auth, blobs: blobs, router: router}

	router.GET("/", s.handleIndex)
	router.GET("/files/:key", s.handleFile)
	router.DELETE("/files/:key", s.handleDeleteFile)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signin", s.handleSignIn)
		authGroup.GET("/callback", s.handleCallback)
		authGroup.POST("/signout", s.handleSignOut)
	}

	api := router.Group("/api")
	{
		api.POST("/upload", s.handleUpload)
		api.GET("/me", s.handleMe)
	}

	return s
}

// Handler exposes the router, for tests and custom servers.
func (s *Server) Handler() *gin.Engine {
	return s.router
}

// Run serves on addr until ctx ends, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
