package web

import (
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/sadopc/floe/internal/identity"
)

const maxUploadMemory = 8 << 20 // 8MB

func (s *Server) handleIndex(c *gin.Context) {
	resp := gin.H{"app": "floe"}
	if msg := c.Query("error"); msg != "" {
		resp["error"] = msg
	}
	if token, err := c.Cookie(SessionCookie); err == nil {
		if u, err := s.auth.Current(c.Request.Context(), token); err == nil {
			resp["email"] = u.Email
		}
	}
	c.JSON(http.StatusOK, resp)
}

type signInRequest struct {
	Email string `json:"email" binding:"required"`
}

func (s *Server) handleSignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": identity.ErrInvalidEmail.Error()})
		return
	}
	if _, err := s.auth.SignIn(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, identity.ErrInvalidEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("web: sign in: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sign in failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Check your email for the login link"})
}

// handleCallback exchanges the one-time code and always redirects to the app
// root, with ?error=<message> when the exchange fails.
func (s *Server) handleCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusFound, "/")
		return
	}

	sess, err := s.auth.Exchange(c.Request.Context(), code)
	if err != nil {
		log.Printf("web: auth callback: %v", err)
		msg := err.Error()
		if !errors.Is(err, identity.ErrInvalidCode) {
			msg = "Sign in failed"
		}
		c.Redirect(http.StatusFound, "/?error="+url.QueryEscape(msg))
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, sess.Token, 30*24*3600, "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}

func (s *Server) handleSignOut(c *gin.Context) {
	token, _ := c.Cookie(SessionCookie)
	err := s.auth.SignOut(c.Request.Context(), token)
	if err != nil && !errors.Is(err, identity.ErrNotSignedIn) {
		log.Printf("web: sign out: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sign out failed"})
		return
	}
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

func (s *Server) handleMe(c *gin.Context) {
	token, _ := c.Cookie(SessionCookie)
	u, err := s.auth.Current(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": identity.ErrNotSignedIn.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": u.ID, "email": u.Email})
}

// handleUpload stores every file in the "files" field and answers with the
// URL of the first one.
func (s *Server) handleUpload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files provided"})
		return
	}

	var urls []string
	for _, fh := range form.File["files"] {
		f, err := fh.Open()
		if err != nil {
			log.Printf("web: open upload %s: %v", fh.Filename, err)
			continue
		}
		key, err := s.blobs.Put(fh.Filename, f)
		f.Close()
		if err != nil {
			log.Printf("web: store upload %s: %v", fh.Filename, err)
			continue
		}
		urls = append(urls, s.blobs.URL(key))
	}

	if len(urls) == 0 {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": urls[0]})
}

func (s *Server) handleFile(c *gin.Context) {
	data, ctype, err := s.blobs.Get(c.Param("key"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	c.Data(http.StatusOK, ctype, data)
}

// handleDeleteFile removes an attachment. Only signed-in users may delete.
func (s *Server) handleDeleteFile(c *gin.Context) {
	token, _ := c.Cookie(SessionCookie)
	if _, err := s.auth.Current(c.Request.Context(), token); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": identity.ErrNotSignedIn.Error()})
		return
	}
	if err := s.blobs.Delete(c.Param("key")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
