// Package identity signs users in with one-time e-mail links and resolves
// session tokens back to users.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/sadopc/floe/internal/store"
)

var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrInvalidCode  = errors.New("login link is invalid or has expired")
	ErrNotSignedIn  = errors.New("not signed in")
)

// CodeTTL is how long a login link stays valid.
const CodeTTL = 15 * time.Minute

// Store is the persistence the service needs. *store.Store satisfies it.
type Store interface {
	UpsertUser(ctx context.Context, email string) (*store.User, error)
	GetUser(ctx context.Context, id string) (*store.User, error)
	CreateLoginCode(ctx context.Context, userID string, expiresAt time.Time) (*store.LoginCode, error)
	ConsumeLoginCode(ctx context.Context, code string, now time.Time) (string, error)
	CreateAuthSession(ctx context.Context, userID string) (*store.AuthSession, error)
	GetAuthSession(ctx context.Context, token string) (*store.AuthSession, error)
	RevokeAuthSession(ctx context.Context, token string) error
}

// Mailer delivers a login link.
type Mailer interface {
	SendLoginLink(ctx context.Context, email, link string) error
}

// LogMailer writes the link to the log instead of sending mail.
type LogMailer struct{}

func (LogMailer) SendLoginLink(_ context.Context, email, link string) error {
	log.Printf("identity: login link for %s: %s", email, link)
	return nil
}

type Service struct {
	store   Store
	mailer  Mailer
	baseURL string
	now     func() time.Time
}

func NewService(s Store, m Mailer, baseURL string) *Service {
	if m == nil {
		m = LogMailer{}
	}
	return &Service{
		store:   s,
		mailer:  m,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// SignIn creates the user on first use and sends a one-time login link.
// It returns the link so local callers can show it.
func (s *Service) SignIn(ctx context.Context, email string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return "", ErrInvalidEmail
	}

	u, err := s.store.UpsertUser(ctx, addr.Address)
	if err != nil {
		return "", fmt.Errorf("sign in: %w", err)
	}
	lc, err := s.store.CreateLoginCode(ctx, u.ID, s.now().Add(CodeTTL))
	if err != nil {
		return "", fmt.Errorf("sign in: %w", err)
	}

	link := s.Link(lc.Code)
	if err := s.mailer.SendLoginLink(ctx, u.Email, link); err != nil {
		return "", fmt.Errorf("send login link: %w", err)
	}
	return link, nil
}

// Link returns the callback URL for code.
func (s *Service) Link(code string) string {
	return s.baseURL + "/auth/callback?code=" + url.QueryEscape(code)
}

// Exchange trades a login code for a session. Unknown, used and expired
// codes all yield ErrInvalidCode.
func (s *Service) Exchange(ctx context.Context, code string) (*store.AuthSession, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvalidCode
	}
	userID, err := s.store.ConsumeLoginCode(ctx, code, s.now())
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCode
	}
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	sess, err := s.store.CreateAuthSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return sess, nil
}

func (s *Service) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return ErrNotSignedIn
	}
	err := s.store.RevokeAuthSession(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotSignedIn
	}
	return err
}

// Current resolves token to its user.
func (s *Service) Current(ctx context.Context, token string) (*store.User, error) {
	if token == "" {
		return nil, ErrNotSignedIn
	}
	sess, err := s.store.GetAuthSession(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotSignedIn
	}
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	u, err := s.store.GetUser(ctx, sess.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotSignedIn
	}
	return u, err
}
