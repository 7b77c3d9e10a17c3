// Package auth is the local identity provider: credentials, email
// verification and sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/oggyb/approach/internal/cache"
	"github.com/oggyb/approach/internal/config"
	"github.com/oggyb/approach/internal/db"
	svcErr "github.com/oggyb/approach/internal/errors"
	"github.com/oggyb/approach/internal/repository"
)

// Provider is what the rest of the app needs from an identity provider.
type Provider interface {
	SignUp(ctx context.Context, email, password, confirm, name string) (*db.User, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	ResendVerification(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, token string) (*db.User, error)
	SignOut(ctx context.Context, s *Session) error
	Authenticate(ctx context.Context, token string) (*Session, error)
}

type Options struct {
	Secret          []byte
	Issuer          string
	SessionTTL      time.Duration
	VerificationTTL time.Duration
	// ConfirmURL is the link target; the token is appended as ?token=.
	ConfirmURL string
	BcryptCost int
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// OptionsFromConfig maps the auth config section.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Secret:          []byte(cfg.Auth.JWTSecret),
		Issuer:          cfg.Auth.Issuer,
		SessionTTL:      cfg.Auth.SessionTTL,
		VerificationTTL: cfg.Auth.VerificationTTL,
		ConfirmURL:      strings.TrimRight(cfg.Auth.PublicBaseURL, "/") + "/auth/confirm",
		BcryptCost:      bcrypt.DefaultCost,
	}
}

// Service implements Provider on top of the users table, the verification
// token table and the Redis session denylist.
type Service struct {
	users  *repository.UserRepository
	tokens *repository.TokenRepository
	cache  *cache.RedisCache
	mailer Mailer
	opts   Options
	log    *slog.Logger
	now    func() time.Time

	// OnSignUp runs after a user row is committed.
	OnSignUp func(ctx context.Context, userID string)
}

var _ Provider = (*Service)(nil)

func NewService(database *gorm.DB, rc *cache.RedisCache, mailer Mailer, opts Options, log *slog.Logger) *Service {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.VerificationTTL <= 0 {
		opts.VerificationTTL = 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	log = log.With("subsystem", "auth")
	if mailer == nil {
		mailer = LogMailer{Log: log}
	}
	return &Service{
		users:  repository.NewUserRepository(database),
		tokens: repository.NewTokenRepository(database),
		cache:  rc,
		mailer: mailer,
		opts:   opts,
		log:    log,
		now:    opts.Clock,
	}
}

// SignUp creates an unverified account and mails a verification link.
//
// Behavior:
//   - email is normalized and must parse as an address.
//   - name must not be blank.
//   - password follows ValidatePassword.
//   - an existing email fails with AuthError(duplicate_account).
//   - a failed mail send is logged; the account stays and the user can
//     ask for a new link.
func (s *Service) SignUp(ctx context.Context, email, password, confirm, name string) (*db.User, error) {
	email = NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, svcErr.Invalid("email", "is not a valid address")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, svcErr.Invalid("name", "must not be empty")
	}
	if err := ValidatePassword(password, confirm); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, svcErr.Auth(svcErr.AuthDuplicateAccount, nil)
	} else if !errors.Is(err, svcErr.ErrNotFound) {
		return nil, err
	}

	hash, err := hashPassword(password, s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &db.User{Name: name, Email: email, PasswordHash: hash, Interests: []string{}}
	if err := s.users.Create(ctx, u); errors.Is(err, repository.ErrDuplicateKey) {
		// lost a race with a concurrent sign-up for the same address
		return nil, svcErr.Auth(svcErr.AuthDuplicateAccount, nil)
	} else if err != nil {
		return nil, err
	}
	s.log.Info("user signed up", "user_id", u.ID)

	if s.OnSignUp != nil {
		s.OnSignUp(ctx, u.ID)
	}
	if err := s.sendVerification(ctx, u); err != nil {
		s.log.Warn("verification mail failed", "user_id", u.ID, "err", err)
	}
	return u, nil
}

// SignIn checks credentials and opens a session. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, svcErr.ErrNotFound) {
		return nil, svcErr.Auth(svcErr.AuthInvalidCredentials, nil)
	}
	if err != nil {
		return nil, err
	}
	if !checkPassword(u.PasswordHash, password) {
		return nil, svcErr.Auth(svcErr.AuthInvalidCredentials, nil)
	}
	if !u.IsVerified {
		return nil, svcErr.Auth(svcErr.AuthEmailNotVerified, nil)
	}
	return s.issue(u)
}

// ResendVerification mails a fresh link, invalidating earlier ones. Unknown
// and already verified addresses succeed silently.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, svcErr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if u.IsVerified {
		return nil
	}
	return s.sendVerification(ctx, u)
}

// VerifyEmail consumes a verification token and marks its user verified.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*db.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, svcErr.Auth(svcErr.AuthInvalidToken, errors.New("missing token"))
	}
	tok, err := s.tokens.Consume(ctx, token)
	if errors.Is(err, svcErr.ErrNotFound) {
		return nil, svcErr.Auth(svcErr.AuthInvalidToken, errors.New("unknown or used token"))
	}
	if err != nil {
		return nil, err
	}
	if s.now().After(tok.ExpiresAt) {
		return nil, svcErr.Auth(svcErr.AuthInvalidToken, errors.New("token expired"))
	}
	if err := s.users.MarkVerified(ctx, tok.UserID); err != nil {
		return nil, err
	}
	s.log.Info("email verified", "user_id", tok.UserID)
	return s.users.FindByID(ctx, tok.UserID)
}

// SignOut revokes the session's token until it would have expired anyway.
func (s *Service) SignOut(ctx context.Context, sess *Session) error {
	if sess == nil || sess.JTI == "" {
		return svcErr.Auth(svcErr.AuthSessionRequired, nil)
	}
	if err := s.cache.RevokeSession(ctx, sess.JTI, sess.ExpiresAt); err != nil {
		return svcErr.Store("revoke session", err)
	}
	return nil
}

// Authenticate validates a bearer token and returns its session.
func (s *Service) Authenticate(ctx context.Context, token string) (*Session, error) {
	token = BearerToken(token)
	if token == "" {
		return nil, svcErr.Auth(svcErr.AuthSessionRequired, nil)
	}

	c := &claims{}
	parsed, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.opts.Secret, nil
	},
		jwt.WithIssuer(s.opts.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, svcErr.Auth(svcErr.AuthInvalidToken, err)
	}

	revoked, err := s.cache.IsSessionRevoked(ctx, c.ID)
	if err != nil {
		return nil, svcErr.Store("check session", err)
	}
	if revoked {
		return nil, svcErr.Auth(svcErr.AuthInvalidToken, errors.New("session signed out"))
	}

	return &Session{
		UserID:    c.Subject,
		Email:     c.Email,
		Name:      c.Name,
		Token:     token,
		JTI:       c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

type claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

func (s *Service) issue(u *db.User) (*Session, error) {
	now := s.now()
	exp := now.Add(s.opts.SessionTTL)
	c := &claims{
		Email: u.Email,
		Name:  u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.opts.Issuer,
			Subject:   u.ID,
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.opts.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session: %w", err)
	}
	return &Session{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Token:     signed,
		JTI:       c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

func (s *Service) sendVerification(ctx context.Context, u *db.User) error {
	tok := &db.VerificationToken{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		ExpiresAt: s.now().Add(s.opts.VerificationTTL).UTC(),
	}
	if err := s.tokens.Replace(ctx, tok); err != nil {
		return err
	}
	link := s.opts.ConfirmURL + "?token=" + url.QueryEscape(tok.Token)
	return s.mailer.SendVerification(ctx, u.Email, u.Name, link)
}
