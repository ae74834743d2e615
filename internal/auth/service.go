// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/templates/account-api/internal/core"
	"github.com/carterperez-dev/templates/account-api/internal/mail"
	"github.com/carterperez-dev/templates/account-api/internal/middleware"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountExists      = errors.New("an account with this email already exists")
	ErrUserNotFound       = errors.New("user not found")
)

const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

type UserInfo struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

type NewAccount struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	PasswordHash string
	Role         string
}

// UserProvider is the persistence store as seen by the account service.
// Lookups return core.ErrNotFound when no live user matches and Create
// returns core.ErrDuplicateKey when the email is already taken.
type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(ctx context.Context, account NewAccount) (*UserInfo, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type TokenIssuer interface {
	Sign(payload TokenPayload, expiresIn time.Duration) (string, error)
	VerifyToken(
		ctx context.Context,
		token, tokenType string,
	) (*middleware.TokenClaims, error)
	AccessTokenTTL() time.Duration
}

type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

type Config struct {
	BaseURL          string
	RecoveryPath     string
	MailFrom         string
	RecoverySubject  string
	RecoveryTokenTTL time.Duration
}

type Service struct {
	users  UserProvider
	tokens TokenIssuer
	mailer Mailer
	cfg    Config
}

func NewService(
	users UserProvider,
	tokens TokenIssuer,
	mailer Mailer,
	cfg Config,
) *Service {
	if cfg.RecoveryTokenTTL <= 0 {
		cfg.RecoveryTokenTTL = 30 * time.Minute
	}
	if cfg.RecoverySubject == "" {
		cfg.RecoverySubject = "Password recovery"
	}

	return &Service{
		users:  users,
		tokens: tokens,
		mailer: mailer,
		cfg:    cfg,
	}
}

// Subject identifies the caller of GetProfile.
type Subject struct {
	ID    string
	Email string
}

func (s *Service) SignIn(
	ctx context.Context,
	req SignInRequest,
) (*TokenPair, error) {
	ctx, span := core.StartSpan(ctx, "auth.SignIn")
	defer span.End()

	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, err := core.VerifyPasswordTimingSafe(req.Password, &user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	span.SetAttributes(attribute.String("user.id", user.ID))

	return s.issueTokenPair(user)
}

func (s *Service) SignUp(
	ctx context.Context,
	req SignUpRequest,
) (*TokenPair, error) {
	ctx, span := core.StartSpan(ctx, "auth.SignUp")
	defer span.End()

	email := normalizeEmail(req.Email)

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrAccountExists
	case !errors.Is(err, core.ErrNotFound):
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	_, err = s.users.Create(ctx, NewAccount{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        email,
		Phone:        req.Phone,
		PasswordHash: passwordHash,
		Role:         RoleUser,
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.SignIn(ctx, SignInRequest{Email: email, Password: req.Password})
}

// GetProfile returns nil without an error when the subject no longer exists.
func (s *Service) GetProfile(
	ctx context.Context,
	subject Subject,
) (*UserInfo, error) {
	ctx, span := core.StartSpan(ctx, "auth.GetProfile")
	defer span.End()

	user, err := s.users.GetByID(ctx, subject.ID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

func (s *Service) RecoverPassword(
	ctx context.Context,
	email string,
) (*SuccessResponse, error) {
	ctx, span := core.StartSpan(ctx, "auth.RecoverPassword")
	defer span.End()

	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	token, err := s.tokens.Sign(
		TokenPayload{Subject: user.ID, Type: TokenTypeRecovery},
		s.cfg.RecoveryTokenTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("sign recovery token: %w", err)
	}

	msg := mail.Message{
		From:    s.cfg.MailFrom,
		To:      user.Email,
		Subject: s.cfg.RecoverySubject,
		Body:    s.recoveryBody(token),
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("send recovery email: %w", err)
	}

	core.AddSpanEvent(ctx, "recovery_email_sent",
		attribute.String("user.id", user.ID),
	)

	return &SuccessResponse{Success: true}, nil
}

// ChangePassword overwrites the stored hash without checking the previous
// password; callers reach it only with a verified recovery token.
func (s *Service) ChangePassword(
	ctx context.Context,
	userID, newPassword string,
) (*SuccessResponse, error) {
	ctx, span := core.StartSpan(ctx, "auth.ChangePassword")
	defer span.End()

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	newHash, err := core.HashPassword(newPassword)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdatePassword(ctx, userID, newHash); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update password: %w", err)
	}

	return &SuccessResponse{Success: true}, nil
}

// Refresh trades a refresh token for a new access token. The refresh token
// itself is handed back unchanged.
func (s *Service) Refresh(
	ctx context.Context,
	refreshToken string,
) (*TokenPair, error) {
	ctx, span := core.StartSpan(ctx, "auth.Refresh")
	defer span.End()

	claims, err := s.tokens.VerifyToken(ctx, refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	accessToken, err := s.tokens.Sign(accessPayload(user), 0)
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	return s.tokenPair(accessToken, refreshToken), nil
}

func (s *Service) issueTokenPair(user *UserInfo) (*TokenPair, error) {
	accessToken, err := s.tokens.Sign(accessPayload(user), 0)
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refresh := accessPayload(user)
	refresh.Type = TokenTypeRefresh

	refreshToken, err := s.tokens.Sign(refresh, 0)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	return s.tokenPair(accessToken, refreshToken), nil
}

func (s *Service) tokenPair(accessToken, refreshToken string) *TokenPair {
	ttl := s.tokens.AccessTokenTTL()

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(ttl / time.Second),
		ExpiresAt:    time.Now().Add(ttl),
	}
}

func (s *Service) recoveryBody(token string) string {
	link := strings.TrimRight(s.cfg.BaseURL, "/") +
		s.cfg.RecoveryPath +
		"?token=" + url.QueryEscape(token)

	minutes := int(s.cfg.RecoveryTokenTTL / time.Minute)

	return fmt.Sprintf(
		"Hello!\n\nYou asked to recover your password. "+
			"To choose a new one, open the link below:\n\n%s\n\n"+
			"The link expires in %d minutes. "+
			"If you did not request this, you can ignore this email.\n",
		link,
		minutes,
	)
}

func accessPayload(user *UserInfo) TokenPayload {
	return TokenPayload{
		Subject: user.ID,
		Email:   user.Email,
		Role:    user.Role,
		Type:    TokenTypeAccess,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
