package auth

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/kanbanhq/board-management/internal/permission"
)

// Credential is what the store hands back for a login attempt. PasswordHash
// is nil for accounts that cannot log in with a password (system accounts).
type Credential struct {
	Identity
	PasswordHash *string
	IsActive     bool
}

// UserRepositoryAPI is the credential lookup the verifier needs. Lookup is
// case-insensitive on email.
type UserRepositoryAPI interface {
	GetCredentialsByEmail(ctx context.Context, email string) (*Credential, error)
}

// ServiceAPI is the credential verifier surface consumed by the HTTP
// handler.
type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	Logout(ctx context.Context, accessToken string) error
	ValidateAccessToken(tokenString string) (*Claims, error)
}

// Service verifies credentials and manages the token lifecycle: issue,
// refresh with single-use rotation, revoke on logout.
type Service struct {
	userRepo    UserRepositoryAPI
	tokenGen    TokenGeneratorAPI
	blacklist   *Blacklist
	invalidator *permission.Invalidator
	bcryptCost  int
	logger      *slog.Logger
}

func NewService(userRepo UserRepositoryAPI, tokenGen TokenGeneratorAPI, blacklist *Blacklist, invalidator *permission.Invalidator, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		userRepo:    userRepo,
		tokenGen:    tokenGen,
		blacklist:   blacklist,
		invalidator: invalidator,
		bcryptCost:  bcryptCost,
		logger:      logger,
	}
}

// Authenticate validates credentials and returns a token pair. Unknown
// email, wrong password and password-less accounts all fail with the same
// ErrInvalidCredentials so callers cannot enumerate accounts.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	cred, err := s.userRepo.GetCredentialsByEmail(ctx, dto.Email)
	if err != nil {
		s.logger.InfoContext(ctx, "login failed: user lookup", "error", err)
		return AuthTokens{}, ErrInvalidCredentials
	}

	if cred.PasswordHash == nil || *cred.PasswordHash == "" {
		// account without a password can never authenticate this way
		s.logger.InfoContext(ctx, "login failed: account has no password hash", "user_id", cred.UserID)
		return AuthTokens{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*cred.PasswordHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, ErrInvalidCredentials
	}

	if !cred.IsActive {
		return AuthTokens{}, ErrUserInactive
	}

	return s.issueTokens(cred.Identity)
}

// RefreshTokens rotates a refresh token: the presented token is revoked
// before the new pair is issued, so it can never be replayed.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGen.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	revoked, err := s.blacklist.Contains(ctx, refreshToken)
	if err != nil {
		s.logger.ErrorContext(ctx, "refresh blacklist check failed", "error", err)
		return AuthTokens{}, ErrInvalidToken
	}
	if revoked {
		return AuthTokens{}, ErrTokenBlacklisted
	}

	if err := s.blacklist.Add(ctx, refreshToken, claims.ExpiresAt.Time); err != nil {
		s.logger.ErrorContext(ctx, "failed to blacklist rotated refresh token", "error", err)
		return AuthTokens{}, ErrInvalidToken
	}

	return s.issueTokens(claims.Identity)
}

// Logout revokes the access token through its natural expiry and drops the
// user's cached permission contexts.
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.tokenGen.ValidateAccessToken(accessToken)
	if err != nil {
		return err
	}

	if err := s.blacklist.Add(ctx, accessToken, claims.ExpiresAt.Time); err != nil {
		return err
	}

	s.invalidator.InvalidateUser(ctx, claims.UserID)
	return nil
}

// ValidateAccessToken validates access token and returns claims.
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGen.ValidateAccessToken(tokenString)
}

// HashPassword creates a bcrypt hash with the service's configured cost.
func (s *Service) HashPassword(password string) (string, error) {
	return HashPassword(password, s.bcryptCost)
}

func (s *Service) issueTokens(id Identity) (AuthTokens, error) {
	accessToken, err := s.tokenGen.GenerateAccessToken(id)
	if err != nil {
		return AuthTokens{}, err
	}

	refreshToken, err := s.tokenGen.GenerateRefreshToken(id)
	if err != nil {
		return AuthTokens{}, err
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
