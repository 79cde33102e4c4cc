package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/chanhnguyen91/go-auth-boilerplate/internal/config"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/logger"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/model"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/oauth"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/repository"
	"github.com/chanhnguyen91/go-auth-boilerplate/pkg/apperr"
)

// RoleStreamer is assigned to every self-registered or first-time OAuth user.
const RoleStreamer = "streamer"

// passwordResetTokenType marks reset tokens so access tokens signed with the
// same secret cannot be replayed against ResetPassword.
const passwordResetTokenType = "password_reset"

// --- DTOs ---

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type AppleSignInRequest struct {
	IDToken string `json:"idToken" binding:"required"`
	Name    string `json:"name"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

type TokensResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type PasswordResetResponse struct {
	Message    string `json:"message"`
	ResetToken string `json:"resetToken"`
}

// UserResponse is the sanitized user shape returned by auth and user endpoints.
type UserResponse struct {
	ID         uint     `json:"id"`
	Email      string   `json:"email"`
	Name       string   `json:"name"`
	IsVerified bool     `json:"is_verified"`
	Roles      []string `json:"roles"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
}

// --- Interface ---

// AuthService owns authentication and token issuance: local and external
// login, refresh-token rotation, and password reset.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokensResponse, error)
	Refresh(ctx context.Context, token string) (*TokensResponse, error)
	ExternalLogin(ctx context.Context, identity oauth.Identity) (*TokensResponse, error)
	RequestPasswordReset(ctx context.Context, email string) (*PasswordResetResponse, error)
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
}

type authService struct {
	users  repository.UserRepository
	roles  repository.RoleRepository
	tokens repository.RefreshTokenRepository
	tx     repository.TransactionManager
	cfg    *config.Config
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	roles repository.RoleRepository,
	tokens repository.RefreshTokenRepository,
	tx repository.TransactionManager,
	cfg *config.Config,
) AuthService {
	return &authService{
		users:  users,
		roles:  roles,
		tokens: tokens,
		tx:     tx,
		cfg:    cfg,
		log:    logger.Named("auth"),
		now:    time.Now,
	}
}

// --- Implementation ---

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var user *model.User
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.users.FindByEmail(txCtx, req.Email); err == nil {
			return apperr.Conflict("errors.duplicate_email", apperr.Detail{
				Path:    "email",
				Message: "Email " + req.Email + " already exists",
			})
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		user = &model.User{
			Email:      req.Email,
			Password:   string(hash),
			Name:       req.Name,
			IsVerified: true,
		}
		if err := s.users.Create(txCtx, user); err != nil {
			// A race past the FindByEmail check lands on the unique index.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("errors.duplicate_email", apperr.Detail{
					Path:    "email",
					Message: "Email " + req.Email + " already exists",
				}).WithCause(err)
			}
			return err
		}

		streamer, err := s.roles.FindByName(txCtx, RoleStreamer)
		if err != nil {
			return apperr.NotFound("errors.not_found", apperr.Detail{
				Path:    "role",
				Message: "Role " + RoleStreamer + " not found",
			}).WithCause(err)
		}
		return s.users.ReplaceRoles(txCtx, user, []model.Role{*streamer})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", zap.String("email", req.Email), zap.String("role", RoleStreamer))
	loaded, err := s.users.FindByID(ctx, user.ID, "Roles")
	if err != nil {
		return nil, err
	}
	return toUserResponse(loaded), nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokensResponse, error) {
	user, err := s.users.FindByEmail(ctx, req.Email, repository.PermissionRelations...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("errors.user_not_found")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperr.Unauthorized("errors.credential_invalid")
	}
	if !user.IsVerified {
		return nil, apperr.AccessDenied("errors.unverified")
	}

	s.log.Info("user logged in", zap.String("email", req.Email))
	return s.generateTokens(ctx, user)
}

// Refresh rotates a refresh token: the presented token is consumed exactly
// once and a fresh pair is issued against the user's current roles, so
// permission changes take effect here rather than at original issuance.
func (s *authService) Refresh(ctx context.Context, token string) (*TokensResponse, error) {
	var tokens *TokensResponse
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		row, err := s.tokens.FindByToken(txCtx, token)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.AccessDenied("errors.invalid_token")
			}
			return err
		}
		if row.ExpiresAt.Before(s.now()) {
			return apperr.AccessDenied("errors.invalid_token")
		}

		// Conditional delete guards the rotation race: the losing request
		// finds zero affected rows and is rejected instead of minting a
		// second pair for the same token.
		affected, err := s.tokens.ConsumeByToken(txCtx, token)
		if err != nil {
			return err
		}
		if affected == 0 {
			return apperr.AccessDenied("errors.invalid_token")
		}

		user, err := s.users.FindByID(txCtx, row.UserID, repository.PermissionRelations...)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("errors.user_not_found")
			}
			return err
		}

		tokens, err = s.generateTokens(txCtx, user)
		if err != nil {
			return err
		}
		s.log.Info("token refreshed", zap.String("email", user.Email))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// ExternalLogin handles Google and Apple identities: an existing user logs
// straight in, a first-time identity gets a verified account with the
// streamer role.
func (s *authService) ExternalLogin(ctx context.Context, identity oauth.Identity) (*TokensResponse, error) {
	user, err := s.users.FindByEmail(ctx, identity.Email, repository.PermissionRelations...)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		created := &model.User{
			Email:      identity.Email,
			Name:       identity.Name,
			IsVerified: true,
		}
		err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			if err := s.users.Create(txCtx, created); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return apperr.Conflict("errors.duplicate_email").WithCause(err)
				}
				return err
			}
			streamer, err := s.roles.FindByName(txCtx, RoleStreamer)
			if err != nil {
				return apperr.NotFound("errors.not_found", apperr.Detail{
					Path:    "role",
					Message: "Role " + RoleStreamer + " not found",
				}).WithCause(err)
			}
			return s.users.ReplaceRoles(txCtx, created, []model.Role{*streamer})
		})
		if err != nil {
			return nil, err
		}

		user, err = s.users.FindByEmail(ctx, identity.Email, repository.PermissionRelations...)
		if err != nil {
			return nil, err
		}
	}

	s.log.Info("external login", zap.String("email", identity.Email), zap.String("provider", identity.Provider))
	return s.generateTokens(ctx, user)
}

func (s *authService) RequestPasswordReset(ctx context.Context, email string) (*PasswordResetResponse, error) {
	if _, err := s.users.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("errors.not_found", apperr.Detail{
				Path:    "email",
				Message: "User with email " + email + " not found",
			})
		}
		return nil, err
	}

	now := s.now()
	resetToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"typ":   passwordResetTokenType,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}

	s.log.Info("password reset requested", zap.String("email", email))
	return &PasswordResetResponse{Message: "Password reset email sent", ResetToken: resetToken}, nil
}

func (s *authService) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(req.Token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return apperr.AccessDenied("errors.invalid_token").WithCause(err)
	}

	// The token must be a reset token minted for exactly this account. Access
	// tokens share the signing secret, and a reset token for one email must
	// not reset another account's password.
	if typ, _ := claims["typ"].(string); typ != passwordResetTokenType {
		return apperr.AccessDenied("errors.invalid_token")
	}
	if email, _ := claims["email"].(string); email != req.Email {
		return apperr.AccessDenied("errors.invalid_token")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("errors.not_found", apperr.Detail{
				Path:    "email",
				Message: "User with email " + req.Email + " not found",
			})
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hash)
	if err := s.users.Save(ctx, user); err != nil {
		return err
	}

	s.log.Info("password reset", zap.String("email", req.Email))
	return nil
}

// generateTokens signs an access/refresh pair carrying the resolved permission
// snapshot and persists the refresh token before returning.
func (s *authService) generateTokens(ctx context.Context, user *model.User) (*TokensResponse, error) {
	permissions := ResolvePermissions(user)
	now := s.now()

	base := Claims{
		Sub:         user.ID,
		Email:       user.Email,
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(config.AccessTokenTTL)),
			ID:        uuid.NewString(),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, base).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}

	refreshExpiry := now.Add(s.cfg.RefreshTokenTTL())
	refreshClaims := base
	refreshClaims.ExpiresAt = jwt.NewNumericDate(refreshExpiry)
	// Distinct jti keeps two pairs issued within the same second from
	// colliding on the refresh_tokens unique token column.
	refreshClaims.ID = uuid.NewString()
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString([]byte(s.cfg.JWTRefreshSecret))
	if err != nil {
		return nil, err
	}

	row := &model.RefreshToken{
		Token:     refreshToken,
		ExpiresAt: refreshExpiry,
		UserID:    user.ID,
	}
	if err := s.tokens.Create(ctx, row); err != nil {
		return nil, err
	}

	return &TokensResponse{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// --- Helpers ---

func toUserResponse(user *model.User) *UserResponse {
	roles := make([]string, 0, len(user.Roles))
	for _, role := range user.Roles {
		roles = append(roles, role.Name)
	}
	return &UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		IsVerified: user.IsVerified,
		Roles:      roles,
		CreatedAt:  user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  user.UpdatedAt.Format(time.RFC3339),
	}
}
