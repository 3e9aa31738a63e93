package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bourhlef-Y/fivemarket/internal/fault"
	"github.com/Bourhlef-Y/fivemarket/internal/hash"
	"github.com/Bourhlef-Y/fivemarket/internal/logging"
	"github.com/Bourhlef-Y/fivemarket/internal/models"
	"github.com/Bourhlef-Y/fivemarket/internal/repo"
	"github.com/Bourhlef-Y/fivemarket/internal/tokens"
)

const (
	accessTTL  = 15 * time.Minute
	refreshTTL = 7 * 24 * time.Hour
)

type AuthService struct {
	Repo          *repo.GormRepo
	JWTSecret     []byte
	RefreshSecret []byte
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	Role         string
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	fe := fault.FieldErrors{}
	if username == "" {
		fe["username"] = "username is required"
	}
	if email == "" || !strings.Contains(email, "@") {
		fe["email"] = "a valid email is required"
	}
	if len(password) < 8 {
		fe["password"] = "password must be at least 8 characters"
	}
	if len(fe) > 0 {
		return nil, fe
	}

	if _, err := s.Repo.GetUserByUsername(ctx, username); err == nil {
		return nil, fault.Conflictf("username is taken")
	} else if err != gorm.ErrRecordNotFound {
		return nil, fault.Upstreamf("check username: %v", err)
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return nil, fault.Upstreamf("hash password: %v", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleBuyer,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return nil, fault.Upstreamf("create user: %v", err)
	}

	l.Info("user_registered", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.GetUserByUsername(ctx, username)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fault.Validationf("invalid username or password")
		}
		return nil, fault.Upstreamf("load user: %v", err)
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, fault.Validationf("invalid username or password")
	}

	result, err := s.issueTokens(ctx, user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	l.Info("login_success", "user_id", user.ID)
	return result, nil
}

// Refresh rotates the token pair; the presented refresh token must
// still be stored, unexpired and unrevoked, and is revoked on use.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, fault.Forbiddenf("invalid refresh token")
	}

	stored, err := s.Repo.GetRefreshToken(ctx, claims.ID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fault.Forbiddenf("refresh token not found")
		}
		return nil, fault.Upstreamf("load refresh token: %v", err)
	}
	if stored.Revoked || time.Now().After(stored.ExpiresAt) {
		return nil, fault.Forbiddenf("refresh token expired or revoked")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fault.Forbiddenf("invalid refresh token")
	}
	user, err := s.Repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fault.Upstreamf("load user: %v", err)
	}

	if err := s.Repo.RevokeRefreshToken(ctx, claims.ID); err != nil {
		return nil, fault.Upstreamf("revoke refresh token: %v", err)
	}

	return s.issueTokens(ctx, user.ID, user.Role)
}

// Logout revokes the presented refresh token so it cannot be replayed
// after the cookies are cleared. A token that fails to parse is already
// unusable and is ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil
	}
	if err := s.Repo.RevokeRefreshToken(ctx, claims.ID); err != nil {
		return fault.Upstreamf("revoke refresh token: %v", err)
	}
	return nil
}

func (s *AuthService) issueTokens(ctx context.Context, userID uuid.UUID, role string) (*LoginResult, error) {
	accessExp := time.Now().Add(accessTTL)
	access, err := tokens.SignAccess(userID.String(), role, s.JWTSecret, accessExp)
	if err != nil {
		return nil, fault.Upstreamf("sign access token: %v", err)
	}

	refreshExp := time.Now().Add(refreshTTL)
	jti := tokens.NewJTI()
	refresh, err := tokens.SignRefresh(userID.String(), jti, s.RefreshSecret, refreshExp)
	if err != nil {
		return nil, fault.Upstreamf("sign refresh token: %v", err)
	}
	if err := s.Repo.SaveRefreshToken(ctx, jti, userID, refreshExp); err != nil {
		return nil, fault.Upstreamf("store refresh token: %v", err)
	}

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		Role:         role,
	}, nil
}
