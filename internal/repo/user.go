package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Bourhlef-Y/fivemarket/internal/models"
)

func (r *GormRepo) CreateUser(ctx context.Context, user *models.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *GormRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) UpdateUserRole(ctx context.Context, id uuid.UUID, role string) error {
	return r.DB.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("role", role).Error
}

func (r *GormRepo) SaveRefreshToken(ctx context.Context, jti string, userID uuid.UUID, expiresAt time.Time) error {
	return r.DB.WithContext(ctx).Create(&models.RefreshToken{
		JTI:       jti,
		UserID:    userID,
		ExpiresAt: expiresAt,
	}).Error
}

func (r *GormRepo) GetRefreshToken(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).First(&token, "jti = ?", jti).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *GormRepo) RevokeRefreshToken(ctx context.Context, jti string) error {
	return r.DB.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("jti = ?", jti).
		Update("revoked", true).Error
}
