package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/Bourhlef-Y/fivemarket/internal/models"
)

func (r *GormRepo) CreateSellerRequest(ctx context.Context, req *models.SellerRequest) error {
	return r.DB.WithContext(ctx).Create(req).Error
}

func (r *GormRepo) GetSellerRequestByUser(ctx context.Context, userID uuid.UUID) (*models.SellerRequest, error) {
	var req models.SellerRequest
	if err := r.DB.WithContext(ctx).First(&req, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *GormRepo) GetSellerRequestForUpdate(ctx context.Context, id uuid.UUID) (*models.SellerRequest, error) {
	var req models.SellerRequest
	err := lockForUpdate(r.DB.WithContext(ctx)).
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *GormRepo) SaveSellerRequest(ctx context.Context, req *models.SellerRequest) error {
	return r.DB.WithContext(ctx).Save(req).Error
}

func (r *GormRepo) ListSellerRequests(ctx context.Context, status models.RequestStatus, offset, limit int) (int64, []models.SellerRequest, error) {
	q := r.DB.WithContext(ctx).Model(&models.SellerRequest{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var reqs []models.SellerRequest
	if err := q.Order("created_at ASC").Offset(offset).Limit(limit).Find(&reqs).Error; err != nil {
		return 0, nil, err
	}
	return total, reqs, nil
}
