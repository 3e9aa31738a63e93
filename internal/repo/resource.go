package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Bourhlef-Y/fivemarket/internal/models"
)

func (r *GormRepo) CreateResource(ctx context.Context, res *models.Resource) error {
	// The row, its images and its escrow sub-record land in one
	// transaction so a failed image insert never leaves a half-created
	// resource behind.
	return r.DB.WithContext(ctx).Create(res).Error
}

func (r *GormRepo) GetResource(ctx context.Context, id uuid.UUID) (*models.Resource, error) {
	var res models.Resource
	err := r.DB.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Escrow").
		First(&res, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *GormRepo) GetResourceForUpdate(ctx context.Context, id uuid.UUID) (*models.Resource, error) {
	var res models.Resource
	err := lockForUpdate(r.DB.WithContext(ctx)).
		First(&res, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *GormRepo) SaveResource(ctx context.Context, res *models.Resource) error {
	return r.DB.WithContext(ctx).Save(res).Error
}

func (r *GormRepo) DeleteResource(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("resource_id = ?", id).Delete(&models.ResourceImage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("resource_id = ?", id).Delete(&models.EscrowInfo{}).Error; err != nil {
			return err
		}
		if err := tx.Where("resource_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Resource{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *GormRepo) ReplaceImages(ctx context.Context, resourceID uuid.UUID, images []models.ResourceImage) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("resource_id = ?", resourceID).Delete(&models.ResourceImage{}).Error; err != nil {
			return err
		}
		for i := range images {
			images[i].ResourceID = resourceID
		}
		if len(images) == 0 {
			return nil
		}
		return tx.Create(&images).Error
	})
}

func (r *GormRepo) UpsertEscrowInfo(ctx context.Context, info *models.EscrowInfo) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "resource_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"requires_cfx_id", "requires_email", "requires_username", "delivery_instructions",
			}),
		}).
		Create(info).Error
}

func (r *GormRepo) IncrementDownloads(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).
		Model(&models.Resource{}).
		Where("id = ?", id).
		Update("downloads", gorm.Expr("downloads + 1")).Error
}

func (r *GormRepo) ListResourcesByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Resource, error) {
	var items []models.Resource
	err := r.DB.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) CountResourcesByStatus(ctx context.Context, status models.ResourceStatus) (int64, error) {
	var total int64
	err := r.DB.WithContext(ctx).
		Model(&models.Resource{}).
		Where("status = ?", status).
		Count(&total).Error
	return total, err
}

// ListSpec is the declarative filter+sort a listing query is built
// from. Zero values mean "no constraint" for that facet.
type ListSpec struct {
	Status        models.ResourceStatus
	Framework     string
	Category      string
	Type          models.ResourceType
	PriceCeiling  float64
	FreeOnly      bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	MinDownloads  *uint
	MaxDownloads  *uint
	Sort          string
}

var sortClauses = map[string]string{
	"newest":       "created_at DESC",
	"oldest":       "created_at ASC",
	"price-asc":    "price ASC",
	"price-desc":   "price DESC",
	"popular":      "downloads DESC",
	"alphabetical": "title ASC",
}

func (r *GormRepo) ListResources(ctx context.Context, spec ListSpec, offset, limit int) (int64, []models.Resource, error) {
	q := r.DB.WithContext(ctx).Model(&models.Resource{})

	if spec.Status != "" {
		q = q.Where("status = ?", spec.Status)
	}
	if spec.Framework != "" {
		q = q.Where("framework = ?", spec.Framework)
	}
	if spec.Category != "" {
		q = q.Where("category = ?", spec.Category)
	}
	if spec.Type != "" {
		q = q.Where("type = ?", spec.Type)
	}
	if spec.FreeOnly {
		q = q.Where("price = 0")
	} else if spec.PriceCeiling > 0 {
		q = q.Where("price <= ?", spec.PriceCeiling)
	}
	if spec.CreatedAfter != nil {
		q = q.Where("created_at >= ?", *spec.CreatedAfter)
	}
	if spec.CreatedBefore != nil {
		q = q.Where("created_at < ?", *spec.CreatedBefore)
	}
	if spec.MinDownloads != nil {
		q = q.Where("downloads >= ?", *spec.MinDownloads)
	}
	if spec.MaxDownloads != nil {
		q = q.Where("downloads <= ?", *spec.MaxDownloads)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	order, ok := sortClauses[spec.Sort]
	if !ok {
		order = sortClauses["newest"]
	}

	var items []models.Resource
	if err := q.
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order(order).
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return total, items, nil
}
