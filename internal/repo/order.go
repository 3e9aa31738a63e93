package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/Bourhlef-Y/fivemarket/internal/models"
)

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := lockForUpdate(r.DB.WithContext(ctx)).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) SaveOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Save(order).Error
}

func (r *GormRepo) ListOrdersByBuyer(ctx context.Context, buyerID uuid.UUID, offset, limit int) (int64, []models.Order, error) {
	return r.listOrders(ctx, "buyer_id = ?", buyerID, offset, limit)
}

func (r *GormRepo) ListOrdersBySeller(ctx context.Context, sellerID uuid.UUID, offset, limit int) (int64, []models.Order, error) {
	return r.listOrders(ctx, "seller_id = ?", sellerID, offset, limit)
}

func (r *GormRepo) listOrders(ctx context.Context, cond string, id uuid.UUID, offset, limit int) (int64, []models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Where(cond, id)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var orders []models.Order
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

// SellerRevenue sums delivered order amounts for one seller.
func (r *GormRepo) SellerRevenue(ctx context.Context, sellerID uuid.UUID) (float64, error) {
	var total float64
	err := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("seller_id = ? AND status = ?", sellerID, models.OrderDelivered).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func (r *GormRepo) TotalRevenue(ctx context.Context) (float64, error) {
	var total float64
	err := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("status IN ?", []models.OrderStatus{models.OrderCompleted, models.OrderDelivered}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}
