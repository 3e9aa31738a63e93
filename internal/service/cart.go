package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bourhlef-Y/fivemarket/internal/fault"
	"github.com/Bourhlef-Y/fivemarket/internal/logging"
	"github.com/Bourhlef-Y/fivemarket/internal/models"
	"github.com/Bourhlef-Y/fivemarket/internal/repo"
)

type CartService struct {
	Repo *repo.GormRepo
}

// Cart is a fully reloaded snapshot; ItemCount and Total are derived
// from Items on every load and never stored.
type Cart struct {
	Items     []models.CartItem `json:"items"`
	ItemCount uint              `json:"item_count"`
	Total     float64           `json:"total"`
}

func aggregate(items []models.CartItem) Cart {
	cart := Cart{Items: items}
	for _, item := range items {
		cart.ItemCount += item.Quantity
		cart.Total += item.Subtotal()
	}
	return cart
}

// Load replaces the whole cart with server truth and recomputes the
// totals.
func (s *CartService) Load(ctx context.Context, actor models.Actor) (Cart, error) {
	items, err := s.Repo.GetCart(ctx, actor.ID)
	if err != nil {
		return Cart{}, fault.Upstreamf("load cart: %v", err)
	}
	return aggregate(items), nil
}

// Add stages one resource for purchase, snapshotting its current price,
// then reloads the full cart rather than appending locally. One
// exemplar per resource; adding it again is a conflict.
func (s *CartService) Add(ctx context.Context, actor models.Actor, resourceID uuid.UUID) (Cart, error) {
	l := logging.FromContext(ctx).With("svc", "cart.add")

	if resourceID == uuid.Nil {
		return Cart{}, fault.Validationf("resource_id is required")
	}

	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		res, err := tx.GetResource(ctx, resourceID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return fault.NotFoundf("resource %s", resourceID)
			}
			return fault.Upstreamf("load resource: %v", err)
		}
		if res.Status != models.StatusApproved {
			return fault.NotFoundf("resource %s", resourceID)
		}
		if res.AuthorID == actor.ID {
			return fault.Validationf("you cannot purchase your own resource")
		}

		if _, err := tx.GetCartItem(ctx, actor.ID, resourceID); err == nil {
			return fault.Conflictf("resource is already in your cart")
		} else if err != gorm.ErrRecordNotFound {
			return fault.Upstreamf("check cart: %v", err)
		}

		return tx.AddToCart(ctx, &models.CartItem{
			UserID:     actor.ID,
			ResourceID: resourceID,
			Quantity:   1,
			UnitPrice:  res.Price,
		})
	})
	if err != nil {
		return Cart{}, err
	}

	l.Info("cart_item_added", "resource_id", resourceID)
	return s.Load(ctx, actor)
}

// Remove drops one staged resource, then reloads.
func (s *CartService) Remove(ctx context.Context, actor models.Actor, resourceID uuid.UUID) (Cart, error) {
	l := logging.FromContext(ctx).With("svc", "cart.remove")

	affected, err := s.Repo.DeleteFromCart(ctx, actor.ID, resourceID)
	if err != nil {
		return Cart{}, fault.Upstreamf("remove cart item: %v", err)
	}
	if affected == 0 {
		return Cart{}, fault.NotFoundf("cart item for resource %s", resourceID)
	}

	l.Info("cart_item_removed", "resource_id", resourceID)
	return s.Load(ctx, actor)
}

func (s *CartService) Clear(ctx context.Context, actor models.Actor) (Cart, error) {
	if err := s.Repo.ClearCart(ctx, actor.ID); err != nil {
		return Cart{}, fault.Upstreamf("clear cart: %v", err)
	}
	return s.Load(ctx, actor)
}
