package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bourhlef-Y/fivemarket/internal/events"
	"github.com/Bourhlef-Y/fivemarket/internal/fault"
	"github.com/Bourhlef-Y/fivemarket/internal/logging"
	"github.com/Bourhlef-Y/fivemarket/internal/models"
	"github.com/Bourhlef-Y/fivemarket/internal/repo"
)

type OrderService struct {
	Repo     *repo.GormRepo
	Producer Publisher
}

// EscrowFields are the buyer-supplied values an escrow resource's
// requirements may demand at checkout.
type EscrowFields struct {
	CfxID    string
	Email    string
	Username string
}

type CheckoutLine struct {
	ResourceID uuid.UUID
	Escrow     EscrowFields
}

func (s *OrderService) publish(ctx context.Context, key string, event map[string]any) {
	if s.Producer == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(pubCtx, events.TopicOrderEvents, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "error", err)
	}
}

// Checkout turns a list of purchase lines into orders. Every line is
// validated before any order is created so a doomed checkout never
// leaves partial writes. When paymentSynchronous is true the orders are
// created already completed, the dev/stubbed payment path.
func (s *OrderService) Checkout(ctx context.Context, actor models.Actor, lines []CheckoutLine, paymentSynchronous bool) ([]models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.checkout")

	if len(lines) == 0 {
		return nil, fault.Validationf("at least one item is required")
	}

	var orders []models.Order
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		resources := make([]*models.Resource, len(lines))
		for i, line := range lines {
			res, err := tx.GetResource(ctx, line.ResourceID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return fault.NotFoundf("resource %s", line.ResourceID)
				}
				return fault.Upstreamf("load resource: %v", err)
			}
			if res.Status != models.StatusApproved {
				return fault.NotFoundf("resource %s", line.ResourceID)
			}
			if res.AuthorID == actor.ID {
				return fault.Validationf("you cannot purchase your own resource")
			}
			if fe := missingEscrowFields(res, line.Escrow); fe != nil {
				return fe
			}
			resources[i] = res
		}

		now := time.Now().UTC()
		for i, line := range lines {
			res := resources[i]
			order := models.Order{
				BuyerID:    actor.ID,
				ResourceID: res.ID,
				SellerID:   res.AuthorID,
				Amount:     res.Price,
				Status:     models.OrderPending,
				CfxID:      line.Escrow.CfxID,
				Email:      line.Escrow.Email,
				Username:   line.Escrow.Username,
			}
			if paymentSynchronous {
				order.Status = models.OrderCompleted
				completed := now
				order.CompletedAt = &completed
			}
			if err := tx.CreateOrder(ctx, &order); err != nil {
				return fault.Upstreamf("create order: %v", err)
			}
			orders = append(orders, order)
		}

		// A successful checkout removes the purchased lines from the
		// buyer's cart; a buy-now purchase leaves the rest untouched.
		for _, line := range lines {
			if _, err := tx.DeleteFromCart(ctx, actor.ID, line.ResourceID); err != nil {
				return fault.Upstreamf("clear cart line: %v", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, order := range orders {
		if order.Status == models.OrderCompleted {
			s.publish(ctx, order.ID.String(), map[string]any{
				"type":        "order_completed",
				"order_id":    order.ID,
				"resource_id": order.ResourceID,
				"amount":      order.Amount,
			})
		}
	}

	l.Info("checkout_success", "orders", len(orders))
	return orders, nil
}

// ConfirmPayment moves an order from pending to completed. The amount
// was snapshotted at checkout and is left untouched.
func (s *OrderService) ConfirmPayment(ctx context.Context, actor models.Actor, orderID uuid.UUID) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.confirm_payment")

	var confirmed *models.Order
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		order, err := s.visibleForUpdate(ctx, tx, actor, orderID)
		if err != nil {
			return err
		}
		if order.BuyerID != actor.ID && !actor.IsAdmin() {
			return fault.NotFoundf("order %s", orderID)
		}
		if order.Status != models.OrderPending {
			return fault.Conflictf("cannot complete a %s order", order.Status)
		}

		now := time.Now().UTC()
		order.Status = models.OrderCompleted
		order.CompletedAt = &now
		confirmed = order
		return tx.SaveOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, orderID.String(), map[string]any{
		"type":        "order_completed",
		"order_id":    orderID,
		"resource_id": confirmed.ResourceID,
		"amount":      confirmed.Amount,
	})

	l.Info("order_completed", "order_id", orderID)
	return confirmed, nil
}

// Deliver marks a completed order delivered. Only the seller who owns
// the purchased resource may confirm delivery; for escrow resources
// this records the out-of-band fulfilment, for direct resources it is
// the automated grant.
func (s *OrderService) Deliver(ctx context.Context, actor models.Actor, orderID uuid.UUID) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.deliver")

	var delivered *models.Order
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		order, err := s.visibleForUpdate(ctx, tx, actor, orderID)
		if err != nil {
			return err
		}
		if order.SellerID != actor.ID {
			return fault.NotFoundf("order %s", orderID)
		}
		if order.Status != models.OrderCompleted {
			return fault.Conflictf("cannot deliver a %s order", order.Status)
		}

		now := time.Now().UTC()
		order.Status = models.OrderDelivered
		order.DeliveredAt = &now
		delivered = order
		return tx.SaveOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, orderID.String(), map[string]any{
		"type":        "order_delivered",
		"order_id":    orderID,
		"resource_id": delivered.ResourceID,
	})

	l.Info("order_delivered", "order_id", orderID)
	return delivered, nil
}

// Cancel is the buyer- or admin-initiated cancellation of a completed
// order. Refund mechanics live outside this service.
func (s *OrderService) Cancel(ctx context.Context, actor models.Actor, orderID uuid.UUID) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.cancel")

	var cancelled *models.Order
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		order, err := s.visibleForUpdate(ctx, tx, actor, orderID)
		if err != nil {
			return err
		}
		if order.BuyerID != actor.ID && !actor.IsAdmin() {
			return fault.NotFoundf("order %s", orderID)
		}
		if order.Status != models.OrderPending && order.Status != models.OrderCompleted {
			return fault.Conflictf("cannot cancel a %s order", order.Status)
		}

		order.Status = models.OrderCancelled
		cancelled = order
		return tx.SaveOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	l.Info("order_cancelled", "order_id", orderID)
	return cancelled, nil
}

// Download hands the buyer of a direct resource its delivery file once
// the order is completed or delivered, bumping the download counter.
// The first successful download also auto-delivers a completed order.
func (s *OrderService) Download(ctx context.Context, actor models.Actor, orderID uuid.UUID) (string, error) {
	l := logging.FromContext(ctx).With("svc", "order.download")

	var fileURL string
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		order, err := s.visibleForUpdate(ctx, tx, actor, orderID)
		if err != nil {
			return err
		}
		if order.BuyerID != actor.ID {
			return fault.NotFoundf("order %s", orderID)
		}
		if order.Status != models.OrderCompleted && order.Status != models.OrderDelivered {
			return fault.Conflictf("order is not paid yet")
		}

		res, err := tx.GetResource(ctx, order.ResourceID)
		if err != nil {
			return fault.Upstreamf("load resource: %v", err)
		}
		if res.Type != models.TypeDirect {
			return fault.Validationf("escrow resources are delivered by the seller, not downloaded")
		}
		if res.FileURL == "" {
			return fault.Conflictf("resource has no delivery file")
		}

		if order.Status == models.OrderCompleted {
			now := time.Now().UTC()
			order.Status = models.OrderDelivered
			order.DeliveredAt = &now
			if err := tx.SaveOrder(ctx, order); err != nil {
				return err
			}
		}

		fileURL = res.FileURL
		return tx.IncrementDownloads(ctx, res.ID)
	})
	if err != nil {
		return "", err
	}

	l.Info("download_granted", "order_id", orderID)
	return fileURL, nil
}

func (s *OrderService) Get(ctx context.Context, actor models.Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fault.NotFoundf("order %s", orderID)
		}
		return nil, fault.Upstreamf("get order: %v", err)
	}
	if order.BuyerID != actor.ID && order.SellerID != actor.ID && !actor.IsAdmin() {
		return nil, fault.NotFoundf("order %s", orderID)
	}
	return order, nil
}

func (s *OrderService) ListPurchases(ctx context.Context, actor models.Actor, offset, limit int) (int64, []models.Order, error) {
	return s.Repo.ListOrdersByBuyer(ctx, actor.ID, offset, limit)
}

func (s *OrderService) ListSales(ctx context.Context, actor models.Actor, offset, limit int) (int64, []models.Order, error) {
	if !actor.IsSeller() {
		return 0, nil, fault.Forbiddenf("seller role required")
	}
	return s.Repo.ListOrdersBySeller(ctx, actor.ID, offset, limit)
}

// missingEscrowFields checks a purchase line against the resource's
// escrow requirements, naming every missing field.
func missingEscrowFields(res *models.Resource, fields EscrowFields) fault.FieldErrors {
	if res.Type != models.TypeEscrow || res.Escrow == nil {
		return nil
	}

	fe := fault.FieldErrors{}
	if res.Escrow.RequiresCfxID && fields.CfxID == "" {
		fe["cfx_id"] = "the seller requires your CFX ID"
	}
	if res.Escrow.RequiresEmail && fields.Email == "" {
		fe["email"] = "the seller requires your email"
	}
	if res.Escrow.RequiresUsername && fields.Username == "" {
		fe["username"] = "the seller requires your display name"
	}
	if len(fe) == 0 {
		return nil
	}
	return fe
}

func (s *OrderService) visibleForUpdate(ctx context.Context, tx *repo.GormRepo, actor models.Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := tx.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fault.NotFoundf("order %s", orderID)
		}
		return nil, fault.Upstreamf("load order: %v", err)
	}
	return order, nil
}
