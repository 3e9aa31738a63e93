package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bourhlef-Y/fivemarket/internal/fault"
	"github.com/Bourhlef-Y/fivemarket/internal/logging"
	"github.com/Bourhlef-Y/fivemarket/internal/models"
	"github.com/Bourhlef-Y/fivemarket/internal/repo"
)

type SellerService struct {
	Repo *repo.GormRepo
	// PlatformCommission is the platform's share of every delivered
	// order, the single source for revenue-split arithmetic.
	PlatformCommission float64
}

type SellerRequestInput struct {
	BusinessName string
	BusinessType string
	Motivation   string
}

// Request files a buyer's petition to become a seller. One petition per
// user; filing again while one exists is a conflict.
func (s *SellerService) Request(ctx context.Context, actor models.Actor, in SellerRequestInput) (*models.SellerRequest, error) {
	l := logging.FromContext(ctx).With("svc", "seller.request")

	if actor.Role != models.RoleBuyer {
		return nil, fault.Validationf("only buyers can request the seller role")
	}
	if strings.TrimSpace(in.BusinessName) == "" {
		return nil, fault.FieldErrors{"business_name": "business name is required"}
	}

	if _, err := s.Repo.GetSellerRequestByUser(ctx, actor.ID); err == nil {
		return nil, fault.Conflictf("a seller request already exists for this account")
	} else if err != gorm.ErrRecordNotFound {
		return nil, fault.Upstreamf("check seller request: %v", err)
	}

	req := &models.SellerRequest{
		UserID:       actor.ID,
		BusinessName: strings.TrimSpace(in.BusinessName),
		BusinessType: strings.TrimSpace(in.BusinessType),
		Motivation:   strings.TrimSpace(in.Motivation),
		Status:       models.RequestPending,
	}
	if err := s.Repo.CreateSellerRequest(ctx, req); err != nil {
		return nil, fault.Upstreamf("create seller request: %v", err)
	}

	l.Info("seller_request_created", "request_id", req.ID)
	return req, nil
}

// Resolve records an admin decision. Approval flips the requester's
// role to seller in the same transaction; a resolved request is
// immutable apart from that flip.
func (s *SellerService) Resolve(ctx context.Context, actor models.Actor, requestID uuid.UUID, approve bool) (*models.SellerRequest, error) {
	l := logging.FromContext(ctx).With("svc", "seller.resolve")

	if !actor.IsAdmin() {
		return nil, fault.Forbiddenf("admin role required")
	}

	var resolved *models.SellerRequest
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		req, err := tx.GetSellerRequestForUpdate(ctx, requestID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return fault.NotFoundf("seller request %s", requestID)
			}
			return fault.Upstreamf("load seller request: %v", err)
		}
		if req.Status != models.RequestPending {
			return fault.Conflictf("seller request is already %s", req.Status)
		}

		now := time.Now().UTC()
		req.ResolvedAt = &now
		if approve {
			req.Status = models.RequestApproved
			if err := tx.UpdateUserRole(ctx, req.UserID, models.RoleSeller); err != nil {
				return fault.Upstreamf("update role: %v", err)
			}
		} else {
			req.Status = models.RequestRejected
		}

		resolved = req
		return tx.SaveSellerRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	l.Info("seller_request_resolved", "request_id", requestID, "status", resolved.Status)
	return resolved, nil
}

func (s *SellerService) ListRequests(ctx context.Context, actor models.Actor, status models.RequestStatus, offset, limit int) (int64, []models.SellerRequest, error) {
	if !actor.IsAdmin() {
		return 0, nil, fault.Forbiddenf("admin role required")
	}
	return s.Repo.ListSellerRequests(ctx, status, offset, limit)
}

// RevenueSummary is a seller's delivered-order earnings with the
// platform split applied.
type RevenueSummary struct {
	Gross         float64 `json:"gross"`
	PlatformShare float64 `json:"platform_share"`
	SellerShare   float64 `json:"seller_share"`
}

func (s *SellerService) Revenue(ctx context.Context, actor models.Actor) (*RevenueSummary, error) {
	if !actor.IsSeller() {
		return nil, fault.Forbiddenf("seller role required")
	}

	gross, err := s.Repo.SellerRevenue(ctx, actor.ID)
	if err != nil {
		return nil, fault.Upstreamf("seller revenue: %v", err)
	}

	platform := gross * s.PlatformCommission
	return &RevenueSummary{
		Gross:         gross,
		PlatformShare: platform,
		SellerShare:   gross - platform,
	}, nil
}

// AdminStats is the moderation dashboard summary.
type AdminStats struct {
	PendingResources int64   `json:"pending_resources"`
	PendingRequests  int64   `json:"pending_requests"`
	TotalRevenue     float64 `json:"total_revenue"`
	PlatformRevenue  float64 `json:"platform_revenue"`
}

func (s *SellerService) Stats(ctx context.Context, actor models.Actor) (*AdminStats, error) {
	if !actor.IsAdmin() {
		return nil, fault.Forbiddenf("admin role required")
	}

	pendingRes, err := s.Repo.CountResourcesByStatus(ctx, models.StatusPending)
	if err != nil {
		return nil, fault.Upstreamf("count resources: %v", err)
	}
	pendingReq, _, err := s.Repo.ListSellerRequests(ctx, models.RequestPending, 0, 1)
	if err != nil {
		return nil, fault.Upstreamf("count requests: %v", err)
	}
	revenue, err := s.Repo.TotalRevenue(ctx)
	if err != nil {
		return nil, fault.Upstreamf("total revenue: %v", err)
	}

	return &AdminStats{
		PendingResources: pendingRes,
		PendingRequests:  pendingReq,
		TotalRevenue:     revenue,
		PlatformRevenue:  revenue * s.PlatformCommission,
	}, nil
}
