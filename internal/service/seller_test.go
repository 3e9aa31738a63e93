package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bourhlef-Y/fivemarket/internal/fault"
	"github.com/Bourhlef-Y/fivemarket/internal/models"
)

func seedUser(t *testing.T, svc *SellerService, role string) models.Actor {
	t.Helper()

	user := &models.User{
		Username:     "user-" + role + "-" + t.Name(),
		Email:        t.Name() + "-" + role + "@example.com",
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, svc.Repo.CreateUser(context.Background(), user))
	return models.Actor{ID: user.ID, Role: user.Role}
}

func TestSellerService_Request_OnePerUser(t *testing.T) {
	t.Parallel()

	svc := &SellerService{Repo: newTestRepo(t), PlatformCommission: 0.20}
	buyer := seedUser(t, svc, models.RoleBuyer)
	ctx := context.Background()

	req, err := svc.Request(ctx, buyer, SellerRequestInput{BusinessName: "FiveM Mods Co"})
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, req.Status)

	_, err = svc.Request(ctx, buyer, SellerRequestInput{BusinessName: "Another Name"})
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrConflict)
}

func TestSellerService_Request_BuyersOnly(t *testing.T) {
	t.Parallel()

	svc := &SellerService{Repo: newTestRepo(t), PlatformCommission: 0.20}

	_, err := svc.Request(context.Background(), sellerActor(), SellerRequestInput{BusinessName: "Shop"})
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrValidation)
}

func TestSellerService_Resolve_ApprovalFlipsRole(t *testing.T) {
	t.Parallel()

	svc := &SellerService{Repo: newTestRepo(t), PlatformCommission: 0.20}
	buyer := seedUser(t, svc, models.RoleBuyer)
	admin := adminActor()
	ctx := context.Background()

	req, err := svc.Request(ctx, buyer, SellerRequestInput{BusinessName: "FiveM Mods Co"})
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, buyer, req.ID, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrForbidden)

	resolved, err := svc.Resolve(ctx, admin, req.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	user, err := svc.Repo.GetUser(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSeller, user.Role)

	// A resolved request cannot be resolved again.
	_, err = svc.Resolve(ctx, admin, req.ID, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrConflict)
}

func TestSellerService_Resolve_RejectionKeepsRole(t *testing.T) {
	t.Parallel()

	svc := &SellerService{Repo: newTestRepo(t), PlatformCommission: 0.20}
	buyer := seedUser(t, svc, models.RoleBuyer)
	ctx := context.Background()

	req, err := svc.Request(ctx, buyer, SellerRequestInput{BusinessName: "FiveM Mods Co"})
	require.NoError(t, err)

	resolved, err := svc.Resolve(ctx, adminActor(), req.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.RequestRejected, resolved.Status)

	user, err := svc.Repo.GetUser(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleBuyer, user.Role)
}

func TestSellerService_Revenue_AppliesCommission(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &SellerService{Repo: r, PlatformCommission: 0.20}
	seller := sellerActor()
	ctx := context.Background()

	res := seedResource(t, r, seller, models.StatusApproved, models.TypeDirect, 100)
	orderSvc := &OrderService{Repo: r}
	buyer := buyerActor()

	orders, err := orderSvc.Checkout(ctx, buyer, []CheckoutLine{{ResourceID: res.ID}}, true)
	require.NoError(t, err)
	_, err = orderSvc.Download(ctx, buyer, orders[0].ID)
	require.NoError(t, err)

	summary, err := svc.Revenue(ctx, seller)
	require.NoError(t, err)
	assert.InDelta(t, 100, summary.Gross, 1e-9)
	assert.InDelta(t, 20, summary.PlatformShare, 1e-9)
	assert.InDelta(t, 80, summary.SellerShare, 1e-9)

	_, err = svc.Revenue(ctx, buyer)
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrForbidden)
}

func TestSellerService_Stats_AdminOnly(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &SellerService{Repo: r, PlatformCommission: 0.20}
	ctx := context.Background()

	seedResource(t, r, sellerActor(), models.StatusPending, models.TypeDirect, 10)

	_, err := svc.Stats(ctx, sellerActor())
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrForbidden)

	stats, err := svc.Stats(ctx, adminActor())
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.PendingResources)
}
