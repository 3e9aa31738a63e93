package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bourhlef-Y/fivemarket/internal/fault"
	"github.com/Bourhlef-Y/fivemarket/internal/models"
)

func TestCartService_AddAndAggregate(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	buyer := buyerActor()
	ctx := context.Background()

	first := seedResource(t, r, sellerActor(), models.StatusApproved, models.TypeDirect, 10.00)
	second := seedResource(t, r, sellerActor(), models.StatusApproved, models.TypeDirect, 15.50)

	cart, err := svc.Add(ctx, buyer, first.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cart.ItemCount)
	assert.InDelta(t, 10.00, cart.Total, 1e-9)

	cart, err = svc.Add(ctx, buyer, second.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, cart.ItemCount)
	assert.InDelta(t, 25.50, cart.Total, 1e-9)
	require.Len(t, cart.Items, 2)
}

func TestCartService_Add_DuplicateConflicts(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	buyer := buyerActor()
	ctx := context.Background()
	res := seedResource(t, r, sellerActor(), models.StatusApproved, models.TypeDirect, 10)

	_, err := svc.Add(ctx, buyer, res.ID)
	require.NoError(t, err)

	_, err = svc.Add(ctx, buyer, res.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrConflict)
}

func TestCartService_Add_Guards(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	seller := sellerActor()
	ctx := context.Background()

	draft := seedResource(t, r, seller, models.StatusDraft, models.TypeDirect, 10)
	_, err := svc.Add(ctx, buyerActor(), draft.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrNotFound)

	own := seedResource(t, r, seller, models.StatusApproved, models.TypeDirect, 10)
	_, err = svc.Add(ctx, seller, own.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrValidation)

	_, err = svc.Add(ctx, buyerActor(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrNotFound)
}

func TestCartService_Add_SnapshotsUnitPrice(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	buyer := buyerActor()
	ctx := context.Background()
	res := seedResource(t, r, sellerActor(), models.StatusApproved, models.TypeDirect, 12.50)

	cart, err := svc.Add(ctx, buyer, res.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 12.50, cart.Items[0].UnitPrice)

	require.NoError(t, r.DB.Model(&models.Resource{}).Where("id = ?", res.ID).Update("price", 20.00).Error)

	cart, err = svc.Load(ctx, buyer)
	require.NoError(t, err)
	assert.Equal(t, 12.50, cart.Items[0].UnitPrice)
	assert.InDelta(t, 12.50, cart.Total, 1e-9)
}

func TestCartService_RemoveAndClear(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	buyer := buyerActor()
	ctx := context.Background()

	first := seedResource(t, r, sellerActor(), models.StatusApproved, models.TypeDirect, 10)
	second := seedResource(t, r, sellerActor(), models.StatusApproved, models.TypeDirect, 15)

	_, err := svc.Add(ctx, buyer, first.ID)
	require.NoError(t, err)
	_, err = svc.Add(ctx, buyer, second.ID)
	require.NoError(t, err)

	cart, err := svc.Remove(ctx, buyer, first.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cart.ItemCount)
	assert.InDelta(t, 15, cart.Total, 1e-9)

	_, err = svc.Remove(ctx, buyer, first.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrNotFound)

	cart, err = svc.Clear(ctx, buyer)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.Total)
}
