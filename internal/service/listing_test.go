package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bourhlef-Y/fivemarket/internal/fault"
	"github.com/Bourhlef-Y/fivemarket/internal/models"
	"github.com/Bourhlef-Y/fivemarket/internal/util"
)

func TestCompose_AlwaysApprovedOnly(t *testing.T) {
	t.Parallel()

	spec, err := Compose(FilterConfig{}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, spec.Status)
}

func TestCompose_AllMeansNoConstraint(t *testing.T) {
	t.Parallel()

	spec, err := Compose(FilterConfig{
		Framework:    "all",
		Category:     "all",
		ResourceType: "all",
		Recency:      "all",
		Popularity:   "all",
	}, time.Now())
	require.NoError(t, err)

	assert.Empty(t, spec.Framework)
	assert.Empty(t, spec.Category)
	assert.Empty(t, spec.Type)
	assert.Nil(t, spec.CreatedAfter)
	assert.Nil(t, spec.CreatedBefore)
	assert.Nil(t, spec.MinDownloads)
	assert.Nil(t, spec.MaxDownloads)
}

func TestCompose_UnknownFacetsNamed(t *testing.T) {
	t.Parallel()

	_, err := Compose(FilterConfig{
		Framework:    "RedM",
		Category:     "Weapons",
		ResourceType: "subscription",
		Recency:      "yesterday",
		Popularity:   "viral",
		PriceCeiling: -5,
	}, time.Now())
	require.Error(t, err)
	require.ErrorIs(t, err, fault.ErrValidation)

	fields := fault.Fields(err)
	require.NotNil(t, fields)
	for _, key := range []string{"framework", "category", "resource_type", "recency", "popularity", "price_ceiling"} {
		assert.Contains(t, fields, key)
	}
}

func TestCompose_RecencyBuckets(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	spec, err := Compose(FilterConfig{Recency: "week"}, now)
	require.NoError(t, err)
	require.NotNil(t, spec.CreatedAfter)
	assert.Equal(t, now.AddDate(0, 0, -7), *spec.CreatedAfter)

	spec, err = Compose(FilterConfig{Recency: "older"}, now)
	require.NoError(t, err)
	assert.Nil(t, spec.CreatedAfter)
	require.NotNil(t, spec.CreatedBefore)
	assert.Equal(t, now.AddDate(0, -3, 0), *spec.CreatedBefore)
}

func TestCompose_PopularityBuckets(t *testing.T) {
	t.Parallel()

	now := time.Now()

	spec, err := Compose(FilterConfig{Popularity: "high"}, now)
	require.NoError(t, err)
	require.NotNil(t, spec.MinDownloads)
	assert.EqualValues(t, 100, *spec.MinDownloads)
	assert.Nil(t, spec.MaxDownloads)

	spec, err = Compose(FilterConfig{Popularity: "medium"}, now)
	require.NoError(t, err)
	require.NotNil(t, spec.MinDownloads)
	require.NotNil(t, spec.MaxDownloads)
	assert.EqualValues(t, 10, *spec.MinDownloads)
	assert.EqualValues(t, 99, *spec.MaxDownloads)

	spec, err = Compose(FilterConfig{Popularity: "new"}, now)
	require.NoError(t, err)
	assert.Nil(t, spec.MinDownloads)
	require.NotNil(t, spec.MaxDownloads)
	assert.EqualValues(t, 9, *spec.MaxDownloads)
}

func TestListingService_List_FiltersAndSorts(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &ListingService{Repo: r}
	seller := sellerActor()
	ctx := context.Background()

	cheap := seedResource(t, r, seller, models.StatusApproved, models.TypeDirect, 5)
	pricey := seedResource(t, r, seller, models.StatusApproved, models.TypeDirect, 50)
	seedResource(t, r, seller, models.StatusDraft, models.TypeDirect, 1)

	page, err := svc.List(ctx, FilterConfig{Sort: "price-asc"}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, cheap.ID, page.Items[0].ID)
	assert.Equal(t, pricey.ID, page.Items[1].ID)

	page, err = svc.List(ctx, FilterConfig{PriceCeiling: 10}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, cheap.ID, page.Items[0].ID)
}

func TestListingService_List_Paginates(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &ListingService{Repo: r}
	seller := sellerActor()

	for i := 0; i < 5; i++ {
		seedResource(t, r, seller, models.StatusApproved, models.TypeDirect, float64(i+1))
	}

	page, err := svc.List(context.Background(), FilterConfig{Sort: "price-asc"}, 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Total)
	assert.EqualValues(t, 3, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, float64(3), page.Items[0].Price)
}

func TestListingService_List_ClampsPageAndSize(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &ListingService{Repo: r}
	seller := sellerActor()

	for i := 0; i < 3; i++ {
		seedResource(t, r, seller, models.StatusApproved, models.TypeDirect, float64(i+1))
	}

	page, err := svc.List(context.Background(), FilterConfig{}, 0, 1000000)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, util.DefaultPageSize, page.Size)
	assert.Len(t, page.Items, 3)

	page, err = svc.List(context.Background(), FilterConfig{Sort: "price-asc"}, -1, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	require.Len(t, page.Items, 2)
	assert.Equal(t, float64(1), page.Items[0].Price)
}
