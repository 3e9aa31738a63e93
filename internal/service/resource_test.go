package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bourhlef-Y/fivemarket/internal/fault"
	"github.com/Bourhlef-Y/fivemarket/internal/models"
	"github.com/Bourhlef-Y/fivemarket/internal/validate"
)

func TestResourceService_Create_StartsInDraft(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := newResourceSvc(r)
	seller := sellerActor()

	res, err := svc.Create(context.Background(), seller, CreateResourceInput{
		Title:       "Police MDT",
		Description: testDescription,
		Price:       24.99,
		Type:        models.TypeDirect,
		Framework:   "ESX",
		Category:    "Police",
		Images:      []ImageInput{validImage(true)},
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusDraft, res.Status)
	assert.Equal(t, seller.ID, res.AuthorID)
	assert.NotEqual(t, uuid.Nil, res.ID)
}

func TestResourceService_Create_BuyerForbidden(t *testing.T) {
	t.Parallel()

	svc := newResourceSvc(newTestRepo(t))

	_, err := svc.Create(context.Background(), buyerActor(), CreateResourceInput{
		Title:       "Police MDT",
		Description: testDescription,
		Price:       24.99,
		Type:        models.TypeDirect,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrForbidden)
}

func TestResourceService_Create_InvalidFieldsNamed(t *testing.T) {
	t.Parallel()

	svc := newResourceSvc(newTestRepo(t))

	_, err := svc.Create(context.Background(), sellerActor(), CreateResourceInput{
		Title:       "ab",
		Description: "too short",
		Price:       -1,
		Type:        models.ResourceType("subscription"),
	})
	require.Error(t, err)
	require.ErrorIs(t, err, fault.ErrValidation)

	fields := fault.Fields(err)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "description")
	assert.Contains(t, fields, "price")
	assert.Contains(t, fields, "resource_type")
}

func TestResourceService_Get_HidesDraftsFromStrangers(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := newResourceSvc(r)
	seller := sellerActor()
	res := seedResource(t, r, seller, models.StatusDraft, models.TypeDirect, 10)

	_, err := svc.Get(context.Background(), buyerActor(), res.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrNotFound)

	got, err := svc.Get(context.Background(), seller, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.ID, got.ID)

	got, err = svc.Get(context.Background(), adminActor(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.ID, got.ID)
}

func TestResourceService_Submit_RequiresCompleteness(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := newResourceSvc(r)
	seller := sellerActor()
	ctx := context.Background()

	// A direct resource without a delivery file is incomplete.
	res := seedResource(t, r, seller, models.StatusDraft, models.TypeDirect, 10)
	require.NoError(t, r.DB.Model(res).Update("file_url", "").Error)

	_, err := svc.Submit(ctx, seller, res.ID)
	require.Error(t, err)
	require.ErrorIs(t, err, fault.ErrValidation)
	assert.Contains(t, fault.Fields(err), "file")

	// Attaching the file completes it; the same submit now succeeds.
	_, err = svc.AttachFile(ctx, seller, res.ID, validate.FileMeta{
		Filename: "police-mdt.zip",
		MIME:     "application/zip",
		Size:     2048,
	}, "https://files.example.com/police-mdt.zip")
	require.NoError(t, err)

	submitted, err := svc.Submit(ctx, seller, res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, submitted.Status)
}

func TestResourceService_Submit_AlreadyPendingConflicts(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := newResourceSvc(r)
	seller := sellerActor()
	res := seedResource(t, r, seller, models.StatusPending, models.TypeDirect, 10)

	_, err := svc.Submit(context.Background(), seller, res.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrConflict)
}

func TestResourceService_Approve_StampsAndGuards(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := newResourceSvc(r)
	seller := sellerActor()
	admin := adminActor()
	ctx := context.Background()
	res := seedResource(t, r, seller, models.StatusPending, models.TypeDirect, 10)

	_, err := svc.Approve(ctx, seller, res.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrForbidden)

	approved, err := svc.Approve(ctx, admin, res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, admin.ID, *approved.ApprovedBy)

	// Approving twice is a conflict, not a silent no-op.
	_, err = svc.Approve(ctx, admin, res.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrConflict)
}

func TestResourceService_Reject_ThenEditAndResubmit(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := newResourceSvc(r)
	seller := sellerActor()
	ctx := context.Background()
	res := seedResource(t, r, seller, models.StatusPending, models.TypeDirect, 10)

	rejected, err := svc.Reject(ctx, adminActor(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)

	// Rejected resources are editable in place.
	newTitle := "Police MDT v2"
	updated, err := svc.Update(ctx, seller, res.ID, UpdateResourceInput{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, newTitle, updated.Title)

	submitted, err := svc.Submit(ctx, seller, res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, submitted.Status)
}

func TestResourceService_Update_ApprovedNeedsWithdraw(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := newResourceSvc(r)
	seller := sellerActor()
	ctx := context.Background()
	res := seedResource(t, r, seller, models.StatusApproved, models.TypeDirect, 10)

	newTitle := "Renamed"
	_, err := svc.Update(ctx, seller, res.ID, UpdateResourceInput{Title: &newTitle})
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrConflict)

	withdrawn, err := svc.Withdraw(ctx, seller, res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, withdrawn.Status)
	assert.Nil(t, withdrawn.ApprovedAt)
	assert.Nil(t, withdrawn.ApprovedBy)

	_, err = svc.Update(ctx, seller, res.ID, UpdateResourceInput{Title: &newTitle})
	require.NoError(t, err)
}

func TestResourceService_Suspend_OnlyApproved(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := newResourceSvc(r)
	seller := sellerActor()
	ctx := context.Background()

	draft := seedResource(t, r, seller, models.StatusDraft, models.TypeDirect, 10)
	_, err := svc.Suspend(ctx, seller, draft.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrConflict)

	approved := seedResource(t, r, seller, models.StatusApproved, models.TypeDirect, 10)
	suspended, err := svc.Suspend(ctx, seller, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuspended, suspended.Status)

	// The owner can always pull a suspended resource back to draft.
	withdrawn, err := svc.Withdraw(ctx, seller, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, withdrawn.Status)
}

func TestResourceService_Delete_NonOwnerSeesNotFound(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := newResourceSvc(r)
	seller := sellerActor()
	ctx := context.Background()
	res := seedResource(t, r, seller, models.StatusDraft, models.TypeDirect, 10)

	err := svc.Delete(ctx, sellerActor(), res.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrNotFound)

	// The row is untouched and still reachable by its owner.
	got, err := svc.Get(ctx, seller, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.ID, got.ID)

	require.NoError(t, svc.Delete(ctx, seller, res.ID))
	_, err = svc.Get(ctx, seller, res.ID)
	assert.ErrorIs(t, err, fault.ErrNotFound)
}

func TestResourceService_AttachFile_EscrowRejected(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := newResourceSvc(r)
	seller := sellerActor()
	res := seedResource(t, r, seller, models.StatusDraft, models.TypeEscrow, 10)

	_, err := svc.AttachFile(context.Background(), seller, res.ID, validate.FileMeta{
		Filename: "mod.zip",
		MIME:     "application/zip",
		Size:     2048,
	}, "https://files.example.com/mod.zip")
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrValidation)
}

func TestResourceService_SetEscrowInfo_DirectRejected(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := newResourceSvc(r)
	seller := sellerActor()
	res := seedResource(t, r, seller, models.StatusDraft, models.TypeDirect, 10)

	err := svc.SetEscrowInfo(context.Background(), seller, res.ID, EscrowInput{RequiresCfxID: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrValidation)
}

func TestResourceService_SetImages_ThumbnailInvariant(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := newResourceSvc(r)
	seller := sellerActor()
	ctx := context.Background()
	res := seedResource(t, r, seller, models.StatusDraft, models.TypeDirect, 10)

	err := svc.SetImages(ctx, seller, res.ID, []ImageInput{validImage(true), validImage(true)})
	require.Error(t, err)
	require.ErrorIs(t, err, fault.ErrValidation)
	assert.Contains(t, fault.Fields(err)["images"], "thumbnail")

	second := validImage(false)
	second.Position = 1
	require.NoError(t, svc.SetImages(ctx, seller, res.ID, []ImageInput{validImage(true), second}))

	got, err := svc.Get(ctx, seller, res.ID)
	require.NoError(t, err)
	require.Len(t, got.Images, 2)
	assert.True(t, got.Images[0].IsThumbnail)
	assert.False(t, got.Images[1].IsThumbnail)
}
