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
	"github.com/Bourhlef-Y/fivemarket/internal/search"
	"github.com/Bourhlef-Y/fivemarket/internal/validate"
)

// Searcher is what the lifecycle manager needs from the search index.
type Searcher interface {
	IndexResource(ctx context.Context, res *models.Resource) error
	RemoveResource(ctx context.Context, id uuid.UUID) error
}

// Publisher is what services need from the event stream.
type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

var (
	_ Searcher  = (*search.Client)(nil)
	_ Publisher = (*events.Producer)(nil)
)

type ResourceService struct {
	Repo     *repo.GormRepo
	Limits   validate.Limits
	Producer Publisher
	Search   Searcher
}

type ImageInput struct {
	URL         string
	Meta        validate.ImageMeta
	IsThumbnail bool
	Position    int
}

type CreateResourceInput struct {
	Title        string
	Description  string
	Price        float64
	Type         models.ResourceType
	Framework    string
	Category     string
	Images       []ImageInput
	Escrow       *EscrowInput
	Instructions string
}

type EscrowInput struct {
	RequiresCfxID        bool
	RequiresEmail        bool
	RequiresUsername     bool
	DeliveryInstructions string
}

type UpdateResourceInput struct {
	Title       *string
	Description *string
	Price       *float64
	Framework   *string
	Category    *string
}

// publish sends an event without failing the operation; event delivery
// is best effort.
func (s *ResourceService) publish(ctx context.Context, key string, event map[string]any) {
	if s.Producer == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(pubCtx, events.TopicResourceEvents, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "error", err)
	}
}

func (s *ResourceService) Create(ctx context.Context, actor models.Actor, in CreateResourceInput) (*models.Resource, error) {
	l := logging.FromContext(ctx).With("svc", "resource.create")

	if !actor.IsSeller() {
		return nil, fault.Forbiddenf("seller role required")
	}

	input := validate.ResourceInput{
		Title:        in.Title,
		Description:  in.Description,
		Price:        in.Price,
		Type:         in.Type,
		HasEscrow:    in.Escrow != nil,
		Instructions: in.Instructions,
	}
	if fe := validate.Resource(input, s.Limits); fe != nil {
		return nil, fe
	}
	if len(in.Images) > 0 {
		metas := make([]validate.ImageMeta, len(in.Images))
		for i, img := range in.Images {
			metas[i] = img.Meta
			metas[i].IsThumbnail = img.IsThumbnail
		}
		if reason := validate.Images(metas, s.Limits); reason != "" {
			return nil, fault.FieldErrors{"images": reason}
		}
	}

	input = validate.Sanitize(input)

	res := &models.Resource{
		AuthorID:    actor.ID,
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
		Type:        in.Type,
		Framework:   in.Framework,
		Category:    in.Category,
		Status:      models.StatusDraft,
	}
	for _, img := range in.Images {
		res.Images = append(res.Images, models.ResourceImage{
			URL:         img.URL,
			IsThumbnail: img.IsThumbnail,
			Position:    img.Position,
		})
	}
	if in.Escrow != nil {
		res.Escrow = &models.EscrowInfo{
			RequiresCfxID:        in.Escrow.RequiresCfxID,
			RequiresEmail:        in.Escrow.RequiresEmail,
			RequiresUsername:     in.Escrow.RequiresUsername,
			DeliveryInstructions: input.Instructions,
		}
	}

	if err := s.Repo.CreateResource(ctx, res); err != nil {
		l.Error("create_resource_error", "error", err)
		return nil, fault.Upstreamf("create resource: %v", err)
	}

	l.Info("resource_created", "resource_id", res.ID)
	return res, nil
}

// Get hides non-approved resources from everyone but their owner and
// admins; a denied read reports not-found, never forbidden.
func (s *ResourceService) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Resource, error) {
	res, err := s.Repo.GetResource(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fault.NotFoundf("resource %s", id)
		}
		return nil, fault.Upstreamf("get resource: %v", err)
	}

	if res.Status != models.StatusApproved && res.AuthorID != actor.ID && !actor.IsAdmin() {
		return nil, fault.NotFoundf("resource %s", id)
	}
	return res, nil
}

func (s *ResourceService) Update(ctx context.Context, actor models.Actor, id uuid.UUID, in UpdateResourceInput) (*models.Resource, error) {
	l := logging.FromContext(ctx).With("svc", "resource.update")

	var updated *models.Resource
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		res, err := s.owned(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		if res.Status != models.StatusDraft && res.Status != models.StatusRejected {
			return fault.Conflictf("resource is %s; withdraw it to draft before editing", res.Status)
		}

		if in.Title != nil {
			res.Title = *in.Title
		}
		if in.Description != nil {
			res.Description = *in.Description
		}
		if in.Price != nil {
			res.Price = *in.Price
		}
		if in.Framework != nil {
			res.Framework = *in.Framework
		}
		if in.Category != nil {
			res.Category = *in.Category
		}

		input := validate.ResourceInput{
			Title:       res.Title,
			Description: res.Description,
			Price:       res.Price,
			Type:        res.Type,
		}
		if fe := validate.Resource(input, s.Limits); fe != nil {
			return fe
		}
		input = validate.Sanitize(input)
		res.Title = input.Title
		res.Description = input.Description
		res.Price = input.Price

		updated = res
		return tx.SaveResource(ctx, res)
	})
	if err != nil {
		return nil, err
	}

	l.Info("resource_updated", "resource_id", id)
	return updated, nil
}

func (s *ResourceService) Delete(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "resource.delete")

	res, err := s.Repo.GetResource(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fault.NotFoundf("resource %s", id)
		}
		return fault.Upstreamf("get resource: %v", err)
	}
	if res.AuthorID != actor.ID && !actor.IsAdmin() {
		return fault.NotFoundf("resource %s", id)
	}

	if err := s.Repo.DeleteResource(ctx, id); err != nil {
		return fault.Upstreamf("delete resource: %v", err)
	}
	s.removeFromIndex(ctx, id)

	l.Info("resource_deleted", "resource_id", id)
	return nil
}

// Submit moves a resource into moderation. The completeness predicate
// must hold; a violation is an error, never a silent fall back to
// draft.
func (s *ResourceService) Submit(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Resource, error) {
	l := logging.FromContext(ctx).With("svc", "resource.submit")

	var submitted *models.Resource
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		res, err := s.owned(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		if res.Status == models.StatusPending {
			return fault.Conflictf("resource is already pending review")
		}

		full, err := tx.GetResource(ctx, id)
		if err != nil {
			return fault.Upstreamf("load resource: %v", err)
		}
		if fe := s.completeness(full); fe != nil {
			return fe
		}

		// Resubmission drops any earlier approval stamp.
		res.Status = models.StatusPending
		res.ApprovedAt = nil
		res.ApprovedBy = nil
		submitted = res
		return tx.SaveResource(ctx, res)
	})
	if err != nil {
		return nil, err
	}

	l.Info("resource_submitted", "resource_id", id)
	return submitted, nil
}

func (s *ResourceService) Approve(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Resource, error) {
	l := logging.FromContext(ctx).With("svc", "resource.approve")

	if !actor.IsAdmin() {
		return nil, fault.Forbiddenf("admin role required")
	}

	var approved *models.Resource
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		res, err := tx.GetResourceForUpdate(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return fault.NotFoundf("resource %s", id)
			}
			return fault.Upstreamf("load resource: %v", err)
		}
		if res.Status != models.StatusPending {
			return fault.Conflictf("cannot approve a %s resource", res.Status)
		}

		now := time.Now().UTC()
		res.Status = models.StatusApproved
		res.ApprovedAt = &now
		adminID := actor.ID
		res.ApprovedBy = &adminID

		approved = res
		return tx.SaveResource(ctx, res)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, id.String(), map[string]any{
		"type":        "resource_approved",
		"resource_id": id,
		"admin_id":    actor.ID,
	})
	s.addToIndex(ctx, approved)

	l.Info("resource_approved", "resource_id", id, "admin_id", actor.ID)
	return approved, nil
}

func (s *ResourceService) Reject(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Resource, error) {
	l := logging.FromContext(ctx).With("svc", "resource.reject")

	if !actor.IsAdmin() {
		return nil, fault.Forbiddenf("admin role required")
	}

	var rejected *models.Resource
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		res, err := tx.GetResourceForUpdate(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return fault.NotFoundf("resource %s", id)
			}
			return fault.Upstreamf("load resource: %v", err)
		}
		if res.Status != models.StatusPending {
			return fault.Conflictf("cannot reject a %s resource", res.Status)
		}

		res.Status = models.StatusRejected
		rejected = res
		return tx.SaveResource(ctx, res)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, id.String(), map[string]any{
		"type":        "resource_rejected",
		"resource_id": id,
		"admin_id":    actor.ID,
	})

	l.Info("resource_rejected", "resource_id", id, "admin_id", actor.ID)
	return rejected, nil
}

func (s *ResourceService) Suspend(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Resource, error) {
	l := logging.FromContext(ctx).With("svc", "resource.suspend")

	var suspended *models.Resource
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		res, err := tx.GetResourceForUpdate(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return fault.NotFoundf("resource %s", id)
			}
			return fault.Upstreamf("load resource: %v", err)
		}
		if res.AuthorID != actor.ID && !actor.IsAdmin() {
			return fault.NotFoundf("resource %s", id)
		}
		if res.Status != models.StatusApproved {
			return fault.Conflictf("cannot suspend a %s resource", res.Status)
		}

		res.Status = models.StatusSuspended
		suspended = res
		return tx.SaveResource(ctx, res)
	})
	if err != nil {
		return nil, err
	}
	s.removeFromIndex(ctx, id)

	l.Info("resource_suspended", "resource_id", id)
	return suspended, nil
}

// Withdraw pulls a resource back to draft for editing. The owner may
// always do this, from any state.
func (s *ResourceService) Withdraw(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Resource, error) {
	l := logging.FromContext(ctx).With("svc", "resource.withdraw")

	var withdrawn *models.Resource
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		res, err := s.owned(ctx, tx, actor, id)
		if err != nil {
			return err
		}

		wasApproved := res.Status == models.StatusApproved
		res.Status = models.StatusDraft
		res.ApprovedAt = nil
		res.ApprovedBy = nil
		withdrawn = res
		if err := tx.SaveResource(ctx, res); err != nil {
			return err
		}
		if wasApproved {
			s.removeFromIndex(ctx, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.Info("resource_withdrawn", "resource_id", id)
	return withdrawn, nil
}

func (s *ResourceService) AttachFile(ctx context.Context, actor models.Actor, id uuid.UUID, meta validate.FileMeta, url string) (*models.Resource, error) {
	var updated *models.Resource
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		res, err := s.owned(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		if res.Type != models.TypeDirect {
			return fault.Validationf("only direct resources carry a delivery file")
		}
		if reason := validate.File(meta, s.Limits); reason != "" {
			return fault.FieldErrors{"file": reason}
		}

		res.FileURL = url
		updated = res
		return tx.SaveResource(ctx, res)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *ResourceService) SetImages(ctx context.Context, actor models.Actor, id uuid.UUID, images []ImageInput) error {
	return s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		if _, err := s.owned(ctx, tx, actor, id); err != nil {
			return err
		}

		metas := make([]validate.ImageMeta, len(images))
		rows := make([]models.ResourceImage, len(images))
		for i, img := range images {
			metas[i] = img.Meta
			metas[i].IsThumbnail = img.IsThumbnail
			rows[i] = models.ResourceImage{
				URL:         img.URL,
				IsThumbnail: img.IsThumbnail,
				Position:    img.Position,
			}
		}
		if reason := validate.Images(metas, s.Limits); reason != "" {
			return fault.FieldErrors{"images": reason}
		}

		return tx.ReplaceImages(ctx, id, rows)
	})
}

func (s *ResourceService) SetEscrowInfo(ctx context.Context, actor models.Actor, id uuid.UUID, in EscrowInput) error {
	return s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		res, err := s.owned(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		if res.Type != models.TypeEscrow {
			return fault.Validationf("only escrow resources carry escrow requirements")
		}
		if reason := validate.Instructions(in.DeliveryInstructions); reason != "" {
			return fault.FieldErrors{"delivery_instructions": reason}
		}

		return tx.UpsertEscrowInfo(ctx, &models.EscrowInfo{
			ResourceID:           id,
			RequiresCfxID:        in.RequiresCfxID,
			RequiresEmail:        in.RequiresEmail,
			RequiresUsername:     in.RequiresUsername,
			DeliveryInstructions: in.DeliveryInstructions,
		})
	})
}

// completeness is the predicate gating the pending state: field rules
// plus the per-type delivery requirement plus the image invariant.
func (s *ResourceService) completeness(res *models.Resource) fault.FieldErrors {
	instructions := ""
	if res.Escrow != nil {
		instructions = res.Escrow.DeliveryInstructions
	}
	fe := validate.Completeness(validate.ResourceInput{
		Title:        res.Title,
		Description:  res.Description,
		Price:        res.Price,
		Type:         res.Type,
		FileURL:      res.FileURL,
		HasEscrow:    res.Escrow != nil,
		Instructions: instructions,
	}, s.Limits)
	if fe == nil {
		fe = fault.FieldErrors{}
	}

	if len(res.Images) == 0 {
		fe["images"] = "at least one image is required"
	} else {
		thumbs := 0
		for _, img := range res.Images {
			if img.IsThumbnail {
				thumbs++
			}
		}
		if thumbs != 1 {
			fe["images"] = "exactly one image must be flagged as thumbnail"
		}
	}

	if len(fe) == 0 {
		return nil
	}
	return fe
}

// owned loads the row under lock and enforces ownership; non-owners
// get not-found so drafts never leak.
func (s *ResourceService) owned(ctx context.Context, tx *repo.GormRepo, actor models.Actor, id uuid.UUID) (*models.Resource, error) {
	res, err := tx.GetResourceForUpdate(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fault.NotFoundf("resource %s", id)
		}
		return nil, fault.Upstreamf("load resource: %v", err)
	}
	if res.AuthorID != actor.ID {
		return nil, fault.NotFoundf("resource %s", id)
	}
	return res, nil
}

func (s *ResourceService) addToIndex(ctx context.Context, res *models.Resource) {
	if s.Search == nil || res == nil {
		return
	}
	if err := s.Search.IndexResource(ctx, res); err != nil {
		logging.FromContext(ctx).Error("search index error", "resource_id", res.ID, "error", err)
	}
}

func (s *ResourceService) removeFromIndex(ctx context.Context, id uuid.UUID) {
	if s.Search == nil {
		return
	}
	if err := s.Search.RemoveResource(ctx, id); err != nil {
		logging.FromContext(ctx).Error("search remove error", "resource_id", id, "error", err)
	}
}
