package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Bourhlef-Y/fivemarket/internal/logging"
	authmw "github.com/Bourhlef-Y/fivemarket/internal/middleware/auth"
	"github.com/Bourhlef-Y/fivemarket/internal/models"
	"github.com/Bourhlef-Y/fivemarket/internal/service"
	"github.com/Bourhlef-Y/fivemarket/internal/transport"
	"github.com/Bourhlef-Y/fivemarket/internal/validate"
)

type ResourceHTTP struct {
	Svc *service.ResourceService
}

func (h *ResourceHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "resource.create")

	actor, err := authmw.ActorFrom(c)
	if err != nil {
		l.Warn("create_resource_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.CreateResourceRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_resource_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	in := service.CreateResourceInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Type:        models.ResourceType(req.Type),
		Framework:   req.Framework,
		Category:    req.Category,
		Images:      imageInputs(req.Images),
	}
	if req.Escrow != nil {
		in.Escrow = &service.EscrowInput{
			RequiresCfxID:        req.Escrow.RequiresCfxID,
			RequiresEmail:        req.Escrow.RequiresEmail,
			RequiresUsername:     req.Escrow.RequiresUsername,
			DeliveryInstructions: req.Escrow.DeliveryInstructions,
		}
		in.Instructions = req.Escrow.DeliveryInstructions
	}

	res, err := h.Svc.Create(ctx, actor, in)
	if err != nil {
		return respondErr(c, l, err)
	}

	l.Info("create_resource_success", "resource_id", res.ID)
	return c.JSON(http.StatusCreated, res)
}

func (h *ResourceHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "resource.get")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("get_resource_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	// Anonymous reads are allowed; only approved resources are visible
	// to them.
	actor, _ := authmw.ActorFrom(c)

	res, err := h.Svc.Get(ctx, actor, id)
	if err != nil {
		return respondErr(c, l, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ResourceHTTP) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "resource.patch")

	actor, err := authmw.ActorFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	var req transport.PatchResourceRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("patch_resource_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Update(ctx, actor, id, service.UpdateResourceInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Framework:   req.Framework,
		Category:    req.Category,
	})
	if err != nil {
		return respondErr(c, l, err)
	}

	l.Info("patch_resource_success", "resource_id", id)
	return c.JSON(http.StatusOK, res)
}

func (h *ResourceHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "resource.delete")

	actor, err := authmw.ActorFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	if err := h.Svc.Delete(ctx, actor, id); err != nil {
		return respondErr(c, l, err)
	}

	l.Info("delete_resource_success", "resource_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *ResourceHTTP) transition(c echo.Context, name string, fn func(ctx echo.Context, actor models.Actor, id uuid.UUID) (*models.Resource, error)) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "resource."+name)

	actor, err := authmw.ActorFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	res, err := fn(c, actor, id)
	if err != nil {
		return respondErr(c, l, err)
	}

	l.Info(name+"_success", "resource_id", id)
	return c.JSON(http.StatusOK, res)
}

func (h *ResourceHTTP) Submit(c echo.Context) error {
	return h.transition(c, "submit", func(c echo.Context, actor models.Actor, id uuid.UUID) (*models.Resource, error) {
		return h.Svc.Submit(c.Request().Context(), actor, id)
	})
}

func (h *ResourceHTTP) Approve(c echo.Context) error {
	return h.transition(c, "approve", func(c echo.Context, actor models.Actor, id uuid.UUID) (*models.Resource, error) {
		return h.Svc.Approve(c.Request().Context(), actor, id)
	})
}

func (h *ResourceHTTP) Reject(c echo.Context) error {
	return h.transition(c, "reject", func(c echo.Context, actor models.Actor, id uuid.UUID) (*models.Resource, error) {
		return h.Svc.Reject(c.Request().Context(), actor, id)
	})
}

func (h *ResourceHTTP) Suspend(c echo.Context) error {
	return h.transition(c, "suspend", func(c echo.Context, actor models.Actor, id uuid.UUID) (*models.Resource, error) {
		return h.Svc.Suspend(c.Request().Context(), actor, id)
	})
}

func (h *ResourceHTTP) Withdraw(c echo.Context) error {
	return h.transition(c, "withdraw", func(c echo.Context, actor models.Actor, id uuid.UUID) (*models.Resource, error) {
		return h.Svc.Withdraw(c.Request().Context(), actor, id)
	})
}

func (h *ResourceHTTP) AttachFile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "resource.attach_file")

	actor, err := authmw.ActorFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	var req transport.AttachFileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.AttachFile(ctx, actor, id, validate.FileMeta{
		Filename: req.Filename,
		MIME:     req.MIME,
		Size:     req.Size,
	}, req.URL)
	if err != nil {
		return respondErr(c, l, err)
	}

	l.Info("attach_file_success", "resource_id", id)
	return c.JSON(http.StatusOK, res)
}

func (h *ResourceHTTP) SetImages(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "resource.set_images")

	actor, err := authmw.ActorFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	var req []transport.ImagePayload
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.SetImages(ctx, actor, id, imageInputs(req)); err != nil {
		return respondErr(c, l, err)
	}

	l.Info("set_images_success", "resource_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *ResourceHTTP) SetEscrow(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "resource.set_escrow")

	actor, err := authmw.ActorFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	var req transport.EscrowPayload
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	err = h.Svc.SetEscrowInfo(ctx, actor, id, service.EscrowInput{
		RequiresCfxID:        req.RequiresCfxID,
		RequiresEmail:        req.RequiresEmail,
		RequiresUsername:     req.RequiresUsername,
		DeliveryInstructions: req.DeliveryInstructions,
	})
	if err != nil {
		return respondErr(c, l, err)
	}

	l.Info("set_escrow_success", "resource_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *ResourceHTTP) Mine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "resource.mine")

	actor, err := authmw.ActorFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	items, err := h.Svc.Repo.ListResourcesByAuthor(ctx, actor.ID)
	if err != nil {
		return respondErr(c, l, err)
	}
	return c.JSON(http.StatusOK, items)
}

func imageInputs(payloads []transport.ImagePayload) []service.ImageInput {
	out := make([]service.ImageInput, len(payloads))
	for i, p := range payloads {
		out[i] = service.ImageInput{
			URL: p.URL,
			Meta: validate.ImageMeta{
				Filename: p.Filename,
				MIME:     p.MIME,
				Size:     p.Size,
			},
			IsThumbnail: p.IsThumbnail,
			Position:    p.Position,
		}
	}
	return out
}
