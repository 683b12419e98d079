package controller

import (
	"errors"
	"sort"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"babyshop/crud"
	"babyshop/dashboard"
	"babyshop/gateway"
	"babyshop/middleware"
	"babyshop/utils"
)

type SearchRequest struct {
	Q string `json:"q"`
}

type PageRequest struct {
	Page int `json:"page"`
}

type PageSizeRequest struct {
	PageSize int `json:"pageSize"`
}

// ResourceController exposes the admin screens. Every handler answers with the
// screen state so the client can re-render; failures the screen already
// reports through a toast still answer 200 with an "error" field.
type ResourceController struct {
	Logger *logrus.Entry
}

func NewResourceController(logger *logrus.Entry) *ResourceController {
	return &ResourceController{Logger: logger}
}

func (rc *ResourceController) manager(c *fiber.Ctx) (*dashboard.Dashboard, *crud.Manager, error) {
	d := middleware.CurrentDashboard(c)
	m, err := d.Manager(c.Params("resource"))
	if err != nil {
		return nil, nil, fiber.NewError(fiber.StatusNotFound, "Unknown resource "+c.Params("resource"))
	}
	return d, m, nil
}

func statusFor(err error) int {
	switch {
	case err == nil, crud.IsValidation(err):
		return fiber.StatusOK
	case errors.Is(err, crud.ErrBusy):
		return fiber.StatusConflict
	case errors.Is(err, crud.ErrUnknownRecord):
		return fiber.StatusNotFound
	case errors.Is(err, crud.ErrFormClosed), errors.Is(err, crud.ErrUnknownField),
		errors.Is(err, crud.ErrUnsupported), errors.Is(err, crud.ErrImageIndex),
		errors.Is(err, crud.ErrPageSize):
		return fiber.StatusBadRequest
	case errors.Is(err, crud.ErrInvalidFile), errors.Is(err, crud.ErrImageLocked):
		return fiber.StatusUnprocessableEntity
	default:
		// backend failures were already turned into an error toast
		return fiber.StatusOK
	}
}

func (rc *ResourceController) respond(c *fiber.Ctx, m *crud.Manager, err error) error {
	body := fiber.Map{
		"success": err == nil,
		"state":   m.State(),
	}
	if err != nil {
		body["error"] = gateway.Message(err, err.Error())
		var verr *crud.ValidationError
		if errors.As(err, &verr) {
			body["error"] = verr.First
			body["fields"] = verr.Fields
		}
		rc.Logger.WithFields(logrus.Fields{
			"resource": m.Resource().Name,
			"path":     c.Path(),
		}).WithError(err).Debug("screen operation failed")
	}
	return c.Status(statusFor(err)).JSON(body)
}

// Screens lists the resources of the signed-in dashboard.
func (rc *ResourceController) Screens(c *fiber.Ctx) error {
	d := middleware.CurrentDashboard(c)
	screens := make([]fiber.Map, 0)
	for _, name := range d.Names() {
		m, _ := d.Manager(name)
		screens = append(screens, fiber.Map{
			"name":  name,
			"title": m.Resource().Noun(),
			"live":  m.Live(),
		})
	}
	return c.JSON(utils.SuccessResponse(screens))
}

func (rc *ResourceController) State(c *fiber.Ctx) error {
	_, m, err := rc.manager(c)
	if err != nil {
		return err
	}
	return rc.respond(c, m, nil)
}

func (rc *ResourceController) Load(c *fiber.Ctx) error {
	d, m, err := rc.manager(c)
	if err != nil {
		return err
	}
	return rc.respond(c, m, m.Load(d.Context()))
}

func (rc *ResourceController) Search(c *fiber.Ctx) error {
	_, m, err := rc.manager(c)
	if err != nil {
		return err
	}
	var req SearchRequest
	if err := c.BodyParser(&req); err != nil {
		req.Q = c.Query("q")
	}
	m.SetSearch(req.Q)
	return rc.respond(c, m, nil)
}

func (rc *ResourceController) Page(c *fiber.Ctx) error {
	_, m, err := rc.manager(c)
	if err != nil {
		return err
	}
	var req PageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	m.SetPage(req.Page)
	return rc.respond(c, m, nil)
}

// PageSize changes the rows per page; the screen goes back to page 1.
func (rc *ResourceController) PageSize(c *fiber.Ctx) error {
	_, m, err := rc.manager(c)
	if err != nil {
		return err
	}
	var req PageSizeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	return rc.respond(c, m, m.SetPageSize(req.PageSize))
}

func (rc *ResourceController) NewForm(c *fiber.Ctx) error {
	_, m, err := rc.manager(c)
	if err != nil {
		return err
	}
	return rc.respond(c, m, m.OpenCreate())
}

func (rc *ResourceController) EditForm(c *fiber.Ctx) error {
	d, m, err := rc.manager(c)
	if err != nil {
		return err
	}
	return rc.respond(c, m, m.OpenEdit(d.Context(), crud.ID(c.Params("id"))))
}

// SetFields applies {"field": value, ...} to the draft in field-name order.
func (rc *ResourceController) SetFields(c *fiber.Ctx) error {
	_, m, err := rc.manager(c)
	if err != nil {
		return err
	}
	var values map[string]any
	if err := c.BodyParser(&values); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := m.SetField(name, values[name]); err != nil {
			return rc.respond(c, m, err)
		}
	}
	return rc.respond(c, m, nil)
}

// StageImages takes the multipart "files" parts.
func (rc *ResourceController) StageImages(c *fiber.Ctx) error {
	_, m, err := rc.manager(c)
	if err != nil {
		return err
	}
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Expected multipart form",
		})
	}
	files := make([]gateway.File, 0, len(form.File["files"]))
	for _, fh := range form.File["files"] {
		f, err := readFile(fh)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to read upload", err)
		}
		files = append(files, f)
	}
	return rc.respond(c, m, m.StageFiles(files))
}

func (rc *ResourceController) RemoveImage(c *fiber.Ctx) error {
	_, m, err := rc.manager(c)
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid image index",
		})
	}
	return rc.respond(c, m, m.RemoveImage(index))
}

func (rc *ResourceController) Submit(c *fiber.Ctx) error {
	d, m, err := rc.manager(c)
	if err != nil {
		return err
	}
	return rc.respond(c, m, m.Submit(d.Context()))
}

func (rc *ResourceController) CloseForm(c *fiber.Ctx) error {
	_, m, err := rc.manager(c)
	if err != nil {
		return err
	}
	return rc.respond(c, m, m.CloseForm())
}

func (rc *ResourceController) RequestDelete(c *fiber.Ctx) error {
	_, m, err := rc.manager(c)
	if err != nil {
		return err
	}
	return rc.respond(c, m, m.RequestDelete(crud.ID(c.Params("id"))))
}

func (rc *ResourceController) ConfirmDelete(c *fiber.Ctx) error {
	d, m, err := rc.manager(c)
	if err != nil {
		return err
	}
	return rc.respond(c, m, m.ConfirmDelete(d.Context()))
}

func (rc *ResourceController) CancelDelete(c *fiber.Ctx) error {
	_, m, err := rc.manager(c)
	if err != nil {
		return err
	}
	return rc.respond(c, m, m.CancelDelete())
}

// Clear wipes a locally stored resource.
func (rc *ResourceController) Clear(c *fiber.Ctx) error {
	d, m, err := rc.manager(c)
	if err != nil {
		return err
	}
	return rc.respond(c, m, m.Clear(d.Context()))
}

func (rc *ResourceController) DismissToast(c *fiber.Ctx) error {
	middleware.CurrentDashboard(c).Toaster.Dismiss()
	return c.SendStatus(fiber.StatusNoContent)
}
