package controller

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"babyshop/auth"
	"babyshop/imagehost"
	"babyshop/middleware"
	"babyshop/models"
	"babyshop/store"
	"babyshop/utils"
)

// MaxProfilePhotoBytes caps profile photo uploads.
const MaxProfilePhotoBytes = 2 << 20

type UpdateProfileRequest struct {
	DisplayName string `json:"displayName"`
	models.ProfileExtra
}

type ProfileResponse struct {
	User  *models.User        `json:"user"`
	Extra models.ProfileExtra `json:"extra"`
}

type ProfileController struct {
	Provider auth.Provider
	KV       store.KV
	Images   store.Uploader
	Logger   *logrus.Entry
}

func NewProfileController(provider auth.Provider, kv store.KV, images store.Uploader, logger *logrus.Entry) *ProfileController {
	return &ProfileController{
		Provider: provider,
		KV:       kv,
		Images:   images,
		Logger:   logger,
	}
}

func (pc *ProfileController) extra(c *fiber.Ctx, uid string) (models.ProfileExtra, error) {
	var extra models.ProfileExtra
	raw, ok, err := pc.KV.Get(c.UserContext(), models.ProfileExtraKey(uid))
	if err != nil || !ok {
		return extra, err
	}
	if err := json.Unmarshal(raw, &extra); err != nil {
		pc.Logger.WithError(err).WithField("uid", uid).Warn("discarding unreadable profile extras")
		return models.ProfileExtra{}, nil
	}
	return extra, nil
}

func (pc *ProfileController) GetProfile(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	extra, err := pc.extra(c, user.UID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load profile", err)
	}
	return c.JSON(ProfileResponse{User: user, Extra: extra})
}

func (pc *ProfileController) UpdateProfile(c *fiber.Ctx) error {
	d := middleware.CurrentDashboard(c)
	current := middleware.CurrentUser(c)

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.DisplayName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}
	if err := utils.ValidateStruct(req.ProfileExtra); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	user, err := pc.Provider.UpdateProfile(c.UserContext(), d.Session.Credentials(), req.DisplayName, current.PhotoURL)
	if err != nil {
		d.Toaster.Error("Update Failed", auth.Message(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": auth.Message(err),
		})
	}

	raw, err := json.Marshal(req.ProfileExtra)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save profile", err)
	}
	if err := pc.KV.Set(c.UserContext(), models.ProfileExtraKey(current.UID), raw); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save profile", err)
	}

	updated := merge(*current, user)
	d.Session.Update(updated)
	d.Toaster.Success("Saved", "Profile updated")
	return c.JSON(ProfileResponse{User: &updated, Extra: req.ProfileExtra})
}

// UploadPhoto hosts a new profile photo and points the account at it.
func (pc *ProfileController) UploadPhoto(c *fiber.Ctx) error {
	d := middleware.CurrentDashboard(c)
	current := middleware.CurrentUser(c)

	fh, err := c.FormFile("photo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Photo is required",
		})
	}
	file, err := readFile(fh)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to read photo", err)
	}

	link, err := pc.Images.Upload(c.UserContext(), file)
	switch {
	case errors.Is(err, imagehost.ErrNotImage):
		d.Toaster.Error("Invalid File", "Only image files allowed.")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Only image files allowed."})
	case errors.Is(err, imagehost.ErrTooLarge):
		d.Toaster.Error("Too Large", "Image must be less than 2MB.")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Image must be less than 2MB."})
	case err != nil:
		pc.Logger.WithError(err).Warn("profile photo upload failed")
		d.Toaster.Error("Upload Failed", "Could not upload photo")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Could not upload photo"})
	}

	user, err := pc.Provider.UpdateProfile(c.UserContext(), d.Session.Credentials(), current.DisplayName, link)
	if err != nil {
		d.Toaster.Error("Update Failed", auth.Message(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": auth.Message(err),
		})
	}
	updated := merge(*current, user)
	updated.PhotoURL = link
	d.Session.Update(updated)
	d.Toaster.Success("Saved", "Photo updated")
	return c.JSON(fiber.Map{"user": updated})
}

// merge keeps session fields the provider's update reply leaves out.
func merge(current models.User, reply *models.User) models.User {
	if reply.DisplayName != "" {
		current.DisplayName = reply.DisplayName
	}
	if reply.PhotoURL != "" {
		current.PhotoURL = reply.PhotoURL
	}
	if reply.Email != "" {
		current.Email = reply.Email
	}
	return current
}
